package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation     ErrCode = "VALIDATION_ERROR"
	ErrInvalidID      ErrCode = "INVALID_ID"
	ErrInvalidPayload ErrCode = "INVALID_PAYLOAD"

	// ─── Registry ──────────────────────────────────────────────────────
	ErrUnknownMajor    ErrCode = "UNKNOWN_MAJOR"
	ErrUnknownSubMajor ErrCode = "UNKNOWN_SUB_MAJOR"

	// ─── Catalog ───────────────────────────────────────────────────────
	ErrTableNotFound      ErrCode = "TABLE_NOT_FOUND"
	ErrCatalogUnavailable ErrCode = "CATALOG_UNAVAILABLE"
	ErrNoPrerequisites    ErrCode = "NO_PREREQUISITE_TABLE"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrNotFound ErrCode = "NOT_FOUND"

	// ─── Rate Limiting ─────────────────────────────────────────────────
	ErrRateLimitExceeded ErrCode = "RATE_LIMIT_EXCEEDED"

	// ─── Server ────────────────────────────────────────────────────────
	ErrInternal ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	// ─── Validation ────────────────────────────────────────────────────
	case ErrValidation:
		return "Validation failed. Please check your input."
	case ErrInvalidID:
		return "Invalid ID format."
	case ErrInvalidPayload:
		return "Invalid request payload."

	// ─── Registry ──────────────────────────────────────────────────────
	case ErrUnknownMajor:
		return "The major could not be found."
	case ErrUnknownSubMajor:
		return "The sub-major does not belong to this major."

	// ─── Catalog ───────────────────────────────────────────────────────
	case ErrTableNotFound:
		return "The catalog table is not registered."
	case ErrCatalogUnavailable:
		return "The course catalog is temporarily unavailable."
	case ErrNoPrerequisites:
		return "This major has no prerequisite table."

	// ─── Resources ─────────────────────────────────────────────────────
	case ErrNotFound:
		return "Resource not found."

	// ─── Rate Limiting ─────────────────────────────────────────────────
	case ErrRateLimitExceeded:
		return "Too many requests. Please try again later."

	// ─── Server ────────────────────────────────────────────────────────
	case ErrInternal:
		return "An internal server error occurred."
	default:
		return "An unexpected error occurred."
	}
}
