package audit

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/stemsi/degree-audit/internal/model"
	"github.com/stemsi/degree-audit/internal/normalize"
)

// Engine runs audits. It holds no per-request state and is safe for
// concurrent use.
type Engine struct {
	resolver *Resolver
	log      zerolog.Logger
}

func NewEngine(resolver *Resolver, log zerolog.Logger) *Engine {
	return &Engine{
		resolver: resolver,
		log:      log.With().Str("component", "audit_engine").Logger(),
	}
}

// Audit normalizes the completed codes, resolves the major's requirements
// and builds the report. Codes must already be filtered to passing grades.
// The only errors returned are registry resolution failures.
func (e *Engine) Audit(ctx context.Context, req model.AuditRequest) (*model.AuditReport, error) {
	completed := normalize.CodeSet(req.CompletedCourseCodes)

	spec, err := e.resolver.Resolve(ctx, req.MajorName, req.SubMajor, req.CoursePrefix)
	if err != nil {
		e.log.Debug().Err(err).Str("major_name", req.MajorName).Str("sub_major", req.SubMajor).Msg("Major resolution failed")
		return nil, err
	}

	report := BuildReport(spec, completed)

	e.log.Info().
		Int("major_id", report.Major.MajorID).
		Str("sub_major", report.Major.SubMajor).
		Int("completed", report.CompletedCourseCount).
		Str("core", string(report.Core.Status)).
		Str("elective", string(report.Elective.Status)).
		Strs("indeterminate", report.IndeterminateCategories).
		Msg("Audit completed")

	return report, nil
}
