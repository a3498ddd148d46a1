package model

// CategoryStatus summarises one requirement category in a report.
type CategoryStatus string

const (
	StatusComplete      CategoryStatus = "complete"
	StatusIncomplete    CategoryStatus = "incomplete"
	StatusIndeterminate CategoryStatus = "indeterminate"
)

// RuleKind tells consumers how a general-education sub-category is matched.
type RuleKind string

const (
	RuleExact  RuleKind = "exact"
	RulePrefix RuleKind = "prefix"
)

// AuditRequest is the engine input. CompletedCourseCodes must already be
// filtered to passing grades.
type AuditRequest struct {
	MajorName            string   `json:"major_name" binding:"required_without=CoursePrefix,max=100"`
	SubMajor             string   `json:"sub_major" binding:"omitempty,max=100"`
	CoursePrefix         string   `json:"course_prefix" binding:"omitempty,max=10"`
	CompletedCourseCodes []string `json:"completed_course_codes" binding:"max=500"`
}

// TranscriptEntry is one (course_code, grade, semester) tuple as produced by
// the transcript extraction collaborator. Entries are never validated one by
// one: a blank code is dropped and an unknown grade is neither passing nor
// failed.
type TranscriptEntry struct {
	CourseCode string `json:"course_code"`
	Grade      string `json:"grade"`
	Semester   string `json:"semester"`
}

// TranscriptAuditRequest audits raw transcript tuples after the passing-grade
// filter has been applied.
type TranscriptAuditRequest struct {
	MajorName    string            `json:"major_name" binding:"required_without=CoursePrefix,max=100"`
	SubMajor     string            `json:"sub_major" binding:"omitempty,max=100"`
	CoursePrefix string            `json:"course_prefix" binding:"omitempty,max=10"`
	Entries      []TranscriptEntry `json:"entries" binding:"max=500"`
}

// FixedListReport covers categories with an explicit candidate list where
// every candidate is either completed or missing (core, supporting).
type FixedListReport struct {
	Status         CategoryStatus `json:"status"`
	TableID        string         `json:"table_id,omitempty"`
	RequiredCount  int            `json:"required_count"`
	CompletedCount int            `json:"completed_count"`
	MissingCount   int            `json:"missing_count"`
	Completed      []Course       `json:"completed"`
	Missing        []Course       `json:"missing"`
}

// ElectiveReport covers the count-based elective pool. Over-completion is
// reported in full.
type ElectiveReport struct {
	Status         CategoryStatus `json:"status"`
	TableID        string         `json:"table_id,omitempty"`
	RequiredCount  int            `json:"required_count"`
	CompletedCount int            `json:"completed_count"`
	MissingCount   int            `json:"missing_count"`
	Completed      []Course       `json:"completed"`
}

// GenEdReport is the result for one general-education sub-category.
// Exact-code rules partition their candidates into Completed and Missing.
// Prefix rules list the matching completed courses and leave Missing empty,
// since there is no fixed list to subtract from.
type GenEdReport struct {
	Rule           RuleKind `json:"rule"`
	RequiredCount  int      `json:"required_count"`
	CompletedCount int      `json:"completed_count"`
	MissingCount   int      `json:"missing_count"`
	Satisfied      bool     `json:"satisfied"`
	Candidates     []string `json:"candidates"`
	Completed      []Course `json:"completed"`
	Missing        []Course `json:"missing"`
}

// AuditReport is the engine output.
type AuditReport struct {
	Major                   MajorRef               `json:"major"`
	Core                    FixedListReport        `json:"core"`
	Elective                ElectiveReport         `json:"elective"`
	Supporting              FixedListReport        `json:"supporting"`
	GeneralEducation        map[string]GenEdReport `json:"general_education"`
	Thresholds              Thresholds             `json:"thresholds"`
	CompletedCourseCount    int                    `json:"completed_course_count"`
	IndeterminateCategories []string               `json:"indeterminate_categories"`
	Warnings                []string               `json:"warnings"`
}

// TranscriptAuditResponse wraps a report with the transcript breakdown.
type TranscriptAuditResponse struct {
	Report        *AuditReport      `json:"report"`
	FailedCourses []TranscriptEntry `json:"failed_courses"`
	Semesters     []SemesterCourses `json:"semesters"`
}

// SemesterCourses groups passing transcript entries by semester.
type SemesterCourses struct {
	Semester string            `json:"semester"`
	Courses  []TranscriptEntry `json:"courses"`
}
