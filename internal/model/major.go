package model

// MajorRef is the composite key every audit component works with once a
// free-text major has been resolved. SubMajor is empty for majors without
// concentrations.
type MajorRef struct {
	MajorID  int    `json:"major_id"`
	Name     string `json:"name"`
	SubMajor string `json:"sub_major,omitempty"`
}

// MajorSummary is the public listing form of a registry major.
type MajorSummary struct {
	ID              int               `json:"id"`
	Name            string            `json:"name"`
	Aliases         []string          `json:"aliases"`
	DefaultSubMajor string            `json:"default_sub_major,omitempty"`
	SubMajors       []SubMajorSummary `json:"sub_majors"`
	Prefixes        []string          `json:"prefixes"`
}

// SubMajorSummary is the listing form of a concentration.
type SubMajorSummary struct {
	Key     string   `json:"key"`
	Aliases []string `json:"aliases"`
}

// Thresholds are the numeric requirements of a (major, sub-major) pair.
type Thresholds struct {
	ElectiveCountNeeded   int            `json:"elective_count_needed"`
	CoreCountNeeded       int            `json:"core_count_needed"`
	SupportingCountNeeded int            `json:"supporting_count_needed"`
	SupportingPrefixes    []string       `json:"supporting_prefixes"`
	Specializations       map[string]int `json:"specializations,omitempty"`
}

// Tables holds the catalog table ids for a (major, sub-major) pair. Empty
// means the category has no table for this major.
type Tables struct {
	Core          string `json:"core,omitempty"`
	Elective      string `json:"elective,omitempty"`
	Supporting    string `json:"supporting,omitempty"`
	Courses       string `json:"courses,omitempty"`
	Prerequisites string `json:"prerequisites,omitempty"`
}

// GenEdRuleView is the public form of one general-education rule.
type GenEdRuleView struct {
	Rule          RuleKind `json:"rule"`
	RequiredCount int      `json:"required_count"`
	Candidates    []string `json:"candidates"`
}

// RequirementsView describes everything the registry knows about a
// (major, sub-major) pair.
type RequirementsView struct {
	Major            MajorRef                 `json:"major"`
	Thresholds       Thresholds               `json:"thresholds"`
	Tables           Tables                   `json:"tables"`
	GeneralEducation map[string]GenEdRuleView `json:"general_education"`
}
