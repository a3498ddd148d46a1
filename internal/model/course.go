package model

import "time"

// Course is a catalog entry. Code is the natural key and is always stored
// in normalized form.
type Course struct {
	Code    string `json:"code" yaml:"code"`
	Name    string `json:"name" yaml:"name"`
	Credits int    `json:"credits" yaml:"credits"`
}

// CatalogTable describes a registered course table in the catalog store.
type CatalogTable struct {
	TableID     string    `json:"table_id"`
	Description string    `json:"description"`
	CourseCount int       `json:"course_count"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Prerequisite links a course to one course that must be completed first.
type Prerequisite struct {
	CourseCode       string `json:"course_code"`
	PrerequisiteCode string `json:"prerequisite_code"`
}

// PrerequisiteLookup answers "what must be taken before this course" for a
// major's prerequisite table.
type PrerequisiteLookup struct {
	Major         MajorRef       `json:"major"`
	TableID       string         `json:"table_id"`
	CourseCode    string         `json:"course_code,omitempty"`
	Prerequisites []Prerequisite `json:"prerequisites"`
}

// CacheWarmResult summarises a catalog cache prewarm.
type CacheWarmResult struct {
	Removed int64    `json:"removed"`
	Warmed  int      `json:"warmed"`
	Missing []string `json:"missing"`
	Failed  []string `json:"failed"`
}
