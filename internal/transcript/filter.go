// Package transcript turns extracted transcript rows into the passing-only
// course list the audit engine expects.
package transcript

import (
	"strings"

	"github.com/stemsi/degree-audit/internal/model"
	"github.com/stemsi/degree-audit/internal/normalize"
)

// FailingGrade marks a course that was attempted and failed.
const FailingGrade = "F"

// Filter classifies transcript entries by grade.
type Filter struct {
	passing map[string]struct{}
}

// NewFilter builds a filter accepting the given grades. Grades compare
// trimmed and upper-cased.
func NewFilter(passingGrades []string) *Filter {
	f := &Filter{passing: make(map[string]struct{}, len(passingGrades))}
	for _, g := range passingGrades {
		if g = canonicalGrade(g); g != "" {
			f.passing[g] = struct{}{}
		}
	}
	return f
}

func canonicalGrade(g string) string {
	return strings.ToUpper(strings.TrimSpace(g))
}

// IsPassing reports whether grade counts the course as completed.
func (f *Filter) IsPassing(grade string) bool {
	_, ok := f.passing[canonicalGrade(grade)]
	return ok
}

// Passing keeps entries with a passing grade, in input order.
func (f *Filter) Passing(entries []model.TranscriptEntry) []model.TranscriptEntry {
	out := make([]model.TranscriptEntry, 0, len(entries))
	for _, e := range entries {
		if f.IsPassing(e.Grade) {
			out = append(out, e)
		}
	}
	return out
}

// Failed returns entries graded F. Withdrawals and incompletes are neither
// passing nor failed.
func (f *Filter) Failed(entries []model.TranscriptEntry) []model.TranscriptEntry {
	out := make([]model.TranscriptEntry, 0)
	for _, e := range entries {
		if canonicalGrade(e.Grade) == FailingGrade {
			out = append(out, e)
		}
	}
	return out
}

// BySemester groups passing entries by semester in first-seen order. A
// semester with no passing entries is kept with an empty list.
func (f *Filter) BySemester(entries []model.TranscriptEntry) []model.SemesterCourses {
	groups := make([]model.SemesterCourses, 0)
	index := make(map[string]int)
	for _, e := range entries {
		sem := strings.TrimSpace(e.Semester)
		i, ok := index[sem]
		if !ok {
			i = len(groups)
			index[sem] = i
			groups = append(groups, model.SemesterCourses{Semester: sem, Courses: []model.TranscriptEntry{}})
		}
		if f.IsPassing(e.Grade) {
			groups[i].Courses = append(groups[i].Courses, e)
		}
	}
	return groups
}

// Codes returns the normalized codes of entries, dropping blanks.
func Codes(entries []model.TranscriptEntry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		if code := normalize.CourseCode(e.CourseCode); code != "" {
			out = append(out, code)
		}
	}
	return out
}
