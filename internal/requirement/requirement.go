// Package requirement holds the resolved, per-request requirement model and
// the single evaluation routine used for every general-education rule.
package requirement

import (
	"sort"

	"github.com/stemsi/degree-audit/internal/model"
	"github.com/stemsi/degree-audit/internal/normalize"
)

// Category is a top-level requirement category.
type Category string

const (
	CategoryCore             Category = "core"
	CategoryElective         Category = "elective"
	CategorySupporting       Category = "supporting"
	CategoryGeneralEducation Category = "general_education"
)

// GenEdCategory is a general-education sub-category.
type GenEdCategory string

const (
	GenEdCompulsory      GenEdCategory = "compulsory"
	GenEdReligious       GenEdCategory = "religious"
	GenEdHumanities      GenEdCategory = "humanities"
	GenEdSocialSciences  GenEdCategory = "social_sciences"
	GenEdScienceLab      GenEdCategory = "science_lab"
	GenEdMathematics     GenEdCategory = "mathematics"
	GenEdComputerScience GenEdCategory = "computer_science"
	GenEdAdditional      GenEdCategory = "additional"
)

// GenEdCategories lists every sub-category in report order.
var GenEdCategories = []GenEdCategory{
	GenEdCompulsory,
	GenEdReligious,
	GenEdHumanities,
	GenEdSocialSciences,
	GenEdScienceLab,
	GenEdMathematics,
	GenEdComputerScience,
	GenEdAdditional,
}

// ParseGenEdCategory maps a label onto a known sub-category.
func ParseGenEdCategory(s string) (GenEdCategory, bool) {
	for _, c := range GenEdCategories {
		if string(c) == s {
			return c, true
		}
	}
	return "", false
}

// MatchRule is either ExactCodes or PrefixSet.
type MatchRule interface {
	Kind() model.RuleKind
	Values() []string
	matches(code string) bool
}

// ExactCodes matches completed codes by membership.
type ExactCodes []string

func (r ExactCodes) Kind() model.RuleKind { return model.RuleExact }
func (r ExactCodes) Values() []string { return []string(r) }

func (r ExactCodes) matches(code string) bool {
	for _, c := range r {
		if c == code {
			return true
		}
	}
	return false
}

// PrefixSet matches completed codes whose department prefix is listed.
// Entries that carry digits ("PHIL221") match that exact course instead.
type PrefixSet []string

func (r PrefixSet) Kind() model.RuleKind { return model.RulePrefix }
func (r PrefixSet) Values() []string { return []string(r) }

func (r PrefixSet) matches(code string) bool {
	prefix := normalize.Prefix(code)
	for _, p := range r {
		if normalize.HasDigit(p) {
			if p == code {
				return true
			}
			continue
		}
		if p == prefix {
			return true
		}
	}
	return false
}

// GenEdRule pairs a match rule with the number of courses it needs.
type GenEdRule struct {
	RequiredCount int
	Rule          MatchRule
}

// Evaluation is the outcome of running a rule over a completed set.
type Evaluation struct {
	Matched []string
	Count   int
}

// Evaluate returns the distinct completed codes satisfying rule, sorted.
func Evaluate(rule MatchRule, completed map[string]struct{}) Evaluation {
	if rule == nil {
		return Evaluation{Matched: []string{}}
	}
	matched := make([]string, 0)
	for code := range completed {
		if rule.matches(code) {
			matched = append(matched, code)
		}
	}
	sort.Strings(matched)
	return Evaluation{Matched: matched, Count: len(matched)}
}

// CategoryCourses is the resolved candidate list of one major category.
// Indeterminate is set when the catalog could not be read.
type CategoryCourses struct {
	TableID       string
	Courses       []model.Course
	Indeterminate bool
}

// Spec is the resolved requirement specification for one audit request.
// It is built once by the resolver and only read afterwards.
type Spec struct {
	Major       model.MajorRef
	Thresholds  model.Thresholds
	Core        CategoryCourses
	Elective    CategoryCourses
	Supporting  CategoryCourses
	GenEd       map[GenEdCategory]GenEdRule
	GenEdLookup map[string]model.Course
	Warnings    []string
}

// ElectiveCountNeeded is the elective tally required by this spec.
func (s *Spec) ElectiveCountNeeded() int {
	return s.Thresholds.ElectiveCountNeeded
}
