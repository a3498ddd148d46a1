package audit

import (
	"github.com/stemsi/degree-audit/internal/model"
	"github.com/stemsi/degree-audit/internal/requirement"
)

// matchFixedList partitions a candidate list into completed and missing
// courses. required falls back to the list length when unset.
func matchFixedList(cat requirement.CategoryCourses, required int, completed map[string]struct{}) model.FixedListReport {
	rep := model.FixedListReport{
		TableID:   cat.TableID,
		Completed: []model.Course{},
		Missing:   []model.Course{},
	}
	if required <= 0 {
		required = len(cat.Courses)
	}
	rep.RequiredCount = required

	if cat.Indeterminate {
		rep.Status = model.StatusIndeterminate
		return rep
	}

	for _, c := range cat.Courses {
		if _, ok := completed[c.Code]; ok {
			rep.Completed = append(rep.Completed, c)
		} else {
			rep.Missing = append(rep.Missing, c)
		}
	}
	rep.CompletedCount = len(rep.Completed)
	rep.MissingCount = floor(required - rep.CompletedCount)
	rep.Status = statusFor(rep.MissingCount)
	return rep
}

// matchElective counts completed courses from the elective pool. Every
// match is reported even past the required count.
func matchElective(cat requirement.CategoryCourses, required int, completed map[string]struct{}) model.ElectiveReport {
	rep := model.ElectiveReport{
		TableID:       cat.TableID,
		RequiredCount: required,
		Completed:     []model.Course{},
	}
	if cat.Indeterminate {
		rep.Status = model.StatusIndeterminate
		return rep
	}

	for _, c := range cat.Courses {
		if _, ok := completed[c.Code]; ok {
			rep.Completed = append(rep.Completed, c)
		}
	}
	rep.CompletedCount = len(rep.Completed)
	rep.MissingCount = floor(required - rep.CompletedCount)
	rep.Status = statusFor(rep.MissingCount)
	return rep
}

// matchGenEd evaluates one general-education rule. A rule without
// candidates is satisfied whatever it requires.
func matchGenEd(rule requirement.GenEdRule, lookup map[string]model.Course, completed map[string]struct{}) model.GenEdReport {
	rep := model.GenEdReport{
		Rule:          model.RulePrefix,
		RequiredCount: rule.RequiredCount,
		Candidates:    []string{},
		Completed:     []model.Course{},
		Missing:       []model.Course{},
	}
	if rule.Rule == nil {
		rep.Satisfied = true
		return rep
	}

	rep.Rule = rule.Rule.Kind()
	rep.Candidates = append(rep.Candidates, rule.Rule.Values()...)

	ev := requirement.Evaluate(rule.Rule, completed)
	rep.CompletedCount = ev.Count

	if rep.Rule == model.RuleExact {
		for _, code := range rep.Candidates {
			c := courseFor(code, lookup)
			if _, ok := completed[code]; ok {
				rep.Completed = append(rep.Completed, c)
			} else {
				rep.Missing = append(rep.Missing, c)
			}
		}
	} else {
		for _, code := range ev.Matched {
			rep.Completed = append(rep.Completed, courseFor(code, lookup))
		}
	}

	rep.MissingCount = floor(rule.RequiredCount - rep.CompletedCount)
	rep.Satisfied = len(rep.Candidates) == 0 || rep.MissingCount == 0
	if len(rep.Candidates) == 0 {
		rep.MissingCount = 0
	}
	return rep
}

func courseFor(code string, lookup map[string]model.Course) model.Course {
	if c, ok := lookup[code]; ok {
		return c
	}
	return model.Course{Code: code}
}

func floor(n int) int {
	if n < 0 {
		return 0
	}
	return n
}

func statusFor(missing int) model.CategoryStatus {
	if missing == 0 {
		return model.StatusComplete
	}
	return model.StatusIncomplete
}
