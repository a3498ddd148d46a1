package audit

import (
	"github.com/stemsi/degree-audit/internal/model"
	"github.com/stemsi/degree-audit/internal/requirement"
)

// BuildReport matches a normalized completed set against spec. It is a pure
// function of its inputs.
func BuildReport(spec *requirement.Spec, completed map[string]struct{}) *model.AuditReport {
	th := spec.Thresholds

	report := &model.AuditReport{
		Major:                   spec.Major,
		Core:                    matchFixedList(spec.Core, th.CoreCountNeeded, completed),
		Elective:                matchElective(spec.Elective, th.ElectiveCountNeeded, completed),
		Supporting:              matchFixedList(spec.Supporting, th.SupportingCountNeeded, completed),
		GeneralEducation:        make(map[string]model.GenEdReport, len(requirement.GenEdCategories)),
		Thresholds:              th,
		CompletedCourseCount:    len(completed),
		IndeterminateCategories: []string{},
		Warnings:                append([]string{}, spec.Warnings...),
	}
	if report.Thresholds.SupportingPrefixes == nil {
		report.Thresholds.SupportingPrefixes = []string{}
	}

	for _, cat := range requirement.GenEdCategories {
		report.GeneralEducation[string(cat)] = matchGenEd(spec.GenEd[cat], spec.GenEdLookup, completed)
	}

	for _, c := range []struct {
		name requirement.Category
		cat  requirement.CategoryCourses
	}{
		{requirement.CategoryCore, spec.Core},
		{requirement.CategoryElective, spec.Elective},
		{requirement.CategorySupporting, spec.Supporting},
	} {
		if c.cat.Indeterminate {
			report.IndeterminateCategories = append(report.IndeterminateCategories, string(c.name))
		}
	}
	return report
}
