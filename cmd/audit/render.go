package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	"github.com/stemsi/degree-audit/internal/model"
	"github.com/stemsi/degree-audit/internal/requirement"
)

var (
	heading = color.New(color.FgCyan, color.Bold).SprintFunc()
	good    = color.New(color.FgGreen).SprintFunc()
	pending = color.New(color.FgYellow).SprintFunc()
	bad     = color.New(color.FgRed).SprintFunc()
)

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func statusText(s model.CategoryStatus) string {
	switch s {
	case model.StatusComplete:
		return good(string(s))
	case model.StatusIndeterminate:
		return bad(string(s))
	default:
		return pending(string(s))
	}
}

func satisfiedText(ok bool) string {
	if ok {
		return good("yes")
	}
	return pending("no")
}

func courseCodes(courses []model.Course) string {
	codes := make([]string, len(courses))
	for i, c := range courses {
		codes[i] = c.Code
	}
	return strings.Join(codes, ", ")
}

func renderReport(w io.Writer, r *model.AuditReport) {
	name := r.Major.Name
	if r.Major.SubMajor != "" {
		name += " / " + r.Major.SubMajor
	}
	fmt.Fprintf(w, "%s %s (id %d), %d completed courses\n\n", heading("Audit:"), name, r.Major.MajorID, r.CompletedCourseCount)

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Category", "Status", "Required", "Completed", "Missing", "Missing courses"})
	table.SetAutoWrapText(false)
	table.Append([]string{"core", statusText(r.Core.Status), fmt.Sprint(r.Core.RequiredCount),
		fmt.Sprint(r.Core.CompletedCount), fmt.Sprint(r.Core.MissingCount), courseCodes(r.Core.Missing)})
	table.Append([]string{"elective", statusText(r.Elective.Status), fmt.Sprint(r.Elective.RequiredCount),
		fmt.Sprint(r.Elective.CompletedCount), fmt.Sprint(r.Elective.MissingCount), ""})
	table.Append([]string{"supporting", statusText(r.Supporting.Status), fmt.Sprint(r.Supporting.RequiredCount),
		fmt.Sprint(r.Supporting.CompletedCount), fmt.Sprint(r.Supporting.MissingCount), courseCodes(r.Supporting.Missing)})
	table.Render()

	fmt.Fprintf(w, "\n%s\n", heading("General education"))
	gen := tablewriter.NewWriter(w)
	gen.SetHeader([]string{"Sub-category", "Rule", "Required", "Completed", "Missing", "Satisfied"})
	for _, cat := range requirement.GenEdCategories {
		g, ok := r.GeneralEducation[string(cat)]
		if !ok {
			continue
		}
		gen.Append([]string{string(cat), string(g.Rule), fmt.Sprint(g.RequiredCount),
			fmt.Sprint(g.CompletedCount), fmt.Sprint(g.MissingCount), satisfiedText(g.Satisfied)})
	}
	gen.Render()

	for _, warning := range r.Warnings {
		fmt.Fprintf(w, "%s %s\n", pending("warning:"), warning)
	}
}

func renderFailed(w io.Writer, failed []model.TranscriptEntry) {
	if len(failed) == 0 {
		return
	}
	fmt.Fprintf(w, "\n%s\n", heading("Failed courses"))
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Course", "Grade", "Semester"})
	for _, e := range failed {
		table.Append([]string{e.CourseCode, bad(e.Grade), e.Semester})
	}
	table.Render()
}

func renderRequirements(w io.Writer, v *model.RequirementsView) {
	name := v.Major.Name
	if v.Major.SubMajor != "" {
		name += " / " + v.Major.SubMajor
	}
	fmt.Fprintf(w, "%s %s (id %d)\n\n", heading("Requirements:"), name, v.Major.MajorID)

	th := tablewriter.NewWriter(w)
	th.SetHeader([]string{"Category", "Table", "Required"})
	th.Append([]string{"core", v.Tables.Core, requiredText(v.Thresholds.CoreCountNeeded)})
	th.Append([]string{"elective", v.Tables.Elective, fmt.Sprint(v.Thresholds.ElectiveCountNeeded)})
	th.Append([]string{"supporting", v.Tables.Supporting, requiredText(v.Thresholds.SupportingCountNeeded)})
	th.Render()
	if len(v.Thresholds.SupportingPrefixes) > 0 {
		fmt.Fprintf(w, "supporting prefixes: %s\n", strings.Join(v.Thresholds.SupportingPrefixes, ", "))
	}

	fmt.Fprintf(w, "\n%s\n", heading("General education"))
	gen := tablewriter.NewWriter(w)
	gen.SetHeader([]string{"Sub-category", "Rule", "Required", "Candidates"})
	gen.SetAutoWrapText(false)
	for _, cat := range requirement.GenEdCategories {
		g := v.GeneralEducation[string(cat)]
		gen.Append([]string{string(cat), string(g.Rule), fmt.Sprint(g.RequiredCount), strings.Join(g.Candidates, ", ")})
	}
	gen.Render()
}

// requiredText shows 0 as "all", since an unset count means every listed
// course is required.
func requiredText(n int) string {
	if n == 0 {
		return "all"
	}
	return fmt.Sprint(n)
}
