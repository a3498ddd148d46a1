package audit

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/stemsi/degree-audit/internal/catalog"
	"github.com/stemsi/degree-audit/internal/model"
	"github.com/stemsi/degree-audit/internal/registry"
)

func fixtureTables() map[string][]model.Course {
	return map[string][]model.Course{
		"corecourses": {
			{Code: "CSCS101", Name: "Introduction to Programming", Credits: 3},
			{Code: "CSCS201", Name: "Data Structures", Credits: 3},
			{Code: "CSCS301", Name: "Algorithms", Credits: 3},
		},
		"electives": {
			{Code: "CSCS101", Name: "Introduction to Programming", Credits: 3},
			{Code: "CSCS310", Name: "Operating Systems", Credits: 3},
			{Code: "CSCS320", Name: "Computer Networks", Credits: 3},
			{Code: "CSCS330", Name: "Databases", Credits: 3},
			{Code: "CSCS340", Name: "Compilers", Credits: 3},
			{Code: "CSCS350", Name: "Machine Learning", Credits: 3},
			{Code: "CSCS360", Name: "Computer Graphics", Credits: 3},
		},
		"supporting_courses": {
			{Code: "MATH101", Name: "Calculus I", Credits: 3},
			{Code: "STAT201", Name: "Probability", Credits: 3},
			{Code: "PHYS101", Name: "Mechanics", Credits: 4},
			{Code: "CSCS201", Name: "Data Structures", Credits: 3},
		},
		"applied_psychology_core_courses": {
			{Code: "PSYC110", Name: "Applied Methods", Credits: 3},
		},
		"applied_psychology_elective_courses": {
			{Code: "PSYC410", Name: "Organisational Psychology", Credits: 3},
		},
		"psychology_core_courses": {
			{Code: "PSYC100", Name: "Foundations of Psychology", Credits: 3},
		},
		"bio_general_education": {
			{Code: "UNIV100", Name: "University Seminar", Credits: 1},
			{Code: "WRCM101", Name: "Writing I", Credits: 3},
			{Code: "ISLM101", Name: "Islamic Studies", Credits: 2},
		},
	}
}

func newTestEngine(t *testing.T, provider catalog.Provider, timeout time.Duration) *Engine {
	t.Helper()
	reg, err := registry.Default()
	require.NoError(t, err)
	return NewEngine(NewResolver(reg, provider, timeout, zerolog.Nop()), zerolog.Nop())
}

func codes(courses []model.Course) []string {
	out := make([]string, 0, len(courses))
	for _, c := range courses {
		out = append(out, c.Code)
	}
	return out
}

// faultyProvider fails or stalls selected tables.
type faultyProvider struct {
	catalog.Provider
	fail  map[string]error
	stall map[string]bool
}

func (p *faultyProvider) Fetch(ctx context.Context, tableID string) ([]model.Course, error) {
	if p.stall[tableID] {
		<-ctx.Done()
		return nil, &catalog.StorageError{TableID: tableID, Err: ctx.Err()}
	}
	if err, ok := p.fail[tableID]; ok {
		return nil, err
	}
	return p.Provider.Fetch(ctx, tableID)
}

func TestAuditComputerScienceWithMalformedCode(t *testing.T) {
	e := newTestEngine(t, catalog.NewMemoryProvider(fixtureTables()), time.Second)

	report, err := e.Audit(context.Background(), model.AuditRequest{
		MajorName:            "Computer Science",
		CompletedCourseCodes: []string{"CSCS101", "MATH101", "csc s 201"},
	})
	require.NoError(t, err)

	assert.Equal(t, model.MajorRef{MajorID: 1, Name: "Computer Science"}, report.Major)
	assert.Equal(t, []string{"CSCS101", "CSCS201"}, codes(report.Core.Completed))
	assert.Equal(t, []string{"CSCS301"}, codes(report.Core.Missing))
	assert.Equal(t, 3, report.Core.RequiredCount)
	assert.Equal(t, 1, report.Core.MissingCount)
	assert.Equal(t, model.StatusIncomplete, report.Core.Status)
	assert.Equal(t, 3, report.CompletedCourseCount)
	assert.Empty(t, report.IndeterminateCategories)
}

func TestAuditUnmatchedCodeAppearsNowhere(t *testing.T) {
	e := newTestEngine(t, catalog.NewMemoryProvider(fixtureTables()), time.Second)

	report, err := e.Audit(context.Background(), model.AuditRequest{
		MajorName:            "Computer Science",
		CompletedCourseCodes: []string{"xyz-999"},
	})
	require.NoError(t, err)

	assert.Empty(t, report.Core.Completed)
	assert.Len(t, report.Core.Missing, 3)
	assert.Empty(t, report.Elective.Completed)
	assert.Empty(t, report.Supporting.Completed)
	for name, ge := range report.GeneralEducation {
		assert.Empty(t, ge.Completed, name)
	}
}

func TestAuditAppliedPsychologyUsesSubMajorTables(t *testing.T) {
	e := newTestEngine(t, catalog.NewMemoryProvider(fixtureTables()), time.Second)

	report, err := e.Audit(context.Background(), model.AuditRequest{
		MajorName:            "Psychology",
		SubMajor:             "Applied",
		CompletedCourseCodes: []string{"PSYC110"},
	})
	require.NoError(t, err)

	assert.Equal(t, "Applied", report.Major.SubMajor)
	assert.Equal(t, "applied_psychology_core_courses", report.Core.TableID)
	assert.Equal(t, []string{"PSYC110"}, codes(report.Core.Completed))
	assert.Equal(t, 8, report.Elective.RequiredCount)
	assert.Equal(t, 12, report.Core.RequiredCount)
}

func TestAuditUnknownMajor(t *testing.T) {
	e := newTestEngine(t, catalog.NewMemoryProvider(fixtureTables()), time.Second)

	report, err := e.Audit(context.Background(), model.AuditRequest{
		MajorName:            "UnknownMajor123",
		CompletedCourseCodes: []string{"CSCS101"},
	})
	require.Error(t, err)
	assert.Nil(t, report)
	assert.True(t, errors.Is(err, registry.ErrUnknownMajor))
}

func TestAuditUnknownSubMajor(t *testing.T) {
	e := newTestEngine(t, catalog.NewMemoryProvider(fixtureTables()), time.Second)

	_, err := e.Audit(context.Background(), model.AuditRequest{
		MajorName: "Sociology",
		SubMajor:  "Applied",
	})
	assert.True(t, errors.Is(err, registry.ErrUnknownSubMajor))
}

func TestAuditScienceLabPrefixRule(t *testing.T) {
	e := newTestEngine(t, catalog.NewMemoryProvider(fixtureTables()), time.Second)

	report, err := e.Audit(context.Background(), model.AuditRequest{
		MajorName:            "Biology",
		CompletedCourseCodes: []string{"CHEM101"},
	})
	require.NoError(t, err)

	lab := report.GeneralEducation["science_lab"]
	assert.Equal(t, model.RulePrefix, lab.Rule)
	assert.True(t, lab.Satisfied)
	assert.Equal(t, 1, lab.CompletedCount)
	assert.Equal(t, 0, lab.MissingCount)
	assert.Equal(t, []string{"CHEM", "PHYS", "ENVR"}, lab.Candidates)
	assert.Equal(t, []string{"CHEM101"}, codes(lab.Completed))
	assert.Empty(t, lab.Missing)
}

func TestAuditExactGenEdPartition(t *testing.T) {
	e := newTestEngine(t, catalog.NewMemoryProvider(fixtureTables()), time.Second)

	report, err := e.Audit(context.Background(), model.AuditRequest{
		MajorName:            "Biology",
		CompletedCourseCodes: []string{"univ 100", "WRCM101"},
	})
	require.NoError(t, err)

	comp := report.GeneralEducation["compulsory"]
	assert.Equal(t, model.RuleExact, comp.Rule)
	assert.Equal(t, []model.Course{
		{Code: "UNIV100", Name: "University Seminar", Credits: 1},
		{Code: "WRCM101", Name: "Writing I", Credits: 3},
	}, comp.Completed)
	assert.Equal(t, []string{"WRCM102", "URDU101", "PKST101"}, codes(comp.Missing))
	assert.Equal(t, 3, comp.MissingCount)
	assert.False(t, comp.Satisfied)
}

func TestAuditGenEdCountsCourseInEveryMatchingCategory(t *testing.T) {
	e := newTestEngine(t, catalog.NewMemoryProvider(fixtureTables()), time.Second)

	report, err := e.Audit(context.Background(), model.AuditRequest{
		MajorName:            "Business",
		CompletedCourseCodes: []string{"MATH101"},
	})
	require.NoError(t, err)

	assert.Equal(t, 1, report.GeneralEducation["mathematics"].CompletedCount)
	assert.Equal(t, 1, report.GeneralEducation["additional"].CompletedCount)
}

func TestAuditExemptGenEdCategoryIsSatisfied(t *testing.T) {
	e := newTestEngine(t, catalog.NewMemoryProvider(fixtureTables()), time.Second)

	report, err := e.Audit(context.Background(), model.AuditRequest{MajorName: "Computer Science"})
	require.NoError(t, err)

	math := report.GeneralEducation["mathematics"]
	assert.True(t, math.Satisfied)
	assert.Zero(t, math.RequiredCount)
	assert.Zero(t, math.MissingCount)
	assert.Len(t, report.GeneralEducation, 8)
}

func TestAuditElectiveOverCompletion(t *testing.T) {
	e := newTestEngine(t, catalog.NewMemoryProvider(fixtureTables()), time.Second)

	report, err := e.Audit(context.Background(), model.AuditRequest{
		MajorName: "Computer Science",
		CompletedCourseCodes: []string{
			"CSCS310", "CSCS320", "CSCS330", "CSCS340", "CSCS350", "CSCS360",
		},
	})
	require.NoError(t, err)

	assert.Equal(t, 4, report.Elective.RequiredCount)
	assert.Equal(t, 6, report.Elective.CompletedCount)
	assert.Equal(t, 0, report.Elective.MissingCount)
	assert.Len(t, report.Elective.Completed, 6)
	assert.Equal(t, model.StatusComplete, report.Elective.Status)
}

func TestAuditNoDoubleCountAcrossMajorCategories(t *testing.T) {
	e := newTestEngine(t, catalog.NewMemoryProvider(fixtureTables()), time.Second)

	report, err := e.Audit(context.Background(), model.AuditRequest{
		MajorName:            "Computer Science",
		CompletedCourseCodes: []string{"CSCS101", "CSCS201"},
	})
	require.NoError(t, err)

	seen := map[string]string{}
	for name, list := range map[string][]model.Course{
		"core":       report.Core.Completed,
		"elective":   report.Elective.Completed,
		"supporting": report.Supporting.Completed,
	} {
		for _, c := range list {
			prev, dup := seen[c.Code]
			assert.False(t, dup, "%s completed in both %s and %s", c.Code, prev, name)
			seen[c.Code] = name
		}
	}
	assert.Equal(t, "core", seen["CSCS101"])
	assert.Equal(t, "core", seen["CSCS201"])
	assert.NotEmpty(t, report.Warnings)
}

func TestAuditSupportingPrefixFilter(t *testing.T) {
	e := newTestEngine(t, catalog.NewMemoryProvider(fixtureTables()), time.Second)

	report, err := e.Audit(context.Background(), model.AuditRequest{MajorName: "Computer Science"})
	require.NoError(t, err)

	assert.Equal(t, []string{"MATH101", "STAT201"}, codes(report.Supporting.Missing))
}

func TestAuditEmptyCompletedListGivesFullyMissingReport(t *testing.T) {
	e := newTestEngine(t, catalog.NewMemoryProvider(fixtureTables()), time.Second)

	report, err := e.Audit(context.Background(), model.AuditRequest{MajorName: "Computer Science"})
	require.NoError(t, err)

	assert.Empty(t, report.Core.Completed)
	assert.Equal(t, 3, report.Core.MissingCount)
	assert.Equal(t, 4, report.Elective.MissingCount)
	assert.Zero(t, report.CompletedCourseCount)
}

func TestAuditIdempotent(t *testing.T) {
	e := newTestEngine(t, catalog.NewMemoryProvider(fixtureTables()), time.Second)
	req := model.AuditRequest{
		MajorName:            "Computer Science",
		CompletedCourseCodes: []string{"CSCS310", "CSCS101", "MATH101", "UNIV100", "CHEM101"},
	}

	first, err := e.Audit(context.Background(), req)
	require.NoError(t, err)
	second, err := e.Audit(context.Background(), req)
	require.NoError(t, err)

	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("reports differ (-first +second):\n%s", diff)
	}

	a, err := json.Marshal(first)
	require.NoError(t, err)
	b, err := json.Marshal(second)
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
}

func TestAuditNormalizationInvariance(t *testing.T) {
	e := newTestEngine(t, catalog.NewMemoryProvider(fixtureTables()), time.Second)

	spaced, err := e.Audit(context.Background(), model.AuditRequest{
		MajorName:            "computer science",
		CompletedCourseCodes: []string{"cscs 101", "math-101"},
	})
	require.NoError(t, err)
	canonical, err := e.Audit(context.Background(), model.AuditRequest{
		MajorName:            "Computer Science",
		CompletedCourseCodes: []string{"CSCS101", "MATH101"},
	})
	require.NoError(t, err)

	if diff := cmp.Diff(canonical, spaced); diff != "" {
		t.Fatalf("normalized input changed the report (-canonical +spaced):\n%s", diff)
	}
}

func TestAuditMonotonic(t *testing.T) {
	e := newTestEngine(t, catalog.NewMemoryProvider(fixtureTables()), time.Second)
	additions := []string{"CSCS101", "CSCS310", "MATH101", "UNIV100", "CHEM101", "PHIL101", "CSCS201", "CSCS320"}

	var completed []string
	prev, err := e.Audit(context.Background(), model.AuditRequest{MajorName: "Computer Science"})
	require.NoError(t, err)

	for _, code := range additions {
		completed = append(completed, code)
		next, err := e.Audit(context.Background(), model.AuditRequest{
			MajorName:            "Computer Science",
			CompletedCourseCodes: completed,
		})
		require.NoError(t, err)

		assert.LessOrEqual(t, next.Core.MissingCount, prev.Core.MissingCount, code)
		assert.LessOrEqual(t, next.Elective.MissingCount, prev.Elective.MissingCount, code)
		assert.LessOrEqual(t, next.Supporting.MissingCount, prev.Supporting.MissingCount, code)
		for name, ge := range next.GeneralEducation {
			assert.LessOrEqual(t, ge.MissingCount, prev.GeneralEducation[name].MissingCount, "%s after %s", name, code)
			assert.GreaterOrEqual(t, ge.MissingCount, 0)
		}
		assert.Subset(t, codes(next.Core.Completed), codes(prev.Core.Completed), code)
		prev = next
	}
}

func TestAuditStorageErrorMarksCategoryIndeterminate(t *testing.T) {
	provider := &faultyProvider{
		Provider: catalog.NewMemoryProvider(fixtureTables()),
		fail: map[string]error{
			"corecourses": &catalog.StorageError{TableID: "corecourses", Err: errors.New("connection reset")},
		},
	}
	e := newTestEngine(t, provider, time.Second)

	report, err := e.Audit(context.Background(), model.AuditRequest{
		MajorName:            "Computer Science",
		CompletedCourseCodes: []string{"CSCS101", "CSCS310"},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"core"}, report.IndeterminateCategories)
	assert.Equal(t, model.StatusIndeterminate, report.Core.Status)
	assert.Empty(t, report.Core.Missing)
	assert.Zero(t, report.Core.MissingCount)

	// elective still runs; with no core list to subtract, CSCS101 counts here
	assert.Equal(t, []string{"CSCS101", "CSCS310"}, codes(report.Elective.Completed))
	assert.Equal(t, model.StatusIncomplete, report.Elective.Status)
}

func TestAuditMissingTableIsEmptyNotIndeterminate(t *testing.T) {
	tables := fixtureTables()
	delete(tables, "supporting_courses")
	e := newTestEngine(t, catalog.NewMemoryProvider(tables), time.Second)

	report, err := e.Audit(context.Background(), model.AuditRequest{MajorName: "Computer Science"})
	require.NoError(t, err)

	assert.Empty(t, report.IndeterminateCategories)
	assert.Equal(t, model.StatusComplete, report.Supporting.Status)
	assert.Zero(t, report.Supporting.RequiredCount)
}

func TestAuditFetchTimeoutMarksCategoryIndeterminate(t *testing.T) {
	defer goleak.VerifyNone(t)

	provider := &faultyProvider{
		Provider: catalog.NewMemoryProvider(fixtureTables()),
		stall:    map[string]bool{"electives": true},
	}
	e := newTestEngine(t, provider, 20*time.Millisecond)

	start := time.Now()
	report, err := e.Audit(context.Background(), model.AuditRequest{
		MajorName:            "Computer Science",
		CompletedCourseCodes: []string{"CSCS101"},
	})
	require.NoError(t, err)

	assert.Less(t, time.Since(start), 2*time.Second)
	assert.Equal(t, []string{"elective"}, report.IndeterminateCategories)
	assert.Equal(t, model.StatusIndeterminate, report.Elective.Status)
	assert.Equal(t, []string{"CSCS101"}, codes(report.Core.Completed))
}

func TestAuditGenEdEnrichmentFailureOnlyWarns(t *testing.T) {
	provider := &faultyProvider{
		Provider: catalog.NewMemoryProvider(fixtureTables()),
		fail:     map[string]error{"bio_general_education": errors.New("timeout")},
	}
	e := newTestEngine(t, provider, time.Second)

	report, err := e.Audit(context.Background(), model.AuditRequest{
		MajorName:            "Biology",
		CompletedCourseCodes: []string{"UNIV100"},
	})
	require.NoError(t, err)

	assert.Empty(t, report.IndeterminateCategories)
	assert.Equal(t, []model.Course{{Code: "UNIV100"}}, report.GeneralEducation["compulsory"].Completed)
	assert.Contains(t, report.Warnings, "general education course details unavailable; courses listed by code only")
}

func TestAuditPrefixHintWithoutName(t *testing.T) {
	e := newTestEngine(t, catalog.NewMemoryProvider(fixtureTables()), time.Second)

	report, err := e.Audit(context.Background(), model.AuditRequest{CoursePrefix: "CSCS"})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Major.MajorID)
}
