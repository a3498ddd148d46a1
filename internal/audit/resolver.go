// Package audit compares a student's completed courses against the
// requirements of their major.
package audit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/stemsi/degree-audit/internal/catalog"
	"github.com/stemsi/degree-audit/internal/model"
	"github.com/stemsi/degree-audit/internal/normalize"
	"github.com/stemsi/degree-audit/internal/requirement"
)

// Registry is the read side of the major registry used during an audit.
type Registry interface {
	ResolveWithSubMajor(name, subMajor, prefixHint string) (model.MajorRef, error)
	Thresholds(ref model.MajorRef) (model.Thresholds, error)
	Tables(ref model.MajorRef) (model.Tables, error)
	GeneralEducationRules(ref model.MajorRef) (map[requirement.GenEdCategory]requirement.GenEdRule, error)
	GeneralEducationTable() string
}

// Resolver turns a major name into an immutable requirement.Spec.
type Resolver struct {
	registry Registry
	catalog  catalog.Provider
	timeout  time.Duration
	log      zerolog.Logger
}

// NewResolver builds a resolver. A zero fetchTimeout leaves catalog reads
// bounded only by the caller's context.
func NewResolver(reg Registry, provider catalog.Provider, fetchTimeout time.Duration, log zerolog.Logger) *Resolver {
	return &Resolver{
		registry: reg,
		catalog:  provider,
		timeout:  fetchTimeout,
		log:      log.With().Str("component", "requirement_resolver").Logger(),
	}
}

type fetchResult struct {
	courses []model.Course
	failed  bool
}

// Resolve looks up the major and reads its catalog tables concurrently.
// Only registry failures are returned; a catalog failure marks the affected
// category indeterminate.
func (r *Resolver) Resolve(ctx context.Context, majorName, subMajor, prefixHint string) (*requirement.Spec, error) {
	ref, err := r.registry.ResolveWithSubMajor(majorName, subMajor, prefixHint)
	if err != nil {
		return nil, err
	}
	thresholds, err := r.registry.Thresholds(ref)
	if err != nil {
		return nil, err
	}
	tables, err := r.registry.Tables(ref)
	if err != nil {
		return nil, err
	}
	rules, err := r.registry.GeneralEducationRules(ref)
	if err != nil {
		return nil, err
	}

	log := r.log.With().Int("major_id", ref.MajorID).Str("sub_major", ref.SubMajor).Logger()

	var core, elective, supporting, genEd fetchResult
	var g errgroup.Group
	for _, job := range []struct {
		tableID string
		out     *fetchResult
	}{
		{tables.Core, &core},
		{tables.Elective, &elective},
		{tables.Supporting, &supporting},
		{r.registry.GeneralEducationTable(), &genEd},
	} {
		g.Go(func() error {
			*job.out = r.fetch(ctx, log, job.tableID)
			return nil
		})
	}
	_ = g.Wait()

	spec := &requirement.Spec{
		Major:       ref,
		Thresholds:  thresholds,
		GenEd:       rules,
		GenEdLookup: make(map[string]model.Course, len(genEd.courses)),
		Warnings:    []string{},
	}
	warn := func(msg string) {
		log.Warn().Msg(msg)
		spec.Warnings = append(spec.Warnings, msg)
	}

	spec.Core = requirement.CategoryCourses{TableID: tables.Core, Courses: core.courses, Indeterminate: core.failed}

	var dropped []string
	spec.Elective = requirement.CategoryCourses{TableID: tables.Elective, Indeterminate: elective.failed}
	spec.Elective.Courses, dropped = exclude(elective.courses, codesOf(spec.Core.Courses))
	if len(dropped) > 0 {
		warn(fmt.Sprintf("elective table %s repeats core courses %v; counted as core only", tables.Elective, dropped))
	}

	supportingCourses := supporting.courses
	if len(thresholds.SupportingPrefixes) > 0 {
		supportingCourses = filterPrefixes(supportingCourses, thresholds.SupportingPrefixes)
	}
	taken := codesOf(spec.Core.Courses)
	for code := range codesOf(spec.Elective.Courses) {
		taken[code] = struct{}{}
	}
	spec.Supporting = requirement.CategoryCourses{TableID: tables.Supporting, Indeterminate: supporting.failed}
	spec.Supporting.Courses, dropped = exclude(supportingCourses, taken)
	if len(dropped) > 0 {
		warn(fmt.Sprintf("supporting table %s repeats core or elective courses %v; counted once", tables.Supporting, dropped))
	}

	if genEd.failed {
		warn("general education course details unavailable; courses listed by code only")
	}
	for _, c := range genEd.courses {
		spec.GenEdLookup[c.Code] = c
	}
	for _, cat := range requirement.GenEdCategories {
		rule := rules[cat]
		if rule.RequiredCount > 0 && (rule.Rule == nil || len(rule.Rule.Values()) == 0) {
			warn(fmt.Sprintf("general education %s requires %d courses but lists no candidates; treated as satisfied", cat, rule.RequiredCount))
		}
	}

	return spec, nil
}

func (r *Resolver) fetch(ctx context.Context, log zerolog.Logger, tableID string) fetchResult {
	if tableID == "" {
		return fetchResult{courses: []model.Course{}}
	}

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	start := time.Now()
	courses, err := r.catalog.Fetch(ctx, tableID)
	switch {
	case err == nil:
		if courses == nil {
			courses = []model.Course{}
		}
		log.Debug().Str("table_id", tableID).Int("courses", len(courses)).Dur("took", time.Since(start)).Msg("Catalog table fetched")
		return fetchResult{courses: courses}
	case errors.Is(err, catalog.ErrTableNotFound):
		log.Debug().Str("table_id", tableID).Msg("Catalog table not registered, treating as empty")
		return fetchResult{courses: []model.Course{}}
	default:
		log.Warn().Err(err).Str("table_id", tableID).Dur("took", time.Since(start)).Msg("Catalog fetch failed")
		return fetchResult{courses: []model.Course{}, failed: true}
	}
}

func codesOf(courses []model.Course) map[string]struct{} {
	set := make(map[string]struct{}, len(courses))
	for _, c := range courses {
		set[c.Code] = struct{}{}
	}
	return set
}

// exclude drops courses whose code is in taken, keeping order.
func exclude(courses []model.Course, taken map[string]struct{}) (kept []model.Course, dropped []string) {
	kept = make([]model.Course, 0, len(courses))
	for _, c := range courses {
		if _, ok := taken[c.Code]; ok {
			dropped = append(dropped, c.Code)
			continue
		}
		kept = append(kept, c)
	}
	return kept, dropped
}

func filterPrefixes(courses []model.Course, prefixes []string) []model.Course {
	allowed := make(map[string]struct{}, len(prefixes))
	for _, p := range prefixes {
		allowed[p] = struct{}{}
	}
	out := make([]model.Course, 0, len(courses))
	for _, c := range courses {
		if _, ok := allowed[normalize.Prefix(c.Code)]; ok {
			out = append(out, c)
		}
	}
	return out
}
