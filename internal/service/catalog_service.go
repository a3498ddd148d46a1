package service

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/stemsi/degree-audit/internal/catalog"
	"github.com/stemsi/degree-audit/internal/model"
	"github.com/stemsi/degree-audit/internal/normalize"
	"github.com/stemsi/degree-audit/internal/registry"
	"github.com/stemsi/degree-audit/internal/repository"
)

// ErrNoPrerequisiteTable means the major has no prerequisite data.
var ErrNoPrerequisiteTable = errors.New("major has no prerequisite table")

const prewarmConcurrency = 4

type CatalogService interface {
	ListTables(ctx context.Context) ([]model.CatalogTable, error)
	TableCourses(ctx context.Context, tableID string) ([]model.Course, error)
	Prerequisites(ctx context.Context, majorName, subMajor, courseCode string) (*model.PrerequisiteLookup, error)
	Prewarm(ctx context.Context) model.CacheWarmResult
	RefreshCache(ctx context.Context) (model.CacheWarmResult, error)
}

type catalogService struct {
	repo     repository.CatalogRepository
	cache    *catalog.CachedProvider
	registry *registry.Registry
	log      zerolog.Logger
}

func NewCatalogService(
	repo repository.CatalogRepository,
	cache *catalog.CachedProvider,
	reg *registry.Registry,
	log zerolog.Logger,
) CatalogService {
	return &catalogService{
		repo:     repo,
		cache:    cache,
		registry: reg,
		log:      log.With().Str("component", "catalog_service").Logger(),
	}
}

func (s *catalogService) ListTables(ctx context.Context) ([]model.CatalogTable, error) {
	return s.repo.ListTables(ctx)
}

func (s *catalogService) TableCourses(ctx context.Context, tableID string) ([]model.Course, error) {
	return s.cache.Fetch(ctx, tableID)
}

func (s *catalogService) Prerequisites(ctx context.Context, majorName, subMajor, courseCode string) (*model.PrerequisiteLookup, error) {
	ref, err := s.registry.ResolveWithSubMajor(majorName, subMajor, "")
	if err != nil {
		return nil, err
	}
	tables, err := s.registry.Tables(ref)
	if err != nil {
		return nil, err
	}
	if tables.Prerequisites == "" {
		return nil, ErrNoPrerequisiteTable
	}

	code := normalize.CourseCode(courseCode)
	prereqs, err := s.repo.Prerequisites(ctx, tables.Prerequisites, code)
	if err != nil {
		return nil, err
	}
	return &model.PrerequisiteLookup{
		Major:         ref,
		TableID:       tables.Prerequisites,
		CourseCode:    code,
		Prerequisites: prereqs,
	}, nil
}

// Prewarm loads every table the registry references into the cache.
// Failures are reported, never returned.
func (s *catalogService) Prewarm(ctx context.Context) model.CacheWarmResult {
	res := model.CacheWarmResult{Missing: []string{}, Failed: []string{}}
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(prewarmConcurrency)
	for _, id := range s.registry.TableIDs() {
		g.Go(func() error {
			_, err := s.cache.Fetch(gctx, id)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				res.Warmed++
			case errors.Is(err, catalog.ErrTableNotFound):
				res.Missing = append(res.Missing, id)
			default:
				s.log.Warn().Err(err).Str("table_id", id).Msg("Prewarm fetch failed")
				res.Failed = append(res.Failed, id)
			}
			return nil
		})
	}
	_ = g.Wait()

	sort.Strings(res.Missing)
	sort.Strings(res.Failed)

	s.log.Info().
		Int("warmed", res.Warmed).
		Int("missing", len(res.Missing)).
		Int("failed", len(res.Failed)).
		Msg("Catalog cache prewarmed")
	return res
}

// RefreshCache drops every cached table and loads them again.
func (s *catalogService) RefreshCache(ctx context.Context) (model.CacheWarmResult, error) {
	removed, err := s.cache.Invalidate(ctx)
	if err != nil {
		return model.CacheWarmResult{}, err
	}
	res := s.Prewarm(ctx)
	res.Removed = removed
	return res, nil
}
