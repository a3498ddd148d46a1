package catalog

import (
	"context"
	"fmt"
	"io"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/stemsi/degree-audit/internal/model"
)

// MemoryProvider serves tables from an in-process map.
type MemoryProvider struct {
	mu     sync.RWMutex
	tables map[string][]model.Course
}

// NewMemoryProvider normalizes every table up front.
func NewMemoryProvider(tables map[string][]model.Course) *MemoryProvider {
	p := &MemoryProvider{tables: make(map[string][]model.Course, len(tables))}
	for id, courses := range tables {
		p.tables[id] = NormalizeCourses(courses)
	}
	return p
}

type catalogFile struct {
	Tables map[string][]model.Course `yaml:"tables"`
}

// LoadYAML reads a catalog file of the form
//
//	tables:
//	  corecourses:
//	    - {code: CSCS101, name: Intro to Programming, credits: 3}
func LoadYAML(r io.Reader) (*MemoryProvider, error) {
	var f catalogFile
	if err := yaml.NewDecoder(r).Decode(&f); err != nil {
		return nil, fmt.Errorf("decode catalog file: %w", err)
	}
	return NewMemoryProvider(f.Tables), nil
}

func (p *MemoryProvider) Fetch(ctx context.Context, tableID string) ([]model.Course, error) {
	if err := ctx.Err(); err != nil {
		return nil, &StorageError{TableID: tableID, Err: err}
	}

	p.mu.RLock()
	defer p.mu.RUnlock()

	courses, ok := p.tables[tableID]
	if !ok {
		return nil, ErrTableNotFound
	}
	return append([]model.Course(nil), courses...), nil
}

// Set replaces one table.
func (p *MemoryProvider) Set(tableID string, courses []model.Course) {
	normalized := NormalizeCourses(courses)

	p.mu.Lock()
	p.tables[tableID] = normalized
	p.mu.Unlock()
}

// TableIDs lists the loaded tables, sorted.
func (p *MemoryProvider) TableIDs() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()

	ids := make([]string, 0, len(p.tables))
	for id := range p.tables {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
