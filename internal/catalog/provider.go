// Package catalog reads course lists out of named catalog tables.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/stemsi/degree-audit/internal/model"
	"github.com/stemsi/degree-audit/internal/normalize"
)

// ErrTableNotFound means the table id is not registered in the catalog.
// Callers treat it as an empty table.
var ErrTableNotFound = errors.New("catalog table not found")

// StorageError wraps any other failure to read a table.
type StorageError struct {
	TableID string
	Err     error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("catalog table %s: %v", e.TableID, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// Provider returns the normalized courses of a table ordered by code.
type Provider interface {
	Fetch(ctx context.Context, tableID string) ([]model.Course, error)
}

// NormalizeCourses canonicalises codes and names, drops rows without a code
// and keeps the first row of each code. The result is ordered by code.
func NormalizeCourses(in []model.Course) []model.Course {
	out := make([]model.Course, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, c := range in {
		code := normalize.CourseCode(c.Code)
		if code == "" {
			continue
		}
		if _, dup := seen[code]; dup {
			continue
		}
		seen[code] = struct{}{}
		out = append(out, model.Course{
			Code:    code,
			Name:    normalize.CourseName(c.Name),
			Credits: c.Credits,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}
