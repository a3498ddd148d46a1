package catalog

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/stemsi/degree-audit/internal/model"
	"github.com/stemsi/degree-audit/internal/normalize"
)

// Table kinds recognised in catalog HTML exports.
const (
	KindCourses       = "courses"
	KindPrerequisites = "prerequisites"
)

// ImportedTable is one <table data-table-id> block of a catalog export.
type ImportedTable struct {
	TableID       string
	Description   string
	Kind          string
	Courses       []model.Course
	Prerequisites []model.Prerequisite
}

// ParseHTML extracts catalog tables from an HTML export. Course tables have
// rows of code | name | credits; tables marked data-kind="prerequisites"
// have rows of course code | prerequisite code. Header rows without <td>
// cells are skipped. When only is non-empty, other tables are ignored.
func ParseHTML(r io.Reader, only string) ([]ImportedTable, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse catalog html: %w", err)
	}

	var (
		tables   []ImportedTable
		parseErr error
	)
	doc.Find("table[data-table-id]").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		id := strings.TrimSpace(sel.AttrOr("data-table-id", ""))
		if id == "" || (only != "" && id != only) {
			return true
		}
		t := ImportedTable{
			TableID:     id,
			Description: strings.TrimSpace(sel.AttrOr("data-description", "")),
			Kind:        sel.AttrOr("data-kind", KindCourses),
		}

		sel.Find("tr").EachWithBreak(func(i int, row *goquery.Selection) bool {
			cells := row.Find("td")
			if cells.Length() == 0 {
				return true
			}
			cell := func(n int) string { return strings.TrimSpace(cells.Eq(n).Text()) }

			switch t.Kind {
			case KindPrerequisites:
				if cells.Length() < 2 {
					parseErr = fmt.Errorf("table %s row %d: want 2 cells, got %d", id, i+1, cells.Length())
					return false
				}
				course, prereq := normalize.CourseCode(cell(0)), normalize.CourseCode(cell(1))
				if course == "" || prereq == "" {
					return true
				}
				t.Prerequisites = append(t.Prerequisites, model.Prerequisite{CourseCode: course, PrerequisiteCode: prereq})
			default:
				if cells.Length() < 3 {
					parseErr = fmt.Errorf("table %s row %d: want 3 cells, got %d", id, i+1, cells.Length())
					return false
				}
				credits := 0
				if raw := cell(2); raw != "" {
					credits, err = strconv.Atoi(raw)
					if err != nil {
						parseErr = fmt.Errorf("table %s row %d: credits %q: %w", id, i+1, raw, err)
						return false
					}
					if credits < 0 {
						parseErr = fmt.Errorf("table %s row %d: negative credits %d", id, i+1, credits)
						return false
					}
				}
				t.Courses = append(t.Courses, model.Course{Code: cell(0), Name: cell(1), Credits: credits})
			}
			return true
		})
		if parseErr != nil {
			return false
		}

		if t.Kind != KindPrerequisites {
			t.Courses = NormalizeCourses(t.Courses)
		}
		tables = append(tables, t)
		return true
	})
	if parseErr != nil {
		return nil, parseErr
	}
	return tables, nil
}
