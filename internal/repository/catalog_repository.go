package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stemsi/degree-audit/internal/catalog"
	"github.com/stemsi/degree-audit/internal/model"
	"github.com/stemsi/degree-audit/internal/normalize"
)

// CatalogRepository is the Postgres-backed catalog store. It satisfies
// catalog.Provider.
type CatalogRepository interface {
	catalog.Provider
	ListTables(ctx context.Context) ([]model.CatalogTable, error)
	UpsertTable(ctx context.Context, tableID, description string) error
	UpsertCourses(ctx context.Context, tableID string, courses []model.Course) (int, error)
	UpsertPrerequisites(ctx context.Context, tableID string, prereqs []model.Prerequisite) (int, error)
	Prerequisites(ctx context.Context, tableID, courseCode string) ([]model.Prerequisite, error)
}

type catalogRepository struct {
	db *pgxpool.Pool
}

func NewCatalogRepository(db *pgxpool.Pool) CatalogRepository {
	return &catalogRepository{db: db}
}

type rowQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func tableExists(ctx context.Context, q rowQuerier, tableID string) (bool, error) {
	var exists bool
	err := q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM catalog_tables WHERE table_id = $1)`, tableID).Scan(&exists)
	return exists, err
}

func (r *catalogRepository) Fetch(ctx context.Context, tableID string) ([]model.Course, error) {
	exists, err := tableExists(ctx, r.db, tableID)
	if err != nil {
		return nil, &catalog.StorageError{TableID: tableID, Err: err}
	}
	if !exists {
		return nil, catalog.ErrTableNotFound
	}

	query := `
		SELECT course_code, course_name, credits
		FROM catalog_courses
		WHERE table_id = $1
		ORDER BY course_code ASC`
	rows, err := r.db.Query(ctx, query, tableID)
	if err != nil {
		return nil, &catalog.StorageError{TableID: tableID, Err: err}
	}
	defer rows.Close()

	var courses []model.Course
	for rows.Next() {
		var c model.Course
		if err := rows.Scan(&c.Code, &c.Name, &c.Credits); err != nil {
			return nil, &catalog.StorageError{TableID: tableID, Err: err}
		}
		courses = append(courses, c)
	}
	if err := rows.Err(); err != nil {
		return nil, &catalog.StorageError{TableID: tableID, Err: err}
	}
	return catalog.NormalizeCourses(courses), nil
}

func (r *catalogRepository) ListTables(ctx context.Context) ([]model.CatalogTable, error) {
	query := `
		SELECT t.table_id, t.description, COUNT(c.course_code), t.updated_at
		FROM catalog_tables t
		LEFT JOIN catalog_courses c ON c.table_id = t.table_id
		GROUP BY t.table_id, t.description, t.updated_at
		ORDER BY t.table_id ASC`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tables := []model.CatalogTable{}
	for rows.Next() {
		var t model.CatalogTable
		if err := rows.Scan(&t.TableID, &t.Description, &t.CourseCount, &t.UpdatedAt); err != nil {
			return nil, err
		}
		tables = append(tables, t)
	}
	return tables, rows.Err()
}

func (r *catalogRepository) UpsertTable(ctx context.Context, tableID, description string) error {
	query := `
		INSERT INTO catalog_tables (table_id, description)
		VALUES ($1, $2)
		ON CONFLICT (table_id) DO UPDATE
		SET description = EXCLUDED.description, updated_at = NOW()`
	_, err := r.db.Exec(ctx, query, tableID, description)
	return err
}

// UpsertCourses writes courses into a registered table in one transaction.
// Rows are normalized first; the count of written rows is returned.
func (r *catalogRepository) UpsertCourses(ctx context.Context, tableID string, courses []model.Course) (int, error) {
	courses = catalog.NormalizeCourses(courses)
	if len(courses) == 0 {
		return 0, nil
	}

	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		exists, err := tableExists(ctx, tx, tableID)
		if err != nil {
			return err
		}
		if !exists {
			return catalog.ErrTableNotFound
		}

		batch := &pgx.Batch{}
		for _, c := range courses {
			batch.Queue(`
				INSERT INTO catalog_courses (table_id, course_code, course_name, credits)
				VALUES ($1, $2, $3, $4)
				ON CONFLICT (table_id, course_code) DO UPDATE
				SET course_name = EXCLUDED.course_name, credits = EXCLUDED.credits`,
				tableID, c.Code, c.Name, c.Credits)
		}
		batch.Queue(`UPDATE catalog_tables SET updated_at = NOW() WHERE table_id = $1`, tableID)

		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("upsert courses: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(courses), nil
}

func (r *catalogRepository) UpsertPrerequisites(ctx context.Context, tableID string, prereqs []model.Prerequisite) (int, error) {
	batch := &pgx.Batch{}
	for _, p := range prereqs {
		course, pre := normalize.CourseCode(p.CourseCode), normalize.CourseCode(p.PrerequisiteCode)
		if course == "" || pre == "" {
			continue
		}
		batch.Queue(`
			INSERT INTO course_prerequisites (table_id, course_code, prerequisite_code)
			VALUES ($1, $2, $3)
			ON CONFLICT DO NOTHING`,
			tableID, course, pre)
	}
	if batch.Len() == 0 {
		return 0, nil
	}

	n := batch.Len()
	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		return tx.SendBatch(ctx, batch).Close()
	})
	if err != nil {
		return 0, fmt.Errorf("upsert prerequisites: %w", err)
	}
	return n, nil
}

// Prerequisites lists what must be completed before courseCode, or every
// prerequisite pair of the table when courseCode is empty.
func (r *catalogRepository) Prerequisites(ctx context.Context, tableID, courseCode string) ([]model.Prerequisite, error) {
	query := `
		SELECT course_code, prerequisite_code
		FROM course_prerequisites
		WHERE table_id = $1 AND ($2 = '' OR course_code = $2)
		ORDER BY course_code ASC, prerequisite_code ASC`
	rows, err := r.db.Query(ctx, query, tableID, normalize.CourseCode(courseCode))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	prereqs := []model.Prerequisite{}
	for rows.Next() {
		var p model.Prerequisite
		if err := rows.Scan(&p.CourseCode, &p.PrerequisiteCode); err != nil {
			return nil, err
		}
		prereqs = append(prereqs, p)
	}
	return prereqs, rows.Err()
}
