package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/enrollments-service/internal/models"
)

// ErrEnrollmentNotFound is returned by stores when no enrollment carries the
// requested public id.
var ErrEnrollmentNotFound = errors.New("enrollment not found")

const enrollmentColumns = `id, enrollment_id, enrollment_year, semester, student_id, student_first_name,
        student_last_name, course_id, course_number, course_name`

// EnrollmentRepository persists enrollments in PostgreSQL.
type EnrollmentRepository struct {
	db *sqlx.DB
}

// NewEnrollmentRepository constructs the repository.
func NewEnrollmentRepository(db *sqlx.DB) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

// Save inserts e, assigning an internal id when it has none, or overwrites
// the row that already carries its internal id.
func (r *EnrollmentRepository) Save(ctx context.Context, e *models.Enrollment) (*models.Enrollment, error) {
	saved := *e
	if saved.ID == "" {
		saved.ID = uuid.NewString()
	}
	const query = `INSERT INTO enrollments (` + enrollmentColumns + `)
        VALUES (:id, :enrollment_id, :enrollment_year, :semester, :student_id, :student_first_name,
        :student_last_name, :course_id, :course_number, :course_name)
        ON CONFLICT (id) DO UPDATE SET
            enrollment_year = EXCLUDED.enrollment_year,
            semester = EXCLUDED.semester,
            student_id = EXCLUDED.student_id,
            student_first_name = EXCLUDED.student_first_name,
            student_last_name = EXCLUDED.student_last_name,
            course_id = EXCLUDED.course_id,
            course_number = EXCLUDED.course_number,
            course_name = EXCLUDED.course_name`
	if _, err := r.db.NamedExecContext(ctx, query, &saved); err != nil {
		return nil, fmt.Errorf("save enrollment %s: %w", saved.EnrollmentID, err)
	}
	return &saved, nil
}

// FindByEnrollmentID returns the enrollment with the given public id.
func (r *EnrollmentRepository) FindByEnrollmentID(ctx context.Context, enrollmentID string) (*models.Enrollment, error) {
	const query = `SELECT ` + enrollmentColumns + ` FROM enrollments WHERE enrollment_id = $1`
	var enrollment models.Enrollment
	if err := r.db.GetContext(ctx, &enrollment, query, enrollmentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrEnrollmentNotFound
		}
		return nil, fmt.Errorf("find enrollment %s: %w", enrollmentID, err)
	}
	return &enrollment, nil
}

// Delete removes e by its internal id.
func (r *EnrollmentRepository) Delete(ctx context.Context, e models.Enrollment) error {
	const query = `DELETE FROM enrollments WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, e.ID)
	if err != nil {
		return fmt.Errorf("delete enrollment %s: %w", e.EnrollmentID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrEnrollmentNotFound
	}
	return nil
}

// FindAll streams every enrollment to fn, stopping at the first error fn returns.
func (r *EnrollmentRepository) FindAll(ctx context.Context, fn func(models.Enrollment) error) error {
	const query = `SELECT ` + enrollmentColumns + ` FROM enrollments ORDER BY enrollment_year, enrollment_id`
	rows, err := r.db.QueryxContext(ctx, query)
	if err != nil {
		return fmt.Errorf("list enrollments: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var enrollment models.Enrollment
		if err := rows.StructScan(&enrollment); err != nil {
			return fmt.Errorf("scan enrollment: %w", err)
		}
		if err := fn(enrollment); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate enrollments: %w", err)
	}
	return nil
}
