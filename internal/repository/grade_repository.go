package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/school-admin/school-api/internal/models"
)

const gradeDetailColumns = `g.id, g.student_id, g.class_id, g.type, g.value, g.max_value, g.date, g.title,
        g.remarks, g.recorded_by_id, g.school_id, g.created_at, g.updated_at,
        s.first_name || ' ' || s.last_name AS student_name,
        s.student_id AS student_number,
        c.name AS class_name`

// GradeRepository manages persistence for grades.
type GradeRepository struct {
	db *sqlx.DB
}

// NewGradeRepository constructs a GradeRepository.
func NewGradeRepository(db *sqlx.DB) *GradeRepository {
	return &GradeRepository{db: db}
}

func gradeConditions(filter models.GradeFilter) (string, []interface{}) {
	conditions := []string{"g.school_id = $1"}
	args := []interface{}{filter.SchoolID}

	if filter.StudentID != "" {
		conditions = append(conditions, fmt.Sprintf("g.student_id = $%d", len(args)+1))
		args = append(args, filter.StudentID)
	}
	if filter.ClassID != "" {
		conditions = append(conditions, fmt.Sprintf("g.class_id = $%d", len(args)+1))
		args = append(args, filter.ClassID)
	}
	if filter.Type != nil {
		conditions = append(conditions, fmt.Sprintf("g.type = $%d", len(args)+1))
		args = append(args, *filter.Type)
	}
	if filter.StartDate != nil && filter.EndDate != nil {
		conditions = append(conditions, fmt.Sprintf("g.date >= $%d AND g.date <= $%d", len(args)+1, len(args)+2))
		args = append(args, *filter.StartDate, *filter.EndDate)
	}
	return strings.Join(conditions, " AND "), args
}

// List returns grades of one school with student and class display fields.
func (r *GradeRepository) List(ctx context.Context, filter models.GradeFilter) ([]models.GradeDetail, int, error) {
	where, args := gradeConditions(filter)

	query := fmt.Sprintf(`SELECT %s FROM grades g
        JOIN students s ON s.id = g.student_id
        JOIN classes c ON c.id = g.class_id
        WHERE %s ORDER BY g.date DESC, g.created_at DESC LIMIT %d OFFSET %d`,
		gradeDetailColumns, where, filter.Limit, filter.Offset())
	var grades []models.GradeDetail
	if err := r.db.SelectContext(ctx, &grades, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list grades: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM grades g WHERE %s", where)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count grades: %w", err)
	}
	return grades, total, nil
}

// ListAll returns every grade matching the filters without pagination, for
// report exports.
func (r *GradeRepository) ListAll(ctx context.Context, filter models.GradeFilter) ([]models.GradeDetail, error) {
	where, args := gradeConditions(filter)
	query := fmt.Sprintf(`SELECT %s FROM grades g
        JOIN students s ON s.id = g.student_id
        JOIN classes c ON c.id = g.class_id
        WHERE %s ORDER BY s.last_name ASC, s.first_name ASC, g.date ASC`, gradeDetailColumns, where)
	var grades []models.GradeDetail
	if err := r.db.SelectContext(ctx, &grades, query, args...); err != nil {
		return nil, fmt.Errorf("export grades: %w", err)
	}
	return grades, nil
}

// FindByID fetches a grade with display fields, scoped to a school.
func (r *GradeRepository) FindByID(ctx context.Context, id, schoolID string) (*models.GradeDetail, error) {
	query := fmt.Sprintf(`SELECT %s FROM grades g
        JOIN students s ON s.id = g.student_id
        JOIN classes c ON c.id = g.class_id
        WHERE g.id = $1 AND g.school_id = $2`, gradeDetailColumns)
	var grade models.GradeDetail
	if err := r.db.GetContext(ctx, &grade, query, id, schoolID); err != nil {
		return nil, err
	}
	return &grade, nil
}

// Create inserts a new grade.
func (r *GradeRepository) Create(ctx context.Context, grade *models.Grade) error {
	if grade.ID == "" {
		grade.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	grade.CreatedAt = now
	grade.UpdatedAt = now
	const query = `INSERT INTO grades (id, student_id, class_id, type, value, max_value, date, title, remarks, recorded_by_id, school_id, created_at, updated_at)
        VALUES (:id, :student_id, :class_id, :type, :value, :max_value, :date, :title, :remarks, :recorded_by_id, :school_id, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, grade); err != nil {
		return fmt.Errorf("create grade: %w", err)
	}
	return nil
}

// Update modifies an existing grade.
func (r *GradeRepository) Update(ctx context.Context, grade *models.Grade) error {
	grade.UpdatedAt = time.Now().UTC()
	const query = `UPDATE grades SET type = :type, value = :value, max_value = :max_value, date = :date,
        title = :title, remarks = :remarks, updated_at = :updated_at
        WHERE id = :id AND school_id = :school_id`
	if _, err := r.db.NamedExecContext(ctx, query, grade); err != nil {
		return fmt.Errorf("update grade: %w", err)
	}
	return nil
}

// Delete removes a grade.
func (r *GradeRepository) Delete(ctx context.Context, id, schoolID string) error {
	const query = `DELETE FROM grades WHERE id = $1 AND school_id = $2`
	if _, err := r.db.ExecContext(ctx, query, id, schoolID); err != nil {
		return fmt.Errorf("delete grade: %w", err)
	}
	return nil
}

// StudentInSchool reports whether a non-deleted student exists in the school.
func (r *GradeRepository) StudentInSchool(ctx context.Context, studentID, schoolID string) (bool, error) {
	const query = `SELECT 1 FROM students WHERE id = $1 AND school_id = $2 AND is_deleted = FALSE LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, studentID, schoolID); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check student: %w", err)
	}
	return true, nil
}

// ClassInSchool reports whether a class exists in the school.
func (r *GradeRepository) ClassInSchool(ctx context.Context, classID, schoolID string) (bool, error) {
	const query = `SELECT 1 FROM classes WHERE id = $1 AND school_id = $2 LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, classID, schoolID); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check class: %w", err)
	}
	return true, nil
}

// IsEnrolled reports whether the student is enrolled in the class.
func (r *GradeRepository) IsEnrolled(ctx context.Context, studentID, classID string) (bool, error) {
	const query = `SELECT 1 FROM student_classes WHERE student_id = $1 AND class_id = $2 LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, studentID, classID); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check enrollment: %w", err)
	}
	return true, nil
}
