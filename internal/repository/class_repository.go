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

const classDetailColumns = `c.id, c.name, c.academic_year, c.school_id, c.teacher_id, c.created_at, c.updated_at,
        u.name AS teacher_name,
        (SELECT COUNT(*) FROM student_classes sc WHERE sc.class_id = c.id) AS student_count`

// ClassRepository manages persistence for classes.
type ClassRepository struct {
	db *sqlx.DB
}

// NewClassRepository constructs a ClassRepository.
func NewClassRepository(db *sqlx.DB) *ClassRepository {
	return &ClassRepository{db: db}
}

// List returns classes of one school with teacher name and student count.
func (r *ClassRepository) List(ctx context.Context, filter models.ClassFilter) ([]models.ClassDetail, int, error) {
	conditions := []string{"c.school_id = $1"}
	args := []interface{}{filter.SchoolID}

	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("LOWER(c.name) LIKE $%d", len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}
	if filter.TeacherID != "" {
		conditions = append(conditions, fmt.Sprintf("c.teacher_id = $%d", len(args)+1))
		args = append(args, filter.TeacherID)
	}
	if filter.AcademicYear != "" {
		conditions = append(conditions, fmt.Sprintf("c.academic_year = $%d", len(args)+1))
		args = append(args, filter.AcademicYear)
	}

	where := strings.Join(conditions, " AND ")

	query := fmt.Sprintf(`SELECT %s FROM classes c
        LEFT JOIN teachers t ON t.id = c.teacher_id
        LEFT JOIN users u ON u.id = t.user_id
        WHERE %s ORDER BY c.academic_year DESC, c.name ASC LIMIT %d OFFSET %d`,
		classDetailColumns, where, filter.Limit, filter.Offset())
	var classes []models.ClassDetail
	if err := r.db.SelectContext(ctx, &classes, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list classes: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM classes c WHERE %s", where)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count classes: %w", err)
	}
	return classes, total, nil
}

// FindByID fetches a class with teacher name and student count, scoped to a
// school.
func (r *ClassRepository) FindByID(ctx context.Context, id, schoolID string) (*models.ClassDetail, error) {
	query := fmt.Sprintf(`SELECT %s FROM classes c
        LEFT JOIN teachers t ON t.id = c.teacher_id
        LEFT JOIN users u ON u.id = t.user_id
        WHERE c.id = $1 AND c.school_id = $2`, classDetailColumns)
	var class models.ClassDetail
	if err := r.db.GetContext(ctx, &class, query, id, schoolID); err != nil {
		return nil, err
	}
	return &class, nil
}

// ExistsByNameYear checks the (name, academicYear) pair uniqueness within a
// school, optionally excluding one class.
func (r *ClassRepository) ExistsByNameYear(ctx context.Context, name, academicYear, schoolID, excludeID string) (bool, error) {
	query := "SELECT 1 FROM classes WHERE LOWER(name) = LOWER($1) AND academic_year = $2 AND school_id = $3"
	args := []interface{}{name, academicYear, schoolID}
	if excludeID != "" {
		query += " AND id <> $4"
		args = append(args, excludeID)
	}
	var exists int
	if err := r.db.GetContext(ctx, &exists, query+" LIMIT 1", args...); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check class name: %w", err)
	}
	return true, nil
}

// Create inserts a new class.
func (r *ClassRepository) Create(ctx context.Context, class *models.Class) error {
	if class.ID == "" {
		class.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	class.CreatedAt = now
	class.UpdatedAt = now
	const query = `INSERT INTO classes (id, name, academic_year, school_id, teacher_id, created_at, updated_at)
        VALUES (:id, :name, :academic_year, :school_id, :teacher_id, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, class); err != nil {
		return fmt.Errorf("create class: %w", err)
	}
	return nil
}

// Update modifies an existing class.
func (r *ClassRepository) Update(ctx context.Context, class *models.Class) error {
	class.UpdatedAt = time.Now().UTC()
	const query = `UPDATE classes SET name = :name, academic_year = :academic_year, teacher_id = :teacher_id,
        updated_at = :updated_at WHERE id = :id AND school_id = :school_id`
	if _, err := r.db.NamedExecContext(ctx, query, class); err != nil {
		return fmt.Errorf("update class: %w", err)
	}
	return nil
}

// Delete removes a class. Callers must ensure no students remain enrolled.
func (r *ClassRepository) Delete(ctx context.Context, id, schoolID string) error {
	const query = `DELETE FROM classes WHERE id = $1 AND school_id = $2`
	if _, err := r.db.ExecContext(ctx, query, id, schoolID); err != nil {
		return fmt.Errorf("delete class: %w", err)
	}
	return nil
}

// CountStudents returns the number of students enrolled in the class.
func (r *ClassRepository) CountStudents(ctx context.Context, classID string) (int, error) {
	const query = `SELECT COUNT(*) FROM student_classes WHERE class_id = $1`
	var count int
	if err := r.db.GetContext(ctx, &count, query, classID); err != nil {
		return 0, fmt.Errorf("count class students: %w", err)
	}
	return count, nil
}

// CountByTeacher returns how many classes are assigned to the teacher,
// optionally excluding one class (for reassignment updates).
func (r *ClassRepository) CountByTeacher(ctx context.Context, teacherID, excludeClassID string) (int, error) {
	query := "SELECT COUNT(*) FROM classes WHERE teacher_id = $1"
	args := []interface{}{teacherID}
	if excludeClassID != "" {
		query += " AND id <> $2"
		args = append(args, excludeClassID)
	}
	var count int
	if err := r.db.GetContext(ctx, &count, query, args...); err != nil {
		return 0, fmt.Errorf("count teacher classes: %w", err)
	}
	return count, nil
}
