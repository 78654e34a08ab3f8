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

const teacherDetailColumns = "t.id, t.user_id, t.school_id, t.employee_id, t.date_of_joining, t.created_at, t.updated_at, u.name, u.email"

// TeacherRepository manages persistence for teacher profiles.
type TeacherRepository struct {
	db *sqlx.DB
}

// NewTeacherRepository constructs a TeacherRepository.
func NewTeacherRepository(db *sqlx.DB) *TeacherRepository {
	return &TeacherRepository{db: db}
}

// List returns teachers of one school with their user name and email.
func (r *TeacherRepository) List(ctx context.Context, filter models.TeacherFilter) ([]models.TeacherDetail, int, error) {
	conditions := []string{"t.school_id = $1"}
	args := []interface{}{filter.SchoolID}

	if filter.Search != "" {
		idx := len(args) + 1
		conditions = append(conditions, fmt.Sprintf("(LOWER(u.name) LIKE $%d OR LOWER(u.email) LIKE $%d)", idx, idx))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	where := strings.Join(conditions, " AND ")

	query := fmt.Sprintf(`SELECT %s FROM teachers t JOIN users u ON u.id = t.user_id
        WHERE %s ORDER BY u.name ASC LIMIT %d OFFSET %d`,
		teacherDetailColumns, where, filter.Limit, filter.Offset())
	var teachers []models.TeacherDetail
	if err := r.db.SelectContext(ctx, &teachers, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list teachers: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM teachers t JOIN users u ON u.id = t.user_id WHERE %s", where)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count teachers: %w", err)
	}
	return teachers, total, nil
}

// FindByID fetches a teacher with user fields, scoped to a school.
func (r *TeacherRepository) FindByID(ctx context.Context, id, schoolID string) (*models.TeacherDetail, error) {
	query := fmt.Sprintf(`SELECT %s FROM teachers t JOIN users u ON u.id = t.user_id
        WHERE t.id = $1 AND t.school_id = $2`, teacherDetailColumns)
	var teacher models.TeacherDetail
	if err := r.db.GetContext(ctx, &teacher, query, id, schoolID); err != nil {
		return nil, err
	}
	return &teacher, nil
}

// ExistsForUser checks whether the user already has a teacher profile.
func (r *TeacherRepository) ExistsForUser(ctx context.Context, userID string) (bool, error) {
	const query = `SELECT 1 FROM teachers WHERE user_id = $1 LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, userID); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check teacher profile: %w", err)
	}
	return true, nil
}

// Create inserts a new teacher profile.
func (r *TeacherRepository) Create(ctx context.Context, teacher *models.Teacher) error {
	if teacher.ID == "" {
		teacher.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	teacher.CreatedAt = now
	teacher.UpdatedAt = now
	const query = `INSERT INTO teachers (id, user_id, school_id, employee_id, date_of_joining, created_at, updated_at)
        VALUES (:id, :user_id, :school_id, :employee_id, :date_of_joining, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, teacher); err != nil {
		return fmt.Errorf("create teacher: %w", err)
	}
	return nil
}

// Update modifies an existing teacher profile.
func (r *TeacherRepository) Update(ctx context.Context, teacher *models.Teacher) error {
	teacher.UpdatedAt = time.Now().UTC()
	const query = `UPDATE teachers SET employee_id = :employee_id, date_of_joining = :date_of_joining,
        updated_at = :updated_at WHERE id = :id AND school_id = :school_id`
	if _, err := r.db.NamedExecContext(ctx, query, teacher); err != nil {
		return fmt.Errorf("update teacher: %w", err)
	}
	return nil
}

// Delete removes a teacher profile.
func (r *TeacherRepository) Delete(ctx context.Context, id, schoolID string) error {
	const query = `DELETE FROM teachers WHERE id = $1 AND school_id = $2`
	if _, err := r.db.ExecContext(ctx, query, id, schoolID); err != nil {
		return fmt.Errorf("delete teacher: %w", err)
	}
	return nil
}

// CountClasses returns how many classes the teacher is assigned to.
func (r *TeacherRepository) CountClasses(ctx context.Context, teacherID string) (int, error) {
	const query = `SELECT COUNT(*) FROM classes WHERE teacher_id = $1`
	var count int
	if err := r.db.GetContext(ctx, &count, query, teacherID); err != nil {
		return 0, fmt.Errorf("count teacher classes: %w", err)
	}
	return count, nil
}
