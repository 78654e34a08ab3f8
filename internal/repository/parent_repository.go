package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/school-admin/school-api/internal/models"
)

const parentColumns = "id, user_id, school_id, first_name, last_name, relation_to_student, contact_phone, contact_email, is_deleted, created_at, updated_at"

// ParentRepository manages persistence for parent profiles.
type ParentRepository struct {
	db *sqlx.DB
}

// NewParentRepository constructs a ParentRepository.
func NewParentRepository(db *sqlx.DB) *ParentRepository {
	return &ParentRepository{db: db}
}

// List returns non-deleted parents of one school matching the filters.
func (r *ParentRepository) List(ctx context.Context, filter models.ParentFilter) ([]models.Parent, int, error) {
	conditions := []string{"school_id = $1", "is_deleted = FALSE"}
	args := []interface{}{filter.SchoolID}

	if filter.Search != "" {
		idx := len(args) + 1
		conditions = append(conditions, fmt.Sprintf("(LOWER(first_name) LIKE $%d OR LOWER(last_name) LIKE $%d OR LOWER(COALESCE(contact_email, '')) LIKE $%d)", idx, idx, idx))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	where := strings.Join(conditions, " AND ")

	query := fmt.Sprintf("SELECT %s FROM parents WHERE %s ORDER BY last_name ASC, first_name ASC LIMIT %d OFFSET %d",
		parentColumns, where, filter.Limit, filter.Offset())
	var parents []models.Parent
	if err := r.db.SelectContext(ctx, &parents, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list parents: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM parents WHERE %s", where)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count parents: %w", err)
	}
	return parents, total, nil
}

// FindByID fetches a non-deleted parent scoped to a school.
func (r *ParentRepository) FindByID(ctx context.Context, id, schoolID string) (*models.Parent, error) {
	query := fmt.Sprintf("SELECT %s FROM parents WHERE id = $1 AND school_id = $2 AND is_deleted = FALSE", parentColumns)
	var parent models.Parent
	if err := r.db.GetContext(ctx, &parent, query, id, schoolID); err != nil {
		return nil, err
	}
	return &parent, nil
}

// Create inserts a new parent record.
func (r *ParentRepository) Create(ctx context.Context, parent *models.Parent) error {
	if parent.ID == "" {
		parent.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	parent.CreatedAt = now
	parent.UpdatedAt = now
	const query = `INSERT INTO parents (id, user_id, school_id, first_name, last_name, relation_to_student, contact_phone, contact_email, is_deleted, created_at, updated_at)
        VALUES (:id, :user_id, :school_id, :first_name, :last_name, :relation_to_student, :contact_phone, :contact_email, :is_deleted, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, parent); err != nil {
		return fmt.Errorf("create parent: %w", err)
	}
	return nil
}

// Update modifies an existing parent.
func (r *ParentRepository) Update(ctx context.Context, parent *models.Parent) error {
	parent.UpdatedAt = time.Now().UTC()
	const query = `UPDATE parents SET first_name = :first_name, last_name = :last_name,
        relation_to_student = :relation_to_student, contact_phone = :contact_phone,
        contact_email = :contact_email, user_id = :user_id, updated_at = :updated_at
        WHERE id = :id AND school_id = :school_id AND is_deleted = FALSE`
	if _, err := r.db.NamedExecContext(ctx, query, parent); err != nil {
		return fmt.Errorf("update parent: %w", err)
	}
	return nil
}

// SoftDelete flags a parent as deleted.
func (r *ParentRepository) SoftDelete(ctx context.Context, id, schoolID string) error {
	const query = `UPDATE parents SET is_deleted = TRUE, updated_at = $3 WHERE id = $1 AND school_id = $2`
	if _, err := r.db.ExecContext(ctx, query, id, schoolID, time.Now().UTC()); err != nil {
		return fmt.Errorf("delete parent: %w", err)
	}
	return nil
}

// Students returns non-deleted students linked to the parent.
func (r *ParentRepository) Students(ctx context.Context, parentID string) ([]models.Student, error) {
	const query = `SELECT s.id, s.student_id, s.first_name, s.last_name, s.date_of_birth, s.gender,
        s.enrollment_status, s.school_id, s.user_id, s.is_deleted, s.created_at, s.updated_at
        FROM students s
        JOIN student_parents sp ON sp.student_id = s.id
        WHERE sp.parent_id = $1 AND s.is_deleted = FALSE
        ORDER BY s.last_name ASC, s.first_name ASC`
	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query, parentID); err != nil {
		return nil, fmt.Errorf("list parent students: %w", err)
	}
	return students, nil
}
