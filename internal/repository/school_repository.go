package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/school-admin/school-api/internal/models"
)

// SchoolRepository manages persistence for tenants.
type SchoolRepository struct {
	db *sqlx.DB
}

// NewSchoolRepository constructs a SchoolRepository.
func NewSchoolRepository(db *sqlx.DB) *SchoolRepository {
	return &SchoolRepository{db: db}
}

// FindByID fetches a school by primary key.
func (r *SchoolRepository) FindByID(ctx context.Context, id string) (*models.School, error) {
	const query = `SELECT id, name, address, contact_email, contact_phone, created_at, updated_at
        FROM schools WHERE id = $1`
	var school models.School
	if err := r.db.GetContext(ctx, &school, query, id); err != nil {
		return nil, err
	}
	return &school, nil
}

// ExistsByName checks for a school with the given name, case-insensitively.
func (r *SchoolRepository) ExistsByName(ctx context.Context, name string) (bool, error) {
	const query = `SELECT 1 FROM schools WHERE LOWER(name) = LOWER($1) LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, name); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check school name: %w", err)
	}
	return true, nil
}

// CreateWithAdmin inserts the school and its first admin user in one
// transaction so a partial registration never persists.
func (r *SchoolRepository) CreateWithAdmin(ctx context.Context, school *models.School, admin *models.User) error {
	now := time.Now().UTC()
	if school.ID == "" {
		school.ID = uuid.NewString()
	}
	school.CreatedAt = now
	school.UpdatedAt = now
	if admin.ID == "" {
		admin.ID = uuid.NewString()
	}
	admin.SchoolID = school.ID
	admin.CreatedAt = now
	admin.UpdatedAt = now

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin registration: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			tx.Rollback()
		}
	}()

	const schoolQuery = `INSERT INTO schools (id, name, address, contact_email, contact_phone, created_at, updated_at)
        VALUES (:id, :name, :address, :contact_email, :contact_phone, :created_at, :updated_at)`
	if _, err := tx.NamedExecContext(ctx, schoolQuery, school); err != nil {
		return fmt.Errorf("create school: %w", err)
	}

	const userQuery = `INSERT INTO users (id, email, password_hash, name, role, school_id, is_active, created_at, updated_at)
        VALUES (:id, :email, :password_hash, :name, :role, :school_id, :is_active, :created_at, :updated_at)`
	if _, err := tx.NamedExecContext(ctx, userQuery, admin); err != nil {
		return fmt.Errorf("create admin user: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit registration: %w", err)
	}
	committed = true
	return nil
}
