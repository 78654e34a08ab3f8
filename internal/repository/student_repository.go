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

const studentColumns = "id, student_id, first_name, last_name, date_of_birth, gender, enrollment_status, school_id, user_id, is_deleted, created_at, updated_at"

// StudentRepository manages persistence for students and their enrollment and
// parent links.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs a StudentRepository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// List returns non-deleted students of one school matching the filters.
func (r *StudentRepository) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error) {
	conditions := []string{"s.school_id = $1", "s.is_deleted = FALSE"}
	args := []interface{}{filter.SchoolID}

	if filter.Search != "" {
		idx := len(args) + 1
		conditions = append(conditions, fmt.Sprintf("(LOWER(s.first_name) LIKE $%d OR LOWER(s.last_name) LIKE $%d OR LOWER(s.student_id) LIKE $%d)", idx, idx, idx))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}
	if filter.EnrollmentStatus != nil {
		conditions = append(conditions, fmt.Sprintf("s.enrollment_status = $%d", len(args)+1))
		args = append(args, *filter.EnrollmentStatus)
	}
	if filter.ClassID != "" {
		conditions = append(conditions, fmt.Sprintf("EXISTS (SELECT 1 FROM student_classes sc WHERE sc.student_id = s.id AND sc.class_id = $%d)", len(args)+1))
		args = append(args, filter.ClassID)
	}

	where := strings.Join(conditions, " AND ")

	cols := strings.ReplaceAll(studentColumns, ", ", ", s.")
	query := fmt.Sprintf("SELECT s.%s FROM students s WHERE %s ORDER BY s.last_name ASC, s.first_name ASC LIMIT %d OFFSET %d",
		cols, where, filter.Limit, filter.Offset())
	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list students: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM students s WHERE %s", where)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count students: %w", err)
	}
	return students, total, nil
}

// FindByID fetches a non-deleted student scoped to a school.
func (r *StudentRepository) FindByID(ctx context.Context, id, schoolID string) (*models.Student, error) {
	query := fmt.Sprintf("SELECT %s FROM students WHERE id = $1 AND school_id = $2 AND is_deleted = FALSE", studentColumns)
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, id, schoolID); err != nil {
		return nil, err
	}
	return &student, nil
}

// ExistsByStudentID checks registration-number uniqueness within a school,
// optionally excluding one student.
func (r *StudentRepository) ExistsByStudentID(ctx context.Context, studentID, schoolID, excludeID string) (bool, error) {
	query := "SELECT 1 FROM students WHERE student_id = $1 AND school_id = $2 AND is_deleted = FALSE"
	args := []interface{}{studentID, schoolID}
	if excludeID != "" {
		query += " AND id <> $3"
		args = append(args, excludeID)
	}
	var exists int
	if err := r.db.GetContext(ctx, &exists, query+" LIMIT 1", args...); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check student number: %w", err)
	}
	return true, nil
}

// Create inserts a new student record.
func (r *StudentRepository) Create(ctx context.Context, student *models.Student) error {
	if student.ID == "" {
		student.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	student.CreatedAt = now
	student.UpdatedAt = now
	const query = `INSERT INTO students (id, student_id, first_name, last_name, date_of_birth, gender, enrollment_status, school_id, user_id, is_deleted, created_at, updated_at)
        VALUES (:id, :student_id, :first_name, :last_name, :date_of_birth, :gender, :enrollment_status, :school_id, :user_id, :is_deleted, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, student); err != nil {
		return fmt.Errorf("create student: %w", err)
	}
	return nil
}

// Update modifies an existing student.
func (r *StudentRepository) Update(ctx context.Context, student *models.Student) error {
	student.UpdatedAt = time.Now().UTC()
	const query = `UPDATE students SET student_id = :student_id, first_name = :first_name, last_name = :last_name,
        date_of_birth = :date_of_birth, gender = :gender, enrollment_status = :enrollment_status,
        user_id = :user_id, updated_at = :updated_at
        WHERE id = :id AND school_id = :school_id AND is_deleted = FALSE`
	if _, err := r.db.NamedExecContext(ctx, query, student); err != nil {
		return fmt.Errorf("update student: %w", err)
	}
	return nil
}

// SoftDelete flags a student as deleted so historical attendance and grades
// keep their references.
func (r *StudentRepository) SoftDelete(ctx context.Context, id, schoolID string) error {
	const query = `UPDATE students SET is_deleted = TRUE, updated_at = $3 WHERE id = $1 AND school_id = $2`
	if _, err := r.db.ExecContext(ctx, query, id, schoolID, time.Now().UTC()); err != nil {
		return fmt.Errorf("delete student: %w", err)
	}
	return nil
}

// IsEnrolled reports whether the student is linked to the class.
func (r *StudentRepository) IsEnrolled(ctx context.Context, studentID, classID string) (bool, error) {
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

// Enroll links a student to a class.
func (r *StudentRepository) Enroll(ctx context.Context, studentID, classID string) error {
	const query = `INSERT INTO student_classes (student_id, class_id, created_at) VALUES ($1, $2, $3)`
	if _, err := r.db.ExecContext(ctx, query, studentID, classID, time.Now().UTC()); err != nil {
		return fmt.Errorf("enroll student: %w", err)
	}
	return nil
}

// Unenroll removes the student-class link.
func (r *StudentRepository) Unenroll(ctx context.Context, studentID, classID string) error {
	const query = `DELETE FROM student_classes WHERE student_id = $1 AND class_id = $2`
	if _, err := r.db.ExecContext(ctx, query, studentID, classID); err != nil {
		return fmt.Errorf("unenroll student: %w", err)
	}
	return nil
}

// ClassIDs returns the ids of all classes the student is enrolled in.
func (r *StudentRepository) ClassIDs(ctx context.Context, studentID string) ([]string, error) {
	const query = `SELECT class_id FROM student_classes WHERE student_id = $1`
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, query, studentID); err != nil {
		return nil, fmt.Errorf("list student classes: %w", err)
	}
	return ids, nil
}

// ClassIDsForUser returns the class ids of the student linked to the user
// account, if any. Used for audience matching on the announcement feed.
func (r *StudentRepository) ClassIDsForUser(ctx context.Context, userID string) ([]string, error) {
	const query = `SELECT sc.class_id FROM student_classes sc
        JOIN students s ON s.id = sc.student_id
        WHERE s.user_id = $1 AND s.is_deleted = FALSE`
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, query, userID); err != nil {
		return nil, fmt.Errorf("list user classes: %w", err)
	}
	return ids, nil
}

// IsLinkedToParent reports whether the student-parent link exists.
func (r *StudentRepository) IsLinkedToParent(ctx context.Context, studentID, parentID string) (bool, error) {
	const query = `SELECT 1 FROM student_parents WHERE student_id = $1 AND parent_id = $2 LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, studentID, parentID); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check parent link: %w", err)
	}
	return true, nil
}

// LinkParent creates a student-parent link.
func (r *StudentRepository) LinkParent(ctx context.Context, studentID, parentID string) error {
	const query = `INSERT INTO student_parents (student_id, parent_id, created_at) VALUES ($1, $2, $3)`
	if _, err := r.db.ExecContext(ctx, query, studentID, parentID, time.Now().UTC()); err != nil {
		return fmt.Errorf("link parent: %w", err)
	}
	return nil
}

// UnlinkParent removes a student-parent link.
func (r *StudentRepository) UnlinkParent(ctx context.Context, studentID, parentID string) error {
	const query = `DELETE FROM student_parents WHERE student_id = $1 AND parent_id = $2`
	if _, err := r.db.ExecContext(ctx, query, studentID, parentID); err != nil {
		return fmt.Errorf("unlink parent: %w", err)
	}
	return nil
}

// Parents returns the non-deleted parents linked to the student.
func (r *StudentRepository) Parents(ctx context.Context, studentID string) ([]models.Parent, error) {
	const query = `SELECT p.id, p.user_id, p.school_id, p.first_name, p.last_name, p.relation_to_student,
        p.contact_phone, p.contact_email, p.is_deleted, p.created_at, p.updated_at
        FROM parents p
        JOIN student_parents sp ON sp.parent_id = p.id
        WHERE sp.student_id = $1 AND p.is_deleted = FALSE
        ORDER BY p.last_name ASC, p.first_name ASC`
	var parents []models.Parent
	if err := r.db.SelectContext(ctx, &parents, query, studentID); err != nil {
		return nil, fmt.Errorf("list student parents: %w", err)
	}
	return parents, nil
}
