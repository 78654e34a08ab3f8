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
	appErrors "github.com/school-admin/school-api/pkg/errors"
)

const attendanceColumns = "id, student_id, class_id, date, status, session_id, remarks, recorded_by_id, school_id, created_at, updated_at"

// AttendanceRepository manages persistence for attendance records.
type AttendanceRepository struct {
	db *sqlx.DB
}

// NewAttendanceRepository constructs an AttendanceRepository.
func NewAttendanceRepository(db *sqlx.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

func attendanceConditions(filter models.AttendanceFilter) (string, []interface{}) {
	conditions := []string{"school_id = $1"}
	args := []interface{}{filter.SchoolID}

	if filter.StudentID != "" {
		conditions = append(conditions, fmt.Sprintf("student_id = $%d", len(args)+1))
		args = append(args, filter.StudentID)
	}
	if filter.ClassID != "" {
		conditions = append(conditions, fmt.Sprintf("class_id = $%d", len(args)+1))
		args = append(args, filter.ClassID)
	}
	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, *filter.Status)
	}
	if filter.StartDate != nil && filter.EndDate != nil {
		conditions = append(conditions, fmt.Sprintf("date >= $%d AND date <= $%d", len(args)+1, len(args)+2))
		args = append(args, *filter.StartDate, *filter.EndDate)
	}
	return strings.Join(conditions, " AND "), args
}

// List returns attendance records of one school matching the filters.
func (r *AttendanceRepository) List(ctx context.Context, filter models.AttendanceFilter) ([]models.AttendanceRecord, int, error) {
	where, args := attendanceConditions(filter)

	query := fmt.Sprintf("SELECT %s FROM attendance_records WHERE %s ORDER BY date DESC, created_at DESC LIMIT %d OFFSET %d",
		attendanceColumns, where, filter.Limit, filter.Offset())
	var records []models.AttendanceRecord
	if err := r.db.SelectContext(ctx, &records, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list attendance: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM attendance_records WHERE %s", where)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count attendance: %w", err)
	}
	return records, total, nil
}

// FindByID fetches an attendance record scoped to a school.
func (r *AttendanceRepository) FindByID(ctx context.Context, id, schoolID string) (*models.AttendanceRecord, error) {
	query := fmt.Sprintf("SELECT %s FROM attendance_records WHERE id = $1 AND school_id = $2", attendanceColumns)
	var record models.AttendanceRecord
	if err := r.db.GetContext(ctx, &record, query, id, schoolID); err != nil {
		return nil, err
	}
	return &record, nil
}

// Exists checks the (studentId, date, sessionId) uniqueness within a school.
func (r *AttendanceRepository) Exists(ctx context.Context, studentID string, date time.Time, sessionID, schoolID string) (bool, error) {
	const query = `SELECT 1 FROM attendance_records
        WHERE student_id = $1 AND date = $2 AND session_id = $3 AND school_id = $4 LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, studentID, date, sessionID, schoolID); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check attendance: %w", err)
	}
	return true, nil
}

// Create inserts one attendance record.
func (r *AttendanceRepository) Create(ctx context.Context, record *models.AttendanceRecord) error {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	record.CreatedAt = now
	record.UpdatedAt = now
	const query = `INSERT INTO attendance_records (id, student_id, class_id, date, status, session_id, remarks, recorded_by_id, school_id, created_at, updated_at)
        VALUES (:id, :student_id, :class_id, :date, :status, :session_id, :remarks, :recorded_by_id, :school_id, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, record); err != nil {
		return fmt.Errorf("create attendance: %w", err)
	}
	return nil
}

// CreateBulk inserts all records in one transaction, re-running the student
// and duplicate checks inside the transaction so one bad record rolls back
// the whole batch. Errors from the per-record checks carry the failing
// position so clients can pinpoint the offending entry.
func (r *AttendanceRepository) CreateBulk(ctx context.Context, records []*models.AttendanceRecord) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin bulk attendance: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			tx.Rollback()
		}
	}()

	const studentQuery = `SELECT 1 FROM students WHERE id = $1 AND school_id = $2 AND is_deleted = FALSE LIMIT 1`
	const duplicateQuery = `SELECT 1 FROM attendance_records
        WHERE student_id = $1 AND date = $2 AND session_id = $3 AND school_id = $4 LIMIT 1`
	const insertQuery = `INSERT INTO attendance_records (id, student_id, class_id, date, status, session_id, remarks, recorded_by_id, school_id, created_at, updated_at)
        VALUES (:id, :student_id, :class_id, :date, :status, :session_id, :remarks, :recorded_by_id, :school_id, :created_at, :updated_at)`

	now := time.Now().UTC()
	for i, record := range records {
		var one int
		if err := tx.GetContext(ctx, &one, studentQuery, record.StudentID, record.SchoolID); err != nil {
			if err == sql.ErrNoRows {
				return appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("student not found for record %d", i+1))
			}
			return fmt.Errorf("check student for record %d: %w", i+1, err)
		}
		if err := tx.GetContext(ctx, &one, duplicateQuery, record.StudentID, record.Date, record.SessionID, record.SchoolID); err == nil {
			return appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("attendance already recorded for record %d", i+1))
		} else if err != sql.ErrNoRows {
			return fmt.Errorf("check duplicate for record %d: %w", i+1, err)
		}

		if record.ID == "" {
			record.ID = uuid.NewString()
		}
		record.CreatedAt = now
		record.UpdatedAt = now
		if _, err := tx.NamedExecContext(ctx, insertQuery, record); err != nil {
			return fmt.Errorf("insert record %d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit bulk attendance: %w", err)
	}
	committed = true
	return nil
}

// Update modifies an existing attendance record.
func (r *AttendanceRepository) Update(ctx context.Context, record *models.AttendanceRecord) error {
	record.UpdatedAt = time.Now().UTC()
	const query = `UPDATE attendance_records SET status = :status, remarks = :remarks, updated_at = :updated_at
        WHERE id = :id AND school_id = :school_id`
	if _, err := r.db.NamedExecContext(ctx, query, record); err != nil {
		return fmt.Errorf("update attendance: %w", err)
	}
	return nil
}

// Delete removes an attendance record.
func (r *AttendanceRepository) Delete(ctx context.Context, id, schoolID string) error {
	const query = `DELETE FROM attendance_records WHERE id = $1 AND school_id = $2`
	if _, err := r.db.ExecContext(ctx, query, id, schoolID); err != nil {
		return fmt.Errorf("delete attendance: %w", err)
	}
	return nil
}

// Summary aggregates record counts by status for the filter scope.
func (r *AttendanceRepository) Summary(ctx context.Context, filter models.AttendanceFilter) (*models.AttendanceSummary, error) {
	where, args := attendanceConditions(filter)
	query := fmt.Sprintf(`SELECT
        COUNT(*) AS total,
        COUNT(*) FILTER (WHERE status = 'PRESENT') AS present,
        COUNT(*) FILTER (WHERE status = 'ABSENT') AS absent,
        COUNT(*) FILTER (WHERE status = 'LATE') AS late,
        COUNT(*) FILTER (WHERE status = 'EXCUSED') AS excused
        FROM attendance_records WHERE %s`, where)

	var row struct {
		Total   int `db:"total"`
		Present int `db:"present"`
		Absent  int `db:"absent"`
		Late    int `db:"late"`
		Excused int `db:"excused"`
	}
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		return nil, fmt.Errorf("attendance summary: %w", err)
	}

	summary := &models.AttendanceSummary{
		TotalDays: row.Total,
		Present:   row.Present,
		Absent:    row.Absent,
		Late:      row.Late,
		Excused:   row.Excused,
	}
	if row.Total > 0 {
		summary.AttendanceRate = float64(row.Present+row.Late) / float64(row.Total) * 100
	}
	return summary, nil
}

// StudentInSchool reports whether a non-deleted student exists in the school.
func (r *AttendanceRepository) StudentInSchool(ctx context.Context, studentID, schoolID string) (bool, error) {
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
func (r *AttendanceRepository) ClassInSchool(ctx context.Context, classID, schoolID string) (bool, error) {
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
