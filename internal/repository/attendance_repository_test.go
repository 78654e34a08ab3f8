package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/school-admin/school-api/internal/models"
	appErrors "github.com/school-admin/school-api/pkg/errors"
)

func attendanceRows(records ...models.AttendanceRecord) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{"id", "student_id", "class_id", "date", "status", "session_id", "remarks", "recorded_by_id", "school_id", "created_at", "updated_at"})
	for _, r := range records {
		rows.AddRow(r.ID, r.StudentID, r.ClassID, r.Date, string(r.Status), r.SessionID, r.Remarks, r.RecordedByID, r.SchoolID, r.CreatedAt, r.UpdatedAt)
	}
	return rows
}

func sampleAttendance() models.AttendanceRecord {
	now := time.Now()
	return models.AttendanceRecord{
		ID:           "att-1",
		StudentID:    "stu-1",
		Date:         time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC),
		Status:       models.AttendancePresent,
		SessionID:    "morning",
		RecordedByID: "teacher-1",
		SchoolID:     "school-1",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func TestAttendanceListWithDateRange(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE school_id = $1 AND student_id = $2 AND date >= $3 AND date <= $4 ORDER BY date DESC, created_at DESC LIMIT 10 OFFSET 0")).
		WithArgs("school-1", "stu-1", start, end).
		WillReturnRows(attendanceRows(sampleAttendance()))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM attendance_records WHERE school_id = $1 AND student_id = $2 AND date >= $3 AND date <= $4")).
		WithArgs("school-1", "stu-1", start, end).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	records, total, err := repo.List(context.Background(), models.AttendanceFilter{
		SchoolID:    "school-1",
		StudentID:   "stu-1",
		StartDate:   &start,
		EndDate:     &end,
		PageRequest: models.PageRequest{Page: 1, Limit: 10},
	})
	require.NoError(t, err)
	assert.Len(t, records, 1)
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceExists(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	date := time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery("SELECT 1 FROM attendance_records").
		WithArgs("stu-1", date, "morning", "school-1").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))

	exists, err := repo.Exists(context.Background(), "stu-1", date, "morning", "school-1")
	require.NoError(t, err)
	assert.True(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceCreateBulkCommits(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	record := sampleAttendance()
	record.ID = ""

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT 1 FROM students").
		WithArgs(record.StudentID, record.SchoolID).
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))
	mock.ExpectQuery("SELECT 1 FROM attendance_records").
		WithArgs(record.StudentID, record.Date, record.SessionID, record.SchoolID).
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}))
	mock.ExpectExec("INSERT INTO attendance_records").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.CreateBulk(context.Background(), []*models.AttendanceRecord{&record})
	require.NoError(t, err)
	assert.NotEmpty(t, record.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceCreateBulkRollsBackOnDuplicate(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	record := sampleAttendance()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT 1 FROM students").
		WithArgs(record.StudentID, record.SchoolID).
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))
	mock.ExpectQuery("SELECT 1 FROM attendance_records").
		WithArgs(record.StudentID, record.Date, record.SessionID, record.SchoolID).
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))
	mock.ExpectRollback()

	err := repo.CreateBulk(context.Background(), []*models.AttendanceRecord{&record})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErr.Code)
	assert.Contains(t, appErr.Message, "record 1")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceCreateBulkRollsBackOnUnknownStudent(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	record := sampleAttendance()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT 1 FROM students").
		WithArgs(record.StudentID, record.SchoolID).
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}))
	mock.ExpectRollback()

	err := repo.CreateBulk(context.Background(), []*models.AttendanceRecord{&record})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceSummary(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	rows := sqlmock.NewRows([]string{"total", "present", "absent", "late", "excused"}).
		AddRow(10, 7, 1, 2, 0)
	mock.ExpectQuery("FROM attendance_records WHERE school_id").
		WithArgs("school-1").
		WillReturnRows(rows)

	summary, err := repo.Summary(context.Background(), models.AttendanceFilter{SchoolID: "school-1"})
	require.NoError(t, err)
	assert.Equal(t, 10, summary.TotalDays)
	assert.Equal(t, 7, summary.Present)
	assert.InDelta(t, 90.0, summary.AttendanceRate, 0.001)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceSummaryEmpty(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	rows := sqlmock.NewRows([]string{"total", "present", "absent", "late", "excused"}).
		AddRow(0, 0, 0, 0, 0)
	mock.ExpectQuery("FROM attendance_records WHERE school_id").
		WithArgs("school-1").
		WillReturnRows(rows)

	summary, err := repo.Summary(context.Background(), models.AttendanceFilter{SchoolID: "school-1"})
	require.NoError(t, err)
	assert.Zero(t, summary.AttendanceRate)
	assert.NoError(t, mock.ExpectationsWereMet())
}
