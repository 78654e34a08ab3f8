package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/school-admin/school-api/internal/models"
	"github.com/school-admin/school-api/internal/validation"
	"github.com/school-admin/school-api/pkg/config"
	appErrors "github.com/school-admin/school-api/pkg/errors"
)

// MaxBulkAttendanceRecords caps the batch size of one bulk request.
const MaxBulkAttendanceRecords = 200

type attendanceRepo interface {
	List(ctx context.Context, filter models.AttendanceFilter) ([]models.AttendanceRecord, int, error)
	FindByID(ctx context.Context, id, schoolID string) (*models.AttendanceRecord, error)
	Exists(ctx context.Context, studentID string, date time.Time, sessionID, schoolID string) (bool, error)
	Create(ctx context.Context, record *models.AttendanceRecord) error
	CreateBulk(ctx context.Context, records []*models.AttendanceRecord) error
	Update(ctx context.Context, record *models.AttendanceRecord) error
	Delete(ctx context.Context, id, schoolID string) error
	Summary(ctx context.Context, filter models.AttendanceFilter) (*models.AttendanceSummary, error)
	StudentInSchool(ctx context.Context, studentID, schoolID string) (bool, error)
	ClassInSchool(ctx context.Context, classID, schoolID string) (bool, error)
}

type cacheStore interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeletePattern(ctx context.Context, pattern string) error
}

// AttendanceService manages attendance records and the cached summary view.
type AttendanceService struct {
	repo     attendanceRepo
	cache    cacheStore
	cacheCfg config.CacheConfig
	validate *validator.Validate
	logger   *zap.Logger
	now      func() time.Time
}

// NewAttendanceService constructs an AttendanceService. cache may be nil
// when caching is disabled.
func NewAttendanceService(repo attendanceRepo, cache cacheStore, cacheCfg config.CacheConfig, logger *zap.Logger) *AttendanceService {
	return &AttendanceService{
		repo:     repo,
		cache:    cache,
		cacheCfg: cacheCfg,
		validate: validator.New(),
		logger:   logger,
		now:      time.Now,
	}
}

// CreateAttendanceRequest records one student's attendance for a date and
// session. Dates use the YYYY-MM-DD layout.
type CreateAttendanceRequest struct {
	StudentID string  `json:"studentId" validate:"required"`
	ClassID   *string `json:"classId"`
	Date      string  `json:"date" validate:"required"`
	Status    string  `json:"status" validate:"required"`
	SessionID string  `json:"sessionId" validate:"required"`
	Remarks   *string `json:"remarks"`
}

// BulkCreateAttendanceRequest records a batch atomically; one bad record
// fails the whole batch.
type BulkCreateAttendanceRequest struct {
	Records []CreateAttendanceRequest `json:"records" validate:"required,min=1,dive"`
}

// UpdateAttendanceRequest carries the mutable record fields.
type UpdateAttendanceRequest struct {
	Status  *string `json:"status"`
	Remarks *string `json:"remarks"`
}

// List returns a page of the school's attendance records.
func (s *AttendanceService) List(ctx context.Context, filter models.AttendanceFilter) ([]models.AttendanceRecord, models.Pagination, error) {
	filter.Normalize()
	if err := validation.Page(filter.Page, filter.Limit); err != nil {
		return nil, models.Pagination{}, err
	}
	if err := validation.DateRange(filter.StartDate, filter.EndDate); err != nil {
		return nil, models.Pagination{}, err
	}
	if filter.Status != nil && !filter.Status.Valid() {
		return nil, models.Pagination{}, appErrors.Clone(appErrors.ErrValidation, "invalid attendance status filter")
	}

	records, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, models.Pagination{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list attendance")
	}
	if records == nil {
		records = []models.AttendanceRecord{}
	}
	return records, models.NewPagination(filter.Page, filter.Limit, total), nil
}

// Get returns one attendance record of the school.
func (s *AttendanceService) Get(ctx context.Context, id, schoolID string) (*models.AttendanceRecord, error) {
	record, err := s.repo.FindByID(ctx, id, schoolID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "attendance record not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to get attendance record")
	}
	return record, nil
}

// Create records one attendance entry.
func (s *AttendanceService) Create(ctx context.Context, schoolID, recordedByID string, req CreateAttendanceRequest) (*models.AttendanceRecord, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}

	record, err := s.buildRecord(ctx, schoolID, recordedByID, req)
	if err != nil {
		return nil, err
	}

	duplicate, err := s.repo.Exists(ctx, record.StudentID, record.Date, record.SessionID, schoolID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check attendance")
	}
	if duplicate {
		return nil, appErrors.Clone(appErrors.ErrConflict, "attendance already recorded for this student, date and session")
	}

	if err := s.repo.Create(ctx, record); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create attendance record")
	}

	s.invalidateSummaries(ctx, schoolID)
	return record, nil
}

// CreateBulk records a batch of attendance entries in one transaction.
func (s *AttendanceService) CreateBulk(ctx context.Context, schoolID, recordedByID string, req BulkCreateAttendanceRequest) ([]models.AttendanceRecord, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}
	if len(req.Records) > MaxBulkAttendanceRecords {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("bulk request exceeds %d records", MaxBulkAttendanceRecords))
	}

	records := make([]*models.AttendanceRecord, 0, len(req.Records))
	seen := make(map[string]struct{}, len(req.Records))
	for i, entry := range req.Records {
		record, err := s.buildRecord(ctx, schoolID, recordedByID, entry)
		if err != nil {
			return nil, appErrors.Clone(appErrors.FromError(err), fmt.Sprintf("record %d: %s", i+1, appErrors.FromError(err).Message))
		}
		key := record.StudentID + "|" + record.Date.Format("2006-01-02") + "|" + record.SessionID
		if _, dup := seen[key]; dup {
			return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("record %d duplicates an earlier record in the batch", i+1))
		}
		seen[key] = struct{}{}
		records = append(records, record)
	}

	if err := s.repo.CreateBulk(ctx, records); err != nil {
		var appErr *appErrors.Error
		if errors.As(err, &appErr) {
			return nil, appErr
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create attendance records")
	}

	s.invalidateSummaries(ctx, schoolID)
	s.logger.Info("bulk attendance recorded", zap.String("school_id", schoolID), zap.Int("count", len(records)))

	out := make([]models.AttendanceRecord, len(records))
	for i, record := range records {
		out[i] = *record
	}
	return out, nil
}

// Update modifies the status or remarks of one record.
func (s *AttendanceService) Update(ctx context.Context, id, schoolID string, req UpdateAttendanceRequest) (*models.AttendanceRecord, error) {
	record, err := s.Get(ctx, id, schoolID)
	if err != nil {
		return nil, err
	}

	if req.Status != nil {
		status := models.AttendanceStatus(*req.Status)
		if !status.Valid() {
			return nil, appErrors.Clone(appErrors.ErrValidation, "invalid attendance status")
		}
		record.Status = status
	}
	if req.Remarks != nil {
		record.Remarks = req.Remarks
	}

	if err := s.repo.Update(ctx, record); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update attendance record")
	}

	s.invalidateSummaries(ctx, schoolID)
	return record, nil
}

// Delete removes one attendance record.
func (s *AttendanceService) Delete(ctx context.Context, id, schoolID string) error {
	if _, err := s.Get(ctx, id, schoolID); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id, schoolID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete attendance record")
	}
	s.invalidateSummaries(ctx, schoolID)
	return nil
}

// Summary aggregates attendance counts for the filter scope, serving from
// the cache when enabled.
func (s *AttendanceService) Summary(ctx context.Context, filter models.AttendanceFilter) (*models.AttendanceSummary, error) {
	if err := validation.DateRange(filter.StartDate, filter.EndDate); err != nil {
		return nil, err
	}
	if filter.Status != nil && !filter.Status.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid attendance status filter")
	}

	key := s.summaryKey(filter)
	if s.cacheEnabled() {
		var cached models.AttendanceSummary
		if err := s.cache.Get(ctx, key, &cached); err == nil {
			return &cached, nil
		} else if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("summary cache read failed", zap.Error(err))
		}
	}

	summary, err := s.repo.Summary(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to compute summary")
	}

	if s.cacheEnabled() {
		if err := s.cache.Set(ctx, key, summary, s.cacheCfg.SummaryTTL); err != nil {
			s.logger.Warn("summary cache write failed", zap.Error(err))
		}
	}
	return summary, nil
}

func (s *AttendanceService) buildRecord(ctx context.Context, schoolID, recordedByID string, req CreateAttendanceRequest) (*models.AttendanceRecord, error) {
	status := models.AttendanceStatus(req.Status)
	if !status.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid attendance status")
	}
	date, err := parseDate(req.Date)
	if err != nil {
		return nil, err
	}
	if err := validation.AttendanceDate(date, s.now()); err != nil {
		return nil, err
	}
	if err := validation.SessionID(req.SessionID); err != nil {
		return nil, err
	}

	found, err := s.repo.StudentInSchool(ctx, req.StudentID, schoolID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check student")
	}
	if !found {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
	}

	if req.ClassID != nil && *req.ClassID != "" {
		found, err := s.repo.ClassInSchool(ctx, *req.ClassID, schoolID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check class")
		}
		if !found {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
	} else {
		req.ClassID = nil
	}

	return &models.AttendanceRecord{
		StudentID:    req.StudentID,
		ClassID:      req.ClassID,
		Date:         date,
		Status:       status,
		SessionID:    req.SessionID,
		Remarks:      req.Remarks,
		RecordedByID: recordedByID,
		SchoolID:     schoolID,
	}, nil
}

func (s *AttendanceService) cacheEnabled() bool {
	return s.cache != nil && s.cacheCfg.Enabled
}

func (s *AttendanceService) summaryKey(filter models.AttendanceFilter) string {
	start, end := "", ""
	if filter.StartDate != nil {
		start = filter.StartDate.Format("2006-01-02")
	}
	if filter.EndDate != nil {
		end = filter.EndDate.Format("2006-01-02")
	}
	status := ""
	if filter.Status != nil {
		status = string(*filter.Status)
	}
	return fmt.Sprintf("attendance:summary:%s:%s:%s:%s:%s:%s",
		filter.SchoolID, filter.StudentID, filter.ClassID, status, start, end)
}

func (s *AttendanceService) invalidateSummaries(ctx context.Context, schoolID string) {
	if !s.cacheEnabled() {
		return
	}
	if err := s.cache.DeletePattern(ctx, fmt.Sprintf("attendance:summary:%s:*", schoolID)); err != nil {
		s.logger.Warn("summary cache invalidation failed", zap.Error(err))
	}
}
