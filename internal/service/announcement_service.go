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

type announcementRepo interface {
	List(ctx context.Context, filter models.AnnouncementFilter) ([]models.Announcement, int, error)
	Feed(ctx context.Context, schoolID string, role models.Role, classIDs []string, page models.PageRequest) ([]models.Announcement, int, error)
	FindByID(ctx context.Context, id, schoolID string) (*models.Announcement, error)
	Create(ctx context.Context, announcement *models.Announcement) error
	Update(ctx context.Context, announcement *models.Announcement) error
	Delete(ctx context.Context, id, schoolID string) error
}

type enrollmentResolver interface {
	ClassIDsForUser(ctx context.Context, userID string) ([]string, error)
}

// AnnouncementService manages announcements and the per-user feed.
type AnnouncementService struct {
	repo        announcementRepo
	enrollments enrollmentResolver
	cache       cacheStore
	cacheCfg    config.CacheConfig
	validate    *validator.Validate
	logger      *zap.Logger
}

// NewAnnouncementService constructs an AnnouncementService. cache may be
// nil when caching is disabled.
func NewAnnouncementService(repo announcementRepo, enrollments enrollmentResolver, cache cacheStore, cacheCfg config.CacheConfig, logger *zap.Logger) *AnnouncementService {
	return &AnnouncementService{
		repo:        repo,
		enrollments: enrollments,
		cache:       cache,
		cacheCfg:    cacheCfg,
		validate:    validator.New(),
		logger:      logger,
	}
}

// AudienceRequest restricts who sees the announcement. Roles accepts role
// names or "ALL".
type AudienceRequest struct {
	Roles    []string `json:"roles"`
	ClassIDs []string `json:"classIds"`
}

// CreateAnnouncementRequest publishes an announcement. Omitting the
// audience addresses everyone in the school.
type CreateAnnouncementRequest struct {
	Title       string           `json:"title" validate:"required,min=1,max=200"`
	Content     string           `json:"content" validate:"required,min=1"`
	PublishedAt *string          `json:"publishedAt"`
	Audience    *AudienceRequest `json:"audience"`
}

// UpdateAnnouncementRequest carries the mutable announcement fields.
type UpdateAnnouncementRequest struct {
	Title       *string          `json:"title" validate:"omitempty,min=1,max=200"`
	Content     *string          `json:"content" validate:"omitempty,min=1"`
	PublishedAt *string          `json:"publishedAt"`
	Audience    *AudienceRequest `json:"audience"`
}

type cachedFeed struct {
	Items []models.Announcement `json:"items"`
	Total int                   `json:"total"`
}

// List returns a page of the school's announcements for management views.
func (s *AnnouncementService) List(ctx context.Context, filter models.AnnouncementFilter) ([]models.Announcement, models.Pagination, error) {
	filter.Normalize()
	if err := validation.Page(filter.Page, filter.Limit); err != nil {
		return nil, models.Pagination{}, err
	}
	if err := validation.DateRange(filter.StartDate, filter.EndDate); err != nil {
		return nil, models.Pagination{}, err
	}

	announcements, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, models.Pagination{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list announcements")
	}
	if announcements == nil {
		announcements = []models.Announcement{}
	}
	return announcements, models.NewPagination(filter.Page, filter.Limit, total), nil
}

// Feed returns the announcements visible to the calling user, newest first.
func (s *AnnouncementService) Feed(ctx context.Context, user models.AuthUser, page models.PageRequest) ([]models.Announcement, models.Pagination, error) {
	page.Normalize()
	if err := validation.Page(page.Page, page.Limit); err != nil {
		return nil, models.Pagination{}, err
	}

	key := fmt.Sprintf("announcements:feed:%s:%s:%d:%d", user.SchoolID, user.ID, page.Page, page.Limit)
	if s.cacheEnabled() {
		var cached cachedFeed
		if err := s.cache.Get(ctx, key, &cached); err == nil {
			return cached.Items, models.NewPagination(page.Page, page.Limit, cached.Total), nil
		} else if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("feed cache read failed", zap.Error(err))
		}
	}

	var classIDs []string
	if user.Role == models.RoleStudent {
		ids, err := s.enrollments.ClassIDsForUser(ctx, user.ID)
		if err != nil {
			return nil, models.Pagination{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve enrollments")
		}
		classIDs = ids
	}

	announcements, total, err := s.repo.Feed(ctx, user.SchoolID, user.Role, classIDs, page)
	if err != nil {
		return nil, models.Pagination{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load feed")
	}
	if announcements == nil {
		announcements = []models.Announcement{}
	}

	if s.cacheEnabled() {
		if err := s.cache.Set(ctx, key, cachedFeed{Items: announcements, Total: total}, s.cacheCfg.FeedTTL); err != nil {
			s.logger.Warn("feed cache write failed", zap.Error(err))
		}
	}
	return announcements, models.NewPagination(page.Page, page.Limit, total), nil
}

// Get returns one announcement of the school.
func (s *AnnouncementService) Get(ctx context.Context, id, schoolID string) (*models.Announcement, error) {
	announcement, err := s.repo.FindByID(ctx, id, schoolID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "announcement not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to get announcement")
	}
	return announcement, nil
}

// Create publishes an announcement by the calling user.
func (s *AnnouncementService) Create(ctx context.Context, schoolID, createdByUserID string, req CreateAnnouncementRequest) (*models.Announcement, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}

	audience, err := buildAudience(req.Audience)
	if err != nil {
		return nil, err
	}
	publishedAt, err := parsePublishedAt(req.PublishedAt)
	if err != nil {
		return nil, err
	}

	announcement := &models.Announcement{
		Title:           req.Title,
		Content:         req.Content,
		PublishedAt:     publishedAt,
		Audience:        audience,
		SchoolID:        schoolID,
		CreatedByUserID: createdByUserID,
	}
	if err := s.repo.Create(ctx, announcement); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create announcement")
	}

	s.invalidateFeeds(ctx, schoolID)
	s.logger.Info("announcement published", zap.String("announcement_id", announcement.ID))
	return announcement, nil
}

// Update modifies one announcement of the school.
func (s *AnnouncementService) Update(ctx context.Context, id, schoolID string, req UpdateAnnouncementRequest) (*models.Announcement, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}

	announcement, err := s.Get(ctx, id, schoolID)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		announcement.Title = *req.Title
	}
	if req.Content != nil {
		announcement.Content = *req.Content
	}
	if req.PublishedAt != nil {
		publishedAt, err := parsePublishedAt(req.PublishedAt)
		if err != nil {
			return nil, err
		}
		announcement.PublishedAt = publishedAt
	}
	if req.Audience != nil {
		audience, err := buildAudience(req.Audience)
		if err != nil {
			return nil, err
		}
		announcement.Audience = audience
	}

	if err := s.repo.Update(ctx, announcement); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update announcement")
	}

	s.invalidateFeeds(ctx, schoolID)
	return announcement, nil
}

// Delete removes one announcement.
func (s *AnnouncementService) Delete(ctx context.Context, id, schoolID string) error {
	if _, err := s.Get(ctx, id, schoolID); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id, schoolID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete announcement")
	}
	s.invalidateFeeds(ctx, schoolID)
	return nil
}

func (s *AnnouncementService) cacheEnabled() bool {
	return s.cache != nil && s.cacheCfg.Enabled
}

func (s *AnnouncementService) invalidateFeeds(ctx context.Context, schoolID string) {
	if !s.cacheEnabled() {
		return
	}
	if err := s.cache.DeletePattern(ctx, fmt.Sprintf("announcements:feed:%s:*", schoolID)); err != nil {
		s.logger.Warn("feed cache invalidation failed", zap.Error(err))
	}
}

// buildAudience validates the requested roles against the declared role set
// plus "ALL". An audience with no roles and no classIds means everyone, so
// it is stored as null.
func buildAudience(req *AudienceRequest) (*models.Audience, error) {
	if req == nil {
		return nil, nil
	}
	for _, role := range req.Roles {
		if role != models.AudienceRoleAll && !models.Role(role).Valid() {
			return nil, appErrors.Clone(appErrors.ErrValidation, "invalid audience role")
		}
	}
	if len(req.Roles) == 0 && len(req.ClassIDs) == 0 {
		return nil, nil
	}
	return &models.Audience{Roles: req.Roles, ClassIDs: req.ClassIDs}, nil
}

func parsePublishedAt(raw *string) (time.Time, error) {
	if raw == nil || *raw == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, *raw)
	if err != nil {
		return time.Time{}, appErrors.Clone(appErrors.ErrValidation, "publishedAt must be an RFC 3339 timestamp")
	}
	return t, nil
}
