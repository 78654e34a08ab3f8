package service

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/school-admin/school-api/internal/models"
	"github.com/school-admin/school-api/pkg/config"
	appErrors "github.com/school-admin/school-api/pkg/errors"
)

type mockAnnouncementRepo struct {
	announcements map[string]*models.Announcement
	feedCalls     int
	nextID        int
}

func newMockAnnouncementRepo() *mockAnnouncementRepo {
	return &mockAnnouncementRepo{announcements: map[string]*models.Announcement{}}
}

func (m *mockAnnouncementRepo) List(ctx context.Context, filter models.AnnouncementFilter) ([]models.Announcement, int, error) {
	var out []models.Announcement
	for _, a := range m.announcements {
		if a.SchoolID == filter.SchoolID {
			out = append(out, *a)
		}
	}
	return out, len(out), nil
}

func (m *mockAnnouncementRepo) Feed(ctx context.Context, schoolID string, role models.Role, classIDs []string, page models.PageRequest) ([]models.Announcement, int, error) {
	m.feedCalls++
	var out []models.Announcement
	for _, a := range m.announcements {
		if a.SchoolID == schoolID && a.Audience.Matches(role, classIDs) {
			out = append(out, *a)
		}
	}
	return out, len(out), nil
}

func (m *mockAnnouncementRepo) FindByID(ctx context.Context, id, schoolID string) (*models.Announcement, error) {
	if a, ok := m.announcements[id]; ok && a.SchoolID == schoolID {
		copied := *a
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockAnnouncementRepo) Create(ctx context.Context, announcement *models.Announcement) error {
	m.nextID++
	announcement.ID = fmt.Sprintf("ann-%d", m.nextID)
	m.announcements[announcement.ID] = announcement
	return nil
}

func (m *mockAnnouncementRepo) Update(ctx context.Context, announcement *models.Announcement) error {
	m.announcements[announcement.ID] = announcement
	return nil
}

func (m *mockAnnouncementRepo) Delete(ctx context.Context, id, schoolID string) error {
	delete(m.announcements, id)
	return nil
}

type mockEnrollmentResolver struct {
	classIDs map[string][]string
	calls    int
}

func (m *mockEnrollmentResolver) ClassIDsForUser(ctx context.Context, userID string) ([]string, error) {
	m.calls++
	return m.classIDs[userID], nil
}

func newAnnouncementService(repo *mockAnnouncementRepo, resolver *mockEnrollmentResolver, cache *mockCache) *AnnouncementService {
	if resolver == nil {
		resolver = &mockEnrollmentResolver{}
	}
	cfg := config.CacheConfig{Enabled: cache != nil, FeedTTL: time.Minute}
	var store cacheStore
	if cache != nil {
		store = cache
	}
	return NewAnnouncementService(repo, resolver, store, cfg, zap.NewNop())
}

func TestCreateAnnouncementForEveryone(t *testing.T) {
	repo := newMockAnnouncementRepo()
	svc := newAnnouncementService(repo, nil, nil)

	announcement, err := svc.Create(context.Background(), "school-1", "admin-1", CreateAnnouncementRequest{
		Title:   "Sports day",
		Content: "Friday on the main field.",
	})
	require.NoError(t, err)
	assert.Nil(t, announcement.Audience)
	assert.Equal(t, "admin-1", announcement.CreatedByUserID)
}

func TestCreateAnnouncementEmptyAudienceStoredAsNil(t *testing.T) {
	repo := newMockAnnouncementRepo()
	svc := newAnnouncementService(repo, nil, nil)

	announcement, err := svc.Create(context.Background(), "school-1", "admin-1", CreateAnnouncementRequest{
		Title:    "Sports day",
		Content:  "Friday.",
		Audience: &AudienceRequest{},
	})
	require.NoError(t, err)
	assert.Nil(t, announcement.Audience)
}

func TestCreateAnnouncementInvalidAudienceRole(t *testing.T) {
	svc := newAnnouncementService(newMockAnnouncementRepo(), nil, nil)

	_, err := svc.Create(context.Background(), "school-1", "admin-1", CreateAnnouncementRequest{
		Title:    "Sports day",
		Content:  "Friday.",
		Audience: &AudienceRequest{Roles: []string{"JANITOR"}},
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestCreateAnnouncementBadPublishedAt(t *testing.T) {
	svc := newAnnouncementService(newMockAnnouncementRepo(), nil, nil)

	when := "next tuesday"
	_, err := svc.Create(context.Background(), "school-1", "admin-1", CreateAnnouncementRequest{
		Title:       "Sports day",
		Content:     "Friday.",
		PublishedAt: &when,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestFeedResolvesStudentEnrollments(t *testing.T) {
	repo := newMockAnnouncementRepo()
	resolver := &mockEnrollmentResolver{classIDs: map[string][]string{"stu-user-1": {"class-1"}}}
	svc := newAnnouncementService(repo, resolver, nil)

	_, err := svc.Create(context.Background(), "school-1", "admin-1", CreateAnnouncementRequest{
		Title:    "Class trip",
		Content:  "Bring a packed lunch.",
		Audience: &AudienceRequest{ClassIDs: []string{"class-1"}},
	})
	require.NoError(t, err)

	student := models.AuthUser{ID: "stu-user-1", Role: models.RoleStudent, SchoolID: "school-1"}
	items, pagination, err := svc.Feed(context.Background(), student, models.PageRequest{})
	require.NoError(t, err)
	assert.Len(t, items, 1)
	assert.Equal(t, 1, pagination.Total)
	assert.Equal(t, 1, resolver.calls)

	outsider := models.AuthUser{ID: "stu-user-2", Role: models.RoleStudent, SchoolID: "school-1"}
	items, _, err = svc.Feed(context.Background(), outsider, models.PageRequest{})
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestFeedSkipsEnrollmentLookupForStaff(t *testing.T) {
	repo := newMockAnnouncementRepo()
	resolver := &mockEnrollmentResolver{}
	svc := newAnnouncementService(repo, resolver, nil)

	teacher := models.AuthUser{ID: "t-user-1", Role: models.RoleTeacher, SchoolID: "school-1"}
	_, _, err := svc.Feed(context.Background(), teacher, models.PageRequest{})
	require.NoError(t, err)
	assert.Zero(t, resolver.calls)
}

func TestFeedCachesPerUserAndPage(t *testing.T) {
	repo := newMockAnnouncementRepo()
	cache := newMockCache()
	svc := newAnnouncementService(repo, nil, cache)

	teacher := models.AuthUser{ID: "t-user-1", Role: models.RoleTeacher, SchoolID: "school-1"}
	_, _, err := svc.Feed(context.Background(), teacher, models.PageRequest{})
	require.NoError(t, err)
	require.Equal(t, 1, repo.feedCalls)

	_, _, err = svc.Feed(context.Background(), teacher, models.PageRequest{})
	require.NoError(t, err)
	assert.Equal(t, 1, repo.feedCalls, "second call should be served from cache")

	assert.Contains(t, cache.entries, "announcements:feed:school-1:t-user-1:1:10")
}

func TestCreateInvalidatesFeedCache(t *testing.T) {
	repo := newMockAnnouncementRepo()
	cache := newMockCache()
	svc := newAnnouncementService(repo, nil, cache)

	teacher := models.AuthUser{ID: "t-user-1", Role: models.RoleTeacher, SchoolID: "school-1"}
	_, _, err := svc.Feed(context.Background(), teacher, models.PageRequest{})
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), "school-1", "admin-1", CreateAnnouncementRequest{Title: "New", Content: "Posted."})
	require.NoError(t, err)
	require.NotEmpty(t, cache.invalidations)
	assert.Equal(t, "announcements:feed:school-1:*", cache.invalidations[0])

	_, _, err = svc.Feed(context.Background(), teacher, models.PageRequest{})
	require.NoError(t, err)
	assert.Equal(t, 2, repo.feedCalls)
}

func TestUpdateAnnouncementAudience(t *testing.T) {
	repo := newMockAnnouncementRepo()
	svc := newAnnouncementService(repo, nil, nil)

	created, err := svc.Create(context.Background(), "school-1", "admin-1", CreateAnnouncementRequest{Title: "Staff only", Content: "Meeting."})
	require.NoError(t, err)

	updated, err := svc.Update(context.Background(), created.ID, "school-1", UpdateAnnouncementRequest{
		Audience: &AudienceRequest{Roles: []string{string(models.RoleTeacher)}},
	})
	require.NoError(t, err)
	require.NotNil(t, updated.Audience)
	assert.Equal(t, []string{string(models.RoleTeacher)}, updated.Audience.Roles)
}
