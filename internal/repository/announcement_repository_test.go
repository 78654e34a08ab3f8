package repository

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/school-admin/school-api/internal/models"
)

func announcementRows(announcements ...models.Announcement) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{"id", "title", "content", "published_at", "audience", "school_id", "created_by_user_id", "created_by_name", "created_at", "updated_at"})
	for _, a := range announcements {
		var audience interface{}
		if a.Audience != nil {
			raw, _ := json.Marshal(a.Audience)
			audience = raw
		}
		rows.AddRow(a.ID, a.Title, a.Content, a.PublishedAt, audience, a.SchoolID, a.CreatedByUserID, a.CreatedByName, a.CreatedAt, a.UpdatedAt)
	}
	return rows
}

func TestAnnouncementFeedQuery(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAnnouncementRepository(db)

	now := time.Now()
	announcement := models.Announcement{
		ID:              "ann-1",
		Title:           "Class trip",
		Content:         "Bring a packed lunch.",
		PublishedAt:     now.Add(-time.Hour),
		Audience:        &models.Audience{ClassIDs: []string{"class-1"}},
		SchoolID:        "school-1",
		CreatedByUserID: "admin-1",
		CreatedByName:   "Alex Admin",
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	roleJSON, _ := json.Marshal([]string{string(models.RoleStudent)})
	allJSON, _ := json.Marshal([]string{models.AudienceRoleAll})

	mock.ExpectQuery("FROM announcements a").
		WithArgs("school-1", sqlmock.AnyArg(), allJSON, roleJSON, pq.Array([]string{"class-1"})).
		WillReturnRows(announcementRows(announcement))
	mock.ExpectQuery("SELECT COUNT").
		WithArgs("school-1", sqlmock.AnyArg(), allJSON, roleJSON, pq.Array([]string{"class-1"})).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	items, total, err := repo.Feed(context.Background(), "school-1", models.RoleStudent, []string{"class-1"}, models.PageRequest{Page: 1, Limit: 10})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 1, total)
	require.NotNil(t, items[0].Audience)
	assert.Equal(t, []string{"class-1"}, items[0].Audience.ClassIDs)
	assert.Equal(t, "Alex Admin", items[0].CreatedByName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAnnouncementCreateDefaultsPublishedAt(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAnnouncementRepository(db)

	mock.ExpectExec("INSERT INTO announcements").WillReturnResult(sqlmock.NewResult(0, 1))

	announcement := &models.Announcement{
		Title:           "Sports day",
		Content:         "Friday.",
		SchoolID:        "school-1",
		CreatedByUserID: "admin-1",
	}
	require.NoError(t, repo.Create(context.Background(), announcement))
	assert.NotEmpty(t, announcement.ID)
	assert.False(t, announcement.PublishedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAnnouncementFindByIDNullAudience(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAnnouncementRepository(db)

	now := time.Now()
	announcement := models.Announcement{
		ID:              "ann-1",
		Title:           "Everyone",
		Content:         "School-wide notice.",
		PublishedAt:     now,
		SchoolID:        "school-1",
		CreatedByUserID: "admin-1",
		CreatedByName:   "Alex Admin",
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	mock.ExpectQuery("FROM announcements a").
		WithArgs("ann-1", "school-1").
		WillReturnRows(announcementRows(announcement))

	found, err := repo.FindByID(context.Background(), "ann-1", "school-1")
	require.NoError(t, err)
	assert.Nil(t, found.Audience)
	assert.NoError(t, mock.ExpectationsWereMet())
}
