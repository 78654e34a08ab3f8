package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/school-admin/school-api/internal/models"
)

const announcementColumns = `a.id, a.title, a.content, a.published_at, a.audience, a.school_id,
        a.created_by_user_id, u.name AS created_by_name, a.created_at, a.updated_at`

// AnnouncementRepository manages persistence for announcements.
type AnnouncementRepository struct {
	db *sqlx.DB
}

// NewAnnouncementRepository constructs an AnnouncementRepository.
func NewAnnouncementRepository(db *sqlx.DB) *AnnouncementRepository {
	return &AnnouncementRepository{db: db}
}

// List returns announcements of one school matching the filters, newest
// published first.
func (r *AnnouncementRepository) List(ctx context.Context, filter models.AnnouncementFilter) ([]models.Announcement, int, error) {
	conditions := []string{"a.school_id = $1"}
	args := []interface{}{filter.SchoolID}

	if filter.Search != "" {
		idx := len(args) + 1
		conditions = append(conditions, fmt.Sprintf("(LOWER(a.title) LIKE $%d OR LOWER(a.content) LIKE $%d)", idx, idx))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}
	if filter.CreatedByUserID != "" {
		conditions = append(conditions, fmt.Sprintf("a.created_by_user_id = $%d", len(args)+1))
		args = append(args, filter.CreatedByUserID)
	}
	if filter.StartDate != nil && filter.EndDate != nil {
		conditions = append(conditions, fmt.Sprintf("a.published_at >= $%d AND a.published_at <= $%d", len(args)+1, len(args)+2))
		args = append(args, *filter.StartDate, *filter.EndDate)
	}

	where := strings.Join(conditions, " AND ")

	query := fmt.Sprintf(`SELECT %s FROM announcements a
        JOIN users u ON u.id = a.created_by_user_id
        WHERE %s ORDER BY a.published_at DESC LIMIT %d OFFSET %d`,
		announcementColumns, where, filter.Limit, filter.Offset())
	var announcements []models.Announcement
	if err := r.db.SelectContext(ctx, &announcements, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list announcements: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM announcements a WHERE %s", where)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count announcements: %w", err)
	}
	return announcements, total, nil
}

// Feed returns announcements visible to a user: audience is null, addresses
// every role, contains the user's role, or targets one of the user's classes.
func (r *AnnouncementRepository) Feed(ctx context.Context, schoolID string, role models.Role, classIDs []string, page models.PageRequest) ([]models.Announcement, int, error) {
	roleJSON, err := json.Marshal([]string{string(role)})
	if err != nil {
		return nil, 0, fmt.Errorf("encode role: %w", err)
	}
	allJSON, err := json.Marshal([]string{models.AudienceRoleAll})
	if err != nil {
		return nil, 0, fmt.Errorf("encode role: %w", err)
	}
	if classIDs == nil {
		classIDs = []string{}
	}

	const where = `a.school_id = $1 AND a.published_at <= $2 AND (
            a.audience IS NULL
            OR a.audience->'roles' @> $3::jsonb
            OR a.audience->'roles' @> $4::jsonb
            OR EXISTS (
                SELECT 1 FROM jsonb_array_elements_text(COALESCE(a.audience->'classIds', '[]'::jsonb)) AS cid
                WHERE cid = ANY($5)
            )
        )`
	args := []interface{}{schoolID, time.Now().UTC(), allJSON, roleJSON, pq.Array(classIDs)}

	query := fmt.Sprintf(`SELECT %s FROM announcements a
        JOIN users u ON u.id = a.created_by_user_id
        WHERE %s ORDER BY a.published_at DESC LIMIT %d OFFSET %d`,
		announcementColumns, where, page.Limit, page.Offset())
	var announcements []models.Announcement
	if err := r.db.SelectContext(ctx, &announcements, query, args...); err != nil {
		return nil, 0, fmt.Errorf("announcement feed: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM announcements a WHERE %s", where)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count announcement feed: %w", err)
	}
	return announcements, total, nil
}

// FindByID fetches an announcement scoped to a school.
func (r *AnnouncementRepository) FindByID(ctx context.Context, id, schoolID string) (*models.Announcement, error) {
	query := fmt.Sprintf(`SELECT %s FROM announcements a
        JOIN users u ON u.id = a.created_by_user_id
        WHERE a.id = $1 AND a.school_id = $2`, announcementColumns)
	var announcement models.Announcement
	if err := r.db.GetContext(ctx, &announcement, query, id, schoolID); err != nil {
		return nil, err
	}
	return &announcement, nil
}

// Create inserts a new announcement.
func (r *AnnouncementRepository) Create(ctx context.Context, announcement *models.Announcement) error {
	if announcement.ID == "" {
		announcement.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	announcement.CreatedAt = now
	announcement.UpdatedAt = now
	if announcement.PublishedAt.IsZero() {
		announcement.PublishedAt = now
	}
	const query = `INSERT INTO announcements (id, title, content, published_at, audience, school_id, created_by_user_id, created_at, updated_at)
        VALUES (:id, :title, :content, :published_at, :audience, :school_id, :created_by_user_id, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, announcement); err != nil {
		return fmt.Errorf("create announcement: %w", err)
	}
	return nil
}

// Update modifies an existing announcement.
func (r *AnnouncementRepository) Update(ctx context.Context, announcement *models.Announcement) error {
	announcement.UpdatedAt = time.Now().UTC()
	const query = `UPDATE announcements SET title = :title, content = :content, published_at = :published_at,
        audience = :audience, updated_at = :updated_at WHERE id = :id AND school_id = :school_id`
	if _, err := r.db.NamedExecContext(ctx, query, announcement); err != nil {
		return fmt.Errorf("update announcement: %w", err)
	}
	return nil
}

// Delete removes an announcement.
func (r *AnnouncementRepository) Delete(ctx context.Context, id, schoolID string) error {
	const query = `DELETE FROM announcements WHERE id = $1 AND school_id = $2`
	if _, err := r.db.ExecContext(ctx, query, id, schoolID); err != nil {
		return fmt.Errorf("delete announcement: %w", err)
	}
	return nil
}
