package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// AudienceRoleAll inside audience.roles addresses every role.
const AudienceRoleAll = "ALL"

// Audience restricts who sees an announcement. A nil audience means everyone
// in the school.
type Audience struct {
	Roles    []string `json:"roles,omitempty"`
	ClassIDs []string `json:"classIds,omitempty"`
}

// Matches reports whether an announcement addressed with this audience is
// visible to a user with the given role and class enrollments.
func (a *Audience) Matches(role Role, classIDs []string) bool {
	if a == nil {
		return true
	}
	for _, r := range a.Roles {
		if r == AudienceRoleAll || r == string(role) {
			return true
		}
	}
	for _, want := range a.ClassIDs {
		for _, have := range classIDs {
			if want == have {
				return true
			}
		}
	}
	return false
}

// Value implements driver.Valuer so the audience is stored as JSONB.
func (a *Audience) Value() (driver.Value, error) {
	if a == nil {
		return nil, nil
	}
	return json.Marshal(a)
}

// Scan implements sql.Scanner.
func (a *Audience) Scan(src interface{}) error {
	if src == nil {
		return nil
	}
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, a)
	case string:
		return json.Unmarshal([]byte(v), a)
	default:
		return fmt.Errorf("unsupported audience type %T", src)
	}
}

// Announcement is published to a school-wide or audience-restricted feed.
type Announcement struct {
	ID              string    `db:"id" json:"id"`
	Title           string    `db:"title" json:"title"`
	Content         string    `db:"content" json:"content"`
	PublishedAt     time.Time `db:"published_at" json:"publishedAt"`
	Audience        *Audience `db:"audience" json:"audience,omitempty"`
	SchoolID        string    `db:"school_id" json:"schoolId"`
	CreatedByUserID string    `db:"created_by_user_id" json:"createdByUserId"`
	CreatedByName   string    `db:"created_by_name" json:"createdByName,omitempty"`
	CreatedAt       time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt       time.Time `db:"updated_at" json:"updatedAt"`
}

// AnnouncementFilter captures filtering criteria for listing announcements.
type AnnouncementFilter struct {
	SchoolID        string
	Search          string
	CreatedByUserID string
	StartDate       *time.Time
	EndDate         *time.Time
	PageRequest
}
