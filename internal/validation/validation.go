// Package validation holds the pure domain validators shared by the resource
// services. None of them perform I/O; each returns a typed validation error
// on violation.
package validation

import (
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	appErrors "github.com/school-admin/school-api/pkg/errors"
)

var (
	academicYearPattern = regexp.MustCompile(`^\d{4}-\d{4}$`)
	emailPattern        = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phonePattern        = regexp.MustCompile(`^\+?[\d\s-]{8,}$`)
)

// AcademicYear accepts strings of the form YYYY-YYYY where the second year is
// the first plus one and the first is within one year of the current year.
func AcademicYear(year string, now time.Time) error {
	if !academicYearPattern.MatchString(year) {
		return appErrors.Clone(appErrors.ErrValidation, "academic year must be in format YYYY-YYYY")
	}
	parts := strings.SplitN(year, "-", 2)
	start, _ := strconv.Atoi(parts[0])
	end, _ := strconv.Atoi(parts[1])
	if end != start+1 {
		return appErrors.Clone(appErrors.ErrValidation, "academic year end must be one year after start")
	}
	current := now.Year()
	if start < current-1 || start > current+1 {
		return appErrors.Clone(appErrors.ErrValidation, "academic year must be within one year of the current year")
	}
	return nil
}

// Password enforces the account password policy: at least 6 characters with
// an uppercase letter, a lowercase letter and a digit.
func Password(password string) error {
	if len(password) < 6 {
		return appErrors.Clone(appErrors.ErrValidation, "password must be at least 6 characters long")
	}
	var upper, lower, digit bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	if !upper {
		return appErrors.Clone(appErrors.ErrValidation, "password must contain at least one uppercase letter")
	}
	if !lower {
		return appErrors.Clone(appErrors.ErrValidation, "password must contain at least one lowercase letter")
	}
	if !digit {
		return appErrors.Clone(appErrors.ErrValidation, "password must contain at least one number")
	}
	return nil
}

// Email checks the address shape without resolving the domain.
func Email(email string) error {
	if !emailPattern.MatchString(email) {
		return appErrors.Clone(appErrors.ErrValidation, "invalid email format")
	}
	return nil
}

// Phone checks the contact number shape.
func Phone(phone string) error {
	if !phonePattern.MatchString(phone) {
		return appErrors.Clone(appErrors.ErrValidation, "invalid phone number format")
	}
	return nil
}

// AttendanceDate rejects zero and future-dated attendance.
func AttendanceDate(date time.Time, now time.Time) error {
	if date.IsZero() {
		return appErrors.Clone(appErrors.ErrValidation, "invalid date format")
	}
	if date.After(now) {
		return appErrors.Clone(appErrors.ErrValidation, "attendance date cannot be in the future")
	}
	return nil
}

// SessionID requires a non-blank session identifier.
func SessionID(sessionID string) error {
	if strings.TrimSpace(sessionID) == "" {
		return appErrors.Clone(appErrors.ErrValidation, "session ID is required")
	}
	return nil
}

// DateRange enforces the both-or-neither rule for range filters and orders
// the bounds. A lone bound is a validation error, not a silent no-op.
func DateRange(start, end *time.Time) error {
	if (start == nil) != (end == nil) {
		return appErrors.Clone(appErrors.ErrValidation, "startDate and endDate must be provided together")
	}
	if start != nil && start.After(*end) {
		return appErrors.Clone(appErrors.ErrValidation, "start date cannot be after end date")
	}
	return nil
}

// Page enforces the pagination policy: page >= 1 and limit within [1,100].
func Page(page, limit int) error {
	if page < 1 {
		return appErrors.Clone(appErrors.ErrValidation, "page number must be greater than 0")
	}
	if limit < 1 || limit > 100 {
		return appErrors.Clone(appErrors.ErrValidation, "limit must be between 1 and 100")
	}
	return nil
}
