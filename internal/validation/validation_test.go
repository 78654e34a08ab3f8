package validation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

func TestAcademicYear(t *testing.T) {
	cases := []struct {
		year string
		ok   bool
	}{
		{"2026-2027", true},
		{"2025-2026", true},
		{"2027-2028", true},
		{"2026-2028", false},
		{"2023-2024", false},
		{"2030-2031", false},
		{"2026", false},
		{"26-27", false},
		{"abcd-efgh", false},
	}
	for _, tc := range cases {
		err := AcademicYear(tc.year, now)
		if tc.ok {
			assert.NoError(t, err, tc.year)
		} else {
			assert.Error(t, err, tc.year)
		}
	}
}

func TestPassword(t *testing.T) {
	cases := []struct {
		password string
		ok       bool
	}{
		{"Passw0rd", true},
		{"aB3def", true},
		{"aB3", false},
		{"passw0rd", false},
		{"PASSW0RD", false},
		{"Password", false},
	}
	for _, tc := range cases {
		err := Password(tc.password)
		if tc.ok {
			assert.NoError(t, err, tc.password)
		} else {
			assert.Error(t, err, tc.password)
		}
	}
}

func TestEmail(t *testing.T) {
	assert.NoError(t, Email("user@example.com"))
	assert.Error(t, Email("user@example"))
	assert.Error(t, Email("not an email"))
}

func TestPhone(t *testing.T) {
	assert.NoError(t, Phone("+62 812-3456-789"))
	assert.NoError(t, Phone("08123456789"))
	assert.Error(t, Phone("12345"))
	assert.Error(t, Phone("call me"))
}

func TestAttendanceDate(t *testing.T) {
	assert.NoError(t, AttendanceDate(now.AddDate(0, 0, -1), now))
	assert.NoError(t, AttendanceDate(now, now))
	assert.Error(t, AttendanceDate(now.AddDate(0, 0, 1), now))
	assert.Error(t, AttendanceDate(time.Time{}, now))
}

func TestSessionID(t *testing.T) {
	assert.NoError(t, SessionID("morning"))
	assert.Error(t, SessionID(""))
	assert.Error(t, SessionID("   "))
}

func TestDateRange(t *testing.T) {
	start := now.AddDate(0, -1, 0)
	end := now

	assert.NoError(t, DateRange(nil, nil))
	assert.NoError(t, DateRange(&start, &end))

	err := DateRange(&start, nil)
	require.Error(t, err, "a lone bound must be rejected")
	assert.Error(t, DateRange(nil, &end))
	assert.Error(t, DateRange(&end, &start))
}

func TestPage(t *testing.T) {
	assert.NoError(t, Page(1, 10))
	assert.NoError(t, Page(5, 100))
	assert.Error(t, Page(0, 10))
	assert.Error(t, Page(-1, 10))
	assert.Error(t, Page(1, 0))
	assert.Error(t, Page(1, 101))
}
