package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAudienceMatches(t *testing.T) {
	var everyone *Audience
	assert.True(t, everyone.Matches(RoleStudent, nil))

	all := &Audience{Roles: []string{AudienceRoleAll}}
	assert.True(t, all.Matches(RoleParent, nil))

	teachersOnly := &Audience{Roles: []string{string(RoleTeacher)}}
	assert.True(t, teachersOnly.Matches(RoleTeacher, nil))
	assert.False(t, teachersOnly.Matches(RoleStudent, nil))

	classScoped := &Audience{ClassIDs: []string{"class-1"}}
	assert.True(t, classScoped.Matches(RoleStudent, []string{"class-2", "class-1"}))
	assert.False(t, classScoped.Matches(RoleStudent, []string{"class-3"}))
	assert.False(t, classScoped.Matches(RoleStudent, nil))

	mixed := &Audience{Roles: []string{string(RoleParent)}, ClassIDs: []string{"class-1"}}
	assert.True(t, mixed.Matches(RoleParent, nil))
	assert.True(t, mixed.Matches(RoleStudent, []string{"class-1"}))
	assert.False(t, mixed.Matches(RoleStudent, nil))
}

func TestAudienceValueAndScan(t *testing.T) {
	var nilAudience *Audience
	v, err := nilAudience.Value()
	require.NoError(t, err)
	assert.Nil(t, v)

	audience := &Audience{Roles: []string{"TEACHER"}, ClassIDs: []string{"class-1"}}
	v, err = audience.Value()
	require.NoError(t, err)

	raw, ok := v.([]byte)
	require.True(t, ok)
	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Contains(t, decoded, "roles")

	scanned := &Audience{}
	require.NoError(t, scanned.Scan(raw))
	assert.Equal(t, audience.Roles, scanned.Roles)
	assert.Equal(t, audience.ClassIDs, scanned.ClassIDs)

	require.NoError(t, scanned.Scan(nil))
	assert.Error(t, scanned.Scan(42))
}

func TestRoleValid(t *testing.T) {
	assert.True(t, RoleAdmin.Valid())
	assert.True(t, RoleStudent.Valid())
	assert.False(t, Role("PRINCIPAL").Valid())
}

func TestAttendanceStatusValid(t *testing.T) {
	assert.True(t, AttendancePresent.Valid())
	assert.True(t, AttendanceExcused.Valid())
	assert.False(t, AttendanceStatus("SLEEPING").Valid())
}

func TestGradeTypeValid(t *testing.T) {
	assert.True(t, GradeExam.Valid())
	assert.True(t, GradeOther.Valid())
	assert.False(t, GradeType("VIBES").Valid())
}
