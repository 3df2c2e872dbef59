package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDateWeekdayIndex(t *testing.T) {
	monday := NewDate(2026, time.October, 19)
	assert.Equal(t, time.Monday, monday.Weekday())
	assert.Equal(t, 0, monday.MondayIndex())
	assert.Equal(t, 4, monday.AddDays(4).MondayIndex())
	assert.Equal(t, 6, monday.AddDays(6).MondayIndex())
	assert.False(t, monday.IsWeekend())
	assert.True(t, monday.AddDays(5).IsWeekend())
}

func TestDateScan(t *testing.T) {
	var d Date
	require.NoError(t, d.Scan("2026-10-19"))
	assert.Equal(t, NewDate(2026, time.October, 19), d)

	require.NoError(t, d.Scan([]byte("2026-10-20T00:00:00Z")))
	assert.Equal(t, NewDate(2026, time.October, 20), d)

	require.NoError(t, d.Scan(time.Date(2026, time.October, 21, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, NewDate(2026, time.October, 21), d)

	require.NoError(t, d.Scan(nil))
	assert.True(t, d.IsZero())

	assert.Error(t, d.Scan(42))
}

func TestDateJSON(t *testing.T) {
	type wrapper struct {
		Day Date `json:"day"`
	}
	raw, err := json.Marshal(wrapper{Day: NewDate(2026, time.January, 2)})
	require.NoError(t, err)
	assert.JSONEq(t, `{"day":"2026-01-02"}`, string(raw))

	var back wrapper
	require.NoError(t, json.Unmarshal(raw, &back))
	assert.Equal(t, NewDate(2026, time.January, 2), back.Day)
}

func TestMenuItemServedOn(t *testing.T) {
	wed := 2
	item := MenuItem{Weekday: &wed}
	assert.True(t, item.ServedOn(NewDate(2026, time.October, 21)))
	assert.False(t, item.ServedOn(NewDate(2026, time.October, 22)))
	assert.True(t, MenuItem{}.ServedOn(NewDate(2026, time.October, 22)))
}

func TestRoleRanks(t *testing.T) {
	assert.True(t, RoleSysAdmin.AtLeast(RoleAdmin))
	assert.True(t, RoleAdmin.AtLeast(RoleAdmin))
	assert.False(t, RoleUser.AtLeast(RoleAdmin))
	assert.False(t, Role("owner").Valid())
	assert.True(t, RoleAdmin.Privileged())
	assert.False(t, RoleUser.Privileged())
}
