package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseClock(t *testing.T) {
	d, err := ParseClock("09:00")
	require.NoError(t, err)
	assert.Equal(t, 9*time.Hour, d)

	d, err = ParseClock("08:59:59")
	require.NoError(t, err)
	assert.Equal(t, 8*time.Hour+59*time.Minute+59*time.Second, d)

	_, err = ParseClock("nine")
	assert.Error(t, err)
}

func TestMergeDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	content := "# comment\nORDER_CUTOFF=\"10:30\"\napp_timezone=UTC\nbroken line\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	out := defaultValues()
	require.NoError(t, mergeDotEnv(path, out))

	assert.Equal(t, "10:30", out["ORDER_CUTOFF"])
	assert.Equal(t, "UTC", out["APP_TIMEZONE"])
}

func TestMergeJSONConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"rate_limit_per_minute": 50, "cache_enabled": true, "db_driver": "postgres"}`), 0o600))

	out := defaultValues()
	require.NoError(t, mergeJSONConfig(path, out))

	assert.Equal(t, "50", out["RATE_LIMIT_PER_MINUTE"])
	assert.Equal(t, "true", out["CACHE_ENABLED"])
	assert.Equal(t, "postgres", out["DB_DRIVER"])
}

func TestSetAndTypedAccessors(t *testing.T) {
	Set("ORDER_CUTOFF", "10:15")
	Set("APP_TIMEZONE", "UTC")
	Set("EVENTS_DRIVER", "log, kafka")
	t.Cleanup(func() {
		Set("ORDER_CUTOFF", defaultOrderCutoff)
		Set("APP_TIMEZONE", defaultTimezone)
		Set("EVENTS_DRIVER", "log")
	})

	assert.Equal(t, 10*time.Hour+15*time.Minute, OrderCutoff())
	assert.Equal(t, "UTC", Timezone().String())
	assert.Equal(t, []string{"log", "kafka"}, EventsDriver())
}

func TestTimezoneFallsBackOnUnknownZone(t *testing.T) {
	Set("APP_TIMEZONE", "Mars/Olympus_Mons")
	t.Cleanup(func() { Set("APP_TIMEZONE", defaultTimezone) })

	loc := Timezone()
	assert.NotNil(t, loc)
	assert.NotEqual(t, "Mars/Olympus_Mons", loc.String())
}
