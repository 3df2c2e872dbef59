package schedule

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCron(t *testing.T) {
	spec, err := parseCron("30 8 * * 1-5")
	require.NoError(t, err)

	taipei := time.FixedZone("Asia/Taipei", 8*3600)
	monday := time.Date(2026, 10, 19, 8, 30, 0, 0, taipei)
	assert.True(t, spec.matches(monday))
	assert.False(t, spec.matches(monday.Add(time.Minute)))
	assert.False(t, spec.matches(monday.AddDate(0, 0, 5)), "saturday")

	spec, err = parseCron("*/15 9-17/4 1,15 * 7")
	require.NoError(t, err)
	assert.True(t, spec.dow[0], "7 means sunday")
	assert.True(t, spec.minute[45])
	assert.False(t, spec.minute[50])
	assert.True(t, spec.hour[13])
	assert.False(t, spec.hour[10])
	assert.True(t, spec.dom[15])

	for _, bad := range []string{"* * * *", "61 * * * *", "5-1 * * * *", "*/0 * * * *", "x * * * *"} {
		_, err := parseCron(bad)
		assert.Error(t, err, bad)
	}
}

func TestCronRunsOncePerMinute(t *testing.T) {
	s := New(time.UTC)
	var runs atomic.Int64
	require.NoError(t, s.Cron("30 8 * * *").Name("remind").Run(func(context.Context) error {
		runs.Add(1)
		return nil
	}))

	at := time.Date(2026, 10, 19, 8, 30, 0, 0, time.UTC)
	assert.Equal(t, 1, s.RunDue(context.Background(), at))
	assert.Equal(t, 0, s.RunDue(context.Background(), at.Add(20*time.Second)))
	assert.Equal(t, 0, s.RunDue(context.Background(), at.Add(time.Minute)))
	assert.Equal(t, 1, s.RunDue(context.Background(), at.AddDate(0, 0, 1)))
	s.Wait()

	assert.Equal(t, int64(2), runs.Load())
}

func TestCronUsesSchedulerLocation(t *testing.T) {
	taipei := time.FixedZone("Asia/Taipei", 8*3600)
	s := New(taipei)
	require.NoError(t, s.Cron("30 8 * * *").Run(func(context.Context) error { return nil }))

	// 00:30 UTC is 08:30 in Taipei.
	assert.Equal(t, 1, s.RunDue(context.Background(), time.Date(2026, 10, 19, 0, 30, 0, 0, time.UTC)))
	s.Wait()
}

func TestWithoutOverlapping(t *testing.T) {
	s := New(time.UTC)
	release := make(chan struct{})
	require.NoError(t, s.Every(time.Second).WithoutOverlapping().Run(func(context.Context) error {
		<-release
		return errors.New("done")
	}))

	now := time.Date(2026, 10, 19, 8, 0, 0, 0, time.UTC)
	assert.Equal(t, 1, s.RunDue(context.Background(), now))
	assert.Equal(t, 0, s.RunDue(context.Background(), now.Add(2*time.Second)))
	close(release)
	s.Wait()
}

func TestInvalidRegistration(t *testing.T) {
	s := New(nil)
	assert.Error(t, s.Cron("nope").Run(func(context.Context) error { return nil }))
	assert.Error(t, s.Every(0).Run(func(context.Context) error { return nil }))
	assert.Empty(t, s.List())
}
