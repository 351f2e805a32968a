package automation

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func mustSchedule(t *testing.T, kind, expr string) Schedule {
	t.Helper()
	s, err := ParseSchedule(kind, expr, time.UTC)
	require.NoError(t, err)
	return s
}

func TestRunDueRunsOnlyDueJobs(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 3, 15, 23, 50, 0, 0, time.UTC)}
	var hooked []string
	svc := NewService(time.Minute,
		WithClock(clock.Now),
		WithRunHook(func(job string, err error) { hooked = append(hooked, job) }),
	)

	var rollovers, exports int
	svc.Register("daily-rollover", mustSchedule(t, "cron", "@daily"), func(context.Context) (string, error) {
		rollovers++
		return "created 2024-03-16", nil
	})
	svc.Register("export", mustSchedule(t, "interval", "5m"), func(context.Context) (string, error) {
		exports++
		return "", errors.New("vault missing")
	})

	svc.RunDue(context.Background())
	assert.Zero(t, rollovers)
	assert.Zero(t, exports)

	clock.Advance(5 * time.Minute)
	svc.RunDue(context.Background())
	assert.Zero(t, rollovers)
	assert.Equal(t, 1, exports)

	clock.Advance(10 * time.Minute)
	svc.RunDue(context.Background())
	assert.Equal(t, 1, rollovers)
	assert.Equal(t, 2, exports)
	assert.Equal(t, []string{"export", "daily-rollover", "export"}, hooked)

	jobs := svc.Jobs()
	require.Len(t, jobs, 2)
	assert.Equal(t, "daily-rollover", jobs[0].Name)
	assert.Equal(t, StatusSuccess, jobs[0].LastStatus)
	assert.Equal(t, "created 2024-03-16", jobs[0].LastOutput)
	require.NotNil(t, jobs[0].NextRunAt)
	assert.Equal(t, time.Date(2024, 3, 17, 0, 0, 0, 0, time.UTC), *jobs[0].NextRunAt)

	assert.Equal(t, "export", jobs[1].Name)
	assert.Equal(t, StatusFailed, jobs[1].LastStatus)
	assert.Equal(t, "vault missing", jobs[1].LastError)
	assert.Equal(t, 2, jobs[1].Runs)
}

func TestOneshotDisablesAfterRun(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)}
	svc := NewService(time.Minute, WithClock(clock.Now))
	runs := 0
	svc.Register("once", mustSchedule(t, "oneshot", "2024-03-15T10:01:00Z"), func(context.Context) (string, error) {
		runs++
		return "", nil
	})

	clock.Advance(2 * time.Minute)
	svc.RunDue(context.Background())
	svc.RunDue(context.Background())
	assert.Equal(t, 1, runs)

	jobs := svc.Jobs()
	require.Len(t, jobs, 1)
	assert.False(t, jobs[0].Enabled)
	assert.Nil(t, jobs[0].NextRunAt)
}

func TestRunNow(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)}
	svc := NewService(time.Minute, WithClock(clock.Now))
	svc.Register("export", mustSchedule(t, "interval", "1h"), func(context.Context) (string, error) {
		return "3 files written", nil
	})

	st, err := svc.RunNow(context.Background(), "export")
	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, st.LastStatus)
	assert.Equal(t, "3 files written", st.LastOutput)
	require.NotNil(t, st.NextRunAt)
	assert.Equal(t, time.Date(2024, 3, 15, 11, 0, 0, 0, time.UTC), *st.NextRunAt, "manual runs keep the schedule")

	_, err = svc.RunNow(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrUnknownJob)
}

func TestStartRunsLoopUntilStop(t *testing.T) {
	svc := NewService(10 * time.Millisecond)
	var runs atomic.Int32
	svc.Register("tick", mustSchedule(t, "interval", "1ms"), func(ctx context.Context) (string, error) {
		runs.Add(1)
		return "", ctx.Err()
	})

	svc.Start()
	require.Eventually(t, func() bool { return runs.Load() >= 2 }, 2*time.Second, 5*time.Millisecond)
	svc.Stop()

	after := runs.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, after, runs.Load())
}
