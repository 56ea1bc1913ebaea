package scheduler

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newNop() *zap.Logger { return zap.NewNop() }

func TestAddTicker_Fires(t *testing.T) {
	s := New(newNop())
	defer s.Stop()

	var count int32
	s.AddTicker("tick", 20*time.Millisecond, func() {
		atomic.AddInt32(&count, 1)
	})

	time.Sleep(120 * time.Millisecond)
	assert.GreaterOrEqual(t, atomic.LoadInt32(&count), int32(3))
}

func TestAddTicker_Replaces(t *testing.T) {
	s := New(newNop())
	defer s.Stop()

	var count1, count2 int32
	s.AddTicker("task", 20*time.Millisecond, func() { atomic.AddInt32(&count1, 1) })
	time.Sleep(30 * time.Millisecond)
	s.AddTicker("task", 20*time.Millisecond, func() { atomic.AddInt32(&count2, 1) })
	time.Sleep(80 * time.Millisecond)

	snap1 := atomic.LoadInt32(&count1)
	time.Sleep(40 * time.Millisecond)
	assert.Equal(t, snap1, atomic.LoadInt32(&count1), "old ticker must stop after replacement")
	assert.Positive(t, atomic.LoadInt32(&count2))
}

func TestAddDelay_ReplacesCancelsOld(t *testing.T) {
	s := New(newNop())
	defer s.Stop()

	var count int32
	s.AddDelay("d", 500*time.Millisecond, func() { atomic.AddInt32(&count, 1) })
	s.AddDelay("d", 30*time.Millisecond, func() { atomic.AddInt32(&count, 10) })
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, int32(10), atomic.LoadInt32(&count))
	assert.Empty(t, s.Tasks(), "fired delay is forgotten")
}

func TestRemove(t *testing.T) {
	s := New(newNop())
	defer s.Stop()

	var ticks, delays int32
	s.AddTicker("task", 20*time.Millisecond, func() { atomic.AddInt32(&ticks, 1) })
	s.AddDelay("d", 100*time.Millisecond, func() { atomic.AddInt32(&delays, 1) })
	time.Sleep(50 * time.Millisecond)
	assert.True(t, s.Remove("task"))
	assert.True(t, s.Remove("d"))
	assert.False(t, s.Remove("nope"))
	snap := atomic.LoadInt32(&ticks)
	time.Sleep(120 * time.Millisecond)
	assert.Equal(t, snap, atomic.LoadInt32(&ticks), "ticker must stop after Remove")
	assert.Equal(t, int32(0), atomic.LoadInt32(&delays))
}

func TestStop_StopsEverything(t *testing.T) {
	s := New(newNop())

	var c1, delayed int32
	s.AddTicker("a", 20*time.Millisecond, func() { atomic.AddInt32(&c1, 1) })
	s.AddDelay("later", 80*time.Millisecond, func() { atomic.AddInt32(&delayed, 1) })
	time.Sleep(50 * time.Millisecond)
	s.Stop()
	s.Stop()
	time.Sleep(30 * time.Millisecond)
	snap := atomic.LoadInt32(&c1)
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, snap, atomic.LoadInt32(&c1))
	assert.Equal(t, int32(0), atomic.LoadInt32(&delayed))
}

func TestTasks(t *testing.T) {
	s := New(newNop())
	defer s.Stop()

	require.Empty(t, s.Tasks())
	s.AddTicker("beta", time.Hour, func() {})
	s.AddTicker("alpha", time.Hour, func() {})
	s.AddDaily("midnight", time.UTC, func() {})
	assert.Equal(t, []string{"alpha", "beta", "midnight"}, s.Tasks())

	s.Remove("alpha")
	s.Remove("midnight")
	assert.Equal(t, []string{"beta"}, s.Tasks())
}

func TestTicker_PanicRecovery(t *testing.T) {
	s := New(newNop())
	defer s.Stop()

	var runs int32
	s.AddTicker("panic", 20*time.Millisecond, func() {
		atomic.AddInt32(&runs, 1)
		panic("oops")
	})
	time.Sleep(90 * time.Millisecond)
	assert.GreaterOrEqual(t, atomic.LoadInt32(&runs), int32(2), "ticker keeps running after a panic")
}

func TestNextMidnight(t *testing.T) {
	jakarta := time.FixedZone("WIB", 7*3600)

	cases := []struct {
		name string
		now  time.Time
		loc  *time.Location
		want time.Time
	}{
		{"mid day", time.Date(2026, 3, 4, 15, 30, 0, 0, time.UTC), time.UTC, time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC)},
		{"exactly midnight", time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC), time.UTC, time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC)},
		{"month end", time.Date(2026, 2, 28, 23, 59, 0, 0, time.UTC), time.UTC, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)},
		// 18:00 UTC is already 01:00 the next day in UTC+7.
		{"other zone", time.Date(2026, 3, 4, 18, 0, 0, 0, time.UTC), jakarta, time.Date(2026, 3, 6, 0, 0, 0, 0, jakarta)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := NextMidnight(tc.now, tc.loc)
			assert.True(t, tc.want.Equal(got), "want %s got %s", tc.want, got)
		})
	}
}

func TestAddDaily_FiresAtMidnightAndRearms(t *testing.T) {
	s := New(newNop())
	defer s.Stop()

	// Pretend it is 30ms before midnight.
	midnight := time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return midnight.Add(-30 * time.Millisecond) }

	var count int32
	s.AddDaily("reset", time.UTC, func() { atomic.AddInt32(&count, 1) })
	assert.Equal(t, []string{"reset"}, s.Tasks())

	assert.Eventually(t, func() bool { return atomic.LoadInt32(&count) >= 1 }, time.Second, 10*time.Millisecond)
	// Re-armed for the following midnight.
	assert.Eventually(t, func() bool {
		tasks := s.Tasks()
		return len(tasks) == 1 && tasks[0] == "reset"
	}, time.Second, 10*time.Millisecond)
}
