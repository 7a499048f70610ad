package assessment

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTimerStages(t *testing.T) {
	// 44 questions at 10s each.
	timer := NewTimer(0.25, 0.10)
	timer.Start(440)

	st := timer.State()
	assert.True(t, st.Running)
	assert.False(t, st.Warning)
	assert.False(t, st.Critical)

	check := func(remaining int, warning, critical bool) {
		t.Helper()
		timer.SetRemaining(remaining)
		st := timer.State()
		assert.Equal(t, warning, st.Warning, "warning at %d", remaining)
		assert.Equal(t, critical, st.Critical, "critical at %d", remaining)
	}

	check(111, false, false)
	check(110, true, false)
	check(45, true, false)
	check(44, false, true)
	check(43, false, true)
	check(1, false, true)
}

func TestTimerTick(t *testing.T) {
	timer := NewTimer(0.25, 0.10)
	timer.Start(3)

	assert.False(t, timer.Tick())
	assert.Equal(t, 2, timer.Remaining())
	assert.False(t, timer.Tick())
	assert.True(t, timer.Tick(), "time-up fires on reaching zero")
	assert.Equal(t, 0, timer.Remaining())
	assert.False(t, timer.State().Running)
	assert.True(t, timer.Expired())

	assert.False(t, timer.Tick(), "time-up fires once")
	assert.False(t, timer.SetRemaining(0), "time-up fires once")
}

func TestTimerStopAndReset(t *testing.T) {
	timer := NewTimer(0.25, 0.10)
	timer.Start(100)
	timer.SetRemaining(5)

	timer.Stop()
	assert.Equal(t, TimerState{}, timer.State())
	assert.False(t, timer.Expired())

	timer.Start(100)
	timer.SetRemaining(0)
	timer.Reset()
	assert.Equal(t, TimerState{}, timer.State())
	assert.False(t, timer.Expired())
}

func TestTimerPauseResume(t *testing.T) {
	timer := NewTimer(0.25, 0.10)
	timer.Start(100)
	timer.SetRemaining(20)

	timer.Pause()
	st := timer.State()
	assert.False(t, st.Running)
	assert.Equal(t, 20, st.Remaining)
	assert.True(t, st.Warning)

	assert.False(t, timer.Tick())
	assert.Equal(t, 20, timer.Remaining(), "paused timer does not count down")

	timer.Resume()
	assert.True(t, timer.State().Running)
	timer.Tick()
	assert.Equal(t, 19, timer.Remaining())
}

func TestTimerSetRemainingClamps(t *testing.T) {
	timer := NewTimer(0.25, 0.10)
	timer.Start(100)

	timer.SetRemaining(500)
	assert.Equal(t, 100, timer.Remaining())

	assert.True(t, timer.SetRemaining(-3))
	assert.Equal(t, 0, timer.Remaining())
}
