package assessment

// TimerState is the observable countdown state.
type TimerState struct {
	Remaining int  `json:"remaining"`
	Total     int  `json:"total"`
	Running   bool `json:"running"`
	Warning   bool `json:"warning"`
	Critical  bool `json:"critical"`
}

// Timer is a countdown with warning and critical stages derived from the
// remaining and total seconds. It is not safe for concurrent use; the engine
// guards it with the session lock.
type Timer struct {
	warningRatio  float64
	criticalRatio float64

	state   TimerState
	expired bool
}

func NewTimer(warningRatio, criticalRatio float64) *Timer {
	return &Timer{warningRatio: warningRatio, criticalRatio: criticalRatio}
}

func (t *Timer) Start(total int) {
	t.state = TimerState{Remaining: total, Total: total, Running: true}
	t.expired = false
}

// Tick counts one second down. It returns true on the tick that reaches
// zero and never again until the timer is restarted.
func (t *Timer) Tick() bool {
	if !t.state.Running || t.state.Remaining <= 0 {
		return false
	}
	t.state.Remaining--
	return t.settle()
}

// SetRemaining jumps to n seconds, clamped to [0, total]. Like Tick it
// reports the time-up transition.
func (t *Timer) SetRemaining(n int) bool {
	if n < 0 {
		n = 0
	}
	if n > t.state.Total {
		n = t.state.Total
	}
	t.state.Remaining = n
	return t.settle()
}

func (t *Timer) settle() bool {
	t.recompute()
	if t.state.Remaining > 0 {
		return false
	}
	t.state.Running = false
	if t.expired {
		return false
	}
	t.expired = true
	return true
}

func (t *Timer) recompute() {
	rem := float64(t.state.Remaining)
	total := float64(t.state.Total)
	t.state.Critical = rem <= total*t.criticalRatio
	t.state.Warning = !t.state.Critical && rem <= total*t.warningRatio
}

func (t *Timer) Stop() {
	t.state = TimerState{}
	t.expired = false
}

func (t *Timer) Reset() {
	t.Stop()
}

// Pause and Resume only toggle the running flag.
func (t *Timer) Pause() {
	t.state.Running = false
}

func (t *Timer) Resume() {
	t.state.Running = true
}

func (t *Timer) State() TimerState {
	return t.state
}

func (t *Timer) Remaining() int {
	return t.state.Remaining
}

// Expired reports whether time-up has already fired.
func (t *Timer) Expired() bool {
	return t.expired
}
