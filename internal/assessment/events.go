package assessment

import (
	"context"
	"time"

	"github.com/SAP-F-2025/competency-assessment/internal/models"
)

type EventType string

const (
	EventSessionStarted   EventType = "session_started"
	EventTick             EventType = "tick"
	EventTimeUp           EventType = "time_up"
	EventSubmitted        EventType = "submitted"
	EventAbandoned        EventType = "abandoned"
	EventAnswerSyncFailed EventType = "answer_sync_failed"
)

// Terminal reports whether no further events follow for the session.
func (t EventType) Terminal() bool {
	return t == EventSubmitted || t == EventAbandoned
}

// Stage is the timer band a session is in.
type Stage string

const (
	StageNormal   Stage = "normal"
	StageWarning  Stage = "warning"
	StageCritical Stage = "critical"
)

// Stage returns the band the countdown is in.
func (s TimerState) Stage() Stage {
	switch {
	case s.Critical:
		return StageCritical
	case s.Warning:
		return StageWarning
	default:
		return StageNormal
	}
}

// Event is emitted by the engine whenever a live session changes.
type Event struct {
	Type      EventType
	SessionID string
	UserID    string
	Step      models.Step
	At        time.Time

	Snapshot *Snapshot
	Result   *models.AssessmentResult
	// StageChanged is set on the tick that moves the timer into a new stage.
	StageChanged bool
	Err          error
}

// Notifier receives engine events. Implementations must not block for long;
// Notify runs on the goroutine that triggered the event.
type Notifier interface {
	Notify(ctx context.Context, ev Event)
}

type NotifierFunc func(ctx context.Context, ev Event)

func (f NotifierFunc) Notify(ctx context.Context, ev Event) { f(ctx, ev) }

// Notifiers fans an event out to each notifier in order.
type Notifiers []Notifier

func (ns Notifiers) Notify(ctx context.Context, ev Event) {
	for _, n := range ns {
		n.Notify(ctx, ev)
	}
}
