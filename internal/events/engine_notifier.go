package events

import (
	"context"
	"log/slog"

	"github.com/SAP-F-2025/competency-assessment/internal/assessment"
)

// EngineNotifier forwards engine events to an EventPublisher. Plain ticks are
// not published; only the tick that enters the warning or critical stage is,
// as a time warning.
type EngineNotifier struct {
	publisher EventPublisher
	logger    *slog.Logger
}

func NewEngineNotifier(publisher EventPublisher, logger *slog.Logger) *EngineNotifier {
	return &EngineNotifier{publisher: publisher, logger: logger}
}

func (n *EngineNotifier) Notify(ctx context.Context, ev assessment.Event) {
	event := Translate(ev)
	if event == nil {
		return
	}
	if err := n.publisher.PublishNotificationEvent(context.WithoutCancel(ctx), event); err != nil {
		n.logger.Warn("Dropping engine event",
			"event_type", event.Type,
			"session_id", ev.SessionID,
			"error", err)
	}
}

// Translate maps an engine event to its notification, or nil when the event
// is not published.
func Translate(ev assessment.Event) *NotificationEvent {
	var event *NotificationEvent
	switch ev.Type {
	case assessment.EventSessionStarted:
		data := SessionStartedEvent{
			SessionID: ev.SessionID,
			UserID:    ev.UserID,
			Step:      ev.Step,
			StartedAt: ev.At,
		}
		if ev.Snapshot != nil {
			data.TotalQuestions = len(ev.Snapshot.Session.QuestionIDs)
			data.TimeLimit = ev.Snapshot.Session.TimeLimit
			data.StartedAt = ev.Snapshot.Session.StartedAt
		}
		event = NewEvent(EventSessionStarted, data)

	case assessment.EventTick:
		if !ev.StageChanged || ev.Snapshot == nil {
			return nil
		}
		timer := ev.Snapshot.Timer
		stage := timer.Stage()
		if stage == assessment.StageNormal {
			return nil
		}
		event = NewEvent(EventTimeWarning, TimeWarningEvent{
			SessionID:        ev.SessionID,
			UserID:           ev.UserID,
			Step:             ev.Step,
			Stage:            string(stage),
			SecondsRemaining: timer.Remaining,
		})

	case assessment.EventTimeUp:
		event = NewEvent(EventTimeUp, TimeUpEvent{
			SessionID: ev.SessionID,
			UserID:    ev.UserID,
			Step:      ev.Step,
			ExpiredAt: ev.At,
		})

	case assessment.EventSubmitted:
		if ev.Result == nil {
			return nil
		}
		event = NewSubmittedEvent(ev.Result)

	case assessment.EventAbandoned:
		event = NewEvent(EventAbandoned, AbandonedEvent{
			SessionID:   ev.SessionID,
			UserID:      ev.UserID,
			Step:        ev.Step,
			AbandonedAt: ev.At,
		})

	case assessment.EventAnswerSyncFailed:
		data := AnswerSyncFailedEvent{SessionID: ev.SessionID, UserID: ev.UserID}
		if ev.Err != nil {
			data.Error = ev.Err.Error()
		}
		event = NewEvent(EventAnswerSyncFailed, data)

	default:
		return nil
	}

	if !ev.At.IsZero() {
		event.Timestamp = ev.At
	}
	return event
}
