package events

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SAP-F-2025/competency-assessment/internal/assessment"
	"github.com/SAP-F-2025/competency-assessment/internal/models"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestTranslate(t *testing.T) {
	at := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	session := &models.AssessmentSession{
		ID:          "s1",
		UserID:      "u1",
		Step:        models.Step2,
		QuestionIDs: []string{"a", "b", "c"},
		TimeLimit:   180,
		StartedAt:   at,
	}

	t.Run("session started carries size and limit", func(t *testing.T) {
		ev := Translate(assessment.Event{
			Type: assessment.EventSessionStarted, SessionID: "s1", UserID: "u1", Step: models.Step2, At: at,
			Snapshot: &assessment.Snapshot{Session: session},
		})
		require.NotNil(t, ev)
		assert.Equal(t, EventSessionStarted, ev.Type)
		data := ev.Data.(SessionStartedEvent)
		assert.Equal(t, 3, data.TotalQuestions)
		assert.Equal(t, 180, data.TimeLimit)
		assert.Equal(t, at, ev.Timestamp)
		assert.Equal(t, eventSource, ev.Source)
		assert.NotEmpty(t, ev.ID)
	})

	t.Run("plain ticks are skipped", func(t *testing.T) {
		assert.Nil(t, Translate(assessment.Event{
			Type:     assessment.EventTick,
			Snapshot: &assessment.Snapshot{Session: session, Timer: assessment.TimerState{Remaining: 100, Total: 180}},
		}))
		assert.Nil(t, Translate(assessment.Event{
			Type: assessment.EventTick, StageChanged: true,
			Snapshot: &assessment.Snapshot{Session: session, Timer: assessment.TimerState{Remaining: 100, Total: 180}},
		}), "a stage change back to normal is not a warning")
	})

	t.Run("stage change becomes time warning", func(t *testing.T) {
		ev := Translate(assessment.Event{
			Type: assessment.EventTick, SessionID: "s1", StageChanged: true,
			Snapshot: &assessment.Snapshot{Session: session, Timer: assessment.TimerState{Remaining: 18, Total: 180, Critical: true}},
		})
		require.NotNil(t, ev)
		assert.Equal(t, EventTimeWarning, ev.Type)
		data := ev.Data.(TimeWarningEvent)
		assert.Equal(t, "critical", data.Stage)
		assert.Equal(t, 18, data.SecondsRemaining)
	})

	t.Run("submitted needs a result", func(t *testing.T) {
		assert.Nil(t, Translate(assessment.Event{Type: assessment.EventSubmitted}))

		lvl := models.LevelB1
		ev := Translate(assessment.Event{Type: assessment.EventSubmitted, Result: &models.AssessmentResult{
			ID: "r1", SessionID: "s1", UserID: "u1", Step: models.Step2, Score: 30, TotalQuestions: 44,
			Percentage: 68.18, LevelAchieved: &lvl, Certification: "B1 Certified", EndReason: models.EndReasonTimeout,
		}})
		require.NotNil(t, ev)
		data := ev.Data.(SubmittedEvent)
		assert.Equal(t, "r1", data.ResultID)
		assert.Equal(t, &lvl, data.LevelAchieved)
		assert.Equal(t, models.EndReasonTimeout, data.EndReason)
	})

	t.Run("sync failure keeps the error text", func(t *testing.T) {
		ev := Translate(assessment.Event{Type: assessment.EventAnswerSyncFailed, SessionID: "s1", Err: errors.New("db down")})
		require.NotNil(t, ev)
		assert.Equal(t, "db down", ev.Data.(AnswerSyncFailedEvent).Error)
	})
}

func TestEngineNotifierPublishes(t *testing.T) {
	mock := NewMockEventPublisher(testLogger())
	n := NewEngineNotifier(mock, testLogger())

	n.Notify(context.Background(), assessment.Event{Type: assessment.EventTimeUp, SessionID: "s1", UserID: "u1"})
	n.Notify(context.Background(), assessment.Event{Type: assessment.EventTick, SessionID: "s1"})

	published := mock.GetPublishedEvents()
	require.Len(t, published, 1)
	assert.Equal(t, EventTimeUp, published[0].Type)
	assert.Len(t, mock.EventsOfType(EventTimeUp), 1)

	mock.ClearEvents()
	assert.Empty(t, mock.GetPublishedEvents())
}

func TestWatermillPublisherRoundTrip(t *testing.T) {
	pubSub := gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 4}, watermill.NopLogger{})
	defer pubSub.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	messages, err := pubSub.Subscribe(ctx, "assessment-events")
	require.NoError(t, err)

	publisher := NewWatermillEventPublisher(pubSub, "assessment-events", testLogger())
	sent := NewCertificateIssuedEvent(&models.Certificate{ID: "c1", UserID: "u1", Level: models.LevelA2, ResultID: "r1"})
	require.NoError(t, publisher.PublishNotificationEvent(ctx, sent))

	select {
	case msg := <-messages:
		msg.Ack()
		assert.Equal(t, sent.ID, msg.UUID)
		assert.Equal(t, string(EventCertificateIssued), msg.Metadata.Get("event_type"))

		got, err := DecodeMessage(msg)
		require.NoError(t, err)
		assert.Equal(t, EventCertificateIssued, got.Type)
		data := got.Data.(map[string]interface{})
		assert.Equal(t, "A2", data["level"])
	case <-ctx.Done():
		t.Fatal("message not delivered")
	}
}
