package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/SAP-F-2025/competency-assessment/internal/models"
)

const (
	eventSource  = "competency-assessment"
	eventVersion = "1.0"
)

// EventType represents different types of notification events
type EventType string

const (
	EventSessionStarted   EventType = "assessment.session_started"
	EventTimeWarning      EventType = "assessment.time_warning"
	EventTimeUp           EventType = "assessment.time_up"
	EventSubmitted        EventType = "assessment.submitted"
	EventAbandoned        EventType = "assessment.abandoned"
	EventAnswerSyncFailed EventType = "assessment.answer_sync_failed"

	EventCertificateIssued EventType = "assessment.certificate_issued"
)

// NotificationEvent is the base event structure for all notification events
type NotificationEvent struct {
	ID        string                 `json:"id"`
	Type      EventType              `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Source    string                 `json:"source"`
	Version   string                 `json:"version"`
	Data      interface{}            `json:"data"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// ===== SESSION PAYLOADS =====

type SessionStartedEvent struct {
	SessionID      string      `json:"session_id"`
	UserID         string      `json:"user_id"`
	Step           models.Step `json:"step"`
	TotalQuestions int         `json:"total_questions"`
	TimeLimit      int         `json:"time_limit"` // seconds
	StartedAt      time.Time   `json:"started_at"`
}

type TimeWarningEvent struct {
	SessionID        string      `json:"session_id"`
	UserID           string      `json:"user_id"`
	Step             models.Step `json:"step"`
	Stage            string      `json:"stage"` // warning, critical
	SecondsRemaining int         `json:"seconds_remaining"`
}

type TimeUpEvent struct {
	SessionID string      `json:"session_id"`
	UserID    string      `json:"user_id"`
	Step      models.Step `json:"step"`
	ExpiredAt time.Time   `json:"expired_at"`
}

type SubmittedEvent struct {
	SessionID     string           `json:"session_id"`
	ResultID      string           `json:"result_id"`
	UserID        string           `json:"user_id"`
	Step          models.Step      `json:"step"`
	Score         int              `json:"score"`
	Total         int              `json:"total_questions"`
	Percentage    float64          `json:"percentage"`
	LevelAchieved *models.Level    `json:"level_achieved,omitempty"`
	Certification string           `json:"certification"`
	CanProceed    bool             `json:"can_proceed"`
	EndReason     models.EndReason `json:"end_reason"`
	CompletedAt   time.Time        `json:"completed_at"`
}

type AbandonedEvent struct {
	SessionID   string      `json:"session_id"`
	UserID      string      `json:"user_id"`
	Step        models.Step `json:"step"`
	AbandonedAt time.Time   `json:"abandoned_at"`
}

type AnswerSyncFailedEvent struct {
	SessionID string `json:"session_id"`
	UserID    string `json:"user_id"`
	Error     string `json:"error"`
}

type CertificateIssuedEvent struct {
	CertificateID string       `json:"certificate_id"`
	UserID        string       `json:"user_id"`
	Level         models.Level `json:"level"`
	ResultID      string       `json:"result_id"`
	IssuedAt      time.Time    `json:"issued_at"`
}

// Event factory functions

func NewEvent(eventType EventType, data interface{}) *NotificationEvent {
	return &NotificationEvent{
		ID:        GenerateEventID(),
		Type:      eventType,
		Timestamp: time.Now(),
		Source:    eventSource,
		Version:   eventVersion,
		Data:      data,
	}
}

func NewSubmittedEvent(result *models.AssessmentResult) *NotificationEvent {
	return NewEvent(EventSubmitted, SubmittedEvent{
		SessionID:     result.SessionID,
		ResultID:      result.ID,
		UserID:        result.UserID,
		Step:          result.Step,
		Score:         result.Score,
		Total:         result.TotalQuestions,
		Percentage:    result.Percentage,
		LevelAchieved: result.LevelAchieved,
		Certification: result.Certification,
		CanProceed:    result.CanProceed,
		EndReason:     result.EndReason,
		CompletedAt:   result.CompletedAt,
	})
}

func NewCertificateIssuedEvent(cert *models.Certificate) *NotificationEvent {
	return NewEvent(EventCertificateIssued, CertificateIssuedEvent{
		CertificateID: cert.ID,
		UserID:        cert.UserID,
		Level:         cert.Level,
		ResultID:      cert.ResultID,
		IssuedAt:      cert.IssuedAt,
	})
}

func GenerateEventID() string {
	return uuid.NewString()
}
