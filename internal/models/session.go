package models

import (
	"time"

	"gorm.io/datatypes"
)

type SessionStatus string

const (
	SessionActive    SessionStatus = "active"
	SessionSubmitted SessionStatus = "submitted"
	SessionTimedOut  SessionStatus = "timed_out"
	SessionAbandoned SessionStatus = "abandoned"
)

// IsTerminal reports whether the status can no longer change.
func (s SessionStatus) IsTerminal() bool {
	return s != SessionActive
}

type EndReason string

const (
	EndReasonManual    EndReason = "manual"
	EndReasonTimeout   EndReason = "timeout"
	EndReasonAbandoned EndReason = "abandoned"
)

// AssessmentSession is one in-progress attempt at a step.
type AssessmentSession struct {
	ID     string `json:"id" gorm:"primaryKey;size:36"`
	UserID string `json:"user_id" gorm:"not null;size:255;index"`
	Step   Step   `json:"step" gorm:"not null"`

	// Questions is the copy issued at start, stored with the row so later
	// edits to the pool never reach a running session. Rows written before
	// the column existed hold [] and are rebuilt from QuestionIDs.
	QuestionIDs datatypes.JSONSlice[string]   `json:"-" gorm:"type:jsonb;not null"`
	Questions   datatypes.JSONSlice[Question] `json:"questions" gorm:"type:jsonb;not null;default:'[]'"`

	CurrentQuestionIndex int                       `json:"current_question_index"`
	Answers              datatypes.JSONSlice[*int] `json:"answers" gorm:"type:jsonb;not null"`

	StartedAt time.Time     `json:"start_time" gorm:"not null"`
	TimeLimit int           `json:"time_limit"` // seconds
	Status    SessionStatus `json:"status" gorm:"default:active;size:20;index"`
	EndReason *EndReason    `json:"end_reason,omitempty" gorm:"size:20"`
	EndedAt   *time.Time    `json:"ended_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (AssessmentSession) TableName() string {
	return "assessment_sessions"
}

func (s *AssessmentSession) IsActive() bool {
	return s.Status == SessionActive
}

// Deadline is the instant the time limit runs out.
func (s *AssessmentSession) Deadline() time.Time {
	return s.StartedAt.Add(time.Duration(s.TimeLimit) * time.Second)
}

// RemainingAt returns whole seconds left at now, never negative.
func (s *AssessmentSession) RemainingAt(now time.Time) int {
	left := int(s.Deadline().Sub(now) / time.Second)
	if left < 0 {
		return 0
	}
	return left
}

// AnsweredCount returns the number of answer slots that are set.
func (s *AssessmentSession) AnsweredCount() int {
	n := 0
	for _, a := range s.Answers {
		if a != nil {
			n++
		}
	}
	return n
}

// Clone returns a deep copy so callers can read a session without holding
// the engine's lock.
func (s *AssessmentSession) Clone() *AssessmentSession {
	c := *s
	c.QuestionIDs = append(datatypes.JSONSlice[string](nil), s.QuestionIDs...)
	c.Questions = append(datatypes.JSONSlice[Question](nil), s.Questions...)
	c.Answers = make(datatypes.JSONSlice[*int], len(s.Answers))
	for i, a := range s.Answers {
		if a != nil {
			v := *a
			c.Answers[i] = &v
		}
	}
	if s.EndReason != nil {
		r := *s.EndReason
		c.EndReason = &r
	}
	if s.EndedAt != nil {
		t := *s.EndedAt
		c.EndedAt = &t
	}
	return &c
}
