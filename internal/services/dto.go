package services

import (
	"time"

	"github.com/SAP-F-2025/competency-assessment/internal/assessment"
	"github.com/SAP-F-2025/competency-assessment/internal/models"
)

// ===== ASSESSMENT REQUESTS =====

type StartAssessmentRequest struct {
	Step models.Step `json:"step" validate:"required,assessment_step"`
}

type AnswerRequest struct {
	SessionID     string `json:"session_id" validate:"required"`
	QuestionIndex *int   `json:"question_index" validate:"required,min=0"`
	Answer        *int   `json:"answer" validate:"required,min=0"`
}

type NavigateRequest struct {
	SessionID string `json:"session_id" validate:"required"`
	Direction string `json:"direction" validate:"required,nav_direction"`
}

type SessionActionRequest struct {
	SessionID string `json:"session_id" validate:"required"`
}

type GenerateCertificateRequest struct {
	Level models.Level `json:"level" validate:"required,cefr_level"`
}

// ===== ASSESSMENT RESPONSES =====

// QuestionView is a question as shown to a candidate, without its answer.
type QuestionView struct {
	ID           string       `json:"id"`
	Level        models.Level `json:"level"`
	CompetencyID *string      `json:"competency_id,omitempty"`
	Competency   string       `json:"competency"`
	Text         string       `json:"text"`
	Options      []string     `json:"options"`
}

func NewQuestionView(q *models.Question) QuestionView {
	return QuestionView{
		ID:           q.ID,
		Level:        q.Level,
		CompetencyID: q.CompetencyID,
		Competency:   q.Competency,
		Text:         q.Text,
		Options:      append([]string(nil), q.Options...),
	}
}

type SessionView struct {
	ID                   string                `json:"id"`
	UserID               string                `json:"user_id"`
	Step                 models.Step           `json:"step"`
	StepTitle            string                `json:"step_title"`
	Questions            []QuestionView        `json:"questions"`
	CurrentQuestionIndex int                   `json:"current_question_index"`
	Answers              []*int                `json:"answers"`
	AnsweredCount        int                   `json:"answered_count"`
	StartTime            time.Time             `json:"start_time"`
	TimeLimit            int                   `json:"time_limit"`
	Deadline             time.Time             `json:"deadline"`
	Status               models.SessionStatus  `json:"status"`
	EndReason            *models.EndReason     `json:"end_reason,omitempty"`
	Timer                assessment.TimerState `json:"timer"`
}

func NewSessionView(snap *assessment.Snapshot) *SessionView {
	s := snap.Session
	view := &SessionView{
		ID:                   s.ID,
		UserID:               s.UserID,
		Step:                 s.Step,
		StepTitle:            s.Step.Title(),
		Questions:            make([]QuestionView, len(s.Questions)),
		CurrentQuestionIndex: s.CurrentQuestionIndex,
		Answers:              append([]*int(nil), s.Answers...),
		AnsweredCount:        s.AnsweredCount(),
		StartTime:            s.StartedAt,
		TimeLimit:            s.TimeLimit,
		Deadline:             s.Deadline(),
		Status:               s.Status,
		EndReason:            s.EndReason,
		Timer:                snap.Timer,
	}
	for i := range s.Questions {
		view.Questions[i] = NewQuestionView(&s.Questions[i])
	}
	return view
}

type AnswerResponse struct {
	Session *SessionView `json:"session"`
	Synced  bool         `json:"synced"`
}

// ===== QUESTION BANK REQUESTS =====

type QuestionRequest struct {
	Level         models.Level `json:"level" validate:"required,cefr_level"`
	CompetencyID  *string      `json:"competency_id" validate:"omitempty"`
	Competency    string       `json:"competency" validate:"max=200"`
	Text          string       `json:"text" validate:"required,max=2000"`
	Options       []string     `json:"options" validate:"required,min=2,max=6,dive,required"`
	CorrectAnswer *int         `json:"correct_answer" validate:"required,min=0"`
	Explanation   *string      `json:"explanation"`
}

type BulkCreateQuestionsRequest struct {
	Questions []QuestionRequest `json:"questions" validate:"required,min=1,max=500"`
}

type BulkError struct {
	Index   int              `json:"index"`
	Message string           `json:"message"`
	Errors  ValidationErrors `json:"errors,omitempty"`
}

type BulkCreateResult struct {
	Created int         `json:"created"`
	Errors  []BulkError `json:"errors"`
}

type CompetencyRequest struct {
	Name        string `json:"name" validate:"required,min=1,max=200"`
	Description string `json:"description" validate:"max=2000"`
	Code        string `json:"code" validate:"required,min=1,max=20"`
}

// ===== USER REQUESTS =====

type UpdateUserRequest struct {
	FirstName *string          `json:"first_name" validate:"omitempty,max=100"`
	LastName  *string          `json:"last_name" validate:"omitempty,max=100"`
	Role      *models.UserRole `json:"role" validate:"omitempty,user_role"`
}

type BlockUserRequest struct {
	Blocked bool `json:"blocked"`
}

// Identity is the caller as described by a verified bearer token.
type Identity struct {
	ID        string
	Email     string
	FirstName string
	LastName  string
	Role      models.UserRole
}
