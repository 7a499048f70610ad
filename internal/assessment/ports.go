package assessment

import (
	"context"

	"github.com/SAP-F-2025/competency-assessment/internal/models"
)

// QuestionSource supplies questions to new and re-attached sessions.
type QuestionSource interface {
	// DrawQuestions returns up to n random questions of the given level.
	DrawQuestions(ctx context.Context, level models.Level, n int) ([]models.Question, error)
	// QuestionsByIDs returns the questions in the order of ids.
	QuestionsByIDs(ctx context.Context, ids []string) ([]models.Question, error)
}

// SessionStore persists sessions and their outcomes. Lookups return
// ErrSessionNotFound when nothing matches.
type SessionStore interface {
	CreateSession(ctx context.Context, s *models.AssessmentSession) error
	GetSession(ctx context.Context, id string) (*models.AssessmentSession, error)
	GetActiveSession(ctx context.Context, userID string) (*models.AssessmentSession, error)
	// SyncProgress stores the answers and question pointer of an active session.
	SyncProgress(ctx context.Context, s *models.AssessmentSession) error
	// CompleteSession stores the ended session and its result and applies
	// progress to the owning user, all or nothing.
	CompleteSession(ctx context.Context, s *models.AssessmentSession, r *models.AssessmentResult, progress func(*models.User)) error
	// EndSession stores a session that ended without a result.
	EndSession(ctx context.Context, s *models.AssessmentSession) error
}
