package repositories

import (
	"context"

	"github.com/SAP-F-2025/competency-assessment/internal/assessment"
	"github.com/SAP-F-2025/competency-assessment/internal/models"
)

// SessionRepository persists assessment sessions on behalf of the engine.
type SessionRepository interface {
	assessment.SessionStore

	ListByUser(ctx context.Context, userID string, page Page) ([]*models.AssessmentSession, int64, error)
	CountActive(ctx context.Context) (int64, error)
}

// ResultRepository is the read side of completed sessions. Results are
// written by SessionRepository.CompleteSession.
type ResultRepository interface {
	GetByID(ctx context.Context, id string) (*models.AssessmentResult, error)
	GetBySession(ctx context.Context, sessionID string) (*models.AssessmentResult, error)
	List(ctx context.Context, filters ResultFilters) ([]*models.AssessmentResult, int64, error)
	// BestForLevel returns the user's highest-scoring result that certified at
	// least level.
	BestForLevel(ctx context.Context, userID string, level models.Level) (*models.AssessmentResult, error)
}

type CertificateRepository interface {
	// Create stores cert unless the user already holds one for the level, in
	// which case the existing certificate is returned with created false.
	Create(ctx context.Context, cert *models.Certificate) (existing *models.Certificate, created bool, err error)
	GetByUserAndLevel(ctx context.Context, userID string, level models.Level) (*models.Certificate, error)
	ListByUser(ctx context.Context, userID string) ([]*models.Certificate, error)
}

type StatsRepository interface {
	UserStats(ctx context.Context, userID string) (*UserAssessmentStats, error)
	Dashboard(ctx context.Context) (*DashboardStats, error)
}
