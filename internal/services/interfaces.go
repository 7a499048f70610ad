package services

import (
	"context"

	"github.com/SAP-F-2025/competency-assessment/internal/assessment"
	"github.com/SAP-F-2025/competency-assessment/internal/models"
	"github.com/SAP-F-2025/competency-assessment/internal/repositories"
)

// AssessmentService runs the candidate side of an assessment. Every call is
// scoped to the calling user; touching another user's session is a
// PermissionError.
type AssessmentService interface {
	CanTake(ctx context.Context, userID string, step models.Step) (*assessment.Eligibility, error)
	Start(ctx context.Context, userID string, req *StartAssessmentRequest) (*SessionView, error)
	Current(ctx context.Context, userID string) (*SessionView, error)
	Answer(ctx context.Context, userID string, req *AnswerRequest) (*AnswerResponse, error)
	Navigate(ctx context.Context, userID string, req *NavigateRequest) (*SessionView, error)
	Submit(ctx context.Context, userID, sessionID string) (*models.AssessmentResult, error)
	Abandon(ctx context.Context, userID, sessionID string) error
	// Subscribe streams the session's events; the view is its state at
	// subscription time.
	Subscribe(ctx context.Context, userID, sessionID string) (*SessionView, <-chan assessment.Event, func(), error)
}

type ResultService interface {
	ListResults(ctx context.Context, userID string, page repositories.Page) ([]*models.AssessmentResult, int64, error)
	GetResult(ctx context.Context, userID, resultID string) (*models.AssessmentResult, error)
	Stats(ctx context.Context, userID string) (*repositories.UserAssessmentStats, error)
	Certificates(ctx context.Context, userID string) ([]*models.Certificate, error)
	// GenerateCertificate issues the certificate for level once; later calls
	// return the same certificate with created false.
	GenerateCertificate(ctx context.Context, userID string, level models.Level) (cert *models.Certificate, created bool, err error)
}

type QuestionService interface {
	// Preview draws random questions of a level without their answers.
	Preview(ctx context.Context, level models.Level, limit int) ([]QuestionView, error)

	List(ctx context.Context, filters repositories.QuestionFilters) ([]*models.Question, int64, error)
	Get(ctx context.Context, id string) (*models.Question, error)
	Create(ctx context.Context, actorID string, req *QuestionRequest) (*models.Question, error)
	Update(ctx context.Context, actorID, id string, req *QuestionRequest) (*models.Question, error)
	Delete(ctx context.Context, actorID, id string) error
	BulkCreate(ctx context.Context, actorID string, req *BulkCreateQuestionsRequest) (*BulkCreateResult, error)

	ListCompetencies(ctx context.Context) ([]*models.Competency, error)
	CreateCompetency(ctx context.Context, actorID string, req *CompetencyRequest) (*models.Competency, error)
	UpdateCompetency(ctx context.Context, actorID, id string, req *CompetencyRequest) (*models.Competency, error)
	DeleteCompetency(ctx context.Context, actorID, id string) error
}

type AdminService interface {
	Dashboard(ctx context.Context) (*repositories.DashboardStats, error)

	ListUsers(ctx context.Context, filters repositories.UserFilters) ([]*models.User, int64, error)
	GetUser(ctx context.Context, id string) (*models.User, error)
	UpdateUser(ctx context.Context, actorID, id string, req *UpdateUserRequest) (*models.User, error)
	DeleteUser(ctx context.Context, actorID, id string) error
	SetBlocked(ctx context.Context, actorID, id string, blocked bool) (*models.User, error)

	ListResults(ctx context.Context, filters repositories.ResultFilters) ([]*models.AssessmentResult, int64, error)
	GetResult(ctx context.Context, id string) (*models.AssessmentResult, error)
}

// UserService keeps local profiles in step with the identity provider.
type UserService interface {
	EnsureUser(ctx context.Context, identity Identity) (*models.User, error)
	Get(ctx context.Context, id string) (*models.User, error)
}
