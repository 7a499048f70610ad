package repositories

import (
	"context"

	"github.com/SAP-F-2025/competency-assessment/internal/models"
)

// QuestionRepository manages the question pool. It also supplies questions
// to the assessment engine.
type QuestionRepository interface {
	Create(ctx context.Context, question *models.Question) error
	CreateBatch(ctx context.Context, questions []*models.Question) error
	GetByID(ctx context.Context, id string) (*models.Question, error)
	Update(ctx context.Context, question *models.Question) error
	Delete(ctx context.Context, id string) error

	List(ctx context.Context, filters QuestionFilters) ([]*models.Question, int64, error)
	CountByLevel(ctx context.Context) (map[models.Level]int64, error)

	// Engine supply
	DrawQuestions(ctx context.Context, level models.Level, n int) ([]models.Question, error)
	QuestionsByIDs(ctx context.Context, ids []string) ([]models.Question, error)
}

type CompetencyRepository interface {
	Create(ctx context.Context, competency *models.Competency) error
	GetByID(ctx context.Context, id string) (*models.Competency, error)
	GetByCode(ctx context.Context, code string) (*models.Competency, error)
	Update(ctx context.Context, competency *models.Competency) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]*models.Competency, error)
	HasQuestions(ctx context.Context, id string) (bool, error)
}
