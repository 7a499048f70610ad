package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/SAP-F-2025/competency-assessment/internal/assessment"
	"github.com/SAP-F-2025/competency-assessment/internal/models"
	"github.com/SAP-F-2025/competency-assessment/internal/repositories"
	"github.com/SAP-F-2025/competency-assessment/internal/validator"
)

const (
	DefaultPreviewLimit = 10
	MaxPreviewLimit     = 44
)

type questionService struct {
	questions    repositories.QuestionRepository
	competencies repositories.CompetencyRepository
	logger       *ServiceLogger
	validator    *validator.Validator
}

func NewQuestionService(repo repositories.Repository, logger *slog.Logger, validator *validator.Validator) QuestionService {
	return &questionService{
		questions:    repo.Question(),
		competencies: repo.Competency(),
		logger:       NewServiceLogger(logger, "question"),
		validator:    validator,
	}
}

// ===== CANDIDATE PREVIEW =====

func (s *questionService) Preview(ctx context.Context, level models.Level, limit int) ([]QuestionView, error) {
	if !level.IsValid() {
		return nil, ValidationErrors{*NewValidationError("level", "must be a valid CEFR level", level)}
	}
	if limit <= 0 {
		limit = DefaultPreviewLimit
	}
	if limit > MaxPreviewLimit {
		limit = MaxPreviewLimit
	}

	drawn, err := s.questions.DrawQuestions(ctx, level, limit)
	if err == nil {
		views := make([]QuestionView, len(drawn))
		for i := range drawn {
			views[i] = NewQuestionView(&drawn[i])
		}
		return views, nil
	}
	if !errors.Is(err, assessment.ErrInsufficientQuestions) {
		return nil, fmt.Errorf("failed to draw preview questions: %w", err)
	}

	// Thin pools preview whatever they hold.
	rows, _, err := s.questions.List(ctx, repositories.QuestionFilters{Level: &level, Page: repositories.Page{Limit: limit}})
	if err != nil {
		return nil, fmt.Errorf("failed to list preview questions: %w", err)
	}
	views := make([]QuestionView, len(rows))
	for i, q := range rows {
		views[i] = NewQuestionView(q)
	}
	return views, nil
}

// ===== QUESTION CRUD =====

func (s *questionService) List(ctx context.Context, filters repositories.QuestionFilters) ([]*models.Question, int64, error) {
	questions, total, err := s.questions.List(ctx, filters)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list questions: %w", err)
	}
	return questions, total, nil
}

func (s *questionService) Get(ctx context.Context, id string) (*models.Question, error) {
	question, err := s.questions.GetByID(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrQuestionNotFound
		}
		return nil, fmt.Errorf("failed to get question: %w", err)
	}
	return question, nil
}

func (s *questionService) Create(ctx context.Context, actorID string, req *QuestionRequest) (*models.Question, error) {
	op := s.logger.WithOperation(ctx, "create_question", actorID)

	question, err := s.buildQuestion(ctx, req)
	if err != nil {
		op.LogResult("", "question", err)
		return nil, err
	}
	question.ID = uuid.NewString()

	if err := s.questions.Create(ctx, question); err != nil {
		err = fmt.Errorf("failed to create question: %w", err)
		op.LogResult("", "question", err)
		return nil, err
	}

	op.LogResult(question.ID, "question", nil)
	op.LogAudit(AuditCreate, question.ID, "question", nil, question)
	return question, nil
}

func (s *questionService) Update(ctx context.Context, actorID, id string, req *QuestionRequest) (*models.Question, error) {
	op := s.logger.WithOperation(ctx, "update_question", actorID)

	existing, err := s.Get(ctx, id)
	if err != nil {
		op.LogResult(id, "question", err)
		return nil, err
	}

	question, err := s.buildQuestion(ctx, req)
	if err != nil {
		op.LogResult(id, "question", err)
		return nil, err
	}
	question.ID = existing.ID
	question.CreatedAt = existing.CreatedAt

	if err := s.questions.Update(ctx, question); err != nil {
		if repositories.IsNotFoundError(err) {
			err = ErrQuestionNotFound
		} else {
			err = fmt.Errorf("failed to update question: %w", err)
		}
		op.LogResult(id, "question", err)
		return nil, err
	}

	op.LogResult(id, "question", nil)
	op.LogAudit(AuditUpdate, id, "question", existing, question)
	return question, nil
}

func (s *questionService) Delete(ctx context.Context, actorID, id string) error {
	op := s.logger.WithOperation(ctx, "delete_question", actorID)

	if err := s.questions.Delete(ctx, id); err != nil {
		if repositories.IsNotFoundError(err) {
			err = ErrQuestionNotFound
		} else {
			err = fmt.Errorf("failed to delete question: %w", err)
		}
		op.LogResult(id, "question", err)
		return err
	}

	op.LogResult(id, "question", nil)
	op.LogAudit(AuditDelete, id, "question", nil, nil)
	return nil
}

// BulkCreate stores every valid question and reports the rest by position.
func (s *questionService) BulkCreate(ctx context.Context, actorID string, req *BulkCreateQuestionsRequest) (*BulkCreateResult, error) {
	op := s.logger.WithOperation(ctx, "bulk_create_questions", actorID)

	if err := s.validator.Validate(req); err != nil {
		op.LogResult("", "question", err)
		return nil, err
	}

	result := &BulkCreateResult{Errors: []BulkError{}}
	valid := make([]*models.Question, 0, len(req.Questions))
	for i := range req.Questions {
		question, err := s.buildQuestion(ctx, &req.Questions[i])
		if err != nil {
			be := BulkError{Index: i, Message: err.Error()}
			var ve ValidationErrors
			if errors.As(err, &ve) {
				be.Errors = ve
			}
			result.Errors = append(result.Errors, be)
			continue
		}
		question.ID = uuid.NewString()
		valid = append(valid, question)
	}

	if err := s.questions.CreateBatch(ctx, valid); err != nil {
		err = fmt.Errorf("failed to create questions: %w", err)
		op.LogResult("", "question", err)
		return nil, err
	}
	result.Created = len(valid)

	op.LogResult("", "question", nil)
	s.logger.logger.Info("Bulk question import finished",
		"actor_id", actorID,
		"created", result.Created,
		"rejected", len(result.Errors))
	return result, nil
}

// buildQuestion validates req and resolves its competency.
func (s *questionService) buildQuestion(ctx context.Context, req *QuestionRequest) (*models.Question, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	question := &models.Question{
		Level:         req.Level,
		Competency:    strings.TrimSpace(req.Competency),
		Text:          strings.TrimSpace(req.Text),
		Options:       req.Options,
		CorrectAnswer: *req.CorrectAnswer,
		Explanation:   req.Explanation,
	}
	if errs := s.validator.Question().ValidateQuestion(question); len(errs) > 0 {
		return nil, errs
	}

	if req.CompetencyID != nil && *req.CompetencyID != "" {
		competency, err := s.competencies.GetByID(ctx, *req.CompetencyID)
		if err != nil {
			if repositories.IsNotFoundError(err) {
				return nil, ErrCompetencyNotFound
			}
			return nil, fmt.Errorf("failed to get competency: %w", err)
		}
		question.CompetencyID = &competency.ID
		if question.Competency == "" {
			question.Competency = competency.Name
		}
	}
	return question, nil
}

// ===== COMPETENCIES =====

func (s *questionService) ListCompetencies(ctx context.Context) ([]*models.Competency, error) {
	competencies, err := s.competencies.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list competencies: %w", err)
	}
	return competencies, nil
}

func (s *questionService) CreateCompetency(ctx context.Context, actorID string, req *CompetencyRequest) (*models.Competency, error) {
	op := s.logger.WithOperation(ctx, "create_competency", actorID)

	if err := s.validator.Validate(req); err != nil {
		op.LogResult("", "competency", err)
		return nil, err
	}
	code := strings.ToUpper(strings.TrimSpace(req.Code))
	if err := s.ensureCodeFree(ctx, code, ""); err != nil {
		op.LogResult("", "competency", err)
		return nil, err
	}

	competency := &models.Competency{
		ID:          uuid.NewString(),
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		Code:        code,
	}
	if err := s.competencies.Create(ctx, competency); err != nil {
		if repositories.IsDuplicateError(err) {
			err = ErrCompetencyDuplicateCode
		} else {
			err = fmt.Errorf("failed to create competency: %w", err)
		}
		op.LogResult("", "competency", err)
		return nil, err
	}

	op.LogResult(competency.ID, "competency", nil)
	op.LogAudit(AuditCreate, competency.ID, "competency", nil, competency)
	return competency, nil
}

func (s *questionService) UpdateCompetency(ctx context.Context, actorID, id string, req *CompetencyRequest) (*models.Competency, error) {
	op := s.logger.WithOperation(ctx, "update_competency", actorID)

	if err := s.validator.Validate(req); err != nil {
		op.LogResult(id, "competency", err)
		return nil, err
	}
	existing, err := s.competencies.GetByID(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			err = ErrCompetencyNotFound
		} else {
			err = fmt.Errorf("failed to get competency: %w", err)
		}
		op.LogResult(id, "competency", err)
		return nil, err
	}

	code := strings.ToUpper(strings.TrimSpace(req.Code))
	if err := s.ensureCodeFree(ctx, code, id); err != nil {
		op.LogResult(id, "competency", err)
		return nil, err
	}

	old := *existing
	existing.Name = strings.TrimSpace(req.Name)
	existing.Description = req.Description
	existing.Code = code
	if err := s.competencies.Update(ctx, existing); err != nil {
		if repositories.IsDuplicateError(err) {
			err = ErrCompetencyDuplicateCode
		} else {
			err = fmt.Errorf("failed to update competency: %w", err)
		}
		op.LogResult(id, "competency", err)
		return nil, err
	}

	op.LogResult(id, "competency", nil)
	op.LogAudit(AuditUpdate, id, "competency", old, existing)
	return existing, nil
}

func (s *questionService) DeleteCompetency(ctx context.Context, actorID, id string) error {
	op := s.logger.WithOperation(ctx, "delete_competency", actorID)

	inUse, err := s.competencies.HasQuestions(ctx, id)
	if err != nil {
		err = fmt.Errorf("failed to check competency usage: %w", err)
		op.LogResult(id, "competency", err)
		return err
	}
	if err := s.validator.Question().ValidateUsage(inUse, "delete"); err != nil {
		op.LogResult(id, "competency", ErrCompetencyInUse)
		return ErrCompetencyInUse
	}

	if err := s.competencies.Delete(ctx, id); err != nil {
		if repositories.IsNotFoundError(err) {
			err = ErrCompetencyNotFound
		} else {
			err = fmt.Errorf("failed to delete competency: %w", err)
		}
		op.LogResult(id, "competency", err)
		return err
	}

	op.LogResult(id, "competency", nil)
	op.LogAudit(AuditDelete, id, "competency", nil, nil)
	return nil
}

func (s *questionService) ensureCodeFree(ctx context.Context, code, selfID string) error {
	existing, err := s.competencies.GetByCode(ctx, code)
	switch {
	case err == nil:
		if existing.ID != selfID {
			return ErrCompetencyDuplicateCode
		}
		return nil
	case repositories.IsNotFoundError(err):
		return nil
	default:
		return fmt.Errorf("failed to check competency code: %w", err)
	}
}
