package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/SAP-F-2025/competency-assessment/internal/assessment"
	"github.com/SAP-F-2025/competency-assessment/internal/models"
	"github.com/SAP-F-2025/competency-assessment/internal/repositories"
	"github.com/SAP-F-2025/competency-assessment/internal/validator"
)

type assessmentService struct {
	engine    *assessment.Engine
	users     repositories.UserRepository
	logger    *slog.Logger
	validator *validator.Validator
}

func NewAssessmentService(engine *assessment.Engine, users repositories.UserRepository, logger *slog.Logger, validator *validator.Validator) AssessmentService {
	return &assessmentService{
		engine:    engine,
		users:     users,
		logger:    logger,
		validator: validator,
	}
}

// ===== ELIGIBILITY =====

func (s *assessmentService) CanTake(ctx context.Context, userID string, step models.Step) (*assessment.Eligibility, error) {
	user, err := s.loadCandidate(ctx, userID)
	if err != nil {
		return nil, err
	}
	elig, err := s.engine.CanTake(ctx, user, step)
	if err != nil {
		return nil, err
	}
	return &elig, nil
}

// ===== SESSION LIFECYCLE =====

func (s *assessmentService) Start(ctx context.Context, userID string, req *StartAssessmentRequest) (*SessionView, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	user, err := s.loadCandidate(ctx, userID)
	if err != nil {
		return nil, err
	}

	snap, err := s.engine.Start(ctx, user, req.Step)
	if err != nil {
		s.logger.Warn("Could not start assessment", "user_id", userID, "step", req.Step, "error", err)
		return nil, err
	}
	return NewSessionView(snap), nil
}

func (s *assessmentService) Current(ctx context.Context, userID string) (*SessionView, error) {
	snap, err := s.engine.Current(ctx, userID)
	if err != nil {
		return nil, err
	}
	return NewSessionView(snap), nil
}

func (s *assessmentService) Answer(ctx context.Context, userID string, req *AnswerRequest) (*AnswerResponse, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, userID, req.SessionID, "answer"); err != nil {
		return nil, err
	}

	outcome, err := s.engine.Answer(ctx, req.SessionID, *req.QuestionIndex, *req.Answer)
	if err != nil {
		return nil, err
	}
	return &AnswerResponse{Session: NewSessionView(outcome.Snapshot), Synced: outcome.Synced}, nil
}

func (s *assessmentService) Navigate(ctx context.Context, userID string, req *NavigateRequest) (*SessionView, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, userID, req.SessionID, "navigate"); err != nil {
		return nil, err
	}

	snap, err := s.engine.Advance(ctx, req.SessionID, assessment.Direction(req.Direction))
	if err != nil {
		return nil, err
	}
	return NewSessionView(snap), nil
}

func (s *assessmentService) Submit(ctx context.Context, userID, sessionID string) (*models.AssessmentResult, error) {
	if err := s.authorize(ctx, userID, sessionID, "submit"); err != nil {
		return nil, err
	}
	return s.engine.Submit(ctx, sessionID)
}

func (s *assessmentService) Abandon(ctx context.Context, userID, sessionID string) error {
	if err := s.authorize(ctx, userID, sessionID, "abandon"); err != nil {
		return err
	}
	return s.engine.Abandon(ctx, sessionID)
}

func (s *assessmentService) Subscribe(ctx context.Context, userID, sessionID string) (*SessionView, <-chan assessment.Event, func(), error) {
	if err := s.authorize(ctx, userID, sessionID, "subscribe"); err != nil {
		return nil, nil, nil, err
	}

	// Subscribe before reading state so no event between the two is lost.
	events, cancel := s.engine.Subscribe(sessionID)
	snap, err := s.engine.Snapshot(ctx, sessionID)
	if err != nil {
		cancel()
		return nil, nil, nil, err
	}
	if !snap.Session.IsActive() {
		cancel()
	}
	return NewSessionView(snap), events, cancel, nil
}

// ===== HELPERS =====

func (s *assessmentService) loadCandidate(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user.IsBlocked {
		return nil, ErrUserBlocked
	}
	return user, nil
}

// authorize checks that sessionID belongs to userID.
func (s *assessmentService) authorize(ctx context.Context, userID, sessionID, action string) error {
	snap, err := s.engine.Snapshot(ctx, sessionID)
	if err != nil {
		return err
	}
	if snap.Session.UserID != userID {
		s.logger.Warn("Session access denied",
			"user_id", userID,
			"session_id", sessionID,
			"action", action)
		return NewPermissionError(userID, sessionID, "session", action, "session belongs to another user")
	}
	return nil
}
