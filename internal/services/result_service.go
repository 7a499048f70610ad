package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/SAP-F-2025/competency-assessment/internal/cache"
	"github.com/SAP-F-2025/competency-assessment/internal/events"
	"github.com/SAP-F-2025/competency-assessment/internal/models"
	"github.com/SAP-F-2025/competency-assessment/internal/repositories"
)

type resultService struct {
	repo      repositories.Repository
	cache     cache.CacheService
	publisher events.EventPublisher
	logger    *ServiceLogger
	now       func() time.Time
}

func NewResultService(repo repositories.Repository, cacheService cache.CacheService, publisher events.EventPublisher, logger *slog.Logger) ResultService {
	return &resultService{
		repo:      repo,
		cache:     cacheService,
		publisher: publisher,
		logger:    NewServiceLogger(logger, "result"),
		now:       time.Now,
	}
}

func (s *resultService) ListResults(ctx context.Context, userID string, page repositories.Page) ([]*models.AssessmentResult, int64, error) {
	results, total, err := s.repo.Result().List(ctx, repositories.ResultFilters{UserID: &userID, Page: page})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list results: %w", err)
	}
	return results, total, nil
}

func (s *resultService) GetResult(ctx context.Context, userID, resultID string) (*models.AssessmentResult, error) {
	result, err := s.repo.Result().GetByID(ctx, resultID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrResultNotFound
		}
		return nil, fmt.Errorf("failed to get result: %w", err)
	}
	if result.UserID != userID {
		return nil, NewPermissionError(userID, resultID, "result", "read", "result belongs to another user")
	}
	return result, nil
}

func (s *resultService) Stats(ctx context.Context, userID string) (*repositories.UserAssessmentStats, error) {
	key := cache.UserStatsKey(userID)

	var cached repositories.UserAssessmentStats
	if err := s.cache.Get(ctx, key, &cached); err == nil {
		return &cached, nil
	} else if !errors.Is(err, cache.ErrCacheMiss) {
		s.logger.logger.Warn("Stats cache read failed", "user_id", userID, "error", err)
	}

	stats, err := s.repo.Stats().UserStats(ctx, userID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user stats: %w", err)
	}
	if err := s.cache.Set(ctx, key, stats, cache.UserStatsTTL); err != nil {
		s.logger.logger.Warn("Stats cache write failed", "user_id", userID, "error", err)
	}
	return stats, nil
}

func (s *resultService) Certificates(ctx context.Context, userID string) ([]*models.Certificate, error) {
	certs, err := s.repo.Certificate().ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list certificates: %w", err)
	}
	return certs, nil
}

func (s *resultService) GenerateCertificate(ctx context.Context, userID string, level models.Level) (*models.Certificate, bool, error) {
	op := s.logger.WithOperation(ctx, "generate_certificate", userID)

	if !level.IsValid() {
		err := ValidationErrors{*NewValidationError("level", "must be a valid CEFR level", level)}
		op.LogResult("", "certificate", err)
		return nil, false, err
	}

	best, err := s.repo.Result().BestForLevel(ctx, userID, level)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			err = ErrCertificateNotEarned
		} else {
			err = fmt.Errorf("failed to find certified result: %w", err)
		}
		op.LogResult("", "certificate", err)
		return nil, false, err
	}

	cert, created, err := s.repo.Certificate().Create(ctx, &models.Certificate{
		ID:       uuid.NewString(),
		UserID:   userID,
		Level:    level,
		ResultID: best.ID,
		IssuedAt: s.now().UTC(),
	})
	if err != nil {
		err = fmt.Errorf("failed to create certificate: %w", err)
		op.LogResult("", "certificate", err)
		return nil, false, err
	}
	op.LogResult(cert.ID, "certificate", nil)

	if created {
		op.LogAudit(AuditIssue, cert.ID, "certificate", nil, cert)
		if err := s.publisher.PublishNotificationEvent(ctx, events.NewCertificateIssuedEvent(cert)); err != nil {
			s.logger.logger.Warn("Failed to publish certificate event", "certificate_id", cert.ID, "error", err)
		}
	}
	return cert, created, nil
}
