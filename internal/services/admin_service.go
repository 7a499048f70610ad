package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/SAP-F-2025/competency-assessment/internal/cache"
	"github.com/SAP-F-2025/competency-assessment/internal/models"
	"github.com/SAP-F-2025/competency-assessment/internal/repositories"
	"github.com/SAP-F-2025/competency-assessment/internal/validator"
)

type adminService struct {
	repo      repositories.Repository
	cache     cache.CacheService
	logger    *ServiceLogger
	validator *validator.Validator
}

func NewAdminService(repo repositories.Repository, cacheService cache.CacheService, logger *slog.Logger, validator *validator.Validator) AdminService {
	return &adminService{
		repo:      repo,
		cache:     cacheService,
		logger:    NewServiceLogger(logger, "admin"),
		validator: validator,
	}
}

// ===== DASHBOARD =====

func (s *adminService) Dashboard(ctx context.Context) (*repositories.DashboardStats, error) {
	key := cache.DashboardStatsKey()

	var cached repositories.DashboardStats
	if err := s.cache.Get(ctx, key, &cached); err == nil {
		return &cached, nil
	} else if !errors.Is(err, cache.ErrCacheMiss) {
		s.logger.logger.Warn("Dashboard cache read failed", "error", err)
	}

	stats, err := s.repo.Stats().Dashboard(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to build dashboard: %w", err)
	}
	if err := s.cache.Set(ctx, key, stats, cache.DashboardStatsTTL); err != nil {
		s.logger.logger.Warn("Dashboard cache write failed", "error", err)
	}
	return stats, nil
}

// ===== USERS =====

func (s *adminService) ListUsers(ctx context.Context, filters repositories.UserFilters) ([]*models.User, int64, error) {
	users, total, err := s.repo.User().List(ctx, filters)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}
	return users, total, nil
}

func (s *adminService) GetUser(ctx context.Context, id string) (*models.User, error) {
	user, err := s.repo.User().GetByID(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

func (s *adminService) UpdateUser(ctx context.Context, actorID, id string, req *UpdateUserRequest) (*models.User, error) {
	op := s.logger.WithOperation(ctx, "update_user", actorID)

	if err := s.validator.Validate(req); err != nil {
		op.LogResult(id, "user", err)
		return nil, err
	}
	// Demoting yourself would lock the last administrator out.
	if req.Role != nil && actorID == id && !req.Role.CanManage() {
		err := selfActionError("demote")
		op.LogResult(id, "user", err)
		return nil, err
	}

	user, err := s.GetUser(ctx, id)
	if err != nil {
		op.LogResult(id, "user", err)
		return nil, err
	}
	old := *user

	if req.FirstName != nil {
		user.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		user.LastName = *req.LastName
	}
	if req.Role != nil {
		user.Role = *req.Role
	}

	if err := s.repo.User().Update(ctx, user); err != nil {
		err = fmt.Errorf("failed to update user: %w", err)
		op.LogResult(id, "user", err)
		return nil, err
	}

	op.LogResult(id, "user", nil)
	op.LogAudit(AuditUpdate, id, "user", old, user)
	return user, nil
}

func (s *adminService) DeleteUser(ctx context.Context, actorID, id string) error {
	op := s.logger.WithOperation(ctx, "delete_user", actorID)

	if actorID == id {
		err := selfActionError("delete")
		op.LogResult(id, "user", err)
		return err
	}
	if err := s.repo.User().Delete(ctx, id); err != nil {
		if repositories.IsNotFoundError(err) {
			err = ErrUserNotFound
		} else {
			err = fmt.Errorf("failed to delete user: %w", err)
		}
		op.LogResult(id, "user", err)
		return err
	}
	s.invalidateStats(ctx, id)

	op.LogResult(id, "user", nil)
	op.LogAudit(AuditDelete, id, "user", nil, nil)
	return nil
}

func (s *adminService) SetBlocked(ctx context.Context, actorID, id string, blocked bool) (*models.User, error) {
	op := s.logger.WithOperation(ctx, "set_user_blocked", actorID)

	if actorID == id {
		err := selfActionError("block")
		op.LogResult(id, "user", err)
		return nil, err
	}
	if err := s.repo.User().SetBlocked(ctx, id, blocked); err != nil {
		if repositories.IsNotFoundError(err) {
			err = ErrUserNotFound
		} else {
			err = fmt.Errorf("failed to update user status: %w", err)
		}
		op.LogResult(id, "user", err)
		return nil, err
	}

	user, err := s.GetUser(ctx, id)
	if err != nil {
		op.LogResult(id, "user", err)
		return nil, err
	}

	op.LogResult(id, "user", nil)
	action := AuditBlock
	if !blocked {
		action = AuditUnblock
	}
	op.LogAudit(action, id, "user", nil, nil)
	return user, nil
}

// ===== RESULTS =====

func (s *adminService) ListResults(ctx context.Context, filters repositories.ResultFilters) ([]*models.AssessmentResult, int64, error) {
	results, total, err := s.repo.Result().List(ctx, filters)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list results: %w", err)
	}
	return results, total, nil
}

func (s *adminService) GetResult(ctx context.Context, id string) (*models.AssessmentResult, error) {
	result, err := s.repo.Result().GetByID(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrResultNotFound
		}
		return nil, fmt.Errorf("failed to get result: %w", err)
	}
	return result, nil
}

func (s *adminService) invalidateStats(ctx context.Context, userID string) {
	if err := s.cache.Delete(ctx, cache.UserStatsKey(userID), cache.DashboardStatsKey()); err != nil {
		s.logger.logger.Warn("Failed to invalidate stats cache", "user_id", userID, "error", err)
	}
}
