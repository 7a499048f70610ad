package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/SAP-F-2025/competency-assessment/internal/models"
	"github.com/SAP-F-2025/competency-assessment/internal/repositories"
)

type userService struct {
	users  repositories.UserRepository
	logger *slog.Logger
	now    func() time.Time
}

func NewUserService(users repositories.UserRepository, logger *slog.Logger) UserService {
	return &userService{
		users:  users,
		logger: logger,
		now:    time.Now,
	}
}

// EnsureUser provisions a local profile for a fresh identity and keeps an
// existing one in step with the token.
func (s *userService) EnsureUser(ctx context.Context, identity Identity) (*models.User, error) {
	if identity.ID == "" {
		return nil, ErrUnauthorized
	}
	role := identity.Role
	if role == "" {
		role = models.RoleStudent
	}
	now := s.now().UTC()

	user, err := s.users.GetByID(ctx, identity.ID)
	if err != nil {
		if !repositories.IsNotFoundError(err) {
			return nil, fmt.Errorf("failed to get user: %w", err)
		}
		user = &models.User{
			ID:          identity.ID,
			Email:       identity.Email,
			FirstName:   identity.FirstName,
			LastName:    identity.LastName,
			Role:        role,
			LastLoginAt: &now,
		}
		if err := s.users.Create(ctx, user); err != nil {
			if repositories.IsDuplicateError(err) {
				// A concurrent request created it first.
				return s.users.GetByID(ctx, identity.ID)
			}
			return nil, fmt.Errorf("failed to create user: %w", err)
		}
		s.logger.Info("Provisioned user", "user_id", user.ID, "role", user.Role)
		return user, nil
	}

	// Roles granted in the identity provider win; otherwise the local role
	// set by an administrator stays.
	elevated := role != models.RoleStudent && user.Role != role
	if elevated || user.Email != identity.Email || user.FirstName != identity.FirstName ||
		user.LastName != identity.LastName {
		user.Email = identity.Email
		user.FirstName = identity.FirstName
		user.LastName = identity.LastName
		if elevated {
			user.Role = role
		}
		if err := s.users.Update(ctx, user); err != nil {
			return nil, fmt.Errorf("failed to sync user profile: %w", err)
		}
	}

	if user.LastLoginAt == nil || now.Sub(*user.LastLoginAt) > time.Minute {
		if err := s.users.UpdateLastLogin(ctx, user.ID, now); err != nil {
			s.logger.Warn("Failed to record last login", "user_id", user.ID, "error", err)
		} else {
			user.LastLoginAt = &now
		}
	}
	return user, nil
}

func (s *userService) Get(ctx context.Context, id string) (*models.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}
