package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/SAP-F-2025/competency-assessment/internal/models"
	"github.com/SAP-F-2025/competency-assessment/internal/repositories"
)

func TestUserServiceEnsureUser(t *testing.T) {
	ctx := context.Background()
	identity := Identity{ID: "sub-1", Email: "ann@example.com", FirstName: "Ann", LastName: "Lee"}

	t.Run("provisions a new student", func(t *testing.T) {
		users := new(MockUserRepository)
		svc := NewUserService(users, testLogger())
		users.On("GetByID", mock.Anything, "sub-1").Return(nil, repositories.ErrNotFound)
		users.On("Create", mock.Anything, mock.MatchedBy(func(u *models.User) bool {
			return u.ID == "sub-1" && u.Role == models.RoleStudent && u.LastLoginAt != nil
		})).Return(nil)

		user, err := svc.EnsureUser(ctx, identity)
		require.NoError(t, err)
		assert.Equal(t, "ann@example.com", user.Email)
		users.AssertExpectations(t)
	})

	t.Run("syncs a changed profile", func(t *testing.T) {
		users := new(MockUserRepository)
		svc := NewUserService(users, testLogger())
		recent := time.Now().UTC()
		users.On("GetByID", mock.Anything, "sub-1").Return(&models.User{
			ID: "sub-1", Email: "old@example.com", Role: models.RoleStudent, LastLoginAt: &recent,
		}, nil)
		users.On("Update", mock.Anything, mock.MatchedBy(func(u *models.User) bool {
			return u.Email == "ann@example.com" && u.Role == models.RoleAdmin
		})).Return(nil)

		admin := identity
		admin.Role = models.RoleAdmin
		user, err := svc.EnsureUser(ctx, admin)
		require.NoError(t, err)
		assert.Equal(t, models.RoleAdmin, user.Role)
		users.AssertNotCalled(t, "UpdateLastLogin", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("records a stale login", func(t *testing.T) {
		users := new(MockUserRepository)
		svc := NewUserService(users, testLogger())
		users.On("GetByID", mock.Anything, "sub-1").Return(&models.User{
			ID: "sub-1", Email: "ann@example.com", FirstName: "Ann", LastName: "Lee", Role: models.RoleStudent,
		}, nil)
		users.On("UpdateLastLogin", mock.Anything, "sub-1", mock.AnythingOfType("time.Time")).Return(nil)

		user, err := svc.EnsureUser(ctx, identity)
		require.NoError(t, err)
		assert.NotNil(t, user.LastLoginAt)
		users.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})

	t.Run("empty subject", func(t *testing.T) {
		svc := NewUserService(new(MockUserRepository), testLogger())
		_, err := svc.EnsureUser(ctx, Identity{})
		assert.ErrorIs(t, err, ErrUnauthorized)
	})
}
