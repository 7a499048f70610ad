package repositories

import (
	"context"
	"time"

	"github.com/SAP-F-2025/competency-assessment/internal/models"
)

// UserRepository stores local user profiles keyed by identity-provider id.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id string) error

	List(ctx context.Context, filters UserFilters) ([]*models.User, int64, error)

	SetBlocked(ctx context.Context, id string, blocked bool) error
	UpdateLastLogin(ctx context.Context, id string, loginTime time.Time) error
}
