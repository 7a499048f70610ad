package postgres

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/competency-assessment/internal/models"
	"github.com/SAP-F-2025/competency-assessment/internal/repositories"
)

var resultSortColumns = map[string]string{
	"completed_at": "completed_at",
	"percentage":   "percentage",
	"score":        "score",
	"step":         "step",
}

type ResultPostgreSQL struct {
	db      *gorm.DB
	helpers *SharedHelpers
}

func NewResultPostgreSQL(db *gorm.DB) repositories.ResultRepository {
	return &ResultPostgreSQL{
		db:      db,
		helpers: NewSharedHelpers(db),
	}
}

func (r *ResultPostgreSQL) GetByID(ctx context.Context, id string) (*models.AssessmentResult, error) {
	var result models.AssessmentResult
	if err := r.db.WithContext(ctx).Preload("User").First(&result, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &result, nil
}

func (r *ResultPostgreSQL) GetBySession(ctx context.Context, sessionID string) (*models.AssessmentResult, error) {
	var result models.AssessmentResult
	if err := r.db.WithContext(ctx).First(&result, "session_id = ?", sessionID).Error; err != nil {
		return nil, notFound(err)
	}
	return &result, nil
}

func (r *ResultPostgreSQL) List(ctx context.Context, filters repositories.ResultFilters) ([]*models.AssessmentResult, int64, error) {
	var results []*models.AssessmentResult
	var total int64

	query := r.db.WithContext(ctx).Model(&models.AssessmentResult{})
	if filters.UserID != nil {
		query = query.Where("user_id = ?", *filters.UserID)
	}
	if filters.Step != nil {
		query = query.Where("step = ?", *filters.Step)
	}
	if filters.Level != nil {
		query = query.Where("level_achieved = ?", *filters.Level)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count results: %w", err)
	}
	query = r.helpers.ApplyPage(query, filters.Page, resultSortColumns, "completed_at")
	if err := query.Preload("User").Find(&results).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list results: %w", err)
	}
	return results, total, nil
}

func (r *ResultPostgreSQL) BestForLevel(ctx context.Context, userID string, level models.Level) (*models.AssessmentResult, error) {
	var qualifying []models.Level
	for _, lvl := range models.AllLevels {
		if lvl.Rank() >= level.Rank() {
			qualifying = append(qualifying, lvl)
		}
	}

	var result models.AssessmentResult
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND certified = ? AND level_achieved IN ?", userID, true, qualifying).
		Order("percentage DESC, completed_at ASC").
		First(&result).Error; err != nil {
		return nil, notFound(err)
	}
	return &result, nil
}

// ===== CERTIFICATES =====

type CertificatePostgreSQL struct {
	db *gorm.DB
}

func NewCertificatePostgreSQL(db *gorm.DB) repositories.CertificateRepository {
	return &CertificatePostgreSQL{db: db}
}

func (c *CertificatePostgreSQL) Create(ctx context.Context, cert *models.Certificate) (*models.Certificate, bool, error) {
	existing, err := c.GetByUserAndLevel(ctx, cert.UserID, cert.Level)
	if err == nil {
		return existing, false, nil
	}
	if !repositories.IsNotFoundError(err) {
		return nil, false, err
	}

	if err := c.db.WithContext(ctx).Create(cert).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// Lost a race with a concurrent issue for the same level.
			existing, err := c.GetByUserAndLevel(ctx, cert.UserID, cert.Level)
			if err != nil {
				return nil, false, err
			}
			return existing, false, nil
		}
		return nil, false, fmt.Errorf("failed to create certificate: %w", err)
	}
	return cert, true, nil
}

func (c *CertificatePostgreSQL) GetByUserAndLevel(ctx context.Context, userID string, level models.Level) (*models.Certificate, error) {
	var cert models.Certificate
	if err := c.db.WithContext(ctx).First(&cert, "user_id = ? AND level = ?", userID, level).Error; err != nil {
		return nil, notFound(err)
	}
	return &cert, nil
}

func (c *CertificatePostgreSQL) ListByUser(ctx context.Context, userID string) ([]*models.Certificate, error) {
	var certs []*models.Certificate
	if err := c.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("issued_at DESC").
		Find(&certs).Error; err != nil {
		return nil, fmt.Errorf("failed to list certificates: %w", err)
	}
	return certs, nil
}
