package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/competency-assessment/internal/assessment"
	"github.com/SAP-F-2025/competency-assessment/internal/models"
	"github.com/SAP-F-2025/competency-assessment/internal/repositories"
)

type StatsPostgreSQL struct {
	db *gorm.DB
}

func NewStatsPostgreSQL(db *gorm.DB) repositories.StatsRepository {
	return &StatsPostgreSQL{db: db}
}

func (s *StatsPostgreSQL) UserStats(ctx context.Context, userID string) (*repositories.UserAssessmentStats, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", userID).Error; err != nil {
		return nil, notFound(err)
	}

	var agg struct {
		Total   int
		Average float64
		Best    float64
	}
	if err := s.db.WithContext(ctx).
		Model(&models.AssessmentResult{}).
		Select("COUNT(*) AS total, COALESCE(AVG(percentage), 0) AS average, COALESCE(MAX(percentage), 0) AS best").
		Where("user_id = ?", userID).
		Scan(&agg).Error; err != nil {
		return nil, fmt.Errorf("failed to aggregate results: %w", err)
	}

	var certs int64
	if err := s.db.WithContext(ctx).
		Model(&models.Certificate{}).
		Where("user_id = ?", userID).
		Count(&certs).Error; err != nil {
		return nil, fmt.Errorf("failed to count certificates: %w", err)
	}

	return &repositories.UserAssessmentStats{
		TotalAttempts:  agg.Total,
		AverageScore:   assessment.RoundPercentage(agg.Average),
		BestScore:      agg.Best,
		CurrentLevel:   user.CurrentLevel,
		CompletedSteps: append([]models.Step{}, user.CompletedSteps...),
		Certificates:   int(certs),
	}, nil
}

func (s *StatsPostgreSQL) Dashboard(ctx context.Context) (*repositories.DashboardStats, error) {
	stats := &repositories.DashboardStats{LevelDistribution: make(map[models.Level]int, len(models.AllLevels))}
	for _, lvl := range models.AllLevels {
		stats.LevelDistribution[lvl] = 0
	}

	db := s.db.WithContext(ctx)
	if err := db.Model(&models.User{}).Count(&stats.TotalUsers).Error; err != nil {
		return nil, fmt.Errorf("failed to count users: %w", err)
	}

	var agg struct {
		Total     int64
		Certified int64
		Average   float64
	}
	if err := db.Model(&models.AssessmentResult{}).
		Select("COUNT(*) AS total, COUNT(*) FILTER (WHERE certified) AS certified, COALESCE(AVG(percentage), 0) AS average").
		Scan(&agg).Error; err != nil {
		return nil, fmt.Errorf("failed to aggregate results: %w", err)
	}
	stats.TotalAssessments = agg.Total
	stats.AverageScore = assessment.RoundPercentage(agg.Average)
	if agg.Total > 0 {
		stats.PassRate = assessment.RoundPercentage(float64(agg.Certified) / float64(agg.Total) * 100)
	}

	var levels []struct {
		CurrentLevel models.Level
		Count        int
	}
	if err := db.Model(&models.User{}).
		Select("current_level, COUNT(*) AS count").
		Where("current_level IS NOT NULL").
		Group("current_level").
		Scan(&levels).Error; err != nil {
		return nil, fmt.Errorf("failed to aggregate levels: %w", err)
	}
	for _, l := range levels {
		stats.LevelDistribution[l.CurrentLevel] = l.Count
	}

	if err := db.Model(&models.AssessmentSession{}).
		Where("status = ?", models.SessionActive).
		Count(&stats.ActiveSessions).Error; err != nil {
		return nil, fmt.Errorf("failed to count active sessions: %w", err)
	}
	return stats, nil
}
