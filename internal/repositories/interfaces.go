package repositories

import (
	"errors"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/competency-assessment/internal/models"
)

// ErrNotFound is returned by lookups that match nothing.
var ErrNotFound = errors.New("record not found")

// IsNotFoundError reports whether err means the record does not exist.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, gorm.ErrRecordNotFound)
}

// ErrDuplicate is returned when a unique constraint would be violated.
var ErrDuplicate = errors.New("record already exists")

func IsDuplicateError(err error) bool {
	return errors.Is(err, ErrDuplicate) || errors.Is(err, gorm.ErrDuplicatedKey)
}

// Repository groups every repository behind one handle.
type Repository interface {
	User() UserRepository
	Question() QuestionRepository
	Competency() CompetencyRepository
	Session() SessionRepository
	Result() ResultRepository
	Certificate() CertificateRepository
	Stats() StatsRepository
}

// ===== SHARED FILTER STRUCTS =====

type Page struct {
	Limit     int    `json:"limit"`
	Offset    int    `json:"offset"`
	SortBy    string `json:"sort_by"`
	SortOrder string `json:"sort_order"` // "asc", "desc"
}

type UserFilters struct {
	Role   *models.UserRole `json:"role"`
	Search string           `json:"search"`
	Page
}

type QuestionFilters struct {
	Level        *models.Level `json:"level"`
	CompetencyID *string       `json:"competency_id"`
	Search       string        `json:"search"`
	Page
}

type ResultFilters struct {
	UserID *string       `json:"user_id"`
	Step   *models.Step  `json:"step"`
	Level  *models.Level `json:"level"`
	Page
}

// ===== SHARED STATISTICS STRUCTS =====

// UserAssessmentStats summarises one user's results.
type UserAssessmentStats struct {
	TotalAttempts  int           `json:"total_attempts"`
	AverageScore   float64       `json:"average_score"`
	BestScore      float64       `json:"best_score"`
	CurrentLevel   *models.Level `json:"current_level"`
	CompletedSteps []models.Step `json:"completed_steps"`
	Certificates   int           `json:"certificates"`
}

// DashboardStats is the admin overview.
type DashboardStats struct {
	TotalUsers        int64                `json:"total_users"`
	TotalAssessments  int64                `json:"total_assessments"`
	PassRate          float64              `json:"pass_rate"`
	AverageScore      float64              `json:"average_score"`
	LevelDistribution map[models.Level]int `json:"level_distribution"`
	ActiveSessions    int64                `json:"active_sessions"`
}
