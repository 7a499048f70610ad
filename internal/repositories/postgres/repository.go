package postgres

import (
	"log/slog"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/competency-assessment/internal/cache"
	"github.com/SAP-F-2025/competency-assessment/internal/models"
	"github.com/SAP-F-2025/competency-assessment/internal/repositories"
)

type repository struct {
	user        repositories.UserRepository
	question    repositories.QuestionRepository
	competency  repositories.CompetencyRepository
	session     repositories.SessionRepository
	result      repositories.ResultRepository
	certificate repositories.CertificateRepository
	stats       repositories.StatsRepository
}

func NewRepository(db *gorm.DB, cacheService cache.CacheService, logger *slog.Logger) repositories.Repository {
	return &repository{
		user:        NewUserPostgreSQL(db),
		question:    NewQuestionPostgreSQL(db, cacheService, logger),
		competency:  NewCompetencyPostgreSQL(db),
		session:     NewSessionPostgreSQL(db),
		result:      NewResultPostgreSQL(db),
		certificate: NewCertificatePostgreSQL(db),
		stats:       NewStatsPostgreSQL(db),
	}
}

func (r *repository) User() repositories.UserRepository               { return r.user }
func (r *repository) Question() repositories.QuestionRepository       { return r.question }
func (r *repository) Competency() repositories.CompetencyRepository   { return r.competency }
func (r *repository) Session() repositories.SessionRepository         { return r.session }
func (r *repository) Result() repositories.ResultRepository           { return r.result }
func (r *repository) Certificate() repositories.CertificateRepository { return r.certificate }
func (r *repository) Stats() repositories.StatsRepository             { return r.stats }

// Models lists every table for AutoMigrate.
func Models() []interface{} {
	return []interface{}{
		&models.User{},
		&models.Competency{},
		&models.Question{},
		&models.AssessmentSession{},
		&models.AssessmentResult{},
		&models.Certificate{},
	}
}

// Migrate creates or updates the schema.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(Models()...)
}
