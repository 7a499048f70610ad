package services

import (
	"log/slog"

	"github.com/SAP-F-2025/competency-assessment/internal/assessment"
	"github.com/SAP-F-2025/competency-assessment/internal/cache"
	"github.com/SAP-F-2025/competency-assessment/internal/events"
	"github.com/SAP-F-2025/competency-assessment/internal/repositories"
	"github.com/SAP-F-2025/competency-assessment/internal/validator"
)

// ServiceManager hands the HTTP layer its services.
type ServiceManager interface {
	Assessment() AssessmentService
	Result() ResultService
	Question() QuestionService
	Admin() AdminService
	User() UserService
}

type serviceManager struct {
	assessment AssessmentService
	result     ResultService
	question   QuestionService
	admin      AdminService
	user       UserService
}

func NewServiceManager(
	repo repositories.Repository,
	engine *assessment.Engine,
	cacheService cache.CacheService,
	publisher events.EventPublisher,
	logger *slog.Logger,
	validator *validator.Validator,
) ServiceManager {
	return &serviceManager{
		assessment: NewAssessmentService(engine, repo.User(), logger, validator),
		result:     NewResultService(repo, cacheService, publisher, logger),
		question:   NewQuestionService(repo, logger, validator),
		admin:      NewAdminService(repo, cacheService, logger, validator),
		user:       NewUserService(repo.User(), logger),
	}
}

func (m *serviceManager) Assessment() AssessmentService { return m.assessment }
func (m *serviceManager) Result() ResultService         { return m.result }
func (m *serviceManager) Question() QuestionService     { return m.question }
func (m *serviceManager) Admin() AdminService           { return m.admin }
func (m *serviceManager) User() UserService             { return m.user }
