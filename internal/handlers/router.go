package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/competency-assessment/internal/models"
	"github.com/SAP-F-2025/competency-assessment/internal/services"
	"github.com/SAP-F-2025/competency-assessment/internal/utils"
)

type HandlerManager struct {
	assessmentHandler *AssessmentHandler
	questionHandler   *QuestionHandler
	adminHandler      *AdminHandler
	auth              *AuthMiddleware
	limiter           *UserRateLimiter
	logger            utils.Logger
}

// NewHandlerManager wires the handlers. A nil limiter leaves the answer
// endpoints unthrottled.
func NewHandlerManager(
	serviceManager services.ServiceManager,
	verifier TokenVerifier,
	adminRoles []string,
	limiter *UserRateLimiter,
	logger utils.Logger,
) *HandlerManager {
	return &HandlerManager{
		assessmentHandler: NewAssessmentHandler(serviceManager.Assessment(), serviceManager.Result(), logger),
		questionHandler:   NewQuestionHandler(serviceManager.Question(), logger),
		adminHandler:      NewAdminHandler(serviceManager.Admin(), logger),
		auth:              NewAuthMiddleware(verifier, serviceManager.User(), adminRoles, logger),
		limiter:           limiter,
		logger:            logger,
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	router.GET("/health", HealthCheck)

	v1 := router.Group("/api/v1")
	v1.Use(hm.auth.Authenticate())
	{
		throttle := func(c *gin.Context) { c.Next() }
		if hm.limiter != nil {
			throttle = hm.limiter.Middleware()
		}

		a := v1.Group("/assessment")
		{
			a.GET("/can-take/:step", hm.assessmentHandler.CanTake)
			a.POST("/start", hm.assessmentHandler.Start)
			a.GET("/session", hm.assessmentHandler.Current)
			a.GET("/session/:id/events", hm.assessmentHandler.Events)
			a.POST("/answer", throttle, hm.assessmentHandler.Answer)
			a.POST("/navigate", throttle, hm.assessmentHandler.Navigate)
			a.POST("/submit", hm.assessmentHandler.Submit)
			a.POST("/abandon", hm.assessmentHandler.Abandon)

			a.GET("/results", hm.assessmentHandler.ListResults)
			a.GET("/results/:id", hm.assessmentHandler.GetResult)
			a.GET("/stats", hm.assessmentHandler.Stats)
			a.GET("/certificates", hm.assessmentHandler.Certificates)
			a.POST("/certificate/generate", hm.assessmentHandler.GenerateCertificate)

			a.GET("/competencies", hm.questionHandler.ListCompetencies)
			a.GET("/questions/:level", hm.questionHandler.Preview)
		}

		admin := v1.Group("/admin")
		admin.Use(hm.auth.RequireRole(models.RoleAdmin, models.RoleSupervisor))
		{
			admin.GET("/dashboard/stats", hm.adminHandler.Dashboard)

			users := admin.Group("/users")
			{
				users.GET("", hm.adminHandler.ListUsers)
				users.GET("/:id", hm.adminHandler.GetUser)
				users.PUT("/:id", hm.adminHandler.UpdateUser)
				users.DELETE("/:id", hm.adminHandler.DeleteUser)
				users.PATCH("/:id/block", hm.adminHandler.SetBlocked)
			}

			questions := admin.Group("/questions")
			{
				questions.GET("", hm.questionHandler.ListQuestions)
				questions.POST("", hm.questionHandler.CreateQuestion)
				questions.POST("/bulk", hm.questionHandler.BulkCreate)
				questions.GET("/:id", hm.questionHandler.GetQuestion)
				questions.PUT("/:id", hm.questionHandler.UpdateQuestion)
				questions.DELETE("/:id", hm.questionHandler.DeleteQuestion)
			}

			competencies := admin.Group("/competencies")
			{
				competencies.GET("", hm.questionHandler.ListCompetencies)
				competencies.POST("", hm.questionHandler.CreateCompetency)
				competencies.PUT("/:id", hm.questionHandler.UpdateCompetency)
				competencies.DELETE("/:id", hm.questionHandler.DeleteCompetency)
			}

			results := admin.Group("/results")
			{
				results.GET("", hm.adminHandler.ListResults)
				results.GET("/:id", hm.adminHandler.GetResult)
			}
		}
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, Response{
			Message: "Route not found",
			Error:   &ErrorResponse{Message: "Route not found", Code: "not_found"},
		})
	})
}

func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "competency-assessment",
	})
}
