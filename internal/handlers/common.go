package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/competency-assessment/internal/assessment"
	"github.com/SAP-F-2025/competency-assessment/internal/models"
	"github.com/SAP-F-2025/competency-assessment/internal/services"
	"github.com/SAP-F-2025/competency-assessment/internal/utils"
)

// ===== COMMON RESPONSE STRUCTURES =====

// Response is the envelope of every JSON reply.
type Response struct {
	Success bool           `json:"success"`
	Data    interface{}    `json:"data,omitempty"`
	Message string         `json:"message,omitempty"`
	Error   *ErrorResponse `json:"error,omitempty"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
	Code    string      `json:"code,omitempty"`
}

type PaginatedResponse struct {
	Data       interface{} `json:"data"`
	Total      int64       `json:"total"`
	Page       int         `json:"page"`
	Limit      int         `json:"limit"`
	TotalPages int         `json:"totalPages"`
}

// ===== BASE HANDLER STRUCT =====

// BaseHandler provides common logging and response helpers for all handlers
type BaseHandler struct {
	logger utils.Logger
}

func NewBaseHandler(logger utils.Logger) BaseHandler {
	return BaseHandler{logger: logger}
}

func (h *BaseHandler) log(c *gin.Context) utils.Logger {
	if _, ok := c.Get("logger"); ok {
		return utils.GetLoggerFromContext(c)
	}
	return h.logger
}

// LogRequest logs an incoming request with the caller attached.
func (h *BaseHandler) LogRequest(c *gin.Context, message string, additionalFields ...interface{}) {
	fields := []interface{}{
		"user_id", c.GetString(userIDKey),
		"remote_addr", c.ClientIP(),
	}
	h.log(c).Info(message, append(fields, additionalFields...)...)
}

func (h *BaseHandler) LogError(c *gin.Context, err error, message string, additionalFields ...interface{}) {
	fields := []interface{}{"user_id", c.GetString(userIDKey)}
	h.log(c).LogError(err, message, append(fields, additionalFields...)...)
}

func (h *BaseHandler) LogWarn(c *gin.Context, message string, additionalFields ...interface{}) {
	fields := []interface{}{"user_id", c.GetString(userIDKey)}
	h.log(c).Warn(message, append(fields, additionalFields...)...)
}

// RespondWithSuccess wraps data in the success envelope.
func (h *BaseHandler) RespondWithSuccess(c *gin.Context, statusCode int, message string, data interface{}) {
	c.JSON(statusCode, Response{Success: true, Data: data, Message: message})
}

func (h *BaseHandler) RespondWithPage(c *gin.Context, data interface{}, total int64, page pageParams) {
	totalPages := 0
	if page.Limit > 0 {
		totalPages = int((total + int64(page.Limit) - 1) / int64(page.Limit))
	}
	h.RespondWithSuccess(c, http.StatusOK, "", PaginatedResponse{
		Data:       data,
		Total:      total,
		Page:       page.Page,
		Limit:      page.Limit,
		TotalPages: totalPages,
	})
}

// RespondWithError sends the error envelope and logs it
func (h *BaseHandler) RespondWithError(c *gin.Context, statusCode int, code, message string, err error, details ...interface{}) {
	errorResp := &ErrorResponse{Message: message, Code: code}
	if len(details) > 0 {
		errorResp.Details = details[0]
	}

	if statusCode >= http.StatusInternalServerError {
		h.LogError(c, err, message, "status_code", statusCode)
	} else if err != nil {
		h.LogWarn(c, message, "status_code", statusCode, "error", err.Error())
	}
	c.AbortWithStatusJSON(statusCode, Response{Success: false, Message: message, Error: errorResp})
}

// handleServiceError maps service and engine errors to HTTP responses.
func (h *BaseHandler) handleServiceError(c *gin.Context, err error) {
	var validationErrors services.ValidationErrors
	if errors.As(err, &validationErrors) {
		h.RespondWithError(c, http.StatusBadRequest, "validation_failed", "Validation failed", err, validationErrors)
		return
	}

	var businessRuleError *services.BusinessRuleError
	if errors.As(err, &businessRuleError) {
		h.RespondWithError(c, http.StatusUnprocessableEntity, businessRuleError.Rule, businessRuleError.Message, err, businessRuleError.Context)
		return
	}

	var ineligible *assessment.IneligibleError
	if errors.As(err, &ineligible) {
		h.RespondWithError(c, http.StatusForbidden, "ineligible", "Step is not available", err, map[string]interface{}{
			"step":   ineligible.Step,
			"reason": ineligible.Reason,
		})
		return
	}

	var permissionError *services.PermissionError
	if errors.As(err, &permissionError) {
		h.RespondWithError(c, http.StatusForbidden, "access_denied", "Access denied", err, map[string]interface{}{
			"resource": permissionError.Resource,
			"action":   permissionError.Action,
			"reason":   permissionError.Reason,
		})
		return
	}

	switch {
	case services.IsUnauthorized(err):
		h.RespondWithError(c, http.StatusUnauthorized, "unauthorized", "Authentication required", err)
	case services.IsForbidden(err):
		h.RespondWithError(c, http.StatusForbidden, "forbidden", err.Error(), err)
	case services.IsValidation(err):
		h.RespondWithError(c, http.StatusBadRequest, "bad_request", err.Error(), err)
	case errors.Is(err, assessment.ErrSubmissionDue):
		h.RespondWithError(c, http.StatusConflict, "submission_due", err.Error(), err)
	case errors.Is(err, assessment.ErrAlreadySubmitted):
		h.RespondWithError(c, http.StatusConflict, "already_submitted", err.Error(), err)
	case errors.Is(err, assessment.ErrSessionNotActive):
		h.RespondWithError(c, http.StatusConflict, "session_not_active", err.Error(), err)
	case services.IsConflict(err):
		h.RespondWithError(c, http.StatusConflict, "conflict", err.Error(), err)
	case services.IsNotFound(err):
		h.RespondWithError(c, http.StatusNotFound, "not_found", err.Error(), err)
	case services.IsUnavailable(err):
		h.RespondWithError(c, http.StatusServiceUnavailable, "unavailable", "Service temporarily unavailable", err)
	default:
		h.RespondWithError(c, http.StatusInternalServerError, "internal_error", "Internal server error", err)
	}
}

// ===== CALLER =====

const (
	userIDKey   = "user_id"
	userKey     = "user"
	userRoleKey = "user_role"
)

// currentUser returns the caller stored by AuthMiddleware. It answers 401
// and returns nil when the request is anonymous.
func (h *BaseHandler) currentUser(c *gin.Context) *models.User {
	if v, ok := c.Get(userKey); ok {
		if user, ok := v.(*models.User); ok {
			return user
		}
	}
	h.RespondWithError(c, http.StatusUnauthorized, "unauthorized", "User not authenticated", nil)
	return nil
}
