package services

import (
	"errors"
	"fmt"

	"github.com/SAP-F-2025/competency-assessment/internal/assessment"
	apperrors "github.com/SAP-F-2025/competency-assessment/internal/errors"
	"github.com/SAP-F-2025/competency-assessment/internal/repositories"
)

// ===== COMMON SERVICE ERRORS =====

var (
	// Generic errors
	ErrNotFound         = errors.New("resource not found")
	ErrUnauthorized     = errors.New("unauthorized access")
	ErrForbidden        = errors.New("forbidden - insufficient permissions")
	ErrValidationFailed = errors.New("validation failed")
	ErrBadRequest       = errors.New("bad request")
	ErrConflict         = errors.New("resource conflict")

	// User errors
	ErrUserNotFound = errors.New("user not found")
	ErrUserBlocked  = errors.New("user is blocked")

	// Question bank errors
	ErrQuestionNotFound        = errors.New("question not found")
	ErrCompetencyNotFound      = errors.New("competency not found")
	ErrCompetencyInUse         = errors.New("competency cannot be deleted - questions reference it")
	ErrCompetencyDuplicateCode = errors.New("competency code already exists")

	// Session and result errors
	ErrSessionAccessDenied = errors.New("access denied to session")
	ErrResultNotFound      = errors.New("result not found")
	ErrResultAccessDenied  = errors.New("access denied to result")

	// Certificate errors
	ErrCertificateNotEarned = errors.New("no certified result for this level")
)

// ===== CUSTOM ERROR TYPES =====

// Use shared validation errors from errors package
type ValidationError = apperrors.ValidationError
type ValidationErrors = apperrors.ValidationErrors

type BusinessRuleError struct {
	Rule    string                 `json:"rule"`
	Message string                 `json:"message"`
	Context map[string]interface{} `json:"context,omitempty"`
}

func (bre *BusinessRuleError) Error() string {
	return fmt.Sprintf("business rule violation (%s): %s", bre.Rule, bre.Message)
}

type PermissionError struct {
	UserID     string `json:"user_id"`
	ResourceID string `json:"resource_id"`
	Resource   string `json:"resource"`
	Action     string `json:"action"`
	Reason     string `json:"reason"`
}

func (pe *PermissionError) Error() string {
	return fmt.Sprintf("permission denied: user %s cannot %s %s %s - %s",
		pe.UserID, pe.Action, pe.Resource, pe.ResourceID, pe.Reason)
}

// ===== ERROR HELPERS =====

func NewValidationError(field, message string, value interface{}) *ValidationError {
	return apperrors.NewValidationError(field, message, value)
}

func NewBusinessRuleError(rule, message string, context map[string]interface{}) *BusinessRuleError {
	return &BusinessRuleError{
		Rule:    rule,
		Message: message,
		Context: context,
	}
}

// RuleSelfAction forbids administrators from demoting, deleting or blocking
// their own account.
const RuleSelfAction = "self_action"

func selfActionError(action string) *BusinessRuleError {
	return NewBusinessRuleError(RuleSelfAction, "administrators cannot "+action+" their own account", map[string]interface{}{
		"action": action,
	})
}

func NewPermissionError(userID, resourceID, resource, action, reason string) *PermissionError {
	return &PermissionError{
		UserID:     userID,
		ResourceID: resourceID,
		Resource:   resource,
		Action:     action,
		Reason:     reason,
	}
}

// IsNotFound checks if error represents a "not found" condition
// A storage fault that happens to wrap a missing row is not a not-found.
func IsNotFound(err error) bool {
	if errors.Is(err, assessment.ErrTransportFailure) {
		return false
	}
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrUserNotFound) ||
		errors.Is(err, ErrQuestionNotFound) ||
		errors.Is(err, ErrCompetencyNotFound) ||
		errors.Is(err, ErrResultNotFound) ||
		errors.Is(err, assessment.ErrSessionNotFound) ||
		repositories.IsNotFoundError(err)
}

// IsUnauthorized checks if error represents an "unauthorized" condition
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}

// IsForbidden covers permission failures, blocked users and step gating.
func IsForbidden(err error) bool {
	var pe *PermissionError
	return errors.As(err, &pe) ||
		errors.Is(err, ErrForbidden) ||
		errors.Is(err, ErrUserBlocked) ||
		errors.Is(err, ErrSessionAccessDenied) ||
		errors.Is(err, ErrResultAccessDenied) ||
		errors.Is(err, ErrCertificateNotEarned) ||
		errors.Is(err, assessment.ErrIneligible)
}

// IsValidation checks if error represents a validation failure
func IsValidation(err error) bool {
	if errors.Is(err, ErrValidationFailed) ||
		errors.Is(err, ErrBadRequest) ||
		errors.Is(err, assessment.ErrInvalidIndex) ||
		errors.Is(err, assessment.ErrInvalidStep) {
		return true
	}
	var ve apperrors.ValidationErrors
	return errors.As(err, &ve)
}

// IsBusinessRule checks if error represents a business rule violation
func IsBusinessRule(err error) bool {
	var bre *BusinessRuleError
	return errors.As(err, &bre)
}

// IsConflict checks if error represents a resource conflict
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict) ||
		errors.Is(err, ErrCompetencyInUse) ||
		errors.Is(err, ErrCompetencyDuplicateCode) ||
		errors.Is(err, assessment.ErrSessionNotActive) ||
		errors.Is(err, assessment.ErrAlreadySubmitted) ||
		errors.Is(err, assessment.ErrSubmissionDue) ||
		repositories.IsDuplicateError(err)
}

// IsUnavailable reports storage or engine outages the caller may retry.
func IsUnavailable(err error) bool {
	return errors.Is(err, assessment.ErrTransportFailure) ||
		errors.Is(err, assessment.ErrEngineClosed) ||
		errors.Is(err, assessment.ErrInsufficientQuestions)
}
