package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// ServiceLogger provides structured logging for service layer operations
type ServiceLogger struct {
	logger *slog.Logger
}

func NewServiceLogger(logger *slog.Logger, service string) *ServiceLogger {
	return &ServiceLogger{logger: logger.With("service", service)}
}

// ===== OPERATION LOGGING =====

// LogOperation logs the outcome of an operation. Expected failures such as
// validation or not-found are logged below error level.
func (l *ServiceLogger) LogOperation(ctx context.Context, operation, userID, resourceID, resourceType string, duration time.Duration, err error) {
	level := slog.LevelInfo
	status := "success"

	attrs := []slog.Attr{
		slog.String("operation", operation),
		slog.String("user_id", userID),
		slog.String("resource_id", resourceID),
		slog.String("resource_type", resourceType),
		slog.Duration("duration", duration),
	}

	if err != nil {
		switch {
		case IsValidation(err) || IsBusinessRule(err):
			level, status = slog.LevelWarn, "validation_error"
		case IsForbidden(err) || IsUnauthorized(err):
			level, status = slog.LevelWarn, "forbidden"
		case IsNotFound(err):
			status = "not_found"
		case IsConflict(err):
			level, status = slog.LevelWarn, "conflict"
		default:
			level, status = slog.LevelError, "error"
		}
		attrs = append(attrs, slog.String("error", err.Error()))

		var ve ValidationErrors
		var bre *BusinessRuleError
		var pe *PermissionError
		switch {
		case errors.As(err, &ve):
			attrs = append(attrs, slog.Int("validation_errors_count", len(ve)))
		case errors.As(err, &bre):
			attrs = append(attrs, slog.String("business_rule", bre.Rule))
		case errors.As(err, &pe):
			attrs = append(attrs, slog.String("permission_action", pe.Action))
		}
	}
	attrs = append(attrs, slog.String("status", status))

	l.logger.LogAttrs(ctx, level, fmt.Sprintf("%s operation %s", operation, status), attrs...)
}

// ===== AUDIT LOGGING =====

// AuditAction names what an actor did to a resource.
type AuditAction string

const (
	AuditCreate  AuditAction = "create"
	AuditUpdate  AuditAction = "update"
	AuditDelete  AuditAction = "delete"
	AuditIssue   AuditAction = "issue"
	AuditBlock   AuditAction = "block"
	AuditUnblock AuditAction = "unblock"
)

// AuditEntry is written as one structured record; there is no audit table.
type AuditEntry struct {
	Action    AuditAction
	Actor     string
	Operation string
	Kind      string
	ID        string
	Before    any
	After     any
	At        time.Time
}

func (l *ServiceLogger) Audit(ctx context.Context, entry AuditEntry) {
	attrs := []slog.Attr{
		slog.Bool("audit", true),
		slog.String("action", string(entry.Action)),
		slog.String("actor_id", entry.Actor),
		slog.String("operation", entry.Operation),
		slog.String("resource", entry.Kind),
		slog.String("resource_id", entry.ID),
		slog.Time("at", entry.At),
	}
	if entry.Before != nil {
		attrs = append(attrs, slog.Any("before", entry.Before))
	}
	if entry.After != nil {
		attrs = append(attrs, slog.Any("after", entry.After))
	}

	l.logger.LogAttrs(ctx, slog.LevelInfo, fmt.Sprintf("%s %s %s", entry.Kind, entry.ID, entry.Action), attrs...)
}

// ===== CONTEXTUAL LOGGER =====

// ContextualLogger times one operation and logs its result.
type ContextualLogger struct {
	logger    *ServiceLogger
	operation string
	userID    string
	startTime time.Time
	ctx       context.Context
}

func (l *ServiceLogger) WithOperation(ctx context.Context, operation, userID string) *ContextualLogger {
	return &ContextualLogger{
		logger:    l,
		operation: operation,
		userID:    userID,
		startTime: time.Now(),
		ctx:       ctx,
	}
}

func (cl *ContextualLogger) LogResult(resourceID, resourceType string, err error) {
	cl.logger.LogOperation(cl.ctx, cl.operation, cl.userID, resourceID, resourceType, time.Since(cl.startTime), err)
}

func (cl *ContextualLogger) LogAudit(action AuditAction, resourceID, kind string, before, after any) {
	cl.logger.Audit(cl.ctx, AuditEntry{
		Action:    action,
		Actor:     cl.userID,
		Operation: cl.operation,
		Kind:      kind,
		ID:        resourceID,
		Before:    before,
		After:     after,
		At:        time.Now(),
	})
}
