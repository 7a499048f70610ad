package assessment

import (
	"errors"
	"fmt"

	"github.com/SAP-F-2025/competency-assessment/internal/models"
)

var (
	ErrIneligible            = errors.New("step is not available to this user")
	ErrInvalidIndex          = errors.New("question or option index out of range")
	ErrSessionNotActive      = errors.New("session is not active")
	ErrAlreadySubmitted      = errors.New("session already submitted")
	ErrTransportFailure      = errors.New("session storage unavailable")
	ErrInvalidStep           = errors.New("invalid assessment step")
	ErrSubmissionDue         = errors.New("last question reached, submission is due")
	ErrInsufficientQuestions = errors.New("not enough questions in the pool")
	ErrSessionNotFound       = errors.New("session not found")
	ErrEngineClosed          = errors.New("assessment engine is shut down")
)

// IneligibleError explains why a step cannot be started.
type IneligibleError struct {
	Step   models.Step
	Reason string
}

func (e *IneligibleError) Error() string {
	return fmt.Sprintf("%s: %s", e.Step, e.Reason)
}

func (e *IneligibleError) Unwrap() error {
	return ErrIneligible
}

// TransportError wraps a storage failure that blocked an operation.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("failed to %s: %v", e.Op, e.Err)
}

func (e *TransportError) Is(target error) bool {
	return target == ErrTransportFailure
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

func transport(op string, err error) error {
	return &TransportError{Op: op, Err: err}
}
