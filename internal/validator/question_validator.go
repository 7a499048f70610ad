package validator

import (
	"fmt"
	"strings"

	"github.com/SAP-F-2025/competency-assessment/internal/models"
)

const (
	MinOptions    = 2
	MaxOptions    = 6
	maxTextLength = 2000
)

// QuestionValidator checks the rules a question must satisfy before it can
// enter the pool.
type QuestionValidator struct{}

func NewQuestionValidator() *QuestionValidator {
	return &QuestionValidator{}
}

// ValidateQuestion returns every rule the question breaks, or nil.
func (v *QuestionValidator) ValidateQuestion(q *models.Question) ValidationErrors {
	var errs ValidationErrors

	if !q.Level.IsValid() {
		errs = append(errs, ValidationError{Field: "level", Message: "must be a CEFR level (A1, A2, B1, B2, C1, C2)", Value: q.Level, Rule: "cefr_level"})
	}

	text := strings.TrimSpace(q.Text)
	switch {
	case text == "":
		errs = append(errs, ValidationError{Field: "text", Message: "is required", Rule: "required"})
	case len(text) > maxTextLength:
		errs = append(errs, ValidationError{Field: "text", Message: fmt.Sprintf("must be at most %d characters", maxTextLength), Rule: "max"})
	}

	if n := len(q.Options); n < MinOptions || n > MaxOptions {
		errs = append(errs, ValidationError{
			Field:   "options",
			Message: fmt.Sprintf("must have between %d and %d options", MinOptions, MaxOptions),
			Value:   n,
			Rule:    "options_count",
		})
	} else {
		seen := make(map[string]bool, n)
		for i, opt := range q.Options {
			key := strings.ToLower(strings.TrimSpace(opt))
			if key == "" {
				errs = append(errs, ValidationError{Field: fmt.Sprintf("options[%d]", i), Message: "is required", Rule: "required"})
				continue
			}
			if seen[key] {
				errs = append(errs, ValidationError{Field: fmt.Sprintf("options[%d]", i), Message: "duplicates another option", Value: opt, Rule: "unique"})
			}
			seen[key] = true
		}
	}

	if q.CorrectAnswer < 0 || q.CorrectAnswer >= len(q.Options) {
		errs = append(errs, ValidationError{
			Field:   "correct_answer",
			Message: "must index one of the options",
			Value:   q.CorrectAnswer,
			Rule:    "correct_answer_range",
		})
	}

	if len(errs) == 0 {
		return nil
	}
	return errs
}

// ValidateBatch validates each question and keys the failures by position.
func (v *QuestionValidator) ValidateBatch(questions []*models.Question) map[int]ValidationErrors {
	failures := make(map[int]ValidationErrors)
	for i, q := range questions {
		if errs := v.ValidateQuestion(q); len(errs) > 0 {
			failures[i] = errs
		}
	}
	return failures
}

// ValidateUsage blocks deleting a competency that questions still point at.
func (v *QuestionValidator) ValidateUsage(inUse bool, operation string) error {
	if inUse && operation == "delete" {
		return fmt.Errorf("cannot delete competency: questions still reference it")
	}
	return nil
}
