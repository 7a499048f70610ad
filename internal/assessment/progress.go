package assessment

import (
	"fmt"

	"github.com/SAP-F-2025/competency-assessment/internal/models"
)

// Eligibility answers whether a user may start a step.
type Eligibility struct {
	CanTake           bool        `json:"can_take"`
	Reason            string      `json:"reason,omitempty"`
	NextAvailableStep models.Step `json:"next_available_step"`
}

// CheckEligibility applies step gating: step 1 is always open and step N
// needs step N-1 completed.
func CheckEligibility(user *models.User, step models.Step) (Eligibility, error) {
	if !step.IsValid() {
		return Eligibility{}, ErrInvalidStep
	}
	e := Eligibility{CanTake: true, NextAvailableStep: NextAvailableStep(user)}
	if prev := step.Previous(); prev != 0 && !user.HasCompleted(prev) {
		e.CanTake = false
		e.Reason = fmt.Sprintf("complete step %d first", int(prev))
	}
	return e, nil
}

// NextAvailableStep is the highest step the user can start.
func NextAvailableStep(user *models.User) models.Step {
	next := models.Step1
	for _, s := range models.AllSteps[1:] {
		if !user.HasCompleted(s.Previous()) {
			break
		}
		next = s
	}
	return next
}

// ApplyProgress records a result on the user. The step counts as completed
// when it unlocks the next one, or for the final step when any level was
// certified. The current level only goes up.
func ApplyProgress(user *models.User, result *models.AssessmentResult) {
	if result.CanProceed || (result.Step == models.FinalStep && result.Certified) {
		user.MarkCompleted(result.Step)
	}
	if result.LevelAchieved != nil {
		user.RaiseLevel(*result.LevelAchieved)
	}
}
