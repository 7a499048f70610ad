package assessment

import (
	"math"
	"time"

	"github.com/SAP-F-2025/competency-assessment/internal/models"
	"gorm.io/datatypes"
)

// Score is the raw outcome of comparing answers with correct options.
type Score struct {
	Correct    int
	Total      int
	Percentage float64
}

// ScoreAnswers counts matches between answers and the questions' correct
// options. Unanswered and missing slots count as incorrect.
func ScoreAnswers(questions []models.Question, answers []*int) Score {
	sc := Score{Total: len(questions)}
	for i := range questions {
		if i < len(answers) && questions[i].IsCorrect(answers[i]) {
			sc.Correct++
		}
	}
	if sc.Total > 0 {
		sc.Percentage = RoundPercentage(float64(sc.Correct) / float64(sc.Total) * 100)
	}
	return sc
}

// RoundPercentage rounds to two decimal places.
func RoundPercentage(p float64) float64 {
	return math.Round(p*100) / 100
}

// Evaluate scores a session and builds its result. The result has no ID; the
// caller assigns one when persisting.
func Evaluate(s *models.AssessmentSession, reason models.EndReason, now time.Time) (*models.AssessmentResult, error) {
	sc := ScoreAnswers(s.Questions, s.Answers)
	cert, err := Certify(s.Step, sc.Percentage)
	if err != nil {
		return nil, err
	}

	spent := int(now.Sub(s.StartedAt) / time.Second)
	if spent < 0 {
		spent = 0
	}
	if spent > s.TimeLimit {
		spent = s.TimeLimit
	}

	answers := make(datatypes.JSONSlice[*int], len(s.Answers))
	for i, a := range s.Answers {
		if a != nil {
			v := *a
			answers[i] = &v
		}
	}

	return &models.AssessmentResult{
		UserID:         s.UserID,
		SessionID:      s.ID,
		Step:           s.Step,
		Score:          sc.Correct,
		TotalQuestions: sc.Total,
		Percentage:     sc.Percentage,
		LevelAchieved:  cert.Level,
		Certification:  cert.Label,
		Certified:      cert.Certified(),
		CanProceed:     cert.CanProceed,
		Answers:        answers,
		EndReason:      reason,
		TimeSpent:      spent,
		CompletedAt:    now,
	}, nil
}
