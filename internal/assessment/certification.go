package assessment

import "github.com/SAP-F-2025/competency-assessment/internal/models"

// Certification is the outcome of mapping a step percentage onto the
// decision table.
type Certification struct {
	Label      string
	Level      *models.Level
	CanProceed bool
}

// Certified reports whether a level was awarded.
func (c Certification) Certified() bool {
	return c.Level != nil
}

type band struct {
	below      float64
	label      string
	level      models.Level
	canProceed bool
}

// Bands are checked in order; the first whose bound exceeds the percentage
// wins. An empty level means nothing was awarded.
var certificationTable = map[models.Step][]band{
	models.Step1: {
		{below: 25, label: "Failed - No retake allowed"},
		{below: 50, label: "A1 Certified", level: models.LevelA1},
		{below: 75, label: "A2 Certified", level: models.LevelA2},
		{below: 101, label: "A2 Certified", level: models.LevelA2, canProceed: true},
	},
	models.Step2: {
		{below: 25, label: "Remain at A2"},
		{below: 50, label: "B1 Certified", level: models.LevelB1},
		{below: 75, label: "B2 Certified", level: models.LevelB2},
		{below: 101, label: "B2 Certified", level: models.LevelB2, canProceed: true},
	},
	models.Step3: {
		{below: 25, label: "Remain at B2"},
		{below: 50, label: "C1 Certified", level: models.LevelC1},
		{below: 101, label: "C2 Certified", level: models.LevelC2},
	},
}

func (b band) certification() Certification {
	c := Certification{Label: b.label, CanProceed: b.canProceed}
	if b.level != "" {
		lvl := b.level
		c.Level = &lvl
	}
	return c
}

// Certify maps a percentage for step onto its certification. It returns
// ErrInvalidStep for steps outside 1..3.
func Certify(step models.Step, percentage float64) (Certification, error) {
	bands, ok := certificationTable[step]
	if !ok {
		return Certification{}, ErrInvalidStep
	}
	for _, b := range bands {
		if percentage < b.below {
			return b.certification(), nil
		}
	}
	return bands[len(bands)-1].certification(), nil
}
