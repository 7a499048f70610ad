package models

import "fmt"

// Level is one of the six ordered CEFR competency bands.
type Level string

const (
	LevelA1 Level = "A1"
	LevelA2 Level = "A2"
	LevelB1 Level = "B1"
	LevelB2 Level = "B2"
	LevelC1 Level = "C1"
	LevelC2 Level = "C2"
)

// AllLevels lists the levels from lowest to highest.
var AllLevels = []Level{LevelA1, LevelA2, LevelB1, LevelB2, LevelC1, LevelC2}

// Rank returns 1 for A1 through 6 for C2, and 0 for an unknown level.
func (l Level) Rank() int {
	for i, lvl := range AllLevels {
		if lvl == l {
			return i + 1
		}
	}
	return 0
}

func (l Level) IsValid() bool {
	return l.Rank() > 0
}

// Step is one of the three sequential assessment phases.
type Step int

const (
	Step1 Step = 1
	Step2 Step = 2
	Step3 Step = 3
)

// FinalStep is the last step; nothing unlocks after it.
const FinalStep = Step3

var AllSteps = []Step{Step1, Step2, Step3}

func (s Step) IsValid() bool {
	return s >= Step1 && s <= FinalStep
}

// Levels returns the two adjacent levels covered by the step.
func (s Step) Levels() []Level {
	switch s {
	case Step1:
		return []Level{LevelA1, LevelA2}
	case Step2:
		return []Level{LevelB1, LevelB2}
	case Step3:
		return []Level{LevelC1, LevelC2}
	default:
		return nil
	}
}

// Previous returns the step that must be completed before s, or 0 for step 1.
func (s Step) Previous() Step {
	if s <= Step1 {
		return 0
	}
	return s - 1
}

func (s Step) String() string {
	return fmt.Sprintf("step %d", int(s))
}

// Title is the display name used by the step picker.
func (s Step) Title() string {
	switch s {
	case Step1:
		return "Foundation (A1-A2)"
	case Step2:
		return "Intermediate (B1-B2)"
	case Step3:
		return "Advanced (C1-C2)"
	default:
		return ""
	}
}
