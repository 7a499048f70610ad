package assessment

import (
	"fmt"
	"time"
)

// Config holds the engine's tunables. The zero value is not usable; start
// from DefaultConfig.
type Config struct {
	QuestionsPerStep int
	TimePerQuestion  time.Duration
	WarningRatio     float64
	CriticalRatio    float64
	TickInterval     time.Duration
}

func DefaultConfig() Config {
	return Config{
		QuestionsPerStep: 44,
		TimePerQuestion:  time.Minute,
		WarningRatio:     0.25,
		CriticalRatio:    0.10,
		TickInterval:     time.Second,
	}
}

func (c Config) Validate() error {
	if c.QuestionsPerStep < 2 {
		return fmt.Errorf("questions per step must be at least 2, got %d", c.QuestionsPerStep)
	}
	if c.TimePerQuestion < time.Second {
		return fmt.Errorf("time per question must be at least 1s, got %s", c.TimePerQuestion)
	}
	if c.CriticalRatio <= 0 || c.WarningRatio <= c.CriticalRatio || c.WarningRatio >= 1 {
		return fmt.Errorf("ratios must satisfy 0 < critical (%v) < warning (%v) < 1", c.CriticalRatio, c.WarningRatio)
	}
	if c.TickInterval <= 0 {
		return fmt.Errorf("tick interval must be positive, got %s", c.TickInterval)
	}
	return nil
}

// TimeLimit returns the session length in seconds for n questions.
func (c Config) TimeLimit(n int) int {
	return n * int(c.TimePerQuestion/time.Second)
}
