package config

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SAP-F-2025/competency-assessment/internal/events"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("ENVIRONMENT", "production")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 44, cfg.Assessment.QuestionsPerStep)
	assert.Equal(t, time.Minute, cfg.Assessment.TimePerQuestion)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, []string{"admin"}, cfg.Auth.AdminRoles)
	assert.False(t, cfg.Events.Enabled)
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("ASSESSMENT_QUESTIONS_PER_STEP", "10")
	t.Setenv("ASSESSMENT_TIME_PER_QUESTION", "30s")
	t.Setenv("CASDOOR_ADMIN_ROLES", "admin, supervisor ,")
	t.Setenv("RATE_LIMIT_ENABLED", "false")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 10, cfg.Assessment.QuestionsPerStep)
	assert.Equal(t, 30*time.Second, cfg.Assessment.TimePerQuestion)
	assert.Equal(t, []string{"admin", "supervisor"}, cfg.Auth.AdminRoles)
	assert.False(t, cfg.RateLimit.Enabled)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.Equal(t, 300, cfg.Assessment.Engine().TimeLimit(10))
}

func TestLoadConfigRejectsBadRatios(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("ASSESSMENT_WARNING_RATIO", "0.05")
	t.Setenv("ASSESSMENT_CRITICAL_RATIO", "0.5")

	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestCreateEventPublisher(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	cfg := EventConfig{Enabled: false}
	pub, err := cfg.CreateEventPublisher(logger)
	require.NoError(t, err)
	assert.IsType(t, &events.MockEventPublisher{}, pub)

	cfg = EventConfig{Enabled: true, Publisher: "carrier-pigeon"}
	_, err = cfg.CreateEventPublisher(logger)
	assert.Error(t, err)

	cfg = EventConfig{Enabled: true, Publisher: "kafka", KafkaBrokers: " , "}
	_, err = cfg.CreateEventPublisher(logger)
	assert.Error(t, err)

	cfg = EventConfig{Enabled: true, Publisher: "gochannel", NotificationTopic: "assessment-events"}
	pub, err = cfg.CreateEventPublisher(logger)
	require.NoError(t, err)
	assert.IsType(t, &events.WatermillEventPublisher{}, pub)
	assert.NoError(t, pub.Close())

	cfg = EventConfig{KafkaBrokers: "a:9092, b:9092,"}
	assert.Equal(t, []string{"a:9092", "b:9092"}, cfg.GetKafkaBrokers())
}
