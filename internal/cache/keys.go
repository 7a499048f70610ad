package cache

import (
	"fmt"
	"time"
)

// TTLs for cached read models.
const (
	QuestionTTL       = 30 * time.Minute
	UserStatsTTL      = 5 * time.Minute
	DashboardStatsTTL = time.Minute
)

func QuestionKey(id string) string {
	return fmt.Sprintf("question:%s", id)
}

func UserStatsKey(userID string) string {
	return fmt.Sprintf("user:%s:stats", userID)
}

func DashboardStatsKey() string {
	return "admin:dashboard"
}
