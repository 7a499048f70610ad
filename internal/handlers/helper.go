package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/competency-assessment/internal/models"
	"github.com/SAP-F-2025/competency-assessment/internal/repositories"
)

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
)

type pageParams struct {
	Page  int
	Limit int
	Query repositories.Page
}

// parsePage reads page, limit, sortBy and sortOrder from the query string.
// Pages are 1-based.
func parsePage(c *gin.Context) pageParams {
	page, err := strconv.Atoi(c.Query("page"))
	if err != nil || page < 1 {
		page = 1
	}
	limit, err := strconv.Atoi(c.Query("limit"))
	if err != nil || limit < 1 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}

	order := strings.ToLower(c.Query("sortOrder"))
	if order != "asc" {
		order = "desc"
	}
	return pageParams{
		Page:  page,
		Limit: limit,
		Query: repositories.Page{
			Limit:     limit,
			Offset:    (page - 1) * limit,
			SortBy:    snakeCase(c.Query("sortBy")),
			SortOrder: order,
		},
	}
}

// snakeCase maps camelCase sort keys such as completedAt to column names.
func snakeCase(s string) string {
	var b strings.Builder
	for i, r := range s {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return b.String()
}

func ParseStringIDParam(c *gin.Context, param string) string {
	idStr := strings.TrimSpace(c.Param(param))
	if idStr == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, Response{
			Message: "Invalid " + param,
			Error:   &ErrorResponse{Message: "ID cannot be empty", Code: "bad_request"},
		})
		return ""
	}
	return idStr
}

func parseStep(raw string) (models.Step, bool) {
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	step := models.Step(n)
	return step, step.IsValid()
}

func parseLevel(raw string) (models.Level, bool) {
	level := models.Level(strings.ToUpper(strings.TrimSpace(raw)))
	return level, level.IsValid()
}

// optionalLevel parses an optional level query parameter; ok is false only
// when a value is present and invalid.
func optionalLevel(c *gin.Context, key string) (*models.Level, bool) {
	raw := c.Query(key)
	if raw == "" {
		return nil, true
	}
	level, ok := parseLevel(raw)
	if !ok {
		return nil, false
	}
	return &level, true
}

func optionalString(c *gin.Context, key string) *string {
	if v := strings.TrimSpace(c.Query(key)); v != "" {
		return &v
	}
	return nil
}
