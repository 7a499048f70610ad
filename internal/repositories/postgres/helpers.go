package postgres

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/competency-assessment/internal/repositories"
)

const (
	defaultLimit = 20
	maxLimit     = 100
)

// SharedHelpers holds query building used by every repository.
type SharedHelpers struct {
	db *gorm.DB
}

func NewSharedHelpers(db *gorm.DB) *SharedHelpers {
	return &SharedHelpers{db: db}
}

// ApplyPage adds ORDER BY, LIMIT and OFFSET. sortBy must be one of allowed
// (json field names mapped to columns); anything else falls back to
// fallback.
func (h *SharedHelpers) ApplyPage(query *gorm.DB, page repositories.Page, allowed map[string]string, fallback string) *gorm.DB {
	return query.Order(OrderClause(page.SortBy, page.SortOrder, allowed, fallback)).
		Limit(NormalizeLimit(page.Limit)).
		Offset(max(page.Offset, 0))
}

// OrderClause builds a safe ORDER BY clause.
func OrderClause(sortBy, sortOrder string, allowed map[string]string, fallback string) string {
	column, ok := allowed[sortBy]
	if !ok {
		column = fallback
	}
	dir := "DESC"
	if strings.EqualFold(sortOrder, "asc") {
		dir = "ASC"
	}
	return column + " " + dir
}

func NormalizeLimit(limit int) int {
	switch {
	case limit <= 0:
		return defaultLimit
	case limit > maxLimit:
		return maxLimit
	default:
		return limit
	}
}

// notFound maps gorm's record-not-found onto the repository sentinel.
func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return repositories.ErrNotFound
	}
	return err
}

// likePattern escapes LIKE wildcards in a user search term.
func likePattern(term string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(strings.TrimSpace(term)) + "%"
}
