package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/competency-assessment/internal/assessment"
	"github.com/SAP-F-2025/competency-assessment/internal/cache"
	"github.com/SAP-F-2025/competency-assessment/internal/models"
	"github.com/SAP-F-2025/competency-assessment/internal/repositories"
)

var questionSortColumns = map[string]string{
	"created_at": "created_at",
	"level":      "level",
	"competency": "competency",
}

type QuestionPostgreSQL struct {
	db      *gorm.DB
	helpers *SharedHelpers
	cache   cache.CacheService
	logger  *slog.Logger
}

func NewQuestionPostgreSQL(db *gorm.DB, cacheService cache.CacheService, logger *slog.Logger) repositories.QuestionRepository {
	return &QuestionPostgreSQL{
		db:      db,
		helpers: NewSharedHelpers(db),
		cache:   cacheService,
		logger:  logger,
	}
}

// ===== BASIC OPERATIONS =====

func (q *QuestionPostgreSQL) Create(ctx context.Context, question *models.Question) error {
	if err := q.db.WithContext(ctx).Create(question).Error; err != nil {
		return fmt.Errorf("failed to create question: %w", err)
	}
	return nil
}

func (q *QuestionPostgreSQL) CreateBatch(ctx context.Context, questions []*models.Question) error {
	if len(questions) == 0 {
		return nil
	}
	if err := q.db.WithContext(ctx).CreateInBatches(questions, 100).Error; err != nil {
		return fmt.Errorf("failed to create questions: %w", err)
	}
	return nil
}

func (q *QuestionPostgreSQL) GetByID(ctx context.Context, id string) (*models.Question, error) {
	var question models.Question
	if err := q.db.WithContext(ctx).First(&question, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &question, nil
}

// Update changes the pool only. Sessions carry the copy issued at start in
// their own row.
func (q *QuestionPostgreSQL) Update(ctx context.Context, question *models.Question) error {
	res := q.db.WithContext(ctx).Model(question).Select("*").Omit("id", "created_at", "deleted_at").Updates(question)
	if res.Error != nil {
		return fmt.Errorf("failed to update question: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return repositories.ErrNotFound
	}
	return nil
}

func (q *QuestionPostgreSQL) Delete(ctx context.Context, id string) error {
	res := q.db.WithContext(ctx).Delete(&models.Question{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete question: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return repositories.ErrNotFound
	}
	return nil
}

// ===== QUERY OPERATIONS =====

func (q *QuestionPostgreSQL) List(ctx context.Context, filters repositories.QuestionFilters) ([]*models.Question, int64, error) {
	var questions []*models.Question
	var total int64

	query := q.db.WithContext(ctx).Model(&models.Question{})
	if filters.Level != nil {
		query = query.Where("level = ?", *filters.Level)
	}
	if filters.CompetencyID != nil {
		query = query.Where("competency_id = ?", *filters.CompetencyID)
	}
	if filters.Search != "" {
		p := likePattern(filters.Search)
		query = query.Where("text ILIKE ? OR competency ILIKE ?", p, p)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count questions: %w", err)
	}
	query = q.helpers.ApplyPage(query, filters.Page, questionSortColumns, "created_at")
	if err := query.Find(&questions).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list questions: %w", err)
	}
	return questions, total, nil
}

func (q *QuestionPostgreSQL) CountByLevel(ctx context.Context) (map[models.Level]int64, error) {
	var rows []struct {
		Level models.Level
		Count int64
	}
	if err := q.db.WithContext(ctx).
		Model(&models.Question{}).
		Select("level, COUNT(*) AS count").
		Group("level").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to count questions by level: %w", err)
	}
	counts := make(map[models.Level]int64, len(models.AllLevels))
	for _, lvl := range models.AllLevels {
		counts[lvl] = 0
	}
	for _, r := range rows {
		counts[r.Level] = r.Count
	}
	return counts, nil
}

// ===== ENGINE SUPPLY =====

func (q *QuestionPostgreSQL) DrawQuestions(ctx context.Context, level models.Level, n int) ([]models.Question, error) {
	var questions []models.Question
	if err := q.db.WithContext(ctx).
		Where("level = ?", level).
		Order("RANDOM()").
		Limit(n).
		Find(&questions).Error; err != nil {
		return nil, fmt.Errorf("failed to draw questions: %w", err)
	}
	if len(questions) < n {
		return nil, fmt.Errorf("%w: level %s has %d of %d", assessment.ErrInsufficientQuestions, level, len(questions), n)
	}
	for i := range questions {
		q.remember(ctx, &questions[i])
	}
	return questions, nil
}

// QuestionsByIDs returns questions in the order of ids, including ones that
// were deleted from the pool after being issued. Only session rows stored
// without their issued questions need it.
func (q *QuestionPostgreSQL) QuestionsByIDs(ctx context.Context, ids []string) ([]models.Question, error) {
	found := make(map[string]models.Question, len(ids))
	var missing []string
	for _, id := range ids {
		var cached models.Question
		if err := q.cache.Get(ctx, cache.QuestionKey(id), &cached); err == nil {
			found[id] = cached
			continue
		} else if !errors.Is(err, cache.ErrCacheMiss) {
			q.logger.Warn("Question cache unavailable", "question_id", id, "error", err)
		}
		missing = append(missing, id)
	}

	if len(missing) > 0 {
		var rows []models.Question
		if err := q.db.WithContext(ctx).Unscoped().Where("id IN ?", missing).Find(&rows).Error; err != nil {
			return nil, fmt.Errorf("failed to load questions: %w", err)
		}
		for i := range rows {
			found[rows[i].ID] = rows[i]
			q.remember(ctx, &rows[i])
		}
	}

	out := make([]models.Question, 0, len(ids))
	for _, id := range ids {
		question, ok := found[id]
		if !ok {
			return nil, fmt.Errorf("question %s: %w", id, repositories.ErrNotFound)
		}
		out = append(out, question)
	}
	return out, nil
}

func (q *QuestionPostgreSQL) remember(ctx context.Context, question *models.Question) {
	if err := q.cache.Set(ctx, cache.QuestionKey(question.ID), question, cache.QuestionTTL); err != nil {
		q.logger.Debug("Failed to cache question", "question_id", question.ID, "error", err)
	}
}

// ===== COMPETENCIES =====

type CompetencyPostgreSQL struct {
	db *gorm.DB
}

func NewCompetencyPostgreSQL(db *gorm.DB) repositories.CompetencyRepository {
	return &CompetencyPostgreSQL{db: db}
}

func (c *CompetencyPostgreSQL) Create(ctx context.Context, competency *models.Competency) error {
	if err := c.db.WithContext(ctx).Create(competency).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return repositories.ErrDuplicate
		}
		return fmt.Errorf("failed to create competency: %w", err)
	}
	return nil
}

func (c *CompetencyPostgreSQL) GetByID(ctx context.Context, id string) (*models.Competency, error) {
	var competency models.Competency
	if err := c.db.WithContext(ctx).First(&competency, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &competency, nil
}

func (c *CompetencyPostgreSQL) GetByCode(ctx context.Context, code string) (*models.Competency, error) {
	var competency models.Competency
	if err := c.db.WithContext(ctx).First(&competency, "code = ?", code).Error; err != nil {
		return nil, notFound(err)
	}
	return &competency, nil
}

func (c *CompetencyPostgreSQL) Update(ctx context.Context, competency *models.Competency) error {
	if err := c.db.WithContext(ctx).Save(competency).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return repositories.ErrDuplicate
		}
		return fmt.Errorf("failed to update competency: %w", err)
	}
	return nil
}

func (c *CompetencyPostgreSQL) Delete(ctx context.Context, id string) error {
	res := c.db.WithContext(ctx).Delete(&models.Competency{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete competency: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return repositories.ErrNotFound
	}
	return nil
}

func (c *CompetencyPostgreSQL) List(ctx context.Context) ([]*models.Competency, error) {
	var competencies []*models.Competency
	if err := c.db.WithContext(ctx).Order("code ASC").Find(&competencies).Error; err != nil {
		return nil, fmt.Errorf("failed to list competencies: %w", err)
	}
	return competencies, nil
}

func (c *CompetencyPostgreSQL) HasQuestions(ctx context.Context, id string) (bool, error) {
	var count int64
	if err := c.db.WithContext(ctx).
		Model(&models.Question{}).
		Where("competency_id = ?", id).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
