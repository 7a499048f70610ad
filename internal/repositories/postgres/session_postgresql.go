package postgres

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/SAP-F-2025/competency-assessment/internal/assessment"
	"github.com/SAP-F-2025/competency-assessment/internal/models"
	"github.com/SAP-F-2025/competency-assessment/internal/repositories"
)

// errSessionClosed is returned when a terminal write finds the row already
// ended by someone else.
var errSessionClosed = errors.New("session row is no longer active")

var sessionSortColumns = map[string]string{
	"start_time": "started_at",
	"created_at": "created_at",
	"step":       "step",
}

type SessionPostgreSQL struct {
	db      *gorm.DB
	helpers *SharedHelpers
}

func NewSessionPostgreSQL(db *gorm.DB) repositories.SessionRepository {
	return &SessionPostgreSQL{
		db:      db,
		helpers: NewSharedHelpers(db),
	}
}

func (s *SessionPostgreSQL) CreateSession(ctx context.Context, session *models.AssessmentSession) error {
	if err := s.db.WithContext(ctx).Create(session).Error; err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

func (s *SessionPostgreSQL) GetSession(ctx context.Context, id string) (*models.AssessmentSession, error) {
	var session models.AssessmentSession
	if err := s.db.WithContext(ctx).First(&session, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, assessment.ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return &session, nil
}

func (s *SessionPostgreSQL) GetActiveSession(ctx context.Context, userID string) (*models.AssessmentSession, error) {
	var session models.AssessmentSession
	if err := s.db.WithContext(ctx).
		Where("user_id = ? AND status = ?", userID, models.SessionActive).
		Order("started_at DESC").
		First(&session).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, assessment.ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to get active session: %w", err)
	}
	return &session, nil
}

func (s *SessionPostgreSQL) SyncProgress(ctx context.Context, session *models.AssessmentSession) error {
	res := s.db.WithContext(ctx).
		Model(&models.AssessmentSession{}).
		Where("id = ? AND status = ?", session.ID, models.SessionActive).
		Updates(map[string]interface{}{
			"answers":                session.Answers,
			"current_question_index": session.CurrentQuestionIndex,
		})
	if res.Error != nil {
		return fmt.Errorf("failed to sync session progress: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return errSessionClosed
	}
	return nil
}

func (s *SessionPostgreSQL) CompleteSession(ctx context.Context, session *models.AssessmentSession, result *models.AssessmentResult, progress func(*models.User)) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := endSession(tx, session); err != nil {
			return err
		}
		if err := tx.Create(result).Error; err != nil {
			return fmt.Errorf("failed to create result: %w", err)
		}

		var user models.User
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&user, "id = ?", session.UserID).Error; err != nil {
			return fmt.Errorf("failed to lock user %s: %w", session.UserID, err)
		}
		progress(&user)
		if err := tx.Model(&user).Select("current_level", "completed_steps").Updates(&user).Error; err != nil {
			return fmt.Errorf("failed to update user progress: %w", err)
		}
		return nil
	})
}

func (s *SessionPostgreSQL) EndSession(ctx context.Context, session *models.AssessmentSession) error {
	return endSession(s.db.WithContext(ctx), session)
}

func endSession(db *gorm.DB, session *models.AssessmentSession) error {
	res := db.Model(&models.AssessmentSession{}).
		Where("id = ? AND status = ?", session.ID, models.SessionActive).
		Updates(map[string]interface{}{
			"status":                 session.Status,
			"end_reason":             session.EndReason,
			"ended_at":               session.EndedAt,
			"answers":                session.Answers,
			"current_question_index": session.CurrentQuestionIndex,
		})
	if res.Error != nil {
		return fmt.Errorf("failed to end session: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return errSessionClosed
	}
	return nil
}

func (s *SessionPostgreSQL) ListByUser(ctx context.Context, userID string, page repositories.Page) ([]*models.AssessmentSession, int64, error) {
	var sessions []*models.AssessmentSession
	var total int64

	query := s.db.WithContext(ctx).Model(&models.AssessmentSession{}).Where("user_id = ?", userID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count sessions: %w", err)
	}
	query = s.helpers.ApplyPage(query, page, sessionSortColumns, "started_at")
	if err := query.Find(&sessions).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list sessions: %w", err)
	}
	return sessions, total, nil
}

func (s *SessionPostgreSQL) CountActive(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&models.AssessmentSession{}).
		Where("status = ?", models.SessionActive).
		Count(&count).Error
	return count, err
}
