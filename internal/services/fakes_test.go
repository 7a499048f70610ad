package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"
	"gorm.io/datatypes"

	"github.com/SAP-F-2025/competency-assessment/internal/assessment"
	"github.com/SAP-F-2025/competency-assessment/internal/models"
	"github.com/SAP-F-2025/competency-assessment/internal/repositories"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// ===== MOCK REPOSITORIES =====

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) Update(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockUserRepository) List(ctx context.Context, filters repositories.UserFilters) ([]*models.User, int64, error) {
	args := m.Called(ctx, filters)
	return args.Get(0).([]*models.User), args.Get(1).(int64), args.Error(2)
}

func (m *MockUserRepository) SetBlocked(ctx context.Context, id string, blocked bool) error {
	args := m.Called(ctx, id, blocked)
	return args.Error(0)
}

func (m *MockUserRepository) UpdateLastLogin(ctx context.Context, id string, loginTime time.Time) error {
	args := m.Called(ctx, id, loginTime)
	return args.Error(0)
}

type MockQuestionRepository struct {
	mock.Mock
}

func (m *MockQuestionRepository) Create(ctx context.Context, question *models.Question) error {
	args := m.Called(ctx, question)
	return args.Error(0)
}

func (m *MockQuestionRepository) CreateBatch(ctx context.Context, questions []*models.Question) error {
	args := m.Called(ctx, questions)
	return args.Error(0)
}

func (m *MockQuestionRepository) GetByID(ctx context.Context, id string) (*models.Question, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Question), args.Error(1)
}

func (m *MockQuestionRepository) Update(ctx context.Context, question *models.Question) error {
	args := m.Called(ctx, question)
	return args.Error(0)
}

func (m *MockQuestionRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockQuestionRepository) List(ctx context.Context, filters repositories.QuestionFilters) ([]*models.Question, int64, error) {
	args := m.Called(ctx, filters)
	return args.Get(0).([]*models.Question), args.Get(1).(int64), args.Error(2)
}

func (m *MockQuestionRepository) CountByLevel(ctx context.Context) (map[models.Level]int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(map[models.Level]int64), args.Error(1)
}

func (m *MockQuestionRepository) DrawQuestions(ctx context.Context, level models.Level, n int) ([]models.Question, error) {
	args := m.Called(ctx, level, n)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Question), args.Error(1)
}

func (m *MockQuestionRepository) QuestionsByIDs(ctx context.Context, ids []string) ([]models.Question, error) {
	args := m.Called(ctx, ids)
	return args.Get(0).([]models.Question), args.Error(1)
}

type MockCompetencyRepository struct {
	mock.Mock
}

func (m *MockCompetencyRepository) Create(ctx context.Context, competency *models.Competency) error {
	args := m.Called(ctx, competency)
	return args.Error(0)
}

func (m *MockCompetencyRepository) GetByID(ctx context.Context, id string) (*models.Competency, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Competency), args.Error(1)
}

func (m *MockCompetencyRepository) GetByCode(ctx context.Context, code string) (*models.Competency, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Competency), args.Error(1)
}

func (m *MockCompetencyRepository) Update(ctx context.Context, competency *models.Competency) error {
	args := m.Called(ctx, competency)
	return args.Error(0)
}

func (m *MockCompetencyRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockCompetencyRepository) List(ctx context.Context) ([]*models.Competency, error) {
	args := m.Called(ctx)
	return args.Get(0).([]*models.Competency), args.Error(1)
}

func (m *MockCompetencyRepository) HasQuestions(ctx context.Context, id string) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

type MockResultRepository struct {
	mock.Mock
}

func (m *MockResultRepository) GetByID(ctx context.Context, id string) (*models.AssessmentResult, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AssessmentResult), args.Error(1)
}

func (m *MockResultRepository) GetBySession(ctx context.Context, sessionID string) (*models.AssessmentResult, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AssessmentResult), args.Error(1)
}

func (m *MockResultRepository) List(ctx context.Context, filters repositories.ResultFilters) ([]*models.AssessmentResult, int64, error) {
	args := m.Called(ctx, filters)
	return args.Get(0).([]*models.AssessmentResult), args.Get(1).(int64), args.Error(2)
}

func (m *MockResultRepository) BestForLevel(ctx context.Context, userID string, level models.Level) (*models.AssessmentResult, error) {
	args := m.Called(ctx, userID, level)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AssessmentResult), args.Error(1)
}

type MockCertificateRepository struct {
	mock.Mock
}

func (m *MockCertificateRepository) Create(ctx context.Context, cert *models.Certificate) (*models.Certificate, bool, error) {
	args := m.Called(ctx, cert)
	switch v := args.Get(0).(type) {
	case nil:
		return nil, args.Bool(1), args.Error(2)
	case func(*models.Certificate) *models.Certificate:
		return v(cert), args.Bool(1), args.Error(2)
	default:
		return v.(*models.Certificate), args.Bool(1), args.Error(2)
	}
}

func (m *MockCertificateRepository) GetByUserAndLevel(ctx context.Context, userID string, level models.Level) (*models.Certificate, error) {
	args := m.Called(ctx, userID, level)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Certificate), args.Error(1)
}

func (m *MockCertificateRepository) ListByUser(ctx context.Context, userID string) ([]*models.Certificate, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]*models.Certificate), args.Error(1)
}

type MockStatsRepository struct {
	mock.Mock
}

func (m *MockStatsRepository) UserStats(ctx context.Context, userID string) (*repositories.UserAssessmentStats, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repositories.UserAssessmentStats), args.Error(1)
}

func (m *MockStatsRepository) Dashboard(ctx context.Context) (*repositories.DashboardStats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repositories.DashboardStats), args.Error(1)
}

// mockRepository hands out the mocks above. Session is unused by the
// services under test and stays nil.
type mockRepository struct {
	users        *MockUserRepository
	questions    *MockQuestionRepository
	competencies *MockCompetencyRepository
	results      *MockResultRepository
	certificates *MockCertificateRepository
	stats        *MockStatsRepository
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		users:        new(MockUserRepository),
		questions:    new(MockQuestionRepository),
		competencies: new(MockCompetencyRepository),
		results:      new(MockResultRepository),
		certificates: new(MockCertificateRepository),
		stats:        new(MockStatsRepository),
	}
}

func (r *mockRepository) User() repositories.UserRepository             { return r.users }
func (r *mockRepository) Question() repositories.QuestionRepository     { return r.questions }
func (r *mockRepository) Competency() repositories.CompetencyRepository { return r.competencies }
func (r *mockRepository) Session() repositories.SessionRepository       { return nil }
func (r *mockRepository) Result() repositories.ResultRepository         { return r.results }
func (r *mockRepository) Certificate() repositories.CertificateRepository {
	return r.certificates
}
func (r *mockRepository) Stats() repositories.StatsRepository { return r.stats }

// ===== IN-MEMORY ENGINE PORTS =====

type memQuestionSource struct {
	byID map[string]models.Question
}

func newMemQuestionSource(perLevel int) *memQuestionSource {
	src := &memQuestionSource{byID: map[string]models.Question{}}
	for _, lvl := range models.AllLevels {
		for i := 0; i < perLevel; i++ {
			q := models.Question{
				ID:            fmt.Sprintf("%s-%d", lvl, i),
				Level:         lvl,
				Competency:    "Information Literacy",
				Text:          fmt.Sprintf("%s question %d", lvl, i),
				Options:       datatypes.JSONSlice[string]{"w", "x", "y", "z"},
				CorrectAnswer: 1,
			}
			src.byID[q.ID] = q
		}
	}
	return src
}

func (m *memQuestionSource) DrawQuestions(_ context.Context, level models.Level, n int) ([]models.Question, error) {
	out := make([]models.Question, 0, n)
	for i := 0; i < n; i++ {
		q, ok := m.byID[fmt.Sprintf("%s-%d", level, i)]
		if !ok {
			return nil, assessment.ErrInsufficientQuestions
		}
		out = append(out, q)
	}
	return out, nil
}

func (m *memQuestionSource) QuestionsByIDs(_ context.Context, ids []string) ([]models.Question, error) {
	out := make([]models.Question, 0, len(ids))
	for _, id := range ids {
		out = append(out, m.byID[id])
	}
	return out, nil
}

type memSessionStore struct {
	mu       sync.Mutex
	sessions map[string]*models.AssessmentSession
	results  map[string]*models.AssessmentResult
}

func newMemSessionStore() *memSessionStore {
	return &memSessionStore{
		sessions: map[string]*models.AssessmentSession{},
		results:  map[string]*models.AssessmentResult{},
	}
}

func (m *memSessionStore) CreateSession(_ context.Context, s *models.AssessmentSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = s.Clone()
	return nil
}

func (m *memSessionStore) GetSession(_ context.Context, id string) (*models.AssessmentSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, assessment.ErrSessionNotFound
	}
	return s.Clone(), nil
}

func (m *memSessionStore) GetActiveSession(_ context.Context, userID string) (*models.AssessmentSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.sessions {
		if s.UserID == userID && s.IsActive() {
			return s.Clone(), nil
		}
	}
	return nil, assessment.ErrSessionNotFound
}

func (m *memSessionStore) SyncProgress(_ context.Context, s *models.AssessmentSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = s.Clone()
	return nil
}

func (m *memSessionStore) CompleteSession(_ context.Context, s *models.AssessmentSession, r *models.AssessmentResult, progress func(*models.User)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = s.Clone()
	m.results[r.ID] = r
	progress(&models.User{ID: s.UserID})
	return nil
}

func (m *memSessionStore) EndSession(_ context.Context, s *models.AssessmentSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = s.Clone()
	return nil
}
