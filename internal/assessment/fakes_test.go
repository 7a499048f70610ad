package assessment

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"github.com/SAP-F-2025/competency-assessment/internal/models"
)

var errStoreDown = errors.New("connection refused")

type memQuestions struct {
	byLevel map[models.Level][]models.Question
	byID    map[string]models.Question
}

// newMemQuestions builds perLevel questions for every level. Question i of a
// level has correct answer i%4.
func newMemQuestions(perLevel int) *memQuestions {
	m := &memQuestions{byLevel: map[models.Level][]models.Question{}, byID: map[string]models.Question{}}
	for _, lvl := range models.AllLevels {
		for i := 0; i < perLevel; i++ {
			q := models.Question{
				ID:            fmt.Sprintf("%s-%d", lvl, i),
				Level:         lvl,
				Competency:    "Digital Security",
				Text:          fmt.Sprintf("question %d for %s", i, lvl),
				Options:       datatypes.JSONSlice[string]{"a", "b", "c", "d"},
				CorrectAnswer: i % 4,
			}
			m.byLevel[lvl] = append(m.byLevel[lvl], q)
			m.byID[q.ID] = q
		}
	}
	return m
}

func (m *memQuestions) DrawQuestions(_ context.Context, level models.Level, n int) ([]models.Question, error) {
	pool := m.byLevel[level]
	if n > len(pool) {
		n = len(pool)
	}
	return append([]models.Question(nil), pool[:n]...), nil
}

// rekey flips the correct answer of every pooled question.
func (m *memQuestions) rekey() {
	for lvl, pool := range m.byLevel {
		for i := range pool {
			pool[i].CorrectAnswer = (pool[i].CorrectAnswer + 1) % len(pool[i].Options)
			m.byID[pool[i].ID] = pool[i]
		}
		m.byLevel[lvl] = pool
	}
}

func (m *memQuestions) QuestionsByIDs(_ context.Context, ids []string) ([]models.Question, error) {
	out := make([]models.Question, 0, len(ids))
	for _, id := range ids {
		q, ok := m.byID[id]
		if !ok {
			return nil, fmt.Errorf("question %s missing", id)
		}
		out = append(out, q)
	}
	return out, nil
}

type memStore struct {
	mu       sync.Mutex
	sessions map[string]*models.AssessmentSession
	results  []*models.AssessmentResult
	users    map[string]*models.User

	failCreate   error
	failSync     error
	failComplete error
	syncs        int
	// gate, when set, holds CompleteSession until it is closed.
	gate chan struct{}
}

func newMemStore() *memStore {
	return &memStore{sessions: map[string]*models.AssessmentSession{}, users: map[string]*models.User{}}
}

func (m *memStore) CreateSession(_ context.Context, s *models.AssessmentSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failCreate != nil {
		return m.failCreate
	}
	m.sessions[s.ID] = stored(s)
	return nil
}

// stored mimics a database row. The issued questions travel with it as
// copies, so later changes to the pool do not reach them.
func stored(s *models.AssessmentSession) *models.AssessmentSession {
	return s.Clone()
}

// dropQuestions turns the stored row of id into one written before issued
// questions were kept on the session.
func (m *memStore) dropQuestions(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[id].Questions = nil
}

func (m *memStore) GetSession(_ context.Context, id string) (*models.AssessmentSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s.Clone(), nil
}

func (m *memStore) GetActiveSession(_ context.Context, userID string) (*models.AssessmentSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.sessions {
		if s.UserID == userID && s.IsActive() {
			return s.Clone(), nil
		}
	}
	return nil, ErrSessionNotFound
}

func (m *memStore) SyncProgress(_ context.Context, s *models.AssessmentSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failSync != nil {
		return m.failSync
	}
	m.syncs++
	row := m.sessions[s.ID]
	row.Answers = s.Clone().Answers
	row.CurrentQuestionIndex = s.CurrentQuestionIndex
	return nil
}

func (m *memStore) CompleteSession(_ context.Context, s *models.AssessmentSession, r *models.AssessmentResult, progress func(*models.User)) error {
	if m.gate != nil {
		<-m.gate
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failComplete != nil {
		return m.failComplete
	}
	m.sessions[s.ID] = stored(s)
	m.results = append(m.results, r)
	u, ok := m.users[s.UserID]
	if !ok {
		u = &models.User{ID: s.UserID}
		m.users[s.UserID] = u
	}
	progress(u)
	return nil
}

func (m *memStore) EndSession(_ context.Context, s *models.AssessmentSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = stored(s)
	return nil
}

func (m *memStore) resultCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.results)
}

func (m *memStore) setFailComplete(err error) {
	m.mu.Lock()
	m.failComplete = err
	m.mu.Unlock()
}

func testConfig() Config {
	return Config{
		QuestionsPerStep: 4,
		TimePerQuestion:  10 * time.Second,
		WarningRatio:     0.25,
		CriticalRatio:    0.10,
		TickInterval:     time.Hour,
	}
}

var testStart = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

type engineFixture struct {
	engine    *Engine
	store     *memStore
	questions *memQuestions
	clock     *ManualClock
}

func newFixture(t *testing.T, cfg Config, opts ...Option) *engineFixture {
	t.Helper()
	f := &engineFixture{
		store:     newMemStore(),
		questions: newMemQuestions(2),
		clock:     NewManualClock(testStart),
	}
	f.engine = f.newEngine(t, cfg, opts...)
	return f
}

// newEngine builds another engine over the same store and clock, as after a
// process restart.
func (f *engineFixture) newEngine(t *testing.T, cfg Config, opts ...Option) *Engine {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	opts = append([]Option{WithClock(f.clock)}, opts...)
	e, err := NewEngine(cfg, f.questions, f.store, logger, opts...)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = e.Shutdown(context.Background())
	})
	return e
}

func student(id string, completed ...models.Step) *models.User {
	return &models.User{ID: id, Role: models.RoleStudent, CompletedSteps: completed}
}

// answerCorrectly answers every question of level lvl correctly and the
// rest wrongly.
func answerCorrectly(t *testing.T, e *Engine, snap *Snapshot, lvl models.Level) {
	t.Helper()
	for i, q := range snap.Session.Questions {
		option := (q.CorrectAnswer + 1) % len(q.Options)
		if q.Level == lvl {
			option = q.CorrectAnswer
		}
		_, err := e.Answer(context.Background(), snap.Session.ID, i, option)
		require.NoError(t, err)
	}
}
