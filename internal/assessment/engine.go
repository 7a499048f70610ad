package assessment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/SAP-F-2025/competency-assessment/internal/models"
)

const autoSubmitTimeout = 15 * time.Second

// settleWait bounds how long Start waits for another submit of an expired
// session to finish.
const settleWait = 5 * time.Second

type Direction string

const (
	DirectionNext     Direction = "next"
	DirectionPrevious Direction = "previous"
)

// Snapshot is a point-in-time copy of a session and its timer.
type Snapshot struct {
	Session *models.AssessmentSession `json:"session"`
	Timer   TimerState                `json:"timer"`
}

// AnswerOutcome reports a recorded answer. Synced is false when the answer
// is held locally but could not be stored.
type AnswerOutcome struct {
	Snapshot *Snapshot
	Synced   bool
}

type Option func(*Engine)

func WithClock(c Clock) Option {
	return func(e *Engine) { e.clock = c }
}

// WithNotifier adds a notifier next to the engine's own hub.
func WithNotifier(n Notifier) Option {
	return func(e *Engine) { e.notifiers = append(e.notifiers, n) }
}

func WithHub(h *Hub) Option {
	return func(e *Engine) { e.hub = h }
}

// Engine owns every live session: it serialises their mutations, runs their
// timers and turns finished sessions into results.
type Engine struct {
	cfg       Config
	questions QuestionSource
	store     SessionStore
	clock     Clock
	hub       *Hub
	notifiers Notifiers
	logger    *slog.Logger

	starts *keyedMutex

	mu     sync.Mutex
	byID   map[string]*liveSession
	byUser map[string]*liveSession
	closed bool
	wg     sync.WaitGroup
}

type liveSession struct {
	mu         sync.Mutex
	session    *models.AssessmentSession
	timer      *Timer
	submitting bool
	// settled is closed when the submit holding the session finishes or
	// gives up. result is set once the session ends with one.
	settled chan struct{}
	result  *models.AssessmentResult
	// rev counts local mutations; syncedRev is the newest one stored.
	rev       uint64
	syncMu    sync.Mutex
	syncedRev uint64

	stop     chan struct{}
	stopOnce sync.Once
}

func (ls *liveSession) snapshot() *Snapshot {
	return &Snapshot{Session: ls.session.Clone(), Timer: ls.timer.State()}
}

// claim moves an active session into submitting. It must run under ls.mu.
func (ls *liveSession) claim() error {
	switch ls.session.Status {
	case models.SessionSubmitted, models.SessionTimedOut:
		return ErrAlreadySubmitted
	case models.SessionActive:
		if ls.submitting {
			return ErrAlreadySubmitted
		}
		ls.submitting = true
		ls.settled = make(chan struct{})
		return nil
	default:
		return ErrSessionNotActive
	}
}

func (ls *liveSession) release() {
	ls.mu.Lock()
	ls.settle()
	ls.mu.Unlock()
}

// settle ends the current claim. It must run under ls.mu.
func (ls *liveSession) settle() {
	ls.submitting = false
	if ls.settled != nil {
		close(ls.settled)
		ls.settled = nil
	}
}

func (ls *liveSession) halt() {
	ls.stopOnce.Do(func() {
		if ls.stop != nil {
			close(ls.stop)
		}
	})
}

func NewEngine(cfg Config, questions QuestionSource, store SessionStore, logger *slog.Logger, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid engine config: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	e := &Engine{
		cfg:       cfg,
		questions: questions,
		store:     store,
		clock:     SystemClock,
		logger:    logger,
		starts:    newKeyedMutex(),
		byID:      make(map[string]*liveSession),
		byUser:    make(map[string]*liveSession),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.hub == nil {
		e.hub = NewHub(16)
	}
	return e, nil
}

func (e *Engine) Config() Config { return e.cfg }

// CanTake reports whether user may start step.
func (e *Engine) CanTake(_ context.Context, user *models.User, step models.Step) (Eligibility, error) {
	return CheckEligibility(user, step)
}

// Start returns the user's active session if there is one, whatever step was
// asked for. Otherwise it checks eligibility and creates a new session. An
// active session whose time already ran out is submitted first.
func (e *Engine) Start(ctx context.Context, user *models.User, step models.Step) (*Snapshot, error) {
	if !step.IsValid() {
		return nil, ErrInvalidStep
	}
	if e.isClosed() {
		return nil, ErrEngineClosed
	}

	unlock := e.starts.Lock(user.ID)
	defer unlock()

	current, err := e.activeFor(ctx, user.ID)
	if err != nil && !errors.Is(err, ErrSessionNotFound) {
		return nil, err
	}
	if current != nil {
		snap, ended, err := e.resume(ctx, current)
		if err != nil {
			return nil, err
		}
		if ended != nil {
			user = withProgress(user, ended)
		}
		if snap != nil {
			e.logger.Info("Resuming active session",
				"session_id", snap.Session.ID,
				"user_id", user.ID,
				"step", snap.Session.Step,
				"requested_step", step)
			return snap, nil
		}
	}

	elig, err := CheckEligibility(user, step)
	if err != nil {
		return nil, err
	}
	if !elig.CanTake {
		return nil, &IneligibleError{Step: step, Reason: elig.Reason}
	}

	questions, err := e.draw(ctx, step)
	if err != nil {
		return nil, err
	}

	now := e.clock.Now()
	ids := make(datatypes.JSONSlice[string], len(questions))
	for i, q := range questions {
		ids[i] = q.ID
	}
	session := &models.AssessmentSession{
		ID:          uuid.NewString(),
		UserID:      user.ID,
		Step:        step,
		QuestionIDs: ids,
		Questions:   questions,
		Answers:     make(datatypes.JSONSlice[*int], len(questions)),
		StartedAt:   now,
		TimeLimit:   e.cfg.TimeLimit(len(questions)),
		Status:      models.SessionActive,
	}

	if err := e.store.CreateSession(ctx, session); err != nil {
		e.logger.Error("Failed to create session", "user_id", user.ID, "step", step, "error", err)
		return nil, transport("create session", err)
	}

	ls, err := e.register(e.newLive(session))
	if err != nil {
		return nil, err
	}

	e.logger.Info("Assessment session started",
		"session_id", session.ID,
		"user_id", user.ID,
		"step", step,
		"questions", len(questions),
		"time_limit", session.TimeLimit)

	ls.mu.Lock()
	snap := ls.snapshot()
	ls.mu.Unlock()
	e.notify(ctx, Event{Type: EventSessionStarted, SessionID: session.ID, UserID: user.ID, Step: step, At: now, Snapshot: snap})
	return snap, nil
}

// Answer records option for the question at index. It does not move the
// question pointer.
func (e *Engine) Answer(ctx context.Context, sessionID string, index, option int) (*AnswerOutcome, error) {
	ls, err := e.lookup(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	ls.mu.Lock()
	if err := e.checkWritable(ls); err != nil {
		ls.mu.Unlock()
		return nil, err
	}
	s := ls.session
	if index < 0 || index >= len(s.Questions) {
		ls.mu.Unlock()
		return nil, fmt.Errorf("%w: question %d of %d", ErrInvalidIndex, index, len(s.Questions))
	}
	if option < 0 || option >= len(s.Questions[index].Options) {
		ls.mu.Unlock()
		return nil, fmt.Errorf("%w: option %d of %d", ErrInvalidIndex, option, len(s.Questions[index].Options))
	}
	v := option
	s.Answers[index] = &v
	ls.rev++
	rev := ls.rev
	snap := ls.snapshot()
	ls.mu.Unlock()

	synced := e.sync(ctx, ls, snap, rev)
	return &AnswerOutcome{Snapshot: snap, Synced: synced}, nil
}

// Advance moves the question pointer. previous at the first question is a
// no-op; next at the last question returns ErrSubmissionDue.
func (e *Engine) Advance(ctx context.Context, sessionID string, dir Direction) (*Snapshot, error) {
	ls, err := e.lookup(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	ls.mu.Lock()
	if err := e.checkWritable(ls); err != nil {
		ls.mu.Unlock()
		return nil, err
	}
	s := ls.session
	moved := false
	switch dir {
	case DirectionNext:
		if s.CurrentQuestionIndex >= len(s.Questions)-1 {
			ls.mu.Unlock()
			return nil, ErrSubmissionDue
		}
		s.CurrentQuestionIndex++
		ls.rev++
		moved = true
	case DirectionPrevious:
		if s.CurrentQuestionIndex > 0 {
			s.CurrentQuestionIndex--
			ls.rev++
			moved = true
		}
	default:
		ls.mu.Unlock()
		return nil, fmt.Errorf("%w: unknown direction %q", ErrInvalidIndex, dir)
	}
	rev := ls.rev
	snap := ls.snapshot()
	ls.mu.Unlock()

	if moved {
		e.sync(ctx, ls, snap, rev)
	}
	return snap, nil
}

// Submit scores the session and stores its result. Only the first of
// concurrent submits wins; the others get ErrAlreadySubmitted.
func (e *Engine) Submit(ctx context.Context, sessionID string) (*models.AssessmentResult, error) {
	ls, err := e.lookup(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return e.submit(ctx, ls, models.EndReasonManual)
}

// Abandon ends an active session without a result.
func (e *Engine) Abandon(ctx context.Context, sessionID string) error {
	ls, err := e.lookup(ctx, sessionID)
	if err != nil {
		return err
	}

	ls.mu.Lock()
	if err := ls.claim(); err != nil {
		ls.mu.Unlock()
		return err
	}
	now := e.clock.Now()
	ended := ls.session.Clone()
	ls.mu.Unlock()

	reason := models.EndReasonAbandoned
	ended.Status = models.SessionAbandoned
	ended.EndReason = &reason
	ended.EndedAt = &now

	if err := e.store.EndSession(ctx, ended); err != nil {
		ls.release()
		e.logger.Error("Failed to abandon session", "session_id", sessionID, "error", err)
		return transport("abandon session", err)
	}

	e.finish(ls, ended, nil)
	e.logger.Info("Assessment session abandoned", "session_id", sessionID, "user_id", ended.UserID)
	e.notify(ctx, Event{Type: EventAbandoned, SessionID: ended.ID, UserID: ended.UserID, Step: ended.Step, At: now})
	return nil
}

// Snapshot returns the session's current state, re-attaching it from the
// store if needed.
func (e *Engine) Snapshot(ctx context.Context, sessionID string) (*Snapshot, error) {
	ls, err := e.lookup(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	ls.mu.Lock()
	defer ls.mu.Unlock()
	return ls.snapshot(), nil
}

// Current returns the user's active session or ErrSessionNotFound.
func (e *Engine) Current(ctx context.Context, userID string) (*Snapshot, error) {
	ls, err := e.activeFor(ctx, userID)
	if err != nil {
		return nil, err
	}
	ls.mu.Lock()
	defer ls.mu.Unlock()
	if !ls.session.IsActive() {
		return nil, ErrSessionNotFound
	}
	return ls.snapshot(), nil
}

// Subscribe streams events of a session. See Hub.Subscribe.
func (e *Engine) Subscribe(sessionID string) (<-chan Event, func()) {
	return e.hub.Subscribe(sessionID)
}

// Live returns the number of sessions with a running timer.
func (e *Engine) Live() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.byID)
}

// Shutdown stops every timer. Sessions stay active in the store and are
// re-attached on next access by a new engine.
func (e *Engine) Shutdown(ctx context.Context) error {
	e.mu.Lock()
	e.closed = true
	for _, ls := range e.byID {
		ls.halt()
	}
	e.byID = make(map[string]*liveSession)
	e.byUser = make(map[string]*liveSession)
	e.mu.Unlock()
	e.hub.Close()

	done := make(chan struct{})
	go func() {
		e.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		e.logger.Info("Assessment engine stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (e *Engine) isClosed() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.closed
}

// checkWritable must run under ls.mu.
func (e *Engine) checkWritable(ls *liveSession) error {
	if !ls.session.IsActive() || ls.submitting {
		return ErrSessionNotActive
	}
	if ls.session.RemainingAt(e.clock.Now()) == 0 {
		return ErrSessionNotActive
	}
	return nil
}

func (e *Engine) draw(ctx context.Context, step models.Step) ([]models.Question, error) {
	levels := step.Levels()
	n := e.cfg.QuestionsPerStep
	var questions []models.Question
	for i, lvl := range levels {
		share := n / len(levels)
		if i < n%len(levels) {
			share++
		}
		got, err := e.questions.DrawQuestions(ctx, lvl, share)
		if err != nil {
			if errors.Is(err, ErrInsufficientQuestions) {
				return nil, err
			}
			return nil, transport("draw questions", err)
		}
		if len(got) < share {
			return nil, fmt.Errorf("%w: level %s has %d of %d", ErrInsufficientQuestions, lvl, len(got), share)
		}
		questions = append(questions, got[:share]...)
	}
	rand.Shuffle(len(questions), func(i, j int) {
		questions[i], questions[j] = questions[j], questions[i]
	})
	return questions, nil
}

// sync stores progress of an active session. Failures are reported as an
// event and never block the caller. A snapshot older than one already stored
// is skipped.
func (e *Engine) sync(ctx context.Context, ls *liveSession, snap *Snapshot, rev uint64) bool {
	ls.syncMu.Lock()
	defer ls.syncMu.Unlock()
	if rev <= ls.syncedRev {
		return true
	}
	err := e.store.SyncProgress(ctx, snap.Session)
	if err == nil {
		ls.syncedRev = rev
		return true
	}
	e.logger.Warn("Failed to sync session progress",
		"session_id", snap.Session.ID,
		"user_id", snap.Session.UserID,
		"error", err)
	e.notify(ctx, Event{
		Type:      EventAnswerSyncFailed,
		SessionID: snap.Session.ID,
		UserID:    snap.Session.UserID,
		Step:      snap.Session.Step,
		At:        e.clock.Now(),
		Snapshot:  snap,
		Err:       err,
	})
	return false
}

func (e *Engine) submit(ctx context.Context, ls *liveSession, reason models.EndReason) (*models.AssessmentResult, error) {
	ls.mu.Lock()
	if err := ls.claim(); err != nil {
		ls.mu.Unlock()
		return nil, err
	}
	now := e.clock.Now()
	if ls.session.RemainingAt(now) == 0 {
		reason = models.EndReasonTimeout
	}
	ended := ls.session.Clone()
	ls.mu.Unlock()

	result, err := Evaluate(ended, reason, now)
	if err != nil {
		ls.release()
		return nil, err
	}
	result.ID = uuid.NewString()

	ended.Status = models.SessionSubmitted
	if reason == models.EndReasonTimeout {
		ended.Status = models.SessionTimedOut
	}
	ended.EndReason = &reason
	ended.EndedAt = &now

	progress := func(u *models.User) { ApplyProgress(u, result) }
	if err := e.store.CompleteSession(ctx, ended, result, progress); err != nil {
		ls.release()
		e.logger.Error("Failed to complete session",
			"session_id", ended.ID,
			"user_id", ended.UserID,
			"reason", reason,
			"error", err)
		return nil, transport("complete session", err)
	}

	e.finish(ls, ended, result)
	e.logger.Info("Assessment session submitted",
		"session_id", ended.ID,
		"user_id", ended.UserID,
		"step", ended.Step,
		"reason", reason,
		"score", result.Score,
		"percentage", result.Percentage,
		"certification", result.Certification)
	e.notify(ctx, Event{
		Type:      EventSubmitted,
		SessionID: ended.ID,
		UserID:    ended.UserID,
		Step:      ended.Step,
		At:        now,
		Result:    result,
	})
	return result, nil
}

// finish installs the terminal session and takes it out of the live set.
func (e *Engine) finish(ls *liveSession, ended *models.AssessmentSession, result *models.AssessmentResult) {
	ls.mu.Lock()
	ls.session = ended
	ls.result = result
	ls.settle()
	ls.timer.Stop()
	ls.mu.Unlock()

	e.mu.Lock()
	if e.byID[ended.ID] == ls {
		delete(e.byID, ended.ID)
	}
	if e.byUser[ended.UserID] == ls {
		delete(e.byUser, ended.UserID)
	}
	e.mu.Unlock()
	ls.halt()
}

func (e *Engine) newLive(s *models.AssessmentSession) *liveSession {
	t := NewTimer(e.cfg.WarningRatio, e.cfg.CriticalRatio)
	t.Start(s.TimeLimit)
	return &liveSession{session: s, timer: t}
}

// register adds ls to the live set and starts its timer goroutine. If the
// session is already live the registered one is returned instead.
func (e *Engine) register(ls *liveSession) (*liveSession, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil, ErrEngineClosed
	}
	if existing := e.byID[ls.session.ID]; existing != nil {
		return existing, nil
	}
	ls.stop = make(chan struct{})
	e.byID[ls.session.ID] = ls
	e.byUser[ls.session.UserID] = ls
	e.wg.Add(1)
	go e.run(ls)
	return ls, nil
}

// resume returns a snapshot of ls if it is still usable. A session that ran
// out of time is submitted and a nil snapshot is returned so a new one can
// start, together with the result that ended it. When another submit already
// holds the session, resume waits for it to settle.
func (e *Engine) resume(ctx context.Context, ls *liveSession) (*Snapshot, *models.AssessmentResult, error) {
	ls.mu.Lock()
	active := ls.session.IsActive()
	expired := ls.session.RemainingAt(e.clock.Now()) == 0
	snap := ls.snapshot()
	ended := ls.result
	ls.mu.Unlock()

	if !active {
		return nil, ended, nil
	}
	if !expired {
		return snap, nil, nil
	}
	result, err := e.submit(ctx, ls, models.EndReasonTimeout)
	if err == nil {
		return nil, result, nil
	}
	if !errors.Is(err, ErrAlreadySubmitted) {
		return nil, nil, err
	}

	ls.mu.Lock()
	wait := ls.settled
	ls.mu.Unlock()
	if wait != nil {
		t := time.NewTimer(settleWait)
		defer t.Stop()
		select {
		case <-wait:
		case <-t.C:
		case <-ctx.Done():
			return nil, nil, ctx.Err()
		}
	}

	ls.mu.Lock()
	defer ls.mu.Unlock()
	if ls.session.IsActive() {
		return nil, nil, fmt.Errorf("%w: expired session %s is still being submitted", ErrSessionNotActive, ls.session.ID)
	}
	return nil, ls.result, nil
}

// lookup finds a session by id, re-attaching active sessions from the store.
// Terminal sessions are returned detached so callers can report their state.
func (e *Engine) lookup(ctx context.Context, id string) (*liveSession, error) {
	e.mu.Lock()
	ls, closed := e.byID[id], e.closed
	e.mu.Unlock()
	if closed {
		return nil, ErrEngineClosed
	}
	if ls != nil {
		return ls, nil
	}

	s, err := e.store.GetSession(ctx, id)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, transport("load session", err)
	}
	return e.attach(ctx, s)
}

func (e *Engine) activeFor(ctx context.Context, userID string) (*liveSession, error) {
	e.mu.Lock()
	ls, closed := e.byUser[userID], e.closed
	e.mu.Unlock()
	if closed {
		return nil, ErrEngineClosed
	}
	if ls != nil {
		return ls, nil
	}

	s, err := e.store.GetActiveSession(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, transport("load active session", err)
	}
	return e.attach(ctx, s)
}

// attach rebuilds a live session from its stored form. The timer resumes from
// startTime + timeLimit - now; an expired session is submitted on the spot.
func (e *Engine) attach(ctx context.Context, s *models.AssessmentSession) (*liveSession, error) {
	if len(s.Questions) != len(s.QuestionIDs) {
		qs, err := e.questions.QuestionsByIDs(ctx, s.QuestionIDs)
		if err != nil {
			return nil, transport("load session questions", err)
		}
		s.Questions = qs
	}
	if len(s.Answers) != len(s.Questions) {
		answers := make(datatypes.JSONSlice[*int], len(s.Questions))
		copy(answers, s.Answers)
		s.Answers = answers
	}

	ls := e.newLive(s)
	if !s.IsActive() {
		ls.timer.Stop()
		return ls, nil
	}

	ls.timer.SetRemaining(s.RemainingAt(e.clock.Now()))
	live, err := e.register(ls)
	if err != nil {
		return nil, err
	}
	if live != ls {
		return live, nil
	}
	e.logger.Info("Re-attached session",
		"session_id", s.ID,
		"user_id", s.UserID,
		"remaining", ls.timer.Remaining())

	if ls.timer.Expired() {
		if _, err := e.submit(ctx, ls, models.EndReasonTimeout); err != nil && !errors.Is(err, ErrAlreadySubmitted) {
			return nil, err
		}
	}
	return ls, nil
}

func (e *Engine) run(ls *liveSession) {
	defer e.wg.Done()
	ticker := time.NewTicker(e.cfg.TickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ls.stop:
			return
		case <-ticker.C:
			e.tick(ls)
		}
	}
}

// tick advances the timer by one second, pulls it down to the stored
// deadline if the clock says less time is left, and auto-submits once time
// is up. A failed auto-submit is retried on the next tick.
func (e *Engine) tick(ls *liveSession) {
	ls.mu.Lock()
	if !ls.session.IsActive() || ls.submitting {
		ls.mu.Unlock()
		return
	}
	before := ls.timer.State().Stage()
	fired := ls.timer.Tick()
	now := e.clock.Now()
	if left := ls.session.RemainingAt(now); left < ls.timer.Remaining() {
		fired = ls.timer.SetRemaining(left) || fired
	}
	due := ls.timer.Expired()
	snap := ls.snapshot()
	ls.mu.Unlock()

	s := snap.Session
	e.notify(context.Background(), Event{
		Type:         EventTick,
		SessionID:    s.ID,
		UserID:       s.UserID,
		Step:         s.Step,
		At:           now,
		Snapshot:     snap,
		StageChanged: snap.Timer.Stage() != before,
	})
	if fired {
		e.logger.Info("Session time is up", "session_id", s.ID, "user_id", s.UserID)
		e.notify(context.Background(), Event{Type: EventTimeUp, SessionID: s.ID, UserID: s.UserID, Step: s.Step, At: now, Snapshot: snap})
	}
	if !due {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), autoSubmitTimeout)
	defer cancel()
	if _, err := e.submit(ctx, ls, models.EndReasonTimeout); err != nil &&
		!errors.Is(err, ErrAlreadySubmitted) && !errors.Is(err, ErrSessionNotActive) {
		e.logger.Error("Auto-submit failed, retrying on next tick", "session_id", s.ID, "error", err)
	}
}

func (e *Engine) notify(ctx context.Context, ev Event) {
	e.hub.Notify(ctx, ev)
	e.notifiers.Notify(ctx, ev)
}

// withProgress returns a copy of user with the outcome of result applied, as
// CompleteSession stored it.
func withProgress(user *models.User, result *models.AssessmentResult) *models.User {
	u := *user
	u.CompletedSteps = append(datatypes.JSONSlice[models.Step](nil), user.CompletedSteps...)
	ApplyProgress(&u, result)
	return &u
}
