package assessment

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SAP-F-2025/competency-assessment/internal/models"
)

func TestEngineStart(t *testing.T) {
	ctx := context.Background()

	t.Run("creates an active session", func(t *testing.T) {
		f := newFixture(t, testConfig())
		snap, err := f.engine.Start(ctx, student("u1"), models.Step1)
		require.NoError(t, err)

		s := snap.Session
		assert.Equal(t, "u1", s.UserID)
		assert.Equal(t, models.Step1, s.Step)
		assert.Equal(t, models.SessionActive, s.Status)
		assert.Len(t, s.Questions, 4)
		assert.Len(t, s.Answers, len(s.Questions))
		assert.Equal(t, 0, s.CurrentQuestionIndex)
		assert.Equal(t, 40, s.TimeLimit)
		assert.Equal(t, testStart, s.StartedAt)
		assert.Equal(t, 40, snap.Timer.Remaining)
		assert.True(t, snap.Timer.Running)

		levels := map[models.Level]int{}
		for _, q := range s.Questions {
			levels[q.Level]++
		}
		assert.Equal(t, map[models.Level]int{models.LevelA1: 2, models.LevelA2: 2}, levels)
		assert.Equal(t, 1, f.engine.Live())
	})

	t.Run("step 2 requires step 1", func(t *testing.T) {
		f := newFixture(t, testConfig())
		_, err := f.engine.Start(ctx, student("u1"), models.Step2)
		assert.ErrorIs(t, err, ErrIneligible)
		var ie *IneligibleError
		require.True(t, errors.As(err, &ie))
		assert.Equal(t, models.Step2, ie.Step)

		snap, err := f.engine.Start(ctx, student("u2", models.Step1), models.Step2)
		require.NoError(t, err)
		assert.Equal(t, models.Step2, snap.Session.Step)
	})

	t.Run("invalid step", func(t *testing.T) {
		f := newFixture(t, testConfig())
		_, err := f.engine.Start(ctx, student("u1"), models.Step(0))
		assert.ErrorIs(t, err, ErrInvalidStep)
	})

	t.Run("resumes the active session", func(t *testing.T) {
		f := newFixture(t, testConfig())
		first, err := f.engine.Start(ctx, student("u1", models.Step1), models.Step1)
		require.NoError(t, err)

		again, err := f.engine.Start(ctx, student("u1", models.Step1), models.Step2)
		require.NoError(t, err)
		assert.Equal(t, first.Session.ID, again.Session.ID)
		assert.Equal(t, models.Step1, again.Session.Step)
		assert.Equal(t, 1, f.engine.Live())
	})

	t.Run("not enough questions", func(t *testing.T) {
		cfg := testConfig()
		cfg.QuestionsPerStep = 10
		f := newFixture(t, cfg)
		_, err := f.engine.Start(ctx, student("u1"), models.Step1)
		assert.ErrorIs(t, err, ErrInsufficientQuestions)
	})

	t.Run("store failure blocks start", func(t *testing.T) {
		f := newFixture(t, testConfig())
		f.store.failCreate = errStoreDown
		_, err := f.engine.Start(ctx, student("u1"), models.Step1)
		assert.ErrorIs(t, err, ErrTransportFailure)
		assert.ErrorIs(t, err, errStoreDown)
		assert.Equal(t, 0, f.engine.Live())
	})

	t.Run("concurrent starts share one session", func(t *testing.T) {
		f := newFixture(t, testConfig())
		ids := make(chan string, 8)
		var wg sync.WaitGroup
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				snap, err := f.engine.Start(ctx, student("u1"), models.Step1)
				if assert.NoError(t, err) {
					ids <- snap.Session.ID
				}
			}()
		}
		wg.Wait()
		close(ids)

		seen := map[string]bool{}
		for id := range ids {
			seen[id] = true
		}
		assert.Len(t, seen, 1)
	})
}

func TestEngineAnswer(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, testConfig())
	snap, err := f.engine.Start(ctx, student("u1"), models.Step1)
	require.NoError(t, err)
	id := snap.Session.ID

	t.Run("records without moving the pointer", func(t *testing.T) {
		out, err := f.engine.Answer(ctx, id, 2, 1)
		require.NoError(t, err)
		assert.True(t, out.Synced)
		require.NotNil(t, out.Snapshot.Session.Answers[2])
		assert.Equal(t, 1, *out.Snapshot.Session.Answers[2])
		assert.Equal(t, 0, out.Snapshot.Session.CurrentQuestionIndex)
		assert.Len(t, out.Snapshot.Session.Answers, len(out.Snapshot.Session.Questions))
	})

	t.Run("overwrites", func(t *testing.T) {
		_, err := f.engine.Answer(ctx, id, 2, 3)
		require.NoError(t, err)
		snap, err := f.engine.Snapshot(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, 3, *snap.Session.Answers[2])
		assert.Equal(t, 1, snap.Session.AnsweredCount())
	})

	t.Run("rejects bad indexes", func(t *testing.T) {
		_, err := f.engine.Answer(ctx, id, 4, 0)
		assert.ErrorIs(t, err, ErrInvalidIndex)
		_, err = f.engine.Answer(ctx, id, -1, 0)
		assert.ErrorIs(t, err, ErrInvalidIndex)
		_, err = f.engine.Answer(ctx, id, 0, 4)
		assert.ErrorIs(t, err, ErrInvalidIndex)
		_, err = f.engine.Answer(ctx, id, 0, -1)
		assert.ErrorIs(t, err, ErrInvalidIndex)
	})

	t.Run("sync failure keeps the local answer", func(t *testing.T) {
		events, cancel := f.engine.Subscribe(id)
		defer cancel()

		f.store.mu.Lock()
		f.store.failSync = errStoreDown
		f.store.mu.Unlock()
		defer func() {
			f.store.mu.Lock()
			f.store.failSync = nil
			f.store.mu.Unlock()
		}()

		out, err := f.engine.Answer(ctx, id, 0, 2)
		require.NoError(t, err)
		assert.False(t, out.Synced)
		assert.Equal(t, 2, *out.Snapshot.Session.Answers[0])

		ev := <-events
		assert.Equal(t, EventAnswerSyncFailed, ev.Type)
		assert.ErrorIs(t, ev.Err, errStoreDown)

		_, err = f.engine.Advance(ctx, id, DirectionNext)
		assert.NoError(t, err, "navigation is not blocked by sync failures")
	})

	t.Run("unknown session", func(t *testing.T) {
		_, err := f.engine.Answer(ctx, "missing", 0, 0)
		assert.ErrorIs(t, err, ErrSessionNotFound)
	})
}

func TestEngineAdvance(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, testConfig())
	snap, err := f.engine.Start(ctx, student("u1"), models.Step1)
	require.NoError(t, err)
	id := snap.Session.ID

	snap, err = f.engine.Advance(ctx, id, DirectionPrevious)
	require.NoError(t, err)
	assert.Equal(t, 0, snap.Session.CurrentQuestionIndex, "previous at 0 is a no-op")

	for want := 1; want <= 3; want++ {
		snap, err = f.engine.Advance(ctx, id, DirectionNext)
		require.NoError(t, err)
		assert.Equal(t, want, snap.Session.CurrentQuestionIndex)
	}

	_, err = f.engine.Advance(ctx, id, DirectionNext)
	assert.ErrorIs(t, err, ErrSubmissionDue)
	snap, err = f.engine.Snapshot(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 3, snap.Session.CurrentQuestionIndex, "pointer does not wrap")

	snap, err = f.engine.Advance(ctx, id, DirectionPrevious)
	require.NoError(t, err)
	assert.Equal(t, 2, snap.Session.CurrentQuestionIndex)

	_, err = f.engine.Advance(ctx, id, Direction("sideways"))
	assert.ErrorIs(t, err, ErrInvalidIndex)
}

func TestEngineSubmit(t *testing.T) {
	ctx := context.Background()

	t.Run("scores and closes the session", func(t *testing.T) {
		f := newFixture(t, testConfig())
		events := make(chan Event, 4)
		f.engine = f.newEngine(t, testConfig(), WithNotifier(NotifierFunc(func(_ context.Context, ev Event) {
			if ev.Type == EventSubmitted {
				events <- ev
			}
		})))

		snap, err := f.engine.Start(ctx, student("u1"), models.Step1)
		require.NoError(t, err)
		answerCorrectly(t, f.engine, snap, models.LevelA1)
		f.clock.Advance(25 * time.Second)

		result, err := f.engine.Submit(ctx, snap.Session.ID)
		require.NoError(t, err)
		assert.NotEmpty(t, result.ID)
		assert.Equal(t, 2, result.Score)
		assert.Equal(t, 4, result.TotalQuestions)
		assert.Equal(t, 50.0, result.Percentage)
		assert.Equal(t, "A2 Certified", result.Certification)
		assert.False(t, result.CanProceed)
		assert.Equal(t, 25, result.TimeSpent)
		assert.Equal(t, models.EndReasonManual, result.EndReason)
		assert.Equal(t, 0, f.engine.Live())

		ev := <-events
		assert.Equal(t, result, ev.Result)

		stored, err := f.store.GetSession(ctx, snap.Session.ID)
		require.NoError(t, err)
		assert.Equal(t, models.SessionSubmitted, stored.Status)
		assert.Equal(t, models.LevelA2, *f.store.users["u1"].CurrentLevel)
		assert.False(t, f.store.users["u1"].HasCompleted(models.Step1))
	})

	t.Run("second submit fails without recomputing", func(t *testing.T) {
		f := newFixture(t, testConfig())
		snap, err := f.engine.Start(ctx, student("u1"), models.Step1)
		require.NoError(t, err)
		first, err := f.engine.Submit(ctx, snap.Session.ID)
		require.NoError(t, err)

		_, err = f.engine.Submit(ctx, snap.Session.ID)
		assert.ErrorIs(t, err, ErrAlreadySubmitted)
		assert.Equal(t, 1, f.store.resultCount())
		assert.Equal(t, first, f.store.results[0])

		_, err = f.engine.Answer(ctx, snap.Session.ID, 0, 0)
		assert.ErrorIs(t, err, ErrSessionNotActive)
	})

	t.Run("concurrent submits have one winner", func(t *testing.T) {
		f := newFixture(t, testConfig())
		snap, err := f.engine.Start(ctx, student("u1"), models.Step1)
		require.NoError(t, err)
		f.store.gate = make(chan struct{})

		const callers = 10
		errs := make(chan error, callers)
		var wg sync.WaitGroup
		for i := 0; i < callers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := f.engine.Submit(ctx, snap.Session.ID)
				errs <- err
			}()
		}
		// Losers return without reaching the store.
		require.Eventually(t, func() bool { return len(errs) == callers-1 }, time.Second, 5*time.Millisecond)
		close(f.store.gate)
		wg.Wait()
		close(errs)

		won, lost := 0, 0
		for err := range errs {
			switch {
			case err == nil:
				won++
			case errors.Is(err, ErrAlreadySubmitted):
				lost++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}
		assert.Equal(t, 1, won)
		assert.Equal(t, callers-1, lost)
		assert.Equal(t, 1, f.store.resultCount())
	})

	t.Run("store failure reverts to active", func(t *testing.T) {
		f := newFixture(t, testConfig())
		snap, err := f.engine.Start(ctx, student("u1"), models.Step1)
		require.NoError(t, err)

		f.store.setFailComplete(errStoreDown)
		_, err = f.engine.Submit(ctx, snap.Session.ID)
		assert.ErrorIs(t, err, ErrTransportFailure)

		current, err := f.engine.Snapshot(ctx, snap.Session.ID)
		require.NoError(t, err)
		assert.Equal(t, models.SessionActive, current.Session.Status)
		_, err = f.engine.Answer(ctx, snap.Session.ID, 0, 1)
		assert.NoError(t, err)

		f.store.setFailComplete(nil)
		_, err = f.engine.Submit(ctx, snap.Session.ID)
		assert.NoError(t, err)
	})

	t.Run("full marks unlock the next step", func(t *testing.T) {
		f := newFixture(t, testConfig())
		snap, err := f.engine.Start(ctx, student("u1"), models.Step1)
		require.NoError(t, err)
		for i, q := range snap.Session.Questions {
			_, err := f.engine.Answer(ctx, snap.Session.ID, i, q.CorrectAnswer)
			require.NoError(t, err)
		}
		result, err := f.engine.Submit(ctx, snap.Session.ID)
		require.NoError(t, err)
		assert.True(t, result.CanProceed)
		assert.True(t, f.store.users["u1"].HasCompleted(models.Step1))
	})
}

func TestEngineTimeUp(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig()
	cfg.TickInterval = 20 * time.Millisecond

	f := newFixture(t, cfg)
	snap, err := f.engine.Start(ctx, student("u1"), models.Step1)
	require.NoError(t, err)
	events, cancel := f.engine.Subscribe(snap.Session.ID)
	defer cancel()

	answerCorrectly(t, f.engine, snap, models.LevelA1)
	f.clock.Advance(41 * time.Second)

	_, err = f.engine.Answer(ctx, snap.Session.ID, 0, 0)
	assert.ErrorIs(t, err, ErrSessionNotActive, "no writes after the deadline")

	require.Eventually(t, func() bool { return f.store.resultCount() == 1 }, 2*time.Second, 5*time.Millisecond)
	auto := f.store.results[0]
	assert.Equal(t, models.EndReasonTimeout, auto.EndReason)
	assert.Equal(t, 40, auto.TimeSpent)

	var timeUps, submitted int
	for ev := range events {
		switch ev.Type {
		case EventTimeUp:
			timeUps++
		case EventSubmitted:
			submitted++
		}
	}
	assert.Equal(t, 1, timeUps)
	assert.Equal(t, 1, submitted)

	stored, err := f.store.GetSession(ctx, snap.Session.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SessionTimedOut, stored.Status)

	_, err = f.engine.Submit(ctx, snap.Session.ID)
	assert.ErrorIs(t, err, ErrAlreadySubmitted)

	t.Run("matches a manual submit", func(t *testing.T) {
		m := newFixture(t, testConfig())
		snap, err := m.engine.Start(ctx, student("u1"), models.Step1)
		require.NoError(t, err)
		answerCorrectly(t, m.engine, snap, models.LevelA1)
		manual, err := m.engine.Submit(ctx, snap.Session.ID)
		require.NoError(t, err)

		assert.Equal(t, manual.Score, auto.Score)
		assert.Equal(t, manual.Percentage, auto.Percentage)
		assert.Equal(t, manual.Certification, auto.Certification)
		assert.Equal(t, manual.CanProceed, auto.CanProceed)
		assert.Equal(t, manual.LevelAchieved, auto.LevelAchieved)
	})
}

func TestEngineTickReconcilesWithClock(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, testConfig())
	snap, err := f.engine.Start(ctx, student("u1"), models.Step1)
	require.NoError(t, err)

	f.engine.mu.Lock()
	ls := f.engine.byID[snap.Session.ID]
	f.engine.mu.Unlock()

	f.engine.tick(ls)
	got, err := f.engine.Snapshot(ctx, snap.Session.ID)
	require.NoError(t, err)
	assert.Equal(t, 39, got.Timer.Remaining)

	// The process slept: the clock moved on without ticks.
	f.clock.Advance(35 * time.Second)
	f.engine.tick(ls)
	got, err = f.engine.Snapshot(ctx, snap.Session.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, got.Timer.Remaining)
	assert.True(t, got.Timer.Warning)
	assert.False(t, got.Timer.Critical)

	f.engine.tick(ls)
	got, err = f.engine.Snapshot(ctx, snap.Session.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, got.Timer.Remaining, "ticks keep counting between clock reads")
	assert.False(t, got.Timer.Warning)
	assert.True(t, got.Timer.Critical)
}

func TestEngineAbandon(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, testConfig())
	snap, err := f.engine.Start(ctx, student("u1"), models.Step1)
	require.NoError(t, err)

	require.NoError(t, f.engine.Abandon(ctx, snap.Session.ID))
	assert.Equal(t, 0, f.engine.Live())
	assert.Equal(t, 0, f.store.resultCount())

	_, err = f.engine.Submit(ctx, snap.Session.ID)
	assert.ErrorIs(t, err, ErrSessionNotActive)
	assert.ErrorIs(t, f.engine.Abandon(ctx, snap.Session.ID), ErrSessionNotActive)

	_, err = f.engine.Current(ctx, "u1")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	next, err := f.engine.Start(ctx, student("u1"), models.Step1)
	require.NoError(t, err)
	assert.NotEqual(t, snap.Session.ID, next.Session.ID)
}

func TestEngineReattach(t *testing.T) {
	ctx := context.Background()

	t.Run("resumes from the stored start time", func(t *testing.T) {
		f := newFixture(t, testConfig())
		snap, err := f.engine.Start(ctx, student("u1"), models.Step1)
		require.NoError(t, err)
		_, err = f.engine.Answer(ctx, snap.Session.ID, 1, 2)
		require.NoError(t, err)
		require.NoError(t, f.engine.Shutdown(ctx))

		f.clock.Advance(12 * time.Second)
		restarted := f.newEngine(t, testConfig())

		cur, err := restarted.Current(ctx, "u1")
		require.NoError(t, err)
		assert.Equal(t, snap.Session.ID, cur.Session.ID)
		assert.Equal(t, 28, cur.Timer.Remaining)
		assert.Equal(t, snap.Session.QuestionIDs, cur.Session.QuestionIDs)
		assert.Len(t, cur.Session.Questions, 4)
		assert.Equal(t, 2, *cur.Session.Answers[1])
	})

	t.Run("expired session is submitted and a new one starts", func(t *testing.T) {
		f := newFixture(t, testConfig())
		snap, err := f.engine.Start(ctx, student("u1"), models.Step1)
		require.NoError(t, err)
		require.NoError(t, f.engine.Shutdown(ctx))

		f.clock.Advance(time.Minute)
		restarted := f.newEngine(t, testConfig())

		fresh, err := restarted.Start(ctx, student("u1"), models.Step1)
		require.NoError(t, err)
		assert.NotEqual(t, snap.Session.ID, fresh.Session.ID)
		require.Equal(t, 1, f.store.resultCount())
		assert.Equal(t, models.EndReasonTimeout, f.store.results[0].EndReason)
		assert.Equal(t, snap.Session.ID, f.store.results[0].SessionID)
	})

	t.Run("submit by id after restart", func(t *testing.T) {
		f := newFixture(t, testConfig())
		snap, err := f.engine.Start(ctx, student("u1"), models.Step1)
		require.NoError(t, err)
		require.NoError(t, f.engine.Shutdown(ctx))

		restarted := f.newEngine(t, testConfig())
		result, err := restarted.Submit(ctx, snap.Session.ID)
		require.NoError(t, err)
		assert.Equal(t, models.EndReasonManual, result.EndReason)
	})

	t.Run("shut down engine refuses work", func(t *testing.T) {
		f := newFixture(t, testConfig())
		require.NoError(t, f.engine.Shutdown(ctx))
		_, err := f.engine.Start(ctx, student("u1"), models.Step1)
		assert.ErrorIs(t, err, ErrEngineClosed)
	})
}

func TestAnswersLengthInvariant(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, testConfig())
	snap, err := f.engine.Start(ctx, student("u1"), models.Step1)
	require.NoError(t, err)
	id := snap.Session.ID
	n := len(snap.Session.Questions)

	check := func() {
		t.Helper()
		s, err := f.engine.Snapshot(ctx, id)
		require.NoError(t, err)
		assert.Len(t, s.Session.Answers, n)
	}

	check()
	_, _ = f.engine.Answer(ctx, id, 3, 1)
	check()
	_, _ = f.engine.Answer(ctx, id, 9, 1)
	check()
	_, _ = f.engine.Advance(ctx, id, DirectionNext)
	check()
	_, err = f.engine.Submit(ctx, id)
	require.NoError(t, err)
	assert.Len(t, f.store.results[0].Answers, n)
}

func TestIssuedQuestionsSurviveRestart(t *testing.T) {
	ctx := context.Background()

	t.Run("pool edits do not change a running session", func(t *testing.T) {
		f := newFixture(t, testConfig())
		snap, err := f.engine.Start(ctx, student("u1"), models.Step1)
		require.NoError(t, err)
		for i, q := range snap.Session.Questions {
			_, err := f.engine.Answer(ctx, snap.Session.ID, i, q.CorrectAnswer)
			require.NoError(t, err)
		}
		require.NoError(t, f.engine.Shutdown(ctx))

		f.questions.rekey()
		restarted := f.newEngine(t, testConfig())

		result, err := restarted.Submit(ctx, snap.Session.ID)
		require.NoError(t, err)
		assert.Equal(t, 4, result.Score)
		assert.Equal(t, 100.0, result.Percentage)
		assert.True(t, result.CanProceed)
	})

	t.Run("rows without issued questions are rebuilt from the pool", func(t *testing.T) {
		f := newFixture(t, testConfig())
		snap, err := f.engine.Start(ctx, student("u1"), models.Step1)
		require.NoError(t, err)
		require.NoError(t, f.engine.Shutdown(ctx))
		f.store.dropQuestions(snap.Session.ID)

		restarted := f.newEngine(t, testConfig())
		cur, err := restarted.Snapshot(ctx, snap.Session.ID)
		require.NoError(t, err)
		require.Len(t, cur.Session.Questions, len(snap.Session.QuestionIDs))
		for i, q := range cur.Session.Questions {
			assert.Equal(t, snap.Session.QuestionIDs[i], q.ID)
		}
	})
}

func TestStartWaitsForInFlightSubmit(t *testing.T) {
	ctx := context.Background()

	// holdExpiredSubmit starts step 1, answers it fully, lets it expire and
	// parks a submit inside CompleteSession.
	holdExpiredSubmit := func(t *testing.T) (*engineFixture, chan error) {
		t.Helper()
		f := newFixture(t, testConfig())
		snap, err := f.engine.Start(ctx, student("u1"), models.Step1)
		require.NoError(t, err)
		for i, q := range snap.Session.Questions {
			_, err := f.engine.Answer(ctx, snap.Session.ID, i, q.CorrectAnswer)
			require.NoError(t, err)
		}
		f.clock.Advance(time.Minute)
		f.store.gate = make(chan struct{})

		submitted := make(chan error, 1)
		go func() {
			_, err := f.engine.Submit(ctx, snap.Session.ID)
			submitted <- err
		}()
		require.Eventually(t, func() bool {
			f.engine.mu.Lock()
			ls := f.engine.byID[snap.Session.ID]
			f.engine.mu.Unlock()
			if ls == nil {
				return false
			}
			ls.mu.Lock()
			defer ls.mu.Unlock()
			return ls.submitting
		}, time.Second, 5*time.Millisecond)
		return f, submitted
	}

	t.Run("start sees the finished submit", func(t *testing.T) {
		f, submitted := holdExpiredSubmit(t)

		type started struct {
			snap *Snapshot
			err  error
		}
		out := make(chan started, 1)
		go func() {
			snap, err := f.engine.Start(ctx, student("u1"), models.Step2)
			out <- started{snap, err}
		}()
		time.Sleep(20 * time.Millisecond)
		close(f.store.gate)

		require.NoError(t, <-submitted)
		got := <-out
		require.NoError(t, got.err)
		assert.Equal(t, models.Step2, got.snap.Session.Step)
		assert.Positive(t, got.snap.Timer.Remaining)
		assert.Equal(t, 1, f.store.resultCount())
	})

	t.Run("caller context ends the wait", func(t *testing.T) {
		f, submitted := holdExpiredSubmit(t)

		short, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
		defer cancel()
		_, err := f.engine.Start(short, student("u1"), models.Step1)
		assert.ErrorIs(t, err, context.DeadlineExceeded)

		close(f.store.gate)
		require.NoError(t, <-submitted)
	})
}
