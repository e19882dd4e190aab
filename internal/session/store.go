package session

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/claude/liveset/internal/clock"
	"github.com/claude/liveset/internal/models"
	"github.com/google/uuid"
)

// SnapshotStore is the durable slot holding the resume snapshot.
type SnapshotStore interface {
	Save(ctx context.Context, snap *models.Snapshot) error
	// Load returns nil, nil when the slot is empty.
	Load(ctx context.Context) (*models.Snapshot, error)
	Clear(ctx context.Context) error
}

// Options are the per-user defaults applied to new sessions.
type Options struct {
	RestDefaultSeconds int
	NotifyOnFinish     bool
	DefaultSets        int
}

// State is a point-in-time copy of the store handed to readers and listeners.
type State struct {
	Lifecycle       models.Lifecycle  `json:"lifecycle"`
	Session         *models.Session   `json:"session,omitempty"`
	DurationSeconds int               `json:"duration_seconds"`
	Rest            models.RestConfig `json:"rest"`
	Finishing       bool              `json:"finishing"`
}

// WorkoutUpdate merges into the active session. Nil fields are left alone.
type WorkoutUpdate struct {
	Name               *string `json:"name"`
	RestDefaultSeconds *int    `json:"rest_default_seconds"`
	NotifyOnFinish     *bool   `json:"notify_on_finish"`
}

// Store owns the single live session. It is safe for concurrent use:
// timer ticks arrive on their own goroutines alongside user intents.
// Lock order is Store before RestTimer.
type Store struct {
	clock     clock.Clock
	snapshots SnapshotStore
	rest      *RestTimer
	elapsed   *ElapsedTracker
	mutator   Mutator
	log       *slog.Logger

	mu        sync.Mutex
	session   *models.Session
	finishing bool

	subMu   sync.Mutex
	subs    map[int]func(State)
	nextSub int
}

// NewStore creates an idle store. Call Rehydrate once at startup.
func NewStore(c clock.Clock, snapshots SnapshotStore, sound Sound, opts Options, log *slog.Logger) *Store {
	s := &Store{
		clock:     c,
		snapshots: snapshots,
		rest:      NewRestTimer(c, sound, opts.RestDefaultSeconds, opts.NotifyOnFinish),
		elapsed:   NewElapsedTracker(c),
		mutator:   NewMutator(opts.DefaultSets),
		log:       log,
		subs:      make(map[int]func(State)),
	}
	s.rest.OnTick = func(models.RestConfig) { s.publish() }
	s.rest.OnFinished = func() { s.log.Info("rest finished") }
	s.elapsed.OnTick = s.publish
	return s
}

// Mutator returns the transformations used by the store, for callers
// that build a collection themselves and hand it to UpdateExercises.
func (s *Store) Mutator() Mutator {
	return s.mutator
}

// Subscribe registers fn for every state change and timer tick.
// fn runs outside the store lock and may call back into the store.
func (s *Store) Subscribe(fn func(State)) (unsubscribe func()) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	s.nextSub++
	id := s.nextSub
	s.subs[id] = fn
	return func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		delete(s.subs, id)
	}
}

// State returns a deep copy of the current state.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stateLocked()
}

func (s *Store) stateLocked() State {
	st := State{
		Lifecycle: models.LifecycleIdle,
		Rest:      s.rest.State(),
		Finishing: s.finishing,
	}
	if s.session == nil {
		return st
	}
	sess := s.session.Clone()
	sess.Rest = st.Rest
	st.Session = sess
	st.Lifecycle = sess.Lifecycle
	if sess.Lifecycle == models.LifecycleActive {
		st.DurationSeconds = s.elapsed.Seconds()
	}
	return st
}

// CurrentDuration returns whole seconds since the workout started, or 0
// when no workout is active. It has no side effects.
func (s *Store) CurrentDuration() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session == nil || s.session.Lifecycle != models.LifecycleActive {
		return 0
	}
	return s.elapsed.Seconds()
}

// CheckOwner returns ErrNotOwner when the live session belongs to a
// different user. Sessions restored from snapshots written before owners
// were recorded have no owner and are open to everyone.
func (s *Store) CheckOwner(userID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session == nil || s.session.UserID == 0 || s.session.UserID == userID {
		return nil
	}
	return ErrNotOwner
}

// StartWorkout begins a session owned by userID. Only one session may be
// live; starting while one is active returns ErrSessionActive.
func (s *Store) StartWorkout(ctx context.Context, userID int, name string, templateID *string, exercises []models.Exercise) error {
	s.mu.Lock()
	if s.session != nil {
		s.mu.Unlock()
		return ErrSessionActive
	}
	if strings.TrimSpace(name) == "" {
		name = models.DefaultWorkoutName
	}
	now := s.clock.Now()
	sess := &models.Session{
		ID:          uuid.NewString(),
		UserID:      userID,
		WorkoutName: name,
		Exercises:   s.normalize(exercises),
		StartedAt:   &now,
		Lifecycle:   models.LifecycleActive,
	}
	if templateID != nil {
		id := *templateID
		sess.TemplateID = &id
	}
	s.session = sess
	s.finishing = false
	s.rest.Reset()
	s.elapsed.Start(now)
	s.saveSnapshotLocked(ctx)
	s.mu.Unlock()

	s.log.Info("workout started", "session", sess.ID, "user", userID, "name", name, "exercises", len(sess.Exercises))
	s.publish()
	return nil
}

// UpdateWorkout merges name and rest settings into the active session.
func (s *Store) UpdateWorkout(ctx context.Context, u WorkoutUpdate) error {
	return s.mutate(ctx, func(sess *models.Session) error {
		if u.Name != nil {
			name := strings.TrimSpace(*u.Name)
			if name == "" {
				name = models.DefaultWorkoutName
			}
			sess.WorkoutName = name
		}
		if u.RestDefaultSeconds != nil {
			s.rest.SetDefault(*u.RestDefaultSeconds)
		}
		if u.NotifyOnFinish != nil {
			s.rest.SetNotify(*u.NotifyOnFinish)
		}
		return nil
	})
}

// UpdateExercises replaces the exercise collection wholesale.
func (s *Store) UpdateExercises(ctx context.Context, exercises []models.Exercise) error {
	return s.mutate(ctx, func(sess *models.Session) error {
		sess.Exercises = s.normalize(exercises)
		return nil
	})
}

// AddExercise appends a catalog exercise with default sets.
func (s *Store) AddExercise(ctx context.Context, spec ExerciseSpec) error {
	return s.mutate(ctx, func(sess *models.Session) error {
		exs, err := s.mutator.AddExercise(sess.Exercises, spec)
		if err != nil {
			return err
		}
		sess.Exercises = exs
		return nil
	})
}

// RemoveExercise drops an exercise from the session.
func (s *Store) RemoveExercise(ctx context.Context, exerciseID string) error {
	return s.mutate(ctx, func(sess *models.Session) error {
		exs, err := s.mutator.RemoveExercise(sess.Exercises, exerciseID)
		if err != nil {
			return err
		}
		sess.Exercises = exs
		return nil
	})
}

// ReorderExercises applies a move computed by the drag-and-drop layer.
func (s *Store) ReorderExercises(ctx context.Context, from, to int) error {
	return s.mutate(ctx, func(sess *models.Session) error {
		exs, err := s.mutator.ReorderExercises(sess.Exercises, from, to)
		if err != nil {
			return err
		}
		sess.Exercises = exs
		return nil
	})
}

// AddSet appends a set to an exercise.
func (s *Store) AddSet(ctx context.Context, exerciseID string) error {
	return s.mutate(ctx, func(sess *models.Session) error {
		exs, err := s.mutator.AddSet(sess.Exercises, exerciseID)
		if err != nil {
			return err
		}
		sess.Exercises = exs
		return nil
	})
}

// RemoveSet drops the last set of an exercise, keeping at least one.
func (s *Store) RemoveSet(ctx context.Context, exerciseID string) error {
	return s.mutate(ctx, func(sess *models.Session) error {
		exs, err := s.mutator.RemoveSet(sess.Exercises, exerciseID)
		if err != nil {
			return err
		}
		sess.Exercises = exs
		return nil
	})
}

// UpdateSet writes one set field. Completing a set starts the rest
// countdown from the default duration; this is the only place that
// couples set completion to the timer.
func (s *Store) UpdateSet(ctx context.Context, exerciseID string, setIndex int, field Field, value string) error {
	return s.mutate(ctx, func(sess *models.Session) error {
		exs, ev, err := s.mutator.UpdateSet(sess.Exercises, exerciseID, setIndex, field, value)
		if err != nil {
			return err
		}
		sess.Exercises = exs
		if ev != nil {
			s.rest.Start(s.rest.DefaultSeconds())
		}
		return nil
	})
}

// StartRest starts or retargets the countdown. Non-positive seconds use
// the default duration.
func (s *Store) StartRest(ctx context.Context, seconds int) error {
	return s.mutate(ctx, func(*models.Session) error {
		if seconds <= 0 {
			seconds = s.rest.DefaultSeconds()
		}
		s.rest.Start(seconds)
		return nil
	})
}

// ResetRest cancels the countdown without firing the finish notification.
func (s *Store) ResetRest(ctx context.Context) error {
	return s.mutate(ctx, func(*models.Session) error {
		s.rest.Reset()
		return nil
	})
}

// EndWorkout stops both timers, clears the resume snapshot and returns
// the store to idle. The in-memory state is cleared even when clearing
// the snapshot fails.
func (s *Store) EndWorkout(ctx context.Context) error {
	s.mu.Lock()
	err := s.endLocked(ctx)
	s.mu.Unlock()
	s.publish()
	return err
}

// Discard tears the session down without saving it. Discarding when no
// workout is live only clears the snapshot slot.
func (s *Store) Discard(ctx context.Context) error {
	s.mu.Lock()
	id := ""
	if s.session != nil {
		id = s.session.ID
	}
	err := s.endLocked(ctx)
	s.mu.Unlock()

	s.log.Info("workout discarded", "session", id)
	s.publish()
	return err
}

func (s *Store) endLocked(ctx context.Context) error {
	s.rest.Stop()
	s.rest.Reset()
	s.elapsed.Stop()
	s.session = nil
	s.finishing = false
	if err := s.snapshots.Clear(ctx); err != nil {
		s.log.Warn("clearing resume snapshot failed", "error", err)
		return fmt.Errorf("clearing resume snapshot: %w", err)
	}
	return nil
}

// BeginFinish validates the session for saving and marks a save as in
// flight. It returns a copy of the session and its duration in seconds.
func (s *Store) BeginFinish() (*models.Session, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session == nil || s.session.Lifecycle != models.LifecycleActive {
		return nil, 0, ErrNotActive
	}
	if s.finishing {
		return nil, 0, ErrFinishInProgress
	}
	if !s.session.HasCompletedWork() {
		return nil, 0, ErrNothingToSave
	}
	s.finishing = true
	sess := s.session.Clone()
	sess.Rest = s.rest.State()
	return sess, s.elapsed.Seconds(), nil
}

// AbortFinish clears the in-flight flag after a failed save. The session
// stays active so the user can retry.
func (s *Store) AbortFinish() {
	s.mu.Lock()
	s.finishing = false
	s.mu.Unlock()
	s.publish()
}

// CompleteFinish moves the saved session to finished and ends it in the
// same critical section, so a session started after a concurrent discard
// is never ended by mistake. If the session was discarded while the save
// ran, there is nothing left to do.
func (s *Store) CompleteFinish(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	if s.session == nil || s.session.ID != sessionID {
		s.finishing = false
		s.mu.Unlock()
		s.log.Warn("finished session no longer live", "session", sessionID)
		return nil
	}
	s.session.Lifecycle = models.LifecycleFinished
	s.rest.Stop()
	s.elapsed.Stop()
	finished := s.stateLocked()
	err := s.endLocked(ctx)
	s.mu.Unlock()

	s.log.Info("workout finished", "session", sessionID)
	s.publishState(finished)
	s.publish()
	return err
}

// EnterBackground forces a snapshot write before the host suspends us.
func (s *Store) EnterBackground(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session == nil || s.session.Lifecycle != models.LifecycleActive {
		return nil
	}
	if err := s.snapshots.Save(ctx, s.snapshotLocked()); err != nil {
		return fmt.Errorf("saving resume snapshot: %w", err)
	}
	return nil
}

// EnterForeground republishes state; durations are recomputed from the
// start time so they jump straight to the right value.
func (s *Store) EnterForeground() {
	s.publish()
}

// Rehydrate restores an active session from the resume snapshot. A
// missing, unreadable or inactive snapshot leaves the store idle.
func (s *Store) Rehydrate(ctx context.Context) error {
	snap, err := s.snapshots.Load(ctx)
	if err != nil {
		s.log.Warn("resume snapshot unreadable, starting fresh", "error", err)
		return nil
	}
	if snap == nil {
		return nil
	}
	sess := snap.Session.Clone()
	if sess.Lifecycle != models.LifecycleActive || sess.StartedAt == nil {
		s.log.Warn("discarding inactive resume snapshot", "session", sess.ID, "lifecycle", sess.Lifecycle)
		if err := s.snapshots.Clear(ctx); err != nil {
			s.log.Warn("clearing resume snapshot failed", "error", err)
		}
		return nil
	}

	s.mu.Lock()
	if s.session != nil {
		s.mu.Unlock()
		return ErrSessionActive
	}
	sess.Exercises = s.normalize(sess.Exercises)
	rest := sess.Rest
	sess.Rest = models.RestConfig{}
	s.session = sess
	s.finishing = false
	s.rest.Restore(rest)
	if rest.IsRunning && rest.ActiveSecondsRemaining > 0 {
		s.rest.Resume(rest.ActiveSecondsRemaining)
	}
	s.elapsed.Start(*sess.StartedAt)
	s.mu.Unlock()

	s.log.Info("workout rehydrated", "session", sess.ID, "saved_at", snap.SavedAt, "rest_remaining", rest.ActiveSecondsRemaining)
	s.publish()
	return nil
}

// mutate runs fn against the active session, then persists and publishes.
// Edits are refused while a save is in flight; they would be lost when the
// saved copy ends the session.
func (s *Store) mutate(ctx context.Context, fn func(sess *models.Session) error) error {
	s.mu.Lock()
	if s.session == nil || s.session.Lifecycle != models.LifecycleActive {
		s.mu.Unlock()
		return ErrNotActive
	}
	if s.finishing {
		s.mu.Unlock()
		return ErrFinishInProgress
	}
	if err := fn(s.session); err != nil {
		s.mu.Unlock()
		return err
	}
	s.saveSnapshotLocked(ctx)
	s.mu.Unlock()

	s.publish()
	return nil
}

// saveSnapshotLocked writes the snapshot; a failure costs at most this
// delta on a crash, so it is logged rather than returned.
func (s *Store) saveSnapshotLocked(ctx context.Context) {
	if err := s.snapshots.Save(ctx, s.snapshotLocked()); err != nil {
		s.log.Warn("saving resume snapshot failed", "session", s.session.ID, "error", err)
	}
}

func (s *Store) snapshotLocked() *models.Snapshot {
	sess := s.session.Clone()
	sess.Rest = s.rest.State()
	return &models.Snapshot{
		Version: models.SnapshotVersion,
		SavedAt: s.clock.Now(),
		Session: *sess,
	}
}

// normalize copies exercises and restores the one-set minimum and set ids.
func (s *Store) normalize(exs []models.Exercise) []models.Exercise {
	out := models.CloneExercises(exs)
	if out == nil {
		out = []models.Exercise{}
	}
	for i := range out {
		if len(out[i].Sets) == 0 {
			out[i].Sets = []models.Set{{Weight: "0"}}
		}
		for j := range out[i].Sets {
			if out[i].Sets[j].ID == "" {
				out[i].Sets[j].ID = s.mutator.newID()
			}
		}
	}
	return out
}

func (s *Store) publish() {
	s.publishState(s.State())
}

func (s *Store) publishState(st State) {
	s.subMu.Lock()
	fns := make([]func(State), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subMu.Unlock()

	for _, fn := range fns {
		fn(st)
	}
}
