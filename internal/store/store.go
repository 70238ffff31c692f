// Package store holds the authoritative task list and the transient fields
// the UI renders from, and mirrors the list into a storage slot after every
// mutation.
package store

import (
	"errors"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/nibzard/nextask/internal/storage"
	"github.com/nibzard/nextask/internal/task"
)

// Default delays for the scheduled resets.
const (
	DefaultErrorTimeout = 3000 * time.Millisecond
	DefaultShakeTimeout = 300 * time.Millisecond
)

// maxIDAttempts bounds retries when a generator returns an id already in use.
const maxIDAttempts = 8

// ErrWritesSuspended is recorded instead of writing when the slot holds a
// blob that failed to load. StartFreshList lifts the suspension.
var ErrWritesSuspended = errors.New("writes suspended: storage slot holds unreadable data")

// Option configures a Store.
type Option func(*Store)

// WithStorageKey sets the slot key holding the persisted list.
func WithStorageKey(key string) Option {
	return func(s *Store) {
		if key != "" {
			s.key = key
		}
	}
}

// WithLogger sets the logger used for storage diagnostics.
func WithLogger(logger *log.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithScheduler replaces the timer source for the scheduled resets.
func WithScheduler(sched Scheduler) Option {
	return func(s *Store) {
		if sched != nil {
			s.scheduler = sched
		}
	}
}

// WithIDGenerator replaces the task id generator.
func WithIDGenerator(gen task.IDGenerator) Option {
	return func(s *Store) {
		if gen != nil {
			s.newID = gen
		}
	}
}

// WithErrorTimeout sets how long a validation message stays visible.
func WithErrorTimeout(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.errorTimeout = d
		}
	}
}

// WithShakeTimeout sets how long the input shake flag stays set.
func WithShakeTimeout(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.shakeTimeout = d
		}
	}
}

type listener struct {
	id int
	fn func(State)
}

// Store owns the task list and all transient UI fields. The zero value is
// not usable; construct with New and call LoadTasksFromLocalStorage once at
// startup.
type Store struct {
	mu    sync.Mutex
	state State

	slot         storage.Slot
	key          string
	logger       *log.Logger
	scheduler    Scheduler
	newID        task.IDGenerator
	errorTimeout time.Duration
	shakeTimeout time.Duration

	errorTimer Timer
	errorGen   uint64
	shakeTimer Timer
	shakeGen   uint64

	persistErr error
	loadErr    error
	// suspended keeps an unusable blob in the slot from being overwritten.
	suspended bool

	listeners    []listener
	nextListener int
}

// New creates a store backed by slot. A nil slot behaves like storage that
// is permanently unavailable.
func New(slot storage.Slot, opts ...Option) *Store {
	s := &Store{
		state: State{
			AppStatus:      StatusInitialized,
			Tasks:          []task.Task{},
			IsLoadingTasks: true,
		},
		slot:         slot,
		key:          DefaultStorageKey,
		logger:       log.New(io.Discard),
		scheduler:    RealScheduler{},
		newID:        task.NewID,
		errorTimeout: DefaultErrorTimeout,
		shakeTimeout: DefaultShakeTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State returns a copy of the current state.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.clone()
}

// LoadError returns the error from the most recent load, or nil if the load
// succeeded or found no persisted data.
func (s *Store) LoadError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadErr
}

// LastPersistError returns the error from the most recent write-through, or
// nil if it succeeded or none happened yet.
func (s *Store) LastPersistError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.persistErr
}

// Subscribe registers fn to be called with a state copy after every change.
// Callbacks run outside the store lock and may call back into the store.
// The returned function removes the subscription.
func (s *Store) Subscribe(fn func(State)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextListener
	s.nextListener++
	s.listeners = append(s.listeners, listener{id: id, fn: fn})
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, l := range s.listeners {
			if l.id == id {
				s.listeners = append(s.listeners[:i:i], s.listeners[i+1:]...)
				return
			}
		}
	}
}

// SetTaskInputDescription stores the live input text verbatim. Typing
// dismisses an active error message.
func (s *Store) SetTaskInputDescription(text string) {
	s.update(func() bool {
		s.state.TaskInputDescription = text
		if s.state.ErrorMessage != "" {
			s.cancelErrorClearLocked()
			s.state.ErrorMessage = ""
		}
		return true
	})
}

// LoadTasksFromLocalStorage rehydrates the list from the storage slot.
// Failures are converted into AppStatus and ErrorMessage; nothing is
// returned to the caller.
func (s *Store) LoadTasksFromLocalStorage() {
	s.update(func() bool {
		s.state.IsLoadingTasks = true
		return true
	})
	s.update(func() bool {
		defer func() {
			s.state.IsLoadingTasks = false
		}()
		s.loadLocked()
		return true
	})
}

func (s *Store) loadLocked() {
	s.state.Tasks = []task.Task{}
	s.loadErr = nil
	s.suspended = false

	if s.slot == nil {
		s.markUnavailableLocked(storage.ErrUnavailable)
		return
	}

	data, ok, err := s.slot.Get(s.key)
	if err != nil {
		s.markUnavailableLocked(err)
		return
	}
	if !ok {
		s.state.HasPersistedData = false
		s.state.AppStatus = StatusInitialized
		s.logger.Debug("no persisted tasks", "key", s.key)
		return
	}

	snap, err := task.DecodeSnapshot(data)
	switch {
	case errors.Is(err, task.ErrMalformed):
		s.suspended = true
		s.markUnavailableLocked(err)
	case err != nil:
		s.loadErr = err
		s.suspended = true
		s.cancelErrorClearLocked()
		s.state.HasPersistedData = false
		s.state.AppStatus = StatusError
		s.state.ErrorMessage = MsgCorruptedData
		s.logger.Error("persisted tasks are corrupted", "key", s.key, "err", err)
	default:
		s.state.Tasks = snap.Tasks
		s.state.HasPersistedData = len(snap.Tasks) > 0
		s.state.AppStatus = StatusInitialized
		s.logger.Debug("tasks loaded", "key", s.key, "count", len(snap.Tasks))
	}
}

func (s *Store) markUnavailableLocked(err error) {
	s.loadErr = err
	s.cancelErrorClearLocked()
	s.state.Tasks = []task.Task{}
	s.state.HasPersistedData = false
	s.state.AppStatus = StatusLocalStorageUnavailable
	s.state.ErrorMessage = MsgStorageUnavailable
	s.logger.Error("storage unavailable", "key", s.key, "err", err)
}

// AddNewTask validates the input text and appends a task built from it.
// It returns false, with ErrorMessage set, when validation fails.
func (s *Store) AddNewTask() bool {
	var added bool
	s.update(func() bool {
		desc, err := task.NormalizeDescription(s.state.TaskInputDescription)
		if err != nil {
			msg := MsgEmptyTask
			if errors.Is(err, task.ErrDescriptionTooLong) {
				msg = MsgTaskTooLong
			}
			s.showValidationErrorLocked(msg)
			return true
		}

		s.state.Tasks = appendTask(s.state.Tasks, task.New(s.uniqueIDLocked(), desc))
		s.state.TaskInputDescription = ""
		s.state.HasPersistedData = true
		s.persistLocked()
		added = true
		return true
	})
	return added
}

// ToggleTaskCompletion flips the completed flag of the task with id.
// Unknown ids are ignored.
func (s *Store) ToggleTaskCompletion(id string) {
	s.update(func() bool {
		tasks, changed := toggleTask(s.state.Tasks, id)
		if !changed {
			return false
		}
		s.state.Tasks = tasks
		s.persistLocked()
		return true
	})
}

// DeleteTask removes the task with id. Unknown ids are ignored.
func (s *Store) DeleteTask(id string) {
	s.update(func() bool {
		tasks, changed := deleteTask(s.state.Tasks, id)
		if !changed {
			return false
		}
		s.state.Tasks = tasks
		s.state.HasPersistedData = len(tasks) > 0
		s.persistLocked()
		return true
	})
}

// ClearErrorMessage removes the active error message, if any.
func (s *Store) ClearErrorMessage() {
	s.update(func() bool {
		s.cancelErrorClearLocked()
		if s.state.ErrorMessage == "" {
			return false
		}
		s.state.ErrorMessage = ""
		return true
	})
}

// StartFreshList discards the current list, resets the app status and
// persists the empty list. It is the way out of a corrupted slot.
func (s *Store) StartFreshList() {
	s.update(func() bool {
		s.cancelErrorClearLocked()
		s.state.Tasks = []task.Task{}
		s.state.HasPersistedData = false
		s.state.AppStatus = StatusInitialized
		s.state.ErrorMessage = ""
		s.loadErr = nil
		s.suspended = false
		s.persistLocked()
		return true
	})
}

// Close stops pending timers.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelErrorClearLocked()
	s.cancelShakeLocked()
}

// persistLocked writes the current list through to the slot. A failure is
// logged and recorded; in-memory state is kept.
func (s *Store) persistLocked() {
	if s.suspended {
		s.persistErr = ErrWritesSuspended
		s.logger.Warn("write-through skipped", "key", s.key, "err", s.loadErr)
		return
	}
	data, err := task.EncodeSnapshot(s.state.Tasks, s.state.HasPersistedData)
	if err == nil {
		if s.slot == nil {
			err = storage.ErrUnavailable
		} else {
			err = s.slot.Set(s.key, data)
		}
	}
	if err != nil {
		s.persistErr = err
		s.logger.Warn("write-through failed", "key", s.key, "err", err)
		return
	}
	s.persistErr = nil
	s.logger.Debug("tasks persisted", "key", s.key, "count", len(s.state.Tasks))
}

func (s *Store) uniqueIDLocked() string {
	for i := 0; i < maxIDAttempts; i++ {
		id := s.newID()
		if id != "" && task.Index(s.state.Tasks, id) < 0 {
			return id
		}
	}
	s.logger.Warn("id generator kept returning ids in use, falling back to uuid")
	for {
		id := task.NewID()
		if task.Index(s.state.Tasks, id) < 0 {
			return id
		}
	}
}

func (s *Store) showValidationErrorLocked(msg string) {
	s.state.ErrorMessage = msg
	s.state.InputShake = true
	s.scheduleErrorClearLocked()
	s.scheduleShakeResetLocked()
}

// scheduleErrorClearLocked replaces any pending clear with a new one. The
// generation check turns a callback that raced with Stop into a no-op.
func (s *Store) scheduleErrorClearLocked() {
	s.cancelErrorClearLocked()
	gen := s.errorGen
	s.errorTimer = s.scheduler.AfterFunc(s.errorTimeout, func() {
		s.update(func() bool {
			if gen != s.errorGen {
				return false
			}
			s.errorTimer = nil
			if s.state.ErrorMessage == "" {
				return false
			}
			s.state.ErrorMessage = ""
			return true
		})
	})
}

func (s *Store) cancelErrorClearLocked() {
	if s.errorTimer != nil {
		s.errorTimer.Stop()
		s.errorTimer = nil
	}
	s.errorGen++
}

func (s *Store) scheduleShakeResetLocked() {
	s.cancelShakeLocked()
	gen := s.shakeGen
	s.shakeTimer = s.scheduler.AfterFunc(s.shakeTimeout, func() {
		s.update(func() bool {
			if gen != s.shakeGen || !s.state.InputShake {
				return false
			}
			s.shakeTimer = nil
			s.state.InputShake = false
			return true
		})
	})
}

func (s *Store) cancelShakeLocked() {
	if s.shakeTimer != nil {
		s.shakeTimer.Stop()
		s.shakeTimer = nil
	}
	s.shakeGen++
}

// update runs fn under the lock and, if fn reports a change, notifies
// listeners with the resulting state after the lock is released.
func (s *Store) update(fn func() bool) {
	st, listeners, changed := s.apply(fn)
	if !changed {
		return
	}
	for _, fn := range listeners {
		fn(st)
	}
}

func (s *Store) apply(fn func() bool) (State, []func(State), bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !fn() {
		return State{}, nil, false
	}
	fns := make([]func(State), 0, len(s.listeners))
	for _, l := range s.listeners {
		fns = append(fns, l.fn)
	}
	return s.state.clone(), fns, true
}
