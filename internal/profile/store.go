package profile

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/mitchellh/go-homedir"
	"go.uber.org/zap"

	"github.com/xkilldash9x/stylelens/api/schemas"
)

// EventKind names a store change.
type EventKind string

const (
	EventReloaded    EventKind = "reloaded"
	EventUnavailable EventKind = "unavailable"
	EventSelected    EventKind = "selected"
	EventCleared     EventKind = "cleared"
)

// Event describes the store after a change: the available names and the active profile.
type Event struct {
	Kind   EventKind `json:"kind"`
	Names  []string  `json:"names"`
	Active string    `json:"active,omitempty"`
	Error  string    `json:"error,omitempty"`
}

// subscriberBuffer is the number of events queued per subscriber before new ones are dropped.
const subscriberBuffer = 16

// Store holds the loaded profile set and the single active profile. It is safe for
// concurrent use.
type Store struct {
	mu     sync.RWMutex
	logger *zap.Logger
	path   string
	set    *Set
	active string

	subs    map[int]chan Event
	nextSub int
}

// NewStore creates a store backed by path. Nothing is read until Reload.
func NewStore(logger *zap.Logger, path string) *Store {
	return &Store{
		logger: logger.Named("profiles"),
		path:   path,
		set:    NewSet(),
	}
}

// NewStoreFromSet creates a store with a fixed set and no backing file.
func NewStoreFromSet(logger *zap.Logger, set *Set) *Store {
	s := NewStore(logger, "")
	if set != nil {
		s.set = set
	}
	return s
}

// Path is the backing file, possibly empty.
func (s *Store) Path() string {
	return s.path
}

// Reload re-reads the backing file. On failure the store is emptied and the selection
// cleared, so a broken file never leaves stale profiles selectable. On success the active
// profile is kept if it still exists.
func (s *Store) Reload() error {
	set, err := Load(s.path)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.set = NewSet()
		s.active = ""
		s.logger.Error("Profiles unavailable.", zap.String("path", s.path), zap.Error(err))
		s.notifyLocked(EventUnavailable, err)
		return err
	}
	s.set = set
	if _, ok := set.Get(s.active); !ok {
		s.active = ""
	}
	s.logger.Info("Profiles loaded.", zap.String("path", s.path), zap.Int("count", set.Len()))
	s.notifyLocked(EventReloaded, nil)
	return nil
}

// Names lists the available profiles in declaration order.
func (s *Store) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.set.Names()
}

// Get returns a profile by name.
func (s *Store) Get(name string) (*schemas.ExpectedProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.set.Len() == 0 {
		return nil, ErrNoProfiles
	}
	p, ok := s.set.Get(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrProfileNotFound, name)
	}
	return p, nil
}

// Select makes name the active profile.
func (s *Store) Select(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.set.Len() == 0 {
		return ErrNoProfiles
	}
	if _, ok := s.set.Get(name); !ok {
		return fmt.Errorf("%w: %q", ErrProfileNotFound, name)
	}
	s.active = name
	s.notifyLocked(EventSelected, nil)
	return nil
}

// Clear deselects the active profile.
func (s *Store) Clear() {
	s.mu.Lock()
	s.active = ""
	s.notifyLocked(EventCleared, nil)
	s.mu.Unlock()
}

// Snapshot describes the current state without a change.
func (s *Store) Snapshot() Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Event{Names: s.set.Names(), Active: s.active}
}

// Subscribe registers for change events. The returned function unsubscribes and closes the
// channel. Slow subscribers miss events rather than block the store.
func (s *Store) Subscribe() (<-chan Event, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.subs == nil {
		s.subs = make(map[int]chan Event)
	}
	id := s.nextSub
	s.nextSub++
	ch := make(chan Event, subscriberBuffer)
	s.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
			close(ch)
		})
	}
}

// notifyLocked fans an event out to subscribers. Must be called with mu held.
func (s *Store) notifyLocked(kind EventKind, err error) {
	if len(s.subs) == 0 {
		return
	}
	ev := Event{Kind: kind, Names: s.set.Names(), Active: s.active}
	if err != nil {
		ev.Error = err.Error()
	}
	for id, ch := range s.subs {
		select {
		case ch <- ev:
		default:
			s.logger.Debug("Dropping profile event for slow subscriber.", zap.Int("subscriber", id))
		}
	}
}

// Active returns the selected profile, if any.
func (s *Store) Active() (*schemas.ExpectedProfile, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.active == "" {
		return nil, false
	}
	return s.set.Get(s.active)
}

// Watch reloads the store whenever the backing file changes, until ctx is cancelled.
// The parent directory is watched so editors that replace the file are handled. Bursts of
// events within debounce are folded into one reload.
func (s *Store) Watch(ctx context.Context, debounce time.Duration) error {
	if s.path == "" {
		return fmt.Errorf("profile store has no backing file to watch")
	}
	expanded, err := homedir.Expand(s.path)
	if err != nil {
		return fmt.Errorf("failed to expand profile path '%s': %w", s.path, err)
	}
	target := filepath.Clean(expanded)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("failed to watch profile directory: %w", err)
	}
	s.logger.Info("Watching profiles for changes.", zap.String("path", target))

	var (
		timer   *time.Timer
		pending <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) ||
				event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
				if timer == nil {
					timer = time.NewTimer(debounce)
				} else {
					timer.Reset(debounce)
				}
				pending = timer.C
			}

		case <-pending:
			pending = nil
			// Reload logs its own failure and leaves the store empty.
			_ = s.Reload()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.logger.Warn("Profile watcher error.", zap.Error(err))
		}
	}
}
