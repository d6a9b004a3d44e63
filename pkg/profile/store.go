package profile

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"sync"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Store holds the current profiles by name. It is safe for concurrent use.
type Store struct {
	mu       sync.RWMutex
	profiles map[string]Profile
	logger   *zap.Logger
}

// NewStore creates an empty store.
func NewStore(logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{profiles: map[string]Profile{}, logger: logger}
}

// Load replaces the store's profiles with those in path. On error the
// current profiles are kept.
func (s *Store) Load(path string) error {
	profiles, err := Load(path)
	if err != nil {
		return err
	}

	byName := make(map[string]Profile, len(profiles))
	names := make([]string, 0, len(profiles))
	for _, p := range profiles {
		byName[p.Name] = p
		names = append(names, p.Name)
	}
	sort.Strings(names)

	s.mu.Lock()
	s.profiles = byName
	s.mu.Unlock()

	s.logger.Info("loaded agent profiles",
		zap.String("path", path),
		zap.Strings("agents", names),
	)
	return nil
}

// Get returns the named profile.
func (s *Store) Get(name string) (Profile, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.profiles[name]
	return p, ok
}

// Names returns the profile names in sorted order.
func (s *Store) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.profiles))
	for name := range s.profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Watch reloads path whenever it is written or replaced, until ctx is done.
// The directory is watched rather than the file so editors that save by
// renaming are picked up. A reload that fails is logged and the previous
// profiles stay in place. onReload, if set, is called after each attempt.
func (s *Store) Watch(ctx context.Context, path string, onReload func(error)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("could not create watcher: %w", err)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		watcher.Close()
		return fmt.Errorf("could not resolve %s: %w", path, err)
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		watcher.Close()
		return fmt.Errorf("could not watch %s: %w", filepath.Dir(abs), err)
	}

	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return

			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != abs || ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				err := s.Load(abs)
				if err != nil {
					s.logger.Warn("profile reload failed, keeping previous profiles",
						zap.String("path", abs),
						zap.Error(err),
					)
				}
				if onReload != nil {
					onReload(err)
				}

			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				s.logger.Warn("profile watcher error", zap.Error(err))
			}
		}
	}()

	return nil
}
