package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const reloadDebounce = 200 * time.Millisecond

// PolicyChange describes a successful reload.
type PolicyChange struct {
	Previous Policy
	Current  Policy
	Sections []string
}

// PolicyStore is the read-only Config Store: it serves the live policy and
// reports changes to listeners.
type PolicyStore struct {
	path   string
	logger *zap.Logger

	mu        sync.RWMutex
	current   Policy
	listeners []func(PolicyChange)
}

func NewPolicyStore(path string, logger *zap.Logger) (*PolicyStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	policy, err := LoadPolicy(path)
	if err != nil {
		return nil, err
	}
	return &PolicyStore{path: path, logger: logger, current: policy}, nil
}

// NewStaticPolicyStore serves p and never reloads.
func NewStaticPolicyStore(p Policy) *PolicyStore {
	return &PolicyStore{logger: zap.NewNop(), current: p}
}

func (s *PolicyStore) Current() Policy {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// OnChange registers fn for every successful reload that changed something.
func (s *PolicyStore) OnChange(fn func(PolicyChange)) {
	s.mu.Lock()
	s.listeners = append(s.listeners, fn)
	s.mu.Unlock()
}

// Replace installs p as the live policy and notifies listeners.
func (s *PolicyStore) Replace(p Policy) error {
	if err := p.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	previous := s.current
	sections := previous.ChangedSections(p)
	if len(sections) == 0 {
		s.mu.Unlock()
		return nil
	}
	s.current = p
	listeners := append([]func(PolicyChange){}, s.listeners...)
	s.mu.Unlock()

	change := PolicyChange{Previous: previous, Current: p, Sections: sections}
	for _, fn := range listeners {
		fn(change)
	}
	return nil
}

// Reload re-reads the policy file. An invalid file leaves the live policy in place.
func (s *PolicyStore) Reload() error {
	if s.path == "" {
		return nil
	}
	next, err := LoadPolicy(s.path)
	if err != nil {
		return err
	}
	return s.Replace(next)
}

// Watch reloads the policy whenever its file changes, until ctx is done.
func (s *PolicyStore) Watch(ctx context.Context) error {
	if s.path == "" {
		<-ctx.Done()
		return nil
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create policy watcher: %w", err)
	}
	defer watcher.Close()

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create policy dir: %w", err)
	}
	// Editors replace files by rename, so the directory is watched instead of the file.
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch policy dir: %w", err)
	}
	s.logger.Info("watching policy", zap.String("path", s.path))

	target := filepath.Clean(s.path)
	var pending <-chan time.Time
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
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			pending = time.After(reloadDebounce)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.logger.Warn("policy watcher error", zap.Error(err))
		case <-pending:
			pending = nil
			if err := s.Reload(); err != nil {
				s.logger.Warn("policy reload rejected, keeping previous policy", zap.Error(err))
				continue
			}
			s.logger.Info("policy reloaded", zap.String("path", s.path))
		}
	}
}
