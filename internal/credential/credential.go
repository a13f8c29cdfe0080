// Package credential keeps the Anthropic API key. The key lives in a
// dotenv file next to the binary, can be replaced at runtime through the
// HTTP API, and is reloaded when the file is edited by hand.
package credential

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/joho/godotenv"
)

// EnvVar is the dotenv key holding the credential.
const EnvVar = "ANTHROPIC_API_KEY"

// ErrEmptyKey is returned by Save for a blank key.
var ErrEmptyKey = errors.New("API key is required")

// Store holds the current key and the file it persists to.
type Store struct {
	mu     sync.RWMutex
	path   string
	key    string
	logger *slog.Logger
}

// New creates a Store persisting to path. initial is the key from
// configuration; a key in the file takes precedence once loaded.
func New(path, initial string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		path:   path,
		key:    strings.TrimSpace(initial),
		logger: logger.With("component", "credential"),
	}
}

// Path returns the dotenv file location.
func (s *Store) Path() string { return s.path }

// Load reads the key from the file. A missing file or a file without
// the key leaves the current key in place.
func (s *Store) Load() error {
	env, err := godotenv.Read(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", s.path, err)
	}
	key := strings.TrimSpace(env[EnvVar])
	if key == "" {
		return nil
	}

	s.mu.Lock()
	changed := key != s.key
	s.key = key
	s.mu.Unlock()

	if changed {
		s.logger.Info("credential loaded", "path", s.path)
	}
	return nil
}

// Key returns the current key, or "" when none is set.
func (s *Store) Key() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.key
}

// IsSet reports whether a key is available.
func (s *Store) IsSet() bool { return s.Key() != "" }

// Masked returns one asterisk per character of the key.
func (s *Store) Masked() string {
	return strings.Repeat("*", len(s.Key()))
}

// Save writes key to the file, keeping any other variables there, and
// makes it current immediately.
func (s *Store) Save(key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return ErrEmptyKey
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	env, err := godotenv.Read(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		env = map[string]string{}
	} else if err != nil {
		return fmt.Errorf("read %s: %w", s.path, err)
	}
	env[EnvVar] = key
	if err := godotenv.Write(env, s.path); err != nil {
		return fmt.Errorf("write %s: %w", s.path, err)
	}

	s.key = key
	s.logger.Info("credential saved", "path", s.path)
	return nil
}

// Watch reloads the key whenever the file changes until ctx is done.
// The parent directory is watched so editors that replace the file on
// save are seen too.
func (s *Store) Watch(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer w.Close()

	target := filepath.Clean(s.path)
	if err := w.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(target), err)
	}
	s.logger.Debug("watching credential file", "path", target)

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if err := s.Load(); err != nil {
				s.logger.Warn("credential reload failed", "error", err)
			}

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			s.logger.Warn("credential watcher error", "error", err)
		}
	}
}
