package scratchpad

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
)

// Store provides per-user scratch notes backed by .md files.
// A note named {scope} for user {uid} lives at {root}/{uid}/{scope}.md.
type Store struct {
	root string
	mu   sync.RWMutex
}

var scopePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{1,64}$`)

// NewStore creates a scratchpad store rooted at dir. User directories are
// created lazily on the first write.
func NewStore(dir string) *Store {
	return &Store{root: dir}
}

func (s *Store) validate(userID, scope string) error {
	if !scopePattern.MatchString(userID) {
		return fmt.Errorf("scratchpad: invalid user id %q", userID)
	}
	if !scopePattern.MatchString(scope) {
		return fmt.Errorf("scratchpad: invalid scope %q", scope)
	}
	return nil
}

// Get returns the content of a user's note, or empty string if absent.
func (s *Store) Get(userID, scope string) (string, error) {
	if err := s.validate(userID, scope); err != nil {
		return "", err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(filepath.Join(s.root, userID, scope+".md"))
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("scratchpad: read %s/%s: %w", userID, scope, err)
	}
	return string(data), nil
}

// Set writes content to a user's note, creating the user directory if needed.
func (s *Store) Set(userID, scope, content string) error {
	if err := s.validate(userID, scope); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	dir := filepath.Join(s.root, userID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("scratchpad: mkdir: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, scope+".md"), []byte(content), 0o644); err != nil {
		return fmt.Errorf("scratchpad: write %s/%s: %w", userID, scope, err)
	}
	return nil
}

// List returns the note scopes a user has, with content sizes in bytes.
func (s *Store) List(userID string) (map[string]int, error) {
	if !scopePattern.MatchString(userID) {
		return nil, fmt.Errorf("scratchpad: invalid user id %q", userID)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := os.ReadDir(filepath.Join(s.root, userID))
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]int{}, nil
		}
		return nil, fmt.Errorf("scratchpad: list %s: %w", userID, err)
	}

	out := make(map[string]int)
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".md") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		out[strings.TrimSuffix(e.Name(), ".md")] = int(info.Size())
	}
	return out, nil
}

// Delete removes a user's note. Deleting a missing note is not an error.
func (s *Store) Delete(userID, scope string) error {
	if err := s.validate(userID, scope); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	path := filepath.Join(s.root, userID, scope+".md")
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("scratchpad: delete %s/%s: %w", userID, scope, err)
	}
	return nil
}
