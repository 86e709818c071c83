package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
)

const (
	lockTimeout   = 5 * time.Second
	lockRetryWait = 50 * time.Millisecond
)

// FileStore keeps the session in a JSON file with mode 0600.
// Concurrent invocations are serialized with an advisory lock on <path>.lock.
// When a passphrase is set, the file is sealed (see seal.go).
type FileStore struct {
	path       string
	passphrase string
	lock       *flock.Flock
}

// NewFileStore creates a FileStore at path. An empty passphrase stores plain JSON.
func NewFileStore(path, passphrase string) *FileStore {
	return &FileStore{
		path:       path,
		passphrase: passphrase,
		lock:       flock.New(path + ".lock"),
	}
}

// Path returns the session file path.
func (f *FileStore) Path() string {
	return f.path
}

func (f *FileStore) acquire(ctx context.Context) (func(), error) {
	if err := os.MkdirAll(filepath.Dir(f.path), 0700); err != nil {
		return nil, fmt.Errorf("failed to create session directory: %w", err)
	}
	ctx, cancel := context.WithTimeout(ctx, lockTimeout)
	defer cancel()

	ok, err := f.lock.TryLockContext(ctx, lockRetryWait)
	if err != nil {
		return nil, fmt.Errorf("failed to lock session file: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("session file is locked: %s", f.path)
	}
	return func() { _ = f.lock.Unlock() }, nil
}

// Get implements Store.
func (f *FileStore) Get(ctx context.Context) (*Session, error) {
	unlock, err := f.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer unlock()

	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNoSession
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read session: %w", err)
	}

	if isSealed(data) {
		if f.passphrase == "" {
			return nil, errors.New("session file is sealed; set TODO_SESSION_KEY")
		}
		data, err = open(data, f.passphrase)
		if err != nil {
			return nil, err
		}
	}

	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("invalid session file: %w", err)
	}
	return &s, nil
}

// Set implements Store.
func (f *FileStore) Set(ctx context.Context, s *Session) error {
	unlock, err := f.acquire(ctx)
	if err != nil {
		return err
	}
	defer unlock()

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	if f.passphrase != "" {
		data, err = seal(data, f.passphrase)
		if err != nil {
			return err
		}
	}

	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("failed to write session: %w", err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to write session: %w", err)
	}
	return nil
}

// Clear implements Store.
func (f *FileStore) Clear(ctx context.Context) error {
	unlock, err := f.acquire(ctx)
	if err != nil {
		return err
	}
	defer unlock()

	if err := os.Remove(f.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove session: %w", err)
	}
	return nil
}
