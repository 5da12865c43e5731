package auth

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/jonwraymond/gymcache/codec"
)

// FileStorage keeps the session in a single file readable only by its owner.
type FileStorage struct {
	path  string
	codec codec.Codec[Session]
	mu    sync.Mutex
}

// NewFileStorage stores the session at path, encoded with c (JSON when nil).
func NewFileStorage(path string, c codec.Codec[Session]) *FileStorage {
	return &FileStorage{path: path, codec: sessionCodec(c)}
}

// Path returns the session file path.
func (f *FileStorage) Path() string { return f.path }

func (f *FileStorage) Load(context.Context) (Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	b, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return Session{}, ErrNoSession
	}
	if err != nil {
		return Session{}, fmt.Errorf("auth: read session: %w", err)
	}
	s, err := f.codec.Decode(b)
	if err != nil {
		return Session{}, fmt.Errorf("%w: %v", ErrInvalidSession, err)
	}
	return s, nil
}

// Save writes to a temporary file and renames it over the old one, so a
// crash mid-write never leaves a truncated session behind.
func (f *FileStorage) Save(_ context.Context, s Session) error {
	b, err := f.codec.Encode(s)
	if err != nil {
		return fmt.Errorf("auth: encode session: %w", err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("auth: session dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(f.path)+".tmp.*")
	if err != nil {
		return fmt.Errorf("auth: write session: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		return fmt.Errorf("auth: write session: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("auth: write session: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("auth: write session: %w", err)
	}
	return nil
}

func (f *FileStorage) Clear(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := os.Remove(f.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("auth: clear session: %w", err)
	}
	return nil
}
