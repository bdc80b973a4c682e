// Package artifact persists validated record sets as JSON files that hand data
// from one pipeline stage to the next.
package artifact

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Kind names the stage an artifact belongs to.
type Kind string

const (
	KindList    Kind = "list"
	KindDetails Kind = "details"
)

// ErrNotFound is returned when a stage reads an artifact that was never written.
var ErrNotFound = errors.New("artifact not found")

// Mirror receives a copy of every artifact after it is written locally.
type Mirror interface {
	Upload(ctx context.Context, key string, data []byte) error
}

// Store reads and writes artifacts under a single directory.
type Store struct {
	dir    string
	mirror Mirror
	logger *slog.Logger
}

// NewStore creates a store rooted at dir. mirror may be nil.
func NewStore(dir string, mirror Mirror, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{dir: dir, mirror: mirror, logger: logger}
}

// Dir returns the root directory of the store.
func (s *Store) Dir() string { return s.dir }

// Slug turns a city name into the artifact filename prefix.
func Slug(city string) string {
	return strings.Join(strings.Fields(strings.ToLower(city)), "-")
}

// Path returns where the artifact for city and kind lives.
func (s *Store) Path(city string, kind Kind) string {
	return filepath.Join(s.dir, fmt.Sprintf("%s-attractions-%s.json", Slug(city), kind))
}

// Write replaces the artifact with records, indented by two spaces. The file is
// written to a temporary sibling and renamed so readers never see a partial file.
func (s *Store) Write(ctx context.Context, city string, kind Kind, records any) (string, error) {
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal %s artifact: %w", kind, err)
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("create artifacts dir: %w", err)
	}

	path := s.Path(city, kind)
	tmp, err := os.CreateTemp(s.dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return "", fmt.Errorf("create temp artifact: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return "", fmt.Errorf("write artifact: %w", err)
	}
	// CreateTemp makes the file owner-only; artifacts are read by other stages and users.
	if err := tmp.Chmod(0o644); err != nil {
		_ = tmp.Close()
		return "", fmt.Errorf("chmod artifact: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return "", fmt.Errorf("sync artifact: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close artifact: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", fmt.Errorf("replace artifact: %w", err)
	}

	s.logger.Info("artifact written", "path", path, "kind", kind, "size_bytes", len(data))

	if s.mirror != nil {
		if err := s.mirror.Upload(ctx, filepath.Base(path), data); err != nil {
			s.logger.Warn("artifact mirror upload failed", "path", path, "error", err)
		}
	}
	return path, nil
}

// Read decodes the artifact for city and kind into dst.
func (s *Store) Read(city string, kind Kind, dst any) error {
	path := s.Path(city, kind)
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	if err != nil {
		return fmt.Errorf("read artifact %s: %w", path, err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("decode artifact %s: %w", path, err)
	}
	return nil
}
