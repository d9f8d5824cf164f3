package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

// ErrNoSession is returned by Load when nothing is saved for a video.
var ErrNoSession = errors.New("no saved session")

// validVideoID guards keys and file names built from video ids.
var validVideoID = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

func checkVideoID(id string) error {
	if !validVideoID.MatchString(id) {
		return fmt.Errorf("invalid video id %q", id)
	}
	return nil
}

// SessionStore persists sessions keyed by video id.
type SessionStore interface {
	Save(ctx context.Context, s *Session) error
	Load(ctx context.Context, videoID string) (*Session, error) // returns ErrNoSession if none exists
	Delete(ctx context.Context, videoID string) error
	List(ctx context.Context) ([]*Session, error) // most recently updated first
	Close() error
}

// diskStore is the concrete SessionStore that writes to the XDG data directory.
type diskStore struct {
	dir string // one <video id>.json per session
}

// NewSessionStore returns a SessionStore backed by the XDG data directory.
// Path: $XDG_DATA_HOME/tsync/sessions or ~/.local/share/tsync/sessions
func NewSessionStore() (SessionStore, error) {
	base, err := dataDir()
	if err != nil {
		return nil, fmt.Errorf("resolving data directory: %w", err)
	}
	dir := filepath.Join(base, "sessions")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	return &diskStore{dir: dir}, nil
}

// dataDir returns the tsync-specific XDG data directory.
func dataDir() (string, error) {
	base := os.Getenv("XDG_DATA_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(base, "tsync"), nil
}

func (d *diskStore) path(videoID string) string {
	return filepath.Join(d.dir, videoID+".json")
}

// Save marshals s to JSON and writes it atomically via a temp file + os.Rename.
func (d *diskStore) Save(_ context.Context, s *Session) (err error) {
	if err := checkVideoID(s.VideoID); err != nil {
		return err
	}
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to persist session: %w", err)
	}

	// Write to a temp file in the same directory so os.Rename is atomic.
	tmp, err := os.CreateTemp(d.dir, "session-*.json.tmp")
	if err != nil {
		return fmt.Errorf("failed to persist session: %w", err)
	}
	tmpName := tmp.Name()

	// Clean up the temp file on any error path.
	defer func() {
		if err != nil {
			os.Remove(tmpName)
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to persist session: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("failed to persist session: %w", err)
	}
	if err = os.Rename(tmpName, d.path(s.VideoID)); err != nil {
		return fmt.Errorf("failed to persist session: %w", err)
	}
	return nil
}

// Load reads and unmarshals the session file for videoID.
// Returns ErrNoSession if the file does not exist.
func (d *diskStore) Load(_ context.Context, videoID string) (*Session, error) {
	if err := checkVideoID(videoID); err != nil {
		return nil, err
	}
	return readSession(d.path(videoID))
}

func readSession(path string) (*Session, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNoSession
		}
		return nil, fmt.Errorf("failed to read session: %w", err)
	}
	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse session %s: %w", path, err)
	}
	return &s, nil
}

// Delete removes the session file from disk.
func (d *diskStore) Delete(_ context.Context, videoID string) error {
	if err := checkVideoID(videoID); err != nil {
		return err
	}
	if err := os.Remove(d.path(videoID)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// List reads every session file. Unreadable files are skipped.
func (d *diskStore) List(_ context.Context) ([]*Session, error) {
	entries, err := os.ReadDir(d.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	var out []*Session
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		s, err := readSession(filepath.Join(d.dir, e.Name()))
		if err != nil {
			continue
		}
		out = append(out, s)
	}
	sortRecent(out)
	return out, nil
}

func (d *diskStore) Close() error { return nil }

func sortRecent(ss []*Session) {
	sort.SliceStable(ss, func(i, j int) bool {
		return ss[i].UpdatedAt.After(ss[j].UpdatedAt)
	})
}
