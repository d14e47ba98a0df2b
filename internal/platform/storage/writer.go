package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"unicode/utf8"

	"imaged/internal/platform/logging"
)

// ErrUnavailable reports that the upload directory does not exist and could
// not be created; no write can possibly succeed while it holds.
var ErrUnavailable = errors.New("upload directory unavailable")

// maxCreateAttempts bounds the collision retry loop; each retry uses a fresh
// random token, so exhausting it means something other than collisions.
const maxCreateAttempts = 10

// Writer persists image bytes under a flat upload directory with
// collision-safe names. Safe for concurrent use; the only shared state is
// the filesystem namespace, guarded by exclusive-create opens.
type Writer struct {
	dir    string
	logger *logging.Logger
}

// NewWriter creates a writer targeting dir. The directory is created lazily
// by Ensure.
func NewWriter(dir string, logger *logging.Logger) *Writer {
	return &Writer{dir: dir, logger: logger}
}

// Dir returns the upload directory path.
func (w *Writer) Dir() string {
	return w.dir
}

// Ensure creates the upload directory if missing.
func (w *Writer) Ensure() error {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// Save writes the bytes under a name derived from the suggestion and content
// type, and returns the relative path that was stored. When the name is
// taken, a fresh disambiguating token is appended and the create retried;
// O_EXCL guarantees two concurrent writers never both succeed at the same
// final path.
func (w *Writer) Save(data []byte, contentType, suggestedName string) (string, error) {
	name := NormalizeFilename(suggestedName, contentType)

	for attempt := 0; attempt < maxCreateAttempts; attempt++ {
		candidate := name
		if attempt > 0 {
			candidate = withToken(name)
		}

		target := filepath.Join(w.dir, candidate)
		file, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if errors.Is(err, fs.ErrExist) {
			continue
		}
		if err != nil {
			if _, statErr := os.Stat(w.dir); statErr != nil {
				return "", fmt.Errorf("%w: %v", ErrUnavailable, statErr)
			}
			return "", fmt.Errorf("create %s: %w", candidate, err)
		}

		if _, err := file.Write(data); err != nil {
			file.Close()
			os.Remove(target)
			return "", fmt.Errorf("write %s: %w", candidate, err)
		}
		if err := file.Close(); err != nil {
			return "", fmt.Errorf("close %s: %w", candidate, err)
		}

		w.logger.DebugTag("STORE", "wrote %s (%d bytes)", candidate, len(data))
		return candidate, nil
	}

	return "", fmt.Errorf("no free name for %s after %d attempts", name, maxCreateAttempts)
}

// List returns the sorted names of regular files currently stored.
func (w *Writer) List() ([]string, error) {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("read upload directory: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if !utf8.ValidString(entry.Name()) {
			w.logger.WarnTag("STORE", "skipping file with non-UTF-8 name: %q", entry.Name())
			continue
		}
		names = append(names, entry.Name())
	}
	// os.ReadDir already sorts by name.
	return names, nil
}
