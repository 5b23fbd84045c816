package report

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/deliverydesk/internal/models"
)

var unsafeTitleChars = regexp.MustCompile(`[^a-zA-Z0-9]`)

// SanitizeTitle turns a report title into a file-name safe stem.
func SanitizeTitle(title string) string {
	s := strings.ToLower(unsafeTitleChars.ReplaceAllString(strings.TrimSpace(title), "_"))
	if strings.Trim(s, "_") == "" {
		return "report"
	}
	return s
}

// FileName returns <sanitized-title>-<epoch-millis>.<extension>.
func FileName(title string, format models.ReportFormat, at time.Time) string {
	return fmt.Sprintf("%s-%d.%s", SanitizeTitle(title), at.UnixMilli(), format.Extension())
}

// Store writes rendered artifacts under a reports directory.
type Store struct {
	dir string
	now func() time.Time
}

func NewStore(dir string) *Store {
	return &Store{dir: dir, now: time.Now}
}

func (s *Store) Dir() string {
	return s.dir
}

// maxNameAttempts bounds the search for a free file name.
const maxNameAttempts = 1000

// Save writes data and returns the stored path and file name. The directory
// is created if it does not exist. An existing file is never overwritten;
// on a name clash the timestamp is bumped by a millisecond.
func (s *Store) Save(title string, format models.ReportFormat, data []byte) (string, string, error) {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return "", "", fmt.Errorf("failed to create reports directory: %w", err)
	}

	at := s.now()
	for i := 0; i < maxNameAttempts; i++ {
		name := FileName(title, format, at.Add(time.Duration(i)*time.Millisecond))
		path := filepath.Join(s.dir, name)

		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
		if errors.Is(err, fs.ErrExist) {
			continue
		}
		if err != nil {
			return "", "", fmt.Errorf("failed to create report file: %w", err)
		}

		_, err = f.Write(data)
		if closeErr := f.Close(); err == nil {
			err = closeErr
		}
		if err != nil {
			os.Remove(path)
			return "", "", fmt.Errorf("failed to write report file: %w", err)
		}
		return path, name, nil
	}
	return "", "", fmt.Errorf("failed to find a free file name for %q", title)
}
