// Package assets stores uploaded images under a content root and hands back
// public reference paths of the form /uploads/<generated-name>.
package assets

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/geocoder89/bakery/internal/observability"
	"github.com/google/uuid"
)

const (
	PublicPrefix    = "/uploads/"
	DefaultMaxBytes = 5 * 1024 * 1024
)

var (
	ErrInvalidImage = errors.New("invalid image format")
	ErrTooLarge     = errors.New("file exceeds the maximum upload size")
)

var allowedExtensions = map[string]struct{}{
	"png":  {},
	"jpg":  {},
	"jpeg": {},
	"webp": {},
}

// Upload is one file taken from a multipart request.
type Upload struct {
	Filename string
	Content  io.Reader
}

type Store struct {
	root     string
	maxBytes int64
	now      func() time.Time
	log      *slog.Logger
	prom     *observability.Prom
}

func NewStore(root string, maxBytes int64, log *slog.Logger, prom *observability.Prom) (*Store, error) {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	if log == nil {
		log = slog.Default()
	}

	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}

	return &Store{
		root:     root,
		maxBytes: maxBytes,
		now:      time.Now,
		log:      log,
		prom:     prom,
	}, nil
}

func (s *Store) Root() string {
	return s.root
}

// Validate accepts png, jpg, jpeg and webp by case-insensitive extension.
func Validate(filename string) bool {
	if filename == "" {
		return false
	}

	idx := strings.LastIndex(filename, ".")
	if idx < 0 || idx == len(filename)-1 {
		return false
	}

	_, ok := allowedExtensions[strings.ToLower(filename[idx+1:])]
	return ok
}

// Save writes the upload under a timestamped unique name and returns its
// public path. Nothing is left on disk when it fails.
func (s *Store) Save(ctx context.Context, up Upload) (string, error) {
	if !Validate(up.Filename) {
		s.observe("save", "invalid")
		return "", ErrInvalidImage
	}

	if err := ctx.Err(); err != nil {
		return "", err
	}

	name := s.generateName(up.Filename)
	full := filepath.Join(s.root, name)

	f, err := os.OpenFile(full, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		s.observe("save", "error")
		return "", fmt.Errorf("open %s: %w", name, err)
	}

	// read one byte past the limit so oversize is detectable without trusting headers
	n, copyErr := io.Copy(f, io.LimitReader(up.Content, s.maxBytes+1))
	closeErr := f.Close()

	switch {
	case copyErr != nil:
		s.discard(full)
		s.observe("save", "error")
		return "", fmt.Errorf("write %s: %w", name, copyErr)
	case n > s.maxBytes:
		s.discard(full)
		s.observe("save", "too_large")
		return "", ErrTooLarge
	case closeErr != nil:
		s.discard(full)
		s.observe("save", "error")
		return "", fmt.Errorf("close %s: %w", name, closeErr)
	}

	s.observe("save", "ok")
	return PublicPrefix + name, nil
}

// Delete removes the file a public path points at. It reports false when the
// file was already gone or could not be removed.
func (s *Store) Delete(publicPath string) bool {
	name := path.Base(strings.ReplaceAll(publicPath, "\\", "/"))
	if name == "." || name == "/" || name == ".." || name == "" {
		return false
	}

	err := os.Remove(filepath.Join(s.root, name))
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			s.log.Warn("asset delete failed", "path", publicPath, "err", err)
			s.observe("delete", "error")
			return false
		}
		s.observe("delete", "missing")
		return false
	}

	s.observe("delete", "ok")
	return true
}

func (s *Store) generateName(original string) string {
	base := path.Base(strings.ReplaceAll(original, "\\", "/"))
	base = strings.Join(strings.Fields(base), "_")

	return s.now().Format("20060102_150405") + "_" + uuid.NewString()[:8] + "_" + base
}

func (s *Store) discard(full string) {
	if err := os.Remove(full); err != nil && !errors.Is(err, fs.ErrNotExist) {
		s.log.Error("could not remove partial upload", "file", full, "err", err)
	}
}

func (s *Store) observe(op, result string) {
	if s.prom != nil {
		s.prom.AssetOps.WithLabelValues(op, result).Inc()
	}
}
