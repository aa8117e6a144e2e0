package assets

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T, maxBytes int64) *Store {
	t.Helper()

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	s, err := NewStore(t.TempDir(), maxBytes, log, nil)
	require.NoError(t, err)

	s.now = func() time.Time { return time.Date(2024, 3, 9, 14, 5, 6, 0, time.UTC) }
	return s
}

func filesIn(t *testing.T, dir string) []string {
	t.Helper()

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestValidate(t *testing.T) {
	tests := map[string]bool{
		"cake.png":        true,
		"cake.JPG":        true,
		"cake.jpeg":       true,
		"cake.WebP":       true,
		"archive.tar.png": true,
		"virus.exe":       false,
		"cake.png.exe":    false,
		"cake":            false,
		"cake.":           false,
		"":                false,
		"cake.gif":        false,
	}

	for name, want := range tests {
		assert.Equal(t, want, Validate(name), name)
	}
}

func TestSaveWritesFileAndReturnsPublicPath(t *testing.T) {
	s := newTestStore(t, 1024)

	p, err := s.Save(context.Background(), Upload{Filename: "choco cake.png", Content: strings.NewReader("png-bytes")})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(p, "/uploads/20240309_140506_"), p)
	assert.True(t, strings.HasSuffix(p, "_choco_cake.png"), p)

	data, err := os.ReadFile(filepath.Join(s.Root(), strings.TrimPrefix(p, PublicPrefix)))
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(data))
}

func TestSaveGeneratesDistinctNames(t *testing.T) {
	s := newTestStore(t, 1024)

	a, err := s.Save(context.Background(), Upload{Filename: "a.png", Content: strings.NewReader("1")})
	require.NoError(t, err)
	b, err := s.Save(context.Background(), Upload{Filename: "a.png", Content: strings.NewReader("2")})
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
	assert.Len(t, filesIn(t, s.Root()), 2)
}

func TestSaveRejectsInvalidExtensionBeforeWriting(t *testing.T) {
	s := newTestStore(t, 1024)

	_, err := s.Save(context.Background(), Upload{Filename: "payload.exe", Content: strings.NewReader("MZ")})

	assert.True(t, errors.Is(err, ErrInvalidImage))
	assert.Empty(t, filesIn(t, s.Root()))
}

func TestSaveRejectsOversizeAndCleansUp(t *testing.T) {
	s := newTestStore(t, 8)

	_, err := s.Save(context.Background(), Upload{Filename: "big.jpg", Content: bytes.NewReader(make([]byte, 9))})

	assert.True(t, errors.Is(err, ErrTooLarge))
	assert.Empty(t, filesIn(t, s.Root()))
}

func TestSaveAcceptsExactLimit(t *testing.T) {
	s := newTestStore(t, 8)

	_, err := s.Save(context.Background(), Upload{Filename: "edge.jpg", Content: bytes.NewReader(make([]byte, 8))})

	require.NoError(t, err)
	assert.Len(t, filesIn(t, s.Root()), 1)
}

func TestSaveStripsDirectoriesFromFilename(t *testing.T) {
	s := newTestStore(t, 1024)

	p, err := s.Save(context.Background(), Upload{Filename: "../../etc/evil.png", Content: strings.NewReader("x")})
	require.NoError(t, err)

	assert.NotContains(t, strings.TrimPrefix(p, PublicPrefix), "/")
	assert.Len(t, filesIn(t, s.Root()), 1)
}

func TestDeleteIsIdempotent(t *testing.T) {
	s := newTestStore(t, 1024)

	p, err := s.Save(context.Background(), Upload{Filename: "bun.webp", Content: strings.NewReader("x")})
	require.NoError(t, err)

	assert.True(t, s.Delete(p))
	assert.False(t, s.Delete(p))
	assert.Empty(t, filesIn(t, s.Root()))
}

func TestDeleteIgnoresTraversal(t *testing.T) {
	s := newTestStore(t, 1024)

	outside := filepath.Join(t.TempDir(), "keep.png")
	require.NoError(t, os.WriteFile(outside, []byte("x"), 0o644))

	assert.False(t, s.Delete("/uploads/../"+filepath.Base(outside)))
	assert.False(t, s.Delete(""))

	_, err := os.Stat(outside)
	assert.NoError(t, err)
}
