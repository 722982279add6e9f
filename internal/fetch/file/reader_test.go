package file

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"askip/internal/domain"
)

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestReader_Fetch(t *testing.T) {
	path := writeFile(t, "doc.txt", []byte("\ufeffLa Seine traverse Paris.\n== Histoire ==\n"))

	got, err := NewReader().Fetch(context.Background(), domain.Source{Kind: domain.SourceFile, Identifier: path})
	require.NoError(t, err)
	assert.Equal(t, "La Seine traverse Paris.\n== Histoire ==\n", got)
}

func TestReader_InvalidUTF8(t *testing.T) {
	path := writeFile(t, "latin1.txt", []byte("caf\xe9 noir"))

	got, err := NewReader().Fetch(context.Background(), domain.Source{Kind: domain.SourceFile, Identifier: path})
	require.NoError(t, err)
	assert.Equal(t, "caf\uFFFD noir", got)
}

func TestReader_Errors(t *testing.T) {
	r := NewReader()

	_, err := r.Fetch(context.Background(), domain.Source{Kind: domain.SourceFile, Identifier: filepath.Join(t.TempDir(), "missing.txt")})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrDocumentFetch))
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	_, err = r.Fetch(context.Background(), domain.Source{Kind: domain.SourceFile, Identifier: t.TempDir()})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrDocumentFetch))
	assert.False(t, errors.Is(err, domain.ErrNotFound))

	_, err = r.Fetch(context.Background(), domain.Source{Kind: domain.SourceWikipedia, Identifier: "Paris"})
	assert.True(t, errors.Is(err, domain.ErrInvalidSource))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = r.Fetch(ctx, domain.Source{Kind: domain.SourceFile, Identifier: "whatever.txt"})
	assert.True(t, errors.Is(err, context.Canceled))
}
