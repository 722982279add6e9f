// Package file reads plain-text documents from the local filesystem.
package file

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"askip/internal/domain"
	"askip/internal/logger"
)

const bom = "\ufeff"

// Reader implements domain.Fetcher for file sources.
type Reader struct{}

func NewReader() *Reader { return &Reader{} }

// Fetch reads the whole file. Invalid UTF-8 sequences become U+FFFD.
func (r *Reader) Fetch(ctx context.Context, src domain.Source) (string, error) {
	if src.Kind != domain.SourceFile {
		return "", fmt.Errorf("%w: %s: %w", domain.ErrDocumentFetch, src, domain.ErrInvalidSource)
	}
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("%w: %s: %w", domain.ErrDocumentFetch, src, err)
	}
	data, err := os.ReadFile(src.Identifier)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: %s: %w", domain.ErrDocumentFetch, src, domain.ErrNotFound)
		}
		return "", fmt.Errorf("%w: %s: %w", domain.ErrDocumentFetch, src, err)
	}
	text := strings.TrimPrefix(string(data), bom)
	if !utf8.ValidString(text) {
		logger.Warn("file is not valid UTF-8, replacing invalid bytes", zap.String("path", src.Identifier))
		text = strings.ToValidUTF8(text, "\uFFFD")
	}
	logger.Debug("file read", zap.String("path", src.Identifier), zap.Int("bytes", len(text)))
	return text, nil
}
