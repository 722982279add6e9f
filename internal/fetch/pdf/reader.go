// Package pdf extracts the plain text of PDF documents.
package pdf

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/ledongthuc/pdf"
	"go.uber.org/zap"

	"askip/internal/domain"
	"askip/internal/logger"
)

// Reader implements domain.Fetcher for PDF sources.
type Reader struct{}

func NewReader() *Reader { return &Reader{} }

// Fetch extracts the text layer of the PDF. Scanned documents without a text
// layer fail with domain.ErrDocumentFetch.
func (r *Reader) Fetch(ctx context.Context, src domain.Source) (string, error) {
	if src.Kind != domain.SourcePDF {
		return "", fmt.Errorf("%w: %s: %w", domain.ErrDocumentFetch, src, domain.ErrInvalidSource)
	}
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("%w: %s: %w", domain.ErrDocumentFetch, src, err)
	}
	if _, err := os.Stat(src.Identifier); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: %s: %w", domain.ErrDocumentFetch, src, domain.ErrNotFound)
		}
		return "", fmt.Errorf("%w: %s: %w", domain.ErrDocumentFetch, src, err)
	}

	text, err := extract(src.Identifier)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", domain.ErrDocumentFetch, src, err)
	}
	if len(bytes.TrimSpace([]byte(text))) == 0 {
		return "", fmt.Errorf("%w: %s: no text extracted from pdf", domain.ErrDocumentFetch, src)
	}
	logger.Debug("pdf text extracted", zap.String("path", src.Identifier), zap.Int("bytes", len(text)))
	return text, nil
}

func extract(path string) (text string, err error) {
	// the parser panics on some malformed files
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("malformed pdf: %v", p)
		}
	}()

	f, rdr, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open pdf: %w", err)
	}
	defer f.Close()

	var buf bytes.Buffer
	b, err := rdr.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("failed to read pdf text: %w", err)
	}
	if _, err := io.Copy(&buf, b); err != nil {
		return "", fmt.Errorf("failed to read pdf buffer: %w", err)
	}
	return buf.String(), nil
}
