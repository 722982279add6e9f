package fetch

import (
	"context"
	"fmt"

	"askip/internal/domain"
)

// Router dispatches a source to the fetcher registered for its kind.
type Router struct {
	fetchers map[domain.SourceKind]domain.Fetcher
}

func NewRouter() *Router {
	return &Router{fetchers: make(map[domain.SourceKind]domain.Fetcher)}
}

// Register binds f to kind, replacing any previous binding.
func (r *Router) Register(kind domain.SourceKind, f domain.Fetcher) *Router {
	r.fetchers[kind] = f
	return r
}

// Fetch implements domain.Fetcher.
func (r *Router) Fetch(ctx context.Context, src domain.Source) (string, error) {
	f, ok := r.fetchers[src.Kind]
	if !ok {
		return "", fmt.Errorf("%w: no fetcher for %q sources: %w", domain.ErrDocumentFetch, src.Kind, domain.ErrInvalidSource)
	}
	return f.Fetch(ctx, src)
}
