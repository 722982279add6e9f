package domain

import "errors"

var (
	// ErrDocumentFetch indicates the source document could not be acquired.
	ErrDocumentFetch = errors.New("document fetch failed")

	// ErrNotFound indicates the requested page or file does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidSource indicates an identifier that maps to no known source kind.
	ErrInvalidSource = errors.New("invalid source")

	// ErrModelFit indicates the topic model could not be built from the corpus:
	// empty corpus, no usable vocabulary or no way to form the clusters.
	ErrModelFit = errors.New("model fit failed")

	// ErrNoModel indicates a query was made before any document was loaded.
	ErrNoModel = errors.New("no model loaded")
)
