package domain

import "context"

// Passage is a sentence-like fragment of the source document kept for retrieval.
// Index is its position in the ordered passage list.
type Passage struct {
	Index int
	Text  string
}

// Corpus is the ordered passage list of one document plus the number of
// section titles seen while preparing it.
type Corpus struct {
	Passages     []Passage
	SectionCount int
}

// Texts returns the passage texts in corpus order.
func (c Corpus) Texts() []string {
	out := make([]string, len(c.Passages))
	for i, p := range c.Passages {
		out[i] = p.Text
	}
	return out
}

// SourceKind tells which fetcher can materialise a source.
type SourceKind string

const (
	SourceWikipedia SourceKind = "wikipedia"
	SourceFile      SourceKind = "file"
	SourcePDF       SourceKind = "pdf"
)

// Source locates a document: a Wikipedia title in a language edition or a local file.
type Source struct {
	Kind       SourceKind
	Identifier string
	Language   string
}

// String renders the source for logs and status lines.
func (s Source) String() string {
	if s.Kind == SourceWikipedia {
		return s.Language + ".wikipedia:" + s.Identifier
	}
	return string(s.Kind) + ":" + s.Identifier
}

// Fetcher returns the full raw text of a source.
// Failures must wrap ErrDocumentFetch.
type Fetcher interface {
	Fetch(ctx context.Context, src Source) (string, error)
}

// SentenceSplitter splits text into sentence-like units.
type SentenceSplitter interface {
	Split(text string) []string
}

// Summarizer produces a brief summary of the provided text.
type Summarizer interface {
	Summarize(text string, maxSentences int) (string, error)
}
