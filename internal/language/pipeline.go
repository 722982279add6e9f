package language

import (
	"embed"
	"sort"
	"strings"

	"github.com/kljensen/snowball/english"
	"github.com/kljensen/snowball/french"
	"github.com/kljensen/snowball/spanish"
	"go.uber.org/zap"

	"askip/internal/domain"
	"askip/internal/logger"
)

//go:embed stopwords/*.txt
var stopwordFiles embed.FS

var stemmers = map[Language]func(string, bool) string{
	English: english.Stem,
	French:  french.Stem,
	Spanish: spanish.Stem,
}

// Pipeline bundles the normalisation resources of one language.
// Build it once with NewPipeline and share it between the preparer and the model.
type Pipeline struct {
	lang      Language
	stopwords map[string]struct{}
	stem      func(string, bool) string
	splitter  domain.SentenceSplitter
}

// NewPipeline builds the resources for lang. It never fails: missing resources
// fall back to no stopwords, identity stemming and the regexp splitter.
func NewPipeline(lang Language) *Pipeline {
	p := &Pipeline{
		lang:      lang,
		stopwords: loadStopwords(lang),
		stem:      stemmers[lang],
		splitter:  NewRegexpSplitter(),
	}
	if lang == English {
		punkt, err := NewPunktSplitter()
		if err != nil {
			logger.Warn("punkt model unavailable, using regexp sentence splitter", zap.Error(err))
		} else {
			p.splitter = punkt
		}
	}
	return p
}

// NewPipelineFor is NewPipeline for an ISO 639-1 code.
func NewPipelineFor(code string) *Pipeline { return NewPipeline(Parse(code)) }

// WithSplitter returns a copy of p using s to split sentences.
func (p *Pipeline) WithSplitter(s domain.SentenceSplitter) *Pipeline {
	cp := *p
	cp.splitter = s
	return &cp
}

func (p *Pipeline) Language() Language { return p.lang }

// IsStopword reports whether tok, lower-cased and accent-folded, is a stopword.
func (p *Pipeline) IsStopword(tok string) bool {
	_, ok := p.stopwords[tok]
	return ok
}

// Stopwords returns the folded stopword list, sorted.
func (p *Pipeline) Stopwords() []string {
	out := make([]string, 0, len(p.stopwords))
	for w := range p.stopwords {
		out = append(out, w)
	}
	sort.Strings(out)
	return out
}

// Stem reduces tok to its stem. Identity when the language has no stemmer.
func (p *Pipeline) Stem(tok string) string {
	if p.stem == nil {
		return tok
	}
	return p.stem(tok, false)
}

// Splitter returns the sentence splitter of the pipeline.
func (p *Pipeline) Splitter() domain.SentenceSplitter { return p.splitter }

// SplitSentences splits text into sentence-like units.
func (p *Pipeline) SplitSentences(text string) []string {
	return p.splitter.Split(text)
}

func loadStopwords(lang Language) map[string]struct{} {
	out := make(map[string]struct{})
	code := lang.Code()
	if code == "" {
		return out
	}
	data, err := stopwordFiles.ReadFile("stopwords/" + code + ".txt")
	if err != nil {
		return out
	}
	for _, line := range strings.Split(string(data), "\n") {
		w := strings.TrimSpace(line)
		if w == "" {
			continue
		}
		out[FoldAccents(strings.ToLower(w))] = struct{}{}
	}
	return out
}
