package language

import (
	"regexp"
	"strings"

	"github.com/neurosnap/sentences"
	"github.com/neurosnap/sentences/english"
)

// RegexpSplitter cuts text after runs of terminal punctuation followed by whitespace.
type RegexpSplitter struct {
	boundary *regexp.Regexp
}

func NewRegexpSplitter() *RegexpSplitter {
	return &RegexpSplitter{boundary: regexp.MustCompile(`[.!?]+["'»”)\]]*\s+`)}
}

// Split returns trimmed, non-empty sentences in order.
func (s *RegexpSplitter) Split(text string) []string {
	var out []string
	start := 0
	for _, m := range s.boundary.FindAllStringIndex(text, -1) {
		if sent := strings.TrimSpace(text[start:m[1]]); sent != "" {
			out = append(out, sent)
		}
		start = m[1]
	}
	if tail := strings.TrimSpace(text[start:]); tail != "" {
		out = append(out, tail)
	}
	return out
}

// PunktSplitter uses the pre-trained English punkt model, which knows
// abbreviations and initials the regexp splitter cuts on.
type PunktSplitter struct {
	tokenizer *sentences.DefaultSentenceTokenizer
}

func NewPunktSplitter() (*PunktSplitter, error) {
	tok, err := english.NewSentenceTokenizer(nil)
	if err != nil {
		return nil, err
	}
	return &PunktSplitter{tokenizer: tok}, nil
}

func (s *PunktSplitter) Split(text string) []string {
	var out []string
	for _, sent := range s.tokenizer.Tokenize(text) {
		if t := strings.TrimSpace(sent.Text); t != "" {
			out = append(out, t)
		}
	}
	return out
}
