// Package corpus turns raw document text into the ordered passage list the
// topic model is fitted on.
package corpus

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"askip/internal/domain"
)

const (
	DefaultMinLength   = 30
	DefaultTitleMarker = '='
)

// QuotePair is an opening/closing quotation mark pair.
type QuotePair struct {
	Open  string
	Close string
}

// DefaultQuotePairs are checked for unbalanced closing marks.
var DefaultQuotePairs = []QuotePair{{Open: "«", Close: "»"}, {Open: "“", Close: "”"}}

// Options tunes fragment filtering.
type Options struct {
	MinLength   int
	TitleMarker rune
	QuotePairs  []QuotePair
}

// Preparer splits a document into passages and counts its section titles.
type Preparer struct {
	splitter  domain.SentenceSplitter
	opts      Options
	lineBreak *regexp.Regexp
}

func NewPreparer(splitter domain.SentenceSplitter, opts Options) *Preparer {
	if opts.MinLength <= 0 {
		opts.MinLength = DefaultMinLength
	}
	if opts.TitleMarker == 0 {
		opts.TitleMarker = DefaultTitleMarker
	}
	if opts.QuotePairs == nil {
		opts.QuotePairs = DefaultQuotePairs
	}
	return &Preparer{
		splitter:  splitter,
		opts:      opts,
		lineBreak: regexp.MustCompile(`\n+`),
	}
}

// Prepare returns the passages of rawText in source order. SectionCount
// starts at 1 and grows by one per title fragment.
func (p *Preparer) Prepare(rawText string) domain.Corpus {
	c := domain.Corpus{SectionCount: 1}
	for _, sent := range p.splitter.Split(rawText) {
		for _, frag := range p.lineBreak.Split(sent, -1) {
			frag = strings.TrimSpace(frag)
			if frag == "" {
				continue
			}
			if p.IsTitle(frag) {
				c.SectionCount++
				continue
			}
			if p.discard(frag) {
				continue
			}
			c.Passages = append(c.Passages, domain.Passage{Index: len(c.Passages), Text: frag})
		}
	}
	return c
}

// IsTitle reports whether frag starts and ends with the title marker.
func (p *Preparer) IsTitle(frag string) bool {
	if frag == "" {
		return false
	}
	first, _ := utf8.DecodeRuneInString(frag)
	last, _ := utf8.DecodeLastRuneInString(frag)
	return first == p.opts.TitleMarker && last == p.opts.TitleMarker
}

func (p *Preparer) discard(frag string) bool {
	if utf8.RuneCountInString(frag) < p.opts.MinLength {
		return true
	}
	for _, q := range p.opts.QuotePairs {
		// the sentence split cut a quotation in two
		if strings.Contains(frag, q.Close) && !strings.Contains(frag, q.Open) {
			return true
		}
	}
	return false
}
