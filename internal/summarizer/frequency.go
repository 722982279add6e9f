package summarizer

import (
	"math"
	"regexp"
	"sort"
	"strings"

	"askip/internal/language"
)

const DefaultMaxSentences = 2

// FrequencySummarizer ranks sentences by word frequency (stopwords filtered).
type FrequencySummarizer struct {
	tokenPattern *regexp.Regexp
	pipeline     *language.Pipeline
}

// NewFrequencySummarizer creates a frequency-based sentence ranker using the
// stopwords and sentence splitter of pipe.
func NewFrequencySummarizer(pipe *language.Pipeline) *FrequencySummarizer {
	if pipe == nil {
		pipe = language.NewPipeline(language.Unsupported)
	}
	return &FrequencySummarizer{
		tokenPattern: regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*`),
		pipeline:     pipe,
	}
}

// Summarize returns a short summary by ranking sentences using token frequency.
func (s *FrequencySummarizer) Summarize(text string, maxSentences int) (string, error) {
	sentences := s.pipeline.SplitSentences(text)
	if len(sentences) == 0 {
		return strings.TrimSpace(text), nil
	}
	return s.SummarizeSentences(sentences, maxSentences), nil
}

// SummarizeSentences picks the best maxSentences sentences and joins them in
// their original order.
func (s *FrequencySummarizer) SummarizeSentences(sentences []string, maxSentences int) string {
	if maxSentences <= 0 {
		maxSentences = DefaultMaxSentences
	}
	if len(sentences) == 0 {
		return ""
	}
	tokens := make([][]string, len(sentences))
	// Compute word frequencies
	freq := map[string]float64{}
	for i, sent := range sentences {
		tokens[i] = s.tokens(sent)
		for _, tok := range tokens[i] {
			if s.pipeline.IsStopword(tok) {
				continue
			}
			freq[tok]++
		}
	}
	// Normalize frequencies
	maxF := 0.0
	for _, v := range freq {
		maxF = max(maxF, v)
	}
	if maxF > 0 {
		for k, v := range freq {
			freq[k] = v / maxF
		}
	}
	// Score sentences
	type pair struct {
		idx   int
		score float64
	}
	scores := make([]pair, len(sentences))
	for i := range sentences {
		sscore := 0.0
		for _, tok := range tokens[i] {
			sscore += freq[tok]
		}
		// Normalize by sentence length to avoid bias
		if l := float64(len(tokens[i])); l > 0 {
			sscore /= math.Sqrt(l)
		}
		scores[i] = pair{i, sscore}
	}
	sort.SliceStable(scores, func(i, j int) bool { return scores[i].score > scores[j].score })
	maxSentences = min(maxSentences, len(scores))
	// Keep original order among selected
	selected := make([]int, maxSentences)
	for i := 0; i < maxSentences; i++ {
		selected[i] = scores[i].idx
	}
	sort.Ints(selected)
	out := make([]string, 0, maxSentences)
	for _, idx := range selected {
		out = append(out, strings.TrimSpace(sentences[idx]))
	}
	return strings.Join(out, " ")
}

func (s *FrequencySummarizer) tokens(text string) []string {
	lower := language.FoldAccents(strings.ToLower(text))
	return s.tokenPattern.FindAllString(lower, -1)
}
