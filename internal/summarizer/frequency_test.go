package summarizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"askip/internal/domain"
	"askip/internal/language"
)

var _ domain.Summarizer = (*FrequencySummarizer)(nil)

func TestSummarizeSentences_KeepsSourceOrder(t *testing.T) {
	s := NewFrequencySummarizer(language.NewPipeline(language.English))
	sentences := []string{
		"Paris is the capital of France.",
		"The weather was nice.",
		"Paris hosts the Louvre, the largest museum in France.",
		"Bananas are yellow.",
	}

	got := s.SummarizeSentences(sentences, 2)
	assert.Equal(t, "Paris is the capital of France. Paris hosts the Louvre, the largest museum in France.", got)
}

func TestSummarizeSentences_Bounds(t *testing.T) {
	s := NewFrequencySummarizer(nil)

	assert.Empty(t, s.SummarizeSentences(nil, 3))
	assert.Equal(t, "Only one.", s.SummarizeSentences([]string{" Only one. "}, 5))

	three := []string{"Alpha beta.", "Gamma delta.", "Epsilon zeta."}
	assert.Equal(t, "Alpha beta. Gamma delta.", s.SummarizeSentences(three, 0), "default is two sentences")
}

func TestSummarize_SplitsWithPipeline(t *testing.T) {
	s := NewFrequencySummarizer(language.NewPipeline(language.French))

	got, err := s.Summarize("La Seine traverse Paris. Le pain est bon. La Seine se jette dans la Manche.", 1)
	require.NoError(t, err)
	assert.Equal(t, "La Seine traverse Paris.", got)

	got, err = s.Summarize("   ", 2)
	require.NoError(t, err)
	assert.Empty(t, got)
}
