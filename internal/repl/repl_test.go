package repl

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"askip/internal/domain"
)

type fakeAsker struct {
	answers map[string][]domain.Passage
	asked   []string
	err     error
}

func (f *fakeAsker) Ask(q string) ([]domain.Passage, error) {
	f.asked = append(f.asked, q)
	return f.answers[q], f.err
}

func newAsker() *fakeAsker {
	return &fakeAsker{answers: map[string][]domain.Passage{
		"what is paris?": {
			{Index: 0, Text: "Paris is the capital of France."},
			{Index: 3, Text: "It lies on the Seine."},
		},
	}}
}

func TestIsExit(t *testing.T) {
	for _, w := range []string{"", "   ", "bye", "Exit", " QUIT \n"} {
		assert.True(t, IsExit(w), "%q", w)
	}
	for _, w := range []string{"byebye", "what is exit", "q"} {
		assert.False(t, IsExit(w), "%q", w)
	}
}

func TestFormat(t *testing.T) {
	assert.Equal(t, NoMatch, Format(nil))
	assert.Equal(t, "a b", Format([]domain.Passage{{Text: "a"}, {Text: "b"}}))
}

func TestRun(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
		asked []string
	}{
		{
			name:  "answers until exit word",
			input: "what is paris?\nunknown\nbye\nnever asked\n",
			want:  "--> Paris is the capital of France. It lies on the Seine.\n--> No match.\n--> ",
			asked: []string{"what is paris?", "unknown"},
		},
		{
			name:  "empty line stops",
			input: "\nwhat is paris?\n",
			want:  "--> ",
		},
		{
			name:  "end of input stops",
			input: "",
			want:  "--> \n",
		},
		{
			name:  "last line without newline is answered",
			input: "unknown",
			want:  "--> No match.\n",
			asked: []string{"unknown"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			asker := newAsker()
			var out bytes.Buffer
			err := New(asker, strings.NewReader(tt.input), &out).Run(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tt.want, out.String())
			assert.Equal(t, tt.asked, asker.asked)
		})
	}
}

func TestRun_PropagatesAskErrors(t *testing.T) {
	asker := &fakeAsker{err: domain.ErrNoModel}
	err := New(asker, strings.NewReader("hello\n"), &bytes.Buffer{}).Run(context.Background())
	assert.True(t, errors.Is(err, domain.ErrNoModel))
}

func TestRun_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := New(newAsker(), strings.NewReader("what is paris?\n"), &bytes.Buffer{}).Run(ctx)
	assert.True(t, errors.Is(err, context.Canceled))
}
