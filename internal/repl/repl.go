// Package repl runs the plain line-oriented question loop.
package repl

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"askip/internal/domain"
)

const (
	Prompt  = "--> "
	NoMatch = "No match."
)

var exitWords = map[string]struct{}{"bye": {}, "exit": {}, "quit": {}}

// Asker answers one question.
type Asker interface {
	Ask(query string) ([]domain.Passage, error)
}

// IsExit reports whether line ends the session: empty or one of bye, exit, quit.
func IsExit(line string) bool {
	w := strings.ToLower(strings.TrimSpace(line))
	if w == "" {
		return true
	}
	_, ok := exitWords[w]
	return ok
}

// Format renders an answer on one line.
func Format(passages []domain.Passage) string {
	if len(passages) == 0 {
		return NoMatch
	}
	texts := make([]string, len(passages))
	for i, p := range passages {
		texts[i] = p.Text
	}
	return strings.Join(texts, " ")
}

// REPL reads questions from in and writes answers to out.
type REPL struct {
	asker Asker
	in    *bufio.Reader
	out   io.Writer
}

func New(asker Asker, in io.Reader, out io.Writer) *REPL {
	return &REPL{asker: asker, in: bufio.NewReader(in), out: out}
}

// Run loops until end of input, an exit word or ctx cancellation.
func (r *REPL) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := io.WriteString(r.out, Prompt); err != nil {
			return err
		}
		line, err := r.in.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return err
		}
		if line == "" && errors.Is(err, io.EOF) {
			fmt.Fprintln(r.out)
			return nil
		}
		if IsExit(line) {
			return nil
		}
		passages, askErr := r.asker.Ask(strings.TrimSpace(line))
		if askErr != nil {
			return askErr
		}
		if _, werr := fmt.Fprintln(r.out, Format(passages)); werr != nil {
			return werr
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
	}
}
