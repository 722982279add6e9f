package tui

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"askip/internal/domain"
	"askip/internal/language"
	"askip/internal/model"
)

type fakeService struct {
	answers  map[string][]domain.Passage
	summary  string
	loadErr  error
	loaded   []string
	langs    []string
	fitted   *model.Model
	askCalls int
}

func (f *fakeService) Ask(q string) ([]domain.Passage, error) {
	f.askCalls++
	if q == "boom" {
		return nil, domain.ErrNoModel
	}
	return f.answers[q], nil
}

func (f *fakeService) LoadModel(_ context.Context, identifier, lang string) (*model.Model, error) {
	f.loaded = append(f.loaded, identifier)
	f.langs = append(f.langs, lang)
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	f.summary = "new summary"
	return f.fitted, nil
}

func (f *fakeService) Summary() string { return f.summary }

func newFake(t *testing.T) *fakeService {
	t.Helper()
	c := domain.Corpus{SectionCount: 1, Passages: []domain.Passage{
		{Index: 0, Text: "Volcanoes erupt molten lava from deep magma chambers."},
		{Index: 1, Text: "Penguins swim in icy antarctic waters hunting krill."},
	}}
	m, err := model.Fit(c, language.NewPipeline(language.English), model.DefaultOptions())
	require.NoError(t, err)
	return &fakeService{
		summary: "first summary",
		fitted:  m,
		answers: map[string][]domain.Passage{
			"lava": {
				{Index: 0, Text: "Volcanoes erupt molten lava."},
				{Index: 4, Text: "Lava cools into basalt."},
			},
		},
	}
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	out, ok := next.(Model)
	require.True(t, ok)
	return out, cmd
}

func typeLine(t *testing.T, m Model, line string) (Model, tea.Cmd) {
	t.Helper()
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(line)})
	return update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
}

func isQuit(cmd tea.Cmd) bool {
	if cmd == nil {
		return false
	}
	_, ok := cmd().(tea.QuitMsg)
	return ok
}

func TestModel_View(t *testing.T) {
	m := New(newFake(t), "en.wikipedia:Nature", "en")
	assert.Equal(t, "Loading...", m.View())

	m, _ = update(t, m, tea.WindowSizeMsg{Width: 80, Height: 24})
	view := m.View()
	assert.Contains(t, view, "askip: en.wikipedia:Nature")
	assert.Contains(t, view, "first summary")
	assert.Contains(t, view, "No results yet.")
}

func TestModel_AskAndCycle(t *testing.T) {
	svc := newFake(t)
	m := New(svc, "Nature", "en")
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 80, Height: 24})

	m, cmd := typeLine(t, m, "lava")
	assert.Nil(t, cmd)
	require.Len(t, m.results, 2)
	assert.Equal(t, "lava", m.lastQuery)
	assert.Empty(t, m.input.Value())
	assert.Contains(t, m.renderCurrentResult(), "Passage 1/2  #0")

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, 1, m.cursor)
	assert.Contains(t, m.renderCurrentResult(), "Lava cools into basalt.")

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, 0, m.cursor)
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyUp})
	assert.Equal(t, 1, m.cursor)

	m, _ = typeLine(t, m, "nothing here")
	assert.Empty(t, m.results)
	assert.Equal(t, "No match.", m.renderCurrentResult())

	m, _ = typeLine(t, m, "boom")
	assert.Contains(t, m.status, domain.ErrNoModel.Error())
}

func TestModel_EmptyEnterDoesNothing(t *testing.T) {
	svc := newFake(t)
	m := New(svc, "Nature", "en")

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
	assert.Zero(t, svc.askCalls)
	assert.Equal(t, "Loaded. Type a question.", m.status)
}

func TestModel_Quit(t *testing.T) {
	for _, word := range []string{"bye", "exit", "QUIT"} {
		m := New(newFake(t), "Nature", "en")
		_, cmd := typeLine(t, m, word)
		assert.True(t, isQuit(cmd), word)
	}
	for _, key := range []tea.KeyType{tea.KeyCtrlC, tea.KeyCtrlD} {
		_, cmd := update(t, New(newFake(t), "Nature", "en"), tea.KeyMsg{Type: key})
		assert.True(t, isQuit(cmd))
	}
}

func TestModel_LoadCommand(t *testing.T) {
	svc := newFake(t)
	m := New(svc, "Nature", "en")
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 80, Height: 24})
	m, _ = typeLine(t, m, "lava")

	m, cmd := typeLine(t, m, ":load Tour Eiffel fr")
	require.NotNil(t, cmd)
	assert.True(t, m.loading)
	assert.Equal(t, "Loading Tour Eiffel...", m.status)

	m, _ = typeLine(t, m, ":load Other")
	assert.Equal(t, "A document is already loading.", m.status)

	msg := cmd()
	assert.Equal(t, []string{"Tour Eiffel"}, svc.loaded)
	assert.Equal(t, []string{"fr"}, svc.langs)

	m, _ = update(t, m, msg)
	assert.False(t, m.loading)
	assert.Equal(t, "Tour Eiffel", m.title)
	assert.Equal(t, "new summary", m.summary)
	assert.Empty(t, m.results)
	assert.Equal(t, "Loaded Tour Eiffel: 2 passages in 2 topics.", m.status)
}

func TestModel_LoadCommandDefaultsAndErrors(t *testing.T) {
	svc := newFake(t)
	svc.loadErr = errors.New("offline")
	m := New(svc, "Nature", "it")

	m, cmd := typeLine(t, m, ":load")
	assert.Nil(t, cmd)
	assert.Contains(t, m.status, "Usage")

	m, cmd = typeLine(t, m, ":load Roma")
	require.NotNil(t, cmd)
	m, _ = update(t, m, cmd())
	assert.Equal(t, []string{"it"}, svc.langs)
	assert.Equal(t, "Load failed: offline", m.status)
	assert.Equal(t, "Nature", m.title)
	assert.False(t, m.loading)
}

func TestHighlightTerms(t *testing.T) {
	text := "Le Musée du Louvre est à Paris."
	assert.Equal(t, text, highlightTerms(text, ""))
	assert.Contains(t, highlightTerms(text, "what is the musee?"), "Musée")

	set := toTokenSet("Musée Louvre")
	assert.Contains(t, set, "musee")
	assert.Contains(t, set, "louvre")
}
