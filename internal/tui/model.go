package tui

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"askip/internal/domain"
	"askip/internal/language"
	"askip/internal/model"
	"askip/internal/repl"
)

const loadCommand = ":load"

// AskPort is the TUI-facing subset of the service.
type AskPort interface {
	Ask(query string) ([]domain.Passage, error)
	LoadModel(ctx context.Context, identifier, lang string) (*model.Model, error)
	Summary() string
}

// loadedMsg reports the end of a background :load.
type loadedMsg struct {
	identifier string
	model      *model.Model
	err        error
}

// Model is the Bubble Tea model for the TUI application.
type Model struct {
	service   AskPort
	input     textinput.Model
	viewport  viewport.Model
	results   []domain.Passage
	title     string
	summary   string
	status    string
	lang      string
	cursor    int
	ready     bool
	loading   bool
	lastQuery string
}

// New creates a new TUI model instance. title names the loaded document and
// lang is the default language of :load.
func New(service AskPort, title, lang string) Model {
	ti := textinput.New()
	ti.Prompt = repl.Prompt
	ti.Placeholder = "Ask a question, or :load <title|url|file> [lang]"
	ti.Focus()
	ti.CharLimit = 0
	vp := viewport.New(0, 0)
	return Model{
		service:  service,
		input:    ti,
		viewport: vp,
		title:    title,
		summary:  service.Summary(),
		lang:     lang,
		status:   "Loaded. Type a question.",
	}
}

// Init initializes the model (text input cursor blink).
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles key and window events and updates the view state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		// account for frames around result and query boxes
		_, rh := resultBoxStyle.GetFrameSize()
		_, qh := queryBoxStyle.GetFrameSize()
		totalHeaderLines := 2                                    // header + summary
		totalFooterLines := 1                                    // status
		reserved := totalHeaderLines + totalFooterLines + qh + 1 // 1 spacer
		vh := max(3, msg.Height-reserved)
		m.viewport.Width = max(20, msg.Width)
		m.viewport.Height = max(3, vh-rh)
		m.viewport.SetContent(m.renderCurrentResult())
		return m, nil
	case loadedMsg:
		m.loading = false
		if msg.err != nil {
			m.status = "Load failed: " + msg.err.Error()
			return m, nil
		}
		m.title = msg.identifier
		m.summary = m.service.Summary()
		m.results = nil
		m.cursor = 0
		m.lastQuery = ""
		m.status = fmt.Sprintf("Loaded %s: %d passages in %d topics.", msg.identifier, len(msg.model.Passages()), msg.model.K())
		m.viewport.SetContent(m.renderCurrentResult())
		return m, nil
	case tea.KeyMsg:
		// Global quits
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			return m, tea.Quit
		}
		switch msg.String() {
		case "enter":
			q := strings.TrimSpace(m.input.Value())
			if q == "" {
				return m, nil
			}
			if repl.IsExit(q) {
				return m, tea.Quit
			}
			m.input.SetValue("")
			if q == loadCommand || strings.HasPrefix(q, loadCommand+" ") {
				return m.startLoad(strings.Fields(strings.TrimPrefix(q, loadCommand)))
			}
			res, err := m.service.Ask(q)
			if err != nil {
				m.status = "Error: " + err.Error()
				m.results = nil
			} else {
				m.status = fmt.Sprintf("%d passage(s) for %q", len(res), q)
				m.results = res
				m.cursor = 0
				m.lastQuery = q
			}
			m.viewport.SetContent(m.renderCurrentResult())
			return m, nil
		case "down":
			if len(m.results) > 0 {
				m.cursor = (m.cursor + 1) % len(m.results)
				m.viewport.SetContent(m.renderCurrentResult())
				return m, nil
			}
		case "up":
			if len(m.results) > 0 {
				m.cursor = (m.cursor - 1 + len(m.results)) % len(m.results)
				m.viewport.SetContent(m.renderCurrentResult())
				return m, nil
			}
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) startLoad(args []string) (tea.Model, tea.Cmd) {
	if len(args) == 0 {
		m.status = "Usage: :load <title|url|file> [lang]"
		return m, nil
	}
	if m.loading {
		m.status = "A document is already loading."
		return m, nil
	}
	identifier, lang := args[0], m.lang
	if len(args) > 1 {
		last := args[len(args)-1]
		if langCodeRe.MatchString(last) {
			identifier, lang = strings.Join(args[:len(args)-1], " "), last
		} else {
			identifier = strings.Join(args, " ")
		}
	}
	m.loading = true
	m.status = "Loading " + identifier + "..."
	svc := m.service
	return m, func() tea.Msg {
		mdl, err := svc.LoadModel(context.Background(), identifier, lang)
		return loadedMsg{identifier: identifier, model: mdl, err: err}
	}
}

// View renders the TUI layout and current result.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := lipgloss.NewStyle().Bold(true).Render("askip: " + m.title)
	summary := lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Render(m.summary)
	input := queryBoxStyle.Render(m.input.View())
	status := lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Render(m.status)
	results := resultBoxStyle.Render(m.viewport.View())
	return header + "\n" + summary + "\n" + results + "\n" + input + "\n" + status
}

func (m Model) renderCurrentResult() string {
	if len(m.results) == 0 {
		if m.lastQuery != "" {
			return repl.NoMatch
		}
		return "No results yet."
	}
	p := m.results[m.cursor]
	title := fmt.Sprintf("Passage %d/%d  #%d", m.cursor+1, len(m.results), p.Index)
	body := highlightTerms(p.Text, m.lastQuery)
	return title + "\n\n" + body
}

var (
	resultBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	queryBoxStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	highlightStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	unicodeWordRe  = regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*`)
	langCodeRe     = regexp.MustCompile(`^[a-z]{2,3}(?:[-_][A-Za-z]{2,4})?$`)
)

// highlightTerms emphasises the words of text that also occur in the
// normalised query, comparing lower-cased and accent-folded forms.
func highlightTerms(text, query string) string {
	qTokens := toTokenSet(model.NormalizeQuery(query))
	if len(qTokens) == 0 {
		return text
	}
	return unicodeWordRe.ReplaceAllStringFunc(text, func(w string) string {
		if _, ok := qTokens[fold(w)]; ok {
			return highlightStyle.Render(w)
		}
		return w
	})
}

func toTokenSet(s string) map[string]struct{} {
	tokens := unicodeWordRe.FindAllString(s, -1)
	m := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		m[fold(t)] = struct{}{}
	}
	return m
}

func fold(w string) string { return language.FoldAccents(strings.ToLower(w)) }
