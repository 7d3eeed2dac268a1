package chatcmder

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	bubbletea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/roadworksco/milepost/pkg/manual"
	"github.com/roadworksco/milepost/pkg/rag"
)

func init() {
	// Force TrueColor profile to fix lipgloss color detection issue
	// See: https://github.com/charmbracelet/lipgloss/issues/439
	renderer := lipgloss.NewRenderer(os.Stdout, termenv.WithProfile(termenv.TrueColor))
	renderer.SetColorProfile(termenv.TrueColor)
	lipgloss.SetDefaultRenderer(renderer)
}

var (
	chatTitleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214"))
	chatMutedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	chatDividerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("237"))
	chatStateStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("212")).Bold(true)
	chatQuestionStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("82")).Bold(true)
	chatAnswerStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	chatCiteStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("109")).Italic(true)
	chatErrorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	chatBoostStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
)

// suggestedQuestions seed an empty session with queries worth trying.
var suggestedQuestions = []string{
	"When can lane closures occur on high-volume routes?",
	"Is night work required for resurfacing?",
	"What are the working hour restrictions near schools?",
}

type chatEntry struct {
	question string
	state    manual.State
	answer   *rag.AskResponse
	err      error
}

type chatKeyMap struct {
	Ask   key.Binding
	State key.Binding
	Debug key.Binding
	Clear key.Binding
	Up    key.Binding
	Down  key.Binding
	Quit  key.Binding
}

func (k chatKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Ask, k.State, k.Debug, k.Clear, k.Quit}
}

func (k chatKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Ask, k.State, k.Debug}, {k.Clear, k.Up, k.Down, k.Quit}}
}

func defaultChatKeyMap() chatKeyMap {
	return chatKeyMap{
		Ask:   key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "ask")),
		State: key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "state")),
		Debug: key.NewBinding(key.WithKeys("ctrl+r"), key.WithHelp("ctrl+r", "chunks")),
		Clear: key.NewBinding(key.WithKeys("ctrl+l"), key.WithHelp("ctrl+l", "clear")),
		Up:    key.NewBinding(key.WithKeys("ctrl+p", "pgup"), key.WithHelp("pgup", "scroll up")),
		Down:  key.NewBinding(key.WithKeys("ctrl+n", "pgdown"), key.WithHelp("pgdn", "scroll down")),
		Quit:  key.NewBinding(key.WithKeys("ctrl+c", "esc"), key.WithHelp("esc", "quit")),
	}
}

type answerMsg struct {
	index  int
	answer *rag.AskResponse
	err    error
}

type chatModel struct {
	ctx     context.Context
	service *rag.Service

	input   textinput.Model
	spin    spinner.Model
	help    help.Model
	keys    chatKeyMap
	entries []chatEntry

	stateIndex int
	topK       int
	waiting    bool

	// showChunks exposes retrieved chunks and scores under each answer.
	showChunks bool

	// scrollUp counts lines scrolled away from the transcript tail.
	scrollUp int

	width  int
	height int
}

func runChatTUI(ctx context.Context, service *rag.Service, state manual.State, topK int) error {
	model := newChatModel(ctx, service, state, topK)

	program := bubbletea.NewProgram(model,
		bubbletea.WithContext(ctx),
		bubbletea.WithAltScreen(),
	)
	_, err := program.Run()
	return err
}

func newChatModel(ctx context.Context, service *rag.Service, state manual.State, topK int) chatModel {
	input := textinput.New()
	input.Placeholder = "Ask about the manual..."
	input.Prompt = chatQuestionStyle.Render("you> ")
	input.CharLimit = 500
	input.Focus()

	spin := spinner.New()
	spin.Spinner = spinner.Dot
	spin.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("82"))

	stateIndex := 0
	for i, s := range manual.States() {
		if s == state {
			stateIndex = i
		}
	}

	return chatModel{
		ctx:        ctx,
		service:    service,
		input:      input,
		spin:       spin,
		help:       help.New(),
		keys:       defaultChatKeyMap(),
		stateIndex: stateIndex,
		topK:       topK,
	}
}

func (m chatModel) state() manual.State {
	states := manual.States()
	return states[m.stateIndex%len(states)]
}

func (m chatModel) Init() bubbletea.Cmd {
	return textinput.Blink
}

func (m chatModel) Update(msg bubbletea.Msg) (bubbletea.Model, bubbletea.Cmd) {
	switch msg := msg.(type) {
	case bubbletea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.input.Width = max(msg.Width-8, 20)
		return m, nil

	case answerMsg:
		if msg.index < len(m.entries) {
			m.entries[msg.index].answer = msg.answer
			m.entries[msg.index].err = msg.err
		}
		m.waiting = false
		m.scrollUp = 0
		return m, nil

	case spinner.TickMsg:
		if !m.waiting {
			return m, nil
		}
		var cmd bubbletea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case bubbletea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, bubbletea.Quit

		case key.Matches(msg, m.keys.State):
			m.stateIndex = (m.stateIndex + 1) % len(manual.States())
			return m, nil

		case key.Matches(msg, m.keys.Debug):
			m.showChunks = !m.showChunks
			return m, nil

		case key.Matches(msg, m.keys.Clear):
			if !m.waiting {
				m.entries = nil
				m.scrollUp = 0
			}
			return m, nil

		case key.Matches(msg, m.keys.Up):
			m.scrollUp++
			return m, nil

		case key.Matches(msg, m.keys.Down):
			if m.scrollUp > 0 {
				m.scrollUp--
			}
			return m, nil

		case key.Matches(msg, m.keys.Ask):
			return m.submit()
		}
	}

	var cmd bubbletea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m chatModel) submit() (bubbletea.Model, bubbletea.Cmd) {
	if m.waiting {
		return m, nil
	}

	question := strings.TrimSpace(m.input.Value())
	if question == "" {
		return m, nil
	}

	m.entries = append(m.entries, chatEntry{
		question: question,
		state:    m.state(),
	})
	m.input.SetValue("")
	m.waiting = true
	m.scrollUp = 0

	return m, bubbletea.Batch(
		m.spin.Tick,
		askCmd(m.ctx, m.service, question, m.state(), m.topK, len(m.entries)-1),
	)
}

// askCmd always requests chunks so the debug toggle can reveal them after
// the fact.
func askCmd(ctx context.Context, service *rag.Service, question string, state manual.State, topK, index int) bubbletea.Cmd {
	return func() bubbletea.Msg {
		answer, err := service.Ask(ctx, rag.AskRequest{
			Question:      question,
			State:         state,
			TopK:          topK,
			IncludeChunks: true,
		})
		return answerMsg{index: index, answer: answer, err: err}
	}
}

func (m chatModel) View() string {
	width := m.width
	if width <= 0 {
		width = 80
	}

	header := renderHeader(width,
		chatTitleStyle.Render("milepost chat"),
		chatMutedStyle.Render("state ")+chatStateStyle.Render(string(m.state())),
	)

	footer := []string{
		m.inputLine(),
		chatMutedStyle.Render(m.help.View(m.keys)),
	}

	// header + rule + blank above transcript, footer pinned below.
	transcriptHeight := m.height - 3 - len(footer)
	if m.height <= 0 {
		transcriptHeight = 24
	}
	if transcriptHeight < 4 {
		transcriptHeight = 4
	}

	transcript := m.transcriptLines(width)
	visible := tailLines(transcript, transcriptHeight, m.scrollUp)

	lines := []string{header, renderDivider(width), ""}
	lines = append(lines, visible...)
	for len(lines) < transcriptHeight+3 {
		lines = append(lines, "")
	}
	lines = append(lines, footer...)

	return strings.Join(lines, "\n")
}

func (m chatModel) inputLine() string {
	if m.waiting {
		return fmt.Sprintf("%s %s", m.spin.View(), chatMutedStyle.Render("consulting the manual..."))
	}
	return m.input.View()
}

// transcriptLines renders the full session history as wrapped lines.
func (m chatModel) transcriptLines(width int) []string {
	wrap := max(width-4, 20)

	if len(m.entries) == 0 {
		lines := []string{chatMutedStyle.Render("No questions yet. Try one of these:"), ""}
		for _, q := range suggestedQuestions {
			lines = append(lines, chatMutedStyle.Render("  • "+q))
		}
		return lines
	}

	var lines []string
	for _, entry := range m.entries {
		lines = append(lines,
			chatQuestionStyle.Render("you> ")+entry.question+
				chatMutedStyle.Render(fmt.Sprintf("  [%s]", entry.state)),
		)

		switch {
		case entry.err != nil:
			lines = append(lines, wrapStyled(entry.err.Error(), wrap, chatErrorStyle)...)
		case entry.answer == nil:
			lines = append(lines, chatMutedStyle.Render("..."))
		default:
			lines = append(lines, wrapStyled(entry.answer.Text, wrap, chatAnswerStyle)...)
			lines = append(lines, m.citationLines(entry.answer)...)
			if m.showChunks {
				lines = append(lines, m.chunkLines(entry.answer, wrap)...)
			}
		}
		lines = append(lines, "")
	}

	return lines
}

func (m chatModel) citationLines(answer *rag.AskResponse) []string {
	if len(answer.Citations) == 0 {
		return nil
	}

	refs := make([]string, 0, len(answer.Citations))
	for _, citation := range answer.Citations {
		ref := citation.Ref()
		if citation.HasTimeKeywords {
			ref = ref + chatBoostStyle.Render("*")
		}
		refs = append(refs, ref)
	}

	line := chatCiteStyle.Render("sources: " + strings.Join(refs, ", "))
	if answer.TimeQuery {
		line += chatMutedStyle.Render("  (* time-tagged)")
	}
	return []string{line}
}

// chunkLines renders the ranked retrieval results for the debug view.
func (m chatModel) chunkLines(answer *rag.AskResponse, wrap int) []string {
	if len(answer.Chunks) == 0 {
		return nil
	}

	lines := make([]string, 0, len(answer.Chunks)*2)
	for i, chunk := range answer.Chunks {
		boost := ""
		if chunk.Boosted {
			boost = " boosted"
		}
		lines = append(lines, chatMutedStyle.Render(fmt.Sprintf("  %d. %s p.%d (score %.3f%s)",
			i+1, chunk.Metadata.SourceFile, chunk.Metadata.Page, chunk.FinalScore, boost)))

		excerpt := chunk.Cite().Excerpt
		for _, line := range wrapStyled(excerpt, wrap-5, chatMutedStyle) {
			lines = append(lines, "     "+line)
		}
	}
	return lines
}

// tailLines returns the window of lines ending scrollUp lines above the
// tail, sized to height.
func tailLines(lines []string, height, scrollUp int) []string {
	if len(lines) <= height {
		return lines
	}

	end := len(lines) - scrollUp
	if end < height {
		end = height
	}
	if end > len(lines) {
		end = len(lines)
	}
	return lines[end-height : end]
}

func renderHeader(width int, left, right string) string {
	leftWidth := lipgloss.Width(left)
	rightWidth := lipgloss.Width(right)
	if leftWidth+rightWidth+1 >= width {
		return strings.TrimSpace(left + " " + right)
	}
	return left + strings.Repeat(" ", width-leftWidth-rightWidth) + right
}

func renderDivider(width int) string {
	return chatDividerStyle.Render(strings.Repeat("─", width))
}

// wrapStyled word-wraps text and applies style per line.
func wrapStyled(text string, width int, style lipgloss.Style) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	var lines []string
	current := ""
	for _, word := range words {
		if current == "" {
			current = word
			continue
		}
		if lipgloss.Width(current)+1+lipgloss.Width(word) <= width {
			current = current + " " + word
			continue
		}
		lines = append(lines, style.Render(current))
		current = word
	}
	if current != "" {
		lines = append(lines, style.Render(current))
	}
	return lines
}
