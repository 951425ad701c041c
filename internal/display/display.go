// Package display provides the terminal UI using Bubble Tea.
//
// The [UI] type manages a voice status bar and an input prompt at the
// bottom of the terminal. All application output is printed above the
// rendered area via Program.Println / Printf, so concurrent writes from
// the voice loop never garble the display.
package display

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/hammamikhairi/pantrychef/internal/domain"
)

// ── Styles ───────────────────────────────────────────────────────

var (
	barBg = lipgloss.NewStyle().
		Background(lipgloss.Color("#27272a")).
		Foreground(lipgloss.Color("#a1a1aa"))

	listeningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#fca5a5"))

	busyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#fde68a"))

	idleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#71717a")).
			Italic(true)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#a1a1aa"))

	sepStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#52525b"))

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#94a3b8"))

	// BannerStyle is the muted slate used for the startup banner.
	BannerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#94a3b8"))

	chatStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#bae6fd"))

	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#bbf7d0"))

	primaryStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#d4d4d8"))

	secondaryStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#71717a"))

	urgentOutputStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#fca5a5"))

	userInputEchoStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#a1a1aa"))
)

const prompt = "pantry> "

// ── UI ───────────────────────────────────────────────────────────

// UI manages the terminal through Bubble Tea. It is also a navigation
// sink and a controller observer, so the voice loop reports straight to
// the status bar and scrollback.
//
// Call [NewUI] then [UI.Run] (blocking). Other goroutines may safely
// call the print helpers and read from [UI.InputChan] at any time after
// [UI.WaitReady] returns.
type UI struct {
	program *tea.Program
	inputCh chan string
	readyCh chan struct{}
	quitCh  chan struct{}
	done    atomic.Bool

	mu    sync.Mutex
	page  domain.Page
	state domain.TurnState
}

// NewUI creates the display starting on page. Call Run() to start.
func NewUI(page domain.Page) *UI {
	return &UI{
		page:    page,
		inputCh: make(chan string, 16),
		readyCh: make(chan struct{}),
		quitCh:  make(chan struct{}),
	}
}

// Println prints a line above the prompt. Thread-safe. Before the
// program starts it falls back to fmt.Println.
func (u *UI) Println(a ...interface{}) {
	if u.program != nil && !u.done.Load() {
		u.program.Println(a...)
	} else {
		fmt.Println(a...)
	}
}

// Printf prints formatted text above the prompt on its own line.
func (u *UI) Printf(format string, a ...interface{}) {
	if u.program != nil && !u.done.Load() {
		u.program.Printf(format, a...)
	} else {
		fmt.Printf(format+"\n", a...)
	}
}

// InputChan returns completed user-input lines.
func (u *UI) InputChan() <-chan string { return u.inputCh }

// ── Styled print helpers ─────────────────────────────────────────

// PrintChat prints an assistant reply.
func (u *UI) PrintChat(text string) {
	u.Println(chatStyle.Render("  " + text))
}

// PrintHeader prints a section header.
func (u *UI) PrintHeader(text string) {
	u.Println(headerStyle.Render("  " + text))
}

// PrintInstruction prints a primary line.
func (u *UI) PrintInstruction(text string) {
	u.Println(primaryStyle.Render("  " + text))
}

// PrintHint prints a dimmed line.
func (u *UI) PrintHint(text string) {
	u.Println(secondaryStyle.Render("  " + text))
}

// PrintUrgent prints an error line.
func (u *UI) PrintUrgent(text string) {
	u.Println(urgentOutputStyle.Render("  " + text))
}

// PrintVoice prints a transcribed utterance.
func (u *UI) PrintVoice(text string) {
	u.Println(secondaryStyle.Render("[voice] ") + primaryStyle.Render(text))
}

// PrintUserInput echoes a typed command into the scrollback.
func (u *UI) PrintUserInput(text string) {
	u.Println(promptStyle.Render("pantry") + secondaryStyle.Render("> ") + userInputEchoStyle.Render(text))
}

// ── Observer / Navigator ─────────────────────────────────────────

// Navigate records the page and shows it in the status bar.
func (u *UI) Navigate(ctx context.Context, page domain.Page) error {
	u.ShowPage(page)
	u.PrintHint("-> " + page.String())
	return nil
}

// ShowPage updates the status bar page without announcing it.
func (u *UI) ShowPage(page domain.Page) {
	u.mu.Lock()
	u.page = page
	u.mu.Unlock()
	u.send(pageMsg(page))
}

// Page returns the page shown in the status bar.
func (u *UI) Page() domain.Page {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.page
}

// OnState updates the status bar.
func (u *UI) OnState(state domain.TurnState) {
	u.mu.Lock()
	u.state = state
	u.mu.Unlock()
	u.send(stateMsg(state))
}

// OnTranscript prints what was heard.
func (u *UI) OnTranscript(text string) { u.PrintVoice(text) }

// OnReply prints the reply.
func (u *UI) OnReply(reply domain.Reply) {
	if reply.Text != "" {
		u.PrintChat(reply.Text)
	}
}

// OnStatus prints a status line.
func (u *UI) OnStatus(line string) { u.PrintHint(line) }

func (u *UI) send(msg tea.Msg) {
	if u.program != nil && !u.done.Load() {
		u.program.Send(msg)
	}
}

// WaitReady blocks until the Bubble Tea event loop is running.
func (u *UI) WaitReady() { <-u.readyCh }

// Quit tells Bubble Tea to exit.
func (u *UI) Quit() {
	if u.program != nil {
		u.program.Quit()
	}
}

// QuitChan is closed when Run returns.
func (u *UI) QuitChan() <-chan struct{} { return u.quitCh }

// Run starts the Bubble Tea event loop. Blocks until quit.
func (u *UI) Run() error {
	ti := textinput.New()
	// A plain-text prompt keeps the textinput width math correct; styled
	// prompts add invisible ANSI bytes.
	ti.Prompt = prompt
	ti.PromptStyle = promptStyle
	ti.TextStyle = userInputEchoStyle
	ti.Cursor.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#94a3b8"))
	ti.Focus()
	ti.CharLimit = 500
	ti.Width = 60 // updated on first WindowSizeMsg

	u.mu.Lock()
	m := model{
		input:   ti,
		inputCh: u.inputCh,
		readyCh: u.readyCh,
		echoFn:  u.PrintUserInput,
		page:    u.page,
		state:   u.state,
	}
	u.mu.Unlock()

	u.program = tea.NewProgram(m)
	_, err := u.program.Run()
	u.done.Store(true)
	close(u.quitCh)
	return err
}

// ── Bubble Tea model ─────────────────────────────────────────────

type model struct {
	input   textinput.Model
	inputCh chan<- string
	readyCh chan struct{}
	echoFn  func(string)
	page    domain.Page
	state   domain.TurnState
	width   int
}

type (
	stateMsg domain.TurnState
	pageMsg  domain.Page
)

func (m model) Init() tea.Cmd {
	return tea.Batch(
		textinput.Blink,
		signalReady(m.readyCh),
		tea.SetWindowTitle("PantryChef"),
	)
}

func signalReady(ch chan struct{}) tea.Cmd {
	return func() tea.Msg {
		close(ch)
		return nil
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC:
			return m, tea.Quit
		case tea.KeyEnter:
			v := m.input.Value()
			m.input.Reset()
			if strings.TrimSpace(v) != "" {
				m.inputCh <- v
				// Echo from a Cmd so Update never blocks on Println.
				echoFn := m.echoFn
				return m, func() tea.Msg {
					echoFn(v)
					return nil
				}
			}
			return m, nil
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		if msg.Width > len(prompt) {
			m.input.Width = msg.Width - len(prompt)
		}
		return m, nil

	case stateMsg:
		m.state = domain.TurnState(msg)
		return m, tea.SetWindowTitle(m.titleStr())

	case pageMsg:
		m.page = domain.Page(msg)
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m model) titleStr() string {
	if m.state == domain.TurnIdle {
		return "PantryChef"
	}
	return "PantryChef: " + m.state.String()
}

func (m model) View() string {
	var b strings.Builder
	b.WriteString(m.renderBar())
	b.WriteString("\n\n")
	b.WriteString(m.input.View())
	return b.String()
}

func (m model) renderBar() string {
	content := " " + stateLabel(m.state) +
		sepStyle.Render("  │  ") +
		labelStyle.Render("page: ") + primaryStyle.Render(m.page.String()) + " "

	w := m.width
	if w <= 0 {
		w = 80
	}
	return barBg.Width(w).Render(content)
}

func stateLabel(s domain.TurnState) string {
	switch s {
	case domain.TurnIdle:
		return idleStyle.Render("idle")
	case domain.TurnCapturing:
		return listeningStyle.Render("● listening")
	default:
		return busyStyle.Render(s.String() + "…")
	}
}
