package ui

import (
	"context"
	"strings"
	"time"

	"sopchat/internal/chat"
	"sopchat/internal/config"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
)

// Backend is the slice of the API client the UI needs.
type Backend interface {
	Ask(ctx context.Context, question string) (chat.Answer, error)
	SaveInteraction(ctx context.Context, in chat.Interaction) error
	FeedbackLog(ctx context.Context) ([]chat.FeedbackRecord, error)
}

const askTimeout = 90 * time.Second

// loadingSteps cycles in the status area while an ask is in flight.
var loadingSteps = []string{
	"Understanding the question...",
	"Identifying intent...",
	"Understanding context...",
	"Searching documents...",
	"Retrieving relevant chunks...",
	"Synthesizing answer...",
	"Formatting response...",
}

const loadingStepEvery = 3 * time.Second

type mode int

const (
	modeInput mode = iota
	modeBrowse
	modeComment
)

type view int

const (
	viewChat view = iota
	viewDashboard
)

type dashTab int

const (
	tabAnalysis dashTab = iota
	tabInteractions
)

type Model struct {
	cfg     config.AppConfig
	backend Backend

	store      *chat.Store
	controller *chat.Controller
	workflow   *chat.Workflow
	panel      *chat.EvidencePanel

	viewport viewport.Model
	input    textinput.Model
	comment  textinput.Model
	spinner  spinner.Model
	help     help.Model
	keys     keyMap

	width  int
	height int

	mode    mode
	view    view
	dashTab dashTab

	// selected is the assistant message index feedback and evidence keys
	// act on; -1 before the first answer.
	selected int

	typewriter *chat.Typewriter
	typingIdx  int
	typeNonce  int

	loadingStep int

	records     []chat.FeedbackRecord
	dashLoading bool

	// rendered caches glamour output per completed assistant message.
	rendered      map[int]string
	renderedWidth int

	status string
	err    error
}

type askResultMsg struct {
	ans chat.Answer
	err error
}
type typeTickMsg struct{ nonce int }
type stepTickMsg struct{}
type saveDoneMsg struct{ err error }
type feedbackLogMsg struct {
	records []chat.FeedbackRecord
	err     error
}

func NewModel(cfg config.AppConfig, backend Backend, store *chat.Store) Model {
	panel := &chat.EvidencePanel{}

	vp := viewport.New(60, 20)

	ti := textinput.New()
	ti.Placeholder = "Type your query..."
	ti.Prompt = "> "
	ti.CharLimit = 512
	ti.Focus()

	ci := textinput.New()
	ci.Placeholder = "Your feedback..."
	ci.Prompt = "feedback: "
	ci.CharLimit = 512

	sp := spinner.New()
	sp.Spinner = spinner.Points

	h := help.New()
	h.ShowAll = false

	m := Model{
		cfg:        cfg,
		backend:    backend,
		store:      store,
		controller: chat.NewController(store, panel),
		workflow:   chat.NewWorkflow(store),
		panel:      panel,
		viewport:   vp,
		input:      ti,
		comment:    ci,
		spinner:    sp,
		help:       h,
		keys:       defaultKeys(),
		selected:   lastAssistantIndex(store, store.Len()),
		rendered:   make(map[int]string),
	}
	return m
}

func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

func (m Model) askCmd(question string) tea.Cmd {
	backend := m.backend
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), askTimeout)
		defer cancel()
		ans, err := backend.Ask(ctx, question)
		return askResultMsg{ans: ans, err: err}
	}
}

// saveCmd ships a feedback interaction as a detached best-effort task. The
// resulting message exists only so failures reach the log; the transcript
// state is never rolled back.
func (m Model) saveCmd(in chat.Interaction) tea.Cmd {
	backend := m.backend
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return saveDoneMsg{err: backend.SaveInteraction(ctx, in)}
	}
}

func (m Model) feedbackLogCmd() tea.Cmd {
	backend := m.backend
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		records, err := backend.FeedbackLog(ctx)
		return feedbackLogMsg{records: records, err: err}
	}
}

func (m Model) typeTickCmd(nonce int, interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(time.Time) tea.Msg {
		return typeTickMsg{nonce: nonce}
	})
}

func stepTickCmd() tea.Cmd {
	return tea.Tick(loadingStepEvery, func(time.Time) tea.Msg {
		return stepTickMsg{}
	})
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.resize()
		m.refreshTranscript(false)

	case askResultMsg:
		idx := m.controller.Finish(msg.ans, msg.err)
		m.selected = idx
		m.err = msg.err
		m.loadingStep = 0
		if msg.err != nil {
			m.status = "Backend unavailable, answer replaced with fallback"
			m.refreshTranscript(true)
			break
		}
		m.status = ""
		message, _ := m.store.Message(idx)
		m.typewriter = chat.NewTypewriter(message.Content, m.typeInterval())
		m.typingIdx = idx
		m.typeNonce++
		m.refreshTranscript(true)
		cmds = append(cmds, m.typeTickCmd(m.typeNonce, m.typewriter.Interval()))

	case typeTickMsg:
		// Stale ticks from a torn-down reveal carry an old nonce.
		if msg.nonce != m.typeNonce || m.typewriter == nil {
			break
		}
		_, done := m.typewriter.Advance()
		if done {
			idx := m.typingIdx
			_ = m.store.Update(idx, func(mm *chat.Message) {
				mm.IsStreaming = false
			})
			m.typewriter = nil
			m.refreshTranscript(true)
			break
		}
		m.refreshTranscript(true)
		cmds = append(cmds, m.typeTickCmd(msg.nonce, m.typewriter.Interval()))

	case stepTickMsg:
		if m.controller.Loading() {
			if m.loadingStep < len(loadingSteps)-1 {
				m.loadingStep++
			}
			cmds = append(cmds, stepTickCmd())
		}

	case saveDoneMsg:
		// Fire and forget: the client already logged any failure.

	case feedbackLogMsg:
		m.dashLoading = false
		if msg.err != nil {
			m.err = msg.err
			m.status = "Feedback log load failed"
			break
		}
		m.err = nil
		m.records = msg.records

	case spinner.TickMsg:
		if m.controller.Loading() || m.dashLoading {
			var spin tea.Cmd
			m.spinner, spin = m.spinner.Update(msg)
			cmds = append(cmds, spin)
		}

	case tea.KeyMsg:
		return m.updateKeys(msg)
	}

	return m, tea.Batch(cmds...)
}

func (m Model) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.ForceQuit) {
		return m, tea.Quit
	}

	if m.view == viewDashboard {
		return m.updateDashboardKeys(msg)
	}

	switch m.mode {
	case modeInput:
		return m.updateInputKeys(msg)
	case modeComment:
		return m.updateCommentKeys(msg)
	default:
		return m.updateBrowseKeys(msg)
	}
}

func (m Model) updateInputKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Send):
		return m.submitQuestion()
	case key.Matches(msg, m.keys.Browse):
		m.mode = modeBrowse
		m.input.Blur()
		return m, nil
	case key.Matches(msg, m.keys.Dashboard):
		return m.openDashboard()
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) submitQuestion() (tea.Model, tea.Cmd) {
	if m.controller.Loading() {
		m.status = "Still answering the previous question"
		return m, nil
	}

	q, err := m.controller.Begin(m.input.Value())
	if err != nil {
		m.status = "Type a question first"
		return m, nil
	}

	m.input.Reset()
	m.status = ""
	m.err = nil
	m.loadingStep = 0
	m.resize()
	m.refreshTranscript(true)
	return m, tea.Batch(m.askCmd(q), stepTickCmd(), m.spinner.Tick)
}

func (m Model) updateBrowseKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Input):
		m.mode = modeInput
		m.input.Focus()
		return m, textinput.Blink
	case key.Matches(msg, m.keys.Dashboard):
		return m.openDashboard()
	case key.Matches(msg, m.keys.Up):
		m.viewport.LineUp(1)
		return m, nil
	case key.Matches(msg, m.keys.Down):
		m.viewport.LineDown(1)
		return m, nil
	case key.Matches(msg, m.keys.PageUp):
		m.viewport.HalfViewUp()
		return m, nil
	case key.Matches(msg, m.keys.PageDown):
		m.viewport.HalfViewDown()
		return m, nil
	case key.Matches(msg, m.keys.PrevAnswer):
		m.selectAnswer(-1)
		return m, nil
	case key.Matches(msg, m.keys.NextAnswer):
		m.selectAnswer(1)
		return m, nil
	case key.Matches(msg, m.keys.Like):
		return m.vote(true)
	case key.Matches(msg, m.keys.Dislike):
		return m.vote(false)
	case key.Matches(msg, m.keys.Evidence):
		m.toggleEvidence()
		return m, nil
	case key.Matches(msg, m.keys.Comment):
		if m.selected >= 0 && m.workflow.CommentPending(m.selected) {
			message, _ := m.store.Message(m.selected)
			m.comment.SetValue(message.FeedbackText)
			m.comment.CursorEnd()
			m.comment.Focus()
			m.mode = modeComment
			return m, textinput.Blink
		}
		m.status = "Dislike an answer first to leave a comment"
		return m, nil
	case key.Matches(msg, m.keys.Submit):
		return m.resolveFeedback(true)
	case key.Matches(msg, m.keys.Skip):
		return m.resolveFeedback(false)
	}
	return m, nil
}

func (m Model) updateCommentKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.comment.Blur()
		m.mode = modeBrowse
		return m.resolveFeedback(true)
	case "esc":
		// The draft stays on the message; the step stays unresolved.
		m.comment.Blur()
		m.mode = modeBrowse
		m.refreshTranscript(false)
		return m, nil
	}

	var cmd tea.Cmd
	m.comment, cmd = m.comment.Update(msg)
	if err := m.workflow.Comment(m.selected, m.comment.Value()); err != nil {
		m.err = err
	}
	m.refreshTranscript(false)
	return m, cmd
}

func (m Model) vote(liked bool) (tea.Model, tea.Cmd) {
	if m.selected < 0 {
		m.status = "No answer selected"
		return m, nil
	}
	in, err := m.workflow.Vote(m.selected, liked)
	if err != nil {
		m.err = err
		return m, nil
	}
	m.err = nil
	m.status = ""
	m.refreshTranscript(false)
	return m, m.saveCmd(in)
}

func (m Model) resolveFeedback(submit bool) (tea.Model, tea.Cmd) {
	if m.selected < 0 {
		return m, nil
	}
	var (
		in  chat.Interaction
		err error
	)
	if submit {
		in, err = m.workflow.Submit(m.selected)
	} else {
		in, err = m.workflow.Skip(m.selected)
	}
	if err != nil {
		m.err = err
		m.status = "Nothing to resolve for this answer"
		return m, nil
	}
	m.err = nil
	if submit {
		m.status = "Thanks for your feedback!"
	} else {
		m.status = ""
	}
	m.refreshTranscript(false)
	return m, m.saveCmd(in)
}

func (m *Model) toggleEvidence() {
	if m.selected < 0 {
		return
	}
	message, err := m.store.Message(m.selected)
	if err != nil || len(message.Citations) == 0 {
		m.status = "No evidence attached to this answer"
		return
	}
	m.panel.Toggle(m.selected, message.Citations)
	m.resize()
	m.refreshTranscript(false)
}

func (m *Model) selectAnswer(delta int) {
	next := nextAssistantIndex(m.store, m.selected, delta)
	if next >= 0 {
		m.selected = next
		m.refreshTranscript(false)
	}
}

func (m Model) openDashboard() (tea.Model, tea.Cmd) {
	m.view = viewDashboard
	m.dashTab = tabAnalysis
	m.dashLoading = true
	m.input.Blur()
	m.resize()
	return m, tea.Batch(m.feedbackLogCmd(), m.spinner.Tick)
}

func (m Model) updateDashboardKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Dashboard), key.Matches(msg, m.keys.Browse):
		m.view = viewChat
		if m.mode == modeInput {
			m.input.Focus()
		}
		m.resize()
		m.refreshTranscript(false)
		return m, textinput.Blink
	case key.Matches(msg, m.keys.SwitchTab):
		if m.dashTab == tabAnalysis {
			m.dashTab = tabInteractions
		} else {
			m.dashTab = tabAnalysis
		}
		return m, nil
	case key.Matches(msg, m.keys.Refresh):
		m.dashLoading = true
		return m, tea.Batch(m.feedbackLogCmd(), m.spinner.Tick)
	case key.Matches(msg, m.keys.Up):
		m.viewport.LineUp(1)
		return m, nil
	case key.Matches(msg, m.keys.Down):
		m.viewport.LineDown(1)
		return m, nil
	}
	return m, nil
}

func (m Model) typeInterval() time.Duration {
	if m.cfg.TypeIntervalMS > 0 {
		return time.Duration(m.cfg.TypeIntervalMS) * time.Millisecond
	}
	return chat.DefaultTypeInterval
}

// refreshTranscript rebuilds the viewport from the store. With follow set,
// the view snaps to the bottom the way a chat window follows new output.
func (m *Model) refreshTranscript(follow bool) {
	if m.view != viewChat {
		return
	}
	m.viewport.SetContent(m.renderTranscript())
	if follow {
		m.viewport.GotoBottom()
	}
}

func (m *Model) renderAnswerMarkdown(idx int, content string) string {
	if m.renderedWidth != m.viewport.Width {
		m.rendered = make(map[int]string)
		m.renderedWidth = m.viewport.Width
	}
	if out, ok := m.rendered[idx]; ok {
		return out
	}

	wrap := m.viewport.Width - 2
	if wrap < 20 {
		wrap = 20
	}
	out := content
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(config.DefaultGlamourStyle),
		glamour.WithWordWrap(wrap),
	)
	if err == nil {
		if rendered, renderErr := r.Render(content); renderErr == nil {
			out = strings.Trim(rendered, "\n")
		}
	}
	m.rendered[idx] = out
	return out
}

func lastAssistantIndex(store *chat.Store, from int) int {
	for i := from - 1; i >= 0; i-- {
		if message, err := store.Message(i); err == nil && message.Role == chat.RoleAssistant {
			return i
		}
	}
	return -1
}

func nextAssistantIndex(store *chat.Store, current, delta int) int {
	for i := current + delta; i >= 0 && i < store.Len(); i += delta {
		if message, err := store.Message(i); err == nil && message.Role == chat.RoleAssistant {
			return i
		}
	}
	return -1
}
