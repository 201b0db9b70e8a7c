package ui

import (
	"fmt"
	"strings"
	"time"

	"sopchat/internal/analytics"
	"sopchat/internal/chat"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"
)

const (
	appName    = "Clinical SOP Assistant"
	appTagline = "Structured answers from validated documents"
)

func (m *Model) resize() {
	if m.width <= 0 || m.height <= 0 {
		return
	}
	left, _ := m.paneWidths()

	bodyHeight := m.height - 4
	if bodyHeight < 6 {
		bodyHeight = 6
	}

	m.viewport.Width = left - 4
	m.viewport.Height = bodyHeight - 2
	m.input.Width = m.width - 6
	m.comment.Width = m.width - 14
}

func (m *Model) paneWidths() (int, int) {
	if !m.panel.IsOpen() || m.view != viewChat {
		return m.width, 0
	}
	right := m.width / 3
	if right < 30 {
		right = 30
	}
	if right > m.width-40 {
		right = m.width - 40
	}
	if right < 20 {
		right = 20
	}
	return m.width - right, right
}

func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Starting..."
	}

	status := m.statusLine()

	var body string
	bodyHeight := m.height - 4
	if bodyHeight < 6 {
		bodyHeight = 6
	}
	if m.view == viewDashboard {
		m.viewport.SetContent(m.renderDashboard())
		body = panelStyle(true).Width(m.width - 2).Height(bodyHeight).Render(m.viewport.View())
	} else {
		left, right := m.paneWidths()
		chatPane := panelStyle(m.mode != modeComment).Width(left - 2).Height(bodyHeight).Render(m.viewport.View())
		if right > 0 {
			evidence := panelStyle(false).Width(right - 2).Height(bodyHeight).Render(m.renderEvidence(right - 4))
			body = lipgloss.JoinHorizontal(lipgloss.Top, chatPane, evidence)
		} else {
			body = chatPane
		}
	}

	inputLine := m.inputLine()
	helpView := m.help.View(m.keys)

	return lipgloss.JoinVertical(lipgloss.Left,
		status,
		body,
		inputLine,
		helpView,
	)
}

func (m Model) inputLine() string {
	switch {
	case m.view == viewDashboard:
		return dimStyle.Render("tab/esc back to chat")
	case m.mode == modeComment:
		return m.comment.View()
	default:
		return m.input.View()
	}
}

func (m Model) statusLine() string {
	status := appName + " — " + appTagline
	if m.view == viewDashboard {
		status = appName + " — Feedback Dashboard"
		if m.dashLoading {
			status += "  " + m.spinner.View()
		}
	}
	if m.controller.Loading() {
		status += "  " + m.spinner.View() + " " + loadingSteps[m.loadingStep]
	}
	if m.panel.IsOpen() {
		status += "  [evidence]"
	}
	if m.mode == modeBrowse && m.view == viewChat {
		status += "  [browse]"
	}
	if m.mode == modeComment {
		status += "  [comment]"
	}
	if strings.TrimSpace(m.status) != "" {
		status += "  " + shorten(strings.TrimSpace(m.status), 60)
	}
	if m.err != nil {
		status += "  err=" + shorten(m.err.Error(), 60)
	}
	return statusStyle.Render(shorten(status, m.width-2))
}

func (m *Model) renderTranscript() string {
	if m.store.Len() == 0 {
		return dimStyle.Render("Ask a question about your SOP documents to get started.")
	}

	var b strings.Builder
	for i := 0; i < m.store.Len(); i++ {
		message, err := m.store.Message(i)
		if err != nil {
			continue
		}
		if i > 0 {
			b.WriteString("\n")
		}
		switch message.Role {
		case chat.RoleUser:
			b.WriteString(userLabelStyle.Render("You"))
			b.WriteString("\n")
			b.WriteString(message.Content)
			b.WriteString("\n")
		case chat.RoleAssistant:
			b.WriteString(m.renderAssistant(i, message))
		}
	}

	if m.controller.Loading() {
		b.WriteString("\n")
		b.WriteString(thinkingStyle.Render(loadingSteps[m.loadingStep]))
		b.WriteString("\n")
	}
	return b.String()
}

func (m *Model) renderAssistant(i int, message chat.Message) string {
	var b strings.Builder

	label := "Assistant"
	if i == m.selected {
		label += " ◂"
	}
	b.WriteString(assistantLabelStyle.Render(label))
	b.WriteString("\n")

	if message.IsStreaming && m.typewriter != nil && m.typingIdx == i {
		b.WriteString(m.typewriter.Prefix())
		b.WriteString(cursorStyle.Render("▌"))
		b.WriteString("\n")
		return b.String()
	}

	b.WriteString(m.renderAnswerMarkdown(i, message.Content))
	b.WriteString("\n")

	var meta []string
	if len(message.Citations) > 0 {
		label := fmt.Sprintf("e: view evidence (%d)", len(message.Citations))
		if m.panel.OpenFor(i) {
			label = "e: hide evidence"
		}
		meta = append(meta, label)
	}
	switch {
	case message.Liked == nil:
		meta = append(meta, "l: 👍  d: 👎")
	case *message.Liked:
		meta = append(meta, likedStyle.Render("👍 liked"))
	default:
		meta = append(meta, dislikedStyle.Render("👎 disliked"))
	}
	b.WriteString(dimStyle.Render(strings.Join(meta, "   ")))
	b.WriteString("\n")

	if message.Liked != nil && !*message.Liked {
		switch {
		case message.FeedbackSubmitted:
			b.WriteString(likedStyle.Render("Thanks for your feedback!"))
			b.WriteString("\n")
		case message.FeedbackSkipped:
			b.WriteString(dimStyle.Render("Feedback skipped"))
			b.WriteString("\n")
		default:
			draft := message.FeedbackText
			if draft == "" {
				draft = "(no comment yet)"
			}
			b.WriteString(dimStyle.Render("Comment: " + draft))
			b.WriteString("\n")
			b.WriteString(dimStyle.Render("c: edit comment   s: submit   x: skip"))
			b.WriteString("\n")
		}
	}
	return b.String()
}

func (m Model) renderEvidence(width int) string {
	var b strings.Builder
	b.WriteString(evidenceTitleStyle.Render("Evidence & Citations"))
	b.WriteString("\n\n")
	for idx, c := range m.panel.Citations() {
		name := c.FileName
		if name == "" {
			name = "Document"
		}
		if idx > 0 {
			b.WriteString("\n")
		}
		b.WriteString(evidenceFileStyle.Render(name))
		b.WriteString("\n")
		b.WriteString(wrapQuote(c.Text, width))
		b.WriteString("\n")
	}
	return b.String()
}

// wrapQuote wraps a citation excerpt at width, quoting it like the source
// view did.
func wrapQuote(text string, width int) string {
	if width < 12 {
		width = 12
	}
	words := strings.Fields("\"" + text + "\"")
	var (
		lines []string
		cur   string
	)
	for _, w := range words {
		if cur == "" {
			cur = w
			continue
		}
		if len(cur)+1+len(w) > width {
			lines = append(lines, cur)
			cur = w
			continue
		}
		cur += " " + w
	}
	if cur != "" {
		lines = append(lines, cur)
	}
	return quoteStyle.Render(strings.Join(lines, "\n"))
}

func (m Model) renderDashboard() string {
	var b strings.Builder

	analysisTab := "Analysis Dashboard"
	interactionsTab := "Feedback Interactions"
	if m.dashTab == tabAnalysis {
		b.WriteString(activeTabStyle.Render(analysisTab) + "  " + inactiveTabStyle.Render(interactionsTab))
	} else {
		b.WriteString(inactiveTabStyle.Render(analysisTab) + "  " + activeTabStyle.Render(interactionsTab))
	}
	b.WriteString("\n\n")

	if m.dashLoading {
		b.WriteString(m.spinner.View() + " loading feedback...")
		return b.String()
	}

	if m.dashTab == tabAnalysis {
		b.WriteString(m.renderAnalysis())
	} else {
		b.WriteString(m.renderInteractions())
	}
	return b.String()
}

func (m Model) renderAnalysis() string {
	summary := analytics.Summarize(m.records)
	trend := analytics.Trend(m.records)

	var b strings.Builder
	b.WriteString(fmt.Sprintf("Total Questions      %d\n", summary.Total))
	b.WriteString(likedStyle.Render(fmt.Sprintf("Helpful Responses    %d", summary.Likes)) + "\n")
	b.WriteString(dislikedStyle.Render(fmt.Sprintf("Needs Improvement    %d", summary.Dislikes)) + "\n\n")

	b.WriteString(evidenceTitleStyle.Render("SOP Answer Quality Score"))
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("%3d%%  %s\n\n", summary.QualityScore, scoreBar(summary.QualityScore, 30)))

	b.WriteString(evidenceTitleStyle.Render("User Satisfaction"))
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("%d%% %s (%s)\n\n", summary.QualityScore, bandEmoji(summary.Band), summary.Band))

	b.WriteString(evidenceTitleStyle.Render("Feedback Trend"))
	b.WriteString("\n")
	if len(trend) == 0 {
		b.WriteString(dimStyle.Render("No feedback collected yet") + "\n")
	}
	for _, bucket := range trend {
		b.WriteString(fmt.Sprintf("%-12s  %s  %s\n",
			bucket.Date,
			likedStyle.Render(fmt.Sprintf("▲%d", bucket.Likes)),
			dislikedStyle.Render(fmt.Sprintf("▼%d", bucket.Dislikes)),
		))
	}
	return b.String()
}

func (m Model) renderInteractions() string {
	if len(m.records) == 0 {
		return dimStyle.Render("No feedback interactions recorded")
	}

	var b strings.Builder
	for _, r := range m.records {
		polarity := "—"
		switch {
		case r.Liked == nil:
		case *r.Liked:
			polarity = likedStyle.Render("👍")
		default:
			polarity = dislikedStyle.Render("👎")
		}
		comment := "-"
		if r.Feedback != nil && *r.Feedback != "" {
			comment = *r.Feedback
		}
		b.WriteString(fmt.Sprintf("%s  %s\n", formatTimestamp(r.CreatedAt), polarity))
		b.WriteString("  Q: " + shorten(r.Question, m.viewport.Width-6) + "\n")
		b.WriteString("  A: " + shorten(r.Answer, m.viewport.Width-6) + "\n")
		b.WriteString(dimStyle.Render("  feedback: "+shorten(comment, m.viewport.Width-14)) + "\n\n")
	}
	return b.String()
}

func formatTimestamp(iso *string) string {
	if iso == nil || *iso == "" {
		return "-"
	}
	if t, err := time.Parse(time.RFC3339, *iso); err == nil {
		return t.Local().Format("2006-01-02 15:04")
	}
	if t, err := time.Parse("2006-01-02T15:04:05", *iso); err == nil {
		return t.Format("2006-01-02 15:04")
	}
	return *iso
}

func scoreBar(score, width int) string {
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	filled := score * width / 100
	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
	switch {
	case score >= 75:
		return likedStyle.Render(bar)
	case score >= 40:
		return neutralStyle.Render(bar)
	default:
		return dislikedStyle.Render(bar)
	}
}

func bandEmoji(band string) string {
	switch band {
	case analytics.BandPositive:
		return "🙂"
	case analytics.BandNeutral:
		return "😐"
	default:
		return "😞"
	}
}

func shorten(s string, n int) string {
	s = strings.TrimSpace(s)
	if n <= 0 || len(s) <= n {
		return s
	}
	if n <= 3 {
		return s[:n]
	}
	return s[:n-3] + "..."
}

var (
	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")).
			Background(lipgloss.Color("24")).
			Padding(0, 1)
	userLabelStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("75"))
	assistantLabelStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("114"))
	thinkingStyle = lipgloss.NewStyle().
			Italic(true).
			Foreground(lipgloss.Color("245"))
	cursorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("114"))
	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245"))
	likedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42"))
	dislikedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("203"))
	neutralStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("220"))
	evidenceTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("209"))
	evidenceFileStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("75"))
	quoteStyle = lipgloss.NewStyle().
			Italic(true).
			Foreground(lipgloss.Color("250"))
	activeTabStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("16")).
			Background(lipgloss.Color("75")).
			Padding(0, 1)
	inactiveTabStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("245")).
				Padding(0, 1)
)

func panelStyle(active bool) lipgloss.Style {
	border := lipgloss.NormalBorder()
	if active {
		return lipgloss.NewStyle().
			Border(border, true).
			BorderForeground(lipgloss.Color("39")).
			Padding(0, 1)
	}
	return lipgloss.NewStyle().
		Border(border, true).
		BorderForeground(lipgloss.Color("240")).
		Padding(0, 1)
}

type keyMap struct {
	Send       key.Binding
	Browse     key.Binding
	Input      key.Binding
	Up         key.Binding
	Down       key.Binding
	PageUp     key.Binding
	PageDown   key.Binding
	PrevAnswer key.Binding
	NextAnswer key.Binding
	Like       key.Binding
	Dislike    key.Binding
	Evidence   key.Binding
	Comment    key.Binding
	Submit     key.Binding
	Skip       key.Binding
	Dashboard  key.Binding
	SwitchTab  key.Binding
	Refresh    key.Binding
	Quit       key.Binding
	ForceQuit  key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		Send: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "ask"),
		),
		Browse: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "browse answers"),
		),
		Input: key.NewBinding(
			key.WithKeys("i", "/"),
			key.WithHelp("i", "type question"),
		),
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "scroll up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "scroll down"),
		),
		PageUp: key.NewBinding(
			key.WithKeys("pgup", "b"),
			key.WithHelp("pgup", "page up"),
		),
		PageDown: key.NewBinding(
			key.WithKeys("pgdown", "f"),
			key.WithHelp("pgdn", "page down"),
		),
		PrevAnswer: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "prev answer"),
		),
		NextAnswer: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "next answer"),
		),
		Like: key.NewBinding(
			key.WithKeys("l"),
			key.WithHelp("l", "like"),
		),
		Dislike: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "dislike"),
		),
		Evidence: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "evidence"),
		),
		Comment: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "comment"),
		),
		Submit: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "submit feedback"),
		),
		Skip: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "skip feedback"),
		),
		Dashboard: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "dashboard"),
		),
		SwitchTab: key.NewBinding(
			key.WithKeys("t"),
			key.WithHelp("t", "switch tab"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q"),
			key.WithHelp("q", "quit"),
		),
		ForceQuit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("ctrl+c", "quit"),
		),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Send, k.Browse, k.Like, k.Dislike, k.Evidence, k.Dashboard, k.ForceQuit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Send, k.Browse, k.Input, k.Dashboard},
		{k.Up, k.Down, k.PageUp, k.PageDown, k.PrevAnswer, k.NextAnswer},
		{k.Like, k.Dislike, k.Evidence, k.Comment, k.Submit, k.Skip},
		{k.SwitchTab, k.Refresh, k.Quit, k.ForceQuit},
	}
}
