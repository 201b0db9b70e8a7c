package chat

import (
	"errors"
	"strings"
)

var ErrEmptyQuestion = errors.New("question is empty")

// Answer is the QA backend's response to one question.
type Answer struct {
	Answer     string     `json:"answer"`
	Sources    []string   `json:"sources"`
	Citations  []Citation `json:"citations"`
	Confidence float64    `json:"confidence_score"`
}

// Controller orchestrates one conversation: it owns the transcript store,
// the evidence panel, and the loading flag, and splits an ask into two
// phases so the backend call itself can run as a detached task between
// them. Begin validates and records the user turn; Finish records the
// assistant turn once the call resolves. The controller imposes no mutual
// exclusion on overlapping asks; the presentation layer gates the send
// control on Loading.
type Controller struct {
	store   *Store
	panel   *EvidencePanel
	loading bool
}

func NewController(store *Store, panel *EvidencePanel) *Controller {
	return &Controller{store: store, panel: panel}
}

// Begin starts a turn for the given question. Empty or whitespace-only
// input is rejected with ErrEmptyQuestion before anything is appended or
// closed. Otherwise the trimmed question is appended as a user message,
// the evidence panel closes, the loading flag is raised, and the trimmed
// question is returned for the backend call.
func (c *Controller) Begin(question string) (string, error) {
	q := strings.TrimSpace(question)
	if q == "" {
		return "", ErrEmptyQuestion
	}

	c.store.Append(Message{Role: RoleUser, Content: q})
	c.panel.Close()
	c.loading = true
	return q, nil
}

// Finish completes a turn. On success it appends a streaming assistant
// message built from the answer; on failure it appends the fixed fallback
// with streaming off. A missing answer string is carried through as empty
// content rather than treated as an error. The loading flag clears on
// every path, and the new message's index is returned.
func (c *Controller) Finish(ans Answer, err error) int {
	c.loading = false
	if err != nil {
		return c.store.Append(Message{
			Role:    RoleAssistant,
			Content: FallbackAnswer,
		})
	}
	return c.store.Append(Message{
		Role:        RoleAssistant,
		Content:     ans.Answer,
		Sources:     ans.Sources,
		Citations:   ans.Citations,
		IsStreaming: true,
	})
}

// Loading reports whether a begun ask has not yet finished.
func (c *Controller) Loading() bool {
	return c.loading
}

func (c *Controller) Store() *Store {
	return c.store
}

func (c *Controller) Panel() *EvidencePanel {
	return c.panel
}
