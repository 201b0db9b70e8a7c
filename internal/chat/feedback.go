package chat

import (
	"errors"
	"fmt"
)

var (
	ErrNotAssistant     = errors.New("feedback applies to assistant messages only")
	ErrNotDisliked      = errors.New("message is not currently disliked")
	ErrFeedbackResolved = errors.New("feedback already submitted or skipped")
)

// Interaction is the payload persisted to the feedback backend after a
// feedback transition. Question is the content of the user turn preceding
// the answer, empty when no such turn exists.
type Interaction struct {
	Question  string     `json:"question"`
	Answer    string     `json:"answer"`
	Sources   []string   `json:"sources"`
	Citations []Citation `json:"citations"`
	Liked     *bool      `json:"liked"`
	Feedback  *string    `json:"feedback"`
}

// Workflow runs the per-message like/dislike/comment/skip state machine on
// top of a Store. The transition methods return the Interaction to persist;
// the caller ships it to the backend as a detached best-effort task and
// never rolls the local state back on failure.
type Workflow struct {
	store *Store
}

func NewWorkflow(store *Store) *Workflow {
	return &Workflow{store: store}
}

// Vote sets or toggles the polarity of the message at index i. Voting the
// current polarity again clears it (back to no vote); any vote transition
// resets the submitted/skipped flags, so a re-dislike after a resolved
// comment step reopens it. The returned interaction snapshots the polarity
// after the transition.
func (w *Workflow) Vote(i int, liked bool) (Interaction, error) {
	msg, err := w.assistantMessage(i)
	if err != nil {
		return Interaction{}, err
	}

	var next *bool
	if msg.Liked == nil || *msg.Liked != liked {
		next = Bool(liked)
	}
	if err := w.store.Update(i, func(m *Message) {
		m.Liked = next
		m.FeedbackSubmitted = false
		m.FeedbackSkipped = false
	}); err != nil {
		return Interaction{}, err
	}
	return w.interaction(i, next, nil), nil
}

// Comment updates the free-text comment on a disliked message. It does not
// persist anything; the text travels with the eventual Submit.
func (w *Workflow) Comment(i int, text string) error {
	msg, err := w.assistantMessage(i)
	if err != nil {
		return err
	}
	if msg.Liked == nil || *msg.Liked {
		return fmt.Errorf("comment on message %d: %w", i, ErrNotDisliked)
	}
	return w.store.Update(i, func(m *Message) {
		m.FeedbackText = text
	})
}

// Submit finalizes the comment step on a disliked message, returning the
// interaction carrying the comment text.
func (w *Workflow) Submit(i int) (Interaction, error) {
	msg, err := w.pendingDislike(i)
	if err != nil {
		return Interaction{}, err
	}
	if err := w.store.Update(i, func(m *Message) {
		m.FeedbackSubmitted = true
	}); err != nil {
		return Interaction{}, err
	}
	var comment *string
	if msg.FeedbackText != "" {
		text := msg.FeedbackText
		comment = &text
	}
	return w.interaction(i, Bool(false), comment), nil
}

// Skip declines the comment step on a disliked message; the persisted
// interaction carries the dislike with no comment.
func (w *Workflow) Skip(i int) (Interaction, error) {
	if _, err := w.pendingDislike(i); err != nil {
		return Interaction{}, err
	}
	if err := w.store.Update(i, func(m *Message) {
		m.FeedbackSkipped = true
	}); err != nil {
		return Interaction{}, err
	}
	return w.interaction(i, Bool(false), nil), nil
}

// CommentPending reports whether the message at i is disliked with the
// comment step still unresolved.
func (w *Workflow) CommentPending(i int) bool {
	_, err := w.pendingDislike(i)
	return err == nil
}

func (w *Workflow) assistantMessage(i int) (Message, error) {
	msg, err := w.store.Message(i)
	if err != nil {
		return Message{}, err
	}
	if msg.Role != RoleAssistant {
		return Message{}, fmt.Errorf("message %d: %w", i, ErrNotAssistant)
	}
	return msg, nil
}

func (w *Workflow) pendingDislike(i int) (Message, error) {
	msg, err := w.assistantMessage(i)
	if err != nil {
		return Message{}, err
	}
	if msg.Liked == nil || *msg.Liked {
		return Message{}, fmt.Errorf("message %d: %w", i, ErrNotDisliked)
	}
	if msg.FeedbackSubmitted || msg.FeedbackSkipped {
		return Message{}, fmt.Errorf("message %d: %w", i, ErrFeedbackResolved)
	}
	return msg, nil
}

func (w *Workflow) interaction(i int, liked *bool, feedback *string) Interaction {
	msg, _ := w.store.Message(i)
	question := ""
	if prev, err := w.store.Message(i - 1); err == nil && prev.Role == RoleUser {
		question = prev.Content
	}
	return Interaction{
		Question:  question,
		Answer:    msg.Content,
		Sources:   msg.Sources,
		Citations: msg.Citations,
		Liked:     liked,
		Feedback:  feedback,
	}
}
