package chat

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// FallbackAnswer is appended in place of an assistant answer when the QA
// backend call fails.
const FallbackAnswer = "Sorry, something went wrong."

// Citation is one evidence snippet attached to an assistant message. It has
// no identity beyond its position in the owning message's citation list.
type Citation struct {
	FileName string `json:"file_name,omitempty"`
	Text     string `json:"text"`
}

// Message is one transcript entry. Content is authoritative and immutable
// once set; the typewriter only advances a display prefix over it.
type Message struct {
	Role      string     `json:"role"`
	Content   string     `json:"content"`
	Sources   []string   `json:"sources,omitempty"`
	Citations []Citation `json:"citations,omitempty"`

	// Liked is tri-state: nil means no vote cast.
	Liked             *bool  `json:"liked"`
	FeedbackText      string `json:"feedback"`
	FeedbackSubmitted bool   `json:"feedbackSubmitted"`
	FeedbackSkipped   bool   `json:"feedbackSkipped"`

	// IsStreaming is transient UI state and never persisted.
	IsStreaming bool `json:"-"`
}

// FeedbackRecord is one row of the backend feedback log, consumed read-only
// by the analytics fold. CreatedAt is the raw ISO-8601 string (or nil) as
// the backend returns it.
type FeedbackRecord struct {
	ID        int64   `json:"id,omitempty"`
	Question  string  `json:"question"`
	Answer    string  `json:"answer"`
	Liked     *bool   `json:"liked"`
	Feedback  *string `json:"feedback"`
	CreatedAt *string `json:"created_at"`
}

// Bool returns a pointer to v, for building tri-state Liked values.
func Bool(v bool) *bool {
	return &v
}
