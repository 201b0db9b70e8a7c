package chat

import (
	"errors"
	"testing"
)

func TestBeginRejectsBlankQuestions(t *testing.T) {
	cases := []string{"", "   ", "\n\t  "}
	for _, input := range cases {
		s := NewStore(nil, nil)
		c := NewController(s, &EvidencePanel{})

		_, err := c.Begin(input)
		if !errors.Is(err, ErrEmptyQuestion) {
			t.Fatalf("input=%q: got=%v want=ErrEmptyQuestion", input, err)
		}
		if s.Len() != 0 {
			t.Fatalf("input=%q: transcript length changed to %d", input, s.Len())
		}
		if c.Loading() {
			t.Fatalf("input=%q: loading flag raised on rejected ask", input)
		}
	}
}

func TestBeginAppendsTrimmedUserTurnAndClosesPanel(t *testing.T) {
	s := NewStore(nil, nil)
	panel := &EvidencePanel{}
	panel.Open(0, []Citation{{Text: "stale evidence"}})
	c := NewController(s, panel)

	q, err := c.Begin("  what is GCP?  ")
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	if q != "what is GCP?" {
		t.Fatalf("trimmed question: got=%q", q)
	}
	if panel.IsOpen() {
		t.Fatalf("panel must close on every ask")
	}
	if !c.Loading() {
		t.Fatalf("loading flag not raised")
	}
	msg, _ := s.Message(0)
	if msg.Role != RoleUser || msg.Content != "what is GCP?" {
		t.Fatalf("user turn: %+v", msg)
	}
}

func TestFinishSuccessAppendsStreamingAnswer(t *testing.T) {
	s := NewStore(nil, nil)
	c := NewController(s, &EvidencePanel{})
	if _, err := c.Begin("q"); err != nil {
		t.Fatalf("begin: %v", err)
	}

	idx := c.Finish(Answer{
		Answer:    "the answer",
		Sources:   []string{"sop-1.pdf"},
		Citations: []Citation{{Text: "excerpt"}},
	}, nil)

	if c.Loading() {
		t.Fatalf("loading flag not cleared")
	}
	if s.Len() != 2 {
		t.Fatalf("transcript length: got=%d want=2", s.Len())
	}
	msg, _ := s.Message(idx)
	if msg.Role != RoleAssistant || msg.Content != "the answer" {
		t.Fatalf("assistant turn: %+v", msg)
	}
	if !msg.IsStreaming {
		t.Fatalf("fresh answer must start streaming")
	}
	if msg.Liked != nil {
		t.Fatalf("fresh answer must be unvoted")
	}
}

func TestFinishFailureAppendsFallback(t *testing.T) {
	s := NewStore(nil, nil)
	c := NewController(s, &EvidencePanel{})
	if _, err := c.Begin("q"); err != nil {
		t.Fatalf("begin: %v", err)
	}

	idx := c.Finish(Answer{}, errors.New("connection refused"))

	if c.Loading() {
		t.Fatalf("loading flag not cleared on failure")
	}
	msg, _ := s.Message(idx)
	if msg.Content != FallbackAnswer {
		t.Fatalf("fallback content: got=%q", msg.Content)
	}
	if msg.IsStreaming {
		t.Fatalf("fallback must not stream")
	}
}

func TestFinishCarriesEmptyAnswerThrough(t *testing.T) {
	s := NewStore(nil, nil)
	c := NewController(s, &EvidencePanel{})
	if _, err := c.Begin("q"); err != nil {
		t.Fatalf("begin: %v", err)
	}

	idx := c.Finish(Answer{}, nil)
	msg, _ := s.Message(idx)
	if msg.Content != "" {
		t.Fatalf("empty backend answer: got=%q want=\"\"", msg.Content)
	}
}

func TestPanelToggleSemantics(t *testing.T) {
	p := &EvidencePanel{}
	cits := []Citation{{FileName: "sop-1.pdf", Text: "quoted"}}

	p.Toggle(2, cits)
	if !p.OpenFor(2) {
		t.Fatalf("toggle should open for 2")
	}

	// Opening another message replaces the panel rather than stacking.
	p.Open(5, cits)
	if p.OpenFor(2) || !p.OpenFor(5) {
		t.Fatalf("open should replace: openFor2=%v openFor5=%v", p.OpenFor(2), p.OpenFor(5))
	}

	p.Toggle(5, cits)
	if p.IsOpen() {
		t.Fatalf("toggle on the open index should close")
	}
	if p.Citations() != nil {
		t.Fatalf("closed panel must expose no citations")
	}
}
