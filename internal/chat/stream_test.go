package chat

import (
	"testing"
	"time"
)

func TestTypewriterRevealsOneRunePerTick(t *testing.T) {
	tw := NewTypewriter("abc", time.Millisecond)

	var prefixes []string
	var completions int
	for i := 0; i < 3; i++ {
		prefix, done := tw.Advance()
		prefixes = append(prefixes, prefix)
		if done {
			completions++
		}
	}

	want := []string{"a", "ab", "abc"}
	for i := range want {
		if prefixes[i] != want[i] {
			t.Fatalf("tick %d: got=%q want=%q", i, prefixes[i], want[i])
		}
	}
	if completions != 1 {
		t.Fatalf("completion signals: got=%d want=1", completions)
	}
	if !tw.Finished() {
		t.Fatalf("expected finished typewriter")
	}
}

func TestTypewriterSignalsCompletionExactlyOnce(t *testing.T) {
	tw := NewTypewriter("hi", time.Millisecond)

	completions := 0
	for i := 0; i < 5; i++ {
		if _, done := tw.Advance(); done {
			completions++
		}
	}
	if completions != 1 {
		t.Fatalf("completion signals over extra ticks: got=%d want=1", completions)
	}

	// A finished typewriter keeps returning the full string.
	prefix, done := tw.Advance()
	if prefix != "hi" || done {
		t.Fatalf("post-completion advance: got=(%q, %v) want=(%q, false)", prefix, done, "hi")
	}
}

func TestTypewriterEmptyContent(t *testing.T) {
	tw := NewTypewriter("", time.Millisecond)
	prefix, done := tw.Advance()
	if prefix != "" || !done {
		t.Fatalf("empty content first advance: got=(%q, %v) want=(\"\", true)", prefix, done)
	}
}

func TestTypewriterHandlesMultibyteRunes(t *testing.T) {
	tw := NewTypewriter("héllo", time.Millisecond)
	prefix, _ := tw.Advance()
	if prefix != "h" {
		t.Fatalf("first prefix: got=%q want=%q", prefix, "h")
	}
	prefix, _ = tw.Advance()
	if prefix != "hé" {
		t.Fatalf("second prefix: got=%q want=%q", prefix, "hé")
	}
}

func TestTypewriterDefaultInterval(t *testing.T) {
	tw := NewTypewriter("x", 0)
	if tw.Interval() != DefaultTypeInterval {
		t.Fatalf("interval: got=%v want=%v", tw.Interval(), DefaultTypeInterval)
	}
}
