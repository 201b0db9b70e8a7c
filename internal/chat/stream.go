package chat

import "time"

// DefaultTypeInterval is the per-rune reveal delay for answer playback.
const DefaultTypeInterval = 10 * time.Millisecond

// Typewriter replays an already-complete answer string as a finite sequence
// of growing prefixes, one rune per tick. It never mutates the target
// string and cannot be restarted: a finished typewriter stays finished.
// The caller owns the tick schedule and must simply stop calling Advance
// when the owning message is torn down.
type Typewriter struct {
	runes    []rune
	pos      int
	interval time.Duration
	done     bool
}

func NewTypewriter(content string, interval time.Duration) *Typewriter {
	if interval <= 0 {
		interval = DefaultTypeInterval
	}
	return &Typewriter{runes: []rune(content), interval: interval}
}

// Interval returns the delay the caller should wait between Advance calls.
func (t *Typewriter) Interval() time.Duration {
	return t.interval
}

// Advance reveals one more rune and returns the current prefix. done is
// true exactly once, on the call that reveals the final rune (or on the
// first call for empty content); later calls return the full string with
// done false so completion is signaled a single time.
func (t *Typewriter) Advance() (prefix string, done bool) {
	if t.done {
		return string(t.runes), false
	}
	if t.pos < len(t.runes) {
		t.pos++
	}
	if t.pos == len(t.runes) {
		t.done = true
		return string(t.runes), true
	}
	return string(t.runes[:t.pos]), false
}

// Prefix returns the currently revealed prefix without advancing.
func (t *Typewriter) Prefix() string {
	return string(t.runes[:t.pos])
}

// Finished reports whether the full content has been revealed.
func (t *Typewriter) Finished() bool {
	return t.done
}
