package chat

// EvidencePanel tracks which message's citations are on display. At most
// one panel is open at a time; submitting a new question always closes it
// so stale evidence never outlives its turn.
type EvidencePanel struct {
	open      bool
	index     int
	citations []Citation
}

// Open shows the citations for the message at index, replacing whatever
// panel was open before.
func (p *EvidencePanel) Open(index int, citations []Citation) {
	p.open = true
	p.index = index
	p.citations = citations
}

func (p *EvidencePanel) Close() {
	p.open = false
	p.index = 0
	p.citations = nil
}

// Toggle closes the panel if it is already showing index, otherwise opens
// it for index.
func (p *EvidencePanel) Toggle(index int, citations []Citation) {
	if p.open && p.index == index {
		p.Close()
		return
	}
	p.Open(index, citations)
}

func (p *EvidencePanel) IsOpen() bool {
	return p.open
}

// OpenFor reports whether the panel is currently showing index.
func (p *EvidencePanel) OpenFor(index int) bool {
	return p.open && p.index == index
}

// Citations returns the snippets on display, or nil when closed.
func (p *EvidencePanel) Citations() []Citation {
	if !p.open {
		return nil
	}
	return p.citations
}

// Index returns the owning message index; only meaningful while open.
func (p *EvidencePanel) Index() int {
	return p.index
}
