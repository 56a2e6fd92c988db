package model

// Payload is one side of a narrative entry: plain text, or an image with a caption.
type Payload struct {
	Text    string `json:"text,omitempty"`
	Image   string `json:"image,omitempty"`
	Caption string `json:"caption,omitempty"`
}

// IsImage reports whether the payload carries an image reference.
func (p Payload) IsImage() bool { return p.Image != "" }

// NarrativeEntry is a two-sided chat line. At least one side is non-nil.
type NarrativeEntry struct {
	ID    string   `json:"id,omitempty"`
	Left  *Payload `json:"left,omitempty"`
	Right *Payload `json:"right,omitempty"`
}

// EntryFor builds an entry placing p on the given side. For Both the payload
// is shown on each side. Unknown yields an entry with no payload and ok=false.
func EntryFor(side Side, p Payload) (NarrativeEntry, bool) {
	switch side {
	case Left:
		return NarrativeEntry{Left: &p}, true
	case Right:
		return NarrativeEntry{Right: &p}, true
	case Both:
		l, r := p, p
		return NarrativeEntry{Left: &l, Right: &r}, true
	default:
		return NarrativeEntry{}, false
	}
}
