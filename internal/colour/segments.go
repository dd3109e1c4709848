package colour

import "strings"

// Segment is a piece of text with the decoration that applies to it.
type Segment struct {
	Decoration Decoration
	Text       string
}

// Segments is a multi-part message.
type Segments []Segment

// Segments splits args into decorated segments. An argument beginning with
// "!" that names a palette token switches the decoration for the arguments
// that follow it; anything else is text. Text before the first token is
// neutral. A decoration's prefix is emitted once, on the first segment after
// the switch.
//
//	m.Segments("!info", "Module", "!calc", "payment", "initialized")
func (m *Manager) Segments(args ...string) Segments {
	segs := make(Segments, 0, len(args))
	current := m.Neutral()
	for _, a := range args {
		if strings.HasPrefix(strings.TrimSpace(a), "!") && m.Has(a) {
			current = m.Decorate(a)
			continue
		}
		segs = append(segs, Segment{Decoration: current, Text: a})
		current.Prefix = ""
	}
	return segs
}

// Plain joins the segments with single spaces without styling.
func (s Segments) Plain() string {
	parts := make([]string, len(s))
	for i, seg := range s {
		parts[i] = seg.Decoration.Plain(seg.Text)
	}
	return strings.Join(parts, " ")
}

// Render joins the styled segments with single spaces.
func (s Segments) Render() string {
	parts := make([]string, len(s))
	for i, seg := range s {
		parts[i] = seg.Decoration.Render(seg.Text)
	}
	return strings.Join(parts, " ")
}

// Lead returns the token of the first segment that came from a palette
// token, or "" when there is none.
func (s Segments) Lead() string {
	for _, seg := range s {
		if seg.Decoration.Token != "" {
			return seg.Decoration.Token
		}
	}
	return ""
}
