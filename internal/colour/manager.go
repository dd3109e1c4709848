package colour

import (
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"

	apperrors "github.com/agbru/catlog/internal/errors"
)

// Decoration is a resolved style token.
type Decoration struct {
	// Token is the normalized token, empty for the neutral decoration.
	Token string
	// Prefix is prepended to every decorated message.
	Prefix string

	style   lipgloss.Style
	neutral bool
}

// IsNeutral reports whether the decoration leaves messages unstyled.
func (d Decoration) IsNeutral() bool { return d.neutral }

// Plain returns the prefixed message without escape sequences.
func (d Decoration) Plain(msg string) string {
	return d.Prefix + msg
}

// Render returns the prefixed message with terminal styling. Each line is
// styled on its own so lipgloss does not pad multi-line messages.
func (d Decoration) Render(msg string) string {
	text := d.Prefix + msg
	if d.neutral {
		return text
	}
	if !strings.Contains(text, "\n") {
		return d.style.Render(text)
	}
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		if l != "" {
			lines[i] = d.style.Render(l)
		}
	}
	return strings.Join(lines, "\n")
}

// Manager resolves style tokens against an immutable palette.
type Manager struct {
	renderer *lipgloss.Renderer
	noColor  bool
	styles   map[string]Decoration
	tokens   []string
}

// Option configures a Manager during construction.
type Option func(*Manager)

// WithRenderer sets the lipgloss renderer used to build styles. The renderer
// decides the colour profile; the default renderer inspects stdout.
func WithRenderer(r *lipgloss.Renderer) Option {
	return func(m *Manager) { m.renderer = r }
}

// WithNoColor makes Render identical to Plain for every token.
func WithNoColor() Option {
	return func(m *Manager) { m.noColor = true }
}

// New builds a Manager from p. The palette is copied.
func New(p Palette, opts ...Option) *Manager {
	m := &Manager{styles: make(map[string]Decoration, len(p))}
	for _, opt := range opts {
		opt(m)
	}
	if m.renderer == nil {
		m.renderer = lipgloss.NewRenderer(os.Stdout)
	}
	for _, e := range p {
		key := Normalize(e.Token)
		if key == "" {
			continue
		}
		if _, seen := m.styles[key]; !seen {
			m.tokens = append(m.tokens, key)
		}
		m.styles[key] = m.build(key, e.Spec)
	}
	return m
}

func (m *Manager) build(key string, s Spec) Decoration {
	d := Decoration{Token: key, Prefix: s.Prefix}
	if m.noColor {
		d.neutral = true
		return d
	}
	st := m.renderer.NewStyle().
		Foreground(ParseColour(s.Colour)).
		Background(ParseColour(s.Background)).
		Bold(s.Bold).
		Italic(s.Italic).
		Underline(s.Underline)
	d.style = st
	return d
}

// Neutral returns the decoration used for unknown tokens.
func (m *Manager) Neutral() Decoration {
	return Decoration{neutral: true}
}

// Decorate resolves token, falling back to the neutral decoration.
func (m *Manager) Decorate(token string) Decoration {
	if d, ok := m.styles[Normalize(token)]; ok {
		return d
	}
	return m.Neutral()
}

// Lookup resolves token strictly, returning UnknownStyleError when the
// palette has no entry for it.
func (m *Manager) Lookup(token string) (Decoration, error) {
	if d, ok := m.styles[Normalize(token)]; ok {
		return d, nil
	}
	return m.Neutral(), apperrors.UnknownStyleError{Token: token}
}

// Has reports whether token is in the palette.
func (m *Manager) Has(token string) bool {
	_, ok := m.styles[Normalize(token)]
	return ok
}

// Tokens returns the normalized palette tokens in palette order.
func (m *Manager) Tokens() []string {
	out := make([]string, len(m.tokens))
	copy(out, m.tokens)
	return out
}
