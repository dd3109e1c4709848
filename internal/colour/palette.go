package colour

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/agbru/catlog/internal/ui"
)

// Spec is the configuration form of a decoration.
type Spec struct {
	// Colour is a colour name ("red", "bright_cyan"), an ANSI index ("208")
	// or a hex value ("#FF8C00"). Empty means the terminal default.
	Colour string `json:"colour,omitempty" yaml:"colour,omitempty"`
	// Background uses the same notation as Colour.
	Background string `json:"background,omitempty" yaml:"background,omitempty"`
	Bold       bool   `json:"bold,omitempty" yaml:"bold,omitempty"`
	Italic     bool   `json:"italic,omitempty" yaml:"italic,omitempty"`
	Underline  bool   `json:"underline,omitempty" yaml:"underline,omitempty"`
	// Prefix is prepended to the message in both plain and rendered forms.
	Prefix string `json:"prefix,omitempty" yaml:"prefix,omitempty"`
}

// Entry binds a style token to its Spec.
type Entry struct {
	Token string
	Spec  Spec
}

// Palette is an ordered list of token specs. Later entries override earlier
// entries with the same normalized token.
type Palette []Entry

// With returns a copy of p with token set to spec.
func (p Palette) With(token string, spec Spec) Palette {
	out := make(Palette, 0, len(p)+1)
	out = append(out, p...)
	return append(out, Entry{Token: token, Spec: spec})
}

// Normalize returns the lookup key for a style token: surrounding space and
// the leading "!" are removed and the result is lower-cased.
func Normalize(token string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(token), "!"))
}

var namedColours = map[string]string{
	"black":          "0",
	"red":            "1",
	"green":          "2",
	"yellow":         "3",
	"blue":           "4",
	"magenta":        "5",
	"cyan":           "6",
	"white":          "7",
	"grey":           "8",
	"gray":           "8",
	"bright_red":     "9",
	"bright_green":   "10",
	"bright_yellow":  "11",
	"bright_blue":    "12",
	"bright_magenta": "13",
	"bright_cyan":    "14",
	"bright_white":   "15",
	"orange":         "208",
	"purple":         "141",
	"pink":           "205",
}

// ParseColour converts the Spec notation to a lipgloss colour.
func ParseColour(s string) lipgloss.TerminalColor {
	s = strings.TrimSpace(s)
	if s == "" {
		return lipgloss.NoColor{}
	}
	key := strings.ReplaceAll(strings.ToLower(s), " ", "_")
	key = strings.ReplaceAll(key, "-", "_")
	if code, ok := namedColours[key]; ok {
		return lipgloss.Color(code)
	}
	return lipgloss.Color(s)
}

func colourString(c lipgloss.TerminalColor) string {
	if lc, ok := c.(lipgloss.Color); ok {
		return string(lc)
	}
	return ""
}

// DefaultPalette returns the built-in tokens coloured from theme.
func DefaultPalette(theme ui.Theme) Palette {
	c := colourString
	return Palette{
		{Token: "!info", Spec: Spec{Colour: c(theme.Info)}},
		{Token: "!warn", Spec: Spec{Colour: c(theme.Warning), Bold: true}},
		{Token: "!error", Spec: Spec{Colour: c(theme.Error), Bold: true}},
		{Token: "!calc", Spec: Spec{Colour: c(theme.Accent)}},
		{Token: "!done", Spec: Spec{Colour: c(theme.Success)}},
		{Token: "!pass", Spec: Spec{Colour: c(theme.Success), Bold: true}},
		{Token: "!fail", Spec: Spec{Colour: c(theme.Error), Underline: true}},
		{Token: "!proc", Spec: Spec{Colour: c(theme.Process)}},
		{Token: "!path", Spec: Spec{Colour: c(theme.Path)}},
		{Token: "!file", Spec: Spec{Colour: c(theme.Path), Italic: true}},
		{Token: "!date", Spec: Spec{Colour: c(theme.Dim)}},
		{Token: "!list", Spec: Spec{Colour: c(theme.Dim)}},
		{Token: "!test", Spec: Spec{Colour: c(theme.Accent), Italic: true}},
		{Token: "!debug", Spec: Spec{Colour: c(theme.Dim), Italic: true}},
	}
}
