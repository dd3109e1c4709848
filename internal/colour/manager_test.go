package colour

import (
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	apperrors "github.com/agbru/catlog/internal/errors"
	"github.com/agbru/catlog/internal/ui"
)

func ansiRenderer() *lipgloss.Renderer {
	r := lipgloss.NewRenderer(io.Discard)
	r.SetColorProfile(termenv.ANSI256)
	return r
}

func testPalette() Palette {
	return Palette{
		{Token: "!info", Spec: Spec{Colour: "cyan"}},
		{Token: "!warn", Spec: Spec{Colour: "yellow", Bold: true, Prefix: "WARN: "}},
		{Token: "!error", Spec: Spec{Colour: "#FF0000", Prefix: "ERROR: "}},
	}
}

func TestDecorate(t *testing.T) {
	t.Parallel()
	m := New(testPalette(), WithRenderer(ansiRenderer()))

	tests := []struct {
		name      string
		token     string
		wantPlain string
		neutral   bool
	}{
		{"known token", "!info", "ping", false},
		{"prefix applied", "!warn", "WARN: ping", false},
		{"case and bang insensitive", "ERROR", "ERROR: ping", false},
		{"surrounding space", "  !warn ", "WARN: ping", false},
		{"unknown token is neutral", "!sparkle", "ping", true},
		{"empty token is neutral", "", "ping", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			d := m.Decorate(tt.token)
			if got := d.Plain("ping"); got != tt.wantPlain {
				t.Errorf("Plain() = %q, want %q", got, tt.wantPlain)
			}
			if d.IsNeutral() != tt.neutral {
				t.Errorf("IsNeutral() = %v, want %v", d.IsNeutral(), tt.neutral)
			}
			rendered := d.Render("ping")
			if tt.neutral {
				if rendered != tt.wantPlain {
					t.Errorf("neutral Render() = %q, want %q", rendered, tt.wantPlain)
				}
				return
			}
			if !strings.HasPrefix(rendered, "\x1b[") || !strings.Contains(rendered, tt.wantPlain) {
				t.Errorf("Render() = %q, want styled %q", rendered, tt.wantPlain)
			}
		})
	}
}

func TestLookup(t *testing.T) {
	t.Parallel()
	m := New(testPalette())

	if _, err := m.Lookup("!info"); err != nil {
		t.Errorf("Lookup(!info) error = %v", err)
	}

	d, err := m.Lookup("!sparkle")
	var styleErr apperrors.UnknownStyleError
	if !errors.As(err, &styleErr) {
		t.Fatalf("Lookup(!sparkle) error = %v, want UnknownStyleError", err)
	}
	if styleErr.Token != "!sparkle" {
		t.Errorf("Token = %q, want !sparkle", styleErr.Token)
	}
	if !d.IsNeutral() {
		t.Error("failed lookup should still return the neutral decoration")
	}
}

func TestPaletteOverrideAndOrder(t *testing.T) {
	t.Parallel()
	p := testPalette().With("info", Spec{Prefix: "> "})
	m := New(p, WithRenderer(ansiRenderer()))

	if got := m.Decorate("!info").Plain("x"); got != "> x" {
		t.Errorf("later entry should override, got %q", got)
	}
	want := []string{"info", "warn", "error"}
	got := m.Tokens()
	if len(got) != len(want) {
		t.Fatalf("Tokens() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Tokens()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
	if len(testPalette()) != 3 {
		t.Error("With must not modify the receiver")
	}
}

func TestWithNoColor(t *testing.T) {
	t.Parallel()
	m := New(testPalette(), WithRenderer(ansiRenderer()), WithNoColor())
	d := m.Decorate("!warn")
	if got := d.Render("disk low"); got != "WARN: disk low" {
		t.Errorf("Render() with no colour = %q", got)
	}
	if d.Token != "warn" {
		t.Errorf("Token = %q, want warn", d.Token)
	}
}

func TestRenderMultiline(t *testing.T) {
	t.Parallel()
	m := New(testPalette(), WithRenderer(ansiRenderer()))
	out := m.Decorate("!info").Render("first\nsecond line")
	lines := strings.Split(out, "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d: %q", len(lines), out)
	}
	if strings.Contains(lines[0], "first ") {
		t.Errorf("short line should not be padded: %q", lines[0])
	}
}

func TestParseColour(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in   string
		want lipgloss.TerminalColor
	}{
		{"", lipgloss.NoColor{}},
		{"red", lipgloss.Color("1")},
		{"Bright Cyan", lipgloss.Color("14")},
		{"bright-green", lipgloss.Color("10")},
		{"208", lipgloss.Color("208")},
		{"#FF8C00", lipgloss.Color("#FF8C00")},
	}
	for _, tt := range tests {
		if got := ParseColour(tt.in); got != tt.want {
			t.Errorf("ParseColour(%q) = %#v, want %#v", tt.in, got, tt.want)
		}
	}
}

func TestDefaultPalette(t *testing.T) {
	t.Parallel()
	m := New(DefaultPalette(ui.DarkTheme), WithRenderer(ansiRenderer()))
	for _, tok := range []string{"!info", "!warn", "!error", "!calc", "!done", "!path", "!debug"} {
		if !m.Has(tok) {
			t.Errorf("default palette is missing %s", tok)
		}
	}

	none := DefaultPalette(ui.NoColorTheme)
	for _, e := range none {
		if e.Spec.Colour != "" {
			t.Errorf("NoColorTheme token %s has colour %q", e.Token, e.Spec.Colour)
		}
	}
}

func TestSegments(t *testing.T) {
	t.Parallel()
	m := New(testPalette(), WithRenderer(ansiRenderer()))

	segs := m.Segments("plain", "!info", "Module", "payment", "!warn", "degraded", "!nope")
	if len(segs) != 5 {
		t.Fatalf("expected 5 segments, got %d", len(segs))
	}
	if got := segs.Plain(); got != "plain Module payment WARN: degraded !nope" {
		t.Errorf("Plain() = %q", got)
	}
	if segs[0].Decoration.Token != "" || segs[1].Decoration.Token != "info" || segs[3].Decoration.Token != "warn" {
		t.Errorf("unexpected tokens: %q %q %q", segs[0].Decoration.Token, segs[1].Decoration.Token, segs[3].Decoration.Token)
	}
	if segs.Lead() != "info" {
		t.Errorf("Lead() = %q, want info", segs.Lead())
	}
	if !strings.Contains(segs.Render(), "\x1b[") {
		t.Error("Render() should contain escape sequences")
	}
	if (Segments{}).Lead() != "" {
		t.Error("Lead() of no segments should be empty")
	}
}
