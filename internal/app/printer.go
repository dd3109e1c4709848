package app

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/agbru/catlog/internal/ui"
)

// printer writes the plain-text frame around scenario output.
type printer struct {
	out    io.Writer
	titleStyle  lipgloss.Style
	headerStyle lipgloss.Style
	dimStyle    lipgloss.Style
	colour      bool
}

func newPrinter(out io.Writer, r *lipgloss.Renderer, colour bool) *printer {
	theme := ui.GetCurrentTheme()
	return &printer{
		out:         out,
		titleStyle:  r.NewStyle().Bold(true).Foreground(theme.Accent),
		headerStyle: r.NewStyle().Bold(true).Foreground(theme.Info),
		dimStyle:    r.NewStyle().Foreground(theme.Dim),
		colour:      colour,
	}
}

func (p *printer) render(s lipgloss.Style, text string) string {
	if !p.colour {
		return text
	}
	return s.Render(text)
}

func (p *printer) banner(text string) {
	rule := strings.Repeat("=", 50)
	fmt.Fprintln(p.out, p.render(p.titleStyle, text))
	fmt.Fprintln(p.out, p.render(p.dimStyle, rule))
}

func (p *printer) header(text string) {
	fmt.Fprintf(p.out, "\n%s\n", p.render(p.headerStyle, "=== "+text+" ==="))
}

func (p *printer) footer(lines []string) {
	fmt.Fprintf(p.out, "\n%s\n", p.render(p.dimStyle, strings.Repeat("=", 50)))
	for _, l := range lines {
		fmt.Fprintln(p.out, l)
	}
}
