// Package layout compiles line templates such as "%date [%category] %message"
// into a reusable formatter for destination lines.
package layout

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Common layouts.
const (
	// Default prefixes each line with a timestamp.
	Default = "%date %message"
	// Bare emits only the decorated message.
	Bare = "%message"
)

// Timestamp layouts used by the %date and %time tags.
const (
	DateFormat = "2006-01-02 15:04:05"
	TimeFormat = "15:04:05"
)

// Entry is the per-call data a layout can reference.
type Entry struct {
	Time     time.Time
	Style    string
	Category string
	Message  string
}

type part interface {
	write(b *strings.Builder, e Entry, dest, body string)
}

type literal string

func (l literal) write(b *strings.Builder, _ Entry, _, _ string) { b.WriteString(string(l)) }

type tag struct {
	names []string
	fn    func(b *strings.Builder, e Entry, dest, body string)
}

func (t *tag) write(b *strings.Builder, e Entry, dest, body string) { t.fn(b, e, dest, body) }

var tags = []*tag{
	{names: []string{"date", "d"}, fn: func(b *strings.Builder, e Entry, _, _ string) {
		b.WriteString(e.Time.Format(DateFormat))
	}},
	{names: []string{"time", "t"}, fn: func(b *strings.Builder, e Entry, _, _ string) {
		b.WriteString(e.Time.Format(TimeFormat))
	}},
	{names: []string{"category", "c"}, fn: func(b *strings.Builder, e Entry, _, _ string) {
		b.WriteString(e.Category)
	}},
	{names: []string{"style", "s"}, fn: func(b *strings.Builder, e Entry, _, _ string) {
		b.WriteString(e.Style)
	}},
	{names: []string{"dest"}, fn: func(b *strings.Builder, _ Entry, dest, _ string) {
		b.WriteString(dest)
	}},
	{names: []string{"message", "m"}, fn: func(b *strings.Builder, _ Entry, _, body string) {
		b.WriteString(body)
	}},
}

type tagName struct {
	name string
	tag  *tag
}

// tagNames lists every spelling, longest first, so "%dest" is not read as
// "%d" followed by "est".
var tagNames = func() []tagName {
	var out []tagName
	for _, t := range tags {
		for _, n := range t.names {
			out = append(out, tagName{name: n, tag: t})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return len(out[i].name) > len(out[j].name) })
	return out
}()

// Layout is a compiled template. It is immutable and safe for concurrent use.
type Layout struct {
	format string
	parts  []part
}

// MustCompile is like Compile but panics on error.
func MustCompile(format string) *Layout {
	l, err := Compile(format)
	if err != nil {
		panic(err)
	}
	return l
}

// Compile parses format. A '%' starts a tag; "%%" is a literal percent, and a
// trailing '%' is kept as is. An unknown tag is an error naming its position.
func Compile(format string) (*Layout, error) {
	l := &Layout{format: format}
	var lit []byte
	flush := func() {
		if len(lit) > 0 {
			l.parts = append(l.parts, literal(lit))
			lit = nil
		}
	}
	for i := 0; i < len(format); i++ {
		c := format[i]
		if c != '%' || i == len(format)-1 {
			lit = append(lit, c)
			continue
		}
		if format[i+1] == '%' {
			lit = append(lit, '%')
			i++
			continue
		}
		rest := format[i+1:]
		var found *tagName
		for k := range tagNames {
			if strings.HasPrefix(rest, tagNames[k].name) {
				found = &tagNames[k]
				break
			}
		}
		if found == nil {
			return nil, fmt.Errorf("layout %q: unknown tag at position %d", format, i)
		}
		flush()
		l.parts = append(l.parts, found.tag)
		i += len(found.name)
	}
	flush()
	return l, nil
}

// String returns the source template.
func (l *Layout) String() string { return l.format }

// Format renders the line for entry written to dest. body is the decorated
// message, plain or styled depending on the sink.
func (l *Layout) Format(e Entry, dest, body string) string {
	var b strings.Builder
	for _, p := range l.parts {
		p.write(&b, e, dest, body)
	}
	return b.String()
}
