// Package colour resolves style tokens such as "!info" or "!warn" to
// decorations: a lipgloss style plus an optional text prefix.
//
// A Manager is built once from a Palette and is immutable afterwards, so it
// is safe for concurrent use. Decorate never fails: unknown tokens resolve to
// the neutral decoration, which leaves the message untouched.
//
// Decorations produce two forms of a message. Plain is used for files and
// other sinks that must not receive escape sequences; Render applies the
// terminal styling and is used for console echo and terminal streams.
package colour
