// Package ui provides theme support for catlog's terminal output.
// It defines the colour schemes from which the built-in style tokens are
// derived and tracks the active theme, honouring NO_COLOR.
//
// This package is a shared dependency for packages that need colour
// choices, keeping palette decisions out of the routing engine.
package ui
