package app

import (
	"fmt"
	"io"
	"runtime"
)

// Version is set at build time with -ldflags "-X .../internal/app.Version=...".
var Version = "dev"

// HasVersionFlag reports whether args contain --version or -V.
func HasVersionFlag(args []string) bool {
	for _, a := range args {
		switch a {
		case "--version", "-version", "-V":
			return true
		}
	}
	return false
}

// PrintVersion writes the version line to w.
func PrintVersion(w io.Writer) {
	fmt.Fprintf(w, "catlog %s (%s %s/%s)\n", Version, runtime.Version(), runtime.GOOS, runtime.GOARCH)
}
