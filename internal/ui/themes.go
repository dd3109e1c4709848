package ui

import (
	"os"
	"sort"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

// Theme defines a colour scheme for decorated log output.
// Each field is a lipgloss.TerminalColor suitable for use with
// lipgloss.Style.Foreground().
type Theme struct {
	// Name is the identifier of the theme.
	Name string
	// Info is used for informational messages.
	Info lipgloss.TerminalColor
	// Warning is used for caution messages or non-critical issues.
	Warning lipgloss.TerminalColor
	// Error indicates failures or critical issues.
	Error lipgloss.TerminalColor
	// Success indicates positive outcomes or completed operations.
	Success lipgloss.TerminalColor
	// Accent highlights computed values and measurements.
	Accent lipgloss.TerminalColor
	// Path is used for file system paths and file names.
	Path lipgloss.TerminalColor
	// Dim is used for timestamps, lists and debug chatter.
	Dim lipgloss.TerminalColor
	// Process marks long-running operations.
	Process lipgloss.TerminalColor
}

var (
	// DarkTheme is optimized for dark terminal backgrounds.
	// Uses bright, vibrant colors for good contrast.
	DarkTheme = Theme{
		Name:    "dark",
		Info:    lipgloss.Color("141"), // Purple
		Warning: lipgloss.Color("220"), // Yellow
		Error:   lipgloss.Color("196"), // Red
		Success: lipgloss.Color("82"),  // Bright green
		Accent:  lipgloss.Color("39"),  // Bright blue
		Path:    lipgloss.Color("51"),  // Cyan
		Dim:     lipgloss.Color("245"), // Grey
		Process: lipgloss.Color("208"), // Orange
	}

	// LightTheme is optimized for light terminal backgrounds.
	// Uses darker colors for better readability.
	LightTheme = Theme{
		Name:    "light",
		Info:    lipgloss.Color("54"),  // Dark purple
		Warning: lipgloss.Color("130"), // Orange
		Error:   lipgloss.Color("124"), // Dark red
		Success: lipgloss.Color("28"),  // Dark green
		Accent:  lipgloss.Color("27"),  // Dark blue
		Path:    lipgloss.Color("30"),  // Teal
		Dim:     lipgloss.Color("240"), // Dark grey
		Process: lipgloss.Color("166"), // Dark orange
	}

	// OrangeTheme is an orange-dominant dark theme.
	OrangeTheme = Theme{
		Name:    "orange",
		Info:    lipgloss.Color("#FF8C00"),
		Warning: lipgloss.Color("#FFB347"),
		Error:   lipgloss.Color("#FF4444"),
		Success: lipgloss.Color("#9ece6a"),
		Accent:  lipgloss.Color("#4488FF"),
		Path:    lipgloss.Color("#FF6600"),
		Dim:     lipgloss.Color("#666666"),
		Process: lipgloss.Color("#E0E0E0"),
	}

	// NoColorTheme disables all color output.
	// Used when NO_COLOR is set or --no-color flag is provided.
	NoColorTheme = Theme{
		Name:    "none",
		Info:    lipgloss.NoColor{},
		Warning: lipgloss.NoColor{},
		Error:   lipgloss.NoColor{},
		Success: lipgloss.NoColor{},
		Accent:  lipgloss.NoColor{},
		Path:    lipgloss.NoColor{},
		Dim:     lipgloss.NoColor{},
		Process: lipgloss.NoColor{},
	}

	themes = map[string]Theme{
		DarkTheme.Name:    DarkTheme,
		LightTheme.Name:   LightTheme,
		OrangeTheme.Name:  OrangeTheme,
		NoColorTheme.Name: NoColorTheme,
	}

	// currentTheme is the active theme used throughout the application.
	// Defaults to DarkTheme but can be changed via SetTheme or InitTheme.
	currentTheme = DarkTheme
	themeMutex   sync.RWMutex
)

// ThemeNames returns the names accepted by SetTheme, sorted.
func ThemeNames() []string {
	names := make([]string, 0, len(themes))
	for n := range themes {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// LookupTheme returns the theme registered under name.
func LookupTheme(name string) (Theme, bool) {
	t, ok := themes[name]
	return t, ok
}

// GetCurrentTheme returns the currently active theme in a thread-safe manner.
func GetCurrentTheme() Theme {
	themeMutex.RLock()
	defer themeMutex.RUnlock()
	return currentTheme
}

// SetCurrentTheme sets the currently active theme in a thread-safe manner.
// This is primarily used for testing purposes to restore state.
func SetCurrentTheme(t Theme) {
	themeMutex.Lock()
	defer themeMutex.Unlock()
	currentTheme = t
}

// SetTheme changes the active theme by name.
// Valid names are: "dark", "light", "orange", "none".
// Unknown names default to dark theme.
func SetTheme(name string) {
	themeMutex.Lock()
	defer themeMutex.Unlock()

	if t, ok := themes[name]; ok {
		currentTheme = t
		return
	}
	currentTheme = DarkTheme
}

// InitTheme initializes the theme based on the noColor flag and environment.
// It respects the NO_COLOR environment variable (https://no-color.org/) for
// accessibility. If noColor is true or NO_COLOR is set, colors are disabled;
// otherwise the named theme is activated.
func InitTheme(name string, noColor bool) {
	themeMutex.Lock()
	defer themeMutex.Unlock()

	if noColor {
		currentTheme = NoColorTheme
		return
	}

	// Any value, even empty, disables colors (per no-color.org spec)
	if _, exists := os.LookupEnv("NO_COLOR"); exists {
		currentTheme = NoColorTheme
		return
	}

	if t, ok := themes[name]; ok {
		currentTheme = t
		return
	}
	currentTheme = DarkTheme
}

// ColorsEnabled reports whether the active theme produces colour.
func ColorsEnabled() bool {
	return GetCurrentTheme().Name != NoColorTheme.Name
}
