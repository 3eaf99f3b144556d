package models

// AppModel represents the UI state - only local UI concerns. Entries live in
// the log client, which is the single source of truth for the list.
type AppModel struct {
	Status      string // Status bar text, mirrored from the log client
	Hint        string // One-shot message that overrides Status until the next key
	Loading     bool   // Whether a load or submission is unresolved
	LoadingDots int    // Animation counter for loading dots
	Width       int    // Terminal width
	Height      int    // Terminal height
	BackendName string // Storage backend shown in the title
}

// StatusLine is the text the status bar shows.
func (m AppModel) StatusLine() string {
	if m.Hint != "" {
		return m.Hint
	}
	return m.Status
}
