package utils

import (
	"io"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"
)

// LogFileName is written next to the config file while the TUI runs.
const LogFileName = "rorilog.log"

// SetupLogging routes slog to w as text records at level.
func SetupLogging(w io.Writer, level slog.Level) {
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
}

// SetupFileLogging sends both slog and the standard logger to path, since
// stdout and stderr belong to the terminal UI. The caller closes the file.
func SetupFileLogging(path string, level slog.Level) (*os.File, error) {
	f, err := tea.LogToFile(path, "rorilog")
	if err != nil {
		return nil, err
	}
	SetupLogging(f, level)
	return f, nil
}
