package components

import (
	"strings"

	"github.com/Rorical/RoriLog/internal/models"
	"github.com/Rorical/RoriLog/ui/styles"
)

const EmptyLogText = "No entries yet."

// RenderEntries draws the log one entry per line. Pending entries carry a
// saving marker and errored ones their message.
func RenderEntries(entries []models.Entry) string {
	if len(entries) == 0 {
		return styles.EmptyStyle().Render(EmptyLogText)
	}

	committedStyle := styles.CommittedStyle()
	pendingStyle := styles.PendingStyle()
	errorStyle := styles.ErrorStyle()

	lines := make([]string, 0, len(entries))
	for _, e := range entries {
		switch e.Status {
		case models.Pending:
			lines = append(lines, pendingStyle.Render("○ "+e.Text+" (saving)"))
		case models.Error:
			lines = append(lines, errorStyle.Render("✗ "+e.Text+" ["+e.ErrorMessage+"]"))
		default:
			lines = append(lines, committedStyle.Render("• "+e.Text))
		}
	}
	return strings.Join(lines, "\n")
}
