package components

import (
	"strings"

	"github.com/Rorical/RoriLog/ui/styles"
)

func RenderStatus(status string, loading bool, loadingDots int, width int) string {
	statusContent := status
	if loading {
		statusContent += strings.Repeat(".", loadingDots)
	}
	return styles.StatusStyle(width).Render(statusContent)
}

func RenderTitle(backend string) string {
	title := "RoriLog"
	if backend != "" {
		title += " · " + backend
	}
	return styles.TitleStyle().Render(title)
}
