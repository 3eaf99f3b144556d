package components

import (
	"github.com/Rorical/RoriLog/ui/styles"
)

// RenderInput frames the text field view produced by bubbles/textinput.
func RenderInput(field string, width int) string {
	return styles.InputStyle(width).Render(field)
}
