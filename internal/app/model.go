package app

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Rorical/RoriLog/internal/dispatcher"
	"github.com/Rorical/RoriLog/internal/update"
	"github.com/Rorical/RoriLog/ui/components"
)

func (m *AppModel) Init() tea.Cmd {
	return tea.Batch(
		textinput.Blink,
		update.TickCmd(),
		m.dispatcher.ListenForUIEvents(),
	)
}

func (m *AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	cmd := update.HandleUpdate(&m.appModel, msg, &m.input, m.client)

	// Scheduled work was just run; wait for the next task
	if _, ok := msg.(dispatcher.TaskMsg); ok {
		return m, tea.Batch(cmd, m.dispatcher.ListenForUIEvents())
	}
	return m, cmd
}

func (m *AppModel) View() string {
	var b strings.Builder

	b.WriteString(components.RenderTitle(m.appModel.BackendName))
	b.WriteString("\n\n")
	b.WriteString(m.client.View())
	b.WriteString("\n\n")
	b.WriteString(components.RenderInput(m.input.View(), m.appModel.Width))
	b.WriteString("\n")
	b.WriteString(components.RenderStatus(m.appModel.StatusLine(), m.appModel.Loading, m.appModel.LoadingDots, m.appModel.Width))

	return b.String()
}
