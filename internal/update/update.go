package update

import (
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Rorical/RoriLog/internal/client"
	"github.com/Rorical/RoriLog/internal/dispatcher"
	"github.com/Rorical/RoriLog/internal/models"
)

func HandleUpdate(appModel *models.AppModel, msg tea.Msg, input *textinput.Model, lc *client.Client) tea.Cmd {
	var cmd tea.Cmd
	switch msg := msg.(type) {
	case tea.KeyMsg:
		cmd = HandleKeyMsg(appModel, msg, input, lc)
	case tea.WindowSizeMsg:
		HandleWindowSizeMsg(appModel, msg, input)
	case TickMsg:
		cmd = HandleTickMsg(appModel)
	case dispatcher.TaskMsg:
		HandleTaskMsg(msg)
	default:
		*input, cmd = input.Update(msg)
	}
	SyncStatus(appModel, lc)
	return cmd
}
