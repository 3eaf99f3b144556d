package update

import (
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Rorical/RoriLog/internal/client"
	"github.com/Rorical/RoriLog/internal/dispatcher"
	"github.com/Rorical/RoriLog/internal/models"
)

// HandleKeyMsg handles keyboard input. Enter submits the field through the
// log client; every other key goes to the text input.
func HandleKeyMsg(appModel *models.AppModel, keyMsg tea.KeyMsg, input *textinput.Model, lc *client.Client) tea.Cmd {
	appModel.Hint = ""

	switch keyMsg.String() {
	case "ctrl+c", "esc":
		return tea.Quit
	case "enter":
		lc.SetInput(input.Value())
		if err := lc.SubmitInput(); err != nil {
			appModel.Hint = err.Error()
			return nil
		}
		input.SetValue(lc.Input())
		return nil
	}

	var cmd tea.Cmd
	*input, cmd = input.Update(keyMsg)
	lc.SetInput(input.Value())
	return cmd
}

// HandleTaskMsg runs work scheduled onto the control thread, such as bridge
// callbacks. The caller must listen for the next task afterwards.
func HandleTaskMsg(task dispatcher.TaskMsg) {
	if task.Run != nil {
		task.Run()
	}
}

type TickMsg time.Time

func TickCmd() tea.Cmd {
	return tea.Tick(500*time.Millisecond, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

func HandleWindowSizeMsg(appModel *models.AppModel, sizeMsg tea.WindowSizeMsg, input *textinput.Model) {
	appModel.Width = sizeMsg.Width
	appModel.Height = sizeMsg.Height
	if w := sizeMsg.Width - 8; w > 0 {
		input.Width = w
	}
}

func HandleTickMsg(appModel *models.AppModel) tea.Cmd {
	// Only handle UI animations - loading dots
	if appModel.Loading {
		appModel.LoadingDots = (appModel.LoadingDots + 1) % 4
	} else {
		appModel.LoadingDots = 0
	}
	return TickCmd()
}

// SyncStatus mirrors the log client's state into the UI model.
func SyncStatus(appModel *models.AppModel, lc *client.Client) {
	appModel.Status = lc.Status()
	appModel.Loading = lc.Busy()
}
