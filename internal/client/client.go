package client

import (
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/Rorical/RoriLog/internal/bridge"
	"github.com/Rorical/RoriLog/internal/models"
	"github.com/Rorical/RoriLog/internal/store"
	"github.com/Rorical/RoriLog/ui/components"
)

const (
	StatusReady   = "Ready"
	StatusLoading = "Loading entries"
	StatusSaving  = "Saving"
)

// Client owns the view state of the log: the committed entries last
// reported by the backend followed by the submissions still in flight or
// failed. It is not safe for concurrent use; every method, and every
// bridge callback, runs on the host's control thread.
type Client struct {
	bridge bridge.Bridge

	entries []models.Entry
	// committedLen is the length of the canonical prefix of entries.
	committedLen int
	// inFlight keeps the text of unresolved submissions by token so a
	// failure can be shown even after Render dropped its entry.
	inFlight map[string]string
	// commits counts applied successes; a load that sees it move is older
	// than the view.
	commits int

	input   string
	loading bool
	notice  string
}

func New(b bridge.Bridge) *Client {
	return &Client{
		bridge:   b,
		inFlight: make(map[string]string),
	}
}

func (c *Client) SetInput(s string) {
	c.input = s
}

func (c *Client) Input() string {
	return c.input
}

// SubmitInput submits the current input field.
func (c *Client) SubmitInput() error {
	return c.Submit(c.input)
}

// Submit shows text as pending, clears the input field and hands it to the
// bridge. Blank text is refused with store.ErrTextRequired and changes
// nothing.
func (c *Client) Submit(raw string) error {
	text := strings.TrimSpace(raw)
	if text == "" {
		return store.ErrTextRequired
	}

	token := uuid.NewString()
	c.entries = append(c.entries, models.Entry{Text: text, Status: models.Pending, Token: token})
	c.inFlight[token] = text
	c.input = ""

	bridge.Run(c.bridge).
		WithSuccessHandler(func(entries []string) { c.commit(token, entries) }).
		WithFailureHandler(func(message string) { c.fail(token, message) }).
		SaveText(text)
	return nil
}

// Render replaces the whole view with committed texts. Pending and errored
// entries are dropped.
func (c *Client) Render(texts []string) {
	c.entries = models.CommittedEntries(texts)
	c.committedLen = len(texts)
	c.notice = ""
}

// Load fetches the log once. Submissions made before the answer arrives
// stay visible after the committed entries. If a submission committed while
// the read was in flight, a shorter answer is ignored.
func (c *Client) Load() {
	c.loading = true
	seen := c.commits
	bridge.Run(c.bridge).
		WithSuccessHandler(func(entries []string) {
			c.loading = false
			c.reconcile("", entries, c.commits == seen)
		}).
		WithFailureHandler(func(message string) {
			c.loading = false
			c.notice = message
			slog.Warn("loading entries failed", "message", message)
		}).
		GetEntries()
}

func (c *Client) commit(token string, canonical []string) {
	delete(c.inFlight, token)
	c.notice = ""
	c.commits++
	c.reconcile(token, canonical, false)
}

// reconcile swaps the canonical prefix for canonical and removes the entry
// for token from the optimistic tail. Unless authoritative, a canonical list
// shorter than the one already applied is older than the view and leaves
// the prefix alone.
func (c *Client) reconcile(token string, canonical []string, authoritative bool) {
	tail := make([]models.Entry, 0, len(c.entries)-c.committedLen)
	for _, e := range c.entries[c.committedLen:] {
		if token != "" && e.Token == token {
			continue
		}
		tail = append(tail, e)
	}

	if !authoritative && len(canonical) < c.committedLen {
		slog.Debug("stale entry list", "have", c.committedLen, "got", len(canonical))
		c.entries = append(c.entries[:c.committedLen:c.committedLen], tail...)
		return
	}
	c.entries = append(models.CommittedEntries(canonical), tail...)
	c.committedLen = len(canonical)
}

func (c *Client) fail(token, message string) {
	text, known := c.inFlight[token]
	delete(c.inFlight, token)
	c.notice = message
	slog.Warn("submission failed", "message", message)

	for i := c.committedLen; i < len(c.entries); i++ {
		if c.entries[i].Token == token {
			c.entries[i].Status = models.Error
			c.entries[i].ErrorMessage = message
			return
		}
	}
	if known {
		c.entries = append(c.entries, models.Entry{
			Text:         text,
			Status:       models.Error,
			ErrorMessage: message,
			Token:        token,
		})
	}
}

// Entries returns a copy of the view state.
func (c *Client) Entries() []models.Entry {
	out := make([]models.Entry, len(c.entries))
	copy(out, c.entries)
	return out
}

func (c *Client) PendingCount() int {
	n := 0
	for _, e := range c.entries {
		if e.Status == models.Pending {
			n++
		}
	}
	return n
}

// Busy reports whether a load or a submission is still unresolved.
func (c *Client) Busy() bool {
	return c.loading || c.PendingCount() > 0
}

// Status is the line shown in the status bar: the latest failure if there
// is one, otherwise what the client is waiting for.
func (c *Client) Status() string {
	switch {
	case c.notice != "":
		return c.notice
	case c.loading:
		return StatusLoading
	case c.PendingCount() > 0:
		return StatusSaving
	default:
		return StatusReady
	}
}

func (c *Client) View() string {
	return components.RenderEntries(c.entries)
}
