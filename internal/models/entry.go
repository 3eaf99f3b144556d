package models

type EntryStatus int

const (
	Pending EntryStatus = iota
	Committed
	Error
)

func (s EntryStatus) String() string {
	switch s {
	case Pending:
		return "pending"
	case Committed:
		return "committed"
	case Error:
		return "error"
	default:
		return "unknown"
	}
}

type Entry struct {
	Text         string
	Status       EntryStatus
	ErrorMessage string // Only set when Status is Error
	Token        string // Submission token while the entry is optimistic
}

// CommittedEntries wraps texts as committed entries, in order.
func CommittedEntries(texts []string) []Entry {
	out := make([]Entry, 0, len(texts))
	for _, t := range texts {
		out = append(out, Entry{Text: t, Status: Committed})
	}
	return out
}
