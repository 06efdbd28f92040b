package chat

import (
	"time"

	"github.com/charmbracelet/x/ansi"

	"github.com/diogo/aichat/internal/models"
)

// PlaceholderID identifies a loading placeholder. IDs increase monotonically
// per transcript and are never reused.
type PlaceholderID uint64

// EntryKind distinguishes transcript slots.
type EntryKind int

const (
	EntryMessage EntryKind = iota
	EntryLoading
)

// Entry is one transcript slot: a rendered message or a loading placeholder.
type Entry struct {
	Kind        EntryKind
	Message     models.Message
	Placeholder PlaceholderID
}

// Transcript is the ordered, append-only conversation view. Only loading
// placeholders are ever removed from it.
type Transcript struct {
	entries  []Entry
	welcome  bool
	lastID   PlaceholderID
	revision uint64
	scroll   bool
	clock    func() time.Time
}

// NewTranscript returns an empty transcript showing the welcome panel.
// A nil clock uses time.Now.
func NewTranscript(clock func() time.Time) *Transcript {
	if clock == nil {
		clock = time.Now
	}
	return &Transcript{welcome: true, clock: clock}
}

// Render appends a message stamped with the current wall-clock time and
// hides the welcome panel. Terminal control sequences in text are stripped
// so the text is always shown literally.
func (t *Transcript) Render(text string, sender models.Sender, isError bool) models.Message {
	t.welcome = false

	msg := models.Message{
		Text:      ansi.Strip(text),
		Sender:    sender,
		Timestamp: models.FormatClock(t.clock()),
		IsError:   isError,
	}
	t.entries = append(t.entries, Entry{Kind: EntryMessage, Message: msg})
	t.touch()
	return msg
}

// ShowLoading appends a placeholder and returns its id.
func (t *Transcript) ShowLoading() PlaceholderID {
	t.lastID++
	t.entries = append(t.entries, Entry{Kind: EntryLoading, Placeholder: t.lastID})
	t.touch()
	return t.lastID
}

// RemoveLoading removes the placeholder with id. It reports whether one was
// removed; removing an absent id is a no-op.
func (t *Transcript) RemoveLoading(id PlaceholderID) bool {
	for i, e := range t.entries {
		if e.Kind == EntryLoading && e.Placeholder == id {
			t.entries = append(t.entries[:i], t.entries[i+1:]...)
			t.revision++
			return true
		}
	}
	return false
}

// HasLoading reports whether the placeholder with id is present.
func (t *Transcript) HasLoading(id PlaceholderID) bool {
	for _, e := range t.entries {
		if e.Kind == EntryLoading && e.Placeholder == id {
			return true
		}
	}
	return false
}

// Welcome reports whether the welcome panel is still shown.
func (t *Transcript) Welcome() bool {
	return t.welcome
}

// Entries returns a copy of the transcript slots.
func (t *Transcript) Entries() []Entry {
	return append([]Entry(nil), t.entries...)
}

// Messages returns the rendered messages in order, skipping placeholders.
func (t *Transcript) Messages() []models.Message {
	msgs := make([]models.Message, 0, len(t.entries))
	for _, e := range t.entries {
		if e.Kind == EntryMessage {
			msgs = append(msgs, e.Message)
		}
	}
	return msgs
}

// Len returns the number of slots, placeholders included.
func (t *Transcript) Len() int {
	return len(t.entries)
}

// Revision changes every time the transcript changes.
func (t *Transcript) Revision() uint64 {
	return t.revision
}

// TakeScroll reports whether the view should scroll to the newest entry and
// clears the request.
func (t *Transcript) TakeScroll() bool {
	s := t.scroll
	t.scroll = false
	return s
}

func (t *Transcript) touch() {
	t.revision++
	t.scroll = true
}
