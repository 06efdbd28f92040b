package models

import (
	"fmt"
	"time"
)

// Sender identifies who produced a transcript message.
type Sender string

const (
	SenderUser Sender = "user"
	SenderAI   Sender = "ai"
)

// String returns the sender name.
func (s Sender) String() string {
	return string(s)
}

// Label returns the display label for the sender.
func (s Sender) Label() string {
	if s == SenderUser {
		return "You"
	}
	return "AI"
}

// Message is one rendered transcript entry. It is never mutated after render.
type Message struct {
	Text      string
	Sender    Sender
	Timestamp string // HH:MM, 24-hour, zero padded
	IsError   bool
}

// FormatClock formats t as a zero-padded 24-hour HH:MM string.
func FormatClock(t time.Time) string {
	return fmt.Sprintf("%02d:%02d", t.Hour(), t.Minute())
}

// ErrorText prefixes an application error for display.
func ErrorText(detail string) string {
	return ErrorPrefix + detail
}

// NetworkErrorText describes a request that never completed.
func NetworkErrorText(detail string) string {
	return NetworkErrorPrefix + detail + NetworkErrorSuffix
}
