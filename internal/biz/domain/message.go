package domain

import "time"

// Message represents a chat message event
type Message struct {
	EventID   string
	RoomID    string
	Sender    string
	Body      string
	MsgType   string // m.text, m.image, ...
	Timestamp time.Time
}

// IsFrom checks if the message was sent by the given user
func (m *Message) IsFrom(userID string) bool {
	return m.Sender == userID
}

// IsAfter checks if the message is after the specified time
func (m *Message) IsAfter(t time.Time) bool {
	return m.Timestamp.After(t)
}
