package core

import "context"

type EventKind string

const (
	EventStart EventKind = "start"
	EventMenu  EventKind = "menu"
	EventText  EventKind = "text"
)

type Event struct {
	UserID   string
	Username string
	Kind     EventKind
	// Payload is the menu tag for EventMenu and the message text for EventText.
	Payload string
}

type Button struct {
	Text   string
	Action string
}

type Menu [][]Button

type Message struct {
	UserID string
	Text   string
	Menu   Menu
}

type Messenger interface {
	Send(ctx context.Context, msg *Message) error
}
