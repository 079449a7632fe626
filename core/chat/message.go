package chat

import "strings"

// ActionKind selects what a quick reply or button does when tapped.
type ActionKind int

const (
	// ActionMessage sends Text back as if the user typed it.
	ActionMessage ActionKind = iota
	// ActionPostback sends Data back as a postback event.
	ActionPostback
	// ActionLocation asks the client to share the user's location.
	ActionLocation
)

// Action is a tappable option attached to a message.
type Action struct {
	Kind  ActionKind
	Label string
	// Text is sent for ActionMessage.
	Text string
	// Data is sent for ActionPostback.
	Data string
}

// MessageAction returns an action that sends text.
func MessageAction(label, text string) Action {
	return Action{Kind: ActionMessage, Label: label, Text: text}
}

// PostbackAction returns an action that sends postback data.
func PostbackAction(label, data string) Action {
	return Action{Kind: ActionPostback, Label: label, Data: data}
}

// LocationAction returns an action that requests the user's location.
func LocationAction(label string) Action {
	return Action{Kind: ActionLocation, Label: label}
}

// Message is an outbound message. Implementations: TextMessage, Menu, Card.
type Message interface {
	// Summary returns a short plain-text rendering used for logs and text-only transports.
	Summary() string
	isMessage()
}

// TextMessage is plain text with optional quick replies.
type TextMessage struct {
	Text         string
	QuickReplies []Action
}

// Menu is a choice menu: a prompt followed by selectable options.
type Menu struct {
	Prompt  string
	Options []Action
}

// Card is an interactive card built from a declarative template.
type Card struct {
	AltText  string
	Title    string
	Body     string
	ImageURL string
	// Color is the accent colour of the buttons, "#RRGGBB".
	Color   string
	Buttons []Action
}

func (m TextMessage) Summary() string { return m.Text }
func (m Menu) Summary() string        { return m.Prompt }

func (m Card) Summary() string {
	parts := make([]string, 0, 2)
	if m.Title != "" {
		parts = append(parts, m.Title)
	}
	if m.Body != "" {
		parts = append(parts, m.Body)
	}
	if len(parts) == 0 {
		return m.AltText
	}
	return strings.Join(parts, "\n")
}

func (TextMessage) isMessage() {}
func (Menu) isMessage()        {}
func (Card) isMessage()        {}

// Reply carries the messages answering exactly one inbound event.
type Reply struct {
	ReplyToken string
	UserID     string
	Messages   []Message
}

// Empty reports whether there is nothing to send.
func (r Reply) Empty() bool { return len(r.Messages) == 0 }

// ReplyTo starts a reply bound to the event's reply handle.
func ReplyTo(ev Event, msgs ...Message) Reply {
	src := ev.EventSource()
	return Reply{ReplyToken: src.ReplyToken, UserID: src.UserID, Messages: msgs}
}
