package keyboard

import (
	"strings"

	"github.com/m3rciful/roulettebot/core/chat"

	tele "gopkg.in/telebot.v4"
)

// PostbackUnique is the callback unique carried by every postback button.
const PostbackUnique = "pb"

// maxCallbackData is Telegram's limit on callback_data, unique prefix included.
const maxCallbackData = 64

// PostbackButton returns the route endpoint matching postback buttons.
func PostbackButton() *tele.Btn {
	return &tele.Btn{Unique: PostbackUnique}
}

// SplitCallback returns the button unique and payload of a callback.
// Telebot fills Unique only when a matching *tele.Btn route exists, so the
// raw "\f<unique>|<payload>" form is decoded here as well.
func SplitCallback(cb *tele.Callback) (unique, payload string) {
	if cb == nil {
		return "", ""
	}
	if cb.Unique != "" {
		return cb.Unique, cb.Data
	}
	raw, ok := strings.CutPrefix(cb.Data, "\f")
	if !ok {
		return "", cb.Data
	}
	unique, payload, _ = strings.Cut(raw, "|")
	return unique, payload
}

// RemoveKeyboard returns a markup that hides the keyboard.
func RemoveKeyboard() *tele.ReplyMarkup {
	return &tele.ReplyMarkup{RemoveKeyboard: true}
}

// ForActions renders chat actions as a keyboard. Lists made only of postbacks
// become an inline keyboard, one button per row; any other list becomes a
// one-time reply keyboard, two buttons per row. Returns nil for no actions.
func ForActions(actions []chat.Action) *tele.ReplyMarkup {
	if len(actions) == 0 {
		return nil
	}
	if allPostbacks(actions) {
		return inline(actions)
	}
	return reply(actions)
}

func allPostbacks(actions []chat.Action) bool {
	for _, a := range actions {
		if a.Kind != chat.ActionPostback {
			return false
		}
	}
	return true
}

func inline(actions []chat.Action) *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{}
	rows := make([]tele.Row, 0, len(actions))
	for _, a := range actions {
		data := a.Data
		if limit := maxCallbackData - len(PostbackUnique) - 2; len(data) > limit {
			data = data[:limit]
		}
		rows = append(rows, markup.Row(markup.Data(a.Label, PostbackUnique, data)))
	}
	markup.Inline(rows...)
	return markup
}

func reply(actions []chat.Action) *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{ResizeKeyboard: true, OneTimeKeyboard: true}
	buttons := make([]tele.Btn, 0, len(actions))
	for _, a := range actions {
		switch a.Kind {
		case chat.ActionLocation:
			buttons = append(buttons, markup.Location(a.Label))
		case chat.ActionMessage:
			buttons = append(buttons, markup.Text(a.Text))
		default:
			// Reply keyboards cannot carry postback data; the label is sent as text.
			buttons = append(buttons, markup.Text(a.Label))
		}
	}
	markup.Reply(markup.Split(2, buttons)...)
	return markup
}
