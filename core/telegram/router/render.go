package router

import (
	"fmt"
	"unicode/utf8"

	"github.com/m3rciful/roulettebot/core/chat"
	"github.com/m3rciful/roulettebot/core/telegram/keyboard"

	tele "gopkg.in/telebot.v4"
)

// maxCaption is Telegram's photo caption limit in characters.
const maxCaption = 1024

type outgoing struct {
	// What is a string or *tele.Photo.
	What   any
	Markup *tele.ReplyMarkup
}

func (o outgoing) opts() []any {
	if o.Markup == nil {
		return nil
	}
	return []any{o.Markup}
}

func (o outgoing) endpoint() string {
	if _, ok := o.What.(*tele.Photo); ok {
		return "sendPhoto"
	}
	return "sendMessage"
}

// Render converts a chat message into what telebot sends. Cards with an image
// become a captioned photo; everything else is text with an optional keyboard.
func Render(m chat.Message) (outgoing, error) {
	switch msg := m.(type) {
	case chat.TextMessage:
		return outgoing{What: msg.Text, Markup: keyboard.ForActions(msg.QuickReplies)}, nil
	case chat.Menu:
		return outgoing{What: msg.Prompt, Markup: keyboard.ForActions(msg.Options)}, nil
	case chat.Card:
		markup := keyboard.ForActions(msg.Buttons)
		if msg.ImageURL == "" {
			return outgoing{What: msg.Summary(), Markup: markup}, nil
		}
		return outgoing{
			What: &tele.Photo{
				File:    tele.FromURL(msg.ImageURL),
				Caption: truncate(msg.Summary(), maxCaption),
			},
			Markup: markup,
		}, nil
	default:
		return outgoing{}, fmt.Errorf("telegram render: unsupported message %T", m)
	}
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n-1]) + "…"
}
