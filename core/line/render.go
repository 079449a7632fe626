package line

import (
	"encoding/json"
	"fmt"
	"unicode/utf8"

	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"

	"github.com/m3rciful/roulettebot/core/chat"
)

const (
	maxQuickReplyItems = 13
	maxActionLabel     = 20
	maxAltText         = 400
)

// Render converts transport-neutral messages into Messaging API messages.
func Render(msgs []chat.Message) ([]messaging_api.MessageInterface, error) {
	out := make([]messaging_api.MessageInterface, 0, len(msgs))
	for _, m := range msgs {
		rendered, err := renderMessage(m)
		if err != nil {
			return nil, err
		}
		out = append(out, rendered)
	}
	return out, nil
}

func renderMessage(m chat.Message) (messaging_api.MessageInterface, error) {
	switch msg := m.(type) {
	case chat.TextMessage:
		return &messaging_api.TextMessage{Text: msg.Text, QuickReply: quickReply(msg.QuickReplies)}, nil
	case chat.Menu:
		return &messaging_api.TextMessage{Text: msg.Prompt, QuickReply: quickReply(msg.Options)}, nil
	case chat.Card:
		return renderCard(msg)
	default:
		return nil, fmt.Errorf("line render: unsupported message %T", m)
	}
}

func quickReply(actions []chat.Action) *messaging_api.QuickReply {
	if len(actions) == 0 {
		return nil
	}
	if len(actions) > maxQuickReplyItems {
		actions = actions[:maxQuickReplyItems]
	}
	items := make([]messaging_api.QuickReplyItem, 0, len(actions))
	for _, a := range actions {
		items = append(items, messaging_api.QuickReplyItem{Action: renderAction(a)})
	}
	return &messaging_api.QuickReply{Items: items}
}

func renderAction(a chat.Action) messaging_api.ActionInterface {
	label := truncate(a.Label, maxActionLabel)
	switch a.Kind {
	case chat.ActionPostback:
		return &messaging_api.PostbackAction{Label: label, Data: a.Data, DisplayText: a.Label}
	case chat.ActionLocation:
		return &messaging_api.LocationAction{Label: label}
	default:
		return &messaging_api.MessageAction{Label: label, Text: a.Text}
	}
}

// renderCard builds a flex bubble: hero image, title and body, one button per action.
func renderCard(c chat.Card) (messaging_api.MessageInterface, error) {
	raw, err := json.Marshal(cardBubble(c))
	if err != nil {
		return nil, fmt.Errorf("line render: card: %w", err)
	}
	container, err := messaging_api.UnmarshalFlexContainer(raw)
	if err != nil {
		return nil, fmt.Errorf("line render: card: %w", err)
	}
	alt := c.AltText
	if alt == "" {
		alt = c.Title
	}
	return &messaging_api.FlexMessage{AltText: truncate(alt, maxAltText), Contents: container}, nil
}

type flexNode = map[string]any

func cardBubble(c chat.Card) flexNode {
	bubble := flexNode{"type": "bubble"}
	if c.ImageURL != "" {
		bubble["hero"] = flexNode{
			"type":        "image",
			"url":         c.ImageURL,
			"size":        "full",
			"aspectRatio": "20:13",
			"aspectMode":  "cover",
		}
	}

	contents := []flexNode{}
	if c.Title != "" {
		contents = append(contents, flexNode{"type": "text", "text": c.Title, "weight": "bold", "size": "xl"})
	}
	if c.Body != "" {
		contents = append(contents, flexNode{"type": "text", "text": c.Body, "wrap": true, "margin": "md", "size": "sm", "color": "#666666"})
	}
	bubble["body"] = flexNode{"type": "box", "layout": "vertical", "contents": contents}

	if len(c.Buttons) > 0 {
		buttons := make([]flexNode, 0, len(c.Buttons))
		for _, a := range c.Buttons {
			btn := flexNode{"type": "button", "style": "primary", "height": "sm", "action": actionNode(a)}
			if c.Color != "" {
				btn["color"] = c.Color
			}
			buttons = append(buttons, btn)
		}
		bubble["footer"] = flexNode{"type": "box", "layout": "vertical", "spacing": "sm", "contents": buttons}
	}
	return bubble
}

func actionNode(a chat.Action) flexNode {
	label := truncate(a.Label, maxActionLabel)
	switch a.Kind {
	case chat.ActionPostback:
		return flexNode{"type": "postback", "label": label, "data": a.Data, "displayText": a.Label}
	case chat.ActionLocation:
		return flexNode{"type": "location", "label": label}
	default:
		return flexNode{"type": "message", "label": label, "text": a.Text}
	}
}

func truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	return string([]rune(s)[:limit])
}
