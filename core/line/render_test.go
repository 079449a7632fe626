package line

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"

	"github.com/m3rciful/roulettebot/core/chat"
)

func TestRenderText(t *testing.T) {
	msgs, err := Render([]chat.Message{chat.TextMessage{
		Text: "3… 2… 1…",
		QuickReplies: []chat.Action{
			chat.LocationAction("傳送我的位置 📍"),
			chat.PostbackAction("再轉一次 🎲", "action=start_food_roulette"),
			chat.MessageAction("選單", "選單"),
		},
	}})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	text, ok := msgs[0].(*messaging_api.TextMessage)
	if !ok {
		t.Fatalf("got %T", msgs[0])
	}
	if text.Text != "3… 2… 1…" || len(text.QuickReply.Items) != 3 {
		t.Fatalf("text = %+v", text)
	}
	if _, ok := text.QuickReply.Items[0].Action.(*messaging_api.LocationAction); !ok {
		t.Fatalf("item 0 = %T", text.QuickReply.Items[0].Action)
	}
	pb, ok := text.QuickReply.Items[1].Action.(*messaging_api.PostbackAction)
	if !ok || pb.Data != "action=start_food_roulette" {
		t.Fatalf("item 1 = %#v", text.QuickReply.Items[1].Action)
	}
}

func TestRenderCard(t *testing.T) {
	msgs, err := Render([]chat.Message{chat.Card{
		AltText:  "吃飯選擇障礙輪盤Go",
		Title:    "來看看吃什麼？",
		Body:     "讓命運來決定吧！",
		ImageURL: "https://example.com/a.jpg",
		Color:    "#FF6B6B",
		Buttons:  []chat.Action{chat.PostbackAction("吃飯選擇障礙輪盤Go！🎲", "action=start_food_roulette")},
	}})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	flex, ok := msgs[0].(*messaging_api.FlexMessage)
	if !ok {
		t.Fatalf("got %T", msgs[0])
	}
	if flex.AltText != "吃飯選擇障礙輪盤Go" || flex.Contents == nil {
		t.Fatalf("flex = %+v", flex)
	}
	raw, err := json.Marshal(cardBubble(chat.Card{Title: "t", Color: "#000000", Buttons: []chat.Action{chat.PostbackAction("b", "d")}}))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	for _, want := range []string{`"type":"bubble"`, `"type":"postback"`, `"data":"d"`, `"color":"#000000"`} {
		if !strings.Contains(string(raw), want) {
			t.Fatalf("bubble json %s misses %s", raw, want)
		}
	}
}

func TestTruncateCountsRunes(t *testing.T) {
	if got := truncate("一二三四五", 3); got != "一二三" {
		t.Fatalf("truncate = %q", got)
	}
	if got := truncate("abc", 20); got != "abc" {
		t.Fatalf("truncate = %q", got)
	}
}
