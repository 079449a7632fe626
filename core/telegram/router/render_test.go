package router

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/m3rciful/roulettebot/core/chat"

	tele "gopkg.in/telebot.v4"
)

func TestRenderText(t *testing.T) {
	o, err := Render(chat.TextMessage{Text: "hi", QuickReplies: []chat.Action{chat.LocationAction("loc")}})
	if err != nil {
		t.Fatal(err)
	}
	if o.What != "hi" || o.Markup == nil || !o.Markup.ReplyKeyboard[0][0].Location {
		t.Fatalf("got %+v", o)
	}
	if o.endpoint() != "sendMessage" {
		t.Fatalf("endpoint = %s", o.endpoint())
	}
}

func TestRenderCard(t *testing.T) {
	card := chat.Card{
		Title:    "美食輪盤",
		Body:     "轉一下",
		ImageURL: "https://example.com/food.png",
		Buttons:  []chat.Action{chat.PostbackAction("開始", "action=start_food_roulette")},
	}
	o, err := Render(card)
	if err != nil {
		t.Fatal(err)
	}
	photo, ok := o.What.(*tele.Photo)
	if !ok {
		t.Fatalf("card with image must be a photo, got %T", o.What)
	}
	if photo.Caption != "美食輪盤\n轉一下" || photo.FileURL != card.ImageURL {
		t.Fatalf("photo = %+v", photo)
	}
	if len(o.Markup.InlineKeyboard) != 1 || o.endpoint() != "sendPhoto" {
		t.Fatalf("markup = %+v", o.Markup)
	}

	card.ImageURL = ""
	o, _ = Render(card)
	if o.What != "美食輪盤\n轉一下" {
		t.Fatalf("card without image = %+v", o.What)
	}
}

func TestTruncateCaption(t *testing.T) {
	long := strings.Repeat("字", maxCaption+10)
	got := truncate(long, maxCaption)
	if utf8.RuneCountInString(got) != maxCaption || !strings.HasSuffix(got, "…") {
		t.Fatalf("truncate produced %d runes", utf8.RuneCountInString(got))
	}
	if truncate("short", maxCaption) != "short" {
		t.Fatal("short text changed")
	}
}
