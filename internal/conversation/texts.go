package conversation

import (
	"fmt"
	"strings"

	"github.com/m3rciful/roulettebot/core/chat"
	"github.com/m3rciful/roulettebot/internal/catalog"
)

// Menu commands recognised in text messages.
const (
	CommandFood  = "吃什麼"
	CommandDrink = "喝酒遊戲"
	CommandList  = "料理清單"
	CommandRules = "遊戲規則"
	CommandMenu  = "選單"
)

// Postback payloads attached to the roulette buttons.
const (
	PostbackFoodRoulette  = "action=start_food_roulette"
	PostbackDrinkRoulette = "action=start_drink_roulette"

	actionFoodRoulette  = "start_food_roulette"
	actionDrinkRoulette = "start_drink_roulette"
)

const (
	greetingText = "嗨！我是你的選擇障礙救星 🤖\n\n" +
		"不知道吃什麼？想玩喝酒遊戲？交給我就對了！\n請從下方選單挑一個開始吧～"
	menuPrompt   = "想玩什麼呢？請選擇："
	fallbackText = "抱歉，我看不懂這個指令 😅\n請從下方選單選擇想做的事喔！"

	countdownFormat = "3… 2… 1…\n\n就是你了！\n\n【%s】\n\n現在就傳送你的位置，讓我幫你尋找附近厲害的店家吧！"
	drinkFormat     = "🍻 轉到了：%s"
	ruleFormat      = "\n\n📜 規則：%s"

	listHeader  = "🍽️ 美食輪盤的選項有：\n"
	rulesHeader = "🍻 喝酒輪盤的玩法：\n"

	labelShareLocation = "傳送我的位置 📍"
	labelDrinkAgain    = "再玩一次 🎲"
	labelFoodAgain     = "再轉一次 🎲"
)

var menuActions = []chat.Action{
	chat.MessageAction("🍽️ 吃什麼", CommandFood),
	chat.MessageAction("🍻 喝酒遊戲", CommandDrink),
	chat.MessageAction("📋 料理清單", CommandList),
	chat.MessageAction("📜 遊戲規則", CommandRules),
	chat.MessageAction("🏠 選單", CommandMenu),
}

// MenuActions returns the quick reply options of the main menu.
func MenuActions() []chat.Action {
	return append([]chat.Action(nil), menuActions...)
}

func menuMessage() chat.Menu {
	return chat.Menu{Prompt: menuPrompt, Options: MenuActions()}
}

func fallbackMessage() chat.TextMessage {
	return chat.TextMessage{Text: fallbackText, QuickReplies: MenuActions()}
}

func cardMessage(tpl catalog.CardTemplate, postback string) chat.Card {
	return chat.Card{
		AltText:  tpl.AltText,
		Title:    tpl.Title,
		Body:     tpl.Body,
		ImageURL: tpl.ImageURL,
		Color:    tpl.Color,
		Buttons:  []chat.Action{chat.PostbackAction(tpl.Button, postback)},
	}
}

func categoryListing(cat *catalog.Catalog) chat.TextMessage {
	var b strings.Builder
	b.WriteString(listHeader)
	for i, c := range cat.Categories() {
		fmt.Fprintf(&b, "\n%d. %s", i+1, c.Label)
	}
	return chat.TextMessage{
		Text:         b.String(),
		QuickReplies: []chat.Action{chat.PostbackAction(labelFoodAgain, PostbackFoodRoulette)},
	}
}

func rulesListing(cat *catalog.Catalog) chat.TextMessage {
	var b strings.Builder
	b.WriteString(rulesHeader)
	for _, a := range cat.Actions() {
		b.WriteString("\n• ")
		b.WriteString(a.Name)
		if a.Rule != "" {
			b.WriteString("：")
			b.WriteString(a.Rule)
		}
	}
	return chat.TextMessage{
		Text:         b.String(),
		QuickReplies: []chat.Action{chat.PostbackAction(labelDrinkAgain, PostbackDrinkRoulette)},
	}
}

func foodRollMessage(c catalog.Category) chat.TextMessage {
	return chat.TextMessage{
		Text:         fmt.Sprintf(countdownFormat, c.Label),
		QuickReplies: []chat.Action{chat.LocationAction(labelShareLocation)},
	}
}

func drinkRollMessage(name, rule string) chat.TextMessage {
	text := fmt.Sprintf(drinkFormat, name)
	if rule != "" {
		text += fmt.Sprintf(ruleFormat, rule)
	}
	return chat.TextMessage{
		Text:         text,
		QuickReplies: []chat.Action{chat.PostbackAction(labelDrinkAgain, PostbackDrinkRoulette)},
	}
}
