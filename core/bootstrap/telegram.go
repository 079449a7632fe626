package bootstrap

import (
	coretelegram "github.com/m3rciful/roulettebot/core/telegram"
	"github.com/m3rciful/roulettebot/internal/conversation"
)

// TelegramCommands maps the Telegram slash commands onto the menu commands.
func TelegramCommands() *coretelegram.Registry {
	reg := coretelegram.NewRegistry()
	reg.RegisterCommand(coretelegram.StartCommand, coretelegram.Command{Description: "開始", Hidden: true})
	reg.RegisterCommand("/food", coretelegram.Command{Description: "美食輪盤：今天吃什麼", Text: conversation.CommandFood, Aliases: []string{"/eat"}})
	reg.RegisterCommand("/drink", coretelegram.Command{Description: "喝酒輪盤", Text: conversation.CommandDrink})
	reg.RegisterCommand("/list", coretelegram.Command{Description: "料理清單", Text: conversation.CommandList})
	reg.RegisterCommand("/rules", coretelegram.Command{Description: "遊戲規則", Text: conversation.CommandRules})
	reg.RegisterCommand("/menu", coretelegram.Command{Description: "主選單", Text: conversation.CommandMenu})
	return reg
}
