package notify

import (
	"fmt"
	"log"
	"strings"

	tgbotapi "github.com/OvyFlash/telegram-bot-api"

	"github.com/jovjrx/frota360-demo-sub005/internal/models"
)

// BotClient wraps the Telegram Bot API for the operations channel.
type BotClient struct {
	api *tgbotapi.BotAPI
}

// NewBotClient authorizes the bot with the given token. An empty token is an
// error; callers decide whether to run without Telegram notifications.
func NewBotClient(token string, debug bool) (*BotClient, error) {
	if token == "" {
		return nil, fmt.Errorf("telegram API token not provided")
	}
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Telegram Bot API: %w", err)
	}
	api.Debug = debug
	log.Printf("Authorized on Telegram as %s", api.Self.UserName)
	return &BotClient{api: api}, nil
}

// SendMessage sends a plain text message to a chat.
func (c *BotClient) SendMessage(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := c.api.Send(msg); err != nil {
		return fmt.Errorf("failed to send Telegram message to chat %d: %w", chatID, err)
	}
	return nil
}

// OpsNotifier posts run outcomes to the operations Telegram chat.
// Delivery is best effort; failures are logged and swallowed.
type OpsNotifier struct {
	Client *BotClient
	ChatID int64
}

func (n *OpsNotifier) NotifyRunCompleted(summary models.RunSummary) {
	if n.Client == nil || n.ChatID == 0 {
		return
	}
	var b strings.Builder
	status := "✅"
	if !summary.Success {
		status = "⚠️"
	}
	fmt.Fprintf(&b, "%s Week %s settlement run %s\n", status, summary.WeekID, summary.RunID)
	fmt.Fprintf(&b, "Drivers settled: %d\n", summary.DriversProcessed)
	fmt.Fprintf(&b, "Bonus payouts: %d\n", summary.BonusesComputed)
	if summary.UnmappedRows > 0 {
		fmt.Fprintf(&b, "Unmapped rows: %d\n", summary.UnmappedRows)
	}
	for _, e := range summary.Errors {
		fmt.Fprintf(&b, "Error: %s\n", e)
	}
	if err := n.Client.SendMessage(n.ChatID, b.String()); err != nil {
		log.Printf("NotifyRunCompleted: %v", err)
	}
}
