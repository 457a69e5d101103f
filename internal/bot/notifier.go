package bot

import (
	"fmt"
	"log"
	"strings"
	"time"

	"market-mood/internal/domain"

	tele "gopkg.in/telebot.v3"
)

// sender is the slice of the telebot API the notifier needs.
type sender interface {
	Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error)
}

// TelegramNotifier pushes a one-way summary of each ingestion run to a
// single chat. It registers no command handlers and does not poll.
type TelegramNotifier struct {
	bot  sender
	chat tele.Recipient
}

// NewTelegramNotifier returns nil when token or chatID is unset, so the
// caller can wire it unconditionally and let the job skip notification.
func NewTelegramNotifier(token string, chatID int64) *TelegramNotifier {
	if token == "" || chatID == 0 {
		log.Println("telegram credentials not set, skipping run notifications")
		return nil
	}
	b, err := tele.NewBot(tele.Settings{Token: token})
	if err != nil {
		log.Printf("failed to create Telegram bot: %v", err)
		return nil
	}
	return &TelegramNotifier{bot: b, chat: tele.ChatID(chatID)}
}

func (n *TelegramNotifier) NotifyRun(result domain.RunResult) {
	if _, err := n.bot.Send(n.chat, formatRunReport(result)); err != nil {
		log.Printf("failed to send run report: %v", err)
	}
}

func formatRunReport(result domain.RunResult) string {
	var b strings.Builder
	if result.Failed() {
		b.WriteString("Market mood run finished with errors\n")
	} else {
		b.WriteString("Market mood run finished\n")
	}
	fmt.Fprintf(&b, "Started: %s\n", result.StartedAt.UTC().Format(time.RFC3339))
	fmt.Fprintf(&b, "Candles: %d fetched, %d inserted\n", result.Candles, result.CandlesInserted)
	fmt.Fprintf(&b, "Fear/greed: %d fetched, %d inserted\n", result.Readings, result.ReadingsInserted)
	fmt.Fprintf(&b, "Articles: %d fetched, %d inserted", result.Articles, result.ArticlesInserted)
	for _, stageErr := range result.StageErrors() {
		b.WriteString("\n⚠ " + stageErr)
	}
	return b.String()
}
