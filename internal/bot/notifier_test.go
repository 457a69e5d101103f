package bot

import (
	"strings"
	"testing"
	"time"

	"market-mood/internal/domain"

	tele "gopkg.in/telebot.v3"
)

type senderStub struct {
	to   tele.Recipient
	text string
}

func (s *senderStub) Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error) {
	s.to = to
	s.text, _ = what.(string)
	return &tele.Message{}, nil
}

func TestNewTelegramNotifierWithoutCredentials(t *testing.T) {
	if n := NewTelegramNotifier("", 12345); n != nil {
		t.Fatal("expected nil notifier without token")
	}
	if n := NewTelegramNotifier("token", 0); n != nil {
		t.Fatal("expected nil notifier without chat id")
	}
}

func TestNotifyRunSendsSummary(t *testing.T) {
	stub := &senderStub{}
	n := &TelegramNotifier{bot: stub, chat: tele.ChatID(42)}

	n.NotifyRun(domain.RunResult{
		StartedAt:        time.Date(2026, 1, 6, 8, 0, 0, 0, time.UTC),
		Candles:          2,
		CandlesInserted:  1,
		Readings:         5,
		ReadingsInserted: 5,
	})

	if stub.to != tele.ChatID(42) {
		t.Fatalf("sent to wrong recipient: %v", stub.to)
	}
	if !strings.Contains(stub.text, "2 fetched, 1 inserted") {
		t.Fatalf("candle counts missing from report: %q", stub.text)
	}
	if strings.Contains(stub.text, "errors") {
		t.Fatalf("clean run reported as failed: %q", stub.text)
	}
}

func TestNotifyRunIncludesStageErrors(t *testing.T) {
	stub := &senderStub{}
	n := &TelegramNotifier{bot: stub, chat: tele.ChatID(42)}

	n.NotifyRun(domain.RunResult{
		Stages: []domain.StageResult{
			{Stage: domain.StageFetchNews, Err: "feed unreachable"},
		},
	})

	if !strings.Contains(stub.text, "finished with errors") {
		t.Fatalf("failed run not flagged: %q", stub.text)
	}
	if !strings.Contains(stub.text, "fetch_news: feed unreachable") {
		t.Fatalf("stage error missing from report: %q", stub.text)
	}
}
