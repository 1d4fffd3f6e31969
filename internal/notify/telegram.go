package notify

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"inspiration-batch/internal/batch"
)

const maxMessageBytes = 4096

type Options struct {
	Token      string
	ChatID     int64
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Telegram posts run summaries to a single chat.
type Telegram struct {
	bot    *tgbotapi.BotAPI
	chatID int64
	logger *slog.Logger
}

func New(opts Options) (*Telegram, error) {
	if strings.TrimSpace(opts.Token) == "" {
		return nil, errors.New("telegram token is empty")
	}
	if opts.ChatID == 0 {
		return nil, errors.New("telegram chat id is empty")
	}
	if opts.HTTPClient == nil {
		return nil, errors.New("http client is nil")
	}

	bot, err := tgbotapi.NewBotAPIWithClient(opts.Token, tgbotapi.APIEndpoint, opts.HTTPClient)
	if err != nil {
		return nil, err
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Telegram{
		bot:    bot,
		chatID: opts.ChatID,
		logger: logger,
	}, nil
}

// BatchFinished sends the summary of a generation run.
func (t *Telegram) BatchFinished(ctx context.Context, label string, s batch.Summary) error {
	return t.sendText(ctx, FormatSummary(label, s))
}

// Reconciled sends the result of a catalog reconciliation.
func (t *Telegram) Reconciled(ctx context.Context, path string, updated int) error {
	return t.sendText(ctx, fmt.Sprintf("Catalog reconciled\n%s\nUpdated: %d", path, updated))
}

func (t *Telegram) sendText(ctx context.Context, text string) error {
	for _, p := range splitByBytes(text, maxMessageBytes) {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := t.bot.Send(tgbotapi.NewMessage(t.chatID, p)); err != nil {
			return fmt.Errorf("telegram send: %w", err)
		}
	}
	t.logger.Debug("notification sent", "chat_id", t.chatID)
	return nil
}

// FormatSummary renders a run summary. Failed slugs are listed so they can be
// passed back as a retry selection.
func FormatSummary(label string, s batch.Summary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Batch %s finished\n", label)
	fmt.Fprintf(&b, "Success: %d\nSkipped: %d\nFailed: %d", s.Success, s.Skipped, s.Failed)

	var failed []string
	for _, o := range s.Outcomes {
		if o.Status == batch.StatusFailed {
			failed = append(failed, fmt.Sprintf("%d %s", o.ID, o.Slug))
		}
	}
	if len(failed) > 0 {
		b.WriteString("\n\nFailed:\n")
		b.WriteString(strings.Join(failed, "\n"))
	}
	if s.LedgerPath != "" {
		fmt.Fprintf(&b, "\n\nLedger: %s", s.LedgerPath)
	}
	return b.String()
}

func splitByBytes(text string, maxBytes int) []string {
	if len(text) <= maxBytes || maxBytes <= 0 {
		return []string{text}
	}

	var out []string
	var buf strings.Builder
	buf.Grow(maxBytes)

	for _, r := range text {
		runeBytes := utf8.RuneLen(r)
		if runeBytes < 0 {
			runeBytes = len(string(r))
		}

		if buf.Len() > 0 && buf.Len()+runeBytes > maxBytes {
			out = append(out, buf.String())
			buf.Reset()
		}
		buf.WriteRune(r)
	}

	if buf.Len() > 0 {
		out = append(out, buf.String())
	}

	return out
}
