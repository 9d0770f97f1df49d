// Package telegram broadcasts danger predictions to a Telegram chat.
package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/couchcryptid/rainfall-ews/internal/config"
	"github.com/couchcryptid/rainfall-ews/internal/domain"
	"github.com/couchcryptid/rainfall-ews/internal/notify"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// SinkName identifies the Telegram sink in logs and metrics.
const SinkName = "telegram"

// Notifier sends a plain-text warning for every danger prediction.
// It implements notify.Sink.
type Notifier struct {
	bot    *tgbotapi.BotAPI
	chatID int64
	logger *slog.Logger
}

type options struct {
	endpoint string
	client   *http.Client
}

// Option configures a Notifier.
type Option func(*options)

// WithAPIEndpoint overrides the Bot API endpoint format, e.g. for a local
// Bot API server. The format takes the token and the method name.
func WithAPIEndpoint(endpoint string) Option {
	return func(o *options) { o.endpoint = endpoint }
}

// WithHTTPClient sets the HTTP client used for Bot API calls.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) { o.client = c }
}

// NewNotifier authenticates the bot (getMe) and returns a Notifier for the
// configured chat.
func NewNotifier(cfg *config.Config, logger *slog.Logger, opts ...Option) (*Notifier, error) {
	o := options{
		endpoint: tgbotapi.APIEndpoint,
		client:   &http.Client{Timeout: cfg.AlertTimeout},
	}
	for _, opt := range opts {
		opt(&o)
	}

	bot, err := tgbotapi.NewBotAPIWithClient(cfg.TelegramBotToken, o.endpoint, o.client)
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}
	logger.Info("telegram bot authorized", "username", bot.Self.UserName, "chat_id", cfg.TelegramChatID)

	return &Notifier{bot: bot, chatID: cfg.TelegramChatID, logger: logger}, nil
}

func (n *Notifier) Name() string { return SinkName }

// Notify sends the warning for danger alerts and skips the rest.
func (n *Notifier) Notify(ctx context.Context, alert domain.Alert) error {
	if !alert.Result.IsDanger {
		return notify.ErrSkipped
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := tgbotapi.NewMessage(n.chatID, FormatMessage(alert))
	msg.DisableWebPagePreview = true

	// The Bot API client takes no context. The send is bounded by the HTTP
	// client timeout; Notify itself returns as soon as ctx ends.
	sent := make(chan error, 1)
	go func() {
		_, err := n.bot.Send(msg)
		sent <- err
	}()

	select {
	case err := <-sent:
		if err != nil {
			return fmt.Errorf("send telegram message: %w", err)
		}
	case <-ctx.Done():
		return fmt.Errorf("send telegram message: %w", ctx.Err())
	}
	n.logger.Info("danger alert broadcast", "alert_id", alert.ID, "chat_id", n.chatID)
	return nil
}

// FormatMessage renders the plain-text warning for an alert.
func FormatMessage(alert domain.Alert) string {
	var b strings.Builder
	b.WriteString("PERINGATAN DINI: RISIKO HUJAN EKSTREM (H+1)\n\n")
	fmt.Fprintf(&b, "Stasiun: %s\n", alert.Station)
	fmt.Fprintf(&b, "Waktu: %s\n", alert.CreatedAt.Format("02-01-2006 15:04"))
	fmt.Fprintf(&b, "Curah hujan (RR): %.1f mm\n", alert.Observation.RR)
	fmt.Fprintf(&b, "Kelembaban (RH): %.1f %%\n", alert.Observation.RHAvg)
	fmt.Fprintf(&b, "Suhu rata-rata (TAVG): %.1f C\n", alert.Observation.TAvg)
	fmt.Fprintf(&b, "Probabilitas: %.2f%% (ambang %.2f)\n", alert.Result.Probability*100, alert.Result.Threshold)
	fmt.Fprintf(&b, "Status: %s\n\n", alert.Status())
	b.WriteString("[SIAGA] Aktifkan protokol bencana.")
	return b.String()
}
