package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mailgun/mailgun-go/v4"

	"github.com/username/tradewatch/src/config"
	"github.com/username/tradewatch/src/logger"
	"github.com/username/tradewatch/src/models"
)

// Notifier delivers one message per newly discovered trade. The tracker
// has no dependency on delivery succeeding and does not retry on the
// notifier's behalf.
type Notifier interface {
	NotifyTrade(ctx context.Context, politician models.Politician, trade models.TradeRecord, filingURL string) error
}

func NewNotifier() Notifier {
	if config.Cfg == nil {
		slog.Error("Configuration (config.Cfg) is nil. Notifier will default to mock.")
		return &MockNotifier{}
	}

	provider := strings.ToLower(config.Cfg.NotifierProvider)
	logger.L.Info("Initializing notifier", "provider", provider)

	switch provider {
	case "discord":
		if !strings.HasPrefix(config.Cfg.DiscordWebhookURL, "https://discord.com/api/webhooks/") {
			logger.L.Warn("Discord webhook URL missing or invalid. Falling back to MockNotifier.")
			return &MockNotifier{}
		}
		return &DiscordNotifier{
			WebhookURL:  config.Cfg.DiscordWebhookURL,
			ChannelName: config.Cfg.DiscordChannelName,
			HTTPClient:  &http.Client{Timeout: 15 * time.Second},
		}
	case "mailgun":
		if config.Cfg.MailgunDomain == "" || config.Cfg.MailgunPrivateAPIKey == "" || config.Cfg.NotifyEmail == "" {
			logger.L.Warn("Mailgun configuration incomplete (Domain, API Key, or NotifyEmail missing). Falling back to MockNotifier.")
			return &MockNotifier{}
		}
		mg := mailgun.NewMailgun(config.Cfg.MailgunDomain, config.Cfg.MailgunPrivateAPIKey)
		logger.L.Info("Mailgun client initialized", "domain", config.Cfg.MailgunDomain)
		return &MailgunNotifier{
			mg:          mg,
			senderEmail: config.Cfg.SenderEmail,
			senderName:  config.Cfg.SenderName,
			notifyEmail: config.Cfg.NotifyEmail,
		}
	default:
		logger.L.Info("Defaulting to MockNotifier.")
		return &MockNotifier{}
	}
}

// FormatAmountBracket renders an amount bracket for display, honoring
// the open-ended sentinel: "$1,001 - $15,000" or "Over $1,000,000".
func FormatAmountBracket(low, high int64) string {
	if high == models.AmountOpenEnd {
		return fmt.Sprintf("Over $%s", humanize.Comma(low))
	}
	if low == high {
		return fmt.Sprintf("$%s", humanize.Comma(low))
	}
	return fmt.Sprintf("$%s - $%s", humanize.Comma(low), humanize.Comma(high))
}

// --- Discord webhook notifier ---

type DiscordNotifier struct {
	WebhookURL  string
	ChannelName string
	HTTPClient  *http.Client
}

type discordField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

type discordEmbed struct {
	Title     string         `json:"title"`
	Color     int            `json:"color"`
	Fields    []discordField `json:"fields"`
	Timestamp string         `json:"timestamp"`
}

type discordPayload struct {
	Embeds []discordEmbed `json:"embeds"`
}

const (
	colorBuy    = 0x00ff00
	colorSell   = 0xff8000
	colorOther  = 0x0099ff
	colorOption = 0x800080
)

func (n *DiscordNotifier) NotifyTrade(ctx context.Context, politician models.Politician, trade models.TradeRecord, filingURL string) error {
	payload := discordPayload{Embeds: []discordEmbed{buildTradeEmbed(politician, trade, filingURL)}}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("notifier: encoding discord payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.WebhookURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.HTTPClient.Do(req)
	if err != nil {
		logger.L.Error("Failed to send discord notification", "error", err, "asset", trade.AssetName)
		return fmt.Errorf("notifier: posting to discord webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		logger.L.Error("Discord webhook rejected notification", "status", resp.Status, "asset", trade.AssetName)
		return fmt.Errorf("notifier: discord webhook returned %s", resp.Status)
	}

	logger.L.Info("Discord notification sent", "politician", politician.Key, "asset", trade.AssetName)
	return nil
}

func buildTradeEmbed(politician models.Politician, trade models.TradeRecord, filingURL string) discordEmbed {
	var typeDisplay string
	var color int
	switch trade.Instrument {
	case models.InstrumentOptionCall:
		typeDisplay = "Option Trade (**CALL**)"
		color = colorOption
	case models.InstrumentOptionPut:
		typeDisplay = "Option Trade (**PUT**)"
		color = colorOption
	default:
		typeDisplay = "Stock Trade"
		switch trade.Action {
		case models.ActionBuy:
			color = colorBuy
		case models.ActionSell:
			color = colorSell
		default:
			color = colorOther
		}
	}

	asset := trade.AssetName
	if trade.Ticker != "" {
		asset = fmt.Sprintf("%s (%s)", trade.AssetName, trade.Ticker)
	}

	fields := []discordField{
		{Name: "Stock", Value: asset, Inline: true},
		{Name: "Type", Value: typeDisplay, Inline: true},
		{Name: "Action", Value: fmt.Sprintf("**%s**", trade.Action), Inline: true},
		{Name: "Amount", Value: FormatAmountBracket(trade.AmountLow, trade.AmountHigh), Inline: true},
		{Name: "Date", Value: trade.TransactionDate.Format("01/02/2006"), Inline: true},
		{Name: "PDF", Value: fmt.Sprintf("[View Filing](%s)", filingURL), Inline: true},
	}
	if trade.Description != "" && trade.Instrument.IsOption() {
		fields = append(fields, discordField{Name: "Option Details", Value: trade.Description, Inline: false})
	}

	return discordEmbed{
		Title:     fmt.Sprintf("📢 New Trade Filed — %s", politician.FullName),
		Color:     color,
		Fields:    fields,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

// --- Mailgun notifier ---

type MailgunNotifier struct {
	mg          *mailgun.MailgunImpl
	senderEmail string
	senderName  string
	notifyEmail string
}

func (n *MailgunNotifier) NotifyTrade(ctx context.Context, politician models.Politician, trade models.TradeRecord, filingURL string) error {
	from := fmt.Sprintf("%s <%s>", n.senderName, n.senderEmail)
	subject := fmt.Sprintf("New trade filed by %s: %s %s", politician.FullName, trade.Action, trade.AssetName)
	body := fmt.Sprintf(`%s filed a new trade.

Asset: %s
Ticker: %s
Type: %s
Action: %s
Amount: %s
Transaction date: %s
Filing: %s
`,
		politician.FullName,
		trade.AssetName,
		orDash(trade.Ticker),
		trade.Instrument,
		trade.Action,
		FormatAmountBracket(trade.AmountLow, trade.AmountHigh),
		trade.TransactionDate.Format("01/02/2006"),
		filingURL,
	)

	message := n.mg.NewMessage(from, subject, body, n.notifyEmail)
	_, _, err := n.mg.Send(ctx, message)
	if err != nil {
		logger.L.Error("Failed to send mailgun notification", "error", err, "asset", trade.AssetName)
		return fmt.Errorf("notifier: sending via mailgun: %w", err)
	}
	logger.L.Info("Mailgun notification sent", "politician", politician.Key, "asset", trade.AssetName)
	return nil
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// --- Mock notifier (development and tests) ---

type MockNotifier struct{}

func (n *MockNotifier) NotifyTrade(ctx context.Context, politician models.Politician, trade models.TradeRecord, filingURL string) error {
	if logger.L != nil {
		logger.L.Info("MOCK notification",
			"politician", politician.Key,
			"asset", trade.AssetName,
			"action", trade.Action,
			"amount", FormatAmountBracket(trade.AmountLow, trade.AmountHigh),
			"filingURL", filingURL)
	}
	return nil
}
