package notify

import (
	"context"
	"fmt"
	"html"
	"strings"

	"dexflow/config"
	"dexflow/internal/provider"
	"dexflow/logger"
	"dexflow/models"
)

const defaultTelegramAPI = "https://api.telegram.org"

// Telegram delivers alerts as HTML-formatted messages to a channel via the
// Bot API. It shares the provider HTTP client so Bot API calls get the same
// retry and rate limiting as every other outbound request.
type Telegram struct {
	client *provider.Client
	cfg    config.TelegramConfig
	log    *logger.Log
}

func NewTelegram(client *provider.Client, cfg config.TelegramConfig) *Telegram {
	if cfg.APIURL == "" {
		cfg.APIURL = defaultTelegramAPI
	}
	return &Telegram{client: client, cfg: cfg, log: logger.GetLogger()}
}

type sendMessageRequest struct {
	ChatID                string `json:"chat_id"`
	Text                  string `json:"text"`
	ParseMode             string `json:"parse_mode"`
	DisableWebPagePreview bool   `json:"disable_web_page_preview"`
}

type sendMessageResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

func (t *Telegram) SendAlert(ctx context.Context, payload *models.AlertPayload) error {
	url := fmt.Sprintf("%s/bot%s/sendMessage", t.cfg.APIURL, t.cfg.BotToken)
	req := sendMessageRequest{
		ChatID:                t.cfg.ChannelID,
		Text:                  formatAlert(payload),
		ParseMode:             "HTML",
		DisableWebPagePreview: true,
	}

	var resp sendMessageResponse
	if err := t.client.PostJSON(ctx, url, nil, req, &resp); err != nil {
		return fmt.Errorf("telegram sendMessage failed: %w", err)
	}
	if !resp.OK {
		return fmt.Errorf("telegram rejected message: %s", resp.Description)
	}

	t.log.WithComponent("notify").WithField("token", payload.Candidate.TokenAddress).Info("telegram alert delivered")
	return nil
}

// formatAlert renders the alert payload as a Telegram HTML message. All
// provider-sourced strings are escaped before interpolation.
func formatAlert(p *models.AlertPayload) string {
	var b strings.Builder

	name := html.EscapeString(p.Metadata.Name)
	symbol := html.EscapeString(p.Metadata.Symbol)
	fmt.Fprintf(&b, "\U0001F680 <b>%s ($%s)</b>\n", name, symbol)
	fmt.Fprintf(&b, "<code>%s</code>\n\n", html.EscapeString(p.Candidate.TokenAddress))

	if p.Enrichment != nil && p.Enrichment.AgeFormatted != "" {
		fmt.Fprintf(&b, "⏳ Age: %s\n", html.EscapeString(p.Enrichment.AgeFormatted))
	}
	if p.Candidate.PriceUSD != nil {
		fmt.Fprintf(&b, "\U0001F4B5 Price: $%s\n", formatPrice(*p.Candidate.PriceUSD))
	}
	if p.Candidate.FDVUSD != nil {
		fmt.Fprintf(&b, "\U0001F4CA MCap: $%s\n", formatUSD(*p.Candidate.FDVUSD))
	}
	if p.Candidate.LiquidityUSD != nil {
		fmt.Fprintf(&b, "\U0001F4A7 Liquidity: $%s\n", formatUSD(*p.Candidate.LiquidityUSD))
	}
	if p.Metadata.TotalSupply > 0 {
		fmt.Fprintf(&b, "\U0001F4E6 Supply: %s\n", formatUSD(p.Metadata.TotalSupply))
	}
	fmt.Fprintf(&b, "\U0001F465 Holders: %d\n\n", p.Metrics.HolderStats.TotalHolders)

	b.WriteString("<b>Tx Analysis</b>\n")
	for _, label := range models.AlertWindows() {
		stats, ok := p.Metrics.Windows[label]
		if !ok {
			continue
		}
		fmt.Fprintf(&b, "%s: buys $%s (%d) / sells $%s (%d)\n",
			label, formatUSD(stats.BuyVolumeUSD), stats.Buys, formatUSD(stats.SellVolumeUSD), stats.Sells)
	}
	fmt.Fprintf(&b, "Net flow: %s tokens\n", formatUSD(p.NetTokenFlow))
	fmt.Fprintf(&b, "Avg trades/hr: %.1f\n", p.AvgTradesPerHour)

	if recency, ok := p.Metrics.BuyerRecency[models.Window24h]; ok && recency.TotalBuyers > 0 {
		fmt.Fprintf(&b, "Buyers 24h: %d (%d first-time)\n", recency.TotalBuyers, recency.FirstTimeBuyers)
	}

	fmt.Fprintf(&b, "\n\U0001F3E6 Pool (%s): <code>%s</code>\n",
		html.EscapeString(p.Venue), html.EscapeString(p.PoolAddress))

	if len(p.Links) > 0 {
		b.WriteString("\n")
		parts := make([]string, 0, len(p.Links))
		for _, link := range p.Links {
			parts = append(parts, fmt.Sprintf("<a href=\"%s\">%s</a>",
				html.EscapeString(link.URL), html.EscapeString(link.Name)))
		}
		b.WriteString(strings.Join(parts, " | "))
		b.WriteString("\n")
	}

	return b.String()
}

// formatUSD renders a dollar amount with a compact suffix above a thousand.
func formatUSD(v float64) string {
	abs := v
	if abs < 0 {
		abs = -abs
	}
	switch {
	case abs >= 1_000_000_000:
		return fmt.Sprintf("%.2fB", v/1_000_000_000)
	case abs >= 1_000_000:
		return fmt.Sprintf("%.2fM", v/1_000_000)
	case abs >= 1_000:
		return fmt.Sprintf("%.1fK", v/1_000)
	default:
		return fmt.Sprintf("%.2f", v)
	}
}

// formatPrice keeps enough precision for sub-cent tokens.
func formatPrice(v float64) string {
	if v >= 0.01 {
		return fmt.Sprintf("%.4f", v)
	}
	return fmt.Sprintf("%.8f", v)
}
