package provider

import (
	"context"
	"fmt"

	"dexflow/config"
	"dexflow/logger"
	"dexflow/models"
)

// DexScreener supplies trading links for alert messages. Failures degrade to
// an empty link list at the call site.
type DexScreener struct {
	client *Client
	cfg    config.DexScreenerConfig
	log    *logger.Log
}

func NewDexScreener(client *Client, cfg config.DexScreenerConfig) *DexScreener {
	return &DexScreener{client: client, cfg: cfg, log: logger.GetLogger()}
}

type dexScreenerPair struct {
	DexID string `json:"dexId"`
	URL   string `json:"url"`
}

type dexScreenerResponse struct {
	Pairs []dexScreenerPair `json:"pairs"`
}

// Links returns trading links for a pool address.
func (d *DexScreener) Links(ctx context.Context, poolAddress string) ([]models.TradingLink, error) {
	var resp dexScreenerResponse
	u := fmt.Sprintf("%s/dex/pairs/solana/%s", d.cfg.BaseURL, poolAddress)
	if err := d.client.GetJSON(ctx, u, nil, nil, &resp); err != nil {
		return nil, fmt.Errorf("failed to fetch dexscreener pairs: %w", err)
	}

	links := make([]models.TradingLink, 0, len(resp.Pairs))
	for _, pair := range resp.Pairs {
		if pair.DexID == "" {
			continue
		}
		links = append(links, models.TradingLink{Name: pair.DexID, URL: pair.URL})
	}
	return links, nil
}
