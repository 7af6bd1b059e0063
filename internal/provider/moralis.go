package provider

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"dexflow/config"
	"dexflow/logger"
	"dexflow/models"
)

// Moralis talks to the Moralis Solana gateway and deep-index APIs. It is the
// candidate feed and the market-data source for holder, volume and metadata
// lookups.
type Moralis struct {
	client  *Client
	cfg     config.MoralisConfig
	headers map[string]string
	log     *logger.Log
}

func NewMoralis(client *Client, cfg config.MoralisConfig) *Moralis {
	return &Moralis{
		client: client,
		cfg:    cfg,
		headers: map[string]string{
			"Accept":    "application/json",
			"X-API-Key": cfg.APIKey,
		},
		log: logger.GetLogger(),
	}
}

func (m *Moralis) gatewayURL(format string, args ...interface{}) string {
	return m.cfg.GatewayURL + fmt.Sprintf(format, args...)
}

type candidateRecord struct {
	TokenAddress          string `json:"tokenAddress"`
	Liquidity             string `json:"liquidity"`
	FullyDilutedValuation string `json:"fullyDilutedValuation"`
	PriceUSD              string `json:"priceUsd"`
}

type candidateFeedResponse struct {
	Result []candidateRecord `json:"result"`
}

// ListCandidates fetches the recently graduated token feed, one call per scan
// cycle. Numeric fields arrive as strings; unparsable or missing values map to
// nil so the pipeline can treat them as transient upstream errors.
func (m *Moralis) ListCandidates(ctx context.Context) ([]models.Candidate, error) {
	var resp candidateFeedResponse
	params := url.Values{"limit": {strconv.Itoa(m.cfg.FeedLimit)}}
	u := m.gatewayURL("/token/%s/exchange/pumpfun/graduated", m.cfg.Network)
	if err := m.client.GetJSON(ctx, u, m.headers, params, &resp); err != nil {
		return nil, fmt.Errorf("failed to fetch graduated token feed: %w", err)
	}

	candidates := make([]models.Candidate, 0, len(resp.Result))
	for _, rec := range resp.Result {
		candidates = append(candidates, models.Candidate{
			TokenAddress: rec.TokenAddress,
			LiquidityUSD: parseOptionalFloat(rec.Liquidity),
			FDVUSD:       parseOptionalFloat(rec.FullyDilutedValuation),
			PriceUSD:     parseOptionalFloat(rec.PriceUSD),
		})
	}
	return candidates, nil
}

type holderRecord struct {
	OwnerAddress        string  `json:"ownerAddress"`
	BalanceFormatted    string  `json:"balanceFormatted"`
	PctRelativeToSupply float64 `json:"percentageRelativeToTotalSupply"`
	IsContract          bool    `json:"isContract"`
}

type topHoldersResponse struct {
	Result []holderRecord `json:"result"`
}

// TopHolders returns the largest holders of a token with contract flags.
func (m *Moralis) TopHolders(ctx context.Context, tokenAddress string, limit int) ([]models.TokenHolder, error) {
	var resp topHoldersResponse
	params := url.Values{"limit": {strconv.Itoa(limit)}}
	u := m.gatewayURL("/token/%s/%s/top-holders", m.cfg.Network, tokenAddress)
	if err := m.client.GetJSON(ctx, u, m.headers, params, &resp); err != nil {
		return nil, fmt.Errorf("failed to fetch top holders: %w", err)
	}

	holders := make([]models.TokenHolder, 0, len(resp.Result))
	for _, rec := range resp.Result {
		balance, _ := strconv.ParseFloat(rec.BalanceFormatted, 64)
		holders = append(holders, models.TokenHolder{
			OwnerAddress:     rec.OwnerAddress,
			BalanceFormatted: balance,
			PctOfSupply:      rec.PctRelativeToSupply,
			IsContract:       rec.IsContract,
		})
	}
	return holders, nil
}

type holderStatsResponse struct {
	TotalHolders int `json:"totalHolders"`
}

// HolderStats returns aggregate holder figures for a token.
func (m *Moralis) HolderStats(ctx context.Context, tokenAddress string) (models.HolderStats, error) {
	var resp holderStatsResponse
	u := m.gatewayURL("/token/%s/holders/%s", m.cfg.Network, tokenAddress)
	if err := m.client.GetJSON(ctx, u, m.headers, nil, &resp); err != nil {
		return models.HolderStats{}, fmt.Errorf("failed to fetch holder stats: %w", err)
	}
	return models.HolderStats{TotalHolders: resp.TotalHolders}, nil
}

type analyticsResponse struct {
	TotalBuyVolume  map[string]float64 `json:"totalBuyVolume"`
	TotalSellVolume map[string]float64 `json:"totalSellVolume"`
	TotalBuys       map[string]int     `json:"totalBuys"`
	TotalSells      map[string]int     `json:"totalSells"`
	TotalBuyers     map[string]int     `json:"totalBuyers"`
	TotalSellers    map[string]int     `json:"totalSellers"`
}

// TokenAnalytics returns windowed buy/sell activity keyed by window label.
func (m *Moralis) TokenAnalytics(ctx context.Context, tokenAddress string) (map[string]models.WindowStats, error) {
	var resp analyticsResponse
	params := url.Values{"chain": {"solana"}}
	u := m.cfg.DeepIndexURL + fmt.Sprintf("/tokens/%s/analytics", tokenAddress)
	if err := m.client.GetJSON(ctx, u, m.headers, params, &resp); err != nil {
		return nil, fmt.Errorf("failed to fetch token analytics: %w", err)
	}

	windows := make(map[string]models.WindowStats, len(resp.TotalBuyVolume))
	for label := range resp.TotalBuyVolume {
		windows[label] = models.WindowStats{
			BuyVolumeUSD:  resp.TotalBuyVolume[label],
			SellVolumeUSD: resp.TotalSellVolume[label],
			Buys:          resp.TotalBuys[label],
			Sells:         resp.TotalSells[label],
			Buyers:        resp.TotalBuyers[label],
			Sellers:       resp.TotalSellers[label],
		}
	}
	return windows, nil
}

type buyerRecencyRecord struct {
	FirstTimeBuyers int `json:"firstTimeBuyers"`
	RepeatBuyers    int `json:"repeatBuyers"`
	TotalBuyers     int `json:"totalBuyers"`
	TotalBuys       int `json:"totalBuys"`
}

// BuyerRecency returns the first-time vs repeat buyer breakdown per window.
// The endpoint is optional on the provider side; callers degrade to an empty
// map on failure.
func (m *Moralis) BuyerRecency(ctx context.Context, tokenAddress string) (map[string]models.BuyerRecency, error) {
	var resp map[string]buyerRecencyRecord
	params := url.Values{"chain": {"solana"}}
	u := m.cfg.DeepIndexURL + fmt.Sprintf("/tokens/%s/buyers", tokenAddress)
	if err := m.client.GetJSON(ctx, u, m.headers, params, &resp); err != nil {
		return nil, fmt.Errorf("failed to fetch buyer recency: %w", err)
	}

	recency := make(map[string]models.BuyerRecency, len(resp))
	for label, rec := range resp {
		recency[label] = models.BuyerRecency{
			FirstTimeBuyers: rec.FirstTimeBuyers,
			RepeatBuyers:    rec.RepeatBuyers,
			TotalBuyers:     rec.TotalBuyers,
			TotalBuys:       rec.TotalBuys,
		}
	}
	return recency, nil
}

type metadataResponse struct {
	Name                 string `json:"name"`
	Symbol               string `json:"symbol"`
	TotalSupplyFormatted string `json:"totalSupplyFormatted"`
}

// TokenMetadata returns descriptive token data for the alert payload.
func (m *Moralis) TokenMetadata(ctx context.Context, tokenAddress string) (models.TokenMetadata, error) {
	var resp metadataResponse
	u := m.gatewayURL("/token/%s/%s/metadata", m.cfg.Network, tokenAddress)
	if err := m.client.GetJSON(ctx, u, m.headers, nil, &resp); err != nil {
		return models.TokenMetadata{}, fmt.Errorf("failed to fetch token metadata: %w", err)
	}
	supply, _ := strconv.ParseFloat(resp.TotalSupplyFormatted, 64)
	return models.TokenMetadata{
		Name:        resp.Name,
		Symbol:      resp.Symbol,
		TotalSupply: supply,
	}, nil
}

type pairRecord struct {
	PairAddress  string `json:"pairAddress"`
	ExchangeName string `json:"exchangeName"`
}

type pairsResponse struct {
	Pairs []pairRecord `json:"pairs"`
}

// TokenPairs returns the trading venues known for a token.
func (m *Moralis) TokenPairs(ctx context.Context, tokenAddress string) ([]models.TokenPair, error) {
	var resp pairsResponse
	u := m.gatewayURL("/token/%s/%s/pairs", m.cfg.Network, tokenAddress)
	if err := m.client.GetJSON(ctx, u, m.headers, nil, &resp); err != nil {
		return nil, fmt.Errorf("failed to fetch token pairs: %w", err)
	}

	pairs := make([]models.TokenPair, 0, len(resp.Pairs))
	for _, rec := range resp.Pairs {
		pairs = append(pairs, models.TokenPair{
			PairAddress:  rec.PairAddress,
			ExchangeName: rec.ExchangeName,
		})
	}
	return pairs, nil
}

type candleRecord struct {
	Timestamp string  `json:"timestamp"`
	Open      float64 `json:"open"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Close     float64 `json:"close"`
	Volume    float64 `json:"volume"`
}

type candlesResponse struct {
	Result []candleRecord `json:"result"`
}

// Candles24h returns the last day of 5-minute OHLCV bars for a pool in
// ascending time order.
func (m *Moralis) Candles24h(ctx context.Context, poolAddress string, now time.Time) ([]models.Candle, error) {
	// The API is inclusive of partial days; pad the upper bound slightly so
	// the current bar is included.
	toDate := now.Add(30 * time.Minute)
	fromDate := toDate.AddDate(0, 0, -1)

	var resp candlesResponse
	params := url.Values{
		"timeframe": {"5min"},
		"currency":  {"usd"},
		"fromDate":  {fromDate.Format("2006-01-02")},
		"toDate":    {toDate.Format("2006-01-02")},
		"limit":     {"288"},
	}
	u := m.gatewayURL("/token/%s/pairs/%s/ohlcv", m.cfg.Network, poolAddress)
	if err := m.client.GetJSON(ctx, u, m.headers, params, &resp); err != nil {
		return nil, fmt.Errorf("failed to fetch candlestick data: %w", err)
	}

	// The API returns newest first.
	candles := make([]models.Candle, 0, len(resp.Result))
	for i := len(resp.Result) - 1; i >= 0; i-- {
		rec := resp.Result[i]
		ts, err := time.Parse(time.RFC3339, rec.Timestamp)
		if err != nil {
			continue
		}
		candles = append(candles, models.Candle{
			Timestamp: ts.Unix(),
			Open:      rec.Open,
			High:      rec.High,
			Low:       rec.Low,
			Close:     rec.Close,
			Volume:    rec.Volume,
		})
	}
	return candles, nil
}

func parseOptionalFloat(s string) *float64 {
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}
