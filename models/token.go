package models

import "time"

// Candidate is one asset surfaced by the upstream listings feed for a single
// scan cycle. Numeric fields are pointers because the feed occasionally omits
// them; an absent required field is a transient upstream error, not a gate
// failure.
type Candidate struct {
	TokenAddress string
	LiquidityUSD *float64
	FDVUSD       *float64
	PriceUSD     *float64
}

// TokenHolder is one entry of the top-holder list for a token.
type TokenHolder struct {
	OwnerAddress     string
	BalanceFormatted float64
	PctOfSupply      float64
	IsContract       bool
}

// HolderStats carries aggregate holder figures for a token.
type HolderStats struct {
	TotalHolders int
}

// WindowStats holds buy/sell activity for one time window label ("1h", "24h", ...).
type WindowStats struct {
	BuyVolumeUSD  float64
	SellVolumeUSD float64
	Buys          int
	Sells         int
	Buyers        int
	Sellers       int
}

// BuyerRecency splits the buyers of a window into first-time and repeat wallets.
type BuyerRecency struct {
	FirstTimeBuyers int
	RepeatBuyers    int
	TotalBuyers     int
	TotalBuys       int
}

// Window labels used by the analytics endpoints. The 1h and 24h windows are
// required by the admission gates; 5m and 6h only enrich the alert text.
const (
	Window5m  = "5m"
	Window1h  = "1h"
	Window6h  = "6h"
	Window24h = "24h"
)

// AlertWindows lists the analytics windows an alert renders, shortest first.
func AlertWindows() []string {
	return []string{Window5m, Window1h, Window6h, Window24h}
}

// AggregatedMetrics combines holder distribution, holder counts, windowed
// trade analytics and the optional buyer-recency breakdown for one token.
// It is owned by a single pipeline evaluation and discarded afterwards.
type AggregatedMetrics struct {
	TopHolders   []TokenHolder
	HolderStats  HolderStats
	Windows      map[string]WindowStats
	BuyerRecency map[string]BuyerRecency
}

// Window returns the stats for a window label, zero-valued when absent.
func (m *AggregatedMetrics) Window(label string) WindowStats {
	if m == nil || m.Windows == nil {
		return WindowStats{}
	}
	return m.Windows[label]
}

// TokenMetadata is descriptive token data used only for alerting.
type TokenMetadata struct {
	Name        string
	Symbol      string
	TotalSupply float64
}

// TokenPair describes one trading venue for a token.
type TokenPair struct {
	PairAddress  string
	ExchangeName string
}

// Candle is a single OHLCV bar of the 24h price history attached to alerts.
type Candle struct {
	Timestamp int64
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    float64
}

// TradingLink points at an external trading venue page for a pool.
type TradingLink struct {
	Name string
	URL  string
}

// TokenEnrichment is optional on-chain age/metadata from the enrichment
// provider; absence never affects classification, only the alert content.
type TokenEnrichment struct {
	CreatedAt    time.Time
	AgeFormatted string
}

// AlertPayload is the fully assembled alert handed to the notification
// boundary after a candidate passes every admission stage.
type AlertPayload struct {
	Candidate        Candidate
	Metrics          AggregatedMetrics
	Metadata         TokenMetadata
	PoolAddress      string
	Venue            string
	Links            []TradingLink
	Candles          []Candle
	Enrichment       *TokenEnrichment
	NetTokenFlow     float64
	AvgTradesPerHour float64
	AlertedAt        time.Time
}
