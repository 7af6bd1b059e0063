// Package aggregator combines the per-token market lookups into one record
// for the admission pipeline.
package aggregator

import (
	"context"
	"fmt"
	"time"

	"dexflow/logger"
	"dexflow/models"
)

// Fetching ten holders leaves headroom after contract-flagged entries are
// skipped by the concentration gate.
const topHolderFetchLimit = 10

// MarketData is the provider surface the aggregator needs. Each call applies
// its own bounded retry with backoff before surfacing an error.
type MarketData interface {
	TopHolders(ctx context.Context, tokenAddress string, limit int) ([]models.TokenHolder, error)
	HolderStats(ctx context.Context, tokenAddress string) (models.HolderStats, error)
	TokenAnalytics(ctx context.Context, tokenAddress string) (map[string]models.WindowStats, error)
	BuyerRecency(ctx context.Context, tokenAddress string) (map[string]models.BuyerRecency, error)
}

type Aggregator struct {
	source MarketData
	log    *logger.Log
}

func New(source MarketData) *Aggregator {
	return &Aggregator{source: source, log: logger.GetLogger()}
}

// Aggregate fetches and combines holder distribution, holder counts and
// windowed trade analytics for one token. The buyer-recency breakdown is
// optional: a failure there degrades to an empty map rather than failing the
// aggregation. Everything else is required, including the presence of the 1h
// and 24h analytics windows.
func (a *Aggregator) Aggregate(ctx context.Context, tokenAddress string) (*models.AggregatedMetrics, error) {
	log := a.log.WithComponent("aggregator").WithField("token", tokenAddress)
	start := time.Now()

	holders, err := a.source.TopHolders(ctx, tokenAddress, topHolderFetchLimit)
	if err != nil {
		return nil, fmt.Errorf("top holders lookup failed: %w", err)
	}

	stats, err := a.source.HolderStats(ctx, tokenAddress)
	if err != nil {
		return nil, fmt.Errorf("holder stats lookup failed: %w", err)
	}

	windows, err := a.source.TokenAnalytics(ctx, tokenAddress)
	if err != nil {
		return nil, fmt.Errorf("token analytics lookup failed: %w", err)
	}
	for _, label := range []string{models.Window1h, models.Window24h} {
		if _, ok := windows[label]; !ok {
			return nil, fmt.Errorf("analytics response missing required window %q", label)
		}
	}

	recency, err := a.source.BuyerRecency(ctx, tokenAddress)
	if err != nil {
		log.WithError(err).Debug("buyer recency unavailable, continuing without it")
		recency = map[string]models.BuyerRecency{}
	}

	logger.LogPerformanceEntry(log, "aggregator", "aggregate", time.Since(start), logger.Fields{
		"token": tokenAddress,
	})

	return &models.AggregatedMetrics{
		TopHolders:   holders,
		HolderStats:  stats,
		Windows:      windows,
		BuyerRecency: recency,
	}, nil
}
