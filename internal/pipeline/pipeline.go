// Package pipeline implements the ordered admission gates that decide whether
// a newly listed token deserves an alert.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"dexflow/config"
	"dexflow/internal/cooldown"
	"dexflow/internal/notify"
	"dexflow/logger"
	"dexflow/models"
)

// Lookup functions the pipeline needs beyond the aggregator. Optional ones
// may be nil; their absence only degrades the alert payload.
type (
	AggregateFunc func(ctx context.Context, tokenAddress string) (*models.AggregatedMetrics, error)
	MetadataFunc  func(ctx context.Context, tokenAddress string) (models.TokenMetadata, error)
	PairsFunc     func(ctx context.Context, tokenAddress string) ([]models.TokenPair, error)
	CandlesFunc   func(ctx context.Context, poolAddress string, now time.Time) ([]models.Candle, error)
	LinksFunc     func(ctx context.Context, poolAddress string) ([]models.TradingLink, error)
	EnrichFunc    func(ctx context.Context, tokenAddress string, now time.Time) (*models.TokenEnrichment, error)
)

// AlertRecorder persists a record of every alerted token.
type AlertRecorder interface {
	Record(ctx context.Context, payload *models.AlertPayload) error
}

// Deps wires the pipeline to its collaborators. Aggregate, Metadata and Pairs
// are required; Candles, Links, Enrich, Notifier and Alerts may be nil.
type Deps struct {
	Cooldown       *cooldown.Cache
	CooldownWindow time.Duration
	PreferredVenue string
	Aggregate      AggregateFunc
	Metadata       MetadataFunc
	Pairs          PairsFunc
	Candles        CandlesFunc
	Links          LinksFunc
	Enrich         EnrichFunc
	Notifier       notify.Notifier
	Alerts         AlertRecorder
}

type Pipeline struct {
	deps Deps
	log  *logger.Log
}

func New(deps Deps) *Pipeline {
	return &Pipeline{deps: deps, log: logger.GetLogger()}
}

// Evaluate runs one candidate through every admission stage in order. The
// first failing stage decides the outcome; later stages never run. The
// aggregator is only invoked once the candidate-local gates have passed.
func (p *Pipeline) Evaluate(ctx context.Context, cand models.Candidate, params config.GateParams, now time.Time) models.Classification {
	log := p.log.WithComponent("pipeline").WithField("token", cand.TokenAddress)

	if p.deps.Cooldown.Suppressed(cand.TokenAddress, now) {
		log.Info("token is inside its cooldown window")
		return models.Ignorable
	}

	if field := missingRequiredField(cand); field != "" {
		log.WithField("field", field).Error("candidate record is missing a required field")
		return models.Error
	}

	liquidity := *cand.LiquidityUSD
	fdv := *cand.FDVUSD

	if liquidity < params.MinLiquidityUSD {
		log.WithField("liquidity_usd", liquidity).Info("token does not meet min liquidity")
		return models.MinLiquidity
	}

	if fdv < params.MinMcapUSD || fdv > params.MaxMcapUSD {
		log.WithField("mcap_usd", fdv).Info("token does not meet mcap range")
		return models.McapRange
	}

	metrics, err := p.deps.Aggregate(ctx, cand.TokenAddress)
	if err != nil {
		log.WithError(err).Error("failed to aggregate token metrics")
		return models.Error
	}

	top5Pct := topNonContractConcentration(metrics.TopHolders, 5)
	if top5Pct > params.MaxTop5HolderPct {
		log.WithField("top_5_pct", top5Pct).Info("top 5 holder concentration above threshold")
		return models.Top5HoldersAboveTh
	}

	if metrics.HolderStats.TotalHolders < params.MinHolderCount {
		log.WithField("holder_count", metrics.HolderStats.TotalHolders).Info("min holder count not met")
		return models.LowHolderCount
	}

	day := metrics.Window(models.Window24h)
	hour := metrics.Window(models.Window1h)

	volume := volumeFloorValue(day, params.VolumeFloorBasis)
	if volume < fdv*params.Min24hVolumePctOfFDV/100 {
		log.WithField("volume_24h_usd", volume).Info("token does not meet min 24h volume")
		return models.Min24hVolume
	}

	// The even hourly share of the day's buy volume, scaled by the outlier
	// multiple. Equality is not an outlier.
	h1Threshold := day.BuyVolumeUSD * params.OutlierMultiple / 24
	if hour.BuyVolumeUSD <= h1Threshold {
		log.WithFields(logger.Fields{
			"buy_volume_1h": hour.BuyVolumeUSD,
			"threshold":     h1Threshold,
		}).Info("token does not meet the buy outlier requirement")
		return models.NoBuyOutlier
	}

	payload, err := p.assembleAlert(ctx, cand, metrics, now)
	if err != nil {
		log.WithError(err).Error("failed to assemble alert payload")
		return models.Error
	}

	// Suppression is written before the notification goes out so a delivery
	// failure can never cause the same token to alert again next cycle.
	p.deps.Cooldown.SuppressUntil(cand.TokenAddress, now.Add(p.deps.CooldownWindow))

	if p.deps.Alerts != nil {
		if err := p.deps.Alerts.Record(ctx, payload); err != nil {
			log.WithError(err).Warn("failed to record alerted token")
		}
	}

	if p.deps.Notifier != nil {
		if err := p.deps.Notifier.SendAlert(ctx, payload); err != nil {
			log.WithError(err).Error("failed to deliver alert notification")
		} else {
			log.Info("alert sent")
		}
	}
	logger.IncrementAlert()

	return models.Passed
}

func missingRequiredField(cand models.Candidate) string {
	switch {
	case cand.LiquidityUSD == nil:
		return "liquidity"
	case cand.FDVUSD == nil:
		return "fullyDilutedValuation"
	case cand.PriceUSD == nil:
		return "priceUsd"
	}
	return ""
}

// topNonContractConcentration sums the supply share of the first n holders
// that are not contract accounts. Contract-flagged holders are skipped
// entirely and do not consume a slot.
func topNonContractConcentration(holders []models.TokenHolder, n int) float64 {
	total := 0.0
	count := 0
	for _, holder := range holders {
		if holder.IsContract {
			continue
		}
		total += holder.PctOfSupply
		count++
		if count == n {
			break
		}
	}
	return total
}

// volumeFloorValue computes the 24h volume figure the floor gate compares
// against. buy_sell is the intended semantic; buy_only reproduces the
// original scanner variant that summed the buy volume with itself.
func volumeFloorValue(day models.WindowStats, basis string) float64 {
	if basis == config.VolumeFloorBuyOnly {
		return day.BuyVolumeUSD + day.BuyVolumeUSD
	}
	return day.BuyVolumeUSD + day.SellVolumeUSD
}

func (p *Pipeline) assembleAlert(ctx context.Context, cand models.Candidate, metrics *models.AggregatedMetrics, now time.Time) (*models.AlertPayload, error) {
	log := p.log.WithComponent("pipeline").WithField("token", cand.TokenAddress)

	metadata, err := p.deps.Metadata(ctx, cand.TokenAddress)
	if err != nil {
		return nil, fmt.Errorf("metadata lookup failed: %w", err)
	}

	pairs, err := p.deps.Pairs(ctx, cand.TokenAddress)
	if err != nil {
		return nil, fmt.Errorf("pair lookup failed: %w", err)
	}
	poolAddress := ""
	for _, pair := range pairs {
		if pair.ExchangeName == p.deps.PreferredVenue {
			poolAddress = pair.PairAddress
			break
		}
	}
	if poolAddress == "" {
		return nil, fmt.Errorf("no %s pool found for token", p.deps.PreferredVenue)
	}

	day := metrics.Window(models.Window24h)
	price := *cand.PriceUSD
	netFlow := 0.0
	if price != 0 {
		netFlow = (day.BuyVolumeUSD - day.SellVolumeUSD) / price
	}

	payload := &models.AlertPayload{
		Candidate:        cand,
		Metrics:          *metrics,
		Metadata:         metadata,
		PoolAddress:      poolAddress,
		Venue:            p.deps.PreferredVenue,
		NetTokenFlow:     netFlow,
		AvgTradesPerHour: float64(day.Buys+day.Sells) / 24,
		AlertedAt:        now,
	}

	if p.deps.Candles != nil {
		if candles, err := p.deps.Candles(ctx, poolAddress, now); err != nil {
			log.WithError(err).Warn("candlestick data unavailable for alert")
		} else {
			payload.Candles = candles
		}
	}

	if p.deps.Links != nil {
		if links, err := p.deps.Links(ctx, poolAddress); err != nil {
			log.WithError(err).Warn("trading links unavailable for alert")
		} else {
			payload.Links = links
		}
	}

	if p.deps.Enrich != nil {
		if enrichment, err := p.deps.Enrich(ctx, cand.TokenAddress, now); err != nil {
			log.WithError(err).Warn("token enrichment unavailable for alert")
		} else {
			payload.Enrichment = enrichment
		}
	}

	return payload, nil
}
