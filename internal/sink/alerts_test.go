package sink

import (
	"testing"
	"time"

	"dexflow/models"
)

func floatPtr(v float64) *float64 { return &v }

func samplePayload() *models.AlertPayload {
	return &models.AlertPayload{
		Candidate: models.Candidate{
			TokenAddress: "tok-1",
			LiquidityUSD: floatPtr(50_000),
			FDVUSD:       floatPtr(1_000_000),
			PriceUSD:     floatPtr(0.002),
		},
		Metrics: models.AggregatedMetrics{
			HolderStats: models.HolderStats{TotalHolders: 420},
			Windows: map[string]models.WindowStats{
				models.Window1h:  {BuyVolumeUSD: 20_000},
				models.Window24h: {BuyVolumeUSD: 150_000, SellVolumeUSD: 60_000},
			},
		},
		Metadata:    models.TokenMetadata{Name: "Test Token", Symbol: "TST"},
		PoolAddress: "pool-1",
		Venue:       "PumpSwap",
		AlertedAt:   time.Unix(1_700_000_000, 0),
	}
}

func TestBuildAlertRecord(t *testing.T) {
	record := buildAlertRecord(samplePayload())

	if record.AlertID == "" {
		t.Fatalf("expected a generated alert id")
	}
	if record.TokenAddress != "tok-1" || record.Symbol != "TST" {
		t.Fatalf("unexpected identity fields %+v", record)
	}
	if record.PriceUSD != 0.002 || record.LiquidityUSD != 50_000 || record.McapUSD != 1_000_000 {
		t.Fatalf("unexpected market fields %+v", record)
	}
	if record.Holders != 420 {
		t.Fatalf("unexpected holder count %d", record.Holders)
	}
	if record.BuyVolume1h != 20_000 || record.BuyVolume24h != 150_000 || record.SellVolume24h != 60_000 {
		t.Fatalf("unexpected volume fields %+v", record)
	}
	if record.AlertedAt != 1_700_000_000 {
		t.Fatalf("unexpected timestamp %d", record.AlertedAt)
	}
}

func TestBuildAlertRecordToleratesMissingOptionals(t *testing.T) {
	payload := samplePayload()
	payload.Candidate.PriceUSD = nil
	payload.Candidate.LiquidityUSD = nil
	payload.Candidate.FDVUSD = nil

	record := buildAlertRecord(payload)
	if record.PriceUSD != 0 || record.LiquidityUSD != 0 || record.McapUSD != 0 {
		t.Fatalf("absent numerics must zero out, got %+v", record)
	}
}

func TestEncodeParquetProducesData(t *testing.T) {
	data, err := encodeParquet(buildAlertRecord(samplePayload()))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(data) == 0 {
		t.Fatalf("expected a non-empty parquet file")
	}
	// Parquet files end with the PAR1 magic.
	if string(data[len(data)-4:]) != "PAR1" {
		t.Fatalf("expected parquet magic trailer, got %q", data[len(data)-4:])
	}
}
