package provider

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"dexflow/config"
	"dexflow/models"
)

func moralisForServer(server *httptest.Server) *Moralis {
	return NewMoralis(testClient(), config.MoralisConfig{
		APIKey:       "test-key",
		GatewayURL:   server.URL,
		DeepIndexURL: server.URL,
		Network:      "mainnet",
		FeedLimit:    100,
	})
}

func TestListCandidatesParsesFeed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/token/mainnet/exchange/pumpfun/graduated" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if r.Header.Get("X-API-Key") != "test-key" {
			t.Errorf("missing API key header")
		}
		_, _ = w.Write([]byte(`{"result": [
			{"tokenAddress": "tok-1", "liquidity": "12345.67", "fullyDilutedValuation": "500000", "priceUsd": "0.0005"},
			{"tokenAddress": "tok-2", "liquidity": "", "fullyDilutedValuation": "not-a-number", "priceUsd": "1"}
		]}`))
	}))
	defer server.Close()

	candidates, err := moralisForServer(server).ListCandidates(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(candidates) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(candidates))
	}

	first := candidates[0]
	if first.TokenAddress != "tok-1" {
		t.Fatalf("unexpected token address %q", first.TokenAddress)
	}
	if first.LiquidityUSD == nil || *first.LiquidityUSD != 12345.67 {
		t.Fatalf("unexpected liquidity %v", first.LiquidityUSD)
	}
	if first.FDVUSD == nil || *first.FDVUSD != 500_000 {
		t.Fatalf("unexpected fdv %v", first.FDVUSD)
	}

	// Absent and unparsable numerics both map to nil, never to zero.
	second := candidates[1]
	if second.LiquidityUSD != nil {
		t.Fatalf("empty liquidity must parse to nil, got %v", *second.LiquidityUSD)
	}
	if second.FDVUSD != nil {
		t.Fatalf("unparsable fdv must parse to nil, got %v", *second.FDVUSD)
	}
	if second.PriceUSD == nil || *second.PriceUSD != 1 {
		t.Fatalf("unexpected price %v", second.PriceUSD)
	}
}

func TestTopHoldersParsesContractFlags(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("limit"); got != "10" {
			t.Errorf("expected limit 10, got %q", got)
		}
		_, _ = w.Write([]byte(`{"result": [
			{"ownerAddress": "pool", "balanceFormatted": "900000", "percentageRelativeToTotalSupply": 60.5, "isContract": true},
			{"ownerAddress": "whale", "balanceFormatted": "50000", "percentageRelativeToTotalSupply": 5.1, "isContract": false}
		]}`))
	}))
	defer server.Close()

	holders, err := moralisForServer(server).TopHolders(context.Background(), "tok-1", 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(holders) != 2 {
		t.Fatalf("expected 2 holders, got %d", len(holders))
	}
	if !holders[0].IsContract || holders[0].PctOfSupply != 60.5 {
		t.Fatalf("unexpected first holder %+v", holders[0])
	}
	if holders[1].IsContract || holders[1].BalanceFormatted != 50_000 {
		t.Fatalf("unexpected second holder %+v", holders[1])
	}
}

func TestTokenAnalyticsMapsWindows(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("chain"); got != "solana" {
			t.Errorf("expected chain=solana, got %q", got)
		}
		_, _ = w.Write([]byte(`{
			"totalBuyVolume": {"1h": 1500.5, "24h": 20000},
			"totalSellVolume": {"1h": 700, "24h": 9000},
			"totalBuys": {"1h": 12, "24h": 300},
			"totalSells": {"1h": 5, "24h": 190}
		}`))
	}))
	defer server.Close()

	windows, err := moralisForServer(server).TokenAnalytics(context.Background(), "tok-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	hour, ok := windows[models.Window1h]
	if !ok {
		t.Fatalf("expected a 1h window")
	}
	if hour.BuyVolumeUSD != 1500.5 || hour.Sells != 5 {
		t.Fatalf("unexpected 1h window %+v", hour)
	}

	day, ok := windows[models.Window24h]
	if !ok {
		t.Fatalf("expected a 24h window")
	}
	if day.SellVolumeUSD != 9000 || day.Buys != 300 {
		t.Fatalf("unexpected 24h window %+v", day)
	}
}

func TestCandles24hReversesToAscending(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"result": [
			{"timestamp": "2026-08-30T12:10:00Z", "open": 3, "high": 4, "low": 2, "close": 3.5, "volume": 30},
			{"timestamp": "2026-08-30T12:05:00Z", "open": 2, "high": 3, "low": 1, "close": 3, "volume": 20},
			{"timestamp": "not-a-timestamp", "open": 0, "high": 0, "low": 0, "close": 0, "volume": 0},
			{"timestamp": "2026-08-30T12:00:00Z", "open": 1, "high": 2, "low": 1, "close": 2, "volume": 10}
		]}`))
	}))
	defer server.Close()

	now := time.Date(2026, 8, 30, 13, 0, 0, 0, time.UTC)
	candles, err := moralisForServer(server).Candles24h(context.Background(), "pool-1", now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(candles) != 3 {
		t.Fatalf("expected the malformed bar to be dropped, got %d candles", len(candles))
	}
	for i := 1; i < len(candles); i++ {
		if candles[i].Timestamp <= candles[i-1].Timestamp {
			t.Fatalf("expected ascending timestamps, got %v", candles)
		}
	}
	if candles[0].Open != 1 || candles[2].Close != 3.5 {
		t.Fatalf("unexpected candle ordering: %+v", candles)
	}
}
