package provider

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"dexflow/config"
)

func TestLinksParsesPairs(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/dex/pairs/solana/pool-1" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"pairs": [
			{"dexId": "pumpswap", "url": "https://dexscreener.com/solana/pool-1"},
			{"dexId": "", "url": "https://dexscreener.com/ignored"},
			{"dexId": "raydium", "url": "https://dexscreener.com/solana/pool-2"}
		]}`))
	}))
	defer server.Close()

	d := NewDexScreener(testClient(), config.DexScreenerConfig{BaseURL: server.URL})
	links, err := d.Links(context.Background(), "pool-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(links) != 2 {
		t.Fatalf("expected nameless pairs to be dropped, got %d links", len(links))
	}
	if links[0].Name != "pumpswap" || links[1].Name != "raydium" {
		t.Fatalf("unexpected links %+v", links)
	}
}

func TestLinksSurfacesRequestFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	d := NewDexScreener(testClient(), config.DexScreenerConfig{BaseURL: server.URL})
	if _, err := d.Links(context.Background(), "missing"); err == nil {
		t.Fatalf("expected an error for a failed lookup")
	}
}
