package provider

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"dexflow/config"
)

func TestNewHeliusDisabledWithoutKey(t *testing.T) {
	if h := NewHelius(testClient(), config.HeliusConfig{RPCURL: "https://example.invalid"}); h != nil {
		t.Fatalf("expected nil provider without an API key")
	}
}

func TestEnrichComputesAgeFromOldestSignature(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	created := now.Add(-(26*time.Hour + 30*time.Minute))

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		var req struct {
			Method string `json:"method"`
		}
		if err := json.Unmarshal(body, &req); err != nil || req.Method != "getSignaturesForAddress" {
			t.Errorf("unexpected rpc request: %s", body)
		}
		_, _ = w.Write([]byte(`{"result": [
			{"signature": "newest", "blockTime": ` + jsonInt(now.Add(-time.Minute).Unix()) + `},
			{"signature": "oldest", "blockTime": ` + jsonInt(created.Unix()) + `}
		]}`))
	}))
	defer server.Close()

	h := NewHelius(testClient(), config.HeliusConfig{APIKey: "key", RPCURL: server.URL})
	enrichment, err := h.Enrich(context.Background(), "tok-1", now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !enrichment.CreatedAt.Equal(created) {
		t.Fatalf("unexpected creation time %v, want %v", enrichment.CreatedAt, created)
	}
	if enrichment.AgeFormatted != "1d 2h 30m" {
		t.Fatalf("unexpected age %q", enrichment.AgeFormatted)
	}
}

func TestEnrichSurfacesRPCError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"error": {"code": -32602, "message": "invalid address"}}`))
	}))
	defer server.Close()

	h := NewHelius(testClient(), config.HeliusConfig{APIKey: "key", RPCURL: server.URL})
	if _, err := h.Enrich(context.Background(), "bad", time.Now()); err == nil {
		t.Fatalf("expected the rpc error to surface")
	}
}

func TestEnrichRejectsEmptyHistory(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"result": []}`))
	}))
	defer server.Close()

	h := NewHelius(testClient(), config.HeliusConfig{APIKey: "key", RPCURL: server.URL})
	if _, err := h.Enrich(context.Background(), "tok-1", time.Now()); err == nil {
		t.Fatalf("expected an error for a token without signatures")
	}
}

func jsonInt(v int64) string {
	data, _ := json.Marshal(v)
	return string(data)
}
