package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"dexflow/config"
	"dexflow/logger"
	"dexflow/models"
)

// Helius is the optional on-chain enrichment provider. Its absence or failure
// only degrades the alert payload, never the classification.
type Helius struct {
	client *Client
	url    string
	log    *logger.Log
}

func NewHelius(client *Client, cfg config.HeliusConfig) *Helius {
	if !cfg.Enabled() {
		return nil
	}
	return &Helius{
		client: client,
		url:    fmt.Sprintf("%s/?api-key=%s", cfg.RPCURL, cfg.APIKey),
		log:    logger.GetLogger(),
	}
}

type rpcRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      int           `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

func (h *Helius) call(ctx context.Context, method string, params []interface{}, out interface{}) error {
	req := rpcRequest{JSONRPC: "2.0", ID: 1, Method: method, Params: params}
	var resp rpcResponse
	if err := h.client.PostJSON(ctx, h.url, nil, req, &resp); err != nil {
		return err
	}
	if resp.Error != nil {
		return fmt.Errorf("rpc error %d: %s", resp.Error.Code, resp.Error.Message)
	}
	if out != nil && len(resp.Result) > 0 {
		if err := json.Unmarshal(resp.Result, out); err != nil {
			return fmt.Errorf("failed to decode rpc result: %w", err)
		}
	}
	return nil
}

type signatureRecord struct {
	Signature string `json:"signature"`
	BlockTime int64  `json:"blockTime"`
}

// Enrich derives the token's creation time from its oldest known signature
// and formats the age for alert display.
func (h *Helius) Enrich(ctx context.Context, tokenAddress string, now time.Time) (*models.TokenEnrichment, error) {
	var signatures []signatureRecord
	err := h.call(ctx, "getSignaturesForAddress", []interface{}{
		tokenAddress,
		map[string]interface{}{"limit": 1000},
	}, &signatures)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch signatures: %w", err)
	}
	if len(signatures) == 0 {
		return nil, fmt.Errorf("no signatures found for token %s", tokenAddress)
	}

	// Oldest signature last; its block time approximates creation.
	created := signatures[len(signatures)-1].BlockTime
	if created == 0 {
		return nil, fmt.Errorf("token %s has no usable block time", tokenAddress)
	}

	createdAt := time.Unix(created, 0)
	age := now.Sub(createdAt)
	days := int(age.Hours()) / 24
	hours := int(age.Hours()) % 24
	minutes := int(age.Minutes()) % 60

	return &models.TokenEnrichment{
		CreatedAt:    createdAt,
		AgeFormatted: fmt.Sprintf("%dd %dh %dm", days, hours, minutes),
	}, nil
}
