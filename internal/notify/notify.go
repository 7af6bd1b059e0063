// Package notify delivers alert payloads to the configured notification
// channel. Delivery is best-effort from the pipeline's point of view: a
// failure is logged and never rolls back a classification or suppression.
package notify

import (
	"context"

	"dexflow/models"
)

// Notifier is the delivery boundary for passed candidates. The pipeline
// guarantees exactly one SendAlert call per PASSED classification.
type Notifier interface {
	SendAlert(ctx context.Context, payload *models.AlertPayload) error
}

// Nop discards alerts; used when no channel is configured.
type Nop struct{}

func (Nop) SendAlert(context.Context, *models.AlertPayload) error { return nil }
