// Package scanner drives the scan cycle: it pulls the candidate feed,
// runs every candidate through the admission pipeline and tallies the
// outcomes into a cycle report.
package scanner

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"dexflow/config"
	"dexflow/logger"
	"dexflow/models"
)

// CandidateSource produces the candidate feed for one cycle.
type CandidateSource interface {
	ListCandidates(ctx context.Context) ([]models.Candidate, error)
}

// Evaluator classifies one candidate against the current gate parameters.
type Evaluator interface {
	Evaluate(ctx context.Context, cand models.Candidate, params config.GateParams, now time.Time) models.Classification
}

type Controller struct {
	source   CandidateSource
	pipeline Evaluator
	log      *logger.Log
}

func NewController(source CandidateSource, pipeline Evaluator) *Controller {
	return &Controller{
		source:   source,
		pipeline: pipeline,
		log:      logger.GetLogger(),
	}
}

// RunCycle performs one full scan pass. Candidates are evaluated in feed
// order and every outcome lands in the report; an empty feed yields an empty
// report, not an error. A feed failure aborts the cycle before any
// evaluation happens.
func (c *Controller) RunCycle(ctx context.Context, params config.GateParams, now time.Time) (*models.ScanReport, error) {
	log := c.log.WithComponent("scanner")

	candidates, err := c.source.ListCandidates(ctx)
	if err != nil {
		return nil, fmt.Errorf("candidate feed failed: %w", err)
	}

	report := models.NewScanReport(uuid.NewString(), now)
	log.WithFields(logger.Fields{
		"cycle_id":   report.CycleID,
		"candidates": len(candidates),
	}).Info("scan cycle started")

	for _, cand := range candidates {
		class := c.evaluate(ctx, cand, params, now)
		report.Add(class)
	}
	report.FinishedAt = time.Now()

	log.WithFields(logger.Fields{
		"cycle_id": report.CycleID,
		"counts":   report.Snapshot(),
	}).Info("scan cycle finished")
	return report, nil
}

// evaluate shields the cycle from a panicking candidate. A panic is scored
// as an error outcome and the cycle moves on to the next candidate.
func (c *Controller) evaluate(ctx context.Context, cand models.Candidate, params config.GateParams, now time.Time) (class models.Classification) {
	defer func() {
		if r := recover(); r != nil {
			c.log.WithComponent("scanner").WithFields(logger.Fields{
				"token": cand.TokenAddress,
				"panic": r,
			}).Error("candidate evaluation panicked")
			class = models.Error
		}
	}()
	return c.pipeline.Evaluate(ctx, cand, params, now)
}
