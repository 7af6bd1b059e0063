package scanner

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"dexflow/config"
	"dexflow/models"
)

type stubSource struct {
	mu         sync.Mutex
	candidates []models.Candidate
	err        error
	calls      int
}

func (s *stubSource) ListCandidates(context.Context) ([]models.Candidate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return s.candidates, s.err
}

type stubEvaluator struct {
	results map[string]models.Classification
	panicOn string
	seen    []string
}

func (e *stubEvaluator) Evaluate(_ context.Context, cand models.Candidate, _ config.GateParams, _ time.Time) models.Classification {
	e.seen = append(e.seen, cand.TokenAddress)
	if cand.TokenAddress == e.panicOn {
		panic("lookup exploded")
	}
	return e.results[cand.TokenAddress]
}

func cand(addr string) models.Candidate {
	return models.Candidate{TokenAddress: addr}
}

func TestRunCycleTalliesOutcomes(t *testing.T) {
	source := &stubSource{candidates: []models.Candidate{cand("a"), cand("b"), cand("c"), cand("d")}}
	eval := &stubEvaluator{results: map[string]models.Classification{
		"a": models.Passed,
		"b": models.MinLiquidity,
		"c": models.MinLiquidity,
		"d": models.Ignorable,
	}}

	report, err := NewController(source, eval).RunCycle(context.Background(), config.DefaultGateParams(), time.Unix(1_700_000_000, 0))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if report.Total() != 4 {
		t.Fatalf("expected 4 evaluated candidates, got %d", report.Total())
	}
	if got := report.Count(models.Passed); got != 1 {
		t.Fatalf("expected 1 passed, got %d", got)
	}
	if got := report.Count(models.MinLiquidity); got != 2 {
		t.Fatalf("expected 2 liquidity rejections, got %d", got)
	}
	if got := report.Count(models.Ignorable); got != 1 {
		t.Fatalf("expected 1 ignorable, got %d", got)
	}
	if report.FinishedAt.IsZero() || report.FinishedAt.Before(report.StartedAt) {
		t.Fatalf("expected a completion timestamp after the start, got %v", report.FinishedAt)
	}
}

func TestRunCycleFeedOrder(t *testing.T) {
	source := &stubSource{candidates: []models.Candidate{cand("first"), cand("second"), cand("third")}}
	eval := &stubEvaluator{results: map[string]models.Classification{}}

	if _, err := NewController(source, eval).RunCycle(context.Background(), config.DefaultGateParams(), time.Now()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{"first", "second", "third"}
	if len(eval.seen) != len(want) {
		t.Fatalf("expected %d evaluations, got %d", len(want), len(eval.seen))
	}
	for i, addr := range want {
		if eval.seen[i] != addr {
			t.Fatalf("expected candidate %d to be %q, got %q", i, addr, eval.seen[i])
		}
	}
}

func TestRunCycleEmptyFeed(t *testing.T) {
	source := &stubSource{}
	eval := &stubEvaluator{}

	report, err := NewController(source, eval).RunCycle(context.Background(), config.DefaultGateParams(), time.Now())
	if err != nil {
		t.Fatalf("an empty feed is a valid cycle: %v", err)
	}
	if report.Total() != 0 {
		t.Fatalf("expected an empty report, got %d entries", report.Total())
	}
}

func TestRunCycleFeedFailure(t *testing.T) {
	source := &stubSource{err: errors.New("upstream 503")}
	eval := &stubEvaluator{}

	report, err := NewController(source, eval).RunCycle(context.Background(), config.DefaultGateParams(), time.Now())
	if err == nil {
		t.Fatalf("expected the cycle to fail when the feed fails")
	}
	if report != nil {
		t.Fatalf("a failed cycle must not produce a report")
	}
	if len(eval.seen) != 0 {
		t.Fatalf("no candidate may be evaluated after a feed failure")
	}
}

func TestRunCycleIsolatesPanics(t *testing.T) {
	source := &stubSource{candidates: []models.Candidate{cand("ok-1"), cand("boom"), cand("ok-2")}}
	eval := &stubEvaluator{
		results: map[string]models.Classification{"ok-1": models.Passed, "ok-2": models.Passed},
		panicOn: "boom",
	}

	report, err := NewController(source, eval).RunCycle(context.Background(), config.DefaultGateParams(), time.Now())
	if err != nil {
		t.Fatalf("a panicking candidate must not fail the cycle: %v", err)
	}

	if got := report.Count(models.Error); got != 1 {
		t.Fatalf("expected the panic to score as one error, got %d", got)
	}
	if got := report.Count(models.Passed); got != 2 {
		t.Fatalf("expected both healthy candidates evaluated, got %d", got)
	}
	if len(eval.seen) != 3 {
		t.Fatalf("expected the cycle to continue past the panic, saw %d evaluations", len(eval.seen))
	}
}
