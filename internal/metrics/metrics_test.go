package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"dexflow/models"
)

func TestInitSeedsEveryClassificationSeries(t *testing.T) {
	Init("127.0.0.1:0")

	if got, want := testutil.CollectAndCount(classifications), len(models.Classifications()); got != want {
		t.Fatalf("expected %d classification series, got %d", want, got)
	}
	for _, c := range models.Classifications() {
		if v := testutil.ToFloat64(classifications.WithLabelValues(c.String())); v != 0 {
			t.Fatalf("expected the %s series to start at zero, got %v", c, v)
		}
	}
}

func TestObserveCycleFoldsReport(t *testing.T) {
	Init("127.0.0.1:0")

	report := models.NewScanReport("cycle-1", time.Unix(1_700_000_000, 0))
	report.Add(models.Passed)
	report.Add(models.MinLiquidity)
	report.Add(models.MinLiquidity)

	before := testutil.ToFloat64(classifications.WithLabelValues(models.MinLiquidity.String()))
	ObserveCycle(report, 250*time.Millisecond)
	after := testutil.ToFloat64(classifications.WithLabelValues(models.MinLiquidity.String()))

	if after-before != 2 {
		t.Fatalf("expected two liquidity rejections folded in, got %v", after-before)
	}
}
