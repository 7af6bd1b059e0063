package logger

import (
	"context"
	"runtime"
	"strings"
	"sync/atomic"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/aws/aws-sdk-go-v2/aws"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
)

var (
	cyclesCompleted     int64
	cycleFailures       int64
	candidatesEvaluated int64
	alertsSent          int64
	providerErrors      int64
	reportWrites        int64
	scannerErrors       int64
	scannerWarns        int64
)

func recordWarn(component string) {
	if strings.HasPrefix(component, "provider") {
		atomic.AddInt64(&providerErrors, 1)
	}
	atomic.AddInt64(&scannerWarns, 1)
}

func recordError(component string) {
	if strings.HasPrefix(component, "provider") {
		atomic.AddInt64(&providerErrors, 1)
	}
	atomic.AddInt64(&scannerErrors, 1)
}

// IncrementCycle records one finished scan cycle and the number of candidates
// it evaluated.
func IncrementCycle(candidates int) {
	atomic.AddInt64(&cyclesCompleted, 1)
	atomic.AddInt64(&candidatesEvaluated, int64(candidates))
}

// IncrementCycleFailure records one whole-cycle failure.
func IncrementCycleFailure() {
	atomic.AddInt64(&cycleFailures, 1)
}

// IncrementAlert records one alert handed to the notification channel.
func IncrementAlert() {
	atomic.AddInt64(&alertsSent, 1)
}

// IncrementReportWrite records one scan report persisted to a sink.
func IncrementReportWrite() {
	atomic.AddInt64(&reportWrites, 1)
}

// StartReport begins periodic logging of system and scanner statistics.
func StartReport(ctx context.Context, log *Log, interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		for {
			select {
			case <-ctx.Done():
				ticker.Stop()
				return
			case <-ticker.C:
				logReport(ctx, log)
			}
		}
	}()
}

func logReport(ctx context.Context, log *Log) {
	cpuPercent, _ := cpu.Percent(0, false)
	memStats, _ := mem.VirtualMemory()
	diskStats, _ := disk.Usage("/")

	cpuPct := 0.0
	if len(cpuPercent) > 0 {
		cpuPct = cpuPercent[0]
	}

	fields := Fields{
		"cycles_completed":     atomic.LoadInt64(&cyclesCompleted),
		"cycle_failures":       atomic.LoadInt64(&cycleFailures),
		"candidates_evaluated": atomic.LoadInt64(&candidatesEvaluated),
		"alerts_sent":          atomic.LoadInt64(&alertsSent),
		"provider_errors":      atomic.LoadInt64(&providerErrors),
		"report_writes":        atomic.LoadInt64(&reportWrites),
		"errors":               atomic.LoadInt64(&scannerErrors),
		"warns":                atomic.LoadInt64(&scannerWarns),
		"goroutines":           runtime.NumGoroutine(),
		"cpu_percent":          cpuPct,
		"memory_mb":            int64(memStats.Used) / 1024 / 1024,
		"disk_mb":              int64(diskStats.Used) / 1024 / 1024,
	}

	log.WithComponent("report").WithFields(fields).Info("runtime report")

	data := []cwtypes.MetricDatum{
		{MetricName: aws.String("Dexflow-CPUPercent"), Unit: cwtypes.StandardUnitPercent, Value: aws.Float64(cpuPct)},
		{MetricName: aws.String("Dexflow-MemoryMB"), Unit: cwtypes.StandardUnitMegabytes, Value: aws.Float64(float64(memStats.Used) / 1024 / 1024)},
		{MetricName: aws.String("Dexflow-DiskMB"), Unit: cwtypes.StandardUnitMegabytes, Value: aws.Float64(float64(diskStats.Used) / 1024 / 1024)},
		{MetricName: aws.String("Dexflow-CyclesCompleted"), Unit: cwtypes.StandardUnitCount, Value: aws.Float64(float64(atomic.LoadInt64(&cyclesCompleted)))},
		{MetricName: aws.String("Dexflow-CycleFailures"), Unit: cwtypes.StandardUnitCount, Value: aws.Float64(float64(atomic.LoadInt64(&cycleFailures)))},
		{MetricName: aws.String("Dexflow-CandidatesEvaluated"), Unit: cwtypes.StandardUnitCount, Value: aws.Float64(float64(atomic.LoadInt64(&candidatesEvaluated)))},
		{MetricName: aws.String("Dexflow-AlertsSent"), Unit: cwtypes.StandardUnitCount, Value: aws.Float64(float64(atomic.LoadInt64(&alertsSent)))},
		{MetricName: aws.String("Dexflow-ProviderErrors"), Unit: cwtypes.StandardUnitCount, Value: aws.Float64(float64(atomic.LoadInt64(&providerErrors)))},
		{MetricName: aws.String("Dexflow-ReportWrites"), Unit: cwtypes.StandardUnitCount, Value: aws.Float64(float64(atomic.LoadInt64(&reportWrites)))},
		{MetricName: aws.String("Dexflow-Errors"), Unit: cwtypes.StandardUnitCount, Value: aws.Float64(float64(atomic.LoadInt64(&scannerErrors)))},
		{MetricName: aws.String("Dexflow-Warns"), Unit: cwtypes.StandardUnitCount, Value: aws.Float64(float64(atomic.LoadInt64(&scannerWarns)))},
	}

	publishMetrics(ctx, data)
}
