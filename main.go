package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/joho/godotenv"

	"dexflow/config"
	"dexflow/internal/aggregator"
	"dexflow/internal/cooldown"
	"dexflow/internal/dashboard"
	"dexflow/internal/metrics"
	"dexflow/internal/notify"
	"dexflow/internal/pipeline"
	"dexflow/internal/provider"
	"dexflow/internal/scanner"
	"dexflow/internal/sink"
	"dexflow/logger"
	"dexflow/models"
)

// alertFanout feeds every alert into the parquet history and the dashboard's
// recent-alerts view.
type alertFanout struct {
	history *sink.AlertHistory
	dash    *dashboard.Server
}

func (f alertFanout) Record(ctx context.Context, payload *models.AlertPayload) error {
	f.dash.ObserveAlert(payload)
	if f.history != nil {
		return f.history.Record(ctx, payload)
	}
	return nil
}

func main() {
	log := logger.GetLogger()

	// Load environment variables from .env if present
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.WithError(err).Warn("Error loading .env file")
	}

	configPath := flag.String("config", "config/config.yml", "Path to configuration file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.WithError(err).Error("Failed to load configuration")
		os.Exit(1)
	}

	if err := log.Configure(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output, cfg.Logging.MaxAge); err != nil {
		log.WithError(err).Error("Failed to configure logger")
		os.Exit(1)
	}

	log.WithFields(logger.Fields{
		"service": cfg.Dexflow.Name,
		"version": cfg.Dexflow.Version,
	}).Info("starting dexflow")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if strings.ToLower(cfg.Logging.Level) == "report" {
		logger.StartReport(ctx, log, 30*time.Second)
	}

	if cfg.Metrics.CloudWatch.Enabled {
		logger.InitCloudWatch(cfg.Metrics.CloudWatch.Region, cfg.Metrics.CloudWatch.Namespace)
	}
	if cfg.Metrics.Prometheus.Enabled {
		metrics.Init(cfg.Metrics.Prometheus.Address)
	}

	client := provider.NewClient(cfg.Providers)
	moralis := provider.NewMoralis(client, cfg.Providers.Moralis)
	helius := provider.NewHelius(client, cfg.Providers.Helius)
	dexscreener := provider.NewDexScreener(client, cfg.Providers.DexScreener)

	dirSink, err := sink.NewDirSink(cfg.Scanner.ReportsDir)
	if err != nil {
		log.WithError(err).Error("failed to create report directory sink")
		os.Exit(1)
	}
	reportSinks := sink.MultiSink{dirSink}

	var s3Client *s3.Client
	if cfg.Storage.S3.Enabled {
		s3Client, err = sink.NewS3Client(ctx, cfg.Storage.S3)
		if err != nil {
			log.WithError(err).Error("failed to create S3 client")
			os.Exit(1)
		}
		reportSinks = append(reportSinks, sink.NewS3Sink(s3Client, cfg.Storage.S3))
	} else {
		log.WithComponent("main").Info("S3 storage disabled; reports stay local")
	}

	history, err := sink.NewAlertHistory(cfg.Scanner.AlertsDir, s3Client, cfg.Storage.S3)
	if err != nil {
		log.WithError(err).Error("failed to create alert history")
		os.Exit(1)
	}

	dash := dashboard.NewServer(cfg.Dashboard, log)

	var notifier notify.Notifier = notify.Nop{}
	if cfg.Notifier.Telegram.Enabled && cfg.Notifier.Telegram.BotToken != "" {
		notifier = notify.NewTelegram(client, cfg.Notifier.Telegram)
		log.WithComponent("main").Info("telegram notifications enabled")
	} else {
		log.WithComponent("main").Info("telegram notifications disabled")
	}

	cache := cooldown.NewCache()
	agg := aggregator.New(moralis)

	deps := pipeline.Deps{
		Cooldown:       cache,
		CooldownWindow: cfg.Scanner.Cooldown,
		PreferredVenue: cfg.Scanner.PreferredVenue,
		Aggregate:      agg.Aggregate,
		Metadata:       moralis.TokenMetadata,
		Pairs:          moralis.TokenPairs,
		Candles:        moralis.Candles24h,
		Links:          dexscreener.Links,
		Notifier:       notifier,
		Alerts:         alertFanout{history: history, dash: dash},
	}
	if helius != nil {
		deps.Enrich = helius.Enrich
	}

	controller := scanner.NewController(moralis, pipeline.New(deps))
	sched := scanner.NewScheduler(controller, cache, cfg.Scanner, reportSinks)
	sched.OnCycle = func(report *models.ScanReport, elapsed time.Duration) {
		if cfg.Metrics.Prometheus.Enabled {
			metrics.ObserveCycle(report, elapsed)
		}
		dash.ObserveCycle(report, elapsed)
	}

	var wg sync.WaitGroup

	if dash != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := dash.Run(ctx); err != nil {
				log.WithError(err).Warn("dashboard server exited with error")
			}
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := sched.Run(ctx); err != nil && ctx.Err() == nil {
			log.WithError(err).Error("scheduler exited with error")
		}
	}()

	log.Info("all components started successfully")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigChan
	log.WithFields(logger.Fields{"signal": sig.String()}).Info("shutdown signal received")

	log.Info("starting graceful shutdown")
	cancel()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		log.Info("graceful shutdown completed")
	case <-time.After(30 * time.Second):
		log.Warn("graceful shutdown timeout exceeded")
	}

	log.Info("dexflow stopped")
}
