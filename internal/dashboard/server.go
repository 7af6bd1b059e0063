// Package dashboard exposes a small JSON status API for operating the
// scanner: latest cycle report, recent alerts and recent logs.
package dashboard

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"dexflow/config"
	"dexflow/logger"
	"dexflow/models"
)

// Server hosts the Gin-powered status API.
type Server struct {
	cfg        config.DashboardConfig
	log        *logger.Log
	logStore   *logStore
	alertStore *alertStore
	cycles     *cycleState
	httpServer *http.Server
	startedAt  time.Time
}

// NewServer constructs a dashboard server when the feature is enabled. When
// disabled the returned server is nil and every method is a no-op.
func NewServer(cfg config.DashboardConfig, log *logger.Log) *Server {
	if !cfg.Enabled {
		return nil
	}

	cfg.Address = normalizeAddress(cfg.Address)

	logStore := newLogStore(cfg.LogHistory)
	log.AddHook(logStore)

	return &Server{
		cfg:        cfg,
		log:        log,
		logStore:   logStore,
		alertStore: newAlertStore(cfg.AlertHistory),
		cycles:     &cycleState{},
		startedAt:  time.Now(),
	}
}

// ObserveCycle records a finished cycle for the status endpoints.
func (s *Server) ObserveCycle(report *models.ScanReport, elapsed time.Duration) {
	if s == nil {
		return
	}
	s.cycles.observe(report, elapsed)
}

// ObserveAlert records an alerted token for the /api/alerts endpoint.
func (s *Server) ObserveAlert(payload *models.AlertPayload) {
	if s == nil {
		return
	}
	s.alertStore.add(payload)
}

// Run starts the HTTP server and blocks until the context is cancelled or
// the server exits with an error.
func (s *Server) Run(ctx context.Context) error {
	if s == nil {
		return nil
	}

	defer s.logStore.close()

	s.httpServer = &http.Server{
		Addr:        s.cfg.Address,
		Handler:     s.buildRouter(),
		ReadTimeout: s.cfg.ReadTimeout,
	}

	s.log.WithComponent("dashboard").WithField("address", s.cfg.Address).Info("dashboard server started")

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		<-errCh
		return nil
	case err := <-errCh:
		return err
	}
}

func (s *Server) buildRouter() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	_ = router.SetTrustedProxies(nil)

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	router.GET("/api/status", func(c *gin.Context) {
		s.cycles.mu.RLock()
		defer s.cycles.mu.RUnlock()

		payload := gin.H{
			"uptime_seconds": int(time.Since(s.startedAt).Seconds()),
			"cycles_total":   s.cycles.total,
		}
		if s.cycles.report != nil {
			payload["last_cycle_id"] = s.cycles.report.CycleID
			payload["last_cycle_at"] = s.cycles.finishedAt.Format(time.RFC3339Nano)
			payload["last_cycle_duration_ms"] = s.cycles.elapsed.Milliseconds()
		}
		c.JSON(http.StatusOK, payload)
	})

	router.GET("/api/report", func(c *gin.Context) {
		s.cycles.mu.RLock()
		report := s.cycles.report
		s.cycles.mu.RUnlock()

		if report == nil {
			c.JSON(http.StatusOK, gin.H{"report": nil})
			return
		}
		c.JSON(http.StatusOK, gin.H{"report": gin.H{
			"cycle_id":    report.CycleID,
			"started_at":  report.StartedAt.Format(time.RFC3339Nano),
			"finished_at": report.FinishedAt.Format(time.RFC3339Nano),
			"counts":      report.Snapshot(),
			"total":       report.Total(),
		}})
	})

	router.GET("/api/alerts", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"alerts": s.alertStore.snapshot()})
	})

	router.GET("/api/logs", func(c *gin.Context) {
		logsSnapshot := s.logStore.snapshot()
		payload := make([]gin.H, 0, len(logsSnapshot))
		for _, l := range logsSnapshot {
			payload = append(payload, gin.H{
				"timestamp": l.Timestamp.Format(time.RFC3339Nano),
				"level":     l.Level,
				"component": l.Component,
				"message":   l.Message,
				"fields":    l.Fields,
			})
		}
		c.JSON(http.StatusOK, gin.H{"logs": payload})
	})

	return router
}

func normalizeAddress(addr string) string {
	addr = strings.TrimSpace(addr)

	if addr == "" {
		return "127.0.0.1:8085"
	}

	if strings.HasPrefix(addr, ":") {
		if len(addr) > 1 && addr[1] >= '0' && addr[1] <= '9' {
			return "0.0.0.0" + addr
		}
	}

	host, port, err := net.SplitHostPort(addr)
	if err == nil {
		if host == "" || host == "*" {
			host = "0.0.0.0"
		}
		if port == "" {
			port = "8085"
		}
		return net.JoinHostPort(host, port)
	}

	if !strings.Contains(addr, ":") {
		return net.JoinHostPort(addr, "8085")
	}

	return addr
}
