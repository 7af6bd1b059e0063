package dashboard

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"dexflow/models"
)

// logRecord is the serialisable representation of a captured log entry.
type logRecord struct {
	Timestamp time.Time              `json:"timestamp"`
	Level     string                 `json:"level"`
	Component string                 `json:"component,omitempty"`
	Message   string                 `json:"message"`
	Fields    map[string]interface{} `json:"fields,omitempty"`
}

// logStore retains the most recent logs that flow through the global logger.
// It implements the logrus Hook interface so it attaches directly to the
// application's logger.
type logStore struct {
	mu      sync.RWMutex
	items   []logRecord
	limit   int
	enabled atomic.Bool
}

func newLogStore(limit int) *logStore {
	if limit <= 0 {
		limit = 200
	}
	ls := &logStore{limit: limit}
	ls.enabled.Store(true)
	return ls
}

func (s *logStore) Levels() []logrus.Level {
	return logrus.AllLevels
}

func (s *logStore) Fire(entry *logrus.Entry) error {
	if !s.enabled.Load() {
		return nil
	}

	record := logRecord{
		Timestamp: entry.Time,
		Level:     entry.Level.String(),
		Message:   entry.Message,
	}

	if component, ok := entry.Data["component"].(string); ok {
		record.Component = component
	}

	if len(entry.Data) > 0 {
		record.Fields = make(map[string]interface{}, len(entry.Data))
		for k, v := range entry.Data {
			if k == "component" {
				continue
			}

			switch val := v.(type) {
			case error:
				record.Fields[k] = val.Error()
			case fmt.Stringer:
				record.Fields[k] = val.String()
			default:
				record.Fields[k] = val
			}
		}
	}

	s.mu.Lock()
	s.items = append(s.items, record)
	if len(s.items) > s.limit {
		s.items = append([]logRecord(nil), s.items[len(s.items)-s.limit:]...)
	}
	s.mu.Unlock()
	return nil
}

func (s *logStore) snapshot() []logRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]logRecord, len(s.items))
	copy(out, s.items)
	return out
}

func (s *logStore) close() {
	s.enabled.Store(false)
}

// alertSummary is the per-alert view retained for the dashboard.
type alertSummary struct {
	TokenAddress string    `json:"token_address"`
	Symbol       string    `json:"symbol"`
	Name         string    `json:"name"`
	PoolAddress  string    `json:"pool_address"`
	Venue        string    `json:"venue"`
	AlertedAt    time.Time `json:"alerted_at"`
}

// alertStore retains a bounded collection of the most recent alerts. Safe
// for concurrent use.
type alertStore struct {
	mu    sync.RWMutex
	items []alertSummary
	limit int
}

func newAlertStore(limit int) *alertStore {
	if limit <= 0 {
		limit = 200
	}
	return &alertStore{limit: limit}
}

func (s *alertStore) add(payload *models.AlertPayload) {
	summary := alertSummary{
		TokenAddress: payload.Candidate.TokenAddress,
		Symbol:       payload.Metadata.Symbol,
		Name:         payload.Metadata.Name,
		PoolAddress:  payload.PoolAddress,
		Venue:        payload.Venue,
		AlertedAt:    payload.AlertedAt,
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = append(s.items, summary)
	if len(s.items) > s.limit {
		// keep the most recent entries only
		s.items = append([]alertSummary(nil), s.items[len(s.items)-s.limit:]...)
	}
}

func (s *alertStore) snapshot() []alertSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]alertSummary, len(s.items))
	copy(out, s.items)
	return out
}

// cycleState holds the latest finished cycle for the status endpoints.
type cycleState struct {
	mu         sync.RWMutex
	report     *models.ScanReport
	elapsed    time.Duration
	finishedAt time.Time
	total      int64
}

func (s *cycleState) observe(report *models.ScanReport, elapsed time.Duration) {
	s.mu.Lock()
	s.report = report
	s.elapsed = elapsed
	s.finishedAt = time.Now()
	s.total++
	s.mu.Unlock()
}
