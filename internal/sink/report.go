package sink

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"dexflow/config"
	"dexflow/logger"
	"dexflow/models"
)

// ReportSink stores a finished cycle report.
type ReportSink interface {
	Save(ctx context.Context, report *models.ScanReport) error
}

type reportDocument struct {
	CycleID    string         `json:"cycle_id"`
	StartedAt  string         `json:"started_at"`
	FinishedAt string         `json:"finished_at"`
	Counts     map[string]int `json:"counts"`
	Total      int            `json:"total"`
}

func encodeReport(report *models.ScanReport) ([]byte, error) {
	doc := reportDocument{
		CycleID:    report.CycleID,
		StartedAt:  report.StartedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
		FinishedAt: report.FinishedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
		Counts:     report.Snapshot(),
		Total:      report.Total(),
	}
	return json.MarshalIndent(doc, "", "  ")
}

// Files are keyed by the moment the cycle finished, not when it started.
func reportFileName(report *models.ScanReport) string {
	return fmt.Sprintf("%d.json", report.FinishedAt.Unix())
}

// DirSink writes each report as a JSON file named by the cycle start time.
// Files are write-once; a name collision is an error, never an overwrite.
type DirSink struct {
	dir string
}

func NewDirSink(dir string) (*DirSink, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create report directory: %w", err)
	}
	return &DirSink{dir: dir}, nil
}

func (s *DirSink) Save(_ context.Context, report *models.ScanReport) error {
	data, err := encodeReport(report)
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}

	path := filepath.Join(s.dir, reportFileName(report))
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("failed to create report file: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("failed to write report file: %w", err)
	}
	return nil
}

// S3Sink uploads each report under the configured bucket prefix.
type S3Sink struct {
	client *s3.Client
	cfg    config.S3Config
	log    *logger.Log
}

func NewS3Sink(client *s3.Client, cfg config.S3Config) *S3Sink {
	return &S3Sink{client: client, cfg: cfg, log: logger.GetLogger()}
}

func (s *S3Sink) key(report *models.ScanReport) string {
	day := report.FinishedAt.UTC().Format("2006-01-02")
	key := filepath.Join(s.cfg.Prefix, "scan_reports", fmt.Sprintf("date=%s", day), reportFileName(report))
	return filepath.ToSlash(key)
}

func (s *S3Sink) Save(ctx context.Context, report *models.ScanReport) error {
	data, err := encodeReport(report)
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}

	key := s.key(report)
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.cfg.Bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("failed to upload report to S3: %w", err)
	}

	s.log.WithComponent("report_sink").WithFields(logger.Fields{
		"bucket": s.cfg.Bucket,
		"s3_key": key,
	}).Info("scan report uploaded")
	return nil
}

// MultiSink fans one report out to several sinks. Every sink is attempted;
// the first error is returned.
type MultiSink []ReportSink

func (m MultiSink) Save(ctx context.Context, report *models.ScanReport) error {
	var firstErr error
	for _, sink := range m {
		if err := sink.Save(ctx, report); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
