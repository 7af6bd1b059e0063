package sink

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/xitongsys/parquet-go/source"
	"github.com/xitongsys/parquet-go/writer"

	"dexflow/config"
	"dexflow/logger"
	"dexflow/models"
)

// AlertRecord is the parquet row layout of the alert history.
type AlertRecord struct {
	AlertID       string  `parquet:"name=alert_id, type=BYTE_ARRAY, convertedtype=UTF8"`
	TokenAddress  string  `parquet:"name=token_address, type=BYTE_ARRAY, convertedtype=UTF8"`
	Symbol        string  `parquet:"name=symbol, type=BYTE_ARRAY, convertedtype=UTF8"`
	Name          string  `parquet:"name=name, type=BYTE_ARRAY, convertedtype=UTF8"`
	PoolAddress   string  `parquet:"name=pool_address, type=BYTE_ARRAY, convertedtype=UTF8"`
	Venue         string  `parquet:"name=venue, type=BYTE_ARRAY, convertedtype=UTF8"`
	PriceUSD      float64 `parquet:"name=price_usd, type=DOUBLE"`
	LiquidityUSD  float64 `parquet:"name=liquidity_usd, type=DOUBLE"`
	McapUSD       float64 `parquet:"name=mcap_usd, type=DOUBLE"`
	Holders       int32   `parquet:"name=holders, type=INT32"`
	BuyVolume1h   float64 `parquet:"name=buy_volume_1h_usd, type=DOUBLE"`
	BuyVolume24h  float64 `parquet:"name=buy_volume_24h_usd, type=DOUBLE"`
	SellVolume24h float64 `parquet:"name=sell_volume_24h_usd, type=DOUBLE"`
	AlertedAt     int64   `parquet:"name=alerted_at, type=INT64"`
}

// memoryFile implements the parquet source interface over an in-memory
// buffer so files can be assembled before touching disk or S3.
type memoryFile struct {
	buffer *bytes.Buffer
}

func newMemoryFile() *memoryFile {
	return &memoryFile{buffer: &bytes.Buffer{}}
}

func (mf *memoryFile) Create(string) (source.ParquetFile, error) { return mf, nil }
func (mf *memoryFile) Open(string) (source.ParquetFile, error)   { return mf, nil }

func (mf *memoryFile) Seek(int64, int) (int64, error) {
	return int64(mf.buffer.Len()), nil
}

func (mf *memoryFile) Read(b []byte) (int, error)  { return mf.buffer.Read(b) }
func (mf *memoryFile) Write(b []byte) (int, error) { return mf.buffer.Write(b) }
func (mf *memoryFile) Close() error                { return nil }
func (mf *memoryFile) Bytes() []byte               { return mf.buffer.Bytes() }

// AlertHistory persists one parquet file per alerted token under the alerts
// directory and, when S3 storage is enabled, mirrors it to the bucket.
type AlertHistory struct {
	mu       sync.Mutex
	dir      string
	s3Client *s3.Client
	s3Cfg    config.S3Config
	log      *logger.Log
}

func NewAlertHistory(dir string, s3Client *s3.Client, s3Cfg config.S3Config) (*AlertHistory, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create alerts directory: %w", err)
	}
	return &AlertHistory{
		dir:      dir,
		s3Client: s3Client,
		s3Cfg:    s3Cfg,
		log:      logger.GetLogger(),
	}, nil
}

func (h *AlertHistory) Record(ctx context.Context, payload *models.AlertPayload) error {
	record := buildAlertRecord(payload)

	data, err := encodeParquet(record)
	if err != nil {
		return fmt.Errorf("failed to create parquet file: %w", err)
	}

	filename := fmt.Sprintf("%s_%s.parquet",
		payload.Candidate.TokenAddress,
		payload.AlertedAt.UTC().Format("20060102150405"))

	h.mu.Lock()
	err = os.WriteFile(filepath.Join(h.dir, filename), data, 0o644)
	h.mu.Unlock()
	if err != nil {
		return fmt.Errorf("failed to write alert file: %w", err)
	}

	if h.s3Client != nil {
		key := filepath.ToSlash(filepath.Join(
			h.s3Cfg.Prefix,
			"alerted_tokens",
			fmt.Sprintf("date=%s", payload.AlertedAt.UTC().Format("2006-01-02")),
			filename,
		))
		_, err := h.s3Client.PutObject(ctx, &s3.PutObjectInput{
			Bucket: aws.String(h.s3Cfg.Bucket),
			Key:    aws.String(key),
			Body:   bytes.NewReader(data),
		})
		if err != nil {
			h.log.WithComponent("alert_history").WithError(err).WithFields(logger.Fields{
				"bucket": h.s3Cfg.Bucket,
				"s3_key": key,
			}).Warn("failed to upload alert file to S3")
		}
	}

	h.log.WithComponent("alert_history").WithFields(logger.Fields{
		"token": payload.Candidate.TokenAddress,
		"file":  filename,
	}).Info("alert recorded")
	return nil
}

func buildAlertRecord(payload *models.AlertPayload) AlertRecord {
	hour := payload.Metrics.Window(models.Window1h)
	day := payload.Metrics.Window(models.Window24h)

	record := AlertRecord{
		AlertID:       uuid.NewString(),
		TokenAddress:  payload.Candidate.TokenAddress,
		Symbol:        payload.Metadata.Symbol,
		Name:          payload.Metadata.Name,
		PoolAddress:   payload.PoolAddress,
		Venue:         payload.Venue,
		Holders:       int32(payload.Metrics.HolderStats.TotalHolders),
		BuyVolume1h:   hour.BuyVolumeUSD,
		BuyVolume24h:  day.BuyVolumeUSD,
		SellVolume24h: day.SellVolumeUSD,
		AlertedAt:     payload.AlertedAt.Unix(),
	}
	if payload.Candidate.PriceUSD != nil {
		record.PriceUSD = *payload.Candidate.PriceUSD
	}
	if payload.Candidate.LiquidityUSD != nil {
		record.LiquidityUSD = *payload.Candidate.LiquidityUSD
	}
	if payload.Candidate.FDVUSD != nil {
		record.McapUSD = *payload.Candidate.FDVUSD
	}
	return record
}

func encodeParquet(record AlertRecord) ([]byte, error) {
	fw := newMemoryFile()

	pw, err := writer.NewParquetWriter(fw, new(AlertRecord), 1)
	if err != nil {
		return nil, fmt.Errorf("failed to create parquet writer: %w", err)
	}
	if err := pw.Write(record); err != nil {
		return nil, fmt.Errorf("failed to write parquet record: %w", err)
	}
	if err := pw.WriteStop(); err != nil {
		return nil, fmt.Errorf("failed to finalize parquet file: %w", err)
	}

	return fw.Bytes(), nil
}
