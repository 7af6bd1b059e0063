package logger

import (
	"testing"

	"github.com/sirupsen/logrus"
)

func TestConfigureAcceptsReportLevel(t *testing.T) {
	t.Setenv("LOG_LEVEL", "")

	log := Logger()
	if err := log.Configure("report", "json", "stdout", 0); err != nil {
		t.Fatalf("report level should configure cleanly, got: %v", err)
	}
	if got := log.Logger.GetLevel(); got != logrus.InfoLevel {
		t.Fatalf("report level should log at info, got %v", got)
	}
}

func TestConfigureParsesStandardLevels(t *testing.T) {
	t.Setenv("LOG_LEVEL", "")

	log := Logger()
	if err := log.Configure("debug", "text", "stdout", 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := log.Logger.GetLevel(); got != logrus.DebugLevel {
		t.Fatalf("expected debug level, got %v", got)
	}
}

func TestConfigureRejectsUnknownLevel(t *testing.T) {
	t.Setenv("LOG_LEVEL", "")

	log := Logger()
	if err := log.Configure("verbose", "json", "stdout", 0); err == nil {
		t.Fatalf("expected an unknown level to be rejected")
	}
}

func TestLoggerHonorsReportLevelFromEnv(t *testing.T) {
	t.Setenv("LOG_LEVEL", "report")

	log := Logger()
	if got := log.Logger.GetLevel(); got != logrus.InfoLevel {
		t.Fatalf("report level should log at info, got %v", got)
	}
}
