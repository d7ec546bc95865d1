package app

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/five82/shopfront/internal/config"
)

// NewLogger builds the process logger. The TUI owns the terminal, so
// entries go to the configured log file.
func NewLogger(cfg config.Config) (*logrus.Logger, io.Closer, error) {
	log := logrus.New()
	log.Level = cfg.LogLevel
	if cfg.LogFormat == "text" {
		log.Formatter = &logrus.TextFormatter{
			DisableColors:   true,
			FullTimestamp:   true,
			TimestampFormat: time.RFC3339Nano,
		}
	} else {
		log.Formatter = &logrus.JSONFormatter{
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyTime:  "timestamp",
				logrus.FieldKeyLevel: "severity",
				logrus.FieldKeyMsg:   "message",
			},
			TimestampFormat: time.RFC3339Nano,
		}
	}

	if cfg.LogFile == "" {
		log.Out = io.Discard
		return log, nopCloser{}, nil
	}
	if err := os.MkdirAll(filepath.Dir(cfg.LogFile), 0o755); err != nil {
		return nil, nil, fmt.Errorf("create log dir: %w", err)
	}
	f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	log.Out = f
	return log, f, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
