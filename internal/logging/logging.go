package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
)

// Config selects where logs go. An empty File discards everything, since the
// terminal is owned by the UI.
type Config struct {
	File   string
	Level  string
	Output io.Writer
}

// Init builds a logger for cfg. The returned close func releases the log file.
func Init(cfg Config) (*logrus.Logger, func(), error) {
	level := logrus.InfoLevel
	if cfg.Level != "" {
		parsed, err := logrus.ParseLevel(cfg.Level)
		if err != nil {
			return nil, nil, fmt.Errorf("log level: %w", err)
		}
		level = parsed
	}

	logger := logrus.New()
	logger.SetLevel(level)
	logger.SetFormatter(&logrus.TextFormatter{
		DisableColors: true,
		FullTimestamp: true,
		DisableQuote:  true,
		PadLevelText:  true,
	})

	closeFn := func() {}
	switch {
	case cfg.Output != nil:
		logger.SetOutput(cfg.Output)
	case cfg.File != "":
		if err := os.MkdirAll(filepath.Dir(cfg.File), 0o755); err != nil {
			return nil, nil, fmt.Errorf("log dir: %w", err)
		}
		file, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		logger.SetOutput(file)
		closeFn = func() { _ = file.Close() }
	default:
		logger.SetOutput(io.Discard)
	}
	return logger, closeFn, nil
}
