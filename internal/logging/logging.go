// Package logging routes the standard logger to stderr and, optionally, to a
// size-rotated log file.
package logging

import (
	"io"
	"log"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/mrlokans/ne2keep/internal/config"
)

// Setup configures the global logger. The returned closer points the logger
// back at stderr and closes the log file, if any.
func Setup(cfg config.Log) io.Closer {
	return setup(log.Default(), os.Stderr, cfg)
}

func setup(logger *log.Logger, stderr io.Writer, cfg config.Log) io.Closer {
	logger.SetFlags(log.LstdFlags)

	if cfg.File == "" {
		logger.SetOutput(stderr)
		return nopCloser{}
	}

	file := &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
	}
	logger.SetOutput(io.MultiWriter(stderr, file))
	return &fileCloser{logger: logger, stderr: stderr, file: file}
}

type fileCloser struct {
	logger *log.Logger
	stderr io.Writer
	file   *lumberjack.Logger
}

// Close detaches the file before closing it; lumberjack reopens on write.
func (c *fileCloser) Close() error {
	c.logger.SetOutput(c.stderr)
	return c.file.Close()
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
