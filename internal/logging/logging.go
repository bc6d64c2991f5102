// Package logging points the standard logger at stderr and, when
// configured, a size-rotated log file.
package logging

import (
	"alcyxob/fitlist/internal/config"
	"io"
	"log"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Setup configures the standard logger and returns the writer it uses so
// other loggers (gin) can share it.
func Setup(cfg config.LogConfig) io.Writer {
	var out io.Writer = os.Stderr
	if cfg.File != "" {
		out = io.MultiWriter(os.Stderr, &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   cfg.Compress,
		})
	}
	log.SetOutput(out)
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	return out
}
