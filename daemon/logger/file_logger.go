package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/natefinch/lumberjack.v2"
)

// FileConfig configures rotated on-disk logging.
type FileConfig struct {
	Filename   string
	MaxSize    int // megabytes
	MaxBackups int
	MaxAge     int // days
	Compress   bool
}

// DefaultFileConfig returns a conservative rotation policy for a
// host-resident daemon: small files, a handful of backups, short
// retention.
func DefaultFileConfig(logsDir string) FileConfig {
	return FileConfig{
		Filename:   filepath.Join(logsDir, "sysops-agent.log"),
		MaxSize:    10,
		MaxBackups: 3,
		MaxAge:     7,
		Compress:   true,
	}
}

// SetupFile creates the log directory and returns a writer that writes
// to both stdout and a rotated file. It does not touch the global
// logger itself; the caller passes the writer to Configure.
func SetupFile(cfg FileConfig) (io.Writer, error) {
	dir := filepath.Dir(cfg.Filename)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("logger: create log directory %s: %w", dir, err)
	}

	rotated := &lumberjack.Logger{
		Filename:   cfg.Filename,
		MaxSize:    cfg.MaxSize,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAge,
		Compress:   cfg.Compress,
	}

	return io.MultiWriter(os.Stdout, rotated), nil
}
