package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/driftsync/syncshell/internal/constants"
)

// FileSink writes zerolog JSON lines to a size-rotated log file.
type FileSink struct {
	mu      sync.Mutex
	file    *lumberjack.Logger
	enabled bool
}

// NewFileSink opens a rotating log file at path, creating its directory.
func NewFileSink(path string) (*FileSink, error) {
	if path == "" {
		return nil, fmt.Errorf("log file path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	return &FileSink{
		file: &lumberjack.Logger{
			Filename:   path,
			MaxSize:    constants.LogFileMaxSizeMB,
			MaxBackups: constants.LogFileMaxBackups,
			MaxAge:     constants.LogFileMaxAgeDays,
			Compress:   true,
		},
		enabled: true,
	}, nil
}

// Write implements io.Writer.
func (s *FileSink) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.enabled {
		return len(p), nil
	}
	return s.file.Write(p)
}

// WriteLevel implements zerolog.LevelWriter.
func (s *FileSink) WriteLevel(_ zerolog.Level, p []byte) (int, error) {
	return s.Write(p)
}

// SetEnabled pauses or resumes file output without closing the file.
func (s *FileSink) SetEnabled(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.enabled = enabled
}

// Filename returns the active log file path.
func (s *FileSink) Filename() string {
	return s.file.Filename
}

// Close closes the underlying file.
func (s *FileSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.file.Close()
}
