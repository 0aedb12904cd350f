package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	logger "github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"

	"traderelay/src/utils"
)

// Sink is the file side of the log output. It rotates at KST midnight and
// keeps RetentionDays worth of files.
type Sink struct {
	file *lumberjack.Logger

	mu    sync.Mutex
	timer *time.Timer
}

// Setup configures the process logger: level, text format and stderr output,
// plus the rotating file when config.File is set. Close the returned sink on
// shutdown.
func Setup(config Config) (*Sink, error) {
	level, err := logger.ParseLevel(strings.ToLower(config.Level))
	if err != nil {
		level = logger.DebugLevel
	}

	logger.SetLevel(level)
	logger.SetFormatter(&logger.TextFormatter{
		FullTimestamp: true,
	})

	if config.File == "" {
		logger.SetOutput(os.Stderr)
		return &Sink{}, nil
	}

	if err := os.MkdirAll(filepath.Dir(config.File), 0o755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}

	sink := &Sink{file: &lumberjack.Logger{
		Filename:  config.File,
		MaxSize:   config.MaxSizeMB,
		MaxAge:    config.RetentionDays,
		LocalTime: true,
		Compress:  config.Compress,
	}}
	logger.SetOutput(io.MultiWriter(os.Stderr, sink.file))
	sink.scheduleRotation(time.Now())

	return sink, nil
}

// nextMidnight returns the next 00:00 KST after now.
func nextMidnight(now time.Time) time.Time {
	local := now.In(utils.KST)
	return time.Date(local.Year(), local.Month(), local.Day()+1, 0, 0, 0, 0, utils.KST)
}

func (s *Sink) scheduleRotation(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.timer = time.AfterFunc(nextMidnight(now).Sub(now), func() {
		if err := s.file.Rotate(); err != nil {
			logger.WithError(err).Error("log rotation failed")
		}
		s.scheduleRotation(time.Now())
	})
}

func (s *Sink) Close() error {
	if s == nil || s.file == nil {
		return nil
	}

	s.mu.Lock()
	if s.timer != nil {
		s.timer.Stop()
	}
	s.mu.Unlock()

	logger.SetOutput(os.Stderr)
	return s.file.Close()
}
