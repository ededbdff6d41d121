package utils

import (
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/natefinch/lumberjack"
	"github.com/rs/zerolog"
)

var (
	zeroLogger      *zerolog.Logger
	zeroLoggerLevel = zerolog.InfoLevel
	logOutput       io.Writer = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05.000"}
	logLock         sync.RWMutex
)

// SetLogVerbosity sets the verbosity of the global logger. The scale runs
// from 0 (silent) through 1 (error), 2 (warn), 3 (info), 4 (debug) up to
// 5 (trace).
func SetLogVerbosity(verbosity int) {
	logLock.Lock()
	defer logLock.Unlock()

	zeroLoggerLevel = verbosityLevel(verbosity)
	if zeroLogger != nil {
		l := zeroLogger.Level(zeroLoggerLevel)
		zeroLogger = &l
	}
}

func verbosityLevel(verbosity int) zerolog.Level {
	switch {
	case verbosity <= 0:
		return zerolog.Disabled
	case verbosity == 1:
		return zerolog.ErrorLevel
	case verbosity == 2:
		return zerolog.WarnLevel
	case verbosity == 3:
		return zerolog.InfoLevel
	case verbosity == 4:
		return zerolog.DebugLevel
	default:
		return zerolog.TraceLevel
	}
}

// AddLogFile redirects the global logger to a file rotated by size. The
// rotation parameters follow lumberjack: size in megabytes, number of kept
// backups and age in days.
func AddLogFile(filePath string, rotateSize, rotateCount, rotateMaxAge int) error {
	if err := os.MkdirAll(filepath.Dir(filePath), 0o755); err != nil {
		return err
	}
	logLock.Lock()
	defer logLock.Unlock()

	logOutput = &lumberjack.Logger{
		Filename:   filePath,
		MaxSize:    rotateSize,
		MaxBackups: rotateCount,
		MaxAge:     rotateMaxAge,
		Compress:   true,
	}
	zeroLogger = nil
	return nil
}

// SetLogOutput redirects the global logger to w.
func SetLogOutput(w io.Writer) {
	logLock.Lock()
	defer logLock.Unlock()

	logOutput = w
	zeroLogger = nil
}

// Logger returns the process-wide structured logger.
func Logger() *zerolog.Logger {
	logLock.RLock()
	l := zeroLogger
	logLock.RUnlock()
	if l != nil {
		return l
	}

	logLock.Lock()
	defer logLock.Unlock()
	if zeroLogger == nil {
		logger := zerolog.New(logOutput).
			Level(zeroLoggerLevel).
			With().
			Timestamp().
			Caller().
			Logger()
		zeroLogger = &logger
	}
	return zeroLogger
}
