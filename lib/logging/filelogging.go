package logging

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/labstack/gommon/log"
	"github.com/ziflex/lecho/v3"
)

// Logger writes to stdout unless a log file path is configured. The file
// name gets the start date appended so restarts do not clobber old logs.
func Logger(logFilePath string) *lecho.Logger {
	logger := lecho.New(
		os.Stdout,
		lecho.WithLevel(log.DEBUG),
		lecho.WithTimestamp(),
		lecho.WithCaller(),
	)
	if logFilePath == "" {
		return logger
	}
	file, err := OpenLogFile(logFilePath, time.Now())
	if err != nil {
		logger.Errorf("failed to open log file, logging to stdout: %v", err)
		return logger
	}
	logger.SetOutput(file)
	return logger
}

func LogFileName(path string, now time.Time) string {
	stamp := now.Format("-2006-01-02")
	extension := filepath.Ext(path)
	if extension == "" {
		return path + stamp + ".log"
	}
	return strings.TrimSuffix(path, extension) + stamp + extension
}

func OpenLogFile(path string, now time.Time) (*os.File, error) {
	return os.OpenFile(LogFileName(path, now), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0664)
}
