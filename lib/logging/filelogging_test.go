package logging

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLogFileName(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, "/var/log/lnpay-2024-03-01.log", LogFileName("/var/log/lnpay", now))
	assert.Equal(t, "/var/log/lnpay-2024-03-01.txt", LogFileName("/var/log/lnpay.txt", now))
}

func TestLoggerWritesToFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "server.log")
	logger := Logger(path)
	logger.Info("hello")

	matches, err := filepath.Glob(filepath.Join(dir, "server-*.log"))
	assert.NoError(t, err)
	assert.Len(t, matches, 1)
}
