package logger_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ava-assistant/avamem-go/pkg/logger"
)

func restoreLogrus(t *testing.T) {
	t.Cleanup(func() {
		logrus.SetOutput(os.Stderr)
		logrus.SetLevel(logrus.InfoLevel)
		logrus.SetFormatter(&logrus.TextFormatter{})
	})
}

func TestInitTruncatesFileWithBanner(t *testing.T) {
	restoreLogrus(t)
	path := filepath.Join(t.TempDir(), "logs", "ava.log")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte("previous run\n"), 0644))

	closer, err := logger.Init(logger.Config{Level: "debug", Format: "json", File: path})
	require.NoError(t, err)

	logger.New("test").WithTurn("42").Info("hello")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "--- AVA MEMORY START ("))
	assert.Contains(t, lines[1], `"message":"hello"`)
	assert.Contains(t, lines[1], `"turn_id":"42"`)
	assert.Contains(t, lines[1], `"service":"test"`)
	assert.Equal(t, logrus.DebugLevel, logrus.GetLevel())
}

func TestInitRejectsBadSettings(t *testing.T) {
	restoreLogrus(t)

	_, err := logger.Init(logger.Config{Level: "loud"})
	assert.Error(t, err)

	_, err = logger.Init(logger.Config{Format: "xml"})
	assert.Error(t, err)
}

func TestBanner(t *testing.T) {
	ts := time.Date(2024, 5, 1, 13, 4, 5, 0, time.UTC)
	assert.Equal(t, "--- AVA MEMORY START (2024-05-01 13:04:05) ---", logger.Banner(ts))
}

func TestWithFieldDoesNotMutateParent(t *testing.T) {
	base := logger.Discard()
	child := base.WithField("k", "v")

	assert.NotContains(t, base.Entry().Data, "k")
	assert.Equal(t, "v", child.Entry().Data["k"])
	assert.Equal(t, "store", base.Component("store").Data["component"])
}
