package logging_test

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/job-tracker/config"
	"github.com/warp/job-tracker/logging"
)

func TestNew_JSONToConsoleAndFile(t *testing.T) {
	var console bytes.Buffer
	file := filepath.Join(t.TempDir(), "tracker.log")

	logger, err := logging.NewWithWriter(config.LogConfig{Level: "debug", Format: "json", File: file, MaxSizeMB: 1}, &console)
	require.NoError(t, err)
	logger.WithFields(logrus.Fields{"user_id": 7}).Debug("week report built")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(console.Bytes(), &entry))
	assert.Equal(t, "week report built", entry["msg"])
	assert.Equal(t, float64(7), entry["user_id"])

	written, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Contains(t, string(written), "week report built")
}

func TestNew_LevelFilters(t *testing.T) {
	var console bytes.Buffer
	logger, err := logging.NewWithWriter(config.LogConfig{Level: "warn"}, &console)
	require.NoError(t, err)

	logger.Info("hidden")
	logger.Warn("shown")

	assert.NotContains(t, console.String(), "hidden")
	assert.Contains(t, console.String(), "shown")
}

func TestNew_BadLevel(t *testing.T) {
	_, err := logging.New(config.LogConfig{Level: "loud"})
	assert.Error(t, err)
}
