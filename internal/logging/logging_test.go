package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNew_Console(t *testing.T) {
	var buf bytes.Buffer
	logger, cleanup, err := New(Options{Level: "info", Console: &buf})
	require.NoError(t, err)

	logger.Debug("hidden")
	logger.Info("assessment started", zap.String("session_id", "s1"))
	cleanup()

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "assessment started")
	assert.Contains(t, out, "s1")
}

func TestNew_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "englevel.log")
	logger, cleanup, err := New(Options{Level: "debug", File: path, Quiet: true})
	require.NoError(t, err)

	logger.Debug("selected pool", zap.Int("questions", 39))
	cleanup()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	line := strings.TrimSpace(string(data))

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(line), &entry))
	assert.Equal(t, "DEBUG", entry["level"])
	assert.Equal(t, "selected pool", entry["msg"])
	assert.Equal(t, float64(39), entry["questions"])
}

func TestNew_Levels(t *testing.T) {
	tests := []struct {
		level   string
		wantErr bool
	}{
		{"", false},
		{"debug", false},
		{"warn", false},
		{"ERROR", false},
		{"loud", true},
	}
	for _, tt := range tests {
		_, cleanup, err := New(Options{Level: tt.level, Quiet: true})
		if (err != nil) != tt.wantErr {
			t.Errorf("New(level=%q) error = %v, wantErr %v", tt.level, err, tt.wantErr)
		}
		if cleanup != nil {
			cleanup()
		}
	}
}
