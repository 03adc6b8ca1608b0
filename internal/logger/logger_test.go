package logger

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jobvyne/navguard/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.LoggingConfig
		wantErr bool
	}{
		{name: "console", cfg: config.LoggingConfig{Level: "info", Format: "console"}},
		{name: "json", cfg: config.LoggingConfig{Level: "debug", Format: "json", DisableStacktrace: true}},
		{name: "bad level", cfg: config.LoggingConfig{Level: "loud"}, wantErr: true},
		{name: "bad format", cfg: config.LoggingConfig{Level: "info", Format: "xml"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := NewLogger(&tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, l)
		})
	}
}

func TestNewLogger_AppendsToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "navguard.log")

	for _, msg := range []string{"first run", "second run"} {
		l, err := NewLogger(&config.LoggingConfig{Level: "info", Format: "json", OutputPath: path})
		require.NoError(t, err)
		l.Info(msg, zap.String("route", "login"))
		require.NoError(t, l.Sync())
	}

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	require.Len(t, lines, 2)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &entry))
	assert.Equal(t, "second run", entry["msg"])
	assert.Equal(t, "login", entry["route"])
	assert.Equal(t, "INFO", entry["level"])
}

func TestSetLogger(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	SetLogger(zap.New(core))
	t.Cleanup(func() { SetLogger(nil) })

	Info("navigation resolved", zap.String("outcome", "proceed"))
	Warn("check-auth failed")

	require.Equal(t, 2, logs.Len())
	assert.Equal(t, "navigation resolved", logs.All()[0].Message)
	assert.Equal(t, "proceed", logs.All()[0].ContextMap()["outcome"])
}
