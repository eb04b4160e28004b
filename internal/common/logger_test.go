package common

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input   string
		want    slog.Level
		wantErr bool
	}{
		{"debug", slog.LevelDebug, false},
		{"INFO", slog.LevelInfo, false},
		{"", slog.LevelInfo, false},
		{"warn", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"verbose", slog.LevelInfo, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseLevel(tt.input)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidConfig)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSetupLogger_WritesJSON(t *testing.T) {
	prev := slog.Default()
	defer slog.SetDefault(prev)

	var buf bytes.Buffer
	require.NoError(t, SetupLogger("info", "json", &buf))

	LogInfo("rates merged", Fields{"count": 3})
	LogDebug("hidden", nil)

	assert.Contains(t, buf.String(), `"msg":"rates merged"`)
	assert.Contains(t, buf.String(), `"count":3`)
	assert.NotContains(t, buf.String(), "hidden")
}

func TestSetupLogger_RejectsUnknownFormat(t *testing.T) {
	err := SetupLogger("info", "xml", &bytes.Buffer{})
	require.ErrorIs(t, err, ErrInvalidConfig)
}
