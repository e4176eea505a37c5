package logging

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seenimoa/nsequant/internal/config"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"chatty", slog.LevelInfo},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseLevel(tt.input), "ParseLevel(%q)", tt.input)
	}
}

func TestNewWriterFormats(t *testing.T) {
	var buf bytes.Buffer
	log := NewWriter(&buf, config.LoggingConfig{Level: "info", Format: "json"})
	log.Info("store loaded", "rows", 42)
	assert.Contains(t, buf.String(), `"rows":42`)

	buf.Reset()
	log = NewWriter(&buf, config.LoggingConfig{Level: "info", Format: "text"})
	log.Info("store loaded", "rows", 42)
	assert.Contains(t, buf.String(), "rows=42")

	buf.Reset()
	log.Debug("hidden")
	assert.Empty(t, buf.String(), "debug must be filtered at info level")
}

func TestNewFileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "nsequant.log")
	log, closer, err := New(config.LoggingConfig{
		Level:     "debug",
		Format:    "text",
		Output:    "file",
		File:      path,
		MaxSizeMB: 1,
	})
	require.NoError(t, err)

	log.Debug("cache written", "path", "prices.nsqc")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), "cache written"))
}

func TestNewRejectsBadOutput(t *testing.T) {
	_, _, err := New(config.LoggingConfig{Output: "syslog"})
	assert.Error(t, err)

	_, _, err = New(config.LoggingConfig{Output: "file"})
	assert.Error(t, err, "file output without a path")
}

func TestNewConsoleStreams(t *testing.T) {
	tests := []struct {
		output     string
		wantStdout bool
	}{
		{"", false},
		{"stderr", false},
		{"STDOUT", true},
	}
	for _, tt := range tests {
		t.Run("output="+tt.output, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			log, closer, err := NewConsole(config.LoggingConfig{Level: "info", Output: tt.output}, &stdout, &stderr)
			require.NoError(t, err)
			defer closer.Close()

			log.Info("price store loaded")
			if tt.wantStdout {
				assert.Contains(t, stdout.String(), "price store loaded")
				assert.Empty(t, stderr.String())
			} else {
				assert.Empty(t, stdout.String(), "stdout is reserved for results")
				assert.Contains(t, stderr.String(), "price store loaded")
			}
		})
	}
}

func TestNewConsoleBothKeepsStdoutClean(t *testing.T) {
	var stdout, stderr bytes.Buffer
	path := filepath.Join(t.TempDir(), "nsequant.log")
	log, closer, err := NewConsole(config.LoggingConfig{Level: "info", Output: "both", File: path}, &stdout, &stderr)
	require.NoError(t, err)

	log.Info("raw bhavcopy parsed")
	require.NoError(t, closer.Close())

	assert.Empty(t, stdout.String())
	assert.Contains(t, stderr.String(), "raw bhavcopy parsed")
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "raw bhavcopy parsed")
}

func TestOrNop(t *testing.T) {
	assert.NotNil(t, OrNop(nil))
	l := Nop()
	assert.Same(t, l, OrNop(l))
}
