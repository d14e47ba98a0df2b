package logging

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	tmpDir := t.TempDir()

	logger, err := New(&Config{
		Level: "debug",
		Dir:   tmpDir,
		File:  "test.log",
	})

	assert.NoError(t, err)
	assert.NotNil(t, logger)

	err = logger.Close()
	assert.NoError(t, err)
}

func TestLogger_Info(t *testing.T) {
	tmpDir := t.TempDir()

	logger, err := New(&Config{
		Level: "info",
		Dir:   tmpDir,
		File:  "info.log",
	})
	require.NoError(t, err)
	defer logger.Close()

	testMsg := "test info message"
	logger.Info(testMsg)

	time.Sleep(10 * time.Millisecond)

	content, err := os.ReadFile(filepath.Join(tmpDir, "info.log"))
	require.NoError(t, err)
	assert.Contains(t, string(content), testMsg)
}

func TestLogger_InfoWithFormat(t *testing.T) {
	tmpDir := t.TempDir()

	logger, err := New(&Config{
		Level: "debug",
		Dir:   tmpDir,
		File:  "format.log",
	})
	require.NoError(t, err)
	defer logger.Close()

	logger.Info("stored %s (%d bytes)", "cat.jpg", 1234)

	time.Sleep(10 * time.Millisecond)

	content, err := os.ReadFile(filepath.Join(tmpDir, "format.log"))
	require.NoError(t, err)
	assert.Contains(t, string(content), "stored cat.jpg (1234 bytes)")
}

func TestLogger_InfoTag(t *testing.T) {
	tmpDir := t.TempDir()

	logger, err := New(&Config{
		Level: "debug",
		Dir:   tmpDir,
		File:  "tag.log",
	})
	require.NoError(t, err)
	defer logger.Close()

	logger.InfoTag("STORE", "wrote cat.jpg")
	logger.WarnTag("FETCH", "retrying download")

	time.Sleep(10 * time.Millisecond)

	content, err := os.ReadFile(filepath.Join(tmpDir, "tag.log"))
	require.NoError(t, err)
	assert.Contains(t, string(content), "[STORE] wrote cat.jpg")
	assert.Contains(t, string(content), "[FETCH] retrying download")
}

func TestLogger_NilReceiverTagHelpers(t *testing.T) {
	var logger *Logger

	// Must not panic.
	logger.InfoTag("HTTP", "message")
	logger.DebugTag("HTTP", "message")
	logger.WarnTag("HTTP", "message")
	logger.ErrorTag("HTTP", "message")
}

func TestLogger_LevelFiltering(t *testing.T) {
	tmpDir := t.TempDir()

	logger, err := New(&Config{
		Level: "error",
		Dir:   tmpDir,
		File:  "filter.log",
	})
	require.NoError(t, err)
	defer logger.Close()

	logger.Debug("this should not appear")
	logger.Info("this should not appear either")
	logger.Warn("this should not appear")
	logger.Error("this should appear")

	time.Sleep(10 * time.Millisecond)

	content, err := os.ReadFile(filepath.Join(tmpDir, "filter.log"))
	require.NoError(t, err)
	assert.NotContains(t, string(content), "this should not appear")
	assert.Contains(t, string(content), "this should appear")
}

func TestLogger_ConcurrentLogging(t *testing.T) {
	tmpDir := t.TempDir()

	logger, err := New(&Config{
		Level: "debug",
		Dir:   tmpDir,
		File:  "concurrent.log",
	})
	require.NoError(t, err)
	defer logger.Close()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			logger.Info("concurrent message number %d", idx)
		}(i)
	}
	wg.Wait()

	time.Sleep(50 * time.Millisecond)

	content, err := os.ReadFile(filepath.Join(tmpDir, "concurrent.log"))
	require.NoError(t, err)

	count := strings.Count(string(content), "concurrent message number")
	assert.Equal(t, 10, count)
}

func TestFormatLog(t *testing.T) {
	tests := []struct {
		tag      string
		message  string
		expected string
	}{
		{"BOOT", "server started", "[BOOT] server started"},
		{"", "plain message", "plain message"},
		{"HTTP", "[HTTP] already tagged", "[HTTP] already tagged"},
		{" STORE ", " padded ", "[STORE] padded"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, FormatLog(tt.tag, tt.message), "tag=%q msg=%q", tt.tag, tt.message)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"ERROR", slog.LevelError},
		{"unknown", slog.LevelInfo},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, parseLevel(tt.input), "input: %s", tt.input)
	}
}

func TestContainsFormatPlaceholders(t *testing.T) {
	tests := []struct {
		input    string
		expected bool
	}{
		{"hello world", false},
		{"hello %s", true},
		{"value is %d", true},
		{"no placeholders here", false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, containsFormatPlaceholders(tt.input), "input: %s", tt.input)
	}
}
