package logger

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestInit_Disabled(t *testing.T) {
	closer, err := Init(Options{Enabled: false})
	require.NoError(t, err)
	require.NoError(t, closer.Close())
	require.False(t, L.Enabled(t.Context(), slog.LevelError))
}

func TestInit_DisableAfterEnable(t *testing.T) {
	closer, err := Init(Options{Enabled: true, LogDir: t.TempDir()})
	require.NoError(t, err)
	require.True(t, L.Enabled(t.Context(), slog.LevelInfo))
	require.NoError(t, closer.Close())

	_, err = Init(Options{})
	require.NoError(t, err)
	for _, level := range []slog.Level{slog.LevelDebug, slog.LevelInfo, slog.LevelWarn, slog.LevelError} {
		require.False(t, L.Enabled(t.Context(), level), "level %v", level)
	}
}

func TestInit_WritesJSON(t *testing.T) {
	dir := t.TempDir()
	closer, err := Init(Options{Enabled: true, LogDir: dir, Level: slog.LevelDebug})
	require.NoError(t, err)
	t.Cleanup(func() { _, _ = Init(Options{}) })

	Debug("allocated", "width", 16, "height", 8)
	Warn("atlas nearly full")
	require.NoError(t, closer.Close())

	name := logPrefix + time.Now().Format(dateLayout) + logSuffix
	data, err := os.ReadFile(filepath.Join(dir, name))
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)

	var first map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	require.Equal(t, "allocated", first["msg"])
	require.Equal(t, "DEBUG", first["level"])
	require.EqualValues(t, 16, first["width"])
}

func TestInit_DefaultLevelIsInfo(t *testing.T) {
	dir := t.TempDir()
	closer, err := Init(Options{Enabled: true, LogDir: dir})
	require.NoError(t, err)
	t.Cleanup(func() { _, _ = Init(Options{}) })
	defer closer.Close()

	require.False(t, L.Enabled(t.Context(), slog.LevelDebug))
	require.True(t, L.Enabled(t.Context(), slog.LevelInfo))
}

func TestCleanOldLogs(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC)

	files := map[string]bool{
		"atlasctl-2025-01-01.log": false, // past retention
		"atlasctl-2025-03-01.log": true,
		"atlasctl-garbage.log":    true,
		"other-2020-01-01.log":    true,
	}
	for name := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0o644))
	}

	cleanOldLogs(dir, now)

	for name, keep := range files {
		_, err := os.Stat(filepath.Join(dir, name))
		if keep {
			require.NoError(t, err, name)
		} else {
			require.True(t, os.IsNotExist(err), name)
		}
	}
}
