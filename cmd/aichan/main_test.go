package main

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nawka12/AiChanWeb/internal/config"
)

// clearUmask makes permission assertions deterministic.
func clearUmask(t *testing.T) {
	t.Helper()
	old := syscall.Umask(0)
	t.Cleanup(func() { syscall.Umask(old) })
}

func TestRun_Version(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, run(context.Background(), &out, &bytes.Buffer{}, []string{"version"}))

	assert.Contains(t, out.String(), "AiChan dev")
	assert.Contains(t, out.String(), "go_version:")
	assert.NotContains(t, out.String(), "uptime", "uptime is only in JSON output")
}

func TestRun_VersionJSON(t *testing.T) {
	for _, args := range [][]string{
		{"-o", "json", "version"},
		{"--output", "json", "version"},
		{"-o=json", "version"},
		{"version", "--output=json"},
	} {
		var out bytes.Buffer
		require.NoError(t, run(context.Background(), &out, &bytes.Buffer{}, args), "%v", args)

		var info map[string]string
		require.NoError(t, json.Unmarshal(out.Bytes(), &info), "%v", args)
		assert.Equal(t, "dev", info["version"])
		assert.NotEmpty(t, info["go_version"])
	}
}

func TestRun_Usage(t *testing.T) {
	for _, args := range [][]string{nil, {"-h"}, {"--help"}, {"-config", "x.yaml"}} {
		var out bytes.Buffer
		require.NoError(t, run(context.Background(), &out, &bytes.Buffer{}, args), "%v", args)
		assert.Contains(t, out.String(), "Usage: aichan", "%v", args)
		assert.Contains(t, out.String(), "serve")
	}
}

func TestRun_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"unknown command", []string{"frobnicate"}, "unknown command: frobnicate"},
		{"unknown flag", []string{"-x", "serve"}, "unknown flag: -x"},
		{"bad output format", []string{"-o", "yaml", "version"}, `unknown output format: "yaml"`},
		{"missing explicit config", []string{"-config", "/nonexistent/aichan.yaml", "serve"}, "config file not found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := run(context.Background(), &bytes.Buffer{}, &bytes.Buffer{}, tt.args)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestRunServe_InvalidConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	body := "listen:\n  port: 0\nanthropic:\n  env_file: " + filepath.Join(dir, ".env") + "\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	err := run(context.Background(), &bytes.Buffer{}, &bytes.Buffer{}, []string{"-config=" + path, "serve"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid config")
	assert.Contains(t, err.Error(), "listen.port")
}

func TestRunInit_FreshDirectory(t *testing.T) {
	clearUmask(t)
	dir := filepath.Join(t.TempDir(), "aichan")
	var buf bytes.Buffer

	require.NoError(t, runInit(&buf, dir))

	cfgInfo, err := os.Stat(filepath.Join(dir, "config.yaml"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o644), cfgInfo.Mode().Perm())

	envInfo, err := os.Stat(filepath.Join(dir, ".env"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), envInfo.Mode().Perm(), ".env holds the API key")

	assert.Contains(t, buf.String(), "✓")
	assert.NotContains(t, buf.String(), "skipped")
}

func TestRunInit_ExampleConfigIsValid(t *testing.T) {
	t.Setenv("BRAVE_API_KEY", "")
	dir := t.TempDir()
	require.NoError(t, runInit(&bytes.Buffer{}, dir))

	cfg, err := config.Load(filepath.Join(dir, "config.yaml"))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, config.Default(), cfg, "example file spells out the defaults")
}

func TestRunInit_DoesNotOverwrite(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envPath, []byte("ANTHROPIC_API_KEY=sk-keep\n"), 0o600))

	var buf bytes.Buffer
	require.NoError(t, runInit(&buf, dir))

	got, err := os.ReadFile(envPath)
	require.NoError(t, err)
	assert.Equal(t, "ANTHROPIC_API_KEY=sk-keep\n", string(got))
	assert.Contains(t, buf.String(), ".env (exists, skipped)")
}

func TestLoadConfig_FallsBackToDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("HOME", t.TempDir())

	cfg, path, err := loadConfig("")
	if path != "" {
		// A system-wide /etc/aichan/config.yaml was found.
		t.Skipf("config present at %s", path)
	}
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)
}

func TestNewLogger_Format(t *testing.T) {
	var buf bytes.Buffer
	newLogger(&buf, config.LevelTrace, "json").Log(context.Background(), config.LevelTrace, "hello", "k", "v")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "TRACE", rec["level"])
	assert.Equal(t, "hello", rec["msg"])

	buf.Reset()
	newLogger(&buf, slog.LevelInfo, "text").Debug("hidden")
	assert.Empty(t, buf.String())
}
