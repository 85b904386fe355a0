package main

import (
	"context"
	"io"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/developer-mesh/mcp-github-server/internal/config"
	"github.com/developer-mesh/mcp-github-server/internal/mcp"
	"github.com/developer-mesh/mcp-github-server/internal/observability"
)

func TestParseFlags(t *testing.T) {
	opts, err := parseFlags(nil, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, ".env", opts.envFile)
	assert.Zero(t, opts.port)
	assert.False(t, opts.stdio)

	opts, err = parseFlags([]string{"-port", "8080", "-stdio", "-log-level", "debug"}, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, 8080, opts.port)
	assert.True(t, opts.stdio)
	assert.Equal(t, "debug", opts.logLevel)

	_, err = parseFlags([]string{"-bogus"}, io.Discard)
	assert.Error(t, err)
}

func TestLoadConfig(t *testing.T) {
	noEnvFile := filepath.Join(t.TempDir(), "missing.env")

	t.Run("missing token fails before listening", func(t *testing.T) {
		t.Setenv("GITHUB_TOKEN", "")
		_, err := loadConfig(&options{envFile: noEnvFile})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "GITHUB_TOKEN")
	})

	t.Run("flags override environment", func(t *testing.T) {
		t.Setenv("GITHUB_TOKEN", "ghp_test")
		t.Setenv("PORT", "4000")
		t.Setenv("LOG_LEVEL", "warn")

		cfg, err := loadConfig(&options{envFile: noEnvFile, port: 5000, logLevel: "debug"})
		require.NoError(t, err)
		assert.Equal(t, 5000, cfg.Server.Port)
		assert.Equal(t, "debug", cfg.Log.Level)
	})

	t.Run("half a credential pair is rejected", func(t *testing.T) {
		t.Setenv("GITHUB_TOKEN", "ghp_test")
		t.Setenv("AUTH_ID", "gateway")
		t.Setenv("AUTH_TOKEN", "")

		_, err := loadConfig(&options{envFile: noEnvFile})
		assert.Error(t, err)
	})
}

func TestNewLogger(t *testing.T) {
	cfg := &config.Config{Log: config.LogConfig{Level: "warn"}}

	logger, ok := newLogger(cfg).(*observability.StandardLogger)
	require.True(t, ok)
	assert.Equal(t, observability.LogLevelWarn, logger.Level())
}

func TestServe_StopsOnCancel(t *testing.T) {
	handler := mcp.NewHandler(nil, nil, mcp.Options{})
	srv := &http.Server{Addr: "127.0.0.1:0", Handler: http.NotFoundHandler()}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- serve(ctx, srv, handler, observability.NewNoopLogger(), time.Second)
	}()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not return after cancellation")
	}
}
