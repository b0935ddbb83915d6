package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yo2158/break/config"
)

func freePort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port
}

func TestAppStartAndShutdown(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Server.Port = freePort(t)
	cfg.NATS.StoreDir = t.TempDir()
	require.NoError(t, cfg.Validate())

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	app, err := NewApp(cfg, "", logger)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, app.Start(ctx))

	// the HTTP listener comes up asynchronously
	base := fmt.Sprintf("http://%s", cfg.Server.Addr())
	var resp *http.Response
	require.Eventually(t, func() bool {
		var err error
		resp, err = http.Get(base + "/health")
		return err == nil
	}, 5*time.Second, 50*time.Millisecond)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	mresp, err := http.Get(base + "/metrics")
	require.NoError(t, err)
	defer mresp.Body.Close()
	assert.Equal(t, http.StatusOK, mresp.StatusCode)

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	app.Shutdown(shutdownCtx)

	_, err = http.Get(base + "/health")
	assert.Error(t, err)
}

func TestLoadConfigExplicitPath(t *testing.T) {
	path := t.TempDir() + "/break.yaml"
	cfg := config.DefaultConfig()
	cfg.Server.Port = 9999
	require.NoError(t, cfg.SaveToFile(path))

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	loaded, cfgPath, err := loadConfig(path, logger)
	require.NoError(t, err)
	assert.Equal(t, path, cfgPath)
	assert.Equal(t, 9999, loaded.Server.Port)

	// defaults fill whatever the file omits
	assert.Equal(t, config.DefaultConfig().Debate.Round1Dwell, loaded.Debate.Round1Dwell)
}

func TestVersionCommand(t *testing.T) {
	cmd := rootCmd()
	cmd.SetArgs([]string{"version"})
	require.NoError(t, cmd.Execute())
}
