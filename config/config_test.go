package config_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"code.openwager.io/openwager/config"
	"code.openwager.io/openwager/logging"
)

func TestWriteAndReadRoundTrip(t *testing.T) {
	dir := t.TempDir()

	cfg := config.NewDefaultConfig()
	cfg.Execution.RequestQueueCapacity = 42
	cfg.Metrics.Port = 9999
	require.NoError(t, config.Write(dir, cfg))

	loaded, err := config.Read(dir)
	require.NoError(t, err)
	assert.Equal(t, 42, loaded.Execution.RequestQueueCapacity)
	assert.Equal(t, 9999, loaded.Metrics.Port)
	// untouched sections keep their defaults
	assert.Equal(t, cfg.Broker, loaded.Broker)
}

func TestReadMissingFileFails(t *testing.T) {
	_, err := config.Read(t.TempDir())
	require.Error(t, err)
}

func TestWatcherReloadsOnFileChange(t *testing.T) {
	dir := t.TempDir()
	cfg := config.NewDefaultConfig()
	require.NoError(t, config.Write(dir, cfg))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	w, err := config.NewWatcher(ctx, logging.NewTestLogger(), dir)
	require.NoError(t, err)
	assert.Equal(t, cfg.Metrics.Port, w.Get().Metrics.Port)

	updated := make(chan config.Config, 1)
	w.OnConfigUpdate(func(c config.Config) {
		select {
		case updated <- c:
		default:
		}
	})

	cfg.Metrics.Port = 9999
	require.NoError(t, config.Write(dir, cfg))

	select {
	case c := <-updated:
		assert.Equal(t, 9999, c.Metrics.Port)
		assert.Equal(t, 9999, w.Get().Metrics.Port)
	case <-time.After(5 * time.Second):
		t.Fatal("configuration update was not observed")
	}
}
