package crank_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"code.openwager.io/openwager/config/encoding"
	"code.openwager.io/openwager/core/types"
	"code.openwager.io/openwager/crank"
	"code.openwager.io/openwager/logging"
)

func getTestCranker(t *testing.T) *crank.Cranker {
	t.Helper()
	cfg := crank.NewDefaultConfig()
	cfg.InitialInterval = encoding.Duration{Duration: time.Microsecond}
	cfg.MaxInterval = encoding.Duration{Duration: time.Millisecond}
	cfg.MaxRetries = 5
	return crank.New(logging.NewTestLogger(), cfg)
}

func TestRetrySucceedsAfterStaleAttempts(t *testing.T) {
	c := getTestCranker(t)

	calls := 0
	err := c.Retry(context.Background(), func() error {
		calls++
		if calls < 3 {
			return types.ErrMatchingPoolHeadMismatch
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetryStopsOnPermanentError(t *testing.T) {
	c := getTestCranker(t)

	final := errors.New("account binding failure")
	calls := 0
	err := c.Retry(context.Background(), func() error {
		calls++
		return final
	})
	assert.ErrorIs(t, err, final)
	assert.Equal(t, 1, calls)
}

func TestRetryGivesUpAfterMaxRetries(t *testing.T) {
	c := getTestCranker(t)

	calls := 0
	err := c.Retry(context.Background(), func() error {
		calls++
		return types.ErrCancelationLowLiquidity
	})
	assert.ErrorIs(t, err, types.ErrCancelationLowLiquidity)
	// initial attempt plus the configured retries
	assert.Equal(t, 6, calls)
}

func TestRetryHonoursContextCancellation(t *testing.T) {
	c := getTestCranker(t)

	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := c.Retry(ctx, func() error {
		calls++
		cancel()
		return types.ErrMatchingCrossLiquidityStale
	})
	assert.Error(t, err)
	assert.Equal(t, 1, calls)
}
