package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

// waitWithin reports whether Wait returns without error inside d.
func waitWithin(b *Budget, api API, d time.Duration) bool {
	ctx, cancel := context.WithTimeout(context.Background(), d)
	defer cancel()
	return b.Wait(ctx, api) == nil
}

func TestForQuota_AllowsOneThenBlocks(t *testing.T) {
	b := ForQuota(5)

	assert.True(t, waitWithin(b, APIAlphaVantage, 20*time.Millisecond), "first request should use the burst")
	assert.False(t, waitWithin(b, APIAlphaVantage, 20*time.Millisecond), "second request inside 12s should wait")
}

func TestUnlimited_NeverBlocks(t *testing.T) {
	b := Unlimited()
	for i := 0; i < 100; i++ {
		require.True(t, waitWithin(b, APIAlphaVantage, 20*time.Millisecond))
	}
}

func TestForQuota_NonPositiveIsUnlimited(t *testing.T) {
	b := ForQuota(0)
	assert.True(t, waitWithin(b, APIAlphaVantage, 20*time.Millisecond))
	assert.True(t, waitWithin(b, APIAlphaVantage, 20*time.Millisecond))
}

func TestWait_UnknownAPI(t *testing.T) {
	b := New(nil)
	assert.NoError(t, b.Wait(context.Background(), API("other")))
}

func TestWait_ContextCancelled(t *testing.T) {
	b := New(map[API]rate.Limit{APIAlphaVantage: rate.Every(time.Hour)})
	require.NoError(t, b.Wait(context.Background(), APIAlphaVantage))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	assert.Error(t, b.Wait(ctx, APIAlphaVantage))
}
