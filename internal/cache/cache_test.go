package cache

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketbrowser/internal/kvstore"
	"marketbrowser/internal/metrics"
	tu "marketbrowser/internal/testutil"
)

type overview map[string]string

func TestCache_TTLBoundary(t *testing.T) {
	clock := tu.NewClock(time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC))
	c := New(kvstore.NewMemoryStore(), WithClock(clock.Now))
	ctx := context.Background()
	ttl := 10 * time.Second

	c.Set(ctx, "OVERVIEW_TCS", overview{"Name": "Tata Consultancy Services"})

	clock.Advance(ttl - time.Millisecond)
	var got overview
	require.True(t, c.Get(ctx, "OVERVIEW_TCS", ttl, &got), "entry younger than ttl must be returned")
	assert.Equal(t, "Tata Consultancy Services", got["Name"])

	clock.Advance(time.Millisecond)
	assert.True(t, c.Get(ctx, "OVERVIEW_TCS", ttl, &got), "entry exactly ttl old is still fresh")

	clock.Advance(time.Millisecond)
	assert.False(t, c.Get(ctx, "OVERVIEW_TCS", ttl, &got), "entry older than ttl must be absent")
}

func TestCache_SetOverwrites(t *testing.T) {
	clock := tu.NewClock(time.Unix(1000, 0))
	c := New(kvstore.NewMemoryStore(), WithClock(clock.Now))
	ctx := context.Background()

	c.Set(ctx, "k", overview{"v": "old"})
	clock.Advance(time.Hour)
	c.Set(ctx, "k", overview{"v": "new"})

	var got overview
	require.True(t, c.Get(ctx, "k", time.Minute, &got), "overwrite refreshes the write time")
	assert.Equal(t, "new", got["v"])
}

func TestCache_Missing(t *testing.T) {
	c := New(kvstore.NewMemoryStore())
	var got overview
	assert.False(t, c.Get(context.Background(), "nope", time.Hour, &got))
}

func TestCache_CorruptEntries(t *testing.T) {
	store := kvstore.NewMemoryStore()
	c := New(store)
	ctx := context.Background()

	tests := []struct {
		name string
		raw  string
	}{
		{"not json", `{{{`},
		{"no value", `{"t": 1}`},
		{"null value", `{"t": 99999999999999, "v": null}`},
		{"wrong shape", `{"t": 99999999999999, "v": [1, 2, 3]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, store.Set(ctx, "k", []byte(tt.raw)))
			var got overview
			assert.False(t, c.Get(ctx, "k", time.Hour, &got))
		})
	}
}

func TestCache_StorageFailureIsSilent(t *testing.T) {
	c := New(tu.FailingStore{})
	ctx := context.Background()

	assert.NotPanics(t, func() {
		c.Set(ctx, "k", overview{"a": "b"})
	})
	var got overview
	assert.False(t, c.Get(ctx, "k", time.Hour, &got))
}

func TestCache_UnserializableValue(t *testing.T) {
	store := kvstore.NewMemoryStore()
	c := New(store)

	c.Set(context.Background(), "k", make(chan int))

	_, err := store.Get(context.Background(), "k")
	assert.ErrorIs(t, err, kvstore.ErrNotFound)
}

func TestCache_Metrics(t *testing.T) {
	m := metrics.New(nil)
	c := New(kvstore.NewMemoryStore(), WithMetrics(m))
	ctx := context.Background()

	var got overview
	c.Get(ctx, "k", time.Hour, &got)
	c.Set(ctx, "k", overview{"a": "b"})
	c.Get(ctx, "k", time.Hour, &got)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheLookups.WithLabelValues("hit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheLookups.WithLabelValues("miss")))
}
