package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryLedger(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryLedger(time.Minute)
	now := time.Now()
	l.now = func() time.Time { return now }

	first, err := l.MarkProcessed(ctx, "evt_1")
	require.NoError(t, err)
	assert.True(t, first)

	again, err := l.MarkProcessed(ctx, "evt_1")
	require.NoError(t, err)
	assert.False(t, again)

	require.NoError(t, l.Forget(ctx, "evt_1"))
	retry, _ := l.MarkProcessed(ctx, "evt_1")
	assert.True(t, retry)

	now = now.Add(2 * time.Minute)
	expired, _ := l.MarkProcessed(ctx, "evt_1")
	assert.True(t, expired)
}

func TestMemoryLedgerSweep(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryLedger(time.Minute)
	now := time.Now()
	l.now = func() time.Time { return now }

	_, _ = l.MarkProcessed(ctx, "evt_old")
	now = now.Add(30 * time.Second)
	_, _ = l.MarkProcessed(ctx, "evt_new")
	now = now.Add(45 * time.Second)

	assert.Equal(t, 1, l.Sweep())
	assert.Len(t, l.seen, 1)
	again, _ := l.MarkProcessed(ctx, "evt_new")
	assert.False(t, again)
}
