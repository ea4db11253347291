package event

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFireRunsListenersInOrder(t *testing.T) {
	bus := NewBus()
	var got []string
	bus.Listen("a", func(_ context.Context, p any) error { got = append(got, "1:"+p.(string)); return nil })
	bus.Listen("a", func(_ context.Context, p any) error { got = append(got, "2:"+p.(string)); return nil })
	bus.Listen("b", func(_ context.Context, p any) error { got = append(got, "b"); return nil })

	require.NoError(t, bus.Fire(context.Background(), "a", "x"))
	assert.Equal(t, []string{"1:x", "2:x"}, got)
	assert.True(t, bus.Has("b"))
	assert.False(t, bus.Has("c"))
}

func TestFireJoinsErrorsAndKeepsGoing(t *testing.T) {
	bus := NewBus()
	boom := errors.New("boom")
	called := false
	bus.Listen("a", func(context.Context, any) error { return boom })
	bus.Listen("a", func(context.Context, any) error { called = true; return nil })

	err := bus.Fire(context.Background(), "a", nil)
	assert.ErrorIs(t, err, boom)
	assert.True(t, called)
}
