package schedule

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRunsTasksOnInterval(t *testing.T) {
	s := New()
	s.tick = 5 * time.Millisecond

	var fast, slow atomic.Int32
	s.Every(10 * time.Millisecond).Name("fast").Run(func() { fast.Add(1) })
	s.Every(time.Hour).Run(func() { slow.Add(1) })

	ctx, cancel := context.WithCancel(context.Background())
	s.Start(ctx)
	assert.Eventually(t, func() bool { return fast.Load() >= 3 }, time.Second, 5*time.Millisecond)
	cancel()
	s.Wait()

	assert.Equal(t, int32(1), slow.Load())
	assert.Equal(t, []string{"fast  [10ms]", "task-2  [1h0m0s]"}, s.List())
}

func TestWithoutOverlappingAndPanics(t *testing.T) {
	s := New()
	s.tick = 5 * time.Millisecond

	var started atomic.Int32
	release := make(chan struct{})
	s.Every(time.Millisecond).WithoutOverlapping().Run(func() {
		started.Add(1)
		<-release
	})

	var recovered atomic.Int32
	s.Every(time.Millisecond).Run(func() {
		recovered.Add(1)
		panic("boom")
	})

	ctx, cancel := context.WithCancel(context.Background())
	s.Start(ctx)
	assert.Eventually(t, func() bool { return recovered.Load() >= 3 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, int32(1), started.Load())

	cancel()
	close(release)
	s.Wait()
}
