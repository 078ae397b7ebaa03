package goroutine

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestManager_CollectsErrors(t *testing.T) {
	m := NewManager(4)
	errBoom := errors.New("boom")

	assert.True(t, m.Go(context.Background(), func(context.Context) error { return errBoom }))
	assert.True(t, m.Go(context.Background(), func(context.Context) error { return nil }))

	assert.ErrorIs(t, m.Wait(), errBoom)
}

func TestManager_RecoversPanic(t *testing.T) {
	m := NewManager(1)

	m.Go(context.Background(), func(context.Context) error { panic("oops") })

	assert.NoError(t, m.Wait())
}

func TestManager_ClosedRejects(t *testing.T) {
	m := NewManager(1)
	assert.NoError(t, m.Wait())

	assert.False(t, m.Go(context.Background(), func(context.Context) error { return nil }))
}

func TestManager_LimitReached(t *testing.T) {
	m := NewManager(1)
	release := make(chan struct{})

	assert.True(t, m.Go(context.Background(), func(context.Context) error {
		<-release
		return nil
	}))
	assert.False(t, m.Go(context.Background(), func(context.Context) error { return nil }))

	close(release)
	assert.NoError(t, m.Wait())
}

func TestManager_Tick(t *testing.T) {
	m := NewManager(1)
	ctx, cancel := context.WithCancel(context.Background())

	var runs atomic.Int32
	assert.True(t, m.Tick(ctx, "count", time.Millisecond, func(context.Context) error {
		if runs.Add(1) == 2 {
			panic("survives")
		}
		return errors.New("logged only")
	}))

	assert.Eventually(t, func() bool { return runs.Load() >= 3 }, time.Second, time.Millisecond)
	cancel()
	assert.NoError(t, m.Wait())
}

func TestManager_TickDisabled(t *testing.T) {
	assert.False(t, NewManager(1).Tick(context.Background(), "off", 0, nil))
}
