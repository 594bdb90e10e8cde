package mission

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunner_ExpiresByTicker(t *testing.T) {
	expired := make(chan Snapshot, 1)
	l := NewLifecycle(LifecycleConfig{
		Context:   ContextAlarm,
		TimeLimit: 50 * time.Millisecond,
		OnExpired: func(s Snapshot) { expired <- s },
	})
	r := NewRunner(l, 10*time.Millisecond)
	r.Start(context.Background())
	defer r.Stop()

	select {
	case s := <-expired:
		assert.Equal(t, StatusExpired, s.Status)
	case <-time.After(2 * time.Second):
		t.Fatal("миссия не истекла")
	}
}

func TestRunner_CompleteAndRetry(t *testing.T) {
	l := NewLifecycle(LifecycleConfig{Context: ContextPreview, TimeLimit: time.Hour})
	r := NewRunner(l, time.Hour)
	r.Start(context.Background())

	ctx := context.Background()
	assert.ErrorIs(t, r.Retry(ctx), ErrNotExpired)

	r.Interact()
	r.Complete()
	// Retry проходит через тот же цикл, значит предыдущие сигналы уже обработаны
	assert.ErrorIs(t, r.Retry(ctx), ErrNotExpired)
	assert.Equal(t, StatusCompleted, r.Snapshot().Status)
	assert.Equal(t, 1, r.Snapshot().Interactions)

	r.Stop()
	<-r.Done()
	assert.ErrorIs(t, r.Retry(ctx), ErrRunnerStopped)
	r.Complete()
}

func TestRunner_SignalsBeforeStartDoNotBlock(t *testing.T) {
	l := NewLifecycle(LifecycleConfig{Context: ContextPreview, TimeLimit: time.Hour})
	r := NewRunner(l, time.Hour)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 100; i++ {
			r.Interact()
		}
		r.Complete()
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Interact до Start заблокировался")
	}
	assert.ErrorIs(t, r.Retry(context.Background()), ErrRunnerNotStarted)
	assert.Equal(t, StatusInProgress, r.Snapshot().Status)

	r.Start(context.Background())
	defer r.Stop()
	r.Complete()
	assert.ErrorIs(t, r.Retry(context.Background()), ErrNotExpired)
	assert.Equal(t, StatusCompleted, r.Snapshot().Status)
}

func TestRunner_StopBeforeStart(t *testing.T) {
	r := NewRunner(NewLifecycle(LifecycleConfig{}), 0)
	r.Stop()

	select {
	case <-r.Done():
	case <-time.After(time.Second):
		t.Fatal("Done не закрыт")
	}
	r.Start(context.Background())
	r.Interact()
	assert.ErrorIs(t, r.Retry(context.Background()), ErrRunnerNotStarted)
}

func TestRunner_StopViaContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	r := NewRunner(NewLifecycle(LifecycleConfig{}), 0)
	r.Start(ctx)
	cancel()

	select {
	case <-r.Done():
	case <-time.After(time.Second):
		require.Fail(t, "цикл не остановился")
	}
}
