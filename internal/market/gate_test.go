package market

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	now    time.Time
	sleeps []time.Duration
}

func (f *fakeClock) Now() time.Time { return f.now }

func (f *fakeClock) Sleep(_ context.Context, d time.Duration) error {
	f.sleeps = append(f.sleeps, d)
	f.now = f.now.Add(d)
	return nil
}

func newFakeGate(interval time.Duration) (*Gate, *fakeClock) {
	clock := &fakeClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	g := NewGate(interval)
	g.now = clock.Now
	g.sleep = clock.Sleep
	return g, clock
}

func TestGateFirstDispatchDoesNotWait(t *testing.T) {
	g, clock := newFakeGate(DefaultMinInterval)

	require.NoError(t, g.Wait(context.Background()))
	assert.Empty(t, clock.sleeps)
	assert.Equal(t, clock.now, g.LastDispatch())
}

func TestGateSleepsForRemainder(t *testing.T) {
	g, clock := newFakeGate(DefaultMinInterval)

	require.NoError(t, g.Wait(context.Background()))
	clock.now = clock.now.Add(100 * time.Millisecond)
	require.NoError(t, g.Wait(context.Background()))

	require.Len(t, clock.sleeps, 1)
	assert.Equal(t, 233*time.Millisecond, clock.sleeps[0])
}

func TestGateNoWaitAfterInterval(t *testing.T) {
	g, clock := newFakeGate(DefaultMinInterval)

	require.NoError(t, g.Wait(context.Background()))
	clock.now = clock.now.Add(time.Second)
	require.NoError(t, g.Wait(context.Background()))

	assert.Empty(t, clock.sleeps)
}

func TestGateDispatchTimesAreSpaced(t *testing.T) {
	g, _ := newFakeGate(DefaultMinInterval)

	var stamps []time.Time
	for i := 0; i < 5; i++ {
		require.NoError(t, g.Wait(context.Background()))
		stamps = append(stamps, g.LastDispatch())
	}
	for i := 1; i < len(stamps); i++ {
		assert.GreaterOrEqual(t, stamps[i].Sub(stamps[i-1]), DefaultMinInterval)
	}
}

func TestGateHonoursCancellation(t *testing.T) {
	g := NewGate(time.Hour)
	require.NoError(t, g.Wait(context.Background()))
	before := g.LastDispatch()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := g.Wait(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, before, g.LastDispatch(), "a cancelled wait is not a dispatch")
}
