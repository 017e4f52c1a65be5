package transport

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestAskRoundTripsReplyFromHandler exercises the basic Ask contract: the
// handler's return value and error are relayed to the caller.
func TestAskRoundTripsReplyFromHandler(t *testing.T) {
	bus := NewBus()
	bus.Register("echo", 4, func(msg interface{}) (interface{}, error) {
		return msg, nil
	})

	reply, err := bus.Ask(context.Background(), "echo", 42)
	require.NoError(t, err)
	assert.Equal(t, 42, reply)
}

// TestMailboxProcessesInFIFOOrder is spec.md §5's ordering requirement:
// messages addressed to the same mailbox are processed strictly one at a
// time, in the order they were delivered.
func TestMailboxProcessesInFIFOOrder(t *testing.T) {
	bus := NewBus()
	var mu sync.Mutex
	var order []int

	ready := make(chan struct{})
	bus.Register("seq", 16, func(msg interface{}) (interface{}, error) {
		n := msg.(int)
		mu.Lock()
		order = append(order, n)
		mu.Unlock()
		if n == 9 {
			close(ready)
		}
		return nil, nil
	})

	for i := 0; i < 10; i++ {
		require.NoError(t, bus.Send("seq", i))
	}

	select {
	case <-ready:
	case <-time.After(time.Second):
		t.Fatal("mailbox never drained")
	}

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, order, 10)
	for i, n := range order {
		assert.Equal(t, i, n)
	}
}

// TestAskUnknownAddressErrors covers the "no mailbox registered" path.
func TestAskUnknownAddressErrors(t *testing.T) {
	bus := NewBus()
	_, err := bus.Ask(context.Background(), "nobody", 1)
	assert.Error(t, err)
}

// TestAskRespectsContextCancellation ensures a canceled context unblocks an
// Ask waiting on a reply, rather than hanging forever.
func TestAskRespectsContextCancellation(t *testing.T) {
	bus := NewBus()
	block := make(chan struct{})
	bus.Register("slow", 1, func(msg interface{}) (interface{}, error) {
		<-block
		return nil, nil
	})
	defer close(block)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	_, err := bus.Ask(ctx, "slow", 1)
	assert.ErrorIs(t, err, context.Canceled)
}
