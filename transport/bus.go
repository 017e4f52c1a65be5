// Package transport provides the typed send/await-reply collaborator the
// core consumes to move messages between client drivers and repositories,
// and between repositories themselves (spec.md §6, "Transport stub").
//
// Grounded on FC/network/participant/conn.go and FC/network/coordinator/conn.go,
// which hand a node's rpc layer a named address and a byte payload; Bus keeps
// the same address-and-handler shape but drops the socket, since the
// WebSocket transport is an explicit Non-goal of the core (spec.md §1) and
// every repository in this system runs in the same process.
package transport

import (
	"context"
	"fmt"
	"sync"
)

// Address names one mailbox: a repository id or a client driver's reply
// address.
type Address string

// Handler processes one message delivered to an Address's mailbox and
// returns the reply (or error) for Ask-style delivery. Send-style delivery
// ignores the return value.
type Handler func(msg interface{}) (interface{}, error)

type request struct {
	msg   interface{}
	reply chan result
}

type result struct {
	value interface{}
	err   error
}

// Bus is an in-process, address-routed message bus. Each registered address
// gets its own bounded inbox and a single goroutine draining it in FIFO
// order -- the "task-per-repository plus a bounded inbound queue" shape
// spec.md §9 calls for. Handlers registered on different addresses run
// concurrently; within one address, messages are processed strictly one at
// a time.
type Bus struct {
	mu      sync.RWMutex
	inboxes map[Address]chan request
}

// NewBus returns an empty bus.
func NewBus() *Bus {
	return &Bus{inboxes: make(map[Address]chan request)}
}

// Register starts a mailbox for addr with the given queue depth, invoking
// handler for every message delivered to it. Registering the same address
// twice replaces its mailbox.
func (b *Bus) Register(addr Address, depth int, handler Handler) {
	inbox := make(chan request, depth)
	b.mu.Lock()
	b.inboxes[addr] = inbox
	b.mu.Unlock()
	go func() {
		for req := range inbox {
			v, err := handler(req.msg)
			if req.reply != nil {
				req.reply <- result{value: v, err: err}
			}
		}
	}()
}

func (b *Bus) lookup(addr Address) (chan request, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	inbox, ok := b.inboxes[addr]
	if !ok {
		return nil, fmt.Errorf("transport: no mailbox registered for %q", addr)
	}
	return inbox, nil
}

// Send delivers msg to addr's mailbox without waiting for it to be
// processed (do_send-style fire-and-forget, spec.md §5) -- used for
// IndepParticipants/CoordParticipants fanning Accept out to peers so one
// slow peer cannot block the others. The enqueue itself is synchronous,
// like Ask's, so two Sends from the same caller to the same address land in
// the order they were called; only once the mailbox is actually full does
// delivery fall back to a detached goroutine, trading order for
// non-blocking under backpressure.
func (b *Bus) Send(addr Address, msg interface{}) error {
	inbox, err := b.lookup(addr)
	if err != nil {
		return err
	}
	select {
	case inbox <- request{msg: msg}:
	default:
		go func() { inbox <- request{msg: msg} }()
	}
	return nil
}

// Ask delivers msg to addr's mailbox and blocks for its reply, or until ctx
// is done.
func (b *Bus) Ask(ctx context.Context, addr Address, msg interface{}) (interface{}, error) {
	inbox, err := b.lookup(addr)
	if err != nil {
		return nil, err
	}
	reply := make(chan result, 1)
	select {
	case inbox <- request{msg: msg, reply: reply}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	select {
	case r := <-reply:
		return r.value, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
