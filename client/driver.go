// Package client is the driver side of the protocol: it assigns tids,
// fans Prepare out to every participant, relays votes through the
// Participants round, and aggregates GetResult across repositories
// (spec.md §4.7).
//
// Grounded on FC/network/coordinator/txn_handler.go, which assigns a tid,
// dispatches to every shard's participant manager, and aggregates a
// commit/abort decision from the votes it collects; the latch-guarded vote
// tally here is the same pattern FC/network/participant/msg.go's handler
// struct uses, built on the same github.com/viney-shih/go-lock mutex FC
// uses for its row-level latches (storage/cc_2pl_nw.go).
package client

import (
	"context"
	"sync"

	"github.com/viney-shih/go-lock"

	"granola/configs"
	"granola/model"
	"granola/repository"
	"granola/transport"
)

// Driver orchestrates Single, Independent, and Coordinated transactions. It
// holds no per-transaction state between calls -- every call is a fresh
// tid-assignment-plus-shared-timestamp round (spec.md §4.7).
type Driver struct {
	bus   *transport.Bus
	tids  *model.TxnIDGenerator
	clock configs.Clock
}

// New returns a driver that stamps tids with instanceID and reads its
// client-proposed timestamp from clock.
func New(bus *transport.Bus, instanceID uint64, clock configs.Clock) *Driver {
	return &Driver{bus: bus, tids: model.NewTxnIDGenerator(instanceID), clock: clock}
}

// Single sends one Prepare(Single) to addr, awaits its vote, then awaits
// its result (spec.md §4.7, "Single").
func (d *Driver) Single(ctx context.Context, addr transport.Address, ops []model.Operation) (model.Outcome, error) {
	tid := d.tids.Next()
	args := model.Arguments{Timestamp: d.clock.Now(), Operations: ops}
	if _, err := repository.AskVote(ctx, d.bus, addr, repository.PrepareSingle{TID: tid, Args: args}); err != nil {
		return model.Outcome{}, err
	}
	return repository.AskResult(ctx, d.bus, addr, tid)
}

// Independent runs the Independent-mode protocol: participants maps each
// repository address to the operations it must run for this transaction
// (spec.md §4.7, "Independent").
func (d *Driver) Independent(ctx context.Context, participants map[transport.Address][]model.Operation) (map[transport.Address]model.Outcome, error) {
	return d.distributed(ctx, model.Indep, participants)
}

// Coordinated runs the Coordinated-mode protocol: identical shape to
// Independent, with Coord-tagged messages and the contract that any
// Conflict vote leaves every participant's store untouched (spec.md §4.7,
// "Coordinated").
func (d *Driver) Coordinated(ctx context.Context, participants map[transport.Address][]model.Operation) (map[transport.Address]model.Outcome, error) {
	return d.distributed(ctx, model.Coord, participants)
}

func (d *Driver) distributed(ctx context.Context, mode model.Mode, participants map[transport.Address][]model.Operation) (map[transport.Address]model.Outcome, error) {
	tid := d.tids.Next()
	ts := d.clock.Now()

	addrs := make([]transport.Address, 0, len(participants))
	for addr := range participants {
		addrs = append(addrs, addr)
	}

	configs.TPrintf("TXN%s: submitting %s transaction across %d participants", tid, mode, len(addrs))

	votes, conflicted, err := d.prepareAll(ctx, mode, tid, ts, participants, addrs)
	if err != nil {
		return nil, err
	}

	// Every participant must observe the peer votes and finalize its local
	// state, win or lose -- issued even when the aggregate is already a
	// Conflict, so no participant is left holding locks or a half-decided
	// transaction (spec.md §4.7(b)).
	if err := d.fanParticipants(ctx, mode, tid, votes, addrs); err != nil {
		return nil, err
	}

	outcomes, resultErr := d.collectResults(ctx, tid, addrs)
	if conflicted && resultErr == nil {
		resultErr = model.ErrConflict
	}
	return outcomes, resultErr
}

// prepareAll fans Prepare(Indep|Coord) out to every participant in
// parallel and collects their votes. Each participant is told to expect
// len(addrs)-1 Accept messages: it never sends itself one (spec.md §4.6
// IndepParticipants skips the sender's own address).
func (d *Driver) prepareAll(ctx context.Context, mode model.Mode, tid model.TxnID, ts uint64, participants map[transport.Address][]model.Operation, addrs []transport.Address) (map[transport.Address]model.Vote, bool, error) {
	votes := make(map[transport.Address]model.Vote, len(addrs))
	latch := lock.NewCASMutex()
	conflicted := false
	peerCount := len(addrs) - 1

	var wg sync.WaitGroup
	var firstErr error
	for _, addr := range addrs {
		addr := addr
		wg.Add(1)
		go func() {
			defer wg.Done()
			args := model.Arguments{Timestamp: ts, Operations: participants[addr]}
			var vote model.Vote
			var err error
			if mode == model.Coord {
				vote, err = repository.AskVote(ctx, d.bus, addr, repository.PrepareCoord{TID: tid, Args: args, N: peerCount})
			} else {
				vote, err = repository.AskVote(ctx, d.bus, addr, repository.PrepareIndep{TID: tid, Args: args, N: peerCount})
			}

			latch.Lock()
			defer latch.Unlock()
			if err != nil {
				if firstErr == nil {
					firstErr = err
				}
				return
			}
			votes[addr] = vote
			if vote == model.Conflict {
				conflicted = true
			}
		}()
	}
	wg.Wait()
	return votes, conflicted, firstErr
}

// fanParticipants tells every participant its own vote and the full
// address list, triggering each to fan Accept out to its peers.
func (d *Driver) fanParticipants(ctx context.Context, mode model.Mode, tid model.TxnID, votes map[transport.Address]model.Vote, addrs []transport.Address) error {
	var wg sync.WaitGroup
	latch := lock.NewCASMutex()
	var firstErr error
	for _, addr := range addrs {
		addr := addr
		wg.Add(1)
		go func() {
			defer wg.Done()
			var err error
			if mode == model.Coord {
				_, err = repository.AskVote(ctx, d.bus, addr, repository.CoordParticipants{TID: tid, Vote: votes[addr], Peers: addrs})
			} else {
				_, err = repository.AskVote(ctx, d.bus, addr, repository.IndepParticipants{TID: tid, Vote: votes[addr], Peers: addrs})
			}
			if err != nil {
				latch.Lock()
				if firstErr == nil {
					firstErr = err
				}
				latch.Unlock()
			}
		}()
	}
	wg.Wait()
	return firstErr
}

// collectResults awaits GetResult from every participant and aggregates
// with all-or-nothing semantics: any per-participant error makes the whole
// transaction an error (spec.md §4.7, "Failure surfacing").
func (d *Driver) collectResults(ctx context.Context, tid model.TxnID, addrs []transport.Address) (map[transport.Address]model.Outcome, error) {
	outcomes := make(map[transport.Address]model.Outcome, len(addrs))
	var mu sync.Mutex
	var firstErr error

	var wg sync.WaitGroup
	for _, addr := range addrs {
		addr := addr
		wg.Add(1)
		go func() {
			defer wg.Done()
			outcome, err := repository.AskResult(ctx, d.bus, addr, tid)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if firstErr == nil {
					firstErr = err
				}
				return
			}
			outcomes[addr] = outcome
			if outcome.Err != nil && firstErr == nil {
				firstErr = outcome.Err
			}
		}()
	}
	wg.Wait()
	return outcomes, firstErr
}
