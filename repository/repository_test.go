package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"granola/configs"
	"granola/model"
	"granola/transport"
)

func newTestRepo(t *testing.T, addr transport.Address, bus *transport.Bus) *Repository {
	t.Helper()
	configs.UseWAL = false
	r, err := New(addr, bus, configs.FixedClock{Value: 1})
	require.NoError(t, err)
	return r
}

// TestPrepareSingleReadCommitsWithoutMutation is spec.md §8 scenario 1: a
// Single Read commits and leaves the store untouched.
func TestPrepareSingleReadCommitsWithoutMutation(t *testing.T) {
	bus := transport.NewBus()
	repo := newTestRepo(t, "A", bus)
	repo.Seed(map[model.Key]model.Record{1: {A: 1, B: 1}})

	ctx := context.Background()
	tid := model.TxnID{Hi: 1, Lo: 1}
	args := model.Arguments{Timestamp: 1, Operations: []model.Operation{model.Eval(model.Read(1))}}

	vote, err := AskVote(ctx, bus, "A", PrepareSingle{TID: tid, Args: args})
	require.NoError(t, err)
	assert.Equal(t, model.InProgress, vote)

	outcome, err := AskResult(ctx, bus, "A", tid)
	require.NoError(t, err)
	require.NoError(t, outcome.Err)
	require.NotNil(t, outcome.Value)
	assert.Equal(t, model.Record{A: 1, B: 1}, *outcome.Value)

	r, ok := repo.Peek(1)
	assert.True(t, ok)
	assert.Equal(t, model.Record{A: 1, B: 1}, r)
}

// TestPrepareIndepConflictVotesConflictAndFinalizesLocally covers the
// Prepare(Indep) branch of spec.md §4.6: a missing Read target votes
// Conflict and the tid is finalized immediately, readable via GetResult.
func TestPrepareIndepConflictVotesConflictAndFinalizesLocally(t *testing.T) {
	bus := transport.NewBus()
	newTestRepo(t, "A", bus)

	ctx := context.Background()
	tid := model.TxnID{Hi: 1, Lo: 1}
	args := model.Arguments{Timestamp: 1, Operations: []model.Operation{model.Eval(model.Read(404))}}

	vote, err := AskVote(ctx, bus, "A", PrepareIndep{TID: tid, Args: args, N: 1})
	require.NoError(t, err)
	assert.Equal(t, model.Conflict, vote)

	outcome, err := AskResult(ctx, bus, "A", tid)
	require.NoError(t, err)
	assert.ErrorIs(t, outcome.Err, model.ErrConflict)
}

// TestCoordPrepareLocksKeysUntilAccept is P4: a Coord transaction between
// Prepare and Accept holds a lock that fails a concurrent transaction's
// conflict check on the same key.
func TestCoordPrepareLocksKeysUntilAccept(t *testing.T) {
	bus := transport.NewBus()
	repo := newTestRepo(t, "A", bus)
	repo.Seed(map[model.Key]model.Record{1: {A: 1, B: 1}})
	ctx := context.Background()

	coordTID := model.TxnID{Hi: 1, Lo: 1}
	coordArgs := model.Arguments{Timestamp: 1, Operations: []model.Operation{model.Update(1, model.Value(model.Record{A: 9, B: 9}))}}
	vote, err := AskVote(ctx, bus, "A", PrepareCoord{TID: coordTID, Args: coordArgs, N: 1})
	require.NoError(t, err)
	assert.Equal(t, model.Commit, vote)

	// A concurrent Single transaction referencing the same key must not run
	// while the Coord transaction holds its lock.
	singleTID := model.TxnID{Hi: 2, Lo: 1}
	singleArgs := model.Arguments{Timestamp: 1, Operations: []model.Operation{model.Eval(model.Read(1))}}
	_, err = AskVote(ctx, bus, "A", PrepareSingle{TID: singleTID, Args: singleArgs})
	require.NoError(t, err)

	singleOutcome, err := AskResult(ctx, bus, "A", singleTID)
	require.NoError(t, err)
	assert.ErrorIs(t, singleOutcome.Err, model.ErrLateConflict)

	// Once a peer's Accept arrives and waiting_for drops to zero, the Coord
	// transaction runs and its lock is released.
	_, err = AskVote(ctx, bus, "A", Accept{Mode: model.Coord, TID: coordTID, ProposedTS: 1, Vote: model.Commit})
	require.NoError(t, err)

	coordOutcome, err := AskResult(ctx, bus, "A", coordTID)
	require.NoError(t, err)
	require.NoError(t, coordOutcome.Err)
	r, _ := repo.Peek(1)
	assert.Equal(t, model.Record{A: 9, B: 9}, r)
}

// TestAcceptConflictAbortsAndReleasesLocks: a peer's Conflict vote aborts
// the local copy of a Coord transaction and releases its locks even though
// this repository itself voted Commit.
func TestAcceptConflictAbortsAndReleasesLocks(t *testing.T) {
	bus := transport.NewBus()
	repo := newTestRepo(t, "A", bus)
	repo.Seed(map[model.Key]model.Record{1: {A: 1, B: 1}})
	ctx := context.Background()

	tid := model.TxnID{Hi: 1, Lo: 1}
	args := model.Arguments{Timestamp: 1, Operations: []model.Operation{model.Update(1, model.Value(model.Record{A: 9, B: 9}))}}
	vote, err := AskVote(ctx, bus, "A", PrepareCoord{TID: tid, Args: args, N: 1})
	require.NoError(t, err)
	assert.Equal(t, model.Commit, vote)

	acceptVote, err := AskVote(ctx, bus, "A", Accept{Mode: model.Coord, TID: tid, ProposedTS: 5, Vote: model.Conflict})
	require.NoError(t, err)
	assert.Equal(t, model.Abort, acceptVote)

	outcome, err := AskResult(ctx, bus, "A", tid)
	require.NoError(t, err)
	assert.ErrorIs(t, outcome.Err, model.ErrPeerConflict)

	r, _ := repo.Peek(1)
	assert.Equal(t, model.Record{A: 1, B: 1}, r, "store must be unchanged after an aborted Coord transaction")

	// A lock-conflicting transaction now succeeds because the locks were
	// released by the abort.
	singleTID := model.TxnID{Hi: 2, Lo: 1}
	singleArgs := model.Arguments{Timestamp: 1, Operations: []model.Operation{model.Eval(model.Read(1))}}
	_, err = AskVote(ctx, bus, "A", PrepareSingle{TID: singleTID, Args: singleArgs})
	require.NoError(t, err)
	singleOutcome, err := AskResult(ctx, bus, "A", singleTID)
	require.NoError(t, err)
	require.NoError(t, singleOutcome.Err)
}

// TestGetResultParksUntilFinalizeThenDeliversOnce exercises the waiter-list
// replacement for the self-re-enqueued GetResult (spec.md §9): a GetResult
// that arrives before the outcome is ready parks, then is woken exactly
// once when the transaction finalizes.
func TestGetResultParksUntilFinalizeThenDeliversOnce(t *testing.T) {
	bus := transport.NewBus()
	newTestRepo(t, "A", bus)
	ctx := context.Background()

	tid := model.TxnID{Hi: 1, Lo: 1}
	args := model.Arguments{Timestamp: 1, Operations: []model.Operation{model.Eval(model.Value(model.Record{A: 1}))}}

	_, err := AskVote(ctx, bus, "A", PrepareIndep{TID: tid, Args: args, N: 1})
	require.NoError(t, err)

	type askResult struct {
		outcome model.Outcome
		err     error
	}
	resultCh := make(chan askResult, 1)
	go func() {
		outcome, err := AskResult(ctx, bus, "A", tid)
		resultCh <- askResult{outcome: outcome, err: err}
	}()

	time.Sleep(20 * time.Millisecond) // let the waiter register before Accept arrives

	_, err = AskVote(ctx, bus, "A", IndepParticipants{TID: tid, Vote: model.Commit, Peers: []transport.Address{"A"}})
	require.NoError(t, err)
	_, err = AskVote(ctx, bus, "A", Accept{Mode: model.Indep, TID: tid, ProposedTS: 1, Vote: model.Commit})
	require.NoError(t, err)

	select {
	case got := <-resultCh:
		require.NoError(t, got.err)
		require.NoError(t, got.outcome.Err)
		require.NotNil(t, got.outcome.Value)
		assert.Equal(t, model.Record{A: 1}, *got.outcome.Value)
	case <-time.After(time.Second):
		t.Fatal("GetResult never woke up after finalize")
	}
}
