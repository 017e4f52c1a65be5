// Package repository is the per-repository protocol handler: the
// single-threaded mailbox that processes Prepare/Accept/GetResult/
// GetProposedTs for the three transaction modes, assigns proposed
// timestamps, writes durable log records, votes, and drives transactions to
// commit or abort (spec.md §4.6).
//
// Grounded on FC/network/participant/manager.go's Manager, which owns the
// per-shard storage and dispatches PreWrite/PreCommit/Commit/Abort to a
// transaction branch; this package collapses that dispatch into one
// Database per repository and the Prepare/Accept vocabulary spec.md §6
// defines, instead of FC's many competing commit protocols.
package repository

import (
	"context"
	"fmt"

	"granola/configs"
	"granola/model"
	"granola/storage"
	"granola/transport"
	"granola/transport/wire"
)

// Repository is one partition's protocol handler. All of its state --
// Database, Log and the waiter table -- is touched only from the goroutine
// transport.Bus drives for its mailbox; Repository itself holds no lock,
// matching spec.md §5's "owned exclusively by its mailbox task".
type Repository struct {
	id  transport.Address
	bus *transport.Bus
	db  *storage.Database

	// waiters holds, per tid, the channels registered by GetResult calls
	// that arrived before an outcome was recorded. Only ever touched from
	// the mailbox goroutine -- see handleGetResult and notifyFinalized.
	waiters map[model.TxnID][]chan model.Outcome
}

// New opens repository id's durable log, wires a fresh Database, and
// registers its mailbox on bus. clock is the repository's timestamp source
// (spec.md §6).
func New(id transport.Address, bus *transport.Bus, clock configs.Clock) (*Repository, error) {
	log, err := storage.OpenLog(string(id))
	if err != nil {
		return nil, err
	}
	r := &Repository{
		id:      id,
		bus:     bus,
		db:      storage.NewDatabase(string(id), clock, log),
		waiters: make(map[model.TxnID][]chan model.Outcome),
	}
	bus.Register(id, configs.MailboxQueueDepth, r.handle)
	return r, nil
}

// Seed primes the repository's store before any transaction runs against
// it, for test and demo setup.
func (r *Repository) Seed(initial map[model.Key]model.Record) {
	r.db.Seed(initial)
}

// Peek returns the record currently stored at k, for test assertions.
func (r *Repository) Peek(k model.Key) (model.Record, bool) {
	return r.db.Read(k)
}

func (r *Repository) handle(msg interface{}) (interface{}, error) {
	switch m := msg.(type) {
	case PrepareSingle:
		return r.handlePrepareSingle(m)
	case PrepareIndep:
		return r.handlePrepare(m.TID, model.Indep, m.Args, m.N)
	case PrepareCoord:
		return r.handlePrepare(m.TID, model.Coord, m.Args, m.N)
	case IndepParticipants:
		return r.handleParticipants(model.Indep, m.TID, m.Vote, m.Peers)
	case CoordParticipants:
		return r.handleParticipants(model.Coord, m.TID, m.Vote, m.Peers)
	case Accept:
		return r.handleAccept(m)
	case GetResult:
		return r.handleGetResult(m)
	case GetProposedTs:
		return r.handleGetProposedTs(m)
	default:
		return nil, fmt.Errorf("repository %s: unrecognized message %T", r.id, msg)
	}
}

// handlePrepareSingle implements spec.md §4.6 Prepare(Single, tid, args):
// compute proposed_ts, append intent to durable log, insert with
// waiting_for=0, run nexts, respond InProgress.
func (r *Repository) handlePrepareSingle(m PrepareSingle) (model.Vote, error) {
	ts := r.db.ProposeTimestamp(m.Args.Timestamp)
	if configs.ShowDebugInfo {
		env, _ := wire.Encode(wire.KindPrepareSingle, m.Args)
		configs.DPrintf("TXN%s: %s received Single Prepare %s", m.TID, r.id, env)
	}
	if err := r.db.AppendIntentLog(m.TID, m.Args.Operations, ts); err != nil {
		return model.InProgress, err
	}
	r.db.InsertActive(m.TID, model.Single, ts, 0, m.Args.Operations)
	r.runAndNotify()
	return model.InProgress, nil
}

// handlePrepare implements spec.md §4.6 Prepare(Indep|Coord, tid, args, N):
// compute proposed_ts, insert with waiting_for=N, run the conflict check,
// vote Commit or Conflict, acquire locks for Coord on a non-conflicting
// vote, then durable-log the intent and the vote.
func (r *Repository) handlePrepare(tid model.TxnID, mode model.Mode, args model.Arguments, n int) (model.Vote, error) {
	ts := r.db.ProposeTimestamp(args.Timestamp)
	r.db.InsertActive(tid, mode, ts, n, args.Operations)

	vote := model.Commit
	if err := r.db.CheckConflict(tid); err != nil {
		vote = model.Conflict
		r.db.Abort(tid, model.ErrConflict)
		r.notifyFinalized(tid)
	} else if mode == model.Coord {
		r.db.AcquireLocks(tid)
	}

	if err := r.db.AppendIntentLog(tid, args.Operations, ts); err != nil {
		return model.InProgress, err
	}
	if err := r.db.AppendVoteLog(tid, args.Operations, vote, ts); err != nil {
		return model.InProgress, err
	}
	return vote, nil
}

// handleParticipants implements spec.md §4.6 IndepParticipants/
// CoordParticipants: read tid's proposed_ts and fan Accept out to every
// peer, fire-and-forget.
func (r *Repository) handleParticipants(mode model.Mode, tid model.TxnID, vote model.Vote, peers []transport.Address) (model.Vote, error) {
	ts, err := r.db.GetProposedTs(tid)
	if err != nil {
		return model.InProgress, err
	}
	accept := Accept{Mode: mode, TID: tid, ProposedTS: ts, Vote: vote}
	for _, peer := range peers {
		if peer == r.id {
			continue
		}
		if err := r.bus.Send(peer, accept); err != nil {
			return model.InProgress, err
		}
	}
	return model.InProgress, nil
}

// handleAccept implements spec.md §4.6 Accept(mode, tid, proposed_ts_peer,
// vote_peer).
func (r *Repository) handleAccept(m Accept) (model.Vote, error) {
	if m.Vote == model.Conflict {
		r.db.Abort(m.TID, model.ErrPeerConflict)
		if m.Mode == model.Coord {
			r.db.ReleaseLocks(m.TID)
		}
		r.notifyFinalized(m.TID)
		return model.Abort, nil
	}
	if !r.db.IsActive(m.TID) {
		// Already finalized locally -- we aborted on an earlier vote for
		// this same tid. Release defensively; LockTable.Release is a no-op
		// once the keys are already clear.
		if m.Mode == model.Coord {
			r.db.ReleaseLocks(m.TID)
		}
		return model.Abort, nil
	}
	r.db.UpdateVote(m.TID, m.ProposedTS)
	r.runAndNotify()
	return model.InProgress, nil
}

// handleGetResult implements spec.md §4.6 GetResult(tid): return and
// consume the recorded outcome if one exists, or register a one-shot
// waiter the caller blocks on outside the mailbox (spec.md §9).
func (r *Repository) handleGetResult(m GetResult) (getResultReply, error) {
	if outcome, ok := r.db.TakeResult(m.TID); ok {
		return getResultReply{Ready: true, Outcome: outcome}, nil
	}
	ch := make(chan model.Outcome, 1)
	r.waiters[m.TID] = append(r.waiters[m.TID], ch)
	return getResultReply{Wait: ch}, nil
}

// handleGetProposedTs implements spec.md §4.6 GetProposedTs(tid).
func (r *Repository) handleGetProposedTs(m GetProposedTs) (uint64, error) {
	return r.db.GetProposedTs(m.TID)
}

// runAndNotify runs every currently-runnable transaction, releases the
// locks of any Coord transaction among them (spec.md §9, "Coord lock
// release timing" -- locks come off only once a Coord transaction has
// actually run or been deferred by run_nexts, not merely because one of
// its Accept messages arrived), and wakes any GetResult callers waiting on
// a tid that just finalized.
func (r *Repository) runAndNotify() {
	for _, f := range r.db.RunNexts() {
		if f.Mode == model.Coord {
			r.db.ReleaseLocks(f.TID)
		}
		r.notifyFinalized(f.TID)
	}
}

// notifyFinalized delivers tid's outcome to every registered waiter, if
// any are registered and an outcome is in fact recorded. It is the
// condition-variable-like one-shot signal spec.md §9 asks for in place of
// a self-re-enqueued GetResult.
func (r *Repository) notifyFinalized(tid model.TxnID) {
	chans, ok := r.waiters[tid]
	if !ok {
		return
	}
	outcome, ok := r.db.TakeResult(tid)
	if !ok {
		return
	}
	for _, ch := range chans {
		ch <- outcome
	}
	delete(r.waiters, tid)
}

// GetResult asks this repository for tid's outcome, blocking until it is
// recorded or ctx is done. It is the client-facing counterpart to the
// GetResult message: the Ask round trip never blocks the mailbox, only this
// call (running in the client driver's goroutine) waits.
func (r *Repository) GetResult(ctx context.Context, tid model.TxnID) (model.Outcome, error) {
	return AskResult(ctx, r.bus, r.id, tid)
}
