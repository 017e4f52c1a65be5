package storage

import (
	"fmt"

	"granola/configs"
	"granola/model"
)

// FinalizedTxn reports one transaction RunNexts moved out of the active set,
// along with the outcome recorded for it.
type FinalizedTxn struct {
	TID     model.TxnID
	Mode    model.Mode
	Outcome model.Outcome
}

// Database is the local database owned by one repository: the
// timestamp-ordered transaction table, key locks, conflict/lock detection,
// and deferred execution of runnable transactions in timestamp order
// (spec.md §1, "THE CORE", item 1). It is only ever touched by the single
// goroutine that owns its repository's mailbox (spec.md §5) -- Database
// itself does no locking.
//
// Grounded on FC/storage/txn.go (DBTxn) and FC/storage/manager.go, with the
// B-tree-indexed, pluggable-backend row store stripped out: spec.md's data
// model has no schema, index, or range query (explicit Non-goal), so the
// store here is a plain map.
type Database struct {
	id    string
	clock configs.Clock
	log   *Log

	store map[model.Key]model.Record

	active    map[model.TxnID]*Transaction
	finalized map[model.TxnID]uint64
	done      map[model.TxnID]model.Outcome
	locks     *LockTable

	lastTimestamp uint64
}

// NewDatabase returns an empty repository database. clock and log are both
// injectable collaborators (spec.md §6).
func NewDatabase(id string, clock configs.Clock, log *Log) *Database {
	return &Database{
		id:        id,
		clock:     clock,
		log:       log,
		store:     make(map[model.Key]model.Record),
		active:    make(map[model.TxnID]*Transaction),
		finalized: make(map[model.TxnID]uint64),
		done:      make(map[model.TxnID]model.Outcome),
		locks:     NewLockTable(),
	}
}

// Seed primes the store with initial records, for test setup only -- it
// must not be called once transactions are in flight.
func (db *Database) Seed(initial map[model.Key]model.Record) {
	for k, v := range initial {
		db.store[k] = v
	}
}

// Read returns the record currently stored at k, for test assertions and
// diagnostics outside the transaction path.
func (db *Database) Read(k model.Key) (model.Record, bool) {
	r, ok := db.store[k]
	return r, ok
}

// ProposeTimestamp computes proposed_ts = max(clientTS, clock.Now(),
// last_timestamp) + 1 and records it as the new last_timestamp (spec.md
// §4.5). Every call strictly increases last_timestamp, which is I1.
func (db *Database) ProposeTimestamp(clientTS uint64) uint64 {
	now := db.clock.Now()
	ts := clientTS
	if now > ts {
		ts = now
	}
	if db.lastTimestamp > ts {
		ts = db.lastTimestamp
	}
	ts++
	db.lastTimestamp = ts
	return ts
}

// InsertActive creates a new active transaction (spec.md §3, lifecycle:
// "created on Prepare receipt").
func (db *Database) InsertActive(tid model.TxnID, mode model.Mode, proposedTS uint64, waitingFor int, ops []model.Operation) *Transaction {
	txn := &Transaction{
		TID:        tid,
		Mode:       mode,
		ProposedTS: proposedTS,
		WaitingFor: waitingFor,
		Operations: ops,
	}
	db.active[tid] = txn
	return txn
}

// GetProposedTs returns the last proposed timestamp while tid is active, or
// its finalization timestamp afterward (I6). It is ErrUnreachableTID for a
// tid this repository has never seen -- a programming error in the caller.
func (db *Database) GetProposedTs(tid model.TxnID) (uint64, error) {
	if txn, ok := db.active[tid]; ok {
		return txn.ProposedTS, nil
	}
	if ts, ok := db.finalized[tid]; ok {
		return ts, nil
	}
	return 0, model.ErrUnreachableTID
}

// CheckConflict re-runs the conflict check for an active tid (spec.md §4.2).
func (db *Database) CheckConflict(tid model.TxnID) error {
	txn, ok := db.active[tid]
	if !ok {
		return model.ErrUnreachableTID
	}
	return checkConflict(db.store, db.locks, txn.Operations)
}

// AcquireLocks locks every key tid's operations reference, for a
// non-conflicting Coord Prepare (spec.md §4.3).
func (db *Database) AcquireLocks(tid model.TxnID) {
	txn, ok := db.active[tid]
	if !ok {
		return
	}
	var keys []model.Key
	for _, op := range txn.Operations {
		keys = append(keys, op.ReferencedKeys()...)
	}
	db.locks.Acquire(tid, keys)
	txn.locksHeld = true
	for _, k := range keys {
		configs.TxnPrintf(tid.String(), "%s locked", configs.Hash(db.id, uint64(k)))
	}
}

// ReleaseLocks drops whatever keys tid holds, whether it is still active or
// has already finalized. Safe to call unconditionally.
func (db *Database) ReleaseLocks(tid model.TxnID) {
	db.locks.Release(tid)
}

// UpdateVote decrements waiting_for by one and raises the local proposed_ts
// to max(local, peerTS), the bookkeeping the Accept handler performs for
// every peer vote it processes (spec.md §4.6). It is a no-op if tid is not
// active (already finalized by an earlier Conflict).
func (db *Database) UpdateVote(tid model.TxnID, peerTS uint64) {
	txn, ok := db.active[tid]
	if !ok {
		configs.Warn(false, fmt.Sprintf("UpdateVote: tid %s is not active at %s, dropping peer vote", tid, db.id))
		return
	}
	if peerTS > txn.ProposedTS {
		txn.ProposedTS = peerTS
	}
	if txn.WaitingFor > 0 {
		txn.WaitingFor--
	}
}

// IsActive reports whether tid is still in the active set.
func (db *Database) IsActive(tid model.TxnID) bool {
	_, ok := db.active[tid]
	return ok
}

// Abort force-finalizes tid with err, whatever its waiting_for count --
// used when a peer votes Conflict during the Accept phase. It is idempotent
// (P5): finalizing an already-finalized tid is a no-op, returning false.
func (db *Database) Abort(tid model.TxnID, err error) bool {
	txn, ok := db.active[tid]
	if !ok {
		return false
	}
	db.finalize(tid, txn.ProposedTS, model.Outcome{Err: err})
	return true
}

// RunNexts repeatedly selects the runnable active transaction with the
// smallest proposed_ts (ties broken by tid), re-checks it for conflicts,
// and either executes it or finalizes it as a late conflict -- stopping the
// loop the moment a late conflict is found, leaving any further runnables
// for a later invocation (spec.md §4.4). It returns every transaction it
// finalized, in the order they were finalized, so the caller can notify
// GetResult waiters.
func (db *Database) RunNexts() []FinalizedTxn {
	var out []FinalizedTxn
	for {
		next := db.nextRunnable()
		if next == nil {
			return out
		}
		// A Coord transaction's own locks come off as it runs or aborts, so
		// they must not fail its own run-time conflict check.
		if next.locksHeld {
			db.locks.Release(next.TID)
			next.locksHeld = false
		}
		if err := checkConflict(db.store, db.locks, next.Operations); err != nil {
			outcome := model.Outcome{Err: model.ErrLateConflict}
			db.finalize(next.TID, next.ProposedTS, outcome)
			out = append(out, FinalizedTxn{TID: next.TID, Mode: next.Mode, Outcome: outcome})
			return out
		}
		var last model.Record
		var any bool
		for _, op := range next.Operations {
			if v, ok := Eval(db.store, op); ok {
				last, any = v, true
			}
		}
		outcome := model.Outcome{}
		if any {
			v := last
			outcome.Value = &v
		}
		db.finalize(next.TID, next.ProposedTS, outcome)
		out = append(out, FinalizedTxn{TID: next.TID, Mode: next.Mode, Outcome: outcome})
	}
}

// nextRunnable returns the active, waiting_for==0 transaction with the
// smallest proposed_ts, tied-broken by tid (I5). A linear scan is plenty for
// a toy repository's active set; no priority-queue library in the example
// corpus targets this exact "by value, then by a secondary key" ordering.
func (db *Database) nextRunnable() *Transaction {
	var best *Transaction
	for _, txn := range db.active {
		if !txn.Runnable() {
			continue
		}
		if best == nil || txn.ProposedTS < best.ProposedTS ||
			(txn.ProposedTS == best.ProposedTS && txn.TID.Less(best.TID)) {
			best = txn
		}
	}
	return best
}

func (db *Database) finalize(tid model.TxnID, ts uint64, outcome model.Outcome) {
	_, alreadyFinalized := db.finalized[tid]
	configs.Assert(!alreadyFinalized, fmt.Sprintf("granola: tid %s finalized twice at %s", tid, db.id))
	delete(db.active, tid)
	db.finalized[tid] = ts
	db.done[tid] = outcome
}

// TakeResult returns and removes the recorded outcome for tid, if any
// (spec.md §4.6 GetResult, one-shot per I6/P5).
func (db *Database) TakeResult(tid model.TxnID) (model.Outcome, bool) {
	outcome, ok := db.done[tid]
	if ok {
		delete(db.done, tid)
	}
	return outcome, ok
}

// AppendIntentLog durably logs a Prepare's operations and timestamp before
// any vote is returned (spec.md §6).
func (db *Database) AppendIntentLog(tid model.TxnID, ops []model.Operation, ts uint64) error {
	return db.log.AppendIntent(tid, ops, ts)
}

// AppendVoteLog durably logs the follow-up vote line for Indep/Coord
// Prepares (spec.md §6).
func (db *Database) AppendVoteLog(tid model.TxnID, ops []model.Operation, vote model.Vote, ts uint64) error {
	return db.log.AppendVote(tid, ops, vote, ts)
}
