package storage

import (
	mapset "github.com/deckarep/golang-set"
	"granola/model"
)

// LockTable tracks the repository-wide coarse locks a Coord transaction
// holds between its Prepare and the completion of its Accept-phase
// processing (spec.md §4.3, I3). Membership is a single golang-set.Set over
// every currently locked key -- the conflict check only needs to ask "is
// this key locked by anyone", the same coarse, read/write-blind test
// spec.md §4.3 calls for. Locks are additionally indexed by tid so release
// only clears the keys one transaction acquired, per the "key locks by
// tid+key (preferred)" guidance in spec.md §9 -- this sidesteps any risk of
// one Coord transaction's release clobbering another's still-held lock.
type LockTable struct {
	locked mapset.Set
	byTid  map[model.TxnID][]model.Key
}

// NewLockTable returns an empty lock table.
func NewLockTable() *LockTable {
	return &LockTable{
		locked: mapset.NewSet(),
		byTid:  make(map[model.TxnID][]model.Key),
	}
}

// Contains reports whether key is currently locked by any Coord
// transaction's voting window.
func (t *LockTable) Contains(key model.Key) bool {
	return t.locked.Contains(key)
}

// Acquire locks every key in keys on behalf of tid. Calling Acquire again
// for the same tid extends its held key set.
func (t *LockTable) Acquire(tid model.TxnID, keys []model.Key) {
	for _, k := range keys {
		t.locked.Add(k)
	}
	t.byTid[tid] = append(t.byTid[tid], keys...)
}

// Release drops every key tid holds. A no-op if tid holds nothing.
func (t *LockTable) Release(tid model.TxnID) {
	keys, ok := t.byTid[tid]
	if !ok {
		return
	}
	for _, k := range keys {
		t.locked.Remove(k)
	}
	delete(t.byTid, tid)
}

// Empty reports whether no keys are currently locked (I3: locked_keys is
// non-empty only while at least one Coord transaction is mid-vote).
func (t *LockTable) Empty() bool {
	return t.locked.Cardinality() == 0
}
