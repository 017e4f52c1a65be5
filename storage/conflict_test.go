package storage

import (
	"testing"

	"github.com/magiconair/properties/assert"

	"granola/model"
)

func TestCheckConflictFailsOnMissingReadTarget(t *testing.T) {
	store := map[model.Key]model.Record{}
	locks := NewLockTable()
	err := checkConflict(store, locks, []model.Operation{model.Eval(model.Read(1))})
	assert.Equal(t, err, model.ErrConflict)
}

func TestCheckConflictFailsOnMissingDeleteTarget(t *testing.T) {
	store := map[model.Key]model.Record{}
	locks := NewLockTable()
	err := checkConflict(store, locks, []model.Operation{model.Eval(model.Delete(1))})
	assert.Equal(t, err, model.ErrConflict)
}

// TestCheckConflictCreateDoesNotRequireAbsence covers spec.md §4.2's
// deliberate choice: Create overwrites rather than erroring on an existing
// key.
func TestCheckConflictCreateDoesNotRequireAbsence(t *testing.T) {
	store := map[model.Key]model.Record{1: {A: 1, B: 1}}
	locks := NewLockTable()
	err := checkConflict(store, locks, []model.Operation{model.Create(1, model.Value(model.Record{A: 9}))})
	assert.Equal(t, err, nil)
}

// TestCheckConflictUpdateDoesNotRequirePresence covers the Update-is-upsert
// half of the same contract.
func TestCheckConflictUpdateDoesNotRequirePresence(t *testing.T) {
	store := map[model.Key]model.Record{}
	locks := NewLockTable()
	err := checkConflict(store, locks, []model.Operation{model.Update(1, model.Value(model.Record{A: 9}))})
	assert.Equal(t, err, nil)
}

// TestCheckConflictFailsOnLockedKey is P4: any operation referencing a
// currently-locked key fails the conflict check, regardless of read/write
// nature.
func TestCheckConflictFailsOnLockedKey(t *testing.T) {
	store := map[model.Key]model.Record{1: {A: 1, B: 1}}
	locks := NewLockTable()
	locks.Acquire(model.TxnID{Hi: 1, Lo: 1}, []model.Key{1})

	err := checkConflict(store, locks, []model.Operation{model.Eval(model.Read(1))})
	assert.Equal(t, err, model.ErrConflict)
}

func TestCheckConflictPassesWhenNothingLockedOrMissing(t *testing.T) {
	store := map[model.Key]model.Record{1: {A: 1, B: 1}, 2: {A: 2, B: 2}}
	locks := NewLockTable()
	err := checkConflict(store, locks, []model.Operation{
		model.Eval(model.Read(1)),
		model.Update(2, model.Add(model.Read(2), model.Value(model.Record{A: 1}))),
	})
	assert.Equal(t, err, nil)
}
