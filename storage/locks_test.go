package storage

import (
	"testing"

	"github.com/magiconair/properties/assert"

	"granola/model"
)

func TestLockTableAcquireAndRelease(t *testing.T) {
	locks := NewLockTable()
	tid := model.TxnID{Hi: 1, Lo: 1}
	assert.Equal(t, locks.Empty(), true)

	locks.Acquire(tid, []model.Key{1, 2})
	assert.Equal(t, locks.Contains(1), true)
	assert.Equal(t, locks.Contains(2), true)
	assert.Equal(t, locks.Empty(), false)

	locks.Release(tid)
	assert.Equal(t, locks.Contains(1), false)
	assert.Equal(t, locks.Empty(), true)
}

func TestLockTableReleaseOnlyClearsOwnTid(t *testing.T) {
	locks := NewLockTable()
	a := model.TxnID{Hi: 1, Lo: 1}
	b := model.TxnID{Hi: 1, Lo: 2}

	locks.Acquire(a, []model.Key{1})
	locks.Acquire(b, []model.Key{2})
	locks.Release(a)

	assert.Equal(t, locks.Contains(1), false)
	assert.Equal(t, locks.Contains(2), true)
}
