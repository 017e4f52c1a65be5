package model

import (
	"testing"

	"github.com/magiconair/properties/assert"
)

func TestExprKeysWalksNestedReadsAndDeletes(t *testing.T) {
	e := Add(Read(1), Sub(Value(Record{A: 1}), Delete(2)))
	assert.Equal(t, exprKeys(e), []Key{1, 2})
}

func TestCreateReferencedKeysIncludesOwnKeyButNotRequired(t *testing.T) {
	op := Create(5, Read(7))
	assert.Equal(t, op.ReferencedKeys(), []Key{5, 7})
	assert.Equal(t, op.RequiredKeys(), []Key{7})
}

func TestUpdateReferencedKeysIncludesOwnKeyButNotRequired(t *testing.T) {
	op := Update(5, Value(Record{A: 1, B: 2}))
	assert.Equal(t, op.ReferencedKeys(), []Key{5})
	assert.Equal(t, len(op.RequiredKeys()), 0)
}

func TestExprOpRequiredKeysMatchReferenced(t *testing.T) {
	op := Eval(Add(Read(1), Read(2)))
	assert.Equal(t, op.ReferencedKeys(), []Key{1, 2})
	assert.Equal(t, op.RequiredKeys(), []Key{1, 2})
}
