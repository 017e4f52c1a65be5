package model

// Operation is either a bare expression, evaluated for effect/value, or a
// statement (Create/Update) that also writes the store (spec.md §3).
type Operation interface {
	operationNode()
	// ReferencedKeys returns every key this operation touches -- its own
	// target key (for Create/Update) plus every key named by its nested
	// expression. The conflict check's lock test and Coord lock acquisition
	// both use this set: a Coord transaction's lock covers every key it
	// touches, read or write.
	ReferencedKeys() []Key
	// RequiredKeys returns the keys that must already exist in the store:
	// every Read/Delete target reachable from this operation's expression.
	// Create/Update's own target key is never required to pre-exist
	// (spec.md §4.2).
	RequiredKeys() []Key
}

// ExprOp wraps a bare Expr as an Operation.
type ExprOp struct {
	Expr Expr
}

// CreateStmt inserts or replaces the record at Key with the evaluation of
// Expr, overwriting any existing value (spec.md §4.2: Create does not
// require absence; this is a deliberate, preserved choice).
type CreateStmt struct {
	Key  Key
	Expr Expr
}

// UpdateStmt overwrites the record at Key if present, or inserts it
// otherwise (upsert; spec.md §4.2: Update does not require presence).
type UpdateStmt struct {
	Key  Key
	Expr Expr
}

func (ExprOp) operationNode()     {}
func (CreateStmt) operationNode() {}
func (UpdateStmt) operationNode() {}

func (o ExprOp) ReferencedKeys() []Key     { return exprKeys(o.Expr) }
func (o CreateStmt) ReferencedKeys() []Key { return append([]Key{o.Key}, exprKeys(o.Expr)...) }
func (o UpdateStmt) ReferencedKeys() []Key { return append([]Key{o.Key}, exprKeys(o.Expr)...) }

func (o ExprOp) RequiredKeys() []Key     { return exprKeys(o.Expr) }
func (o CreateStmt) RequiredKeys() []Key { return exprKeys(o.Expr) }
func (o UpdateStmt) RequiredKeys() []Key { return exprKeys(o.Expr) }

func exprKeys(e Expr) []Key {
	switch n := e.(type) {
	case ValueExpr:
		return nil
	case ReadExpr:
		return []Key{n.Key}
	case DeleteExpr:
		return []Key{n.Key}
	case AddExpr:
		return append(exprKeys(n.Left), exprKeys(n.Right)...)
	case SubExpr:
		return append(exprKeys(n.Left), exprKeys(n.Right)...)
	default:
		return nil
	}
}

// Create builds a CreateStmt operation.
func Create(k Key, e Expr) Operation { return CreateStmt{Key: k, Expr: e} }

// Update builds an UpdateStmt operation.
func Update(k Key, e Expr) Operation { return UpdateStmt{Key: k, Expr: e} }

// Eval builds a bare-expression Operation.
func Eval(e Expr) Operation { return ExprOp{Expr: e} }

// Arguments is the payload carried by a Prepare message: the client-proposed
// timestamp and the per-repository operation list (spec.md §6).
type Arguments struct {
	Timestamp  uint64
	Operations []Operation
}
