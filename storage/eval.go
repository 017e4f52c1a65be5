package storage

import "granola/model"

// evalExpr evaluates an expression tree against store, mutating it in
// place for Delete, and returns (record, ok) where ok is false when the
// subtree yields no record (spec.md §4.1). It is a pure function of
// (store, expr) except for the mutation Delete performs.
func evalExpr(store map[model.Key]model.Record, e model.Expr) (model.Record, bool) {
	switch n := e.(type) {
	case model.ValueExpr:
		return n.Record, true
	case model.ReadExpr:
		r, ok := store[n.Key]
		return r, ok
	case model.DeleteExpr:
		r, ok := store[n.Key]
		if ok {
			delete(store, n.Key)
		}
		return r, ok
	case model.AddExpr:
		l, lok := evalExpr(store, n.Left)
		r, rok := evalExpr(store, n.Right)
		if !lok || !rok {
			return model.Record{}, false
		}
		return l.Add(r), true
	case model.SubExpr:
		l, lok := evalExpr(store, n.Left)
		r, rok := evalExpr(store, n.Right)
		if !lok || !rok {
			return model.Record{}, false
		}
		return l.Sub(r), true
	default:
		return model.Record{}, false
	}
}

// Eval evaluates one operation against store: bare expressions are
// evaluated for their value, Create/Update additionally write the result
// back to the target key (spec.md §4.1). Eval is only ever invoked once the
// containing transaction has passed the conflict check.
func Eval(store map[model.Key]model.Record, op model.Operation) (model.Record, bool) {
	switch o := op.(type) {
	case model.ExprOp:
		return evalExpr(store, o.Expr)
	case model.CreateStmt:
		v, _ := evalExpr(store, o.Expr)
		store[o.Key] = v
		return v, true
	case model.UpdateStmt:
		v, _ := evalExpr(store, o.Expr)
		store[o.Key] = v
		return v, true
	default:
		return model.Record{}, false
	}
}
