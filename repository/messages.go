package repository

import (
	"granola/model"
	"granola/transport"
)

// The message shapes below are the concrete Go rendering of the abstractly
// typed inter-actor messages in spec.md §6. Each is dispatched by kind
// (Go's type switch standing in for the sum type spec.md §9 notes "lacks
// cheap recursive sum types" can fall back to) rather than by a Mark string
// field the way FC/network's CoordinatorGossip does it -- the type switch
// gives the same dispatch on Go types instead of string tags. It is not
// checked for exhaustiveness at compile time: an unrecognized message type
// reaches handle's default branch and is rejected with an error at run time.

// PrepareSingle starts a Single-mode transaction at one repository.
type PrepareSingle struct {
	TID  model.TxnID
	Args model.Arguments
}

// PrepareIndep starts an Independent-mode transaction branch, expecting N
// peer votes before it can be considered settled by the client driver.
type PrepareIndep struct {
	TID  model.TxnID
	Args model.Arguments
	N    int
}

// PrepareCoord starts a Coordinated-mode transaction branch.
type PrepareCoord struct {
	TID  model.TxnID
	Args model.Arguments
	N    int
}

// IndepParticipants tells a repository that its own Prepare(Indep) vote is
// final and hands it the full participant address list, so it can fan
// Accept out to its peers.
type IndepParticipants struct {
	TID   model.TxnID
	Vote  model.Vote
	Peers []transport.Address
}

// CoordParticipants is the Coord-tagged twin of IndepParticipants.
type CoordParticipants struct {
	TID   model.TxnID
	Vote  model.Vote
	Peers []transport.Address
}

// Accept carries one peer's vote and the timestamp it proposed, for the
// repository to merge into its own local transaction.
type Accept struct {
	Mode       model.Mode
	TID        model.TxnID
	ProposedTS uint64
	Vote       model.Vote
}

// GetResult asks a repository for tid's recorded outcome.
type GetResult struct {
	TID model.TxnID
}

// GetProposedTs asks a repository for tid's current or finalized timestamp.
type GetProposedTs struct {
	TID model.TxnID
}

// getResultReply is the internal reply shape for GetResult: either the
// outcome was already recorded (Ready), or the caller must wait on Wait,
// which fires exactly once (spec.md §9, the waiter-list replacement for
// self-enqueued retry).
type getResultReply struct {
	Ready   bool
	Outcome model.Outcome
	Wait    <-chan model.Outcome
}
