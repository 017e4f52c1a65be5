package repository

import (
	"context"

	"granola/model"
	"granola/transport"
)

// AskVote sends msg (one of the Prepare/Participants/Accept messages) to
// addr and type-asserts the reply as a Vote, the shape every one of those
// handlers returns (spec.md §6). It lets callers that only hold a
// transport.Address and a *transport.Bus -- the client driver -- talk to a
// repository without depending on its unexported reply types.
func AskVote(ctx context.Context, bus *transport.Bus, addr transport.Address, msg interface{}) (model.Vote, error) {
	v, err := bus.Ask(ctx, addr, msg)
	if err != nil {
		return model.InProgress, err
	}
	return v.(model.Vote), nil
}

// AskTimestamp sends a GetProposedTs message to addr.
func AskTimestamp(ctx context.Context, bus *transport.Bus, addr transport.Address, tid model.TxnID) (uint64, error) {
	v, err := bus.Ask(ctx, addr, GetProposedTs{TID: tid})
	if err != nil {
		return 0, err
	}
	return v.(uint64), nil
}

// AskResult sends a GetResult message to addr and blocks for tid's outcome,
// the same way Repository.GetResult does -- for callers that only hold a
// transport.Address, not a *Repository.
func AskResult(ctx context.Context, bus *transport.Bus, addr transport.Address, tid model.TxnID) (model.Outcome, error) {
	v, err := bus.Ask(ctx, addr, GetResult{TID: tid})
	if err != nil {
		return model.Outcome{}, err
	}
	reply := v.(getResultReply)
	if reply.Ready {
		return reply.Outcome, nil
	}
	select {
	case outcome := <-reply.Wait:
		return outcome, nil
	case <-ctx.Done():
		return model.Outcome{}, ctx.Err()
	}
}
