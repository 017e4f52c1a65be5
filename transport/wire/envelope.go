// Package wire is the optional JSON wire form spec.md §6 allows a transport
// collaborator to use when messages cross a real network boundary: an
// envelope tagged by message kind, carrying an arbitrary JSON payload. The
// core never requires it -- transport.Bus passes Go values directly -- but
// a WebSocket (or any out-of-process) transport would frame messages this
// way, and the demo CLI uses it to print requests for inspection.
//
// Grounded on FC/network/participant/msg.go, which tags every message with
// a Mark/kind field and marshals it with encoding/json before handing it to
// the connection layer; here that marshaling uses goccy/go-json, the faster
// drop-in this module already uses for the debug-dump helpers in
// configs/utils.go.
package wire

import "github.com/goccy/go-json"

// Kind names the shape of a message's payload.
type Kind string

const (
	KindPrepareSingle     Kind = "PrepareSingle"
	KindPrepareIndep      Kind = "PrepareIndep"
	KindPrepareCoord      Kind = "PrepareCoord"
	KindIndepParticipants Kind = "IndepParticipants"
	KindCoordParticipants Kind = "CoordParticipants"
	KindAccept            Kind = "Accept"
	KindGetResult         Kind = "GetResult"
	KindGetProposedTs     Kind = "GetProposedTs"
	KindVote              Kind = "Vote"
	KindOutcome           Kind = "Outcome"
)

// Envelope is the self-describing unit a wire transport would send: a kind
// tag plus the raw encoded payload.
type Envelope struct {
	Kind    Kind            `json:"kind"`
	Payload json.RawMessage `json:"payload"`
}

// Encode marshals payload and tags it with kind.
func Encode(kind Kind, payload interface{}) (Envelope, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{Kind: kind, Payload: b}, nil
}

// Decode unmarshals the envelope's payload into out.
func (e Envelope) Decode(out interface{}) error {
	return json.Unmarshal(e.Payload, out)
}

// String renders the envelope for logging, matching the teacher's
// JToString debug-dump idiom.
func (e Envelope) String() string {
	b, err := json.Marshal(e)
	if err != nil {
		return string(e.Kind)
	}
	return string(b)
}
