package event

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/roach88/feedline/internal/ir"
)

// Envelope is the transport form of an event: its kind plus a JSON payload.
// NDJSON input, the HTTP surface and scenario steps all use this shape.
type Envelope struct {
	Kind    Kind            `json:"kind"`
	Payload json.RawMessage `json:"payload"`
}

// Encode returns the kind and canonical JSON payload of ev.
func Encode(ev Event) (Kind, []byte, error) {
	if ev == nil {
		return "", nil, fmt.Errorf("encode event: nil event")
	}
	payload, err := ir.MarshalCanonical(ev)
	if err != nil {
		return "", nil, fmt.Errorf("encode %s: %w", ev.Kind(), err)
	}
	return ev.Kind(), payload, nil
}

// EncodeEnvelope wraps ev in an Envelope with a canonical payload.
func EncodeEnvelope(ev Event) (Envelope, error) {
	kind, payload, err := Encode(ev)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{Kind: kind, Payload: payload}, nil
}

// Decode parses payload as the event named by kind.
// Unknown kinds, unknown fields and trailing data are rejected with a
// *DecodeError.
func Decode(kind Kind, payload []byte) (Event, error) {
	switch kind {
	case KindExpandRequest:
		return decodeInto[ExpandRequest](kind, payload)
	case KindExpandFail:
		return decodeInto[ExpandFail](kind, payload)
	case KindExpandSuccess:
		return decodeInto[ExpandSuccess](kind, payload)
	case KindUpdate:
		return decodeInto[Update](kind, payload)
	case KindUpdateQueue:
		return decodeInto[UpdateQueue](kind, payload)
	case KindDequeue:
		return decodeInto[Dequeue](kind, payload)
	case KindConnect:
		return decodeInto[Connect](kind, payload)
	case KindDisconnect:
		return decodeInto[Disconnect](kind, payload)
	case KindScrollTop:
		return decodeInto[ScrollTop](kind, payload)
	case KindClear:
		return decodeInto[Clear](kind, payload)
	case KindReplace:
		return decodeInto[Replace](kind, payload)
	case KindDelete:
		return decodeInto[Delete](kind, payload)
	case KindGroupRemoveStatus:
		return decodeInto[GroupRemoveStatus](kind, payload)
	case KindStatusCreateRequest:
		return decodeInto[StatusCreateRequest](kind, payload)
	case KindStatusCreateSuccess:
		return decodeInto[StatusCreateSuccess](kind, payload)
	case KindRelationshipChange:
		return decodeInto[RelationshipChange](kind, payload)
	default:
		return nil, &DecodeError{Kind: kind, Reason: "unknown event kind"}
	}
}

// DecodeEnvelope decodes the event carried by env.
func DecodeEnvelope(env Envelope) (Event, error) {
	return Decode(env.Kind, env.Payload)
}

// ParseEnvelope decodes one JSON envelope line such as
// {"kind":"TIMELINE_UPDATE","payload":{"timeline":"home","status_id":"1"}}.
func ParseEnvelope(data []byte) (Event, error) {
	var env Envelope
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&env); err != nil {
		return nil, &DecodeError{Reason: "malformed envelope", Err: err}
	}
	if env.Kind == "" {
		return nil, &DecodeError{Reason: "missing kind"}
	}
	return DecodeEnvelope(env)
}

func decodeInto[T Event](kind Kind, payload []byte) (Event, error) {
	var ev T
	if len(bytes.TrimSpace(payload)) == 0 {
		return nil, &DecodeError{Kind: kind, Reason: "empty payload"}
	}
	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&ev); err != nil {
		return nil, &DecodeError{Kind: kind, Reason: "malformed payload", Err: err}
	}
	if dec.More() {
		return nil, &DecodeError{Kind: kind, Reason: "trailing data after payload"}
	}
	return ev, nil
}
