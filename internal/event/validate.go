package event

import "github.com/roach88/feedline/internal/ir"

// Validate checks that ev carries the fields its transition needs.
// It returns a *DecodeError describing the first missing field.
func Validate(ev Event) error {
	if ev == nil {
		return &DecodeError{Reason: "nil event"}
	}

	missing := func(field string) error {
		return &DecodeError{Kind: ev.Kind(), Reason: "missing " + field}
	}

	switch e := ev.(type) {
	case ExpandRequest:
		if e.Timeline == "" {
			return missing("timeline")
		}
	case ExpandFail:
		if e.Timeline == "" {
			return missing("timeline")
		}
	case ExpandSuccess:
		if e.Timeline == "" {
			return missing("timeline")
		}
		for _, s := range e.Statuses {
			if s.ID == "" {
				return missing("statuses[].id")
			}
		}
		switch e.Direction {
		case ir.DirectionAuto, ir.DirectionAppend, ir.DirectionPrepend:
		default:
			return &DecodeError{Kind: ev.Kind(), Reason: "unknown direction " + string(e.Direction)}
		}
	case Update:
		if e.Timeline == "" {
			return missing("timeline")
		}
		if e.StatusID == "" {
			return missing("status_id")
		}
	case UpdateQueue:
		if e.Timeline == "" {
			return missing("timeline")
		}
		if e.StatusID == "" {
			return missing("status_id")
		}
	case Dequeue:
		if e.Timeline == "" {
			return missing("timeline")
		}
	case Connect:
		if e.Timeline == "" {
			return missing("timeline")
		}
	case Disconnect:
		if e.Timeline == "" {
			return missing("timeline")
		}
	case ScrollTop:
		if e.Timeline == "" {
			return missing("timeline")
		}
	case Clear:
		if e.Timeline == "" {
			return missing("timeline")
		}
	case Replace:
		if e.AccountID == "" {
			return missing("account_id")
		}
	case Delete:
		if e.StatusID == "" {
			return missing("status_id")
		}
		for _, ref := range e.References {
			if ref.StatusID == "" {
				return missing("references[].status_id")
			}
		}
	case GroupRemoveStatus:
		if e.GroupID == "" {
			return missing("group_id")
		}
		if e.StatusID == "" {
			return missing("status_id")
		}
	case StatusCreateRequest:
		if e.IdempotencyKey == "" {
			return missing("idempotency_key")
		}
	case StatusCreateSuccess:
		if e.IdempotencyKey == "" {
			return missing("idempotency_key")
		}
		if e.Status.ID == "" {
			return missing("status.id")
		}
	case RelationshipChange:
		if e.Relationship.ID == "" {
			return missing("relationship.id")
		}
		switch e.Action {
		case ActionBlock, ActionMute, ActionUnfollow:
		default:
			return &DecodeError{Kind: ev.Kind(), Reason: "unknown action " + string(e.Action)}
		}
	}
	return nil
}
