package engine

import (
	"context"

	"github.com/roach88/feedline/internal/event"
	"github.com/roach88/feedline/internal/ir"
	"github.com/roach88/feedline/internal/ledger"
)

// DeleteFromTimelines removes a status and its direct reposts from every
// timeline. The author and the reposts are resolved from the ledger.
func (e *Engine) DeleteFromTimelines(ctx context.Context, id ir.StatusID) (Change, error) {
	ev := event.Delete{
		StatusID:   id,
		References: ledger.ReferencesTo(e.ledger, id),
	}
	if st, ok := e.ledger.Get(id); ok {
		ev.AccountID = st.AccountID
	}
	return e.Dispatch(ctx, ev)
}

// ApplyRelationship filters timelines after a block, mute or unfollow.
// The journaled snapshot holds the account's statuses and the statuses
// reposting them, which is all the filters read.
func (e *Engine) ApplyRelationship(ctx context.Context, rel ir.Relationship, action event.RelationshipAction) (Change, error) {
	return e.Dispatch(ctx, event.RelationshipChange{
		Relationship: rel,
		Action:       action,
		Statuses:     relationshipSnapshot(e.ledger, rel.ID),
	})
}

func relationshipSnapshot(r ledger.Reader, accountID string) []ir.Status {
	authored := make(map[ir.StatusID]struct{})
	for _, s := range ledger.AuthoredBy(r, accountID) {
		authored[s.ID] = struct{}{}
	}
	if len(authored) == 0 {
		return nil
	}

	var out []ir.Status
	for _, s := range r.Snapshot() {
		_, own := authored[s.ID]
		_, repost := authored[s.ReblogOf]
		if own || repost {
			out = append(out, s)
		}
	}
	return out
}

// SubmitStatus queues a placeholder for a post the server has not confirmed
// yet and returns the idempotency key that ConfirmStatus needs.
func (e *Engine) SubmitStatus(ctx context.Context, params ir.StatusParams) (string, Change, error) {
	key := e.keys.Generate()
	change, err := e.Dispatch(ctx, event.StatusCreateRequest{Params: params, IdempotencyKey: key})
	if err != nil {
		return "", Change{}, err
	}
	return key, change, nil
}

// ConfirmStatus swaps the placeholder for the confirmed status.
func (e *Engine) ConfirmStatus(ctx context.Context, status ir.Status, idempotencyKey string, editing bool) (Change, error) {
	return e.Dispatch(ctx, event.StatusCreateSuccess{
		Status:         status,
		IdempotencyKey: idempotencyKey,
		Editing:        editing,
	})
}
