package timeline

import (
	"github.com/roach88/feedline/internal/event"
	"github.com/roach88/feedline/internal/ir"
)

// Outcome summarizes what one event did to the registry.
type Outcome struct {
	// Timelines lists the keys whose state changed, sorted.
	Timelines []ir.TimelineKey `json:"timelines"`

	// Evicted counts queued ids dropped by the queue cap.
	Evicted int `json:"evicted,omitempty"`

	// Removed counts ids removed by deletion or filtering.
	Removed int `json:"removed,omitempty"`

	// Replaced counts timelines in which a placeholder was confirmed.
	Replaced int `json:"replaced,omitempty"`

	// Skipped is set when the event was recognized but deliberately ignored,
	// such as a scheduled post or an edit.
	Skipped bool `json:"skipped,omitempty"`
}

// Apply reduces ev into r. It never fails: unknown references and missing
// placeholders are no-ops.
func Apply(r *Registry, ev event.Event) Outcome {
	r.begin()
	var out Outcome

	switch e := ev.(type) {
	case event.ExpandRequest:
		r.update(e.Timeline, func(s State) State { return s.SetLoading(true) })
	case event.ExpandFail:
		r.update(e.Timeline, func(s State) State { return s.SetFailed(true) })
	case event.ExpandSuccess:
		Expand(r, e.Timeline, statusIDs(e.Statuses), Page{
			Next:            e.Next,
			Prev:            e.Prev,
			Partial:         e.Partial,
			IsLoadingRecent: e.IsLoadingRecent,
		}, e.Direction)
	case event.Update:
		r.update(e.Timeline, func(s State) State { return s.InsertOne(e.StatusID, r.limits) })
	case event.UpdateQueue:
		r.update(e.Timeline, func(s State) State {
			s, out.Evicted = s.Enqueue(e.StatusID, r.limits)
			return s
		})
	case event.Dequeue:
		r.update(e.Timeline, func(s State) State { return s.Dequeue(r.limits) })
	case event.Connect:
		r.update(e.Timeline, State.Connect)
	case event.Disconnect:
		r.update(e.Timeline, State.Disconnect)
	case event.ScrollTop:
		r.update(e.Timeline, func(s State) State { return s.SetTop(e.Top) })
	case event.Clear:
		r.update(e.Timeline, func(State) State { return NewState() })
	case event.Replace:
		r.update(ir.TimelineHome, func(s State) State { return s.ReplaceFeed(e.AccountID) })
	case event.Delete:
		out.Removed = DeleteStatus(r, e.StatusID, e.AccountID, e.References, "")
	case event.GroupRemoveStatus:
		r.update(ir.GroupTimeline(e.GroupID), func(s State) State {
			s, out.Removed = s.Remove(e.StatusID)
			return s
		})
	case event.StatusCreateRequest:
		if e.Params.ScheduledAt != "" {
			out.Skipped = true
			break
		}
		out.Evicted = EnqueuePending(r, e.Params, e.IdempotencyKey)
	case event.StatusCreateSuccess:
		if e.Status.ScheduledAt != "" || e.Editing {
			out.Skipped = true
			break
		}
		out.Replaced = ReplacePending(r, e.IdempotencyKey, e.Status.ID)
		ImportCreated(r, e.Status)
	case event.RelationshipChange:
		switch e.Action {
		case event.ActionBlock, event.ActionMute:
			out.Removed = FilterTimelines(r, e.Relationship, e.Statuses)
		case event.ActionUnfollow:
			out.Removed = FilterHome(r, e.Relationship, e.Statuses)
		default:
			out.Skipped = true
		}
	default:
		out.Skipped = true
	}

	out.Timelines = r.end()
	return out
}

// Expand applies a fetched batch. Pinned timelines are always replaced
// wholesale; every other timeline is merged.
func Expand(r *Registry, key ir.TimelineKey, batch []ir.StatusID, p Page, dir ir.Direction) {
	r.update(key, func(s State) State {
		if key.IsPinned() {
			return s.Normalize(batch, p)
		}
		return s.Merge(batch, p, dir)
	})
}

func statusIDs(statuses []ir.Status) []ir.StatusID {
	ids := make([]ir.StatusID, len(statuses))
	for i, s := range statuses {
		ids[i] = s.ID
	}
	return ids
}
