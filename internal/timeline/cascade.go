package timeline

import "github.com/roach88/feedline/internal/ir"

// DeleteStatus removes id, written by author, from every timeline, then
// removes each reference one level deep. Reposts of a reference are not
// chased.
//
// When exclude is set, the account's own timelines (account:<exclude> and
// account:<exclude>:*) are left alone; the exclusion follows timeline keys,
// not authors. DeleteStatus returns the number of ids removed across items
// and queues.
func DeleteStatus(r *Registry, id ir.StatusID, author string, refs []ir.RepostReference, exclude string) int {
	removed := 0
	for _, key := range r.Keys() {
		if exclude != "" && key.BelongsToAccount(exclude) {
			continue
		}
		r.updateExisting(key, func(s State) State {
			s, n := s.Remove(id)
			removed += n
			return s
		})
	}
	for _, ref := range refs {
		removed += DeleteStatus(r, ref.StatusID, ref.AccountID, nil, exclude)
	}
	return removed
}

// ReferencesTo returns the statuses in snapshot that repost id.
func ReferencesTo(snapshot []ir.Status, id ir.StatusID) []ir.RepostReference {
	var refs []ir.RepostReference
	for _, s := range snapshot {
		if s.ReblogOf == id {
			refs = append(refs, ir.RepostReference{StatusID: s.ID, AccountID: s.AccountID})
		}
	}
	return refs
}

// FilterTimelines purges an account's statuses, and direct reposts of them,
// from every timeline except the account's own.
func FilterTimelines(r *Registry, rel ir.Relationship, snapshot []ir.Status) int {
	removed := 0
	for _, s := range snapshot {
		if s.AccountID != rel.ID {
			continue
		}
		removed += DeleteStatus(r, s.ID, s.AccountID, ReferencesTo(snapshot, s.ID), rel.ID)
	}
	return removed
}

// FilterHome drops an unfollowed account's statuses from the home timeline.
func FilterHome(r *Registry, rel ir.Relationship, snapshot []ir.Status) int {
	authored := make(map[ir.StatusID]struct{})
	for _, s := range snapshot {
		if s.AccountID == rel.ID {
			authored[s.ID] = struct{}{}
		}
	}
	if len(authored) == 0 {
		return 0
	}

	removed := 0
	r.update(ir.TimelineHome, func(s State) State {
		for id := range authored {
			var n int
			s, n = s.Remove(id)
			removed += n
		}
		return s
	})
	return removed
}
