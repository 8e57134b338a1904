package timeline

import "github.com/roach88/feedline/internal/ir"

// TimelinesFor returns the timelines a status with the given visibility
// lands in.
func TimelinesFor(visibility ir.Visibility, groupID string) []ir.TimelineKey {
	switch visibility {
	case ir.VisibilityDirect:
		return []ir.TimelineKey{ir.TimelineDirect}
	case ir.VisibilityGroup:
		return []ir.TimelineKey{ir.GroupTimeline(groupID)}
	case ir.VisibilityPublic, ir.VisibilityUnlisted:
		return []ir.TimelineKey{ir.TimelineHome, ir.TimelineCommunity, ir.TimelinePublic}
	default:
		return []ir.TimelineKey{ir.TimelineHome}
	}
}

// TimelinesForStatus routes a confirmed status.
func TimelinesForStatus(s ir.Status) []ir.TimelineKey {
	return TimelinesFor(s.Visibility, s.GroupID)
}

// TimelinesForParams routes a submitted post that has no status yet.
func TimelinesForParams(p ir.StatusParams) []ir.TimelineKey {
	return TimelinesFor(p.Visibility, p.GroupID)
}
