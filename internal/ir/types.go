package ir

import "strings"

// StatusID identifies a status owned by the status ledger.
type StatusID string

// Cursor is an opaque pagination cursor. The empty cursor means "none".
type Cursor string

// TimelineKey names one timeline.
//
// Keys are namespaced by convention (home, public, community, direct,
// group:<id>, account:<id>, account:<id>:pinned) but never enumerated
// centrally: any key may be addressed.
type TimelineKey string

// Well-known timeline keys.
const (
	TimelineHome      TimelineKey = "home"
	TimelinePublic    TimelineKey = "public"
	TimelineCommunity TimelineKey = "community"
	TimelineDirect    TimelineKey = "direct"
)

const (
	groupPrefix   = "group:"
	accountPrefix = "account:"
	pinnedSuffix  = ":pinned"
)

// GroupTimeline returns the key of a group's timeline.
func GroupTimeline(groupID string) TimelineKey {
	return TimelineKey(groupPrefix + groupID)
}

// AccountTimeline returns the key of an account's profile timeline.
func AccountTimeline(accountID string) TimelineKey {
	return TimelineKey(accountPrefix + accountID)
}

// PinnedTimeline returns the key of an account's pinned-statuses timeline.
func PinnedTimeline(accountID string) TimelineKey {
	return TimelineKey(accountPrefix + accountID + pinnedSuffix)
}

// IsPinned reports whether the key names a pinned variant.
// Pinned timelines are replaced wholesale on every batch load.
func (k TimelineKey) IsPinned() bool {
	return strings.HasSuffix(string(k), pinnedSuffix)
}

// BelongsToAccount reports whether the key is the account's profile timeline
// or one of its variants (account:<id> or account:<id>:...).
func (k TimelineKey) BelongsToAccount(accountID string) bool {
	base := accountPrefix + accountID
	s := string(k)
	return s == base || strings.HasPrefix(s, base+":")
}

// Visibility is the audience of a status.
type Visibility string

// Visibility values understood by the timeline assembler.
const (
	VisibilityPublic   Visibility = "public"
	VisibilityUnlisted Visibility = "unlisted"
	VisibilityPrivate  Visibility = "private"
	VisibilityDirect   Visibility = "direct"
	VisibilityGroup    Visibility = "group"
)

// Status is the slice of a normalized status record the engine reads.
type Status struct {
	ID          StatusID   `json:"id"`
	AccountID   string     `json:"account_id"`
	Visibility  Visibility `json:"visibility"`
	GroupID     string     `json:"group_id,omitempty"`
	ReblogOf    StatusID   `json:"reblog_of,omitempty"`
	ScheduledAt string     `json:"scheduled_at,omitempty"`
}

// StatusParams are the submitted parameters of a post that has not been
// confirmed by the server yet.
type StatusParams struct {
	Visibility  Visibility `json:"visibility"`
	GroupID     string     `json:"group_id,omitempty"`
	ScheduledAt string     `json:"scheduled_at,omitempty"`
}

// Relationship is the viewer's relationship to another account.
type Relationship struct {
	ID        string `json:"id"`
	Blocking  bool   `json:"blocking,omitempty"`
	Muting    bool   `json:"muting,omitempty"`
	Following bool   `json:"following,omitempty"`
}

// RepostReference points at a status that reposts another one.
// It is computed on demand from a ledger snapshot and never stored.
type RepostReference struct {
	StatusID  StatusID `json:"status_id"`
	AccountID string   `json:"account_id"`
}

// Direction selects how a fetched batch is merged into existing items.
type Direction string

const (
	// DirectionAuto infers the direction from the batch and existing ids.
	DirectionAuto Direction = ""
	// DirectionAppend keeps existing items first (paging toward older content).
	DirectionAppend Direction = "append"
	// DirectionPrepend puts the batch first (loading newer content).
	DirectionPrepend Direction = "prepend"
)

// NewerThan reports whether a sorts after b in server id order.
// Server ids are numeric strings of varying width: longer is newer,
// equal widths compare lexically.
func (a StatusID) NewerThan(b StatusID) bool {
	if len(a) != len(b) {
		return len(a) > len(b)
	}
	return a > b
}
