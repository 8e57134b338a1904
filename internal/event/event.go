package event

import "github.com/roach88/feedline/internal/ir"

// Kind names an event on the wire and in the journal.
type Kind string

const (
	KindExpandRequest       Kind = "TIMELINE_EXPAND_REQUEST"
	KindExpandFail          Kind = "TIMELINE_EXPAND_FAIL"
	KindExpandSuccess       Kind = "TIMELINE_EXPAND_SUCCESS"
	KindUpdate              Kind = "TIMELINE_UPDATE"
	KindUpdateQueue         Kind = "TIMELINE_UPDATE_QUEUE"
	KindDequeue             Kind = "TIMELINE_DEQUEUE"
	KindConnect             Kind = "TIMELINE_CONNECT"
	KindDisconnect          Kind = "TIMELINE_DISCONNECT"
	KindScrollTop           Kind = "TIMELINE_SCROLL_TOP"
	KindClear               Kind = "TIMELINE_CLEAR"
	KindReplace             Kind = "TIMELINE_REPLACE"
	KindDelete              Kind = "TIMELINE_DELETE"
	KindGroupRemoveStatus   Kind = "GROUP_REMOVE_STATUS"
	KindStatusCreateRequest Kind = "STATUS_CREATE_REQUEST"
	KindStatusCreateSuccess Kind = "STATUS_CREATE_SUCCESS"
	KindRelationshipChange  Kind = "RELATIONSHIP_CHANGE"
)

// AllKinds lists every known kind in declaration order.
var AllKinds = []Kind{
	KindExpandRequest,
	KindExpandFail,
	KindExpandSuccess,
	KindUpdate,
	KindUpdateQueue,
	KindDequeue,
	KindConnect,
	KindDisconnect,
	KindScrollTop,
	KindClear,
	KindReplace,
	KindDelete,
	KindGroupRemoveStatus,
	KindStatusCreateRequest,
	KindStatusCreateSuccess,
	KindRelationshipChange,
}

// Known reports whether k is part of the vocabulary.
func (k Kind) Known() bool {
	for _, known := range AllKinds {
		if k == known {
			return true
		}
	}
	return false
}

// Event is a sealed interface; only the types in this package implement it.
type Event interface {
	Kind() Kind
	isEvent()
}

// ExpandRequest marks a timeline fetch as in flight.
type ExpandRequest struct {
	Timeline ir.TimelineKey `json:"timeline"`
}

// ExpandFail records a failed timeline fetch.
type ExpandFail struct {
	Timeline ir.TimelineKey `json:"timeline"`
}

// ExpandSuccess delivers one fetched page of statuses.
type ExpandSuccess struct {
	Timeline        ir.TimelineKey `json:"timeline"`
	Statuses        []ir.Status    `json:"statuses"`
	Next            ir.Cursor      `json:"next,omitempty"`
	Prev            ir.Cursor      `json:"prev,omitempty"`
	Partial         bool           `json:"partial,omitempty"`
	IsLoadingRecent bool           `json:"is_loading_recent,omitempty"`
	// Direction is inferred from the batch when empty.
	Direction ir.Direction `json:"direction,omitempty"`
}

// Update is a realtime arrival inserted directly into items.
type Update struct {
	Timeline ir.TimelineKey `json:"timeline"`
	StatusID ir.StatusID    `json:"status_id"`
}

// UpdateQueue is a realtime arrival held in the queue.
type UpdateQueue struct {
	Timeline ir.TimelineKey `json:"timeline"`
	StatusID ir.StatusID    `json:"status_id"`
}

// Dequeue merges the queue into items.
type Dequeue struct {
	Timeline ir.TimelineKey `json:"timeline"`
}

// Connect marks the realtime stream of a timeline as online.
type Connect struct {
	Timeline ir.TimelineKey `json:"timeline"`
}

// Disconnect marks the realtime stream of a timeline as offline.
type Disconnect struct {
	Timeline ir.TimelineKey `json:"timeline"`
}

// ScrollTop reports whether the viewer is at the top of a timeline.
type ScrollTop struct {
	Timeline ir.TimelineKey `json:"timeline"`
	Top      bool           `json:"top"`
}

// Clear resets one timeline to its default state.
type Clear struct {
	Timeline ir.TimelineKey `json:"timeline"`
}

// Replace switches the home timeline to another account's feed.
type Replace struct {
	AccountID string `json:"account_id"`
}

// Delete removes a status, and statuses reposting it, from every timeline.
type Delete struct {
	StatusID   ir.StatusID          `json:"status_id"`
	AccountID  string               `json:"account_id"`
	References []ir.RepostReference `json:"references,omitempty"`
}

// GroupRemoveStatus removes a status from one group timeline.
type GroupRemoveStatus struct {
	GroupID  string      `json:"group_id"`
	StatusID ir.StatusID `json:"status_id"`
}

// StatusCreateRequest is a local post submission awaiting confirmation.
type StatusCreateRequest struct {
	Params         ir.StatusParams `json:"params"`
	IdempotencyKey string          `json:"idempotency_key"`
}

// StatusCreateSuccess is the server confirmation of a submitted post.
type StatusCreateSuccess struct {
	Status         ir.Status `json:"status"`
	IdempotencyKey string    `json:"idempotency_key"`
	Editing        bool      `json:"editing,omitempty"`
}

// RelationshipAction is the relationship change that triggers filtering.
type RelationshipAction string

const (
	ActionBlock    RelationshipAction = "block"
	ActionMute     RelationshipAction = "mute"
	ActionUnfollow RelationshipAction = "unfollow"
)

// RelationshipChange filters timelines after a block, mute or unfollow.
// Statuses is the ledger snapshot the filter runs against.
type RelationshipChange struct {
	Relationship ir.Relationship    `json:"relationship"`
	Action       RelationshipAction `json:"action"`
	Statuses     []ir.Status        `json:"statuses,omitempty"`
}

func (ExpandRequest) Kind() Kind       { return KindExpandRequest }
func (ExpandFail) Kind() Kind          { return KindExpandFail }
func (ExpandSuccess) Kind() Kind       { return KindExpandSuccess }
func (Update) Kind() Kind              { return KindUpdate }
func (UpdateQueue) Kind() Kind         { return KindUpdateQueue }
func (Dequeue) Kind() Kind             { return KindDequeue }
func (Connect) Kind() Kind             { return KindConnect }
func (Disconnect) Kind() Kind          { return KindDisconnect }
func (ScrollTop) Kind() Kind           { return KindScrollTop }
func (Clear) Kind() Kind               { return KindClear }
func (Replace) Kind() Kind             { return KindReplace }
func (Delete) Kind() Kind              { return KindDelete }
func (GroupRemoveStatus) Kind() Kind   { return KindGroupRemoveStatus }
func (StatusCreateRequest) Kind() Kind { return KindStatusCreateRequest }
func (StatusCreateSuccess) Kind() Kind { return KindStatusCreateSuccess }
func (RelationshipChange) Kind() Kind  { return KindRelationshipChange }

func (ExpandRequest) isEvent()       {}
func (ExpandFail) isEvent()          {}
func (ExpandSuccess) isEvent()       {}
func (Update) isEvent()              {}
func (UpdateQueue) isEvent()         {}
func (Dequeue) isEvent()             {}
func (Connect) isEvent()             {}
func (Disconnect) isEvent()          {}
func (ScrollTop) isEvent()           {}
func (Clear) isEvent()               {}
func (Replace) isEvent()             {}
func (Delete) isEvent()              {}
func (GroupRemoveStatus) isEvent()   {}
func (StatusCreateRequest) isEvent() {}
func (StatusCreateSuccess) isEvent() {}
func (RelationshipChange) isEvent()  {}
