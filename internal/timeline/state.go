package timeline

import (
	"slices"

	"github.com/roach88/feedline/internal/ir"
)

// Limits bounds the queue and the realtime truncation of items.
type Limits struct {
	// MaxQueuedItems caps queuedItems. The oldest queued ids are dropped.
	MaxQueuedItems int `json:"max_queued_items"`

	// TruncateCeiling is the item count above which a realtime insertion
	// at the top of a timeline truncates it.
	TruncateCeiling int `json:"truncate_ceiling"`

	// TruncateFloor is the item count kept after truncation.
	TruncateFloor int `json:"truncate_floor"`
}

// DefaultLimits returns the stock 40 / 40 / 20 limits.
func DefaultLimits() Limits {
	return Limits{
		MaxQueuedItems:  40,
		TruncateCeiling: 40,
		TruncateFloor:   20,
	}
}

// truncate keeps the newest TruncateFloor ids once ids exceeds the ceiling.
func (l Limits) truncate(ids OrderedSet) OrderedSet {
	if ids.Len() > l.TruncateCeiling {
		return ids.Take(l.TruncateFloor)
	}
	return ids
}

// Page carries the pagination metadata of one fetched batch.
type Page struct {
	Next            ir.Cursor
	Prev            ir.Cursor
	Partial         bool
	IsLoadingRecent bool
}

// State is the view state of one timeline.
type State struct {
	Unread                int        `json:"unread"`
	Online                bool       `json:"online"`
	Top                   bool       `json:"top"`
	IsLoading             bool       `json:"is_loading"`
	HasMore               bool       `json:"has_more"`
	LoadingFailed         bool       `json:"loading_failed"`
	IsPartial             bool       `json:"is_partial"`
	Next                  ir.Cursor  `json:"next,omitempty"`
	Prev                  ir.Cursor  `json:"prev,omitempty"`
	Items                 OrderedSet `json:"items"`
	QueuedItems           OrderedSet `json:"queued_items"`
	TotalQueuedItemsCount int        `json:"total_queued_items_count"`
	FeedAccountID         string     `json:"feed_account_id,omitempty"`
}

// NewState returns the default state of a timeline nobody has loaded yet.
func NewState() State {
	return State{Top: true, HasMore: true}
}

// Equal reports whether two states are identical, including item order.
func (s State) Equal(o State) bool {
	return s.Unread == o.Unread &&
		s.Online == o.Online &&
		s.Top == o.Top &&
		s.IsLoading == o.IsLoading &&
		s.HasMore == o.HasMore &&
		s.LoadingFailed == o.LoadingFailed &&
		s.IsPartial == o.IsPartial &&
		s.Next == o.Next &&
		s.Prev == o.Prev &&
		s.TotalQueuedItemsCount == o.TotalQueuedItemsCount &&
		s.FeedAccountID == o.FeedAccountID &&
		slices.Equal(s.Items.ids, o.Items.ids) &&
		slices.Equal(s.QueuedItems.ids, o.QueuedItems.ids)
}

func (s State) applyPage(p Page) State {
	s.IsLoading = false
	s.LoadingFailed = false
	s.IsPartial = p.Partial
	s.Next = p.Next
	s.Prev = p.Prev
	if p.Next == "" && !p.IsLoadingRecent {
		s.HasMore = false
	}
	return s
}

// dropListed removes ids that are now in items from the queue.
func (s State) dropListed() State {
	if s.QueuedItems.Len() == 0 {
		return s
	}
	s.QueuedItems = s.QueuedItems.Filter(func(id ir.StatusID) bool {
		return !s.Items.Has(id)
	})
	return s
}

// Normalize replaces items with batch, in batch order.
func (s State) Normalize(batch []ir.StatusID, p Page) State {
	s = s.applyPage(p)
	s.Items = NewOrderedSet(batch...)
	return s.dropListed()
}

// Merge folds batch into items without truncating.
//
// Append keeps existing items in front. Prepend puts the batch in front.
// DirectionAuto prepends when the batch starts with a newer id than items
// and appends otherwise. An empty batch leaves items untouched.
func (s State) Merge(batch []ir.StatusID, p Page, dir ir.Direction) State {
	s = s.applyPage(p)
	incoming := NewOrderedSet(batch...)
	switch {
	case incoming.Len() == 0:
		return s
	case s.Items.Len() == 0:
		s.Items = incoming
		return s.dropListed()
	}

	if dir == ir.DirectionAuto {
		dir = ir.DirectionAppend
		if incoming.First().NewerThan(s.Items.First()) {
			dir = ir.DirectionPrepend
		}
	}

	if dir == ir.DirectionPrepend {
		s.Items = incoming.Union(s.Items)
	} else {
		s.Items = s.Items.Union(incoming)
	}
	return s.dropListed()
}

// InsertOne puts a realtime arrival at the front of items.
//
// Ids already listed or queued are ignored. At the top of the timeline the
// items are truncated; otherwise the unread counter grows.
func (s State) InsertOne(id ir.StatusID, l Limits) State {
	if s.Items.Has(id) || s.QueuedItems.Has(id) {
		return s
	}
	s.Items = s.Items.Prepend(id)
	if s.Top {
		s.Items = l.truncate(s.Items)
	} else {
		s.Unread++
	}
	return s
}

// Enqueue holds a realtime arrival in the queue and reports how many queued
// ids were dropped to stay within MaxQueuedItems.
func (s State) Enqueue(id ir.StatusID, l Limits) (State, int) {
	if s.Items.Has(id) || s.QueuedItems.Has(id) {
		return s, 0
	}
	queued := s.QueuedItems.Prepend(id)
	evicted := 0
	if queued.Len() > l.MaxQueuedItems {
		evicted = queued.Len() - l.MaxQueuedItems
		queued = queued.Take(l.MaxQueuedItems)
	}
	s.QueuedItems = queued
	s.TotalQueuedItemsCount++
	return s, evicted
}

// Dequeue moves every queued id in front of items and resets the queue.
func (s State) Dequeue(l Limits) State {
	items := s.QueuedItems.Union(s.Items)
	if s.Top {
		items = l.truncate(items)
	}
	s.Items = items
	s.QueuedItems = OrderedSet{}
	s.TotalQueuedItemsCount = 0
	return s
}

// SetTop records whether the viewer is at the top. Reaching the top clears
// the unread counter.
func (s State) SetTop(top bool) State {
	s.Top = top
	if top {
		s.Unread = 0
	}
	return s
}

// Connect marks the realtime stream as online.
func (s State) Connect() State {
	s.Online = true
	return s
}

// Disconnect marks the realtime stream as offline. Items are left alone.
func (s State) Disconnect() State {
	s.Online = false
	return s
}

// SetLoading flags a fetch as in flight.
func (s State) SetLoading(loading bool) State {
	s.IsLoading = loading
	return s
}

// SetFailed records the outcome of a fetch and ends the loading phase.
func (s State) SetFailed(failed bool) State {
	s.IsLoading = false
	s.LoadingFailed = failed
	return s
}

// Remove drops id from items and queued items. The arrival counter is kept.
func (s State) Remove(id ir.StatusID) (State, int) {
	removed := 0
	if s.Items.Has(id) {
		s.Items = s.Items.Delete(id)
		removed++
	}
	if s.QueuedItems.Has(id) {
		s.QueuedItems = s.QueuedItems.Delete(id)
		removed++
	}
	return s, removed
}

// ReplaceID swaps old for replacement in place, in items and in the queue.
// When replacement ends up both listed and queued, the queued copy goes.
func (s State) ReplaceID(old, replacement ir.StatusID) (State, bool) {
	if !s.Items.Has(old) && !s.QueuedItems.Has(old) {
		return s, false
	}
	s.Items = s.Items.Replace(old, replacement)
	s.QueuedItems = s.QueuedItems.Replace(old, replacement)
	if s.Items.Has(replacement) {
		s.QueuedItems = s.QueuedItems.Delete(replacement)
	}
	return s, true
}

// ReplaceFeed empties items and records whose feed the timeline now shows.
func (s State) ReplaceFeed(accountID string) State {
	s.Items = OrderedSet{}
	s.FeedAccountID = accountID
	return s
}
