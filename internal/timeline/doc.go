// Package timeline implements the timeline feed state engine.
//
// A Registry holds one State per timeline key. States are values: every
// transition returns a new State, and the Registry swaps it in. Apply is the
// single reducer that maps an event.Event onto those transitions; nothing
// else writes to a Registry.
//
// Items and queued items are kept newest-first. Realtime arrivals go to the
// front, and truncation keeps the front of the set.
package timeline
