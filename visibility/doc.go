// Package visibility tracks which items of a rendered, scrollable product
// collection sit inside the viewing surface and builds point-in-time
// snapshots of that state for the shopping assistant.
//
// A Tracker owns one observation session at a time. Install replaces the
// tracked set and classifies every item synchronously; the platform then
// delivers batched intersection changes through a Notifier. Each item is in
// exactly one Zone: Visible, AboveFold (scrolled past) or BelowFold (not yet
// reached). Unclassified only exists inside the classifier, never in the
// registry a reader can observe.
//
// A Tracker is not safe for concurrent use. Hosts run every call, and every
// platform delivery, on a single Loop.
package visibility
