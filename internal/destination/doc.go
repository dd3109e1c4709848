// Package destination implements the destination registry: the mapping from
// destination names ("MASTER", "SESSION", "ERROR") to append-only sinks.
//
// The name→path map is an immutable Table published through an atomic
// pointer; SetDestinations and Set swap in a new Table so readers never see
// a half-updated map. Sinks are opened lazily on first write and keyed by
// resolved path, so two names sharing a file share one handle and one lock.
// Every line is written with a single Write call under the sink's mutex.
//
// Swapping the map does not close sinks that are already open; Reopen closes
// them so the next write opens the current paths, and Close syncs and
// releases everything.
package destination
