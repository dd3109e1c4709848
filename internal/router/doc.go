// Package router maps log categories to ordered lists of destination names.
//
// A Router holds an immutable CategoryMap behind an atomic pointer. Readers
// resolve against whatever map is current when they start; writers build a
// new map and swap it in whole, so a concurrent reader never sees a partial
// update.
//
// The reserved category "all" resolves to every destination the registry
// currently knows about, in registry order, unless the map carries an
// explicit "all" entry.
package router
