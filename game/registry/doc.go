// Package registry owns the process-wide collection of matches.
//
// The registry is the single shared mutable resource of the server. Every
// read-then-write operation on a match (join, move, close) runs inside a
// critical section keyed by the match identifier: operations on different
// matches never block each other, operations on the same match serialize.
// This is what closes the join race, so at most one second participant is
// ever admitted per match.
//
// Protocol handlers never hold a *engine.Match; they pass the match
// identifier to the registry for each operation and receive immutable
// outcome values computed inside the critical section. Finished matches are
// removed from the registry as soon as their closing outcome has been
// computed.
//
// HandleDisconnect routes an abrupt transport disconnect through the same
// close path as a voluntary close, so the remaining participant is never
// left waiting on a dead peer.
package registry
