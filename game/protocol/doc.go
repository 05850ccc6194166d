// Package protocol translates client messages into registry operations.
//
// The protocol package implements:
//   - The typed inbound and outbound message variants of the wire protocol
//   - The per-connection session handler driving the match registry
//   - Status message composition for both participants
//   - Routing of transport disconnects through the close path
//
// Wire Protocol:
//
// Frames are JSON objects tagged by an "action" field. Clients send new,
// create, join, move, and close; the server answers with new, create, join,
// move, close, finish, and error. Listing-bearing frames carry the open
// match identifiers in creation order under "games"; an absent field means
// the listing is empty.
//
// Inbound frames are advisory about intent only. The handler re-validates
// turn ownership, cell occupancy, and match status against the registry's
// authoritative state; a client-supplied marker that contradicts the
// registry is rejected, never trusted. Failures yield an error frame to the
// offending connection and never mutate shared state or reach the peer.
package protocol
