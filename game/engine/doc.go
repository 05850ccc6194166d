// Package engine provides the core rules for a tic-tac-toe match.
//
// The engine package implements:
//   - The 3x3 board with win and draw evaluation
//   - The match state machine (waiting -> in progress -> finished)
//   - Turn ownership and move legality arbitration
//   - Voluntary and involuntary match closure
//
// Core Types:
//
// Board is a pure value type holding the nine cells. Match ties a board to
// two participant slots (X and O), the current turn owner, and the match
// lifecycle status. Conn is the minimal handle the engine needs to identify
// a participant's connection; the transport layer provides the concrete
// implementation.
//
// Usage:
//
//	m := engine.NewMatch("abc", creatorConn)
//	if err := m.Join(secondConn); err != nil {
//		log.Fatal(err)
//	}
//
//	result, err := m.ApplyMove(creatorConn, 4)
//	if result.Finished {
//		// result.Winner or result.Tied describes the outcome
//	}
//
// Concurrency:
//
// Board and Match carry no synchronization of their own. The registry owns
// all Match instances and serializes access per match identifier; callers
// must not retain a Match across operations.
package engine
