package engine

import (
	"errors"
	"testing"
)

type testConn string

func (c testConn) ID() string { return string(c) }

func startedMatch(t *testing.T) (*Match, Conn, Conn) {
	t.Helper()

	a := testConn("conn-a")
	b := testConn("conn-b")

	m := NewMatch("test-match", a)
	if err := m.Join(b); err != nil {
		t.Fatalf("Failed to join match: %v", err)
	}
	return m, a, b
}

func TestNewMatch(t *testing.T) {
	creator := testConn("creator")
	m := NewMatch("abc", creator)

	if m.Status != StatusWaiting {
		t.Errorf("Expected waiting status, got %s", m.Status)
	}
	if len(m.Players) != 1 {
		t.Fatalf("Expected 1 player, got %d", len(m.Players))
	}
	if m.Players[0].Marker != MarkerX {
		t.Errorf("Expected creator to play X, got %s", m.Players[0].Marker)
	}
	if m.Turn != MarkerX {
		t.Errorf("Expected X to own the first turn, got %s", m.Turn)
	}
	if outcome, _ := m.Board.Evaluate(); outcome != Ongoing {
		t.Error("Expected new match board to be ongoing")
	}
	if m.CreatedAt.IsZero() {
		t.Error("Expected CreatedAt to be set")
	}
}

func TestMatchJoin(t *testing.T) {
	m := NewMatch("abc", testConn("a"))

	if err := m.Join(testConn("b")); err != nil {
		t.Fatalf("Join failed: %v", err)
	}

	if m.Status != StatusInProgress {
		t.Errorf("Expected in-progress status after join, got %s", m.Status)
	}
	if len(m.Players) != 2 {
		t.Fatalf("Expected 2 players, got %d", len(m.Players))
	}
	if m.Players[1].Marker != MarkerO {
		t.Errorf("Expected second player to play O, got %s", m.Players[1].Marker)
	}

	// A second join sees a non-waiting match
	if err := m.Join(testConn("c")); !errors.Is(err, ErrMatchUnavailable) {
		t.Errorf("Expected ErrMatchUnavailable for third join, got %v", err)
	}
	if len(m.Players) != 2 {
		t.Errorf("Failed join must not add a player, got %d", len(m.Players))
	}
}

func TestMatchJoinOwnMatch(t *testing.T) {
	creator := testConn("a")
	m := NewMatch("abc", creator)

	if err := m.Join(creator); !errors.Is(err, ErrAlreadyInMatch) {
		t.Errorf("Expected ErrAlreadyInMatch, got %v", err)
	}
	if m.Status != StatusWaiting {
		t.Errorf("Failed join must not start the match, got status %s", m.Status)
	}
}

func TestMatchApplyMoveAlternatesTurn(t *testing.T) {
	m, a, b := startedMatch(t)

	result, err := m.ApplyMove(a, 4)
	if err != nil {
		t.Fatalf("First move failed: %v", err)
	}
	if result.Marker != MarkerX || result.Cell != 4 {
		t.Errorf("Unexpected move result: %+v", result)
	}
	if result.Next != MarkerO || m.Turn != MarkerO {
		t.Error("Expected turn to flip to O after X moved")
	}

	result, err = m.ApplyMove(b, 0)
	if err != nil {
		t.Fatalf("Second move failed: %v", err)
	}
	if result.Marker != MarkerO {
		t.Errorf("Expected O to have moved, got %s", result.Marker)
	}
	if m.Turn != MarkerX {
		t.Error("Expected turn to flip back to X")
	}
}

func TestMatchApplyMoveNotYourTurn(t *testing.T) {
	m, _, b := startedMatch(t)

	before := m.Board
	if _, err := m.ApplyMove(b, 0); !errors.Is(err, ErrNotYourTurn) {
		t.Errorf("Expected ErrNotYourTurn, got %v", err)
	}
	if m.Board != before {
		t.Error("Rejected move must leave the board unchanged")
	}
	if m.Turn != MarkerX {
		t.Error("Rejected move must not flip the turn")
	}
}

func TestMatchApplyMoveErrors(t *testing.T) {
	m, a, b := startedMatch(t)

	if _, err := m.ApplyMove(testConn("stranger"), 0); !errors.Is(err, ErrNotAParticipant) {
		t.Errorf("Expected ErrNotAParticipant, got %v", err)
	}

	if _, err := m.ApplyMove(a, 9); !errors.Is(err, ErrIllegalMove) {
		t.Errorf("Expected ErrIllegalMove for out-of-range cell, got %v", err)
	}

	if _, err := m.ApplyMove(a, 4); err != nil {
		t.Fatalf("Move failed: %v", err)
	}
	if _, err := m.ApplyMove(b, 4); !errors.Is(err, ErrIllegalMove) {
		t.Errorf("Expected ErrIllegalMove for occupied cell, got %v", err)
	}
}

func TestMatchApplyMoveBeforeJoin(t *testing.T) {
	a := testConn("a")
	m := NewMatch("abc", a)

	if _, err := m.ApplyMove(a, 0); !errors.Is(err, ErrMatchUnavailable) {
		t.Errorf("Expected ErrMatchUnavailable before second player joins, got %v", err)
	}
}

func TestMatchWinDetectedOnCompletingMove(t *testing.T) {
	m, a, b := startedMatch(t)

	// X takes the top row, O plays elsewhere.
	moves := []struct {
		conn Conn
		cell int
	}{
		{a, 0}, {b, 3}, {a, 1}, {b, 4},
	}
	for _, mv := range moves {
		if result, err := m.ApplyMove(mv.conn, mv.cell); err != nil {
			t.Fatalf("Move at %d failed: %v", mv.cell, err)
		} else if result.Finished {
			t.Fatalf("Match finished early after cell %d", mv.cell)
		}
	}

	result, err := m.ApplyMove(a, 2)
	if err != nil {
		t.Fatalf("Winning move failed: %v", err)
	}
	if !result.Finished || result.Winner != MarkerX || result.Tied {
		t.Errorf("Expected X win, got %+v", result)
	}
	if m.Status != StatusFinished {
		t.Errorf("Expected finished status, got %s", m.Status)
	}
	if m.Winner != MarkerX {
		t.Errorf("Expected winner X recorded, got %s", m.Winner)
	}

	// Finished is terminal
	if _, err := m.ApplyMove(b, 5); !errors.Is(err, ErrMatchUnavailable) {
		t.Errorf("Expected ErrMatchUnavailable after finish, got %v", err)
	}
}

func TestMatchDrawDetectedOnFinalMove(t *testing.T) {
	m, a, b := startedMatch(t)

	// X O X
	// X O O
	// O X X
	moves := []struct {
		conn Conn
		cell int
	}{
		{a, 0}, {b, 1}, {a, 2},
		{b, 4}, {a, 3}, {b, 5},
		{a, 7}, {b, 6},
	}
	for _, mv := range moves {
		if result, err := m.ApplyMove(mv.conn, mv.cell); err != nil {
			t.Fatalf("Move at %d failed: %v", mv.cell, err)
		} else if result.Finished {
			t.Fatalf("Match finished early after cell %d", mv.cell)
		}
	}

	result, err := m.ApplyMove(a, 8)
	if err != nil {
		t.Fatalf("Final move failed: %v", err)
	}
	if !result.Finished || !result.Tied || result.Winner != Empty {
		t.Errorf("Expected tie, got %+v", result)
	}
	if !m.Tied || m.Winner != Empty {
		t.Error("Expected tie recorded on match")
	}
}

func TestMatchClose(t *testing.T) {
	m, a, b := startedMatch(t)

	peer, err := m.Close(a)
	if err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if peer == nil {
		t.Fatal("Expected abandoned peer to be reported")
	}
	if peer.Conn.ID() != b.ID() || peer.Marker != MarkerO {
		t.Errorf("Unexpected peer: %+v", peer)
	}
	if m.Status != StatusFinished {
		t.Errorf("Expected finished status after close, got %s", m.Status)
	}
	if m.Winner != Empty {
		t.Errorf("Abandonment must not record a winner, got %s", m.Winner)
	}

	// A second close is rejected
	if _, err := m.Close(b); !errors.Is(err, ErrMatchUnavailable) {
		t.Errorf("Expected ErrMatchUnavailable for second close, got %v", err)
	}
}

func TestMatchCloseBeforeJoin(t *testing.T) {
	a := testConn("a")
	m := NewMatch("abc", a)

	peer, err := m.Close(a)
	if err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if peer != nil {
		t.Errorf("Expected no peer for an unjoined match, got %+v", peer)
	}
}

func TestMatchCloseByStranger(t *testing.T) {
	m, _, _ := startedMatch(t)

	if _, err := m.Close(testConn("stranger")); !errors.Is(err, ErrNotAParticipant) {
		t.Errorf("Expected ErrNotAParticipant, got %v", err)
	}
	if m.Status != StatusInProgress {
		t.Error("Failed close must not change match status")
	}
}
