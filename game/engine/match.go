package engine

import "time"

// Conn identifies one live client connection. The transport layer provides
// the implementation; the engine only ever compares identities.
type Conn interface {
	ID() string
}

// Status is the match lifecycle phase. Transitions only move forward:
// waiting -> in progress -> finished.
type Status string

const (
	StatusWaiting    Status = "waiting"
	StatusInProgress Status = "in_progress"
	StatusFinished   Status = "finished"
)

// Player binds a connection to a participant slot.
type Player struct {
	Marker Marker
	Conn   Conn
}

// Match is one game instance between at most two participants. The creator
// plays X and owns the first turn.
type Match struct {
	ID        string
	Status    Status
	Board     Board
	Players   []Player
	Turn      Marker
	Winner    Marker
	Tied      bool
	CreatedAt time.Time
}

// MoveResult describes one accepted move.
type MoveResult struct {
	Cell     int
	Marker   Marker
	Next     Marker
	Finished bool
	Winner   Marker
	Tied     bool
}

// NewMatch creates a match in waiting status with the creator bound to the
// X slot and an empty board.
func NewMatch(id string, creator Conn) *Match {
	return &Match{
		ID:        id,
		Status:    StatusWaiting,
		Players:   []Player{{Marker: MarkerX, Conn: creator}},
		Turn:      MarkerX,
		CreatedAt: time.Now(),
	}
}

// Join binds the second participant to the O slot and starts the match.
// Exactly one join can ever succeed; any later attempt sees a non-waiting
// status and fails with ErrMatchUnavailable.
func (m *Match) Join(conn Conn) error {
	if m.Status != StatusWaiting {
		return ErrMatchUnavailable
	}
	if m.isParticipant(conn) {
		return ErrAlreadyInMatch
	}

	m.Players = append(m.Players, Player{Marker: MarkerO, Conn: conn})
	m.Status = StatusInProgress
	return nil
}

// ApplyMove places the caller's marker at the given cell. Legality is
// derived entirely from match state: the caller must be a participant, must
// own the current turn, and the cell must be empty. On success the turn
// flips, and the board is re-evaluated; a decided board transitions the
// match to finished with the winner (or tie) recorded.
func (m *Match) ApplyMove(conn Conn, cell int) (MoveResult, error) {
	if m.Status != StatusInProgress {
		return MoveResult{}, ErrMatchUnavailable
	}

	player, ok := m.PlayerByConn(conn)
	if !ok {
		return MoveResult{}, ErrNotAParticipant
	}
	if player.Marker != m.Turn {
		return MoveResult{}, ErrNotYourTurn
	}

	board, err := m.Board.Place(cell, player.Marker)
	if err != nil {
		return MoveResult{}, err
	}
	m.Board = board

	result := MoveResult{
		Cell:   cell,
		Marker: player.Marker,
		Next:   player.Marker.Opposite(),
	}

	switch outcome, winner := m.Board.Evaluate(); outcome {
	case Won:
		m.Status = StatusFinished
		m.Winner = winner
		result.Finished = true
		result.Winner = winner
	case Draw:
		m.Status = StatusFinished
		m.Tied = true
		result.Finished = true
		result.Tied = true
	default:
		m.Turn = result.Next
	}

	return result, nil
}

// Close finishes the match regardless of board state, recording no winner.
// It returns the abandoned peer, if a second participant had joined, so the
// caller can deliver a closing notification.
func (m *Match) Close(conn Conn) (*Player, error) {
	if m.Status == StatusFinished {
		return nil, ErrMatchUnavailable
	}

	player, ok := m.PlayerByConn(conn)
	if !ok {
		return nil, ErrNotAParticipant
	}

	m.Status = StatusFinished

	if peer, ok := m.PlayerByMarker(player.Marker.Opposite()); ok {
		return &peer, nil
	}
	return nil, nil
}

// PlayerByConn finds the participant slot bound to the connection.
func (m *Match) PlayerByConn(conn Conn) (Player, bool) {
	for _, p := range m.Players {
		if p.Conn.ID() == conn.ID() {
			return p, true
		}
	}
	return Player{}, false
}

// PlayerByMarker finds the participant slot playing the marker.
func (m *Match) PlayerByMarker(marker Marker) (Player, bool) {
	for _, p := range m.Players {
		if p.Marker == marker {
			return p, true
		}
	}
	return Player{}, false
}

func (m *Match) isParticipant(conn Conn) bool {
	_, ok := m.PlayerByConn(conn)
	return ok
}
