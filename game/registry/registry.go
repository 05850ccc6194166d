package registry

import (
	"errors"
	"sync"
	"time"

	"tictactoe/game/engine"
)

var (
	ErrMatchNotFound      = errors.New("match not found")
	ErrMatchAlreadyExists = errors.New("match already exists")
)

// Registry maps match identifiers to matches. The outer mutex guards the
// map and the creation-order slice only; each entry carries its own mutex
// serializing operations on that match. The outer lock is never held while
// an entry lock is taken.
type Registry struct {
	mu      sync.RWMutex
	matches map[string]*entry
	order   []string
}

type entry struct {
	mu      sync.Mutex
	match   *engine.Match
	removed bool
}

// Participant is a view of one match slot, computed inside the registry's
// critical section so callers never read live match state.
type Participant struct {
	Conn   engine.Conn
	Marker engine.Marker
	IsTurn bool
}

// MoveOutcome reports an accepted move plus the participants to notify,
// with IsTurn reflecting turn ownership after the move.
type MoveOutcome struct {
	Result       engine.MoveResult
	Participants []Participant
}

// CloseOutcome reports a voluntary close: who closed, the abandoned peer if
// a second participant had joined, and whether the match was still open
// (listed) when it was closed.
type CloseOutcome struct {
	Closer  Participant
	Peer    *Participant
	WasOpen bool
}

// Abandoned reports one match torn down by a disconnect.
type Abandoned struct {
	MatchID string
	Closer  engine.Marker
	Peer    *Participant
	WasOpen bool
}

// MatchInfo is an observational snapshot of one match.
type MatchInfo struct {
	ID        string        `json:"id"`
	Status    engine.Status `json:"status"`
	Board     engine.Board  `json:"board"`
	Turn      engine.Marker `json:"turn,omitempty"`
	Winner    engine.Marker `json:"winner,omitempty"`
	Tied      bool          `json:"tied,omitempty"`
	Players   int           `json:"players"`
	CreatedAt time.Time     `json:"created_at"`
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		matches: make(map[string]*entry),
	}
}

// Create inserts a new waiting match with the creator bound to the X slot.
// It fails with ErrMatchAlreadyExists if the identifier is taken.
func (r *Registry) Create(id string, creator engine.Conn) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.matches[id]; exists {
		return ErrMatchAlreadyExists
	}

	r.matches[id] = &entry{match: engine.NewMatch(id, creator)}
	r.order = append(r.order, id)
	return nil
}

// Join admits the connection as the second participant. Concurrent joins on
// the same identifier serialize on the entry lock, so exactly one succeeds;
// the rest fail with ErrMatchUnavailable. On success it returns both
// participants with their post-join turn ownership.
func (r *Registry) Join(id string, conn engine.Conn) ([]Participant, error) {
	e, err := r.lookup(id)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.removed {
		return nil, ErrMatchNotFound
	}
	if err := e.match.Join(conn); err != nil {
		return nil, err
	}

	return participants(e.match, false), nil
}

// Move applies one move inside the match's critical section. The claimed
// marker is advisory client state; when present it must match the caller's
// authoritative slot or the move is rejected as out of turn. A move that
// finishes the match removes it from the registry after the outcome is
// computed.
func (r *Registry) Move(id string, conn engine.Conn, cell int, claimed engine.Marker) (MoveOutcome, error) {
	e, err := r.lookup(id)
	if err != nil {
		return MoveOutcome{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.removed {
		return MoveOutcome{}, ErrMatchNotFound
	}

	if claimed != engine.Empty {
		if p, ok := e.match.PlayerByConn(conn); ok && p.Marker != claimed {
			return MoveOutcome{}, engine.ErrNotYourTurn
		}
	}

	result, err := e.match.ApplyMove(conn, cell)
	if err != nil {
		return MoveOutcome{}, err
	}

	outcome := MoveOutcome{
		Result:       result,
		Participants: participants(e.match, result.Finished),
	}

	if result.Finished {
		e.removed = true
		r.remove(id)
	}

	return outcome, nil
}

// Close finishes the match on behalf of the connection and removes it.
func (r *Registry) Close(id string, conn engine.Conn) (CloseOutcome, error) {
	e, err := r.lookup(id)
	if err != nil {
		return CloseOutcome{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.removed {
		return CloseOutcome{}, ErrMatchNotFound
	}

	wasOpen := e.match.Status == engine.StatusWaiting

	closer, ok := e.match.PlayerByConn(conn)
	if !ok {
		return CloseOutcome{}, engine.ErrNotAParticipant
	}

	peer, err := e.match.Close(conn)
	if err != nil {
		return CloseOutcome{}, err
	}

	e.removed = true
	r.remove(id)

	outcome := CloseOutcome{
		Closer:  Participant{Conn: closer.Conn, Marker: closer.Marker},
		WasOpen: wasOpen,
	}
	if peer != nil {
		outcome.Peer = &Participant{Conn: peer.Conn, Marker: peer.Marker}
	}
	return outcome, nil
}

// HandleDisconnect closes every match the connection is bound to and
// reports the abandoned peers. It is the implicit close path for transport
// disconnects.
func (r *Registry) HandleDisconnect(conn engine.Conn) []Abandoned {
	type bound struct {
		id string
		e  *entry
	}

	r.mu.RLock()
	candidates := make([]bound, 0, len(r.order))
	for _, id := range r.order {
		if e, ok := r.matches[id]; ok {
			candidates = append(candidates, bound{id: id, e: e})
		}
	}
	r.mu.RUnlock()

	var abandoned []Abandoned
	for _, c := range candidates {
		c.e.mu.Lock()
		if c.e.removed {
			c.e.mu.Unlock()
			continue
		}

		closer, ok := c.e.match.PlayerByConn(conn)
		if !ok {
			c.e.mu.Unlock()
			continue
		}

		wasOpen := c.e.match.Status == engine.StatusWaiting
		peer, err := c.e.match.Close(conn)
		if err != nil {
			c.e.mu.Unlock()
			continue
		}
		c.e.removed = true
		c.e.mu.Unlock()

		r.remove(c.id)

		a := Abandoned{MatchID: c.id, Closer: closer.Marker, WasOpen: wasOpen}
		if peer != nil {
			a.Peer = &Participant{Conn: peer.Conn, Marker: peer.Marker}
		}
		abandoned = append(abandoned, a)
	}

	return abandoned
}

// ListOpen returns the identifiers of matches still waiting for a second
// participant, in creation order.
func (r *Registry) ListOpen() []string {
	r.mu.RLock()
	type item struct {
		id string
		e  *entry
	}
	items := make([]item, 0, len(r.order))
	for _, id := range r.order {
		if e, ok := r.matches[id]; ok {
			items = append(items, item{id: id, e: e})
		}
	}
	r.mu.RUnlock()

	open := make([]string, 0, len(items))
	for _, it := range items {
		it.e.mu.Lock()
		if !it.e.removed && it.e.match.Status == engine.StatusWaiting {
			open = append(open, it.id)
		}
		it.e.mu.Unlock()
	}
	return open
}

// IsBound reports whether the connection currently holds a slot in any
// match. Connections with no binding are idle and eligible for open-listing
// broadcasts.
func (r *Registry) IsBound(connID string) bool {
	r.mu.RLock()
	entries := make([]*entry, 0, len(r.matches))
	for _, e := range r.matches {
		entries = append(entries, e)
	}
	r.mu.RUnlock()

	for _, e := range entries {
		e.mu.Lock()
		bound := false
		if !e.removed {
			for _, p := range e.match.Players {
				if p.Conn.ID() == connID {
					bound = true
					break
				}
			}
		}
		e.mu.Unlock()
		if bound {
			return true
		}
	}
	return false
}

// Get returns an observational snapshot of one match.
func (r *Registry) Get(id string) (MatchInfo, error) {
	e, err := r.lookup(id)
	if err != nil {
		return MatchInfo{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.removed {
		return MatchInfo{}, ErrMatchNotFound
	}
	return snapshot(e.match), nil
}

// Snapshot returns observational snapshots of all matches in creation
// order.
func (r *Registry) Snapshot() []MatchInfo {
	r.mu.RLock()
	type item struct {
		id string
		e  *entry
	}
	items := make([]item, 0, len(r.order))
	for _, id := range r.order {
		if e, ok := r.matches[id]; ok {
			items = append(items, item{id: id, e: e})
		}
	}
	r.mu.RUnlock()

	infos := make([]MatchInfo, 0, len(items))
	for _, it := range items {
		it.e.mu.Lock()
		if !it.e.removed {
			infos = append(infos, snapshot(it.e.match))
		}
		it.e.mu.Unlock()
	}
	return infos
}

// Count returns the number of matches currently registered.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.matches)
}

// lookup fetches the entry for id. The registry lock is released before the
// caller takes the entry lock; the entry's removed flag covers the window
// between lookup and lock acquisition.
func (r *Registry) lookup(id string) (*entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.matches[id]
	if !ok {
		return nil, ErrMatchNotFound
	}
	return e, nil
}

// remove deletes the identifier from the map and the order slice. Callers
// must not hold the registry lock.
func (r *Registry) remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.matches, id)
	for i, existing := range r.order {
		if existing == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

// participants builds notification views for both slots. When the match
// just finished no slot owns the turn.
func participants(m *engine.Match, finished bool) []Participant {
	views := make([]Participant, 0, len(m.Players))
	for _, p := range m.Players {
		views = append(views, Participant{
			Conn:   p.Conn,
			Marker: p.Marker,
			IsTurn: !finished && p.Marker == m.Turn,
		})
	}
	return views
}

func snapshot(m *engine.Match) MatchInfo {
	info := MatchInfo{
		ID:        m.ID,
		Status:    m.Status,
		Board:     m.Board,
		Winner:    m.Winner,
		Tied:      m.Tied,
		Players:   len(m.Players),
		CreatedAt: m.CreatedAt,
	}
	if m.Status == engine.StatusInProgress {
		info.Turn = m.Turn
	}
	return info
}
