package protocol

import (
	"errors"
	"fmt"
	"log"

	"tictactoe/game/engine"
	"tictactoe/game/registry"
)

// Dispatcher delivers computed outbound frames. SendTo must reach exactly
// the given connection; BroadcastToIdle must reach every connection not
// bound to a match at the time of the call.
type Dispatcher interface {
	SendTo(conn engine.Conn, msg *Outbound)
	BroadcastToIdle(msg *Outbound)
}

// Handler is the session protocol handler. It maps each inbound action to a
// registry operation and fans the resulting notifications out through the
// dispatcher. Handlers hold no match state of their own; every operation
// re-fetches authoritative state by match identifier.
type Handler struct {
	registry   *registry.Registry
	dispatcher Dispatcher
}

// NewHandler creates a handler over the given registry and dispatcher.
func NewHandler(reg *registry.Registry, dispatcher Dispatcher) *Handler {
	return &Handler{
		registry:   reg,
		dispatcher: dispatcher,
	}
}

// HandleMessage processes one inbound frame from a connection. Failures are
// reported to the sender only; the peer and shared state are untouched.
func (h *Handler) HandleMessage(conn engine.Conn, msg *Inbound) {
	if !inboundActions[msg.Action] {
		log.Printf("[WS] invalid action %q from conn=%s", msg.Action, conn.ID())
		h.sendError(conn, errActionUnknown)
		return
	}

	switch msg.Action {
	case ActionNew:
		h.handleNew(conn)
	case ActionCreate:
		h.handleCreate(conn, msg)
	case ActionJoin:
		h.handleJoin(conn, msg)
	case ActionMove:
		h.handleMove(conn, msg)
	case ActionClose:
		h.handleClose(conn, msg)
	}
}

// HandleDisconnect routes a transport-level disconnect through the close
// path for every match the connection was bound to.
func (h *Handler) HandleDisconnect(conn engine.Conn) {
	abandoned := h.registry.HandleDisconnect(conn)

	refresh := false
	for _, a := range abandoned {
		log.Printf("[GAME] disconnect game=%s conn=%s peer_notified=%v", a.MatchID, conn.ID(), a.Peer != nil)
		if a.Peer != nil {
			h.dispatcher.SendTo(a.Peer.Conn, &Outbound{
				Action:       ActionFinish,
				IsPlayerMove: boolPtr(false),
				Message:      fmt.Sprintf(closedGameMessage, a.Closer),
			})
		}
		if a.WasOpen {
			refresh = true
		}
	}

	if refresh {
		h.dispatcher.BroadcastToIdle(h.listing(ActionClose))
	}
}

func (h *Handler) handleNew(conn engine.Conn) {
	h.dispatcher.SendTo(conn, h.listing(ActionNew))
}

func (h *Handler) handleCreate(conn engine.Conn, msg *Inbound) {
	if err := validateMatchID(msg.GameID); err != nil {
		h.sendError(conn, errInvalidGameID)
		return
	}

	if err := h.registry.Create(msg.GameID, conn); err != nil {
		h.sendError(conn, errorText(err))
		return
	}
	log.Printf("[GAME] create game=%s conn=%s", msg.GameID, conn.ID())

	// The creator is now bound, so the idle broadcast naturally excludes it.
	h.dispatcher.SendTo(conn, h.listing(ActionCreate))
	h.dispatcher.BroadcastToIdle(h.listing(ActionCreate))
}

func (h *Handler) handleJoin(conn engine.Conn, msg *Inbound) {
	if err := validateMatchID(msg.GameID); err != nil {
		h.sendError(conn, errInvalidGameID)
		return
	}

	parts, err := h.registry.Join(msg.GameID, conn)
	if err != nil {
		h.sendError(conn, errorText(err))
		return
	}
	log.Printf("[GAME] join game=%s conn=%s", msg.GameID, conn.ID())

	// X always owns the opening move.
	games := h.registry.ListOpen()
	for _, p := range parts {
		message := fmt.Sprintf(nextMoveMessage, engine.MarkerX)
		if p.IsTurn {
			message = fmt.Sprintf(yourMoveMessage, engine.MarkerX)
		}
		h.dispatcher.SendTo(p.Conn, &Outbound{
			Action:       ActionJoin,
			Games:        games,
			Player:       p.Marker,
			OtherPlayer:  p.Marker.Opposite(),
			IsPlayerMove: boolPtr(p.IsTurn),
			Message:      message,
		})
	}

	// The joined match left the open listing; refresh idle watchers.
	h.dispatcher.BroadcastToIdle(h.listing(ActionNew))
}

func (h *Handler) handleMove(conn engine.Conn, msg *Inbound) {
	if err := validateMatchID(msg.GameID); err != nil {
		h.sendError(conn, errInvalidGameID)
		return
	}
	cell, err := validateCell(msg.Cell)
	if err != nil {
		h.sendError(conn, errInvalidCell)
		return
	}

	outcome, err := h.registry.Move(msg.GameID, conn, cell, msg.State)
	if err != nil {
		if errors.Is(err, engine.ErrMatchUnavailable) {
			h.sendError(conn, errNotStarted)
			return
		}
		h.sendError(conn, errorText(err))
		return
	}

	result := outcome.Result
	log.Printf("[MOVE] game=%s conn=%s cell=%d marker=%s finished=%v", msg.GameID, conn.ID(), result.Cell, result.Marker, result.Finished)

	// Both participants get the echo; the mover's local state is not
	// treated as authoritative.
	for _, p := range outcome.Participants {
		message := fmt.Sprintf(nextMoveMessage, result.Next)
		if p.IsTurn {
			message = fmt.Sprintf(yourMoveMessage, result.Next)
		}
		h.dispatcher.SendTo(p.Conn, &Outbound{
			Action:       ActionMove,
			Cell:         intPtr(result.Cell),
			State:        result.Marker,
			IsPlayerMove: boolPtr(p.IsTurn),
			Message:      message,
		})
	}

	if result.Finished {
		h.announceFinish(msg.GameID, outcome)
	}
}

func (h *Handler) handleClose(conn engine.Conn, msg *Inbound) {
	if err := validateMatchID(msg.GameID); err != nil {
		h.sendError(conn, errInvalidGameID)
		return
	}

	outcome, err := h.registry.Close(msg.GameID, conn)
	if err != nil {
		h.sendError(conn, errorText(err))
		return
	}
	log.Printf("[GAME] close game=%s conn=%s", msg.GameID, conn.ID())

	h.dispatcher.SendTo(conn, h.listing(ActionClose))

	if outcome.Peer != nil {
		h.dispatcher.SendTo(outcome.Peer.Conn, &Outbound{
			Action:       ActionFinish,
			IsPlayerMove: boolPtr(false),
			Message:      fmt.Sprintf(closedGameMessage, outcome.Closer.Marker),
		})
	}

	if outcome.WasOpen {
		h.dispatcher.BroadcastToIdle(h.listing(ActionClose))
	}
}

// announceFinish notifies both participants of a decided match. The match
// is already removed from the registry by the time this runs.
func (h *Handler) announceFinish(gameID string, outcome registry.MoveOutcome) {
	result := outcome.Result
	log.Printf("[GAME] finish game=%s winner=%q tied=%v", gameID, result.Winner, result.Tied)

	for _, p := range outcome.Participants {
		var message string
		switch {
		case result.Tied:
			message = gameTiedMessage
		case p.Marker == result.Winner:
			message = fmt.Sprintf(winnerMessage, result.Winner)
		default:
			message = fmt.Sprintf(lossMessage, result.Winner)
		}

		h.dispatcher.SendTo(p.Conn, &Outbound{
			Action:       ActionFinish,
			IsPlayerMove: boolPtr(false),
			Winner:       result.Winner,
			HasWinner:    boolPtr(result.Winner != engine.Empty),
			IsTied:       boolPtr(result.Tied),
			Message:      message,
		})
	}
}

func (h *Handler) listing(action Action) *Outbound {
	return &Outbound{
		Action: action,
		Games:  h.registry.ListOpen(),
	}
}

func (h *Handler) sendError(conn engine.Conn, text string) {
	h.dispatcher.SendTo(conn, &Outbound{
		Action:  ActionError,
		Message: text,
	})
}

// errorText maps registry and engine failures to client-facing texts.
func errorText(err error) string {
	switch {
	case errors.Is(err, registry.ErrMatchNotFound):
		return errGameClosed
	case errors.Is(err, registry.ErrMatchAlreadyExists):
		return errGameExists
	case errors.Is(err, engine.ErrAlreadyInMatch):
		return errAlreadyPlaying
	case errors.Is(err, engine.ErrMatchUnavailable):
		return errGameStarted
	case errors.Is(err, engine.ErrNotYourTurn):
		return errNotYourMove
	case errors.Is(err, engine.ErrIllegalMove):
		return errCellTaken
	case errors.Is(err, engine.ErrNotAParticipant):
		return errNotInGame
	default:
		return err.Error()
	}
}
