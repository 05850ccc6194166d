package protocol

import "tictactoe/game/engine"

// Action tags a protocol frame.
type Action string

const (
	ActionNew    Action = "new"
	ActionCreate Action = "create"
	ActionJoin   Action = "join"
	ActionMove   Action = "move"
	ActionClose  Action = "close"
	ActionFinish Action = "finish"
	ActionError  Action = "error"
)

// inboundActions is the closed set of actions a client may send.
var inboundActions = map[Action]bool{
	ActionNew:    true,
	ActionCreate: true,
	ActionJoin:   true,
	ActionMove:   true,
	ActionClose:  true,
}

// Inbound is one client frame. GameID, Cell, and State are interpreted per
// action; State is advisory client state and never trusted on its own.
type Inbound struct {
	Action Action        `json:"action"`
	GameID string        `json:"game_id,omitempty"`
	Cell   *int          `json:"cell,omitempty"`
	State  engine.Marker `json:"state,omitempty"`
}

// Outbound is one server frame. Fields are populated per action and omitted
// otherwise; booleans use pointers so a present false survives marshaling.
type Outbound struct {
	Action       Action        `json:"action"`
	Games        []string      `json:"games,omitempty"`
	Player       engine.Marker `json:"player,omitempty"`
	OtherPlayer  engine.Marker `json:"other_player,omitempty"`
	IsPlayerMove *bool         `json:"is_player_move,omitempty"`
	Cell         *int          `json:"cell,omitempty"`
	State        engine.Marker `json:"state,omitempty"`
	Winner       engine.Marker `json:"winner,omitempty"`
	HasWinner    *bool         `json:"has_winner,omitempty"`
	IsTied       *bool         `json:"is_tied,omitempty"`
	Message      string        `json:"message,omitempty"`
}

// Status message templates shown to participants.
const (
	winnerMessage     = "You won, player %s!"
	lossMessage       = "The player %s won!"
	gameTiedMessage   = "The game is tied. Try again!"
	closedGameMessage = "%s player left the game!"
	yourMoveMessage   = "Next move is yours %s"
	nextMoveMessage   = "Next move for player %s"
)

// Error texts sent to offending connections.
const (
	errGameStarted    = "The game has been started"
	errGameClosed     = "The game was closed"
	errGameExists     = "A game with this id already exists"
	errNotYourMove    = "It is not your move"
	errCellTaken      = "This cell is already taken"
	errNotInGame      = "You are not part of this game"
	errNotStarted     = "The game has not been started yet"
	errInvalidGameID  = "Invalid game id"
	errInvalidCell    = "Invalid cell"
	errActionUnknown  = "Not found or not allowed"
	errAlreadyPlaying = "You are already in this game"
)

func boolPtr(b bool) *bool { return &b }

func intPtr(i int) *int { return &i }
