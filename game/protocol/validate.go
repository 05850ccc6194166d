package protocol

import (
	"errors"

	"tictactoe/game/engine"
)

const maxMatchIDLength = 64

var (
	errEmptyMatchID   = errors.New("match id is empty")
	errLongMatchID    = errors.New("match id too long")
	errBadMatchIDChar = errors.New("match id contains invalid characters")
	errMissingCell    = errors.New("cell is missing")
	errCellRange      = errors.New("cell index out of range")
)

// validateMatchID checks a client-chosen identifier: non-empty, bounded
// length, letters, digits, dashes, and underscores only.
func validateMatchID(id string) error {
	if id == "" {
		return errEmptyMatchID
	}
	if len(id) > maxMatchIDLength {
		return errLongMatchID
	}
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
		case r == '-' || r == '_':
		default:
			return errBadMatchIDChar
		}
	}
	return nil
}

// validateCell checks a move's target cell: present and within the board.
func validateCell(cell *int) (int, error) {
	if cell == nil {
		return 0, errMissingCell
	}
	if *cell < 0 || *cell >= engine.BoardCells {
		return 0, errCellRange
	}
	return *cell, nil
}
