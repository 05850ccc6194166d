package engine

// Marker is the symbol a participant plays with. The zero value means an
// unplayed cell.
type Marker string

const (
	Empty   Marker = ""
	MarkerX Marker = "X"
	MarkerO Marker = "O"
)

// Opposite returns the other participant's marker.
func (m Marker) Opposite() Marker {
	if m == MarkerX {
		return MarkerO
	}
	return MarkerX
}

// Valid reports whether m is one of the two playable markers.
func (m Marker) Valid() bool {
	return m == MarkerX || m == MarkerO
}

// BoardCells is the number of cells on the board.
const BoardCells = 9

// Board holds the nine cells in row-major order. It is a value type; Place
// returns an updated copy rather than mutating in place.
type Board [BoardCells]Marker

// winningLines enumerates the three rows, three columns, and two diagonals
// by cell index.
var winningLines = [8][3]int{
	{0, 1, 2},
	{3, 4, 5},
	{6, 7, 8},
	{0, 3, 6},
	{1, 4, 7},
	{2, 5, 8},
	{0, 4, 8},
	{2, 4, 6},
}

// Outcome is the result of evaluating a board.
type Outcome int

const (
	Ongoing Outcome = iota
	Won
	Draw
)

// IsCellEmpty reports whether the cell at index is unplayed. Out-of-range
// indexes count as occupied so callers reject them uniformly.
func (b Board) IsCellEmpty(index int) bool {
	if index < 0 || index >= BoardCells {
		return false
	}
	return b[index] == Empty
}

// Place returns a copy of the board with the marker set at index. It fails
// with ErrIllegalMove if the index is out of range or the cell is occupied.
func (b Board) Place(index int, marker Marker) (Board, error) {
	if !b.IsCellEmpty(index) {
		return b, ErrIllegalMove
	}
	b[index] = marker
	return b, nil
}

// Evaluate recomputes the board outcome from scratch: Won with the winning
// marker if any of the eight lines is complete, Draw if all cells are filled
// without a winner, Ongoing otherwise.
func (b Board) Evaluate() (Outcome, Marker) {
	for _, line := range winningLines {
		first := b[line[0]]
		if first != Empty && b[line[1]] == first && b[line[2]] == first {
			return Won, first
		}
	}

	for _, cell := range b {
		if cell == Empty {
			return Ongoing, Empty
		}
	}

	return Draw, Empty
}
