package board

// MoveKind classifies the difference between two positions.
type MoveKind uint8

const (
	NoMove MoveKind = iota
	Displacement
	Castling
)

// Move is a single change recovered by InferMove.
type Move struct {
	Kind  MoveKind
	Color Color // side that moved
	From  Square
	To    Square
	Wing  Wing // set for Castling
}

// InferMove recovers the move that turns prev into next.
//
// A displacement is one vacated square plus one changed square now holding the piece that
// left. A castling is any board that equals Castle(prev, c, w) for some color and wing.
// ok is false for identical boards and for anything else.
func InferMove(prev, next Board) (Move, bool) {
	var diff []Square
	for row := 0; row < Size; row++ {
		for col := 0; col < Size; col++ {
			if prev[row][col] != next[row][col] {
				diff = append(diff, Sq(row, col))
			}
		}
	}
	if len(diff) == 0 {
		return Move{}, false
	}
	if len(diff) == 2 {
		for i := range diff {
			from, to := diff[i], diff[1-i]
			moved := prev.At(from)
			if moved.IsEmpty() || !next.At(from).IsEmpty() {
				continue
			}
			if next.At(to) == moved {
				return Move{Kind: Displacement, Color: moved.Color, From: from, To: to}, true
			}
		}
	}
	for _, c := range []Color{White, Black} {
		for _, w := range []Wing{KingSide, QueenSide} {
			if Castle(prev, c, w) == next {
				kingFrom, kingTo, _, _ := castleSquares(c, w)
				return Move{Kind: Castling, Color: c, From: kingFrom, To: kingTo, Wing: w}, true
			}
		}
	}
	return Move{}, false
}
