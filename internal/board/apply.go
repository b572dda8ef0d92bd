package board

// ApplyMove moves whatever occupies from onto to and clears from.
// No legality check is done; the side to move is left to the caller.
func ApplyMove(b Board, from, to Square) (Board, error) {
	if !from.InBounds() || !to.InBounds() {
		return b, ErrOutOfBounds
	}
	if from == to {
		return b, nil
	}
	b.Set(to, b.At(from))
	b.Set(from, Empty)
	return b, nil
}

// Castling files.
const (
	fileA = 0
	fileC = 2
	fileD = 3
	fileE = 4
	fileF = 5
	fileG = 6
	fileH = 7
)

// castleSquares returns king origin/target and rook origin/target for a wing.
func castleSquares(c Color, w Wing) (kingFrom, kingTo, rookFrom, rookTo Square) {
	row := c.homeRow()
	if w == QueenSide {
		return Sq(row, fileE), Sq(row, fileC), Sq(row, fileA), Sq(row, fileD)
	}
	return Sq(row, fileE), Sq(row, fileG), Sq(row, fileH), Sq(row, fileF)
}

// Castle clears file e and the wing corner of c's home row and writes c's king and rook
// onto their castled files.
//
// Nothing is verified: the origins are cleared whatever stands there and the targets are
// overwritten.
func Castle(b Board, c Color, w Wing) Board {
	kingFrom, kingTo, rookFrom, rookTo := castleSquares(c, w)
	b.Set(kingFrom, Empty)
	b.Set(kingTo, Cell{Kind: King, Color: c})
	b.Set(rookFrom, Empty)
	b.Set(rookTo, Cell{Kind: Rook, Color: c})
	return b
}
