package board

// IsLegal reports whether moving the piece on from to to is allowed for side.
//
// Only piece geometry, path emptiness and the capture rule are checked. Check, pins,
// en-passant, promotion and castling are out of scope. With free set every in-bounds move
// is legal. The only error is ErrOutOfBounds.
func IsLegal(b Board, side Color, from, to Square, free bool) (bool, error) {
	if !from.InBounds() || !to.InBounds() {
		return false, ErrOutOfBounds
	}
	if free {
		return true, nil
	}
	if from == to {
		return false, nil
	}
	piece := b.At(from)
	if piece.IsEmpty() || piece.Color != side {
		return false, nil
	}
	target := b.At(to)
	if !target.IsEmpty() && target.Color == piece.Color {
		return false, nil
	}

	dr, dc := to.Row-from.Row, to.Col-from.Col
	switch piece.Kind {
	case Pawn:
		return pawnLegal(&b, piece.Color, from, to, dr, dc), nil
	case Knight:
		return knightShape(dr, dc), nil
	case Bishop:
		return abs(dr) == abs(dc) && diagonalClear(&b, from, to), nil
	case Rook:
		return (dr == 0 || dc == 0) && straightClear(&b, from, to), nil
	case Queen:
		switch {
		case abs(dr) == abs(dc):
			return diagonalClear(&b, from, to), nil
		case dr == 0 || dc == 0:
			return straightClear(&b, from, to), nil
		}
		return false, nil
	case King:
		return abs(dr) <= 1 && abs(dc) <= 1, nil
	}
	return false, nil
}

// LegalTargets lists every square the piece on from may move to, row-major.
func LegalTargets(b Board, side Color, from Square, free bool) ([]Square, error) {
	if !from.InBounds() {
		return nil, ErrOutOfBounds
	}
	var out []Square
	for row := 0; row < Size; row++ {
		for col := 0; col < Size; col++ {
			to := Sq(row, col)
			if to == from {
				continue
			}
			if ok, _ := IsLegal(b, side, from, to, free); ok {
				out = append(out, to)
			}
		}
	}
	return out, nil
}

// pawnDirection is the row delta of a forward pawn step.
func pawnDirection(c Color) int {
	if c == White {
		return -1
	}
	return 1
}

// pawnHomeRow is the row from which a double step is allowed.
func pawnHomeRow(c Color) int {
	if c == White {
		return 6
	}
	return 1
}

func pawnLegal(b *Board, c Color, from, to Square, dr, dc int) bool {
	dir := pawnDirection(c)
	target := b.At(to)
	switch {
	case dc == 0 && dr == dir:
		return target.IsEmpty()
	case dc == 0 && dr == 2*dir:
		if from.Row != pawnHomeRow(c) {
			return false
		}
		return target.IsEmpty() && b.At(Sq(to.Row-dir, to.Col)).IsEmpty()
	case abs(dc) == 1 && dr == dir:
		// diagonal only as a capture; same color was already rejected
		return !target.IsEmpty()
	}
	return false
}

func knightShape(dr, dc int) bool {
	ar, ac := abs(dr), abs(dc)
	return (ar == 1 && ac == 2) || (ar == 2 && ac == 1)
}

// diagonalClear walks from toward to while neither coordinate has reached its target.
// Squares on the target row or column are not inspected.
func diagonalClear(b *Board, from, to Square) bool {
	row, col := from.Row, from.Col
	sr, sc := step(from.Row, to.Row), step(from.Col, to.Col)
	for row != to.Row && col != to.Col {
		row += sr
		col += sc
		if row != to.Row && col != to.Col && !b[row][col].IsEmpty() {
			return false
		}
	}
	return true
}

// straightClear walks along a row or column; every square before the target must be empty.
func straightClear(b *Board, from, to Square) bool {
	row, col := from.Row, from.Col
	for row != to.Row || col != to.Col {
		if from.Row == to.Row {
			col += step(from.Col, to.Col)
		} else {
			row += step(from.Row, to.Row)
		}
		if (row != to.Row || col != to.Col) && !b[row][col].IsEmpty() {
			return false
		}
	}
	return true
}

func step(from, to int) int {
	if from < to {
		return 1
	}
	return -1
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
