package board

import "strings"

// StartPosition is the standard layout in one-char-per-square form.
const StartPosition = "rnbqkbnr/pppppppp/......../......../......../......../PPPPPPPP/RNBQKBNR"

// Placeholder is the character Encode writes for an empty square.
const Placeholder = '.'

// Decode parses a position encoding into a Board.
//
// Each rank is read left to right: a piece letter fills one column, a digit N skips N
// columns, and any other character is a single empty column. Every rank must account for
// exactly eight columns.
func Decode(text string) (Board, error) {
	var b Board
	ranks := strings.Split(text, "/")
	if len(ranks) != Size {
		return Board{}, &PositionError{Rank: -1, Columns: len(ranks)}
	}
	for row, rank := range ranks {
		col := 0
		for _, r := range rank {
			switch {
			case r >= '0' && r <= '9':
				col += int(r - '0')
			default:
				if cell, ok := cellFromLetter(r); ok && col < Size {
					b[row][col] = cell
				}
				col++
			}
			if col > Size {
				break
			}
		}
		if col != Size {
			return Board{}, &PositionError{Rank: row, Columns: col}
		}
	}
	return b, nil
}

// Encode writes b using the one-char-per-square empty convention.
func Encode(b Board) string {
	var sb strings.Builder
	sb.Grow(Size*Size + Size - 1)
	for row := 0; row < Size; row++ {
		if row > 0 {
			sb.WriteByte('/')
		}
		for col := 0; col < Size; col++ {
			if l := b[row][col].Letter(); l != 0 {
				sb.WriteByte(l)
			} else {
				sb.WriteByte(Placeholder)
			}
		}
	}
	return sb.String()
}

// Start returns the decoded standard layout.
func Start() Board {
	b, err := Decode(StartPosition)
	if err != nil {
		panic(err)
	}
	return b
}
