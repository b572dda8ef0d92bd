package board

import (
	"errors"
	"fmt"
)

// Color identifies a side. The string values double as the wire format.
type Color string

const (
	White Color = "white"
	Black Color = "black"
)

// Opponent returns the other side. Unknown colors map to White.
func (c Color) Opponent() Color {
	if c == White {
		return Black
	}
	return White
}

// Valid reports whether c is one of the two sides.
func (c Color) Valid() bool { return c == White || c == Black }

// ParseColor accepts "white"/"black" and the one-letter forms.
func ParseColor(s string) (Color, error) {
	switch s {
	case "white", "w", "White", "W":
		return White, nil
	case "black", "b", "Black", "B":
		return Black, nil
	default:
		return "", fmt.Errorf("unknown color %q", s)
	}
}

// homeRow is the back rank of a side in the encoded orientation.
func (c Color) homeRow() int {
	if c == White {
		return 7
	}
	return 0
}

// Kind is a piece type. The zero value marks an empty cell.
type Kind uint8

const (
	NoKind Kind = iota
	Pawn
	Knight
	Bishop
	Rook
	Queen
	King
)

func (k Kind) String() string {
	switch k {
	case Pawn:
		return "pawn"
	case Knight:
		return "knight"
	case Bishop:
		return "bishop"
	case Rook:
		return "rook"
	case Queen:
		return "queen"
	case King:
		return "king"
	default:
		return "empty"
	}
}

// Cell is one square of the grid: either empty or a colored piece.
type Cell struct {
	Kind  Kind
	Color Color
}

// Empty is the empty cell.
var Empty = Cell{}

// IsEmpty reports whether no piece occupies the cell.
func (c Cell) IsEmpty() bool { return c.Kind == NoKind }

// Letter returns the encoding letter for the cell, or 0 when empty.
func (c Cell) Letter() byte {
	var l byte
	switch c.Kind {
	case Pawn:
		l = 'p'
	case Knight:
		l = 'n'
	case Bishop:
		l = 'b'
	case Rook:
		l = 'r'
	case Queen:
		l = 'q'
	case King:
		l = 'k'
	default:
		return 0
	}
	if c.Color == White {
		l -= 'a' - 'A'
	}
	return l
}

// cellFromLetter maps a piece letter to a cell. ok is false for anything else.
func cellFromLetter(r rune) (Cell, bool) {
	color := Black
	if r >= 'A' && r <= 'Z' {
		color = White
		r += 'a' - 'A'
	}
	var k Kind
	switch r {
	case 'p':
		k = Pawn
	case 'n':
		k = Knight
	case 'b':
		k = Bishop
	case 'r':
		k = Rook
	case 'q':
		k = Queen
	case 'k':
		k = King
	default:
		return Empty, false
	}
	return Cell{Kind: k, Color: color}, true
}

// Square addresses a cell by row (0 = top rank as encoded) and column (0 = file a).
type Square struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// Sq is shorthand for Square{Row: row, Col: col}.
func Sq(row, col int) Square { return Square{Row: row, Col: col} }

// InBounds reports whether the square lies on the 8x8 grid.
func (s Square) InBounds() bool {
	return s.Row >= 0 && s.Row < Size && s.Col >= 0 && s.Col < Size
}

// String renders the square in algebraic form (row 7 is rank 1).
func (s Square) String() string {
	if !s.InBounds() {
		return fmt.Sprintf("(%d,%d)", s.Row, s.Col)
	}
	return fmt.Sprintf("%c%d", 'a'+s.Col, Size-s.Row)
}

// ParseSquare parses algebraic notation such as "e2".
func ParseSquare(s string) (Square, error) {
	if len(s) != 2 {
		return Square{}, fmt.Errorf("%w: %q", ErrOutOfBounds, s)
	}
	f, r := s[0], s[1]
	if f >= 'A' && f <= 'H' {
		f += 'a' - 'A'
	}
	if f < 'a' || f > 'h' || r < '1' || r > '8' {
		return Square{}, fmt.Errorf("%w: %q", ErrOutOfBounds, s)
	}
	return Square{Row: Size - int(r-'0'), Col: int(f - 'a')}, nil
}

// Size is the board edge length.
const Size = 8

// Board is an 8x8 rank-major grid. It is a value type: copies are independent.
type Board [Size][Size]Cell

// At returns the cell at sq. The square must be in bounds.
func (b *Board) At(sq Square) Cell { return b[sq.Row][sq.Col] }

// Set places c at sq. The square must be in bounds.
func (b *Board) Set(sq Square, c Cell) { b[sq.Row][sq.Col] = c }

// Wing selects the castling side.
type Wing string

const (
	KingSide  Wing = "king"
	QueenSide Wing = "queen"
)

// ParseWing accepts "king"/"queen" and the usual short forms.
func ParseWing(s string) (Wing, error) {
	switch s {
	case "king", "k", "O-O", "0-0", "kingside":
		return KingSide, nil
	case "queen", "q", "O-O-O", "0-0-0", "queenside":
		return QueenSide, nil
	default:
		return "", fmt.Errorf("unknown castling side %q", s)
	}
}

var (
	// ErrMalformedPosition is returned when an encoding does not describe 8 ranks of 8 columns.
	ErrMalformedPosition = errors.New("malformed position")
	// ErrOutOfBounds is returned for coordinates outside 0..7.
	ErrOutOfBounds = errors.New("square out of bounds")
)

// PositionError describes where a decode failed.
type PositionError struct {
	Rank    int // 0-based rank index, -1 when the rank count is wrong
	Columns int // decoded width of the rank, or the rank count when Rank is -1
}

func (e *PositionError) Error() string {
	if e.Rank < 0 {
		return fmt.Sprintf("%s: %d ranks, want %d", ErrMalformedPosition, e.Columns, Size)
	}
	return fmt.Sprintf("%s: rank %d spans %d columns, want %d", ErrMalformedPosition, e.Rank, e.Columns, Size)
}

func (e *PositionError) Unwrap() error { return ErrMalformedPosition }
