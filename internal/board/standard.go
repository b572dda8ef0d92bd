package board

import (
	"fmt"

	nchess "github.com/corentings/chess/v2"
)

var toChessPiece = map[Cell]nchess.Piece{
	{Pawn, White}:   nchess.WhitePawn,
	{Knight, White}: nchess.WhiteKnight,
	{Bishop, White}: nchess.WhiteBishop,
	{Rook, White}:   nchess.WhiteRook,
	{Queen, White}:  nchess.WhiteQueen,
	{King, White}:   nchess.WhiteKing,
	{Pawn, Black}:   nchess.BlackPawn,
	{Knight, Black}: nchess.BlackKnight,
	{Bishop, Black}: nchess.BlackBishop,
	{Rook, Black}:   nchess.BlackRook,
	{Queen, Black}:  nchess.BlackQueen,
	{King, Black}:   nchess.BlackKing,
}

// ChessSquare maps sq onto the library's square type (row 7 is rank 1).
func ChessSquare(sq Square) nchess.Square {
	return nchess.NewSquare(nchess.File(sq.Col), nchess.Rank(Size-1-sq.Row))
}

// ToChess converts b into a corentings board for FEN export.
func ToChess(b Board) *nchess.Board {
	m := make(map[nchess.Square]nchess.Piece)
	for row := 0; row < Size; row++ {
		for col := 0; col < Size; col++ {
			if p, ok := toChessPiece[b[row][col]]; ok {
				m[ChessSquare(Sq(row, col))] = p
			}
		}
	}
	return nchess.NewBoard(m)
}

// StandardFEN renders b as a full FEN record with side to move and no castling or
// en-passant rights.
func StandardFEN(b Board, side Color) string {
	turn := "w"
	if side == Black {
		turn = "b"
	}
	return fmt.Sprintf("%s %s - - 0 1", ToChess(b).String(), turn)
}
