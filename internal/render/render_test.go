package render

import (
	"bytes"
	"context"
	"image/png"
	"testing"

	"golang.org/x/image/font/basicfont"

	"github.com/park285/chessx/internal/board"
)

func TestPNGStartPosition(t *testing.T) {
	r := New(32)
	sel := board.Sq(6, 4)
	mv := board.Move{Kind: board.Displacement, From: board.Sq(6, 3), To: board.Sq(4, 3)}
	data, err := r.PNG(context.Background(), board.Start(), Options{
		Header:   "Alice (Blancs) vs Bob (Noirs)",
		Turn:     "Aux Blancs de jouer",
		Selected: &sel,
		Targets:  []board.Square{board.Sq(5, 4), board.Sq(4, 4)},
		LastMove: &mv,
	})
	if err != nil {
		t.Fatalf("PNG: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	b := img.Bounds()
	if b.Dx() != 32*8+sideMargin*2 || b.Dy() != 32*8+topMargin+bottomMargin {
		t.Fatalf("bounds = %v", b)
	}
	// an empty light square in the middle keeps its plain colour
	x, y := sideMargin+32*0+2, topMargin+32*4+2
	r0, g0, b0, _ := img.At(x, y).RGBA()
	lr, lg, lb, _ := lightSquare.RGBA()
	if r0 != lr || g0 != lg || b0 != lb {
		t.Fatalf("a4 corner colour = %v", img.At(x, y))
	}
}

func TestPNGFlippedAndCancelled(t *testing.T) {
	r := New(0)
	if _, err := r.PNG(context.Background(), board.Board{}, Options{Flip: true}); err != nil {
		t.Fatalf("PNG empty flipped: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := r.PNG(ctx, board.Start(), Options{}); err == nil {
		t.Fatalf("expected context error")
	}
}

func TestAllPieceSpritesParse(t *testing.T) {
	for _, c := range []board.Color{board.White, board.Black} {
		for k := board.Pawn; k <= board.King; k++ {
			cell := board.Cell{Kind: k, Color: c}
			a, err := pieceSprite(cell, 40)
			if err != nil {
				t.Fatalf("%s: %v", spriteAsset(cell), err)
			}
			again, _ := pieceSprite(cell, 40)
			if a != again {
				t.Fatalf("%s not cached", spriteAsset(cell))
			}
		}
	}
	if got := spriteAsset(board.Cell{Kind: board.Knight, Color: board.Black}); got != "assets/pieces/bN.svg" {
		t.Fatalf("asset name = %q", got)
	}
	if got := spriteAsset(board.Cell{Kind: board.King, Color: board.White}); got != "assets/pieces/wK.svg" {
		t.Fatalf("asset name = %q", got)
	}
	if _, err := pieceSprite(board.Empty, 40); err == nil {
		t.Fatalf("expected error for an empty square")
	}
}

func TestTruncateWithEllipsis(t *testing.T) {
	face := basicfont.Face7x13
	if got := truncateWithEllipsis(face, "short", 200); got != "short" {
		t.Fatalf("got %q", got)
	}
	got := truncateWithEllipsis(face, "a very long player name indeed", 70)
	if len(got) == 0 || got[len(got)-3:] != "..." {
		t.Fatalf("got %q", got)
	}
}
