package board

import (
	"errors"
	"testing"
)

func TestApplyMove(t *testing.T) {
	b := Start()
	next, err := ApplyMove(b, sq(t, "e2"), sq(t, "e4"))
	if err != nil {
		t.Fatalf("ApplyMove: %v", err)
	}
	want := "rnbqkbnr/pppppppp/......../......../....P.../......../PPPP.PPP/RNBQKBNR"
	if got := Encode(next); got != want {
		t.Fatalf("Encode = %q, want %q", got, want)
	}
	if Encode(b) != StartPosition {
		t.Fatalf("input board was mutated")
	}
}

func TestApplyMoveIgnoresLegality(t *testing.T) {
	b := Start()
	next, err := ApplyMove(b, sq(t, "a1"), sq(t, "a8"))
	if err != nil {
		t.Fatalf("ApplyMove: %v", err)
	}
	if next.At(sq(t, "a8")) != (Cell{Rook, White}) || !next.At(sq(t, "a1")).IsEmpty() {
		t.Fatalf("rook not relocated: %s", Encode(next))
	}
	empty, err := ApplyMove(b, sq(t, "e4"), sq(t, "e2"))
	if err != nil {
		t.Fatalf("ApplyMove empty origin: %v", err)
	}
	if !empty.At(sq(t, "e2")).IsEmpty() {
		t.Fatalf("moving an empty square should leave an empty destination")
	}
}

func TestApplyMoveOutOfBounds(t *testing.T) {
	if _, err := ApplyMove(Start(), Sq(6, 4), Sq(-1, 4)); !errors.Is(err, ErrOutOfBounds) {
		t.Fatalf("err = %v, want ErrOutOfBounds", err)
	}
}

func TestCastle(t *testing.T) {
	b := mustDecode(t, "r...k..r/pppppppp/......../......../......../......../PPPPPPPP/R...K..R")
	cases := []struct {
		color Color
		wing  Wing
		want  string
	}{
		{White, KingSide, "r...k..r/pppppppp/......../......../......../......../PPPPPPPP/R....RK."},
		{White, QueenSide, "r...k..r/pppppppp/......../......../......../......../PPPPPPPP/..KR...R"},
		{Black, KingSide, "r....rk./pppppppp/......../......../......../......../PPPPPPPP/R...K..R"},
		{Black, QueenSide, "..kr...r/pppppppp/......../......../......../......../PPPPPPPP/R...K..R"},
	}
	for _, tc := range cases {
		if got := Encode(Castle(b, tc.color, tc.wing)); got != tc.want {
			t.Fatalf("Castle(%s, %s) = %q, want %q", tc.color, tc.wing, got, tc.want)
		}
	}
}

func TestCastleIsUnchecked(t *testing.T) {
	// pieces between king and rook are overwritten, nothing is verified
	got := Encode(Castle(Start(), White, KingSide))
	want := "rnbqkbnr/pppppppp/......../......../......../......../PPPPPPPP/RNBQ.RK."
	if got != want {
		t.Fatalf("Castle = %q, want %q", got, want)
	}
	got = Encode(Castle(Start(), Black, QueenSide))
	want = ".nkr.bnr/pppppppp/......../......../......../......../PPPPPPPP/RNBQKBNR"
	if got != want {
		t.Fatalf("Castle = %q, want %q", got, want)
	}
}
