package board

import (
	"errors"
	"testing"
)

func TestDecodeStartPosition(t *testing.T) {
	b, err := Decode(StartPosition)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got := b.At(Sq(7, 4)); got != (Cell{King, White}) {
		t.Fatalf("e1 = %+v, want white king", got)
	}
	if got := b.At(Sq(0, 3)); got != (Cell{Queen, Black}) {
		t.Fatalf("d8 = %+v, want black queen", got)
	}
	for col := 0; col < Size; col++ {
		if !b.At(Sq(4, col)).IsEmpty() {
			t.Fatalf("row 4 col %d not empty", col)
		}
		if b.At(Sq(6, col)) != (Cell{Pawn, White}) || b.At(Sq(1, col)) != (Cell{Pawn, Black}) {
			t.Fatalf("pawn ranks wrong at col %d", col)
		}
	}
}

func TestDecodeBothEmptyConventions(t *testing.T) {
	digits := "rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR"
	dots := "rnbqkbnr/pppppppp/......../......../....P.../......../PPPP.PPP/RNBQKBNR"
	mixed := "rnbqkbnr/pppppppp/8/8/..2P3/8/PPPP-PPP/RNBQKBNR"
	a, err := Decode(digits)
	if err != nil {
		t.Fatalf("digits: %v", err)
	}
	b, err := Decode(dots)
	if err != nil {
		t.Fatalf("dots: %v", err)
	}
	c, err := Decode(mixed)
	if err != nil {
		t.Fatalf("mixed: %v", err)
	}
	if a != b || b != c {
		t.Fatalf("conventions decoded differently")
	}
	if Encode(a) != dots {
		t.Fatalf("Encode = %q, want %q", Encode(a), dots)
	}
}

func TestRoundTrip(t *testing.T) {
	positions := []string{
		StartPosition,
		"r...k..r/......../......../......../......../......../......../R...K..R",
		"......../......../......../...Q..../......../......../......../........",
		"kkkkkkkk/QQQQQQQQ/......../......../......../......../......../nnnnnnnn",
	}
	for _, p := range positions {
		b, err := Decode(p)
		if err != nil {
			t.Fatalf("Decode(%q): %v", p, err)
		}
		if got := Encode(b); got != p {
			t.Fatalf("Encode(Decode(%q)) = %q", p, got)
		}
		again, err := Decode(Encode(b))
		if err != nil || again != b {
			t.Fatalf("round trip changed board for %q (err=%v)", p, err)
		}
	}
}

func TestDecodeMalformed(t *testing.T) {
	cases := []struct {
		name string
		in   string
		rank int
	}{
		{"seven ranks", "rnbqkbnr/pppppppp/8/8/8/PPPPPPPP/RNBQKBNR", -1},
		{"nine ranks", "rnbqkbnr/pppppppp/8/8/8/8/8/PPPPPPPP/RNBQKBNR", -1},
		{"short rank", "rnbqkbnr/ppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR", 1},
		{"long rank", "rnbqkbnr/pppppppp/9/8/8/8/PPPPPPPP/RNBQKBNR", 2},
		{"digit overflow", "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQ5", 7},
		{"empty", "", -1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Decode(tc.in)
			if !errors.Is(err, ErrMalformedPosition) {
				t.Fatalf("err = %v, want ErrMalformedPosition", err)
			}
			var pe *PositionError
			if !errors.As(err, &pe) {
				t.Fatalf("err %T is not *PositionError", err)
			}
			if pe.Rank != tc.rank {
				t.Fatalf("rank = %d, want %d", pe.Rank, tc.rank)
			}
		})
	}
}

func TestParseSquare(t *testing.T) {
	sq, err := ParseSquare("e2")
	if err != nil || sq != Sq(6, 4) {
		t.Fatalf("e2 = %v (%v), want row 6 col 4", sq, err)
	}
	if sq.String() != "e2" {
		t.Fatalf("String = %q", sq.String())
	}
	if sq, _ := ParseSquare("A8"); sq != Sq(0, 0) {
		t.Fatalf("A8 = %v", sq)
	}
	for _, bad := range []string{"", "i1", "a0", "a9", "e22"} {
		if _, err := ParseSquare(bad); !errors.Is(err, ErrOutOfBounds) {
			t.Fatalf("ParseSquare(%q) err = %v", bad, err)
		}
	}
}
