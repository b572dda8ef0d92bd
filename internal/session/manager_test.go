package session

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/park285/chessx/internal/board"
)

type fakeChat struct{ cleared int }

func (f *fakeChat) Clear(context.Context) error { f.cleared++; return nil }

type fakeArchive struct{ games []*Session }

func (f *fakeArchive) Archive(_ context.Context, s *Session) error {
	f.games = append(f.games, s)
	return nil
}

type fakeNotify struct {
	mu   sync.Mutex
	seen []int64
}

func (f *fakeNotify) Publish(s *Session) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seen = append(f.seen, s.Revision)
}

func newTestManager(t *testing.T, opts Options) *Manager {
	t.Helper()
	m := NewManager(NewMemoryStore(), opts)
	t.Cleanup(func() { _ = m.Close() })
	return m
}

func play(t *testing.T, b board.Board, from, to string) board.Board {
	t.Helper()
	f, err := board.ParseSquare(from)
	if err != nil {
		t.Fatalf("ParseSquare: %v", err)
	}
	dst, err := board.ParseSquare(to)
	if err != nil {
		t.Fatalf("ParseSquare: %v", err)
	}
	next, err := board.ApplyMove(b, f, dst)
	if err != nil {
		t.Fatalf("ApplyMove: %v", err)
	}
	return next
}

const afterE4 = "rnbqkbnr/pppppppp/......../......../....P.../......../PPPP.PPP/RNBQKBNR"

func TestGetCreatesDefault(t *testing.T) {
	m := newTestManager(t, Options{})
	s, err := m.Get(context.Background())
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if s.ID != DefaultID || s.Position != board.StartPosition || s.SideToMove != board.White {
		t.Fatalf("unexpected default: %+v", s)
	}
	if len(s.History) != 1 || s.WhiteName != "White" || s.BlackName != "Black" || !s.Active {
		t.Fatalf("unexpected default: %+v", s)
	}
	again, _ := m.Get(context.Background())
	if again.CreatedAt != s.CreatedAt {
		t.Fatalf("second Get created a new session")
	}
}

func TestMoveAppendsAndIsIdempotent(t *testing.T) {
	m := newTestManager(t, Options{})
	ctx := context.Background()
	s, err := m.Move(ctx, MoveRequest{Position: afterE4, SideToMove: board.Black})
	if err != nil {
		t.Fatalf("Move: %v", err)
	}
	if len(s.History) != 2 || s.Position != afterE4 || s.SideToMove != board.Black {
		t.Fatalf("after move: %+v", s)
	}
	rev := s.Revision
	again, err := m.Move(ctx, MoveRequest{Position: afterE4, SideToMove: board.Black})
	if err != nil {
		t.Fatalf("Move again: %v", err)
	}
	if len(again.History) != 2 || again.Revision != rev {
		t.Fatalf("re-submission changed state: len=%d rev=%d", len(again.History), again.Revision)
	}
	// digit form of the same position is also a no-op
	digits := "rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR"
	again, err = m.Move(ctx, MoveRequest{Position: digits, SideToMove: board.Black})
	if err != nil || len(again.History) != 2 {
		t.Fatalf("digit re-submission: len=%d err=%v", len(again.History), err)
	}
}

func TestMoveRejectsMalformed(t *testing.T) {
	m := newTestManager(t, Options{})
	ctx := context.Background()
	if _, err := m.Move(ctx, MoveRequest{Position: "8/8/8", SideToMove: board.Black}); !errors.Is(err, board.ErrMalformedPosition) {
		t.Fatalf("err = %v, want ErrMalformedPosition", err)
	}
	if _, err := m.Move(ctx, MoveRequest{Position: afterE4, SideToMove: "green"}); !errors.Is(err, ErrInvalidSide) {
		t.Fatalf("err = %v, want ErrInvalidSide", err)
	}
	s, _ := m.Get(ctx)
	if len(s.History) != 1 {
		t.Fatalf("rejected move was committed")
	}
}

func TestMoveBaseConflict(t *testing.T) {
	m := newTestManager(t, Options{})
	ctx := context.Background()
	if _, err := m.Move(ctx, MoveRequest{Position: afterE4, SideToMove: board.Black, Base: board.StartPosition}); err != nil {
		t.Fatalf("Move: %v", err)
	}
	stale := play(t, board.Start(), "d2", "d4")
	_, err := m.Move(ctx, MoveRequest{Position: board.Encode(stale), SideToMove: board.Black, Base: board.StartPosition})
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("err = %v, want ErrConflict", err)
	}
	s, _ := m.Get(ctx)
	if s.Position != afterE4 || len(s.History) != 2 {
		t.Fatalf("conflicting move was committed: %+v", s)
	}
}

func TestMoveRetryWithBaseIsIdempotent(t *testing.T) {
	m := newTestManager(t, Options{})
	ctx := context.Background()
	req := MoveRequest{Position: afterE4, SideToMove: board.Black, Base: board.StartPosition}
	first, err := m.Move(ctx, req)
	if err != nil {
		t.Fatalf("Move: %v", err)
	}
	again, err := m.Move(ctx, req)
	if err != nil {
		t.Fatalf("retried Move: %v", err)
	}
	if len(again.History) != 2 || again.Revision != first.Revision || again.Position != afterE4 {
		t.Fatalf("retry changed state: len=%d rev=%d fen=%q", len(again.History), again.Revision, again.Position)
	}
}

func TestUndo(t *testing.T) {
	m := newTestManager(t, Options{})
	ctx := context.Background()
	s, err := m.Undo(ctx)
	if err != nil {
		t.Fatalf("Undo: %v", err)
	}
	if len(s.History) != 1 || s.Position != board.StartPosition {
		t.Fatalf("undo on fresh session changed it: %+v", s)
	}
	if _, err := m.Move(ctx, MoveRequest{Position: afterE4, SideToMove: board.Black}); err != nil {
		t.Fatalf("Move: %v", err)
	}
	s, err = m.Undo(ctx)
	if err != nil {
		t.Fatalf("Undo: %v", err)
	}
	if len(s.History) != 1 || s.Position != board.StartPosition || s.SideToMove != board.White {
		t.Fatalf("undo did not restore start: %+v", s)
	}
}

func TestUndoRestoresSecondToLast(t *testing.T) {
	m := newTestManager(t, Options{})
	ctx := context.Background()
	b1 := play(t, board.Start(), "e2", "e4")
	b2 := play(t, b1, "e7", "e5")
	b3 := play(t, b2, "g1", "f3")
	for i, b := range []board.Board{b1, b2, b3} {
		side := board.Black
		if i%2 == 1 {
			side = board.White
		}
		if _, err := m.Move(ctx, MoveRequest{Position: board.Encode(b), SideToMove: side}); err != nil {
			t.Fatalf("Move %d: %v", i, err)
		}
	}
	s, _ := m.Undo(ctx)
	if s.Position != board.Encode(b2) || s.SideToMove != board.White || len(s.History) != 3 {
		t.Fatalf("undo 1: %+v", s)
	}
	s, _ = m.Undo(ctx)
	if s.Position != board.Encode(b1) || s.SideToMove != board.Black || len(s.History) != 2 {
		t.Fatalf("undo 2: %+v", s)
	}
	if s.Position != s.Last().Position || s.SideToMove != s.Last().SideToMove {
		t.Fatalf("current state diverged from history tail")
	}
}

func TestReset(t *testing.T) {
	chat := &fakeChat{}
	arch := &fakeArchive{}
	m := newTestManager(t, Options{Chat: chat, Archive: arch})
	ctx := context.Background()
	if _, err := m.SetNames(ctx, "Alice", "Bob"); err != nil {
		t.Fatalf("SetNames: %v", err)
	}
	if _, err := m.Move(ctx, MoveRequest{Position: afterE4, SideToMove: board.Black}); err != nil {
		t.Fatalf("Move: %v", err)
	}
	s, err := m.Reset(ctx)
	if err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if s.SideToMove != board.White || len(s.History) != 1 || s.Position != board.StartPosition {
		t.Fatalf("reset state: %+v", s)
	}
	if s.WhiteName != "Alice" || s.BlackName != "Bob" {
		t.Fatalf("reset dropped names: %q %q", s.WhiteName, s.BlackName)
	}
	if chat.cleared != 1 {
		t.Fatalf("chat cleared %d times", chat.cleared)
	}
	if len(arch.games) != 1 || arch.games[0].Plies() != 1 || arch.games[0].Position != afterE4 {
		t.Fatalf("archive = %+v", arch.games)
	}
	// nothing played: nothing archived
	if _, err := m.Reset(ctx); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if len(arch.games) != 1 || chat.cleared != 2 {
		t.Fatalf("archive=%d cleared=%d", len(arch.games), chat.cleared)
	}
}

func TestSetNames(t *testing.T) {
	m := newTestManager(t, Options{})
	ctx := context.Background()
	if _, err := m.Move(ctx, MoveRequest{Position: afterE4, SideToMove: board.Black}); err != nil {
		t.Fatalf("Move: %v", err)
	}
	s, err := m.SetNames(ctx, "  Alice ", "Bob")
	if err != nil {
		t.Fatalf("SetNames: %v", err)
	}
	if s.WhiteName != "Alice" || s.BlackName != "Bob" || len(s.History) != 2 || s.Position != afterE4 {
		t.Fatalf("unexpected: %+v", s)
	}
	s, _ = m.SetNames(ctx, "", "Carol")
	if s.WhiteName != DefaultWhiteName || s.BlackName != "Carol" {
		t.Fatalf("blank name: %+v", s)
	}
}

func TestCastle(t *testing.T) {
	m := newTestManager(t, Options{})
	ctx := context.Background()
	s, err := m.Castle(ctx, board.White, board.KingSide)
	if err != nil {
		t.Fatalf("Castle: %v", err)
	}
	want := "rnbqkbnr/pppppppp/......../......../......../......../PPPPPPPP/RNBQ.RK."
	if s.Position != want || s.SideToMove != board.Black || len(s.History) != 2 {
		t.Fatalf("castle: %+v", s)
	}
}

func TestStrictMode(t *testing.T) {
	m := newTestManager(t, Options{Strict: true})
	ctx := context.Background()
	jump := play(t, board.Start(), "e2", "e5")
	if _, err := m.Move(ctx, MoveRequest{Position: board.Encode(jump), SideToMove: board.Black}); !errors.Is(err, ErrIllegalMove) {
		t.Fatalf("e2-e5 err = %v, want ErrIllegalMove", err)
	}
	if _, err := m.Move(ctx, MoveRequest{Position: afterE4, SideToMove: board.White}); !errors.Is(err, ErrIllegalMove) {
		t.Fatalf("turn kept err = %v, want ErrIllegalMove", err)
	}
	black := play(t, board.Start(), "e7", "e5")
	if _, err := m.Move(ctx, MoveRequest{Position: board.Encode(black), SideToMove: board.White}); !errors.Is(err, ErrIllegalMove) {
		t.Fatalf("black first err = %v, want ErrIllegalMove", err)
	}
	s, err := m.Move(ctx, MoveRequest{Position: afterE4, SideToMove: board.Black})
	if err != nil {
		t.Fatalf("legal move rejected: %v", err)
	}
	if len(s.History) != 2 {
		t.Fatalf("history = %d", len(s.History))
	}
	s, err = m.Castle(ctx, board.Black, board.KingSide)
	if err != nil {
		t.Fatalf("castling rejected in strict mode: %v", err)
	}
	if s.SideToMove != board.White {
		t.Fatalf("side = %s", s.SideToMove)
	}
}

func TestTrustedModeAcceptsAnything(t *testing.T) {
	m := newTestManager(t, Options{})
	jump := play(t, board.Start(), "e2", "e5")
	s, err := m.Move(context.Background(), MoveRequest{Position: board.Encode(jump), SideToMove: board.White})
	if err != nil || len(s.History) != 2 {
		t.Fatalf("trusted move rejected: %v", err)
	}
}

func TestNotifierSeesCommitsOnly(t *testing.T) {
	n := &fakeNotify{}
	m := newTestManager(t, Options{Notify: n})
	ctx := context.Background()
	_, _ = m.Get(ctx)
	_, _ = m.Move(ctx, MoveRequest{Position: afterE4, SideToMove: board.Black})
	_, _ = m.Move(ctx, MoveRequest{Position: afterE4, SideToMove: board.Black})
	_, _ = m.Undo(ctx)
	_, _ = m.Undo(ctx)
	if len(n.seen) != 3 {
		t.Fatalf("notifications = %v, want create, move, undo", n.seen)
	}
	if n.seen[1] >= n.seen[2] {
		t.Fatalf("revisions not increasing: %v", n.seen)
	}
}

func TestConcurrentMovesSerialize(t *testing.T) {
	m := newTestManager(t, Options{})
	ctx := context.Background()
	if _, err := m.Get(ctx); err != nil {
		t.Fatalf("Get: %v", err)
	}
	var candidates []string
	for _, f := range []string{"a", "b", "c", "d", "e", "f", "g", "h"} {
		candidates = append(candidates, board.Encode(play(t, board.Start(), f+"2", f+"4")))
	}
	var wg sync.WaitGroup
	var mu sync.Mutex
	accepted := 0
	for _, pos := range candidates {
		wg.Add(1)
		go func(pos string) {
			defer wg.Done()
			_, err := m.Move(ctx, MoveRequest{Position: pos, SideToMove: board.Black, Base: board.StartPosition})
			if err == nil {
				mu.Lock()
				accepted++
				mu.Unlock()
			} else if !errors.Is(err, ErrConflict) {
				t.Errorf("Move: %v", err)
			}
		}(pos)
	}
	wg.Wait()
	if accepted != 1 {
		t.Fatalf("accepted = %d, want exactly 1", accepted)
	}
	s, _ := m.Get(ctx)
	if len(s.History) != 2 {
		t.Fatalf("history = %d, want 2", len(s.History))
	}
}
