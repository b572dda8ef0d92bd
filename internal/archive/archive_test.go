package archive

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/park285/chessx/internal/board"
	"github.com/park285/chessx/internal/session"
)

func openMemory(t *testing.T) *Repository {
	t.Helper()
	r, err := Open(context.Background(), ":memory:")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = r.Close() })
	return r
}

func finishedSession(rev int64) *session.Session {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	s := session.New(session.DefaultID, "Alice", "Bob", now)
	next := "rnbqkbnr/pppppppp/......../......../....P.../......../PPPP.PPP/RNBQKBNR"
	s.History = append(s.History, session.MoveRecord{Position: next, SideToMove: board.Black})
	s.Position = next
	s.SideToMove = board.Black
	s.Revision = rev
	s.UpdatedAt = now.Add(time.Minute)
	return s
}

func TestArchiveAndRecent(t *testing.T) {
	r := openMemory(t)
	ctx := context.Background()
	if err := r.Archive(ctx, finishedSession(3)); err != nil {
		t.Fatalf("Archive: %v", err)
	}
	if err := r.Archive(ctx, finishedSession(9)); err != nil {
		t.Fatalf("Archive: %v", err)
	}
	games, err := r.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(games) != 2 {
		t.Fatalf("len = %d", len(games))
	}
	g := games[0]
	if g.Revision != 9 || g.White != "Alice" || g.Black != "Bob" || g.Plies != 1 {
		t.Fatalf("newest = %+v", g)
	}
	if len(g.Moves) != 2 || g.Moves[1].SideToMove != board.Black {
		t.Fatalf("moves = %+v", g.Moves)
	}
	if g.StandardFEN != "rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b - - 0 1" {
		t.Fatalf("standard fen = %q", g.StandardFEN)
	}
	if !g.EndedAt.Equal(time.Date(2025, 3, 1, 12, 1, 0, 0, time.UTC)) {
		t.Fatalf("ended at = %v", g.EndedAt)
	}

	one, err := r.Get(ctx, games[1].ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if one.Revision != 3 {
		t.Fatalf("Get = %+v", one)
	}
	if _, err := r.Get(ctx, 9999); !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("Get missing err = %v", err)
	}
}

func TestArchiveIdempotent(t *testing.T) {
	r := openMemory(t)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if err := r.Archive(ctx, finishedSession(4)); err != nil {
			t.Fatalf("Archive #%d: %v", i, err)
		}
	}
	games, err := r.Recent(ctx, 0)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(games) != 1 {
		t.Fatalf("len = %d", len(games))
	}
}

func TestOpenFileCreatesDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "games.db")
	r, err := Open(context.Background(), "sqlite://"+path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := r.Archive(context.Background(), finishedSession(1)); err != nil {
		t.Fatalf("Archive: %v", err)
	}
	_ = r.Close()

	r, err = Open(context.Background(), path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer r.Close()
	games, err := r.Recent(context.Background(), 5)
	if err != nil || len(games) != 1 {
		t.Fatalf("Recent after reopen = %v, %v", games, err)
	}
}

func TestRebind(t *testing.T) {
	pg := &Repository{dialect: dialectPostgres}
	lite := &Repository{dialect: dialectSQLite}
	q := "SELECT * FROM t WHERE a = $1 AND b = $12"
	if got := pg.rebind(q); got != q {
		t.Fatalf("postgres rebind = %q", got)
	}
	if got := lite.rebind(q); got != "SELECT * FROM t WHERE a = ? AND b = ?" {
		t.Fatalf("sqlite rebind = %q", got)
	}
}

func TestOpenRejectsEmpty(t *testing.T) {
	if _, err := Open(context.Background(), "  "); err == nil {
		t.Fatalf("expected error")
	}
}
