// Package archive keeps finished games in a SQL database (PostgreSQL or SQLite).
package archive

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/park285/chessx/internal/board"
	"github.com/park285/chessx/internal/session"
)

type dialect int

const (
	dialectPostgres dialect = iota
	dialectSQLite
)

// Game is one archived game.
type Game struct {
	ID          int64
	SessionID   string
	Revision    int64
	White       string
	Black       string
	Moves       []session.MoveRecord
	Plies       int
	FinalFEN    string
	StandardFEN string
	StartedAt   time.Time
	EndedAt     time.Time
}

type Repository struct {
	db      *sql.DB
	dialect dialect
}

// Open connects to databaseURL and creates the games table if needed.
// postgres:// and postgresql:// URLs use lib/pq; anything else is a SQLite path or DSN.
func Open(ctx context.Context, databaseURL string) (*Repository, error) {
	databaseURL = strings.TrimSpace(databaseURL)
	if databaseURL == "" {
		return nil, fmt.Errorf("database url is required")
	}
	var (
		db  *sql.DB
		d   dialect
		err error
	)
	lower := strings.ToLower(databaseURL)
	if strings.HasPrefix(lower, "postgres://") || strings.HasPrefix(lower, "postgresql://") {
		d = dialectPostgres
		db, err = sql.Open("postgres", databaseURL)
		if err != nil {
			return nil, err
		}
		db.SetMaxOpenConns(16)
		db.SetMaxIdleConns(8)
		db.SetConnMaxLifetime(30 * time.Minute)
	} else {
		d = dialectSQLite
		db, err = openSQLite(databaseURL)
		if err != nil {
			return nil, err
		}
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}
	r := &Repository{db: db, dialect: d}
	if err := r.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate archive: %w", err)
	}
	return r, nil
}

func openSQLite(dsn string) (*sql.DB, error) {
	dsn = strings.TrimPrefix(dsn, "sqlite://")
	dsn = strings.TrimPrefix(dsn, "sqlite3://")
	memory := dsn == ":memory:" || strings.Contains(dsn, "mode=memory")
	if !memory {
		path := dsn
		if i := strings.IndexByte(path, '?'); i >= 0 {
			path = path[:i]
		}
		path = strings.TrimPrefix(path, "file:")
		if dir := filepath.Dir(path); dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, err
			}
		}
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	db, err := sql.Open("sqlite3", dsn+sep+"_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, err
	}
	if memory {
		// every pooled connection would otherwise get its own empty database
		db.SetMaxOpenConns(1)
	}
	return db, nil
}

func (r *Repository) migrate(ctx context.Context) error {
	id := "BIGSERIAL PRIMARY KEY"
	ts := "TIMESTAMPTZ"
	if r.dialect == dialectSQLite {
		id = "INTEGER PRIMARY KEY AUTOINCREMENT"
		ts = "TIMESTAMP"
	}
	q := `CREATE TABLE IF NOT EXISTS chessx_games (
        id ` + id + `,
        session_id TEXT NOT NULL,
        revision BIGINT NOT NULL,
        white_name TEXT NOT NULL,
        black_name TEXT NOT NULL,
        moves TEXT NOT NULL,
        plies INTEGER NOT NULL,
        final_fen TEXT NOT NULL,
        standard_fen TEXT NOT NULL,
        started_at ` + ts + ` NOT NULL,
        ended_at ` + ts + ` NOT NULL,
        UNIQUE (session_id, revision)
      )`
	_, err := r.db.ExecContext(ctx, q)
	return err
}

func (r *Repository) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	return r.db.Close()
}

// rebind turns $n placeholders into ? for SQLite.
func (r *Repository) rebind(q string) string {
	if r.dialect != dialectSQLite {
		return q
	}
	var b strings.Builder
	for i := 0; i < len(q); i++ {
		if q[i] == '$' && i+1 < len(q) && q[i+1] >= '0' && q[i+1] <= '9' {
			b.WriteByte('?')
			for i+1 < len(q) && q[i+1] >= '0' && q[i+1] <= '9' {
				i++
			}
			continue
		}
		b.WriteByte(q[i])
	}
	return b.String()
}

// Archive stores a finished session. Saving the same session revision twice is a no-op.
func (r *Repository) Archive(ctx context.Context, s *session.Session) error {
	if r == nil || r.db == nil || s == nil {
		return nil
	}
	movesRaw, err := json.Marshal(s.History)
	if err != nil {
		return err
	}
	std := ""
	if b, err := s.Board(); err == nil {
		std = board.StandardFEN(b, s.SideToMove)
	}
	started := s.StartedAt
	if started.IsZero() {
		started = s.CreatedAt
	}

	q := `INSERT INTO chessx_games (
        session_id, revision, white_name, black_name, moves, plies,
        final_fen, standard_fen, started_at, ended_at
      ) VALUES (
        $1,$2,$3,$4,$5,$6,$7,$8,$9,$10
      ) ON CONFLICT (session_id, revision) DO NOTHING`
	_, err = r.db.ExecContext(ctx, r.rebind(q),
		s.ID, s.Revision, s.WhiteName, s.BlackName, string(movesRaw), s.Plies(),
		s.Position, std, started.UTC(), s.UpdatedAt.UTC(),
	)
	return err
}

// Recent returns up to limit archived games, newest first.
func (r *Repository) Recent(ctx context.Context, limit int) ([]Game, error) {
	if limit <= 0 {
		limit = 20
	}
	q := `SELECT id, session_id, revision, white_name, black_name, moves, plies,
        final_fen, standard_fen, started_at, ended_at
      FROM chessx_games ORDER BY id DESC LIMIT ` + strconv.Itoa(limit)
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Game
	for rows.Next() {
		var (
			g        Game
			movesRaw string
		)
		if err := rows.Scan(&g.ID, &g.SessionID, &g.Revision, &g.White, &g.Black, &movesRaw, &g.Plies,
			&g.FinalFEN, &g.StandardFEN, &g.StartedAt, &g.EndedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(movesRaw), &g.Moves); err != nil {
			return nil, fmt.Errorf("decode moves of game %d: %w", g.ID, err)
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

// Get returns one archived game by id.
func (r *Repository) Get(ctx context.Context, id int64) (*Game, error) {
	q := `SELECT id, session_id, revision, white_name, black_name, moves, plies,
        final_fen, standard_fen, started_at, ended_at
      FROM chessx_games WHERE id = $1`
	var (
		g        Game
		movesRaw string
	)
	err := r.db.QueryRowContext(ctx, r.rebind(q), id).Scan(&g.ID, &g.SessionID, &g.Revision, &g.White, &g.Black,
		&movesRaw, &g.Plies, &g.FinalFEN, &g.StandardFEN, &g.StartedAt, &g.EndedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(movesRaw), &g.Moves); err != nil {
		return nil, fmt.Errorf("decode moves of game %d: %w", g.ID, err)
	}
	return &g, nil
}
