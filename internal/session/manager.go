package session

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/park285/chessx/internal/board"
	"go.uber.org/zap"
)

// ChatClearer empties the chat log tied to the session.
type ChatClearer interface {
	Clear(ctx context.Context) error
}

// Archiver stores a finished game before it is reset.
type Archiver interface {
	Archive(ctx context.Context, finished *Session) error
}

// Notifier receives every committed state.
type Notifier interface {
	Publish(s *Session)
}

// Options configures a Manager. Zero values are usable.
type Options struct {
	ID        string
	WhiteName string
	BlackName string
	// Strict re-validates submitted positions against the current one.
	Strict  bool
	Chat    ChatClearer
	Archive Archiver
	Notify  Notifier
	Logger  *zap.Logger
	Now     func() time.Time
}

// MoveRequest carries a position computed by a client.
type MoveRequest struct {
	Position   string
	SideToMove board.Color
	// Base is the position the client computed from. When set, the move is rejected with
	// ErrConflict if the session has moved on, unless Position is already the current one.
	Base string
}

// Manager owns the shared session. All mutations go through Store.Update.
type Manager struct {
	store  Store
	opts   Options
	logger *zap.Logger
}

// NewManager wires a manager over store.
func NewManager(store Store, opts Options) *Manager {
	if opts.ID == "" {
		opts.ID = DefaultID
	}
	if strings.TrimSpace(opts.WhiteName) == "" {
		opts.WhiteName = DefaultWhiteName
	}
	if strings.TrimSpace(opts.BlackName) == "" {
		opts.BlackName = DefaultBlackName
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{store: store, opts: opts, logger: logger}
}

// Strict reports whether submitted positions are re-validated.
func (m *Manager) Strict() bool { return m.opts.Strict }

// Close releases the underlying store.
func (m *Manager) Close() error {
	if m == nil || m.store == nil {
		return nil
	}
	return m.store.Close()
}

func (m *Manager) fresh() *Session {
	return New(m.opts.ID, m.opts.WhiteName, m.opts.BlackName, m.opts.Now())
}

// commit stamps a mutated session before it is written.
func (m *Manager) commit(next *Session) *Session {
	next.Revision++
	next.UpdatedAt = m.opts.Now()
	return next
}

// update runs fn against the session, creating the default one first when absent.
// changed reports whether fn produced a write.
func (m *Manager) update(ctx context.Context, fn func(cur *Session) (*Session, error)) (s *Session, changed bool, err error) {
	s, err = m.store.Update(ctx, m.opts.ID, func(cur *Session) (*Session, error) {
		changed = false
		created := cur == nil
		if created {
			cur = m.fresh()
		}
		next, err := fn(cur)
		if err != nil {
			return nil, err
		}
		if next == nil {
			if created {
				changed = true
				return cur, nil
			}
			return nil, nil
		}
		changed = true
		return m.commit(next), nil
	})
	if err == nil && changed && m.opts.Notify != nil {
		m.opts.Notify.Publish(s.Clone())
	}
	return s, changed, err
}

// Get returns the session, creating it on first access.
func (m *Manager) Get(ctx context.Context) (*Session, error) {
	s, err := m.store.Load(ctx, m.opts.ID)
	if err != nil {
		return nil, err
	}
	if s != nil {
		return s, nil
	}
	s, _, err = m.update(ctx, func(*Session) (*Session, error) { return nil, nil })
	return s, err
}

// Move appends a client-submitted position. Re-submitting the current position is a no-op.
func (m *Manager) Move(ctx context.Context, req MoveRequest) (*Session, error) {
	next, err := board.Decode(req.Position)
	if err != nil {
		return nil, err
	}
	if !req.SideToMove.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidSide, req.SideToMove)
	}
	var base string
	if strings.TrimSpace(req.Base) != "" {
		b, err := board.Decode(req.Base)
		if err != nil {
			return nil, fmt.Errorf("base: %w", err)
		}
		base = board.Encode(b)
	}
	position := board.Encode(next)

	s, changed, err := m.update(ctx, func(cur *Session) (*Session, error) {
		if position == cur.Last().Position {
			return nil, nil
		}
		if base != "" && base != cur.Position {
			return nil, ErrConflict
		}
		if m.opts.Strict {
			if err := checkTransition(cur, next, req.SideToMove); err != nil {
				return nil, err
			}
		}
		cur.Position = position
		cur.SideToMove = req.SideToMove
		cur.History = append(cur.History, MoveRecord{Position: position, SideToMove: req.SideToMove})
		return cur, nil
	})
	if err != nil {
		m.logger.Info("session_move_rejected", zap.String("fen", position), zap.Error(err))
		return nil, err
	}
	if changed {
		m.logger.Info("session_move",
			zap.String("fen", s.Position),
			zap.String("color", string(s.SideToMove)),
			zap.Int("plies", s.Plies()),
			zap.Int64("revision", s.Revision),
		)
	}
	return s, nil
}

// checkTransition verifies that next is one legal move by the side to move in cur.
func checkTransition(cur *Session, next board.Board, side board.Color) error {
	prev, err := board.Decode(cur.Position)
	if err != nil {
		return err
	}
	if side != cur.SideToMove.Opponent() {
		return fmt.Errorf("%w: side to move must pass to %s", ErrIllegalMove, cur.SideToMove.Opponent())
	}
	mv, ok := board.InferMove(prev, next)
	if !ok {
		return fmt.Errorf("%w: not a single move", ErrIllegalMove)
	}
	if mv.Color != cur.SideToMove {
		return fmt.Errorf("%w: %s moved out of turn", ErrIllegalMove, mv.Color)
	}
	if mv.Kind == board.Castling {
		return nil
	}
	legal, err := board.IsLegal(prev, cur.SideToMove, mv.From, mv.To, false)
	if err != nil {
		return err
	}
	if !legal {
		return fmt.Errorf("%w: %s to %s", ErrIllegalMove, mv.From, mv.To)
	}
	return nil
}

// Castle applies the castling transform for color on the current position and commits it
// as a regular move.
func (m *Manager) Castle(ctx context.Context, color board.Color, wing board.Wing) (*Session, error) {
	if !color.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidSide, color)
	}
	if wing != board.KingSide && wing != board.QueenSide {
		return nil, fmt.Errorf("unknown castling side %q", wing)
	}
	cur, err := m.Get(ctx)
	if err != nil {
		return nil, err
	}
	b, err := cur.Board()
	if err != nil {
		return nil, err
	}
	next := board.Castle(b, color, wing)
	return m.Move(ctx, MoveRequest{
		Position:   board.Encode(next),
		SideToMove: cur.SideToMove.Opponent(),
		Base:       cur.Position,
	})
}

// Undo steps back one history entry. With a single entry it does nothing.
func (m *Manager) Undo(ctx context.Context) (*Session, error) {
	s, changed, err := m.update(ctx, func(cur *Session) (*Session, error) {
		n := len(cur.History)
		if n < 2 {
			return nil, nil
		}
		prev := cur.History[n-2]
		cur.Position = prev.Position
		cur.SideToMove = prev.SideToMove
		cur.History = cur.History[:n-1]
		return cur, nil
	})
	if err != nil {
		return nil, err
	}
	if changed {
		m.logger.Info("session_undo", zap.String("fen", s.Position), zap.Int("plies", s.Plies()))
	}
	return s, nil
}

// Reset restores the starting layout, archives the finished game and clears chat.
// Names are kept.
func (m *Manager) Reset(ctx context.Context) (*Session, error) {
	var finished *Session
	s, _, err := m.update(ctx, func(cur *Session) (*Session, error) {
		finished = cur.Clone()
		cur.rewind()
		cur.StartedAt = m.opts.Now()
		return cur, nil
	})
	if err != nil {
		return nil, err
	}
	if finished != nil && finished.Plies() > 0 && m.opts.Archive != nil {
		if aerr := m.opts.Archive.Archive(ctx, finished); aerr != nil {
			m.logger.Warn("session_archive_error", zap.Error(aerr))
		}
	}
	if m.opts.Chat != nil {
		if cerr := m.opts.Chat.Clear(ctx); cerr != nil {
			m.logger.Warn("session_chat_clear_error", zap.Error(cerr))
		}
	}
	m.logger.Info("session_reset", zap.Int("archived_plies", finished.Plies()), zap.Int64("revision", s.Revision))
	return s, nil
}

// SetNames overwrites both display names. Blank names fall back to the defaults.
func (m *Manager) SetNames(ctx context.Context, white, black string) (*Session, error) {
	white, black = strings.TrimSpace(white), strings.TrimSpace(black)
	if white == "" {
		white = m.opts.WhiteName
	}
	if black == "" {
		black = m.opts.BlackName
	}
	s, changed, err := m.update(ctx, func(cur *Session) (*Session, error) {
		if cur.WhiteName == white && cur.BlackName == black {
			return nil, nil
		}
		cur.WhiteName = white
		cur.BlackName = black
		return cur, nil
	})
	if err != nil {
		return nil, err
	}
	if changed {
		m.logger.Info("session_names", zap.String("white", white), zap.String("black", black))
	}
	return s, nil
}
