package session

import (
	"errors"
	"time"

	"github.com/park285/chessx/internal/board"
)

// DefaultID is the key of the single shared session.
const DefaultID = "active"

// Default display names used when a session is created.
const (
	DefaultWhiteName = "White"
	DefaultBlackName = "Black"
)

var (
	// ErrConflict means the session changed underneath the caller.
	ErrConflict = errors.New("session: concurrent update")
	// ErrIllegalMove is returned in strict mode when a submitted position is not one legal
	// move away from the current one.
	ErrIllegalMove = errors.New("session: illegal move")
	// ErrInvalidSide is returned when a submitted side to move is neither white nor black.
	ErrInvalidSide = errors.New("session: invalid side to move")
)

// MoveRecord is one history snapshot.
type MoveRecord struct {
	Position   string      `json:"fen"`
	SideToMove board.Color `json:"color"`
}

// Session is the persisted shared game.
type Session struct {
	ID         string       `json:"id"`
	Position   string       `json:"fen"`
	SideToMove board.Color  `json:"color"`
	History    []MoveRecord `json:"moves"`
	WhiteName  string       `json:"white"`
	BlackName  string       `json:"black"`
	Active     bool         `json:"active"`
	Revision   int64        `json:"revision"`
	StartedAt  time.Time    `json:"started_at"`
	CreatedAt  time.Time    `json:"created_at"`
	UpdatedAt  time.Time    `json:"updated_at"`
}

// New returns a fresh session at the starting layout with white to move.
func New(id, white, black string, now time.Time) *Session {
	s := &Session{
		ID:        id,
		WhiteName: white,
		BlackName: black,
		Active:    true,
		StartedAt: now,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.rewind()
	return s
}

// rewind puts the board back to the starting layout with a single history entry.
func (s *Session) rewind() {
	s.Position = board.StartPosition
	s.SideToMove = board.White
	s.History = []MoveRecord{{Position: board.StartPosition, SideToMove: board.White}}
}

// Clone returns a deep copy.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	c := *s
	c.History = append([]MoveRecord(nil), s.History...)
	return &c
}

// Last returns the newest history entry.
func (s *Session) Last() MoveRecord {
	if len(s.History) == 0 {
		return MoveRecord{Position: s.Position, SideToMove: s.SideToMove}
	}
	return s.History[len(s.History)-1]
}

// Plies is the number of moves played since the last reset.
func (s *Session) Plies() int {
	if len(s.History) == 0 {
		return 0
	}
	return len(s.History) - 1
}

// MoveNumber is the move counter shown to players: half the history length, rounded up.
func (s *Session) MoveNumber() int {
	if n := (len(s.History) + 1) / 2; n > 0 {
		return n
	}
	return 1
}

// Board decodes the current position.
func (s *Session) Board() (board.Board, error) {
	return board.Decode(s.Position)
}
