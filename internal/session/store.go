package session

import "context"

// UpdateFunc computes the next state from cur, which is nil when no session is stored yet.
// cur is a private copy. Returning a nil session leaves storage untouched; returning an
// error aborts the update and is passed back to the caller unchanged.
//
// Distributed stores may invoke the function more than once, so it must be free of side
// effects.
type UpdateFunc func(cur *Session) (*Session, error)

// Store persists sessions and serializes every read-modify-write on one id.
type Store interface {
	// Load returns a snapshot of the session, or nil when none exists.
	Load(ctx context.Context, id string) (*Session, error)
	// Update runs fn atomically against the stored session and returns the state that is
	// stored afterwards (nil if nothing is stored).
	Update(ctx context.Context, id string, fn UpdateFunc) (*Session, error)
	Close() error
}
