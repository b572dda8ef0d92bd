package chat

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// MaxTextLen caps a message in runes; longer text is cut.
const MaxTextLen = 500

// ErrBlank is returned for messages that are empty after trimming.
var ErrBlank = errors.New("chat: blank message")

type Message struct {
	ID       string    `json:"id"`
	Text     string    `json:"text"`
	Datetime time.Time `json:"datetime"`
}

// Log is the chat attached to the shared game.
type Log interface {
	Append(ctx context.Context, text string) (Message, error)
	// List returns the newest limit messages, oldest first. limit <= 0 returns all.
	List(ctx context.Context, limit int) ([]Message, error)
	Clear(ctx context.Context) error
}

func newMessage(text string, now time.Time) (Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Message{}, ErrBlank
	}
	if utf8.RuneCountInString(text) > MaxTextLen {
		text = string([]rune(text)[:MaxTextLen])
	}
	return Message{ID: uuid.NewString(), Text: text, Datetime: now.UTC()}, nil
}

func tail(msgs []Message, limit int) []Message {
	if limit > 0 && len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}
	out := make([]Message, len(msgs))
	copy(out, msgs)
	return out
}
