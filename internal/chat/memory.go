package chat

import (
	"context"
	"sync"
	"time"
)

// MemoryLog keeps up to capacity messages in process.
type MemoryLog struct {
	mu       sync.Mutex
	msgs     []Message
	capacity int
	now      func() time.Time
}

func NewMemoryLog(capacity int) *MemoryLog {
	if capacity <= 0 {
		capacity = 500
	}
	return &MemoryLog{capacity: capacity, now: time.Now}
}

func (l *MemoryLog) Append(_ context.Context, text string) (Message, error) {
	m, err := newMessage(text, l.now())
	if err != nil {
		return Message{}, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.msgs = append(l.msgs, m)
	if over := len(l.msgs) - l.capacity; over > 0 {
		l.msgs = append(l.msgs[:0:0], l.msgs[over:]...)
	}
	return m, nil
}

func (l *MemoryLog) List(_ context.Context, limit int) ([]Message, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return tail(l.msgs, limit), nil
}

func (l *MemoryLog) Clear(context.Context) error {
	l.mu.Lock()
	l.msgs = nil
	l.mu.Unlock()
	return nil
}
