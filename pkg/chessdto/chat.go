package chessdto

import "time"

type ChatMessage struct {
	ID       string    `json:"id"`
	Text     string    `json:"text"`
	Datetime time.Time `json:"datetime"`
}
