package chessdto

import "time"

// ArchivedGame is a finished game as stored on reset.
type ArchivedGame struct {
	ID        int64       `json:"id"`
	White     string      `json:"white"`
	Black     string      `json:"black"`
	Moves     []MoveEntry `json:"moves"`
	Plies     int         `json:"plies"`
	FinalFEN  string      `json:"finalFen"`
	StartedAt time.Time   `json:"startedAt"`
	EndedAt   time.Time   `json:"endedAt"`
}
