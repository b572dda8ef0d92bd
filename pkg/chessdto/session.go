package chessdto

import "time"

// MoveEntry is one snapshot of the move history.
type MoveEntry struct {
	FEN   string `json:"fen"`
	Color string `json:"color"`
}

// GameState is the session document served to clients.
type GameState struct {
	Success     bool         `json:"success"`
	FEN         string       `json:"fen"`
	Color       string       `json:"color"`
	Moves       []MoveEntry  `json:"moves"`
	White       string       `json:"white"`
	Black       string       `json:"black"`
	Active      bool         `json:"active"`
	Revision    int64        `json:"revision"`
	StandardFEN string       `json:"standardFen,omitempty"`
	Status      string       `json:"status,omitempty"`
	Turn        string       `json:"turn,omitempty"`
	MoveNumber  int          `json:"moveNumber"`
	UpdatedAt   time.Time    `json:"updatedAt"`
	Error       *DomainError `json:"error,omitempty"`
}

// LegalTargets lists the squares reachable from a selected square.
type LegalTargets struct {
	From    Square   `json:"from"`
	Targets []Square `json:"targets"`
	Free    bool     `json:"free"`
}

// Square is a board coordinate in the encoded orientation (row 0 is the top rank).
type Square struct {
	Row  int    `json:"row"`
	Col  int    `json:"col"`
	Name string `json:"name,omitempty"`
}
