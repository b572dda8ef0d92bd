package chessdto

// MoveRequest submits a position computed by the client.
type MoveRequest struct {
	FEN   string `json:"fen"`
	Color string `json:"color"`
	// Base is the position the move was computed from; optional.
	Base string `json:"base,omitempty"`
}

type NamesRequest struct {
	White string `json:"white"`
	Black string `json:"black"`
}

type CastleRequest struct {
	Color string `json:"color"`
	Side  string `json:"side"`
}

type ChatPostRequest struct {
	Text string `json:"text"`
}

type LoginRequest struct {
	Password string `json:"password"`
}

type LoginResponse struct {
	Token     string `json:"token"`
	ExpiresAt int64  `json:"expiresAt"`
}

type HealthResponse struct {
	Status  string `json:"status"`
	Backend string `json:"backend"`
}
