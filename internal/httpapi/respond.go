package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/park285/chessx/internal/board"
	"github.com/park285/chessx/internal/msgcat"
	"github.com/park285/chessx/internal/session"
	"github.com/park285/chessx/pkg/chessdto"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	if w.Header().Get("Content-Type") == "" {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
	}
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}

type errorBody struct {
	Success bool                 `json:"success"`
	Error   chessdto.DomainError `json:"error"`
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, errorBody{Error: chessdto.DomainError{Code: code, Message: msg}})
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	return dec.Decode(v)
}

func isBodyTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr)
}

func writeDecodeError(w http.ResponseWriter, err error) {
	if isBodyTooLarge(err) {
		writeError(w, http.StatusRequestEntityTooLarge, chessdto.CodeBadRequest, "request too large")
		return
	}
	writeError(w, http.StatusBadRequest, chessdto.CodeBadRequest, "invalid json")
}

// gameState builds the client document for s.
func gameState(s *session.Session, cat *msgcat.Catalog) chessdto.GameState {
	moves := make([]chessdto.MoveEntry, 0, len(s.History))
	for _, m := range s.History {
		moves = append(moves, chessdto.MoveEntry{FEN: m.Position, Color: string(m.SideToMove)})
	}
	st := chessdto.GameState{
		Success:    true,
		FEN:        s.Position,
		Color:      string(s.SideToMove),
		Moves:      moves,
		White:      s.WhiteName,
		Black:      s.BlackName,
		Active:     s.Active,
		Revision:   s.Revision,
		MoveNumber: s.MoveNumber(),
		UpdatedAt:  s.UpdatedAt,
	}
	if b, err := s.Board(); err == nil {
		st.StandardFEN = board.StandardFEN(b, s.SideToMove)
	}
	if cat != nil {
		data := cat.NewStatusData(s.WhiteName, s.BlackName, s.SideToMove, s.MoveNumber())
		st.Status = cat.Text("status.html", data)
		st.Turn = cat.Text("status.turn", data)
	}
	return st
}

// classify maps a domain error onto an HTTP status and error code.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, session.ErrConflict):
		return http.StatusConflict, chessdto.CodeConflict
	case errors.Is(err, session.ErrIllegalMove):
		return http.StatusOK, chessdto.CodeIllegalMove
	case errors.Is(err, board.ErrMalformedPosition):
		return http.StatusBadRequest, chessdto.CodeMalformed
	case errors.Is(err, board.ErrOutOfBounds):
		return http.StatusBadRequest, chessdto.CodeOutOfBounds
	case errors.Is(err, session.ErrInvalidSide):
		return http.StatusBadRequest, chessdto.CodeBadRequest
	default:
		return http.StatusInternalServerError, chessdto.CodeInternal
	}
}

func dtoSquare(sq board.Square) chessdto.Square {
	return chessdto.Square{Row: sq.Row, Col: sq.Col, Name: sq.String()}
}

func queryBool(r *http.Request, key string) bool {
	switch strings.ToLower(strings.TrimSpace(r.URL.Query().Get(key))) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}
