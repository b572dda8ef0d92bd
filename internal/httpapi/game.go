package httpapi

import (
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/park285/chessx/internal/board"
	"github.com/park285/chessx/internal/session"
	"github.com/park285/chessx/pkg/chessdto"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := http.StatusOK
	body := chessdto.HealthResponse{Status: "ok", Backend: s.d.Backend}
	if _, err := s.d.Manager.Get(r.Context()); err != nil {
		s.logger.Warn("health_store_error", zap.Error(err))
		status = http.StatusServiceUnavailable
		body.Status = "degraded"
	}
	writeJSON(w, status, body)
}

func (s *Server) handleGame(w http.ResponseWriter, r *http.Request) {
	sess, err := s.d.Manager.Get(r.Context())
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, gameState(sess, s.d.Catalog))
}

func (s *Server) handleMove(w http.ResponseWriter, r *http.Request) {
	var req chessdto.MoveRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDecodeError(w, err)
		return
	}
	side, err := board.ParseColor(strings.TrimSpace(req.Color))
	if err != nil {
		writeError(w, http.StatusBadRequest, chessdto.CodeBadRequest, err.Error())
		return
	}
	sess, err := s.d.Manager.Move(r.Context(), session.MoveRequest{
		Position:   req.FEN,
		SideToMove: side,
		Base:       req.Base,
	})
	if err != nil {
		s.rejectWithState(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, gameState(sess, s.d.Catalog))
}

func (s *Server) handleCastle(w http.ResponseWriter, r *http.Request) {
	var req chessdto.CastleRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDecodeError(w, err)
		return
	}
	c, err := board.ParseColor(strings.TrimSpace(req.Color))
	if err != nil {
		writeError(w, http.StatusBadRequest, chessdto.CodeBadRequest, err.Error())
		return
	}
	wing, err := board.ParseWing(strings.TrimSpace(req.Side))
	if err != nil {
		writeError(w, http.StatusBadRequest, chessdto.CodeBadRequest, err.Error())
		return
	}
	sess, err := s.d.Manager.Castle(r.Context(), c, wing)
	if err != nil {
		s.rejectWithState(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, gameState(sess, s.d.Catalog))
}

func (s *Server) handleUndo(w http.ResponseWriter, r *http.Request) {
	sess, err := s.d.Manager.Undo(r.Context())
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, gameState(sess, s.d.Catalog))
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	sess, err := s.d.Manager.Reset(r.Context())
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, gameState(sess, s.d.Catalog))
}

func (s *Server) handleNames(w http.ResponseWriter, r *http.Request) {
	var req chessdto.NamesRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDecodeError(w, err)
		return
	}
	sess, err := s.d.Manager.SetNames(r.Context(), req.White, req.Black)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, gameState(sess, s.d.Catalog))
}

// handleLegal lists the targets of the piece on ?sq= (or ?row=&col=) for the side to move.
func (s *Server) handleLegal(w http.ResponseWriter, r *http.Request) {
	from, ok := squareFromQuery(r)
	if !ok {
		writeError(w, http.StatusBadRequest, chessdto.CodeOutOfBounds, "missing or invalid square")
		return
	}
	free := queryBool(r, "free")
	sess, err := s.d.Manager.Get(r.Context())
	if err != nil {
		s.fail(w, err)
		return
	}
	b, err := sess.Board()
	if err != nil {
		s.fail(w, err)
		return
	}
	targets, err := board.LegalTargets(b, sess.SideToMove, from, free)
	if err != nil {
		s.fail(w, err)
		return
	}
	out := chessdto.LegalTargets{From: dtoSquare(from), Targets: make([]chessdto.Square, 0, len(targets)), Free: free}
	for _, t := range targets {
		out.Targets = append(out.Targets, dtoSquare(t))
	}
	writeJSON(w, http.StatusOK, out)
}

// squareFromQuery reads ?sq=e2 or ?row=6&col=4. ok is false when neither is present or
// the square is off the board.
func squareFromQuery(r *http.Request) (board.Square, bool) {
	q := r.URL.Query()
	if v := strings.TrimSpace(q.Get("sq")); v != "" {
		sq, err := board.ParseSquare(v)
		return sq, err == nil
	}
	rowStr, colStr := strings.TrimSpace(q.Get("row")), strings.TrimSpace(q.Get("col"))
	if rowStr == "" || colStr == "" {
		return board.Square{}, false
	}
	row, err1 := strconv.Atoi(rowStr)
	col, err2 := strconv.Atoi(colStr)
	if err1 != nil || err2 != nil {
		return board.Square{}, false
	}
	sq := board.Sq(row, col)
	return sq, sq.InBounds()
}

// rejectWithState answers a refused mutation with the unchanged state and success:false,
// so clients can resync from the same response.
func (s *Server) rejectWithState(w http.ResponseWriter, r *http.Request, cause error) {
	status, code := classify(cause)
	if status == http.StatusInternalServerError {
		s.fail(w, cause)
		return
	}
	if status == http.StatusBadRequest {
		writeError(w, status, code, cause.Error())
		return
	}
	sess, err := s.d.Manager.Get(r.Context())
	if err != nil {
		s.fail(w, err)
		return
	}
	st := gameState(sess, s.d.Catalog)
	st.Success = false
	st.Error = &chessdto.DomainError{Code: code, Message: cause.Error(), Retryable: code == chessdto.CodeConflict}
	writeJSON(w, status, st)
}

func (s *Server) fail(w http.ResponseWriter, err error) {
	status, code := classify(err)
	if status == http.StatusInternalServerError {
		s.logger.Error("http_internal_error", zap.Error(err))
		writeError(w, status, code, "internal error")
		return
	}
	writeError(w, status, code, err.Error())
}
