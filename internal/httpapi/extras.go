package httpapi

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/park285/chessx/internal/archive"
	"github.com/park285/chessx/internal/auth"
	"github.com/park285/chessx/internal/board"
	"github.com/park285/chessx/internal/chat"
	"github.com/park285/chessx/internal/render"
	"github.com/park285/chessx/pkg/chessdto"
)

type chatResponse struct {
	Success  bool                   `json:"success"`
	Messages []chessdto.ChatMessage `json:"messages"`
}

func chatMessages(msgs []chat.Message) []chessdto.ChatMessage {
	out := make([]chessdto.ChatMessage, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, chessdto.ChatMessage{ID: m.ID, Text: m.Text, Datetime: m.Datetime})
	}
	return out
}

func (s *Server) handleChatList(w http.ResponseWriter, r *http.Request) {
	msgs, err := s.d.Chat.List(r.Context(), s.d.ChatLimit)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, chatResponse{Success: true, Messages: chatMessages(msgs)})
}

// handleChatPost appends a message and answers with the refreshed list.
func (s *Server) handleChatPost(w http.ResponseWriter, r *http.Request) {
	var req chessdto.ChatPostRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDecodeError(w, err)
		return
	}
	msg, err := s.d.Chat.Append(r.Context(), req.Text)
	if errors.Is(err, chat.ErrBlank) {
		writeError(w, http.StatusBadRequest, chessdto.CodeBadRequest, s.d.Catalog.Text("error.blank_message", nil))
		return
	}
	if err != nil {
		s.fail(w, err)
		return
	}
	s.logger.Info("chat_append", zap.String("id", msg.ID), zap.Int("len", len(msg.Text)))
	s.handleChatList(w, r)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if !s.d.Auth.Enabled() {
		writeError(w, http.StatusNotFound, chessdto.CodeNotFound, "login is disabled")
		return
	}
	var req chessdto.LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDecodeError(w, err)
		return
	}
	token, exp, err := s.d.Auth.Login(req.Password)
	if errors.Is(err, auth.ErrBadPassword) {
		writeError(w, http.StatusUnauthorized, chessdto.CodeUnauthorized, s.d.Catalog.Text("error.bad_password", nil))
		return
	}
	if err != nil {
		s.fail(w, err)
		return
	}
	auth.SetCookie(w, token, exp, s.d.SecureCookies)
	writeJSON(w, http.StatusOK, chessdto.LoginResponse{Token: token, ExpiresAt: exp.Unix()})
}

// handleBoardPNG renders the current position. ?sq= (or ?row=&col=) marks a selection with
// its legal targets, ?free=1 ignores piece rules for them and ?flip=1 puts black at the bottom.
func (s *Server) handleBoardPNG(w http.ResponseWriter, r *http.Request) {
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
	data := s.d.Catalog.NewStatusData(sess.WhiteName, sess.BlackName, sess.SideToMove, sess.MoveNumber())
	opts := render.Options{
		Header: s.d.Catalog.Text("status.players", data),
		Turn:   s.d.Catalog.Text("status.turn", data) + " - " + s.d.Catalog.Text("status.move", data),
		Flip:   queryBool(r, "flip"),
	}
	if n := len(sess.History); n >= 2 {
		prev, perr := board.Decode(sess.History[n-2].Position)
		if perr == nil {
			if mv, ok := board.InferMove(prev, b); ok {
				opts.LastMove = &mv
			}
		}
	}
	if sq, ok := squareFromQuery(r); ok {
		opts.Selected = &sq
		if targets, err := board.LegalTargets(b, sess.SideToMove, sq, queryBool(r, "free")); err == nil {
			opts.Targets = targets
		}
	}

	img, err := s.d.Renderer.PNG(r.Context(), b, opts)
	if err != nil {
		s.fail(w, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("ETag", strconv.Quote(strconv.FormatInt(sess.Revision, 10)))
	_, _ = w.Write(img)
}

func (s *Server) handleArchive(w http.ResponseWriter, r *http.Request) {
	if s.d.Archive == nil {
		writeError(w, http.StatusNotFound, chessdto.CodeNotFound, "archive is not configured")
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	games, err := s.d.Archive.Recent(r.Context(), limit)
	if err != nil {
		s.fail(w, err)
		return
	}
	out := make([]chessdto.ArchivedGame, 0, len(games))
	for i := range games {
		out = append(out, archivedGame(&games[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleArchivedGame(w http.ResponseWriter, r *http.Request) {
	if s.d.Archive == nil {
		writeError(w, http.StatusNotFound, chessdto.CodeNotFound, "archive is not configured")
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, chessdto.CodeBadRequest, "invalid game id")
		return
	}
	g, err := s.d.Archive.Get(r.Context(), id)
	if errors.Is(err, sql.ErrNoRows) {
		writeError(w, http.StatusNotFound, chessdto.CodeNotFound, "no archived game "+strconv.FormatInt(id, 10))
		return
	}
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, archivedGame(g))
}

func archivedGame(g *archive.Game) chessdto.ArchivedGame {
	moves := make([]chessdto.MoveEntry, 0, len(g.Moves))
	for _, m := range g.Moves {
		moves = append(moves, chessdto.MoveEntry{FEN: m.Position, Color: string(m.SideToMove)})
	}
	return chessdto.ArchivedGame{
		ID:        g.ID,
		White:     g.White,
		Black:     g.Black,
		Moves:     moves,
		Plies:     g.Plies,
		FinalFEN:  g.FinalFEN,
		StartedAt: g.StartedAt,
		EndedAt:   g.EndedAt,
	}
}
