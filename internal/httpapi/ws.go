package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/park285/chessx/pkg/chessdto"
)

const (
	wsWriteTimeout = 5 * time.Second
	wsPingInterval = 30 * time.Second
)

// handleWS streams the game document: the current state on connect, then every commit.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	if s.d.Hub == nil {
		writeError(w, http.StatusNotFound, chessdto.CodeNotFound, "live updates are disabled")
		return
	}
	var patterns []string
	if s.d.ClientOrigin != "" {
		patterns = []string{s.d.ClientOrigin}
	}
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns:  patterns,
		CompressionMode: websocket.CompressionNoContextTakeover,
	})
	if err != nil {
		s.logger.Warn("ws_accept_error", zap.Error(err))
		return
	}
	defer conn.Close(websocket.StatusInternalError, "closing")

	updates, cancel := s.d.Hub.Subscribe()
	defer cancel()

	// clients only listen; CloseRead handles control frames and cancels ctx on close
	ctx := conn.CloseRead(r.Context())

	sess, err := s.d.Manager.Get(ctx)
	if err != nil {
		s.logger.Warn("ws_initial_state_error", zap.Error(err))
		conn.Close(websocket.StatusInternalError, "state unavailable")
		return
	}
	if err := s.writeWS(ctx, conn, gameState(sess, s.d.Catalog)); err != nil {
		return
	}
	last := sess.Revision

	ping := time.NewTicker(wsPingInterval)
	defer ping.Stop()
	for {
		select {
		case <-ctx.Done():
			conn.Close(websocket.StatusNormalClosure, "")
			return
		case upd, ok := <-updates:
			if !ok {
				conn.Close(websocket.StatusGoingAway, "server shutting down")
				return
			}
			if upd.Revision <= last {
				continue
			}
			last = upd.Revision
			if err := s.writeWS(ctx, conn, gameState(upd, s.d.Catalog)); err != nil {
				return
			}
		case <-ping.C:
			pctx, pcancel := context.WithTimeout(ctx, 3*time.Second)
			err := conn.Ping(pctx)
			pcancel()
			if err != nil {
				return
			}
		}
	}
}

func (s *Server) writeWS(ctx context.Context, conn *websocket.Conn, v chessdto.GameState) error {
	wctx, cancel := context.WithTimeout(ctx, wsWriteTimeout)
	defer cancel()
	err := wsjson.Write(wctx, conn, v)
	if err != nil && !errors.Is(err, context.Canceled) {
		s.logger.Debug("ws_write_error", zap.Error(err))
	}
	return err
}
