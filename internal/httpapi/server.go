// Package httpapi serves the shared game over HTTP and WebSocket.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/handlers"
	"go.uber.org/zap"

	"github.com/park285/chessx/internal/archive"
	"github.com/park285/chessx/internal/auth"
	"github.com/park285/chessx/internal/chat"
	"github.com/park285/chessx/internal/hub"
	"github.com/park285/chessx/internal/msgcat"
	"github.com/park285/chessx/internal/render"
	"github.com/park285/chessx/internal/session"
)

const maxJSONBodyBytes int64 = 1 << 16

// ArchiveReader lists finished games.
type ArchiveReader interface {
	Recent(ctx context.Context, limit int) ([]archive.Game, error)
	Get(ctx context.Context, id int64) (*archive.Game, error)
}

// Deps are the collaborators of the HTTP layer. Auth, Archive and Hub may be nil.
type Deps struct {
	Manager  *session.Manager
	Chat     chat.Log
	Auth     *auth.Authenticator
	Catalog  *msgcat.Catalog
	Renderer *render.Renderer
	Archive  ArchiveReader
	Hub      *hub.Hub
	Logger   *zap.Logger

	ChatLimit     int
	Backend       string
	ClientOrigin  string
	SecureCookies bool
}

type Server struct {
	d      Deps
	logger *zap.Logger
	router chi.Router

	srvMu sync.Mutex
	srv   *http.Server
}

func New(d Deps) *Server {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.Catalog == nil {
		d.Catalog = msgcat.Default()
	}
	if d.Renderer == nil {
		d.Renderer = render.New(0)
	}
	if d.ChatLimit <= 0 {
		d.ChatLimit = 50
	}
	if d.Chat == nil {
		d.Chat = chat.NewMemoryLog(d.ChatLimit)
	}
	s := &Server{d: d, logger: d.Logger}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(s.accessLog)
	r.Use(chimw.Recoverer)

	// long-lived stream, outside the request timeout
	r.Get("/ws", s.handleWS)

	r.Group(func(r chi.Router) {
		r.Use(chimw.Timeout(10 * time.Second))
		r.Use(limitBody)

		r.Get("/healthz", s.handleHealth)
		r.Get("/board.png", s.handleBoardPNG)

		r.Group(func(r chi.Router) {
			r.Use(jsonContentType)
			r.Get("/game", s.handleGame)
			r.Get("/legal", s.handleLegal)
			r.Get("/tchat", s.handleChatList)
			r.Post("/tchat", s.handleChatPost)
			r.Get("/archive", s.handleArchive)
			r.Get("/archive/{id}", s.handleArchivedGame)
			r.Post("/login", s.handleLogin)

			r.Group(func(r chi.Router) {
				if s.d.Auth != nil {
					r.Use(s.d.Auth.Middleware)
				}
				r.Post("/move", s.handleMove)
				r.Post("/undo", s.handleUndo)
				r.Post("/reset", s.handleReset)
				r.Post("/names", s.handleNames)
				r.Post("/castle", s.handleCastle)
			})
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not_found", "no route for "+r.URL.Path)
	})
	return r
}

// Handler returns the router wrapped with CORS.
func (s *Server) Handler() http.Handler {
	opts := []handlers.CORSOption{
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Content-Type", "Authorization"}),
	}
	if s.d.ClientOrigin != "" {
		opts = append(opts, handlers.AllowedOrigins([]string{s.d.ClientOrigin}), handlers.AllowCredentials())
	} else {
		opts = append(opts, handlers.AllowedOrigins([]string{"*"}))
	}
	return handlers.CORS(opts...)(s.router)
}

// Listen serves on addr until Shutdown is called.
func (s *Server) Listen(addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 16,
	}
	s.srvMu.Lock()
	s.srv = srv
	s.srvMu.Unlock()

	s.logger.Info("http_listen", zap.String("addr", addr))
	err := srv.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (s *Server) Shutdown(ctx context.Context) error {
	s.srvMu.Lock()
	srv := s.srv
	s.srvMu.Unlock()
	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}

func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
	})
}

func limitBody(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Body != nil && r.Body != http.NoBody {
			r.Body = http.MaxBytesReader(w, r.Body, maxJSONBodyBytes)
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("http_request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("dur", time.Since(start)),
			zap.String("request_id", chimw.GetReqID(r.Context())),
		)
	})
}
