// Package app builds the server dependency graph from configuration.
package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/park285/chessx/internal/archive"
	"github.com/park285/chessx/internal/auth"
	"github.com/park285/chessx/internal/chat"
	"github.com/park285/chessx/internal/config"
	"github.com/park285/chessx/internal/httpapi"
	"github.com/park285/chessx/internal/hub"
	"github.com/park285/chessx/internal/msgcat"
	"github.com/park285/chessx/internal/render"
	"github.com/park285/chessx/internal/session"
)

type Deps struct {
	Manager *session.Manager
	Chat    chat.Log
	Archive *archive.Repository
	Hub     *hub.Hub
	Server  *httpapi.Server

	store session.Store
	redis *redis.Client
}

func New(ctx context.Context, cfg *config.AppConfig, logger *zap.Logger) (*Deps, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	d := &Deps{Hub: hub.New(0)}

	store, chatLog, err := d.openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	d.store = store
	d.Chat = chatLog

	// Archive (optional)
	var archiver session.Archiver
	if strings.TrimSpace(cfg.DatabaseURL) != "" {
		d.Archive, err = archive.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			_ = d.Close()
			return nil, fmt.Errorf("open archive: %w", err)
		}
		archiver = d.Archive
	}

	catalog, err := msgcat.New(cfg.MessagesDir)
	if err != nil {
		_ = d.Close()
		return nil, fmt.Errorf("load messages: %w", err)
	}

	authn, err := auth.New(cfg.AdminPassword, cfg.AdminPasswordHash, cfg.JWTSecret, cfg.JWTTTL)
	if err != nil {
		_ = d.Close()
		return nil, err
	}

	d.Manager = session.NewManager(store, session.Options{
		WhiteName: cfg.DefaultWhiteName,
		BlackName: cfg.DefaultBlackName,
		Strict:    cfg.StrictMoves,
		Chat:      chatLog,
		Archive:   archiver,
		Notify:    d.Hub,
		Logger:    logger.Named("session"),
	})

	var archiveReader httpapi.ArchiveReader
	if d.Archive != nil {
		archiveReader = d.Archive
	}
	d.Server = httpapi.New(httpapi.Deps{
		Manager:       d.Manager,
		Chat:          chatLog,
		Auth:          authn,
		Catalog:       catalog,
		Renderer:      render.New(0),
		Archive:       archiveReader,
		Hub:           d.Hub,
		Logger:        logger.Named("http"),
		ChatLimit:     cfg.ChatLimit,
		Backend:       cfg.StoreBackend,
		ClientOrigin:  cfg.ClientOrigin,
		SecureCookies: strings.HasPrefix(strings.ToLower(cfg.ClientOrigin), "https://"),
	})

	logger.Info("app_ready",
		zap.String("backend", cfg.StoreBackend),
		zap.Bool("strict", d.Manager.Strict()),
		zap.Bool("auth", authn.Enabled()),
		zap.Bool("archive", d.Archive != nil),
	)
	return d, nil
}

// openStore picks the session store and a chat log that shares its backend where possible.
func (d *Deps) openStore(ctx context.Context, cfg *config.AppConfig) (session.Store, chat.Log, error) {
	switch cfg.StoreBackend {
	case config.BackendRedis:
		rdb, err := session.OpenRedis(ctx, cfg.RedisURL)
		if err != nil {
			return nil, nil, fmt.Errorf("connect redis: %w", err)
		}
		d.redis = rdb
		return session.NewRedisStoreFromClient(rdb, cfg.SessionTTL), chat.NewRedisLog(rdb, cfg.ChatCapacity), nil
	case config.BackendBadger:
		st, err := session.NewBadgerStore(cfg.BadgerDir, cfg.SessionTTL)
		if err != nil {
			return nil, nil, fmt.Errorf("open badger: %w", err)
		}
		return st, chat.NewMemoryLog(cfg.ChatCapacity), nil
	default:
		return session.NewMemoryStore(), chat.NewMemoryLog(cfg.ChatCapacity), nil
	}
}

func (d *Deps) closeRedis() error {
	if d.redis == nil {
		return nil
	}
	err := d.redis.Close()
	d.redis = nil
	return err
}

// Close releases everything New opened, in reverse order.
func (d *Deps) Close() error {
	if d == nil {
		return nil
	}
	var errs []error
	if d.Hub != nil {
		d.Hub.Close()
	}
	switch {
	case d.Manager != nil:
		errs = append(errs, d.Manager.Close())
	case d.store != nil:
		errs = append(errs, d.store.Close())
	}
	if d.Archive != nil {
		errs = append(errs, d.Archive.Close())
	}
	errs = append(errs, d.closeRedis())
	return errors.Join(errs...)
}
