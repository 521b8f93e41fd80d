// Package bootstrap wires the store, cache and PMS adapters shared by the
// api and sync binaries.
package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"

	"hotel_pms/internal/adapters/mews"
	redisad "hotel_pms/internal/adapters/redis"
	"hotel_pms/internal/app"
	"hotel_pms/internal/domain"
	"hotel_pms/internal/shared"
	"hotel_pms/internal/storage/memory"
	mysqlrepo "hotel_pms/internal/storage/mysql"
)

type Deps struct {
	Store    domain.Store
	Cache    domain.Cache
	Registry *app.Registry
	closers  []func() error
}

func (d *Deps) Close() {
	for i := len(d.closers) - 1; i >= 0; i-- {
		if err := d.closers[i](); err != nil {
			log.Warn().Err(err).Msg("close failed")
		}
	}
}

// Open connects to storage and redis and builds every compiled-in adapter.
// An unreachable redis only disables caching.
func Open(ctx context.Context, cfg shared.Config) (*Deps, error) {
	d := &Deps{}

	switch cfg.Storage {
	case "memory":
		log.Warn().Msg("using in-memory storage; nothing survives a restart")
		d.Store = memory.New()
	case "mysql":
		db, err := sql.Open("mysql", cfg.MySQLDSN)
		if err != nil {
			return nil, fmt.Errorf("sql.Open: %w", err)
		}
		pctx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		if err := db.PingContext(pctx); err != nil {
			db.Close()
			return nil, fmt.Errorf("db ping: %w", err)
		}
		log.Info().Msg("database connection ok")
		d.Store = mysqlrepo.New(db)
		d.closers = append(d.closers, db.Close)
	default:
		return nil, fmt.Errorf("unknown STORAGE %q", cfg.Storage)
	}

	if cfg.RedisAddr != "" {
		c := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
		pctx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		if err := c.Ping(pctx); err != nil {
			log.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("redis unavailable, caching disabled")
			_ = c.Close()
		} else {
			d.Cache = c
			d.closers = append(d.closers, c.Close)
		}
	}

	client, err := mews.New(cfg.PMSBase, cfg.PMSKey, cfg.PMSRPS, cfg.PMSRetries)
	if err != nil {
		d.Close()
		return nil, fmt.Errorf("init PMS client: %w", err)
	}
	norm := app.Normalizer{DefaultRegion: cfg.DefaultRegion}
	d.Registry = app.NewRegistry(
		app.NewMewsAdapter(client, d.Store, d.Cache, norm),
	)
	return d, nil
}
