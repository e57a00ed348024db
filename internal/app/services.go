package app

import (
	"errors"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/odyssey-erp/quotedesk/internal/document"
	"github.com/odyssey-erp/quotedesk/internal/drafts"
	"github.com/odyssey-erp/quotedesk/internal/export"
	"github.com/odyssey-erp/quotedesk/internal/history"
	"github.com/odyssey-erp/quotedesk/internal/numbering"
	"github.com/odyssey-erp/quotedesk/internal/observability"
	"github.com/odyssey-erp/quotedesk/internal/rendercache"
)

// Services holds the domain services shared by the API server and the worker.
type Services struct {
	Engine  *document.Engine
	Numbers *numbering.Service
	History *history.Service
	Drafts  *drafts.Store
	Cache   *rendercache.Cache
	Export  *export.Service
}

// NewServices wires the domain services on top of Postgres and Redis.
func NewServices(cfg *Config, pool *pgxpool.Pool, redisClient *redis.Client, logger *slog.Logger, metrics *observability.Metrics) (*Services, error) {
	if pool == nil {
		return nil, errors.New("app: postgres pool required")
	}
	engine, err := NewDocumentEngine(cfg)
	if err != nil {
		return nil, err
	}

	numbers := numbering.NewService(numbering.NewPostgresSequencer(pool))
	archive := history.NewService(history.NewRepository(pool), logger).WithArchiveDir(cfg.ArchiveDir)

	svc := &Services{
		Engine:  engine,
		Numbers: numbers,
		History: archive,
	}
	if redisClient != nil {
		svc.Drafts = drafts.NewStore(redisClient, cfg.DraftTTL)
		if cfg.RenderCacheTTL > 0 {
			svc.Cache = rendercache.New(redisClient, cfg.RenderCacheTTL, RenderVariant(cfg), logger)
		}
	}
	svc.Export = export.NewService(export.Deps{
		Renderer:  engine,
		Numbers:   numbers,
		Cache:     svc.Cache,
		Archive:   archive,
		Metrics:   metrics,
		Formatter: engine.Formatter(),
		Logger:    logger,
	})
	return svc, nil
}
