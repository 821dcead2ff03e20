// Package app initializes and holds long-lived application services, acting
// as a dependency injection container for the CLI commands.
package app

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/pubsub/v2"
	gcstorage "cloud.google.com/go/storage"
	"go.uber.org/zap"

	"github.com/JakeFAU/grocery-catalog-crawler/internal/api"
	badgercache "github.com/JakeFAU/grocery-catalog-crawler/internal/cache/badger"
	fscache "github.com/JakeFAU/grocery-catalog-crawler/internal/cache/fs"
	memcache "github.com/JakeFAU/grocery-catalog-crawler/internal/cache/memory"
	"github.com/JakeFAU/grocery-catalog-crawler/internal/catalog"
	"github.com/JakeFAU/grocery-catalog-crawler/internal/change"
	"github.com/JakeFAU/grocery-catalog-crawler/internal/clock/system"
	"github.com/JakeFAU/grocery-catalog-crawler/internal/config"
	"github.com/JakeFAU/grocery-catalog-crawler/internal/crawler"
	"github.com/JakeFAU/grocery-catalog-crawler/internal/engine"
	"github.com/JakeFAU/grocery-catalog-crawler/internal/id/uuid"
	"github.com/JakeFAU/grocery-catalog-crawler/internal/logging"
	"github.com/JakeFAU/grocery-catalog-crawler/internal/persist"
	"github.com/JakeFAU/grocery-catalog-crawler/internal/productapi"
	pubmem "github.com/JakeFAU/grocery-catalog-crawler/internal/publisher/memory"
	pubnoop "github.com/JakeFAU/grocery-catalog-crawler/internal/publisher/noop"
	gcppub "github.com/JakeFAU/grocery-catalog-crawler/internal/publisher/pubsub"
	"github.com/JakeFAU/grocery-catalog-crawler/internal/store"
	"github.com/JakeFAU/grocery-catalog-crawler/internal/upload"
	uploadgcs "github.com/JakeFAU/grocery-catalog-crawler/internal/upload/gcs"
	uploadlocal "github.com/JakeFAU/grocery-catalog-crawler/internal/upload/local"
	uploadnoop "github.com/JakeFAU/grocery-catalog-crawler/internal/upload/noop"
)

// App holds the shared, long-lived services for the application. It is
// initialized once at startup and passed to the commands that need it.
type App struct {
	Config config.Config
	Logger *zap.Logger
	Engine *engine.Engine
	Server *api.Server

	closers []func() error
}

// New builds the service graph from configuration. It fails fast when any
// critical service cannot be initialized.
func New(ctx context.Context, cfg config.Config) (*App, error) {
	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		return nil, fmt.Errorf("initialize logger: %w", err)
	}
	a := &App{Config: cfg, Logger: logger}

	cache, err := a.newCache(cfg)
	if err != nil {
		a.Close()
		return nil, err
	}
	blob, err := a.newBlobStore(ctx, cfg)
	if err != nil {
		a.Close()
		return nil, err
	}
	events, err := a.newPublisher(ctx, cfg)
	if err != nil {
		a.Close()
		return nil, err
	}

	client := productapi.New(productapi.Config{
		BaseURL:           cfg.API.BaseURL,
		Language:          cfg.API.Language,
		Warehouse:         cfg.API.Warehouse,
		UserAgent:         cfg.API.UserAgent,
		Timeout:           cfg.APITimeout(),
		MaxRPS:            cfg.API.MaxRPS,
		ProductDelay:      time.Duration(cfg.API.ProductDelayMs) * time.Millisecond,
		ProductJitter:     time.Duration(cfg.API.ProductJitterMs) * time.Millisecond,
		ProductDelayFloor: time.Duration(cfg.API.ProductDelayFloorMs) * time.Millisecond,
		RelatedDelay:      time.Duration(cfg.API.RelatedDelayMs) * time.Millisecond,
	}, logger)

	products := store.New(cache, client, logger)
	snapshots := persist.NewStore(persist.Config{
		Dir:         cfg.Catalog.Dir,
		CurrentName: cfg.Catalog.CurrentName,
	}, logger)

	a.Engine = engine.New(engine.Deps{
		Config:    cfg,
		Products:  products,
		Detector:  change.New(products, logger),
		Crawler:   crawler.New(products, logger),
		Snapshots: snapshots,
		Uploader:  upload.New(blob, logger),
		Publisher: events,
		Clock:     system.New(),
		IDs:       uuid.NewUUIDGenerator(),
		Logger:    logger,
	})

	if cfg.Server.Enabled {
		a.Server = api.NewServer(a.Engine, cfg.Server.Port, logger)
	}

	logger.Info("application services initialized",
		zap.String("cache_provider", cfg.Cache.Provider),
		zap.String("upload_provider", cfg.Upload.Provider),
		zap.String("events_provider", cfg.Events.Provider),
	)
	return a, nil
}

func (a *App) newCache(cfg config.Config) (catalog.CacheStore, error) {
	switch cfg.Cache.Provider {
	case "fs":
		c, err := fscache.New(fscache.Config{BaseDir: cfg.Cache.Dir})
		if err != nil {
			return nil, fmt.Errorf("initialize fs cache: %w", err)
		}
		return c, nil
	case "badger":
		c, err := badgercache.New(cfg.Cache.Dir, a.Logger)
		if err != nil {
			return nil, fmt.Errorf("initialize badger cache: %w", err)
		}
		a.closers = append(a.closers, c.Close)
		return c, nil
	case "memory":
		a.Logger.Info("using in-memory cache, records will not survive restart")
		return memcache.New(), nil
	default:
		return nil, fmt.Errorf("unknown cache provider: %s", cfg.Cache.Provider)
	}
}

func (a *App) newBlobStore(ctx context.Context, cfg config.Config) (catalog.BlobStore, error) {
	switch cfg.Upload.Provider {
	case "gcs":
		client, err := gcstorage.NewClient(ctx)
		if err != nil {
			return nil, fmt.Errorf("initialize gcs client: %w", err)
		}
		a.closers = append(a.closers, client.Close)
		blob, err := uploadgcs.New(client, uploadgcs.Config{Bucket: cfg.Upload.Bucket})
		if err != nil {
			return nil, fmt.Errorf("initialize gcs blob store: %w", err)
		}
		a.Logger.Info("using GCS upload sink", zap.String("bucket", cfg.Upload.Bucket))
		return blob, nil
	case "local":
		blob, err := uploadlocal.New(uploadlocal.Config{BaseDir: cfg.Upload.Dir})
		if err != nil {
			return nil, fmt.Errorf("initialize local blob store: %w", err)
		}
		return blob, nil
	case "noop":
		return uploadnoop.New(), nil
	default:
		return nil, fmt.Errorf("unknown upload provider: %s", cfg.Upload.Provider)
	}
}

func (a *App) newPublisher(ctx context.Context, cfg config.Config) (catalog.Publisher, error) {
	switch cfg.Events.Provider {
	case "pubsub":
		client, err := pubsub.NewClient(ctx, cfg.Events.ProjectID)
		if err != nil {
			return nil, fmt.Errorf("initialize pubsub client: %w", err)
		}
		a.closers = append(a.closers, client.Close)
		a.Logger.Info("using Pub/Sub event sink", zap.String("topic", cfg.Events.Topic))
		return gcppub.New(client.Publisher(cfg.Events.Topic)), nil
	case "memory":
		return pubmem.New(), nil
	case "noop":
		return pubnoop.New(), nil
	default:
		return nil, fmt.Errorf("unknown events provider: %s", cfg.Events.Provider)
	}
}

// Close shuts down every service that holds external resources. Called by a
// Cobra hook after the command finishes.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.Logger.Warn("service shutdown error", zap.Error(err))
		}
	}
	_ = a.Logger.Sync()
}
