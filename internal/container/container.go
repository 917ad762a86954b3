package container

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/bryanwahyu/traffic-sign-indicator/internal/application"
	appsigns "github.com/bryanwahyu/traffic-sign-indicator/internal/application/signs"
	"github.com/bryanwahyu/traffic-sign-indicator/internal/config"
	"github.com/bryanwahyu/traffic-sign-indicator/internal/domain/ai"
	domain "github.com/bryanwahyu/traffic-sign-indicator/internal/domain/signs"
	"github.com/bryanwahyu/traffic-sign-indicator/internal/infra/ai/bedrock"
	"github.com/bryanwahyu/traffic-sign-indicator/internal/infra/ai/gemini"
	"github.com/bryanwahyu/traffic-sign-indicator/internal/infra/ai/openai"
	"github.com/bryanwahyu/traffic-sign-indicator/internal/infra/ai/stub"
	mysqlp "github.com/bryanwahyu/traffic-sign-indicator/internal/infra/db/mysql"
	pgp "github.com/bryanwahyu/traffic-sign-indicator/internal/infra/db/postgres"
	redisstore "github.com/bryanwahyu/traffic-sign-indicator/internal/infra/kv/redis"
	"github.com/bryanwahyu/traffic-sign-indicator/internal/infra/storage"
	"github.com/bryanwahyu/traffic-sign-indicator/internal/logger"
	"github.com/bryanwahyu/traffic-sign-indicator/internal/middleware"
)

// Container holds the wired workflow and everything that must be closed on exit.
type Container struct {
	Service  *appsigns.Service
	Checkers map[string]middleware.HealthChecker

	closers []io.Closer
}

// Build wires object store, model and result store from cfg.
func Build(ctx context.Context, cfg *config.Config, log *zap.Logger) (*Container, error) {
	log = logger.OrNop(log)
	c := &Container{Checkers: map[string]middleware.HealthChecker{}}

	images, err := NewImageSource(ctx, cfg)
	if err != nil {
		return nil, err
	}
	c.Checkers["images"] = images

	model, modelID, err := NewModel(ctx, cfg)
	if err != nil {
		return nil, err
	}

	records, err := c.newRecordStore(ctx, cfg)
	if err != nil {
		c.Close()
		return nil, err
	}

	c.Service = &appsigns.Service{
		Images:  images,
		Model:   model,
		Records: records,
		Clock:   application.SystemClock{},
		Logger:  log,
		ModelID: modelID,
		Prefix:  cfg.Storage.Prefix,
	}
	log.Info("container ready",
		zap.String("provider", cfg.Inference.Provider),
		zap.String("model", modelID),
		zap.String("table_driver", cfg.Table.Driver),
		zap.String("bucket", cfg.Storage.Bucket),
	)
	return c, nil
}

// Close releases database and redis handles.
func (c *Container) Close() error {
	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		errs = append(errs, c.closers[i].Close())
	}
	c.closers = nil
	return errors.Join(errs...)
}

func NewImageSource(ctx context.Context, cfg *config.Config) (*storage.Store, error) {
	s, err := storage.New(ctx, storage.Options{
		Endpoint:     cfg.Storage.Endpoint,
		Region:       cfg.Storage.Region,
		Bucket:       cfg.Storage.Bucket,
		AccessKey:    cfg.Storage.AccessKey,
		SecretKey:    cfg.Storage.SecretKey,
		SessionToken: cfg.Storage.SessionToken,
		UseSSL:       cfg.Storage.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("object store: %w", err)
	}
	return s, nil
}

// NewModel returns the configured inference provider and the model id the
// workflow should send.
func NewModel(ctx context.Context, cfg *config.Config) (ai.Model, string, error) {
	inf := cfg.Inference
	switch strings.ToLower(inf.Provider) {
	case "bedrock", "":
		if inf.APIKey == "" {
			return nil, "", errors.New("bedrock: AWS_BEARER_TOKEN_BEDROCK is required")
		}
		endpoint := inf.Endpoint
		if endpoint == "" {
			endpoint = bedrock.Endpoint(inf.Region)
		}
		modelID := inf.Model
		if modelID == "" {
			modelID = appsigns.DefaultModelID
		}
		return bedrock.NewClient(endpoint, inf.APIKey, inf.Timeout), modelID, nil
	case "openai":
		if inf.APIKey == "" {
			return nil, "", errors.New("openai: OPENAI_API_KEY is required")
		}
		c := openai.NewClient(inf.APIKey, inf.Model, inf.BaseURL)
		return c, c.Model, nil
	case "gemini":
		c, err := gemini.NewClient(ctx, inf.APIKey, inf.Model, inf.BaseURL)
		if err != nil {
			return nil, "", err
		}
		modelID := inf.Model
		if modelID == "" {
			modelID = gemini.DefaultModel
		}
		return c, modelID, nil
	case "stub":
		return stub.NewClient(), "stub", nil
	default:
		return nil, "", fmt.Errorf("unknown inference provider %q", inf.Provider)
	}
}

type recordStore interface {
	domain.RecordStore
	middleware.HealthChecker
}

func (c *Container) newRecordStore(ctx context.Context, cfg *config.Config) (domain.RecordStore, error) {
	t := cfg.Table
	var store recordStore
	switch t.Driver {
	case "mysql":
		db, err := mysqlp.Connect(ctx, cfg.MySQLDSN())
		if err != nil {
			return nil, err
		}
		c.closers = append(c.closers, db)
		if err := migrate(t.Migrate, func() error { return mysqlp.Migrate(ctx, db, t.Name) }); err != nil {
			return nil, err
		}
		repo, err := mysqlp.NewRecordRepository(db, t.Name)
		if err != nil {
			return nil, err
		}
		store = repo
	case "postgres":
		db, err := pgp.Connect(ctx, cfg.PostgresDSN())
		if err != nil {
			return nil, err
		}
		c.closers = append(c.closers, db)
		if err := migrate(t.Migrate, func() error { return pgp.Migrate(ctx, db, t.Name) }); err != nil {
			return nil, err
		}
		repo, err := pgp.NewRecordRepository(db, t.Name)
		if err != nil {
			return nil, err
		}
		store = repo
	case "redis":
		rs, client, err := redisstore.New(ctx, redisstore.Options{
			Addr:     t.RedisAddr,
			Password: t.RedisPassword,
			DB:       t.RedisDB,
			Table:    t.Name,
		})
		if err != nil {
			return nil, err
		}
		c.closers = append(c.closers, client)
		store = rs
	default:
		return nil, fmt.Errorf("unknown table driver %q", t.Driver)
	}
	c.Checkers["records"] = store
	return store, nil
}

func migrate(enabled bool, fn func() error) error {
	if !enabled {
		return nil
	}
	if err := fn(); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}
