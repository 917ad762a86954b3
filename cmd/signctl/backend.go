package main

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/bryanwahyu/traffic-sign-indicator/internal/application/signs"
	"github.com/bryanwahyu/traffic-sign-indicator/internal/config"
	"github.com/bryanwahyu/traffic-sign-indicator/internal/container"
	domain "github.com/bryanwahyu/traffic-sign-indicator/internal/domain/signs"
	"github.com/bryanwahyu/traffic-sign-indicator/internal/infra/gateway"
)

var errHistoryViaGateway = errors.New("history is only available in direct mode")

// directBackend runs the workflow in-process. The full container (model and
// result store) is only built for analyze and history.
type directBackend struct {
	cfg *config.Config
	log *zap.Logger

	c *container.Container
}

func newDirectBackend(cfg *config.Config, log *zap.Logger) *directBackend {
	return &directBackend{cfg: cfg, log: log}
}

func (b *directBackend) service(ctx context.Context) (*signs.Service, error) {
	if b.c == nil {
		c, err := container.Build(ctx, b.cfg, b.log)
		if err != nil {
			return nil, err
		}
		b.c = c
	}
	return b.c.Service, nil
}

func (b *directBackend) Images(ctx context.Context) ([]string, error) {
	images, err := container.NewImageSource(ctx, b.cfg)
	if err != nil {
		return nil, err
	}
	svc := &signs.Service{Images: images, Logger: b.log, Prefix: b.cfg.Storage.Prefix}
	return svc.ListCandidates(ctx), nil
}

func (b *directBackend) Analyze(ctx context.Context, image, drivingContext string) (domain.AnalysisRecord, error) {
	svc, err := b.service(ctx)
	if err != nil {
		return domain.AnalysisRecord{}, err
	}
	return svc.Analyze(ctx, signs.AnalyzeCommand{ImageKey: image, Context: drivingContext})
}

func (b *directBackend) History(ctx context.Context, page, pageSize int) ([]domain.AnalysisRecord, error) {
	svc, err := b.service(ctx)
	if err != nil {
		return nil, err
	}
	return svc.Latest(ctx, page, pageSize)
}

func (b *directBackend) Close() error {
	if b.c == nil {
		return nil
	}
	return b.c.Close()
}

// gatewayBackend posts to a running cmd/api.
type gatewayBackend struct {
	client *gateway.Client
}

func newGatewayBackend(endpoint, apiKey string, timeout time.Duration) *gatewayBackend {
	return &gatewayBackend{client: gateway.NewClient(endpoint, apiKey, timeout)}
}

func (b *gatewayBackend) Images(ctx context.Context) ([]string, error) {
	return b.client.Images(ctx)
}

func (b *gatewayBackend) Analyze(ctx context.Context, image, drivingContext string) (domain.AnalysisRecord, error) {
	res, err := b.client.Analyze(ctx, image, drivingContext)
	if err != nil {
		return domain.AnalysisRecord{}, err
	}
	return res.Record(), nil
}

func (b *gatewayBackend) History(context.Context, int, int) ([]domain.AnalysisRecord, error) {
	return nil, errHistoryViaGateway
}

func (b *gatewayBackend) Close() error { return nil }
