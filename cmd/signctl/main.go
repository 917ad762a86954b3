package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/bryanwahyu/traffic-sign-indicator/internal/config"
	"github.com/bryanwahyu/traffic-sign-indicator/internal/logger"
)

type options struct {
	configPath string
	endpoint   string
	apiKey     string
	logLevel   string
}

// backendFactory builds the backend once flags are parsed.
type backendFactory func(ctx context.Context, opt *options) (Backend, error)

func main() {
	_ = godotenv.Load()
	if err := newRootCmd(defaultBackend).Execute(); err != nil {
		os.Exit(1)
	}
}

func defaultBackend(_ context.Context, opt *options) (Backend, error) {
	cfg, err := config.Load(opt.configPath)
	if err != nil {
		return nil, fmt.Errorf("config load error: %w", err)
	}
	endpoint := opt.endpoint
	if endpoint == "" {
		endpoint = cfg.Gateway.Endpoint
	}
	if endpoint != "" {
		key := opt.apiKey
		if key == "" {
			key = cfg.Gateway.APIKey
		}
		return newGatewayBackend(endpoint, key, cfg.Gateway.Timeout), nil
	}

	level := cfg.Log.Level
	if opt.logLevel != "" {
		level = opt.logLevel
	}
	log, err := logger.New(level, "console")
	if err != nil {
		log = zap.NewNop()
	}
	return newDirectBackend(cfg, log), nil
}

func newRootCmd(factory backendFactory) *cobra.Command {
	opt := &options{}
	root := &cobra.Command{
		Use:   "signctl",
		Short: "Analyze traffic sign images and get driving precautions",
		Long: `signctl lists traffic sign images from the object store, runs the
sign analysis workflow on one of them and shows stored results.

By default the workflow runs in-process using config.yaml. With --endpoint
(or GATEWAY_ENDPOINT) requests go to a running gateway instead.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&opt.configPath, "config", config.Path(), "path to config.yaml")
	root.PersistentFlags().StringVar(&opt.endpoint, "endpoint", "", "gateway base URL (enables gateway mode)")
	root.PersistentFlags().StringVar(&opt.apiKey, "api-key", "", "gateway API key")
	root.PersistentFlags().StringVar(&opt.logLevel, "log-level", "", "log level for direct mode (debug, info, warn, error)")

	open := func(cmd *cobra.Command) (*Session, func(), error) {
		b, err := factory(cmd.Context(), opt)
		if err != nil {
			return nil, nil, err
		}
		return NewSession(b), func() { _ = b.Close() }, nil
	}

	root.AddCommand(
		newImagesCmd(open),
		newAnalyzeCmd(open),
		newHistoryCmd(open),
	)
	return root
}
