// Package backend assembles the fixed set of embedding backends.
package backend

import (
	"github.com/fyrsmithlabs/embedd/internal/backend/local"
	"github.com/fyrsmithlabs/embedd/internal/backend/remote"
	"github.com/fyrsmithlabs/embedd/internal/config"
	"github.com/fyrsmithlabs/embedd/internal/embedder"
	"github.com/fyrsmithlabs/embedd/internal/logging"
)

// Options overrides backend construction, mainly for tests.
type Options struct {
	Local  []local.Option
	Remote []remote.Option
}

// NewRegistry builds every backend from cfg and registers them in a fixed
// order: fastembed, then grpc. Neither backend touches its engine or
// network until the first Embed.
func NewRegistry(cfg *config.Config, logger *logging.Logger, metrics *embedder.Metrics, o Options) (*embedder.Registry, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	localOpts := append([]local.Option{
		local.WithLogger(logger),
		local.WithMetrics(metrics),
	}, o.Local...)
	remoteOpts := append([]remote.Option{
		remote.WithLogger(logger),
		remote.WithMetrics(metrics),
	}, o.Remote...)

	return embedder.NewRegistry(
		local.New(local.Config{
			CacheDir:  cfg.FastEmbed.CacheDir,
			MaxLength: cfg.FastEmbed.MaxLength,
			BatchSize: cfg.FastEmbed.BatchSize,
		}, localOpts...),
		remote.New(remote.Config{
			Endpoint: cfg.GRPC.Endpoint,
			APIKey:   cfg.GRPC.APIKey,
		}, remoteOpts...),
	)
}
