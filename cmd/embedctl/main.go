// Package main implements embedctl, the command-line client for embedd.
//
// methods, validate and embed run the backends in-process with the same
// configuration the daemon uses. health talks to a running daemon.
package main

import (
	"os"

	"github.com/fyrsmithlabs/embedd/internal/backend"
	"github.com/fyrsmithlabs/embedd/internal/config"
	"github.com/fyrsmithlabs/embedd/internal/embedder"
	"github.com/fyrsmithlabs/embedd/internal/logging"
	"github.com/spf13/cobra"
)

var version = "dev"

// app holds flags shared by every subcommand.
type app struct {
	serverURL  string
	configPath string

	// newRegistry builds the backend set; tests swap in fakes.
	newRegistry func(cfg *config.Config) (*embedder.Registry, error)
}

func defaultRegistry(cfg *config.Config) (*embedder.Registry, error) {
	return backend.NewRegistry(cfg, logging.NewNop(), nil, backend.Options{})
}

func main() {
	if err := newRootCmd(&app{newRegistry: defaultRegistry}).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "embedctl",
		Short: "CLI for embedd",
		Long: `embedctl lists embedding backends, resolves model names, embeds text
in-process and checks a running embedd daemon.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().StringVar(&a.serverURL, "server", "http://127.0.0.1:9191", "embedd server URL")
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "config file (default ~/.config/embedd/config.yaml)")

	root.AddCommand(
		newMethodsCmd(a),
		newValidateCmd(a),
		newEmbedCmd(a),
		newHealthCmd(a),
		newONNXCmd(a),
	)
	return root
}

func (a *app) loadConfig() (*config.Config, error) {
	return config.LoadWithFile(a.configPath)
}

func (a *app) registry() (*config.Config, *embedder.Registry, error) {
	cfg, err := a.loadConfig()
	if err != nil {
		return nil, nil, err
	}
	reg, err := a.newRegistry(cfg)
	if err != nil {
		return nil, nil, err
	}
	return cfg, reg, nil
}
