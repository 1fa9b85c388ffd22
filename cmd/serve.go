package cmd

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xkilldash9x/stylelens/internal/api"
	"github.com/xkilldash9x/stylelens/internal/inspect"
	"github.com/xkilldash9x/stylelens/internal/observability"
	"github.com/xkilldash9x/stylelens/internal/profile"
)

func newServeCmd() *cobra.Command {
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Starts the HTTP API used by the inspector panel",
		Long: `Serves the validation, alignment and spacing analyses over HTTP and streams profile
changes over a websocket. With --watch the profiles file is reloaded when it changes.`,
		Example: `  stylelens serve --addr 127.0.0.1:8080 --profiles expectedStyles.yaml --watch`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := getConfigFromContext(cmd.Context())
			if err != nil {
				return err
			}
			logger := observability.GetLogger()
			profiles := cfg.Profiles()

			store := profile.NewStore(logger, profiles.Path)
			if err := store.Reload(); err != nil {
				// The panel shows the failure; the server still starts so the file can be fixed.
				logger.Warn("Starting without profiles.", zap.Error(err))
			} else if profiles.Default != "" {
				if err := store.Select(profiles.Default); err != nil {
					logger.Warn("Default profile not selected.", zap.String("profile", profiles.Default), zap.Error(err))
				}
			}

			server := api.NewServer(cfg.Server(), logger, store, inspect.NewService(logger))

			g, ctx := errgroup.WithContext(cmd.Context())
			if profiles.Watch {
				g.Go(func() error {
					return store.Watch(ctx, profiles.WatchDebounce)
				})
			}
			g.Go(func() error {
				return server.Run(ctx)
			})
			return g.Wait()
		},
	}

	serveCmd.Flags().String("addr", "", "Address to listen on (default :8080)")
	serveCmd.Flags().String("profiles", "", "Expected styles file (JSON or YAML)")
	serveCmd.Flags().String("profile", "", "Profile to select at startup")
	serveCmd.Flags().Bool("watch", false, "Reload the profiles file when it changes")

	bindFlag(serveCmd, "addr", "server.addr")
	bindFlag(serveCmd, "profiles", "profiles.path")
	bindFlag(serveCmd, "profile", "profiles.default")
	bindFlag(serveCmd, "watch", "profiles.watch")
	return serveCmd
}
