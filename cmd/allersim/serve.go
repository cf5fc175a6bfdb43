package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"allersim/internal/server"
	"allersim/internal/session/filestore"
)

func newServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long:  "Serves the session API, health, and metrics endpoints until interrupted.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			semantic, replies, err := buildCollaborators(cfg)
			if err != nil {
				return err
			}

			store, err := filestore.New(cfg.SessionDir)
			if err != nil {
				return fmt.Errorf("open session store: %w", err)
			}

			opts := []server.ServerOption{server.WithStore(store)}
			if semantic != nil {
				opts = append(opts, server.WithSemanticAnalyzer(semantic))
			}
			if replies != nil {
				opts = append(opts, server.WithReplyProducer(replies))
			}
			srv := server.New(cfg, opts...)

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() { errCh <- srv.Start() }()
			fmt.Printf("allersim API listening on %s\n", cfg.ServerAddr)

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}
	return cmd
}
