package server

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/localindex/gofind/internal/agent"
	"github.com/localindex/gofind/internal/config"
)

func NewServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the gofind indexing/search daemon",
		Long:  "Starts the Coordinator and its HTTP query endpoint, scanning and watching every configured root.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}

			a := agent.NewAgent(cfg)
			return a.Serve(context.Background())
		},
	}

	return cmd
}
