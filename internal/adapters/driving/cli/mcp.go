package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/leadscout/internal/adapters/driving/mcp"
	"github.com/custodia-labs/leadscout/internal/logger"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "MCP server commands",
	Long:  `Commands for the Model Context Protocol (MCP) server integration.`,
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server",
	Long: `Start the Model Context Protocol server so scraping agents can drive
the engine: plan queries, prioritise candidate batches, commit or release
admissions and report source results.

By default, the server communicates over stdio using JSON-RPC.
Use --port to start an HTTP server instead.

Housekeeping tasks and the database watcher run alongside the server.

Examples:
  # Stdio mode (default)
  leadscout mcp serve

  # HTTP mode (for MCP Inspector, remote access)
  leadscout mcp serve --port 8080`,
	RunE: runMCPServe,
}

func init() {
	mcpServeCmd.Flags().IntP("port", "p", 0, "HTTP port (0 = use stdio)")
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}

func runMCPServe(cmd *cobra.Command, _ []string) error {
	port, err := cmd.Flags().GetInt("port")
	if err != nil {
		return fmt.Errorf("getting port flag: %w", err)
	}

	server, err := mcp.NewServer(&mcp.Ports{Discovery: discoveryService}, mcp.WithVersion(version))
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		// The server ending for any reason stops the background loops.
		defer cancel()
		if port > 0 {
			addr := fmt.Sprintf(":%d", port)
			logger.Info("MCP server listening on http://localhost%s", addr)
			return server.RunHTTP(gctx, addr)
		}
		return server.Run(gctx)
	})

	startBackground(gctx, g)

	err = g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// startBackground runs the scheduler and database watcher in g.
// Their failures are logged and never stop the foreground command.
func startBackground(ctx context.Context, g *errgroup.Group) {
	if schedulerService != nil {
		g.Go(func() error {
			if err := schedulerService.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Warn("scheduler stopped: %v", err)
			}
			if err := schedulerService.Stop(); err != nil {
				logger.Warn("scheduler stop error: %v", err)
			}
			return nil
		})
	}
	if storeWatcher != nil {
		g.Go(func() error {
			if err := storeWatcher.Run(ctx); err != nil {
				logger.Warn("database watcher stopped: %v", err)
			}
			return nil
		})
	}
}
