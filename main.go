package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/melkeydev/mcp-dbbrowser/browser"
	"github.com/melkeydev/mcp-dbbrowser/config"
	_ "github.com/melkeydev/mcp-dbbrowser/databases/duckdb"
	_ "github.com/melkeydev/mcp-dbbrowser/databases/mssql"
	_ "github.com/melkeydev/mcp-dbbrowser/databases/mysql"
	_ "github.com/melkeydev/mcp-dbbrowser/databases/postgres"
	"github.com/melkeydev/mcp-dbbrowser/mcp"
	"github.com/melkeydev/mcp-dbbrowser/registry"
)

const version = "0.1.0"

type app struct {
	configPath string
	cfg        *config.Config
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		slog.Error("command failed", "error", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:     "mcp-dbbrowser",
		Short:   "MCP server for browsing database metadata, previews and statistics",
		Version: version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.load()
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.serve(cmd.Context())
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", "config.yaml", "path to config file")

	root.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server on stdio (default)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.serve(cmd.Context())
		},
	})
	root.AddCommand(newConnectionsCmd(a))

	return root
}

// load reads the config and installs the default logger. Logs go to stderr
// since stdout carries the MCP stdio protocol.
func (a *app) load() error {
	cfg, err := config.LoadConfig(a.configPath)
	if err != nil {
		return err
	}

	level, err := cfg.Log.SlogLevel()
	if err != nil {
		return err
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	a.cfg = cfg
	return nil
}

// openRegistry opens the connection registry and upserts the connections
// listed in the config file.
func (a *app) openRegistry(ctx context.Context) (*registry.Store, error) {
	store, err := registry.Open(a.cfg.Registry.Path)
	if err != nil {
		return nil, err
	}

	for _, conn := range a.cfg.Connections {
		if err := store.Upsert(ctx, conn); err != nil {
			store.Close()
			return nil, fmt.Errorf("failed to seed connection %s: %w", conn.Name, err)
		}
	}
	return store, nil
}

func (a *app) serve(ctx context.Context) error {
	store, err := a.openRegistry(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	s := server.NewMCPServer(
		"mcp-dbbrowser",
		version,
		server.WithToolCapabilities(false),
		server.WithLogging(),
	)

	mcp.RegisterTools(s, browser.NewService(store), store)
	slog.Info("serving MCP on stdio", "registry", a.cfg.Registry.Path, "seeded", len(a.cfg.Connections))

	if err := server.ServeStdio(s); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}
