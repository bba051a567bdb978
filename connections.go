package main

import (
	"errors"
	"fmt"
	"net/url"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/melkeydev/mcp-dbbrowser/registry"
	"github.com/melkeydev/mcp-dbbrowser/types"
)

func newConnectionsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "connections",
		Short: "Manage stored connections",
	}

	cmd.AddCommand(newConnectionsListCmd(a))
	cmd.AddCommand(newConnectionsAddCmd(a))
	cmd.AddCommand(newConnectionsUpdateCmd(a))
	cmd.AddCommand(newConnectionsRemoveCmd(a))
	return cmd
}

func newConnectionsListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored connections",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := a.openRegistry(cmd.Context())
			if err != nil {
				return err
			}
			defer store.Close()

			conns, err := store.List(cmd.Context())
			if err != nil {
				return err
			}

			t := table.NewWriter()
			t.SetOutputMirror(cmd.OutOrStdout())
			t.SetStyle(table.StyleLight)
			t.AppendHeader(table.Row{"Name", "URL", "Username", "Version"})
			for _, c := range conns {
				t.AppendRow(table.Row{c.Name, redactURL(c.URL), c.Username, c.Version})
			}
			t.Render()
			return nil
		},
	}
}

func newConnectionsAddCmd(a *app) *cobra.Command {
	var desc types.ConnectionDescriptor

	cmd := &cobra.Command{
		Use:   "add NAME URL",
		Short: "Store a new connection",
		Example: `  mcp-dbbrowser connections add warehouse postgres://db.internal:5432/dwh --username reader --password s3cret
  mcp-dbbrowser connections add local duckdb:/var/data/local.duckdb`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			desc.Name, desc.URL = args[0], args[1]

			store, err := a.openRegistry(cmd.Context())
			if err != nil {
				return err
			}
			defer store.Close()

			if _, created, err := store.Create(cmd.Context(), desc); err != nil {
				return err
			} else if !created {
				return fmt.Errorf("connection %s already exists", desc.Name)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "added connection %s\n", desc.Name)
			return nil
		},
	}
	cmd.Flags().StringVar(&desc.Username, "username", "", "user name")
	cmd.Flags().StringVar(&desc.Password, "password", "", "password")
	return cmd
}

func newConnectionsUpdateCmd(a *app) *cobra.Command {
	var (
		rawURL, username, password string
		expectVersion              int64
	)

	cmd := &cobra.Command{
		Use:   "update NAME",
		Short: "Change a stored connection",
		Long: `Change a stored connection. Only the given flags are modified.

With --expect-version the update is rejected if the stored connection has been
modified since that version was read.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.openRegistry(cmd.Context())
			if err != nil {
				return err
			}
			defer store.Close()

			desc, err := store.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			flags := cmd.Flags()
			if flags.Changed("url") {
				desc.URL = rawURL
			}
			if flags.Changed("username") {
				desc.Username = username
			}
			if flags.Changed("password") {
				desc.Password = password
			}
			if flags.Changed("expect-version") {
				desc.Version = expectVersion
			}

			_, found, err := store.Update(cmd.Context(), desc)
			if errors.Is(err, registry.ErrConflict) {
				return fmt.Errorf("connection %s was changed by someone else, re-read it and retry", desc.Name)
			}
			if err != nil {
				return err
			}
			if !found {
				return fmt.Errorf("%w: %s", registry.ErrNotFound, desc.Name)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "updated connection %s\n", desc.Name)
			return nil
		},
	}
	cmd.Flags().StringVar(&rawURL, "url", "", "connection URL")
	cmd.Flags().StringVar(&username, "username", "", "user name")
	cmd.Flags().StringVar(&password, "password", "", "password")
	cmd.Flags().Int64Var(&expectVersion, "expect-version", 0, "expected stored version")
	return cmd
}

func newConnectionsRemoveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "remove NAME",
		Aliases: []string{"rm"},
		Short:   "Delete a stored connection",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.openRegistry(cmd.Context())
			if err != nil {
				return err
			}
			defer store.Close()

			deleted, err := store.Delete(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if !deleted {
				return fmt.Errorf("%w: %s", registry.ErrNotFound, args[0])
			}

			fmt.Fprintf(cmd.OutOrStdout(), "removed connection %s\n", args[0])
			return nil
		},
	}
}

func redactURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "<invalid url>"
	}
	return u.Redacted()
}
