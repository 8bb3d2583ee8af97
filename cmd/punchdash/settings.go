package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/Veraticus/punchdash/internal/backend"
	"github.com/Veraticus/punchdash/internal/cli"
	"github.com/Veraticus/punchdash/internal/settings"
	"github.com/spf13/cobra"
)

func settingsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or change the backend connection settings",
	}

	cmd.AddCommand(settingsShowCmd())
	cmd.AddCommand(settingsSetCmd())
	cmd.AddCommand(settingsResetCmd())

	return cmd
}

func settingsShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the connection settings",
		RunE: func(cmd *cobra.Command, _ []string) error {
			reveal, _ := cmd.Flags().GetBool("reveal")

			env, cleanup, err := setup(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			conn := env.conn
			if !reveal {
				conn = conn.Redacted()
			}
			return writeConnection(os.Stdout, conn, env.store.Available())
		},
	}

	cmd.Flags().Bool("reveal", false, "show the password")

	return cmd
}

func settingsSetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set",
		Short: "Change one or more connection settings",
		Example: `  punchdash settings set --host 192.168.1.20 --port 3000
  punchdash settings set --username coach --password s3cret`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			env, cleanup, err := setup(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			conn := env.conn
			changed := 0
			for _, f := range []struct {
				dst  *string
				name string
			}{
				{&conn.Host, "host"},
				{&conn.Port, "port"},
				{&conn.Username, "username"},
				{&conn.Password, "password"},
			} {
				if cmd.Flags().Changed(f.name) {
					*f.dst, _ = cmd.Flags().GetString(f.name)
					changed++
				}
			}
			if changed == 0 {
				return errors.New("nothing to change; pass at least one of --host, --port, --username, --password")
			}

			saved, err := settings.Save(ctx, env.store, conn)
			if err != nil {
				return err
			}
			return writeConnection(os.Stdout, saved.Redacted(), env.store.Available())
		},
	}

	cmd.Flags().String("host", "", "backend host, http:// is added when no scheme is given")
	cmd.Flags().String("port", "", "backend port")
	cmd.Flags().String("username", "", "backend username")
	cmd.Flags().String("password", "", "backend password")

	return cmd
}

func settingsResetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Restore the default connection settings",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			env, cleanup, err := setup(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			if err := settings.Reset(ctx, env.store); err != nil {
				return err
			}
			conn, err := settings.Load(ctx, env.store, env.app.ServerDefaults)
			if err != nil {
				return err
			}
			return writeConnection(os.Stdout, conn.Redacted(), env.store.Available())
		},
	}
}

func writeConnection(w io.Writer, conn settings.Connection, persistent bool) error {
	_, err := fmt.Fprintf(w, "Host:     %s\nPort:     %s\nUsername: %s\nPassword: %s\nAddress:  %s\n",
		conn.Host, conn.Port, conn.Username, conn.Password, backend.BuildConnectionAddress(conn.Normalize()))
	if err == nil && !persistent {
		_, err = fmt.Fprintln(w, cli.FormatWarning("settings storage is not persistent; changes last for this run only"))
	}
	return err
}
