package commands

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"secdb/src/client"
	"secdb/src/engine"
)

// remoteFlags select a running server instead of opening the file.
type remoteFlags struct {
	url      string
	bson     bool
	user     string
	password string
}

func (r *remoteFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&r.url, "remote", "", "query a running server at this base URL instead of the data file")
	cmd.Flags().BoolVar(&r.bson, "bson", false, "use BSON with --remote")
	cmd.Flags().StringVar(&r.user, "auth-user", "", "basic auth user for --remote")
	cmd.Flags().StringVar(&r.password, "auth-password", "", "basic auth password for --remote")
}

func (r *remoteFlags) client() *client.Client {
	var opts []client.Option
	if r.bson {
		opts = append(opts, client.WithBSON())
	}
	if r.user != "" {
		opts = append(opts, client.WithBasicAuth(r.user, r.password))
	}
	return client.New(r.url, opts...)
}

// withStore opens the data file read-write for the duration of fn. It
// fails while a server holds the file.
func withStore(c *cli, fn func(*engine.DocumentStore) error) error {
	store, err := engine.Open(c.args.DataFile, c.args.Password, nil)
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(store)
}

func collectionsCmd(c *cli) *cobra.Command {
	remote := &remoteFlags{}
	cmd := &cobra.Command{
		Use:   "collections",
		Short: "List collection names",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var names []string
			var err error
			if remote.url != "" {
				names, err = remote.client().Collections(cmdContext(cmd))
			} else {
				err = withStore(c, func(store *engine.DocumentStore) error {
					names, err = store.Collections()
					return err
				})
			}
			if err != nil {
				return err
			}
			for _, name := range names {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}
	remote.register(cmd)
	return cmd
}

func dumpCmd(c *cli) *cobra.Command {
	remote := &remoteFlags{}
	cmd := &cobra.Command{
		Use:   "dump",
		Short: "Print the decrypted database as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var data engine.Database
			var err error
			if remote.url != "" {
				data, err = remote.client().Snapshot(cmdContext(cmd))
			} else {
				err = withStore(c, func(store *engine.DocumentStore) error {
					data, err = store.Snapshot()
					return err
				})
			}
			if err != nil {
				return err
			}

			out, err := json.MarshalIndent(data, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		},
	}
	remote.register(cmd)
	return cmd
}

func cmdContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
