// Package cmd implements the spaceportctl commands.
package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ericfisherdev/spaceport/internal/adapter/driven/indexer"
	"github.com/ericfisherdev/spaceport/internal/config"
	"github.com/ericfisherdev/spaceport/internal/domain/port/driven"
)

const (
	defaultAPIBase = "http://localhost:8080/api/v1"
	defaultTimeout = 10 * time.Second
)

// clientFactory builds the repository client from the resolved settings.
type clientFactory func(v *viper.Viper) (driven.RepositoryAPI, error)

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := newRootCmd(os.Stdout, newIndexerClient).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd(out io.Writer, newClient clientFactory) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("SPACEPORT")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	root := &cobra.Command{
		Use:           "spaceportctl",
		Short:         "Manage the repositories registered with the Spaceport indexer",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(out)

	root.PersistentFlags().String("api-base", defaultAPIBase, "Indexer API base URL (env SPACEPORT_API_BASE)")
	root.PersistentFlags().Duration("request-timeout", defaultTimeout, "Per-request timeout (env SPACEPORT_REQUEST_TIMEOUT)")
	_ = v.BindPFlag("api-base", root.PersistentFlags().Lookup("api-base"))
	_ = v.BindPFlag("request-timeout", root.PersistentFlags().Lookup("request-timeout"))

	client := func() (driven.RepositoryAPI, error) { return newClient(v) }

	root.AddCommand(
		newListCmd(client),
		newAddCmd(client),
		newUpdateCmd(client),
		newDeleteCmd(client),
	)
	return root
}

func newIndexerClient(v *viper.Viper) (driven.RepositoryAPI, error) {
	base, err := config.ResolveAPIBase(v.GetString("api-base"))
	if err != nil {
		return nil, err
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return indexer.NewClient(base, v.GetDuration("request-timeout"), logger)
}
