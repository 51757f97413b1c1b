package cmd

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/ericfisherdev/spaceport/internal/domain/model"
	"github.com/ericfisherdev/spaceport/internal/domain/port/driven"
)

func newListCmd(client func() (driven.RepositoryAPI, error)) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List registered repositories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			api, err := client()
			if err != nil {
				return err
			}
			repos, err := api.List(cmd.Context())
			if err != nil {
				return fmt.Errorf("listing repositories: %w", err)
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(repos)
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tURL\tBRANCH\tCOMPOSE FOLDER\tCREDENTIALS\tUPDATED")
			for _, r := range repos {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
					r.ID, r.Name, r.URL, r.Branch,
					orDash(r.ComposeFolder), orDash(r.CredentialsName), formatTime(r.UpdatedAt))
			}
			return w.Flush()
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the collection as JSON")
	return cmd
}

// findRepository looks a record up by id in the collection.
func findRepository(cmd *cobra.Command, api driven.RepositoryAPI, id string) (model.Repository, error) {
	repos, err := api.List(cmd.Context())
	if err != nil {
		return model.Repository{}, fmt.Errorf("listing repositories: %w", err)
	}
	for _, r := range repos {
		if r.ID == id {
			return r, nil
		}
	}
	return model.Repository{}, fmt.Errorf("repository %q not found", id)
}

func orDash(s *string) string {
	if s == nil || *s == "" {
		return "-"
	}
	return *s
}

func formatTime(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Local().Format(time.RFC3339)
}
