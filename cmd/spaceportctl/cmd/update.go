package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ericfisherdev/spaceport/internal/domain/model"
	"github.com/ericfisherdev/spaceport/internal/domain/port/driven"
)

func newUpdateCmd(client func() (driven.RepositoryAPI, error)) *cobra.Command {
	var flags draftFlags

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change the fields of a registered repository",
		Long: `Change the fields of a registered repository.

Only the fields given as flags change; an empty value clears an optional field.

Example:
  spaceportctl update 7f0c... --branch develop --compose-folder ""`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := client()
			if err != nil {
				return err
			}

			current, err := findRepository(cmd, api, args[0])
			if err != nil {
				return err
			}

			draft := flags.apply(cmd, model.DraftFrom(current))
			if res := draft.Validate(); !res.OK {
				return &model.ValidationError{Validation: res}
			}

			if _, err := api.Update(cmd.Context(), current.ID, draft); err != nil {
				return fmt.Errorf("updating repository: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Repository %q updated.\n", draft.Name)
			return nil
		},
	}

	flags.register(cmd, "")
	return cmd
}
