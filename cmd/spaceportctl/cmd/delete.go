package cmd

import (
	"errors"
	"fmt"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/ericfisherdev/spaceport/internal/domain/port/driven"
)

func newDeleteCmd(client func() (driven.RepositoryAPI, error)) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a registered repository",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := client()
			if err != nil {
				return err
			}

			rec, err := findRepository(cmd, api, args[0])
			if err != nil {
				return err
			}

			if !yes {
				prompt := promptui.Prompt{
					Label:     rec.DeletePrompt(),
					IsConfirm: true,
					Stdin:     readCloser(cmd),
					Stdout:    writeCloser(cmd),
				}
				if _, err := prompt.Run(); err != nil {
					if errors.Is(err, promptui.ErrAbort) {
						fmt.Fprintln(cmd.OutOrStdout(), "Aborted.")
						return nil
					}
					return fmt.Errorf("confirm delete: %w", err)
				}
			}

			if err := api.Delete(cmd.Context(), rec.ID); err != nil {
				return fmt.Errorf("deleting repository: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Repository %q deleted.\n", rec.Name)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Delete without asking for confirmation")
	return cmd
}
