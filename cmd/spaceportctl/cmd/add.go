package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/ericfisherdev/spaceport/internal/domain/model"
	"github.com/ericfisherdev/spaceport/internal/domain/port/driven"
)

// draftFlags are the editable fields shared by add and update.
type draftFlags struct {
	name, url, branch, composeFolder, credentials string
}

func (f *draftFlags) register(cmd *cobra.Command, branchDefault string) {
	cmd.Flags().StringVar(&f.name, "name", "", "Display name (at least 3 characters)")
	cmd.Flags().StringVar(&f.url, "url", "", "Git URL (https://... or git@...)")
	cmd.Flags().StringVar(&f.branch, "branch", branchDefault, "Branch to index")
	cmd.Flags().StringVar(&f.composeFolder, "compose-folder", "", "Folder holding docker-compose.yml")
	cmd.Flags().StringVar(&f.credentials, "credentials", "", "Name of the stored credential to clone with")
}

// apply copies the flags the user set onto d.
func (f *draftFlags) apply(cmd *cobra.Command, d model.Draft) model.Draft {
	set := func(flag string, dst *string, v string) {
		if cmd.Flags().Changed(flag) {
			*dst = strings.TrimSpace(v)
		}
	}
	set("name", &d.Name, f.name)
	set("url", &d.URL, f.url)
	set("branch", &d.Branch, f.branch)
	set("compose-folder", &d.ComposeFolder, f.composeFolder)
	set("credentials", &d.CredentialsName, f.credentials)
	return d
}

func newAddCmd(client func() (driven.RepositoryAPI, error)) *cobra.Command {
	var (
		flags draftFlags
		yes   bool
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Register a new repository",
		Long: `Register a new repository.

Fields not given as flags are prompted for, unless --yes is set.

Examples:
  spaceportctl add --name org/api --url https://github.com/org/api.git --yes
  spaceportctl add`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			draft := flags.apply(cmd, model.NewDraft())

			if !yes {
				var err error
				if draft, err = promptDraft(cmd, draft); err != nil {
					return err
				}
			}

			if res := draft.Validate(); !res.OK {
				return &model.ValidationError{Validation: res}
			}

			api, err := client()
			if err != nil {
				return err
			}
			rec, err := api.Create(cmd.Context(), draft)
			if err != nil {
				return fmt.Errorf("creating repository: %w", err)
			}

			if rec != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "Repository %q registered with id %s.\n", rec.Name, rec.ID)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "Repository %q registered.\n", draft.Name)
			}
			return nil
		},
	}

	flags.register(cmd, model.DefaultBranch)
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip interactive prompts")
	return cmd
}

// promptDraft asks for every field the flags left unset.
func promptDraft(cmd *cobra.Command, d model.Draft) (model.Draft, error) {
	fields := []struct {
		flag     string
		label    string
		dst      *string
		validate promptui.ValidateFunc
	}{
		{"name", "Name", &d.Name, ruleFor(model.MsgNameTooShort)},
		{"url", "Git URL", &d.URL, ruleFor(model.MsgInvalidURL)},
		{"branch", "Branch", &d.Branch, ruleFor(model.MsgMissingBranch)},
		{"compose-folder", "Compose folder", &d.ComposeFolder, nil},
		{"credentials", "Credentials name", &d.CredentialsName, nil},
	}

	for _, f := range fields {
		if cmd.Flags().Changed(f.flag) {
			continue
		}
		prompt := promptui.Prompt{
			Label:    f.label,
			Default:  *f.dst,
			Validate: f.validate,
			Stdin:    readCloser(cmd),
			Stdout:   writeCloser(cmd),
		}
		v, err := prompt.Run()
		if err != nil {
			return d, fmt.Errorf("prompt %s: %w", f.flag, err)
		}
		*f.dst = strings.TrimSpace(v)
	}
	return d, nil
}

// ruleFor returns a prompt validator reporting msg when the value alone
// violates the matching draft rule.
func ruleFor(msg string) promptui.ValidateFunc {
	return func(input string) error {
		var res model.Validation
		switch msg {
		case model.MsgNameTooShort:
			res = model.ValidateDraft(input, "git@x:y", "main")
		case model.MsgInvalidURL:
			res = model.ValidateDraft("valid", input, "main")
		default:
			res = model.ValidateDraft("valid", "git@x:y", input)
		}
		if !res.OK {
			return errors.New(msg)
		}
		return nil
	}
}
