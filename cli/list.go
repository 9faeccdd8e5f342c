package cli

import (
	"github.com/spf13/cobra"

	"github.com/vaultx/vaultx/genericclioptions"
)

// ListOptions implements `vaultx list`: one line per project, with its
// secret count.
type ListOptions struct {
	*DefaultVltOptions
}

var _ genericclioptions.CmdOptions = &ListOptions{}

func (o *ListOptions) Complete() error { return o.DefaultVltOptions.Complete() }
func (o *ListOptions) Validate() error { return nil }

func (o *ListOptions) Run() error {
	vlt := o.vaultOptions.Vault

	projects := vlt.ListProjects()
	if len(projects) == 0 {
		o.Printf("No projects.\n")
		return nil
	}

	for _, name := range projects {
		secrets, err := vlt.ListSecrets(name)
		if err != nil {
			return err
		}

		o.Printf("%s\t%d secret(s)\n", name, len(secrets))
	}

	return nil
}

func newListCommand(defaults *DefaultVltOptions) *cobra.Command {
	o := &ListOptions{DefaultVltOptions: defaults}

	return &cobra.Command{
		Use:   "list",
		Short: "List projects and their secret counts",
		RunE: func(*cobra.Command, []string) error {
			return genericclioptions.ExecuteCommand(o)
		},
	}
}
