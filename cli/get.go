package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/vaultx/vaultx/clipboard"
	"github.com/vaultx/vaultx/genericclioptions"
)

// GetOptions implements `vaultx get <project> <key>`: by default the
// decrypted value is written to stdout with no trailing newline, per the
// command-surface contract; --copy-clipboard copies it instead.
type GetOptions struct {
	*DefaultVltOptions

	project string
	key     string
	copy    bool
}

var _ genericclioptions.CmdOptions = &GetOptions{}

func (o *GetOptions) Complete() error { return o.DefaultVltOptions.Complete() }

func (o *GetOptions) Validate() error {
	if len(o.project) == 0 || len(o.key) == 0 {
		return errors.New("get: project and key are required")
	}

	return nil
}

func (o *GetOptions) Run() error {
	value, err := o.vaultOptions.Vault.GetSecret(o.project, o.key)
	if err != nil {
		return err
	}

	defer zero(value)

	if o.copy {
		return clipboard.Copy(string(value))
	}

	o.Printf("%s", value)

	return nil
}

func newGetCommand(defaults *DefaultVltOptions) *cobra.Command {
	o := &GetOptions{DefaultVltOptions: defaults}

	cmd := &cobra.Command{
		Use:   "get <project> <key>",
		Short: "Print a decrypted secret value",
		Long: `Print the decrypted value of project/key to standard output with no
trailing newline. An expired secret is removed and reported as expired
rather than returned.`,
		Args: cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			o.project, o.key = args[0], args[1]
			return genericclioptions.ExecuteCommand(o)
		},
	}

	cmd.Flags().BoolVarP(&o.copy, "copy-clipboard", "c", false, "copy the value to the clipboard instead of printing it")

	return cmd
}
