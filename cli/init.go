package cli

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"github.com/vaultx/vaultx/genericclioptions"
	"github.com/vaultx/vaultx/input"
	"github.com/vaultx/vaultx/vault"
)

// minPasswordLength is the minimum acceptable length for a newly created
// vault's master password.
const minPasswordLength = 8

// InitOptions implements `vaultx init <project>`: create a brand-new
// container (prompting for a confirmed password), or add an empty project
// to an existing one (prompting for its existing password).
type InitOptions struct {
	*DefaultVltOptions

	ctx     context.Context
	project string
}

var _ genericclioptions.CmdOptions = &InitOptions{}

func (o *InitOptions) Complete() error { return o.DefaultVltOptions.Complete() }

func (o *InitOptions) Validate() error {
	if len(o.project) == 0 {
		return errors.New("init: a project name is required")
	}

	return nil
}

func (o *InitOptions) Run() error {
	path := o.vaultOptions.Path

	if _, err := os.Stat(path); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("stat vault file: %w", err)
		}

		return o.createVault(path)
	}

	return o.extendVault(path)
}

func (o *InitOptions) createVault(path string) error {
	password, err := input.PromptNewPassword(o.Out, int(o.In.Fd()), minPasswordLength)
	if err != nil {
		return fmt.Errorf("prompt new password: %w", err)
	}

	defer zero(password)

	vlt, err := vault.New(o.ctx, path, password)
	if err != nil {
		return err
	}

	defer vlt.Close()

	if err := vlt.AddProject(o.project); err != nil {
		return err
	}

	o.Printf("Initialized vault at %q with project %q.\n", path, o.project)
	o.Debugf("kdf: %s\n", vlt.KDFDescriptor())

	return nil
}

func (o *InitOptions) extendVault(path string) error {
	password, err := input.PromptPassword(o.Out, int(o.In.Fd()))
	if err != nil {
		return fmt.Errorf("prompt password: %w", err)
	}

	defer zero(password)

	vlt, err := vault.Open(o.ctx, path, password)
	if err != nil {
		return err
	}

	defer vlt.Close()

	if err := vlt.AddProject(o.project); err != nil {
		return err
	}

	o.Printf("Added project %q to vault at %q.\n", o.project, path)

	return nil
}

func newInitCommand(defaults *DefaultVltOptions) *cobra.Command {
	o := &InitOptions{DefaultVltOptions: defaults}

	cmd := &cobra.Command{
		Use:   "init <project>",
		Short: "Create a new vault, or add an empty project to an existing one",
		Long: `Create a vault container at the resolved path if none exists, prompting for
a new master password with confirmation. If a vault already exists there,
prompt for its existing password and add the named project to it, empty.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			o.ctx = cmd.Context()
			o.project = args[0]
			return genericclioptions.ExecuteCommand(o)
		},
	}

	return cmd
}
