package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/vaultx/vaultx/genericclioptions"
	"github.com/vaultx/vaultx/input"
	"github.com/vaultx/vaultx/ttl"
)

// AddOptions implements `vaultx add <project> <key>`: the secret value is
// read interactively, from a file, or from piped stdin — never from a
// command-line argument.
type AddOptions struct {
	*DefaultVltOptions

	project string
	key     string
	ttl     string
	file    string
}

var _ genericclioptions.CmdOptions = &AddOptions{}

func (o *AddOptions) Complete() error { return o.DefaultVltOptions.Complete() }

func (o *AddOptions) Validate() error {
	if len(o.project) == 0 || len(o.key) == 0 {
		return errors.New("add: project and key are required")
	}

	return nil
}

func (o *AddOptions) Run() error {
	ttlSeconds, err := o.resolveTTL()
	if err != nil {
		return err
	}

	value, err := o.readValue()
	if err != nil {
		return err
	}

	defer zero(value)

	if len(value) == 0 {
		return errors.New("add: empty secret value")
	}

	return o.vaultOptions.Vault.AddSecret(o.project, o.key, value, ttlSeconds)
}

func (o *AddOptions) resolveTTL() (int64, error) {
	if len(o.ttl) == 0 {
		return 0, nil
	}

	return ttl.Parse(o.ttl)
}

func (o *AddOptions) readValue() ([]byte, error) {
	if len(o.file) > 0 {
		return os.ReadFile(o.file)
	}

	if o.NonInteractive {
		return io.ReadAll(o.In)
	}

	v, err := input.PromptReadSecure(o.Out, int(o.In.Fd()), "Value for %s/%s: ", o.project, o.key)
	if err != nil {
		return nil, fmt.Errorf("prompt secret value: %w", err)
	}

	return v, nil
}

func newAddCommand(defaults *DefaultVltOptions) *cobra.Command {
	o := &AddOptions{DefaultVltOptions: defaults}

	cmd := &cobra.Command{
		Use:   "add <project> <key>",
		Short: "Add or replace a secret",
		Long: `Add or replace a secret value under the named project and key. The value is
never accepted as a command-line argument: it is read from an interactive
prompt, from piped stdin, or from a file given with --file.`,
		Example: `  # Add interactively
  vaultx add alpha TOKEN

  # Pipe a generated value with a TTL
  vaultx generate | vaultx add alpha TOKEN --ttl 24h`,
		Args: cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			o.project, o.key = args[0], args[1]
			return genericclioptions.ExecuteCommand(o)
		},
	}

	cmd.Flags().StringVar(&o.ttl, "ttl", "", "expire the secret after this duration (e.g. 1h, 7d)")
	cmd.Flags().StringVar(&o.file, "file", "", "read the secret value from this file instead of prompting")

	return cmd
}
