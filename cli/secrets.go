package cli

import (
	"errors"
	"time"

	"github.com/spf13/cobra"

	"github.com/vaultx/vaultx/genericclioptions"
	"github.com/vaultx/vaultx/ttl"
)

// SecretsOptions implements `vaultx secrets <project>`: one line per
// secret, with its humanized remaining time-to-live.
type SecretsOptions struct {
	*DefaultVltOptions

	project string
}

var _ genericclioptions.CmdOptions = &SecretsOptions{}

func (o *SecretsOptions) Complete() error { return o.DefaultVltOptions.Complete() }

func (o *SecretsOptions) Validate() error {
	if len(o.project) == 0 {
		return errors.New("secrets: a project name is required")
	}

	return nil
}

func (o *SecretsOptions) Run() error {
	infos, err := o.vaultOptions.Vault.SecretInfos(o.project)
	if err != nil {
		return err
	}

	if len(infos) == 0 {
		o.Printf("No secrets in %q.\n", o.project)
		return nil
	}

	now := time.Now().Unix()

	for _, s := range infos {
		o.Printf("%s\t%s\n", s.Key, expiryLabel(s.ExpiresAt, now))
	}

	return nil
}

func expiryLabel(expiresAt *int64, now int64) string {
	if expiresAt == nil {
		return "no expiry"
	}

	return ttl.Humanize(*expiresAt - now)
}

func newSecretsCommand(defaults *DefaultVltOptions) *cobra.Command {
	o := &SecretsOptions{DefaultVltOptions: defaults}

	cmd := &cobra.Command{
		Use:   "secrets <project>",
		Short: "List the secrets in a project with their remaining TTL",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			o.project = args[0]
			return genericclioptions.ExecuteCommand(o)
		},
	}

	return cmd
}
