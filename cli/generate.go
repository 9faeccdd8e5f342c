package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vaultx/vaultx/clipboard"
	"github.com/vaultx/vaultx/genericclioptions"
	"github.com/vaultx/vaultx/randstring"
)

// GenerateOptions generates a client-side random secret, independent of any
// vault; the result may be piped straight into `add`.
type GenerateOptions struct {
	*genericclioptions.StdioOptions

	policy randstring.PasswordPolicy
	copy   bool
}

var _ genericclioptions.CmdOptions = &GenerateOptions{}

func (*GenerateOptions) Complete() error { return nil }
func (*GenerateOptions) Validate() error { return nil }

func (o *GenerateOptions) Run() error {
	policy := o.policy

	var zero randstring.PasswordPolicy
	if policy == zero {
		policy = randstring.DefaultPasswordPolicy
	}

	s, err := randstring.NewWithPolicy(policy)
	if err != nil {
		return err
	}

	if o.copy {
		o.Debugf("copying generated secret to clipboard\n")
		return clipboard.Copy(s)
	}

	o.Printf("%s", s)

	return nil
}

func newGenerateCommand(defaults *DefaultVltOptions) *cobra.Command {
	o := &GenerateOptions{StdioOptions: defaults.StdioOptions}

	cmd := &cobra.Command{
		Use:     "generate",
		Aliases: []string{"gen"},
		Short:   "Generate a random secret, independent of any vault",
		Long: fmt.Sprintf(`Generate a random password satisfying a character-class policy.

With no flags, the default policy requires at least %d lowercase, %d uppercase,
%d digit, and %d symbol characters, with a minimum total length of %d.`,
			randstring.DefaultPasswordPolicy.MinLowercase,
			randstring.DefaultPasswordPolicy.MinUppercase,
			randstring.DefaultPasswordPolicy.MinDigits,
			randstring.DefaultPasswordPolicy.MinSymbols,
			randstring.DefaultPasswordPolicy.MinLength,
		),
		Example: `  # Generate with the default policy and copy it to the clipboard
  vaultx generate --copy-clipboard

  # Pipe straight into a new secret
  vaultx generate | vaultx add alpha TOKEN`,
		RunE: func(*cobra.Command, []string) error {
			return genericclioptions.ExecuteCommand(o)
		},
	}

	cmd.Flags().IntVarP(&o.policy.MinLowercase, "lower-case", "l", 0, "minimum number of lowercase letters")
	cmd.Flags().IntVarP(&o.policy.MinUppercase, "upper-case", "u", 0, "minimum number of uppercase letters")
	cmd.Flags().IntVarP(&o.policy.MinDigits, "digits", "d", 0, "minimum number of digits")
	cmd.Flags().IntVarP(&o.policy.MinSymbols, "symbols", "s", 0, "minimum number of symbols")
	cmd.Flags().IntVarP(&o.policy.MinLength, "min-length", "m", 0, "minimum total length")
	cmd.Flags().BoolVarP(&o.copy, "copy-clipboard", "c", false, "copy the generated secret to the clipboard instead of printing it")

	return cmd
}
