// Package cli wires the vaultx command tree: flag parsing, vault
// open/close lifecycle, and per-command option structs, following the
// Complete/Validate/Run pattern from genericclioptions.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"slices"

	"github.com/spf13/cobra"

	"github.com/vaultx/vaultx/clierror"
	"github.com/vaultx/vaultx/clipboard"
	"github.com/vaultx/vaultx/container"
	"github.com/vaultx/vaultx/genericclioptions"
	"github.com/vaultx/vaultx/input"
	"github.com/vaultx/vaultx/sshsvc"
	"github.com/vaultx/vaultx/vault"
)

// Version is set at build time via -ldflags "-X github.com/vaultx/vaultx/cli.Version=...".
var Version = "dev"

// preRunSkipCommands lists full command paths that never require an
// existing, unlockable vault: they either create one ("vaultx init"), or
// don't touch one at all (config, generate, version). Full paths are used
// rather than leaf names because "vaultx ssh init" shares its leaf name
// with the vault-creation "vaultx init" but must open the vault like any
// other ssh subcommand.
var preRunSkipCommands = []string{"vaultx init", "vaultx config", "vaultx generate", "vaultx version"}

// postRunSkipCommands mirrors preRunSkipCommands: there is nothing to
// close for a vault that was never opened.
var postRunSkipCommands = preRunSkipCommands

// VaultOptions resolves the container path and holds the open Vault
// handle for the duration of one command invocation.
type VaultOptions struct {
	Path  string
	Vault *vault.Vault
}

var _ genericclioptions.BaseOptions = &VaultOptions{}

// Complete fills in the default container path when none was given on
// the command line.
func (o *VaultOptions) Complete() error {
	if len(o.Path) == 0 {
		p, _, err := container.DefaultPaths()
		if err != nil {
			return err
		}

		o.Path = p
	}

	return nil
}

// Validate checks that a vault file exists at Path before an Open-style
// command proceeds.
func (o *VaultOptions) Validate() error {
	if _, err := os.Stat(o.Path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("no vault found at %q: run `vaultx init` first", o.Path)
		}

		return fmt.Errorf("stat vault file: %w", err)
	}

	return nil
}

// Open prompts for the vault password and unlocks the container. The
// prompt goes to stderr so that stdout carries only the command's output.
func (o *VaultOptions) Open(ctx context.Context, io *genericclioptions.StdioOptions) error {
	password, err := input.PromptReadSecure(os.Stderr, int(io.In.Fd()), "Password for %q: ", o.Path)
	if err != nil {
		return fmt.Errorf("prompt password: %w", err)
	}

	defer zero(password)

	v, err := vault.Open(ctx, o.Path, password)
	if err != nil {
		return err
	}

	o.Vault = v

	// Best-effort recovery of ephemeral SSH export files left behind by a
	// process that crashed or was killed before its deferred Close ran.
	// ExportPrivateKey defaults to os.TempDir() when given "", so the sweep
	// targets the same directory.
	sshsvc.SweepStale("")

	return nil
}

func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// DefaultVltOptions is the top-level option struct shared by every
// subcommand, embedding StdioOptions for piped-input detection and
// carrying the resolved vault and config options.
type DefaultVltOptions struct {
	*genericclioptions.StdioOptions

	vaultOptions  *VaultOptions
	configOptions *ConfigOptions
}

var _ genericclioptions.CmdOptions = &DefaultVltOptions{}

// NewDefaultVltOptions constructs the shared option bundle used by the
// root command's pre/post-run hooks.
func NewDefaultVltOptions(iostreams *genericclioptions.IOStreams, vaultOptions *VaultOptions) *DefaultVltOptions {
	return &DefaultVltOptions{
		StdioOptions:  &genericclioptions.StdioOptions{IOStreams: iostreams},
		vaultOptions:  vaultOptions,
		configOptions: &ConfigOptions{},
	}
}

func (o *DefaultVltOptions) Complete() error {
	if err := o.StdioOptions.Complete(); err != nil {
		return err
	}

	if err := o.configOptions.Complete(); err != nil {
		return err
	}

	if o.configOptions.cfg.Clipboard != nil {
		applyClipboardConfig(*o.configOptions.cfg.Clipboard)
	}

	if len(o.configOptions.cfg.Vault.Path) > 0 && len(o.vaultOptions.Path) == 0 {
		o.vaultOptions.Path = o.configOptions.cfg.Vault.Path
	}

	return o.vaultOptions.Complete()
}

func (o *DefaultVltOptions) Validate() error {
	return o.StdioOptions.Validate()
}

func (o *DefaultVltOptions) Run() error {
	return nil
}

func applyClipboardConfig(c ClipboardConfig) {
	var opts []clipboard.Opt

	if len(c.CopyCmd) > 0 {
		opts = append(opts, clipboard.WithCopyCmd(c.CopyCmd))
	}

	if len(c.PasteCmd) > 0 {
		opts = append(opts, clipboard.WithPasteCmd(c.PasteCmd))
	}

	if len(opts) > 0 {
		clipboard.SetDefault(clipboard.New(opts...))
	}
}

// NewDefaultVaultxCommand builds the root `vaultx` command and its full
// subcommand tree.
func NewDefaultVaultxCommand(iostreams *genericclioptions.IOStreams, args []string) *cobra.Command {
	o := NewDefaultVltOptions(iostreams, &VaultOptions{})

	cmd := &cobra.Command{
		Use:   "vaultx",
		Short: "Local-first encrypted developer vault",
		Long: `vaultx stores project-scoped secrets and SSH identities in a single
authenticated-encrypted container file on disk.

Environment Variables:
    VAULTX_HOME: overrides the default vault directory ("~/.vaultx").
    VAULTX_CONFIG: overrides the default config file path ("~/.vaultx.toml").`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := genericclioptions.ExecuteCommand(o); err != nil {
				return err
			}

			if slices.Contains(preRunSkipCommands, cmd.CommandPath()) {
				return nil
			}

			if err := o.vaultOptions.Validate(); err != nil {
				return err
			}

			return o.vaultOptions.Open(cmd.Context(), o.StdioOptions)
		},
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			if slices.Contains(postRunSkipCommands, cmd.CommandPath()) {
				return nil
			}

			return o.vaultOptions.Vault.Close()
		},
	}

	cmd.SetArgs(args)
	cmd.SetContext(context.Background())

	cmd.PersistentFlags().BoolVarP(&o.Verbose, "verbose", "v", false, "enable verbose output")
	cmd.PersistentFlags().StringVarP(&o.vaultOptions.Path, "file", "f", "",
		"vault container file path (default: ~/.vaultx/vault.vx)")
	cmd.PersistentFlags().StringVar(&o.configOptions.userPath, "config", "",
		"configuration file path (default: ~/.vaultx.toml)")

	cmd.AddCommand(newVersionCommand(o))
	cmd.AddCommand(newConfigCommand(o))
	cmd.AddCommand(newGenerateCommand(o))
	cmd.AddCommand(newInitCommand(o))
	cmd.AddCommand(newAddCommand(o))
	cmd.AddCommand(newGetCommand(o))
	cmd.AddCommand(newListCommand(o))
	cmd.AddCommand(newSecretsCommand(o))
	cmd.AddCommand(newAuditCommand(o))
	cmd.AddCommand(newSSHCommand(o))

	return cmd
}

// Execute runs the vaultx command tree with os.Args, exiting the process
// with the mapped error code on failure.
func Execute() {
	cmd := NewDefaultVaultxCommand(genericclioptions.NewDefaultIOStreams(), os.Args[1:])

	if err := cmd.Execute(); err != nil {
		clierror.Check(err)
	}
}
