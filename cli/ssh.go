package cli

import (
	"errors"
	"fmt"
	"os"
	"os/exec"

	"github.com/spf13/cobra"

	"github.com/vaultx/vaultx/genericclioptions"
	"github.com/vaultx/vaultx/sshsvc"
)

// SSHInitOptions implements `vaultx ssh init <identity>`.
type SSHInitOptions struct {
	*DefaultVltOptions

	name    string
	comment string
}

var _ genericclioptions.CmdOptions = &SSHInitOptions{}

func (o *SSHInitOptions) Complete() error { return o.DefaultVltOptions.Complete() }

func (o *SSHInitOptions) Validate() error {
	if len(o.name) == 0 {
		return errors.New("ssh init: an identity name is required")
	}

	return nil
}

func (o *SSHInitOptions) Run() error {
	pub, err := o.vaultOptions.Vault.SshCreate(o.name, o.comment)
	if err != nil {
		return err
	}

	o.Printf("%s\n", pub)

	return nil
}

// SSHConnectOptions implements
// `vaultx ssh connect <identity> <user@host> [args...]`.
type SSHConnectOptions struct {
	*DefaultVltOptions

	identity string
	dest     string
	extra    []string
}

var _ genericclioptions.CmdOptions = &SSHConnectOptions{}

func (o *SSHConnectOptions) Complete() error { return o.DefaultVltOptions.Complete() }

func (o *SSHConnectOptions) Validate() error {
	if len(o.identity) == 0 || len(o.dest) == 0 {
		return errors.New("ssh connect: an identity name and destination are required")
	}

	return nil
}

// Run exports the identity's private key to a scoped temp file, invokes
// the external ssh client against it, and exits the process with the
// client's exact exit status once it returns — the one command whose
// contract requires bypassing the normal error -> exit-code mapping.
func (o *SSHConnectOptions) Run() error {
	exp, err := sshsvc.ExportPrivateKey(o.vaultOptions.Vault, o.identity, "")
	if err != nil {
		return err
	}

	defer exp.Close()

	binary, args := o.sshInvocation()

	args = append(args, "-i", exp.Path, o.dest)
	args = append(args, o.extra...)

	//nolint:gosec // G204: identity/destination come from the local operator's own command line.
	cmd := exec.Command(binary, args...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	runErr := cmd.Run()

	if err := exp.Close(); err != nil {
		o.Debugf("close ssh export: %v\n", err)
	}

	var exitErr *exec.ExitError
	if errors.As(runErr, &exitErr) {
		//nolint:revive // Intentional: propagate the external client's exact exit status.
		os.Exit(exitErr.ExitCode())
	}

	if runErr != nil {
		return fmt.Errorf("ssh connect: %w", runErr)
	}

	return nil
}

func (o *SSHConnectOptions) sshInvocation() (binary string, args []string) {
	cfg := o.configOptions.cfg.SSH

	binary = "ssh"
	if cfg != nil && len(cfg.Binary) > 0 {
		binary = cfg.Binary
	}

	if cfg != nil {
		args = append(args, cfg.Args...)
	}

	return binary, args
}

func newSSHCommand(defaults *DefaultVltOptions) *cobra.Command {
	initOpts := &SSHInitOptions{DefaultVltOptions: defaults}
	connectOpts := &SSHConnectOptions{DefaultVltOptions: defaults}

	root := &cobra.Command{
		Use:   "ssh",
		Short: "Manage SSH identities stored in the vault",
	}

	initCmd := &cobra.Command{
		Use:   "init <identity>",
		Short: "Create a new SSH identity",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			initOpts.name = args[0]
			return genericclioptions.ExecuteCommand(initOpts)
		},
	}
	initCmd.Flags().StringVar(&initOpts.comment, "comment", "", "comment embedded in the generated public key")

	connectCmd := &cobra.Command{
		Use:                "connect <identity> <user@host> [args...]",
		Short:              "Export the identity's key ephemerally and connect via the external ssh client",
		Args:               cobra.MinimumNArgs(2),
		DisableFlagParsing: true, // trailing args are the external ssh client's own flags, not ours.
		RunE: func(_ *cobra.Command, args []string) error {
			connectOpts.identity, connectOpts.dest = args[0], args[1]
			connectOpts.extra = args[2:]

			return genericclioptions.ExecuteCommand(connectOpts)
		},
	}

	root.AddCommand(initCmd, connectCmd)

	return root
}
