package cli

import (
	"fmt"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"

	"github.com/vaultx/vaultx/genericclioptions"
)

// ConfigOptions loads the TOML configuration file and exposes the
// resolved values other option structs need (vault path, clipboard
// commands). It is completed once per invocation, before any
// vault-opening logic runs.
type ConfigOptions struct {
	userPath string // value of --config, empty unless set explicitly.

	cfg *FileConfig
}

var _ genericclioptions.BaseOptions = &ConfigOptions{}

func (o *ConfigOptions) Complete() error {
	cfg, err := LoadFileConfig(o.userPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	o.cfg = cfg

	return nil
}

func (o *ConfigOptions) Validate() error {
	return nil
}

// configShowOptions implements `vaultx config` itself: printing the
// resolved, effective configuration.
type configShowOptions struct {
	*DefaultVltOptions
}

var _ genericclioptions.CmdOptions = &configShowOptions{}

func (o *configShowOptions) Complete() error { return o.DefaultVltOptions.Complete() }
func (o *configShowOptions) Validate() error { return nil }

func (o *configShowOptions) Run() error {
	out, err := toml.Marshal(o.configOptions.cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	o.Printf("%s", out)

	return nil
}

func newConfigCommand(defaults *DefaultVltOptions) *cobra.Command {
	o := &configShowOptions{DefaultVltOptions: defaults}

	return &cobra.Command{
		Use:   "config",
		Short: "Show the effective vaultx configuration",
		RunE: func(*cobra.Command, []string) error {
			return genericclioptions.ExecuteCommand(o)
		},
	}
}
