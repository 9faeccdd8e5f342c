package cli

import (
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/vaultx/vaultx/genericclioptions"
)

// AuditOptions implements `vaultx audit`: summarizes every secret's
// expiry posture and prunes expired ones as a side effect.
type AuditOptions struct {
	*DefaultVltOptions
}

var _ genericclioptions.CmdOptions = &AuditOptions{}

func (o *AuditOptions) Complete() error { return o.DefaultVltOptions.Complete() }
func (o *AuditOptions) Validate() error { return nil }

func (o *AuditOptions) Run() error {
	entries := o.vaultOptions.Vault.Audit()

	if len(entries) == 0 {
		o.Printf("No secrets to audit.\n")
		return nil
	}

	var pruned int

	for _, e := range entries {
		created := time.Unix(e.CreatedAt, 0)

		o.Printf("%s/%s\t%s\tcreated %s\n", e.Project, e.Key, e.Status, humanize.Time(created))

		if e.Status == "expired" {
			pruned++
		}
	}

	if pruned > 0 {
		o.Printf("Pruned %d expired secret(s).\n", pruned)
	}

	return nil
}

func newAuditCommand(defaults *DefaultVltOptions) *cobra.Command {
	o := &AuditOptions{DefaultVltOptions: defaults}

	return &cobra.Command{
		Use:   "audit",
		Short: "Summarize secret expiry posture and prune expired secrets",
		RunE: func(*cobra.Command, []string) error {
			return genericclioptions.ExecuteCommand(o)
		},
	}
}
