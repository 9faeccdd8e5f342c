// Command vaultx is the CLI entry point: project-scoped secrets and SSH
// identities stored in a single authenticated-encrypted container file.
package main

import (
	"github.com/vaultx/vaultx/cli"
)

func main() {
	cli.Execute()
}
