package main

import (
	"github.com/spf13/cobra"
)

// Set at build time with -ldflags "-X main.version=... -X main.commit=...".
var (
	version = "dev"
	commit  = "none"
)

var rootCmd = &cobra.Command{
	Use:   "frogopher",
	Short: "frogopher - FROG TIPS OVER GOPHER",
	Long: `frogopher serves frog tips, documents and links over the Gopher protocol.

Selectors are answered by an ordered list of sources configured in
$XDG_CONFIG_HOME/frogopher/config.yaml (see "frogopher init").`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.SetVersionTemplate("frogopher {{.Version}}\n")
}
