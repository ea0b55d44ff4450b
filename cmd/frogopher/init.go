package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marmos91/frogopher/pkg/config"
)

var (
	initForce bool
	initPath  string
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a sample configuration file",
	Long: `Writes a commented sample configuration with the default frog layout.

The file goes to $XDG_CONFIG_HOME/frogopher/config.yaml unless --path is
given. A path ending in .toml produces TOML instead of YAML.`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVarP(&initForce, "force", "f", false, "Overwrite an existing configuration file")
	initCmd.Flags().StringVarP(&initPath, "path", "p", "", "Write the configuration to this path")
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	path := initPath

	if path == "" {
		var err error
		if path, err = config.InitConfig(initForce); err != nil {
			return err
		}
	} else if err := config.InitConfigToPath(path, initForce); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Configuration written to %s\n", path)
	fmt.Fprintln(out, "Set tips.api_key (or FROGOPHER_TIPS_API_KEY), then run 'frogopher start'.")
	return nil
}
