package cli

import (
	"github.com/spf13/cobra"

	"github.com/sqlpro/sqlpro/pkg/plugin"
)

var (
	cfgFile  string
	logLevel string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "sqlpro",
	Short: "SQLPro - database management with a plugin host",
	Long: `SQLPro is a database management application whose functionality can
be extended by user-installed plugins. Each plugin declares a manifest
that is validated against a strict schema before the plugin is trusted,
and runs against a capability-scoped API gated by its granted permissions.`,
	Version: plugin.HostVersion,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.sqlpro/sqlpro.json)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	// Version template
	rootCmd.SetVersionTemplate(`{{with .Name}}{{printf "%s " .}}{{end}}{{printf "version %s" .Version}}
`)
}

// GetRootCmd returns the root command for testing
func GetRootCmd() *cobra.Command {
	return rootCmd
}
