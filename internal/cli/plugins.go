package cli

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/sqlpro/sqlpro/internal/config"
	"github.com/sqlpro/sqlpro/pkg/plugin"
)

var pluginsCmd = &cobra.Command{
	Use:   "plugins",
	Short: "Inspect and validate plugins",
}

var pluginsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List plugins found in the configured directories",
	RunE:  runPluginsList,
}

var pluginsValidateCmd = &cobra.Command{
	Use:   "validate <manifest>",
	Short: "Validate a plugin manifest file",
	Long: `Validate a plugin manifest file against the manifest schema.
All violations are reported in one pass as a numbered list.`,
	Args: cobra.ExactArgs(1),
	RunE: runPluginsValidate,
}

func init() {
	pluginsCmd.AddCommand(pluginsListCmd)
	pluginsCmd.AddCommand(pluginsValidateCmd)
	rootCmd.AddCommand(pluginsCmd)
}

func runPluginsList(cmd *cobra.Command, args []string) error {
	cfg, err := config.NewLoader(cfgFile).Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	quiet := zerolog.New(os.Stderr).Level(zerolog.Disabled)
	discovery := plugin.NewDiscovery(quiet)
	validator := plugin.NewValidator(quiet)

	discovered, err := discovery.DiscoverPlugins(plugin.DiscoveryConfig{
		BuiltinDir: cfg.Plugins.BuiltinDir,
		UserDir:    cfg.Plugins.UserDir,
		ExtraDirs:  cfg.Plugins.ExtraDirs,
	})
	if err != nil {
		return err
	}

	if len(discovered) == 0 {
		cmd.Println("No plugins found")
		return nil
	}

	for _, p := range discovered {
		result, err := validator.ValidateFile(p.ManifestPath)
		switch {
		case err != nil:
			cmd.Printf("%-30s %-10s unreadable: %v\n", p.ID, p.Source, err)
		case !result.Valid:
			cmd.Printf("%-30s %-10s invalid (%d errors)\n", p.ID, p.Source, len(result.Errors))
		default:
			m := result.Manifest
			cmd.Printf("%-30s %-10s %s %s\n", m.ID, p.Source, m.Version, m.Name)
		}
	}

	return nil
}

func runPluginsValidate(cmd *cobra.Command, args []string) error {
	quiet := zerolog.New(os.Stderr).Level(zerolog.Disabled)
	validator := plugin.NewValidator(quiet)

	result, err := validator.ValidateFile(args[0])
	if err != nil {
		return err
	}

	if !result.Valid {
		cmd.Printf("Manifest is invalid:\n%s", plugin.FormatErrors(result.Errors))
		return fmt.Errorf("%d validation error(s)", len(result.Errors))
	}

	cmd.Printf("Manifest is valid: %s@%s\n", result.Manifest.ID, result.Manifest.Version)
	return nil
}
