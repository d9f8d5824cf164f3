package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fakeyudi/tsync/internal/config"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Configure tsync (re-run anytime to edit settings)",
	// Bypass the normal PersistentPreRunE so setup works before a config exists.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSetup(cmd)
	},
}

// runSetup runs the interactive setup wizard and saves the global config.
func runSetup(cmd *cobra.Command) error {
	existing, err := config.LoadGlobal()
	if err != nil {
		d := config.Defaults()
		existing = &d
	}

	c, err := config.RunSetup(cmd.InOrStdin(), cmd.OutOrStdout(), *existing)
	if err != nil {
		return fmt.Errorf("setup cancelled: %w", err)
	}
	if _, err := c.Codec(); err != nil {
		return err
	}

	if err := config.SaveGlobal(c); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "  ✓ Config saved.")
	fmt.Fprintln(out, "  Setup complete. Run 'tsync watch <youtube-url>' to start.")
	fmt.Fprintln(out)
	return nil
}

func init() {
	rootCmd.AddCommand(setupCmd)
}
