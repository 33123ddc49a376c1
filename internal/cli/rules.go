package cli

import (
	"fmt"
	"os"

	"github.com/ppiankov/itinera/internal/rules"
	"github.com/spf13/cobra"
)

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Inspect and validate booking rule files",
	Long: `Rules hold the vendor aliases, category signals, region lists and the
per-category field decisions (pricing labels, commission percentages, fee screen texts).

A file set with rules.file (or ITINERA_RULES_FILE) replaces the built-in rules.`,
}

var rulesShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the active rule document",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		data := rules.DefaultYAML()
		if cfg.Rules.File != "" {
			if data, err = os.ReadFile(cfg.Rules.File); err != nil {
				return fmt.Errorf("read rules: %w", err)
			}
		}
		_, err = cmd.OutOrStdout().Write(data)
		return err
	},
}

var rulesValidateCmd = &cobra.Command{
	Use:   "validate <file>",
	Short: "Check a rule document for errors",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := rules.Load(args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ %s: %d vendors, %d resellers, %d signal sets\n",
			args[0], len(r.Vendors), len(r.Resellers), len(r.Signals))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(rulesCmd)
	rulesCmd.AddCommand(rulesShowCmd)
	rulesCmd.AddCommand(rulesValidateCmd)
}
