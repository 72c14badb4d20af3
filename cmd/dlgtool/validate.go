package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/chazu/colloquy/pkg/dialog"
	"github.com/chazu/colloquy/pkg/dlg"
)

var validateCmd = &cobra.Command{
	Use:   "validate <file>",
	Short: "Run structural validation and report findings",
	Long: `Checks stored edge indices against list positions, the entry/reply
alternation, dangling pointer targets and speaker tags on player lines.
Exits non-zero when any error-severity finding is present.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := dlg.Load(args[0])
		if err != nil {
			return err
		}
		findings := dialog.Validate(d)
		for _, f := range findings {
			fmt.Fprintln(cmd.OutOrStdout(), f.Error())
		}
		if dialog.HasErrors(findings) {
			return fmt.Errorf("%s: validation failed", args[0])
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: ok (%d warnings)\n", args[0], len(findings))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
