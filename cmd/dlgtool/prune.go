package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/chazu/colloquy/pkg/dialog"
	"github.com/chazu/colloquy/pkg/dlg"
)

var pruneDryRun bool

var pruneCmd = &cobra.Command{
	Use:   "prune <file>",
	Short: "Remove orphaned nodes and dangling pointers, then write back",
	Long: `Drops every node unreachable from the start list and every pointer
whose target no longer exists. The orphan container and everything
parked under it are left alone.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		d, err := dlg.Load(path)
		if err != nil {
			return err
		}

		removed := dialog.RemoveOrphanedNodes(d)
		dropped := dialog.RemoveOrphanedPointers(d)
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %d orphaned nodes, %d dangling pointers\n",
			path, len(removed), dropped)

		if pruneDryRun {
			return nil
		}
		if len(removed) == 0 && dropped == 0 {
			return nil
		}
		return dlg.Save(d, path)
	},
}

func init() {
	pruneCmd.Flags().BoolVarP(&pruneDryRun, "dry-run", "n", false, "report only, do not write")
	rootCmd.AddCommand(pruneCmd)
}
