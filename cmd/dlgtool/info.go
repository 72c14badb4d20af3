package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/chazu/colloquy/pkg/dialog"
	"github.com/chazu/colloquy/pkg/dlg"
)

var infoCmd = &cobra.Command{
	Use:   "info <file>",
	Short: "Print node, edge and word counts for a conversation file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := dlg.Load(args[0])
		if err != nil {
			return err
		}

		links, edges := 0, 0
		d.EachPointer(func(p *dialog.Pointer) {
			edges++
			if p.IsLink() {
				links++
			}
		})

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "entries:  %d\n", len(d.Entries))
		fmt.Fprintf(out, "replies:  %d\n", len(d.Replies))
		fmt.Fprintf(out, "starts:   %d\n", len(d.Starts))
		fmt.Fprintf(out, "pointers: %d (%d links)\n", edges, links)
		fmt.Fprintf(out, "words:    %d\n", d.ComputeWordCount())
		if d.EndScript != "" {
			fmt.Fprintf(out, "on end:   %s\n", d.EndScript)
		}
		if d.AbortScript != "" {
			fmt.Fprintf(out, "on abort: %s\n", d.AbortScript)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(infoCmd)
}
