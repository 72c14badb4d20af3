package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/chazu/colloquy/pkg/dlg"
	"github.com/chazu/colloquy/pkg/gff"
)

var exportOut string

var exportCmd = &cobra.Command{
	Use:   "export <file>",
	Short: "Convert a binary conversation file to its YAML text form",
	Long: `The text form carries the same structure as the binary container and
round-trips through import. Use it for diffs and code review; "-o -"
writes to stdout.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		f, err := gff.Decode(data)
		if err != nil {
			return fmt.Errorf("decode %s: %w", args[0], err)
		}
		text, err := gff.EncodeText(f)
		if err != nil {
			return err
		}

		out := exportOut
		if out == "" {
			out = strings.TrimSuffix(args[0], ".dlg") + ".yaml"
		}
		if out == "-" {
			_, err = cmd.OutOrStdout().Write(text)
			return err
		}
		return os.WriteFile(out, text, 0o644)
	},
}

var importOut string

var importCmd = &cobra.Command{
	Use:   "import <file.yaml>",
	Short: "Convert a YAML text form back to a binary conversation file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		f, err := gff.DecodeText(data)
		if err != nil {
			return fmt.Errorf("decode %s: %w", args[0], err)
		}
		if f.FileType != dlg.FileType {
			return fmt.Errorf("%s: file type %q is not a conversation", args[0], f.FileType)
		}
		// Through the graph and back: the import rejects structural
		// corruption the text decoder cannot see, and the save repairs
		// stale indices.
		d, err := dlg.FromContainer(f.Root)
		if err != nil {
			return err
		}

		out := importOut
		if out == "" {
			out = strings.TrimSuffix(args[0], ".yaml") + ".dlg"
		}
		return dlg.Save(d, out)
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "output path (default <file>.yaml, - for stdout)")
	importCmd.Flags().StringVarP(&importOut, "out", "o", "", "output path (default <file>.dlg)")
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(importCmd)
}
