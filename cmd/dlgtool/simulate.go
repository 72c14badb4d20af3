package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/chazu/colloquy/pkg/dialog"
	"github.com/chazu/colloquy/pkg/dlg"
	"github.com/chazu/colloquy/pkg/script"
)

var simulateMaxSteps int

var simulateCmd = &cobra.Command{
	Use:   "simulate <file>",
	Short: "Walk a conversation and print the path taken",
	Long: `Walks the dialog from its first available start, always taking the
first branch whose condition holds, and prints each line. Condition
scripts are loaded from the scripts directory (--scripts, scripts_dir
in the config, or DLGTOOL_SCRIPTS_DIR); conditions without a registered
script default to true. Links make dialogs cyclic, so the walk stops
after --max-steps lines.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := dlg.Load(args[0])
		if err != nil {
			return err
		}
		eng := script.NewEngine()
		if dir := viper.GetString("scripts_dir"); dir != "" {
			if err := loadScripts(eng, dir); err != nil {
				return err
			}
		}

		lang := preferredLanguage()
		out := cmd.OutOrStdout()
		log := newLogger()

		node, err := firstLive(eng, d.Starts)
		if err != nil {
			return err
		}
		if node == nil {
			fmt.Fprintln(out, "(no start available)")
			return nil
		}
		steps := 0
		for node != nil && steps < simulateMaxSteps {
			printLine(out, node, lang)
			steps++
			node, err = firstLive(eng, node.Pointers)
			if err != nil {
				return err
			}
		}
		if node != nil {
			log.Warn("walk stopped at step limit", "max_steps", simulateMaxSteps)
		}
		fmt.Fprintln(out, "(end)")
		return nil
	},
}

// firstLive returns the target of the first pointer whose condition holds.
func firstLive(eng *script.Engine, ptrs []*dialog.Pointer) (*dialog.Node, error) {
	for _, p := range ptrs {
		ok, err := eng.Eval(p.Condition, p.ConditionParams)
		if err != nil {
			return nil, err
		}
		if ok {
			return p.Target, nil
		}
	}
	return nil, nil
}

func printLine(out io.Writer, n *dialog.Node, lang uint32) {
	text := n.Text.Get(lang)
	if text == "" {
		text = n.Text.First()
	}
	switch {
	case n.Kind == dialog.KindEntry && n.Speaker != "":
		fmt.Fprintf(out, "%s: %s\n", n.Speaker, text)
	case n.Kind == dialog.KindEntry:
		fmt.Fprintf(out, "npc: %s\n", text)
	default:
		fmt.Fprintf(out, "  > %s\n", text)
	}
}

// loadScripts registers every .zy file in dir under its base name.
func loadScripts(eng *script.Engine, dir string) error {
	matches, err := filepath.Glob(filepath.Join(dir, "*.zy"))
	if err != nil {
		return err
	}
	for _, path := range matches {
		src, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("script %s: %w", path, err)
		}
		name := strings.TrimSuffix(filepath.Base(path), ".zy")
		eng.Register(name, string(src))
	}
	return nil
}

func init() {
	simulateCmd.Flags().IntVar(&simulateMaxSteps, "max-steps", 200, "maximum lines before the walk gives up")
	simulateCmd.Flags().String("scripts", "", "directory of condition scripts (*.zy)")
	viper.BindPFlag("scripts_dir", simulateCmd.Flags().Lookup("scripts"))
	rootCmd.AddCommand(simulateCmd)
}
