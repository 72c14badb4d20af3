package main

import (
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "dlgtool",
	Short: "Inspect and edit conversation files",
	Long: `dlgtool works with branching conversation files: NPC entries, player
replies, condition scripts and the links that let branches share lines.

Configuration is read from ~/.dlgtool.yaml and DLGTOOL_* environment
variables; flags win over both.`,
	SilenceUsage: true,
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ~/.dlgtool.yaml)")
	rootCmd.PersistentFlags().String("log-level", "warn", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().Uint32("language", 0, "preferred language id for displayed text")
	viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("language", rootCmd.PersistentFlags().Lookup("language"))
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
			viper.SetConfigType("yaml")
			viper.SetConfigName(".dlgtool")
		}
	}
	viper.SetEnvPrefix("DLGTOOL")
	viper.AutomaticEnv()
	// Missing config file is fine; everything has a default.
	_ = viper.ReadInConfig()
}

// newLogger builds the slog logger commands hand to the session layer.
func newLogger() *slog.Logger {
	var level slog.Level
	switch strings.ToLower(viper.GetString("log_level")) {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelWarn
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// preferredLanguage returns the configured language id for text display.
func preferredLanguage() uint32 {
	return viper.GetUint32("language")
}
