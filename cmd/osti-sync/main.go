// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the osti-sync CLI.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/osti-sync/internal/logging"
	"github.com/pdiddy/osti-sync/internal/secrets"
	"github.com/pdiddy/osti-sync/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// credStore resolves OSTI credentials loaded at startup.
var credStore *secrets.Store

var rootCmd = &cobra.Command{
	Use:   "osti-sync",
	Short: "Reconcile PPPL DataSpace datasets with OSTI and submit the missing ones",
	Long: `osti-sync compares the datasets published in the PPPL DataSpace community
with the records OSTI already holds for the lab, prepares an entry form for
the datasets OSTI is missing, and submits the completed form to OSTI E-Link.

The stages are subcommands: scrape, reconcile, form, and post. pipeline runs
scrape, reconcile, and form in one go; watch runs the pipeline on a schedule.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level, _ := cmd.Flags().GetString("log-level")
		format, _ := cmd.Flags().GetString("log-format")
		logging.Configure(level, format)
		log := *logging.Default()
		if path, _ := cmd.Flags().GetString("log-file"); path != "" {
			f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
			if err != nil {
				return fmt.Errorf("opening log file: %w", err)
			}
			log = logging.New(f)
		}
		cmd.SetContext(logging.WithLogger(cmd.Context(), log))

		envFile, _ := cmd.Flags().GetString("env-file")
		if err := secrets.LoadDotEnv(envFile); err != nil {
			return err
		}
		files, err := secrets.Load(".secrets/")
		if err != nil {
			return err
		}
		credStore, err = secrets.NewStore(files)
		if err != nil {
			return err
		}
		if keys := credStore.Keys(); len(keys) > 0 {
			log.Debug().Strs("keys", keys).Msg("loaded secrets")
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./osti-sync.yaml or ~/.config/osti-sync/osti-sync.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error (default from LOG_LEVEL or info)")
	rootCmd.PersistentFlags().String("log-format", "", "log format: console or json (default: console on a terminal)")
	rootCmd.PersistentFlags().String("log-file", "", "append JSON logs to this file instead of stderr")
	rootCmd.PersistentFlags().String("env-file", ".env", "dotenv file with OSTI_* credentials")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("osti-sync")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "osti-sync"))
		}
	}

	viper.SetEnvPrefix("OSTI_SYNC")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// loadConfig overlays the config file onto the PPPL defaults.
func loadConfig() (types.Config, error) {
	cfg := types.DefaultConfig()
	if err := viper.Unmarshal(&cfg); err != nil {
		return types.Config{}, fmt.Errorf("decoding config: %w", err)
	}
	return cfg, nil
}

// logger returns the command's logger, set up by the root pre-run.
func logger(ctx context.Context) zerolog.Logger {
	return *logging.FromContext(ctx)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
