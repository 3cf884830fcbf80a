// Package cli implements the feedwatch command-line interface.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/okholm/feedwatch/internal/config"
	"github.com/okholm/feedwatch/internal/logging"
)

var (
	cfgFile    string
	logLevel   string
	jsonOutput bool

	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "feedwatch",
	Short: "Event-feed cache inspector",
	Long: "feedwatch synchronizes activity events for the configured account\n" +
		"and team scopes and prints filtered views of the cached feed.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "version" {
			return nil
		}
		loaded, err := loadConfig()
		if err != nil {
			return err
		}
		if logLevel != "" {
			loaded.Logging.Level = logLevel
		}
		logging.Init(logging.Config{
			Level:        loaded.Logging.Level,
			Format:       loaded.Logging.Format,
			EnableCaller: loaded.Logging.EnableCaller,
		})
		cfg = loaded
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/feedwatch/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override logging level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "emit JSON instead of tables")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func loadConfig() (*config.Config, error) {
	if cfgFile != "" {
		return config.LoadFromFile(cfgFile)
	}
	return config.LoadDefault()
}

// GetConfig returns the loaded configuration, nil before PersistentPreRunE.
func GetConfig() *config.Config {
	return cfg
}

func requireConfig() (*config.Config, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration not loaded")
	}
	return cfg, nil
}
