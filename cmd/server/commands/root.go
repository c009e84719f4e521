package commands

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"ecoloop/internal/config"
)

var (
	// Global flags
	storeDriver string

	cfg *config.Config
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "ecoloop",
	Short: "ecoloop - recycling marketplace backend",
	Long: `ecoloop serves the recycling marketplace API: waste, initiative and forum
posts, pickup scheduling, points and badges, messaging and notifications.

Configuration comes from the environment (and an optional .env file);
flags override it.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if storeDriver != "" {
			if err := os.Setenv("STORE_DRIVER", storeDriver); err != nil {
				return err
			}
		}
		loaded, err := config.Load()
		if err != nil {
			return err
		}
		cfg = loaded
		setupLogging(cfg)
		return nil
	},
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&storeDriver, "store", "", "Store backend: postgres, mongo or memory (overrides STORE_DRIVER)")
}

// setupLogging uses the console writer in debug mode and JSON otherwise.
func setupLogging(c *config.Config) {
	if c.GinMode != "release" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
	level, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	zerolog.DefaultContextLogger = &log.Logger
}
