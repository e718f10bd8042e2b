package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/reqsift/reqsift/internal/logging"
)

var (
	cfgFile string
	verbose bool
)

// rootCmd is the base command when called without subcommands.
var rootCmd = &cobra.Command{
	Use:   "reqsift",
	Short: "reqsift — retrieval-request log summarizer",
	Long: `reqsift sifts the debug log of the getData retrieval service and
summarizes each completed request: start time, datacenter, request id,
retrieved file, final status, and elapsed seconds.`,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default: $HOME/.reqsift.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log skip/abandon diagnostics to stderr")
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigName(".reqsift")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("REQSIFT")
	viper.AutomaticEnv()
	_ = viper.ReadInConfig()
}

// newLogger builds the CLI logger. Warn by default so tolerant skipping
// stays silent; --verbose raises to debug.
func newLogger() (*zap.SugaredLogger, error) {
	level := "warn"
	if verbose {
		level = "debug"
	}
	return logging.New(logging.Config{Level: level, Format: "console"})
}
