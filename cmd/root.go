// Package cmd assembles the framix command line interface.
package cmd

import (
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	componentscmd "github.com/jlammi/framix/cmd/components"
	"github.com/jlammi/framix/cmd/filterdump"
	"github.com/jlammi/framix/cmd/run"
	"github.com/jlammi/framix/cmd/support"
	"github.com/jlammi/framix/cmd/validate"
	"github.com/jlammi/framix/internal/buildinfo"
	"github.com/jlammi/framix/internal/conf"
	"github.com/jlammi/framix/internal/logging"
)

// RootCommand creates and returns the root command.
func RootCommand(settings *conf.Settings, build *buildinfo.Context) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "framix",
		Short:   "framix dataflow engine for picture processing experiments",
		Version: build.Version,
	}

	setupFlags(rootCmd, settings)

	rootCmd.AddCommand(
		run.Command(settings),
		validate.Command(settings),
		componentscmd.Command(),
		filterdump.Command(),
		support.Command(settings, build),
	)

	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		if settings.Debug {
			logging.SetLevel(slog.LevelDebug)
		}
	}

	return rootCmd
}

func setupFlags(rootCmd *cobra.Command, settings *conf.Settings) {
	rootCmd.PersistentFlags().BoolVarP(&settings.Debug, "debug", "d", viper.GetBool("debug"), "Enable debug output")
	_ = viper.BindPFlags(rootCmd.PersistentFlags())
}
