// Package support implements the "framix support" subcommand: dump
// version, configuration and runtime diagnostics for bug reports.
package support

import (
	"fmt"
	"runtime"

	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/jlammi/framix/internal/buildinfo"
	"github.com/jlammi/framix/internal/conf"
)

// Command creates the support command.
func Command(settings *conf.Settings, build *buildinfo.Context) *cobra.Command {
	return &cobra.Command{
		Use:   "support",
		Short: "Print version, configuration and system diagnostics",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Printf("framix %s (built %s, %s)\n", build.Version, build.BuildDate, build.GoVersion)
			fmt.Printf("platform: %s/%s, %d cpus\n\n", runtime.GOOS, runtime.GOARCH, runtime.NumCPU())

			if info, err := host.Info(); err == nil {
				fmt.Printf("host: %s %s (kernel %s), up %d seconds\n",
					info.Platform, info.PlatformVersion, info.KernelVersion, info.Uptime)
			}
			if vm, err := mem.VirtualMemory(); err == nil {
				fmt.Printf("memory: %d MiB total, %.1f%% used\n\n",
					vm.Total/(1024*1024), vm.UsedPercent)
			}

			// Settings dump; the sentry DSN is a credential, keep it out.
			redacted := *settings
			redacted.Sentry.DSN = ""
			data, err := yaml.Marshal(&redacted)
			if err != nil {
				return err
			}
			fmt.Println("configuration:")
			fmt.Println(string(data))
			return nil
		},
	}
}
