// Command smp-cli is a small manual-testing client for an SMP broker:
// create a queue, send a message, or receive and acknowledge one.
package main

import (
	"fmt"
	"os"

	"github.com/carlmjohnson/versioninfo"
	"github.com/spf13/cobra"

	"github.com/simplexmq/smp-client-go/internal/instrument"
)

func newRootCommand() *cobra.Command {
	var configFile, metricsAddr string

	cmd := &cobra.Command{
		Use:   "smp-cli",
		Short: "Manual SMP broker client",
		Long: `smp-cli drives an SMP client against a configured broker for manual
testing: create a queue, send a message on it, or subscribe and receive.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if metricsAddr != "" {
				instrument.Init(metricsAddr)
			}
		},
	}
	cmd.PersistentFlags().StringVarP(&configFile, "config", "c", "",
		"path to the client configuration file (TOML format)")
	cmd.PersistentFlags().StringVar(&metricsAddr, "metrics-addr", "",
		"if set, serve Prometheus metrics on this address (requires a -tags prometheus build)")

	cmd.AddCommand(newQueueCommand(&configFile))
	cmd.AddCommand(newSendCommand(&configFile))
	cmd.AddCommand(newRecvCommand(&configFile))

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println(versioninfo.Short())
			return nil
		},
	}
	cmd.AddCommand(versionCmd)

	return cmd
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
