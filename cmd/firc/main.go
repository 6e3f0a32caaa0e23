// Command firc is the fir middle-end CLI.
//
// Usage:
//
//	firc schedule [transform]   # print the computed pass order
//	firc conf <summary.json>    # render a memory summary as a conf file
//	firc version                # print version
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hwgo/fir"
	"github.com/hwgo/fir/memlower"
)

const fircVersion = "0.1.0-dev"

func main() {
	if err := rootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCommand() *cobra.Command {
	var verbose bool

	root := &cobra.Command{
		Use:           "firc",
		Short:         "fir circuit transformation middle-end",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log pass execution")

	root.AddCommand(
		scheduleCommand(&verbose),
		confCommand(),
		versionCommand(),
	)
	return root
}

func logger(verbose bool) (*zap.Logger, error) {
	if !verbose {
		return zap.NewNop(), nil
	}
	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	return cfg.Build()
}

func scheduleCommand(verbose *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "schedule [transform]",
		Short: "print the dependency-resolved execution order for a transform",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			target := memlower.Name
			if len(args) == 1 {
				target = args[0]
			}

			log, err := logger(*verbose)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			runner, err := fir.NewRunner(log)
			if err != nil {
				return err
			}
			sorted, err := runner.Schedule(target)
			if err != nil {
				return err
			}
			for i, t := range sorted {
				fmt.Fprintf(cmd.OutOrStdout(), "%d. %s\n", i+1, t.Name())
			}
			return nil
		},
	}
}

func versionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "print version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "firc version %s\n", fircVersion)
		},
	}
}
