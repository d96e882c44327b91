// Command nalssi looks up current weather from the terminal.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/spf13/cobra"

	"github.com/mrchypark/nalssi"
)

func main() {
	root := &cobra.Command{
		Use:   "nalssi",
		Short: "OpenWeather lookup tool",
	}
	root.AddCommand(checkCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func checkCmd() *cobra.Command {
	var (
		unit    string
		timeout time.Duration
		verbose bool
	)

	cmd := &cobra.Command{
		Use:   "check <location>",
		Short: "Print current weather for a location as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := log.NewNopLogger()
			if verbose {
				logger = level.NewFilter(log.NewLogfmtLogger(os.Stderr), level.AllowDebug())
			}

			// The credential is read here, once, and handed to the
			// client explicitly.
			client, err := nalssi.New(logger,
				nalssi.WithAPIKey(os.Getenv(nalssi.EnvAPIKey)),
				nalssi.WithWaitTimeout(timeout),
			)
			if err != nil {
				return err
			}
			defer client.Close()

			fmt.Fprintln(cmd.OutOrStdout(), client.CheckWeather(cmd.Context(), args[0], unit))
			return nil
		},
	}
	cmd.Flags().StringVarP(&unit, "unit", "u", "metric", "measurement unit (metric|imperial)")
	cmd.Flags().DurationVar(&timeout, "timeout", nalssi.DefaultWaitTimeout, "transport wait timeout (0 waits without bound)")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "log pipeline details to stderr")
	return cmd
}
