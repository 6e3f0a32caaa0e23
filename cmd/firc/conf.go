package main

import (
	"encoding/json"
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/hwgo/fir"
	"github.com/hwgo/fir/transform"
)

// confCommand re-renders a memory summary captured as JSON into the conf
// format downstream macro tooling consumes.
func confCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "conf <summary.json>",
		Short: "render a memory summary JSON as a conf file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fs := afero.NewOsFs()
			return runConf(fs, cmd, args[0], output)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: stdout)")
	return cmd
}

func runConf(fs afero.Fs, cmd *cobra.Command, input, output string) error {
	raw, err := afero.ReadFile(fs, input)
	if err != nil {
		return errors.Wrapf(err, "reading %s", input)
	}

	var summaries []transform.MemorySummary
	if err := json.Unmarshal(raw, &summaries); err != nil {
		return errors.Wrapf(err, "parsing %s", input)
	}
	if len(summaries) == 0 {
		return errors.Newf("%s contains no memory summaries", input)
	}

	state := transform.CircuitState{
		Annotations: []transform.Annotation{
			transform.MemorySummaryAnnotation{Summaries: summaries},
		},
	}
	if output != "" {
		return fir.WriteConf(fs, output, state)
	}
	fmt.Fprint(cmd.OutOrStdout(), fir.ConfString(state))
	return nil
}
