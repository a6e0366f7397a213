// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package cmd

import (
	"github.com/MakeNowJust/heredoc/v2"
	"github.com/spf13/cobra"

	"github.com/mia-platform/mlbridge/internal/config"
)

const (
	logCmdUsage = "log"
	logCmdShort = "record an experiment run on the tracking server"
	logCmdLong  = `Record a single experiment run on the configured tracking server.
	The run is opened on the experiment named by the configured instance,
	tagged with the project metadata, and closed when every piece of data
	has been submitted.

	Parameters are logged first, then the input dataset, then the data
	files: JSON files are also recorded as tables, template files as plain
	text artifacts, anything else as raw artifacts.`

	logCmdExample = `# Log a batch of evaluation results with the dataset that produced them
	mlbridge log --input datasets/eval.parquet --data results/ --param model=gpt-4o`
)

// LogCmd return the "log" cli command for recording an experiment run. The
// provider function returns the settings provider owned by the root command;
// it is called after flag parsing.
func LogCmd(provider func() *config.Provider) *cobra.Command {
	flags := &flags{}
	cmd := &cobra.Command{
		Use:     logCmdUsage,
		Short:   heredoc.Doc(logCmdShort),
		Long:    heredoc.Doc(logCmdLong),
		Example: heredoc.Doc(logCmdExample),

		SilenceErrors: true,
		SilenceUsage:  true,

		ValidArgsFunction: cobra.NoFileCompletions,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts, err := flags.toOptions(provider())
			if err != nil {
				return handleError(cmd, err)
			}

			if err := opts.validate(); err != nil {
				return handleError(cmd, err)
			}

			if err := opts.execute(cmd.Context()); err != nil {
				return handleError(cmd, err)
			}

			return nil
		},
	}

	flags.addFlags(cmd)
	return cmd
}
