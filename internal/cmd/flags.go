// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package cmd

import (
	"github.com/spf13/cobra"

	"github.com/mia-platform/mlbridge/internal/config"
)

const (
	dataFlagName  = "data"
	dataFlagShort = "d"
	dataFlagUsage = "Path to a file or directory of experiment data to log. Can be specified multiple times."

	inputFlagName  = "input"
	inputFlagShort = "i"
	inputFlagUsage = "Path to the tabular input dataset of the run (.json, .csv or .parquet)"

	paramFlagName  = "param"
	paramFlagShort = "p"
	paramFlagUsage = "Parameter to log on the run as KEY=VALUE, numeric values are logged as metrics. Can be specified multiple times."

	runNameFlagName  = "run-name"
	runNameFlagUsage = "Name of the run, overrides the configured one. A timestamped name is generated when unset."
)

// flags holds the flags for the "log" command.
type flags struct {
	dataPaths []string
	inputPath string
	params    []string
	runName   string
}

// addFlags adds the cli flags to the cobra command.
func (f *flags) addFlags(cmd *cobra.Command) {
	cmd.Flags().StringArrayVarP(&f.dataPaths, dataFlagName, dataFlagShort, nil, dataFlagUsage)
	cmd.Flags().StringVarP(&f.inputPath, inputFlagName, inputFlagShort, "", inputFlagUsage)
	cmd.Flags().StringArrayVarP(&f.params, paramFlagName, paramFlagShort, nil, paramFlagUsage)
	cmd.Flags().StringVar(&f.runName, runNameFlagName, "", runNameFlagUsage)
}

// toOptions converts the log flags to options, expanding data directories.
// The provider is owned by the root command and shared across the tree.
func (f *flags) toOptions(provider *config.Provider) (*options, error) {
	dataPaths, err := collectPaths(f.dataPaths)
	if err != nil {
		return nil, err
	}

	params, err := parseParams(f.params)
	if err != nil {
		return nil, err
	}

	return &options{
		dataPaths:     dataPaths,
		inputPath:     f.inputPath,
		params:        params,
		runName:       f.runName,
		provider:      provider,
		clientBuilder: trackingClientBuilder,
	}, nil
}
