// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package main

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"strings"
	"sync"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/spf13/cobra"

	internalcmd "github.com/mia-platform/mlbridge/internal/cmd"
	"github.com/mia-platform/mlbridge/internal/config"
	"github.com/mia-platform/mlbridge/internal/info"
	"github.com/mia-platform/mlbridge/internal/logger"
)

var (
	// Version is injected at build time via the Makefile.
	Version = info.Version
	// BuildDate is injected at build time via the Makefile.
	BuildDate = info.BuildDate

	appName      = info.AppName
	versionShort = "Display the " + appName + " version"
)

const (
	appShort = "mlbridge is the CLI tool to record experiment runs on an MLflow tracking server"

	logLevelFlagName      = "log-level"
	logLevelShortFlagName = "v"

	configDirFlagName    = "config-dir"
	configDirFlagUsage   = "directory holding the YAML configuration files"
	defaultConfigDirPath = "."

	dotenvFlagName  = "dotenv"
	dotenvFlagUsage = "path to a dotenv file providing additional settings"

	versionCmdName = "version"
)

var (
	allLoggerLevels = []string{
		logger.TRACE.String(),
		logger.DEBUG.String(),
		logger.INFO.String(),
		logger.WARN.String(),
		logger.ERROR.String(),
	}
	logLevelDefaultValue = logger.INFO.String()
	logLevelFlagUsage    = "set the logging level (possible values: " + strings.Join(allLoggerLevels, ", ") + ")"
)

// rootFlags holds the persistent flags shared across the command tree, and
// owns the settings provider built from them.
type rootFlags struct {
	logLevel   string
	configDir  string
	dotenvPath string

	providerOnce sync.Once
	provider     *config.Provider
}

// addFlags registers the persistent CLI flags on cmd.
func (f *rootFlags) addFlags(cmd *cobra.Command) {
	flags := cmd.PersistentFlags()
	flags.StringVarP(&f.logLevel, logLevelFlagName, logLevelShortFlagName, logLevelDefaultValue, heredoc.Doc(logLevelFlagUsage))
	flags.StringVar(&f.configDir, configDirFlagName, defaultConfigDirPath, configDirFlagUsage)
	flags.StringVar(&f.dotenvPath, dotenvFlagName, "", dotenvFlagUsage)
}

// configProvider returns the settings provider for the process, built once
// from the persistent flags. Must be called after flag parsing.
func (f *rootFlags) configProvider() *config.Provider {
	f.providerOnce.Do(func() {
		opts := []config.ProviderOption{config.WithConfigDir(f.configDir)}
		if f.dotenvPath != "" {
			opts = append(opts, config.WithDotenvPath(f.dotenvPath))
		}
		f.provider = config.NewProvider(opts...)
	})

	return f.provider
}

// resolvedLevel returns the logging level to use: the flag when explicitly
// set, the configured one otherwise.
func (f *rootFlags) resolvedLevel(cmd *cobra.Command) logger.Level {
	if !cmd.Flags().Changed(logLevelFlagName) {
		if globalConfig, err := f.configProvider().GlobalConfig(); err == nil {
			return logger.LevelFromString(globalConfig.LogLevel)
		}
	}

	return logger.LevelFromString(f.logLevel)
}

func main() {
	cmd := rootCmd()
	log := logger.NewLogger(cmd.OutOrStderr())
	ctx := logger.WithContext(context.Background(), log)

	exitCode := 0
	if err := cmd.ExecuteContext(ctx); err != nil {
		exitCode = 1
	}

	os.Exit(exitCode)
}

// rootCmd constructs the root Cobra command with shared configuration.
func rootCmd() *cobra.Command {
	flag := &rootFlags{}

	cmd := &cobra.Command{
		Use:   appName,
		Short: heredoc.Doc(appShort),

		SilenceErrors: true,
		SilenceUsage:  true,

		ValidArgsFunction: cobra.NoFileCompletions,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			log := logger.FromContext(cmd.Context())
			log.SetLevel(flag.resolvedLevel(cmd))
		},
	}

	cmd.SetFlagErrorFunc(func(c *cobra.Command, err error) error {
		c.PrintErrln(err)
		_ = c.Usage()
		return err
	})

	flag.addFlags(cmd)
	cmd.AddCommand(
		internalcmd.LogCmd(flag.configProvider),
		versionCmd(),
	)

	return cmd
}

// versionCmd constructs the Cobra command that prints version information.
func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   versionCmdName,
		Short: heredoc.Doc(versionShort),

		Args: func(cmd *cobra.Command, args []string) error {
			err := cobra.NoArgs(cmd, args)
			if err != nil {
				cmd.PrintErrln(err)
				_ = cmd.Usage()
			}

			return err
		},
		ValidArgsFunction: cobra.NoFileCompletions,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), versionString(Version, BuildDate, runtime.Version()))
		},
	}
}

// versionString formats the version metadata for display.
func versionString(version, buildDate, runtimeVersion string) string {
	outputString := version
	if buildDate != "" {
		outputString += " (" + buildDate + ")"
	}

	return outputString + ", Go Version: " + runtimeVersion
}
