package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/f-sync/followqueue/internal/actionqueue"
	"github.com/f-sync/followqueue/internal/config"
	"github.com/f-sync/followqueue/internal/navigator"
)

const (
	rootCommandUse               = "followqueue"
	rootCommandShortDescription  = "Work through follower and following exports as action queues"
	analyzeCommandUse            = "analyze"
	analyzeCommandDescription    = "Classify a followers export against a following export"
	statusCommandUse             = "status"
	statusCommandDescription     = "Show progress for every queue"
	listCommandUse               = "list"
	listCommandDescription       = "List queued profiles"
	findCommandUse               = "find QUERY"
	findCommandDescription       = "Fuzzy search profiles by username"
	openCommandUse               = "open PROFILE_ID"
	openCommandDescription       = "Open a profile and mark it visited"
	doneCommandUse               = "done PROFILE_ID"
	doneCommandDescription       = "Mark a profile done"
	undoCommandUse               = "undo PROFILE_ID"
	undoCommandDescription       = "Return a profile to pending"
	batchOpenCommandUse          = "batch-open"
	batchOpenCommandDescription  = "Open the next pending profiles of a queue"
	batchDoneCommandUse          = "batch-done"
	batchDoneCommandDescription  = "Mark every visited profile of a queue done"
	reportCommandUse             = "report"
	reportCommandDescription     = "Write a static HTML report"
	resetCommandUse              = "reset"
	resetCommandDescription      = "Remove the stored analysis"
	flagEnvFileName              = "env-file"
	flagEnvFileDescription       = "Path to a .env file"
	flagConfigDescription        = "Path to a config file"
	flagStoreDriverDescription   = "State store driver: sqlite, json or memory"
	flagStorePathDescription     = "State store location"
	flagBatchSizeDescription     = "Default number of profiles per batch"
	flagIntervalDescription      = "Pause between opened profiles"
	flagChromeBinaryDescription  = "Chrome executable used with --chrome"
	flagNetworkHostDescription   = "Host of the social network profile links"
	flagNetworkMarkerDescription = "Marker identifying profile links in exports"
	flagLogLevelName             = "log-level"
	flagLogLevelDescription      = "Log level written to stderr"
	flagFollowersName            = "followers"
	flagFollowersDescription     = "Followers export file"
	flagFollowingName            = "following"
	flagFollowingDescription     = "Following export file"
	flagScopeName                = "scope"
	flagScopeDescription         = "Queue scope: all, mutual, fan or dont_follow_back"
	flagFilterName               = "filter"
	flagFilterDescription        = "Profile filter: all, done or not_done"
	flagLimitName                = "limit"
	flagLimitDescription         = "Profiles to open; 0 uses the batch size"
	flagPrintOnlyName            = "print-only"
	flagPrintOnlyDescription     = "Print profile links instead of opening them"
	flagChromeName               = "chrome"
	flagChromeDescription        = "Open profiles as tabs of a dedicated Chrome window"
	flagOutputName               = "out"
	flagOutputDescription        = "Report output path"
	defaultLogLevel              = "warn"
	defaultScopeLabel            = "all"
	defaultFilterLabel           = "not_done"
	errMessageLoggerCreate       = "create logger"
	errMessageInvalidLogLevel    = "invalid log level"
	errMessageConfiguration      = "resolve configuration"
	errMessageNegativeLimit      = "--limit must not be negative"
)

var errNegativeLimit = errors.New(errMessageNegativeLimit)

func main() {
	cobra.CheckErr(NewRootCommand(Dependencies{}).Execute())
}

// commandRuntime carries the application resolved before a subcommand runs.
type commandRuntime struct {
	configurationViper *viper.Viper
	dependencies       Dependencies
	application        Application
}

// NewRootCommand builds the followqueue command tree around dependencies.
func NewRootCommand(dependencies Dependencies) *cobra.Command {
	runtime := &commandRuntime{configurationViper: config.NewViper(), dependencies: dependencies}

	rootCommand := &cobra.Command{
		Use:               rootCommandUse,
		Short:             rootCommandShortDescription,
		SilenceUsage:      true,
		PersistentPreRunE: runtime.prepare,
	}
	if dependencies.Stdout != nil {
		rootCommand.SetOut(dependencies.Stdout)
	}
	if dependencies.Stderr != nil {
		rootCommand.SetErr(dependencies.Stderr)
	}

	persistentFlags := rootCommand.PersistentFlags()
	persistentFlags.String(flagEnvFileName, "", flagEnvFileDescription)
	persistentFlags.String(config.KeyConfigFile, "", flagConfigDescription)
	persistentFlags.String(config.KeyStoreDriver, config.DefaultStoreDriver, flagStoreDriverDescription)
	persistentFlags.String(config.KeyStorePath, config.DefaultStorePath(), flagStorePathDescription)
	persistentFlags.Int(config.KeyBatchSize, actionqueue.DefaultBatchSize, flagBatchSizeDescription)
	persistentFlags.Duration(config.KeyNavigationInterval, navigator.DefaultNavigationInterval, flagIntervalDescription)
	persistentFlags.String(config.KeyChromeBinary, "", flagChromeBinaryDescription)
	persistentFlags.String(config.KeyNetworkHost, "", flagNetworkHostDescription)
	persistentFlags.String(config.KeyNetworkMarker, "", flagNetworkMarkerDescription)
	persistentFlags.String(flagLogLevelName, defaultLogLevel, flagLogLevelDescription)

	for _, key := range []string{
		config.KeyStoreDriver,
		config.KeyStorePath,
		config.KeyBatchSize,
		config.KeyNavigationInterval,
		config.KeyChromeBinary,
		config.KeyNetworkHost,
		config.KeyNetworkMarker,
	} {
		cobra.CheckErr(config.BindFlag(runtime.configurationViper, rootCommand, key))
	}

	rootCommand.AddCommand(
		runtime.newAnalyzeCommand(),
		runtime.newStatusCommand(),
		runtime.newListCommand(),
		runtime.newFindCommand(),
		runtime.newProfileCommand(openCommandUse, openCommandDescription, actionqueue.Open, true),
		runtime.newProfileCommand(doneCommandUse, doneCommandDescription, actionqueue.MarkDone, false),
		runtime.newProfileCommand(undoCommandUse, undoCommandDescription, actionqueue.Undo, false),
		runtime.newBatchOpenCommand(),
		runtime.newBatchDoneCommand(),
		runtime.newReportCommand(),
		runtime.newResetCommand(),
	)
	return rootCommand
}

// prepare resolves configuration and builds the application. Flags only override
// environment and config file values when set explicitly.
func (runtime *commandRuntime) prepare(command *cobra.Command, _ []string) error {
	rootFlags := command.Root().PersistentFlags()

	envFilePath, _ := rootFlags.GetString(flagEnvFileName)
	if err := config.LoadEnvFile(envFilePath); err != nil {
		return err
	}
	configFilePath, _ := rootFlags.GetString(config.KeyConfigFile)
	if err := config.ReadConfigFile(runtime.configurationViper, configFilePath); err != nil {
		return err
	}
	configuration, err := config.FromViper(runtime.configurationViper)
	if err != nil {
		return fmt.Errorf("%s: %w", errMessageConfiguration, err)
	}

	dependencies := runtime.dependencies
	if dependencies.Logger == nil {
		logLevelLabel, _ := rootFlags.GetString(flagLogLevelName)
		logger, err := newLogger(logLevelLabel)
		if err != nil {
			return err
		}
		dependencies.Logger = logger
	}
	runtime.application = NewApplication(configuration, dependencies)
	return nil
}

func newLogger(levelLabel string) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(strings.TrimSpace(levelLabel))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", errMessageInvalidLogLevel, err)
	}
	loggerConfig := zap.NewProductionConfig()
	loggerConfig.Level = zap.NewAtomicLevelAt(level)
	logger, err := loggerConfig.Build()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", errMessageLoggerCreate, err)
	}
	return logger, nil
}

func (runtime *commandRuntime) newAnalyzeCommand() *cobra.Command {
	var followersPath, followingPath string
	command := &cobra.Command{
		Use:   analyzeCommandUse,
		Short: analyzeCommandDescription,
		Args:  cobra.NoArgs,
		RunE: func(command *cobra.Command, _ []string) error {
			return runtime.application.Analyze(command.Context(), followersPath, followingPath)
		},
	}
	command.Flags().StringVar(&followersPath, flagFollowersName, "", flagFollowersDescription)
	command.Flags().StringVar(&followingPath, flagFollowingName, "", flagFollowingDescription)
	return command
}

func (runtime *commandRuntime) newStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   statusCommandUse,
		Short: statusCommandDescription,
		Args:  cobra.NoArgs,
		RunE: func(command *cobra.Command, _ []string) error {
			return runtime.application.Status(command.Context())
		},
	}
}

func (runtime *commandRuntime) newListCommand() *cobra.Command {
	var scopeLabel, filterLabel string
	command := &cobra.Command{
		Use:   listCommandUse,
		Short: listCommandDescription,
		Args:  cobra.NoArgs,
		RunE: func(command *cobra.Command, _ []string) error {
			scope, err := actionqueue.ParseScope(scopeLabel)
			if err != nil {
				return err
			}
			filter, err := actionqueue.ParseFilter(filterLabel)
			if err != nil {
				return err
			}
			return runtime.application.List(command.Context(), scope, filter)
		},
	}
	command.Flags().StringVar(&scopeLabel, flagScopeName, defaultScopeLabel, flagScopeDescription)
	command.Flags().StringVar(&filterLabel, flagFilterName, defaultFilterLabel, flagFilterDescription)
	return command
}

func (runtime *commandRuntime) newFindCommand() *cobra.Command {
	return &cobra.Command{
		Use:   findCommandUse,
		Short: findCommandDescription,
		Args:  cobra.ExactArgs(1),
		RunE: func(command *cobra.Command, arguments []string) error {
			return runtime.application.Find(command.Context(), arguments[0])
		},
	}
}

func (runtime *commandRuntime) newProfileCommand(use string, description string, newOperation func(string) actionqueue.Operation, navigates bool) *cobra.Command {
	var printOnly, useChrome bool
	command := &cobra.Command{
		Use:   use,
		Short: description,
		Args:  cobra.ExactArgs(1),
		RunE: func(command *cobra.Command, arguments []string) error {
			profileID := strings.ToLower(strings.TrimSpace(arguments[0]))
			return runtime.application.Apply(command.Context(), newOperation(profileID), navigationModeFor(printOnly, useChrome))
		},
	}
	if navigates {
		addNavigationFlags(command, &printOnly, &useChrome)
	}
	return command
}

func (runtime *commandRuntime) newBatchOpenCommand() *cobra.Command {
	var scopeLabel string
	var limit int
	var printOnly, useChrome bool
	command := &cobra.Command{
		Use:   batchOpenCommandUse,
		Short: batchOpenCommandDescription,
		Args:  cobra.NoArgs,
		RunE: func(command *cobra.Command, _ []string) error {
			scope, err := actionqueue.ParseScope(scopeLabel)
			if err != nil {
				return err
			}
			if limit < 0 {
				return fmt.Errorf("%w: %d", errNegativeLimit, limit)
			}
			return runtime.application.BatchOpen(command.Context(), scope, limit, navigationModeFor(printOnly, useChrome))
		},
	}
	command.Flags().StringVar(&scopeLabel, flagScopeName, defaultScopeLabel, flagScopeDescription)
	command.Flags().IntVar(&limit, flagLimitName, 0, flagLimitDescription)
	addNavigationFlags(command, &printOnly, &useChrome)
	return command
}

func (runtime *commandRuntime) newBatchDoneCommand() *cobra.Command {
	var scopeLabel string
	command := &cobra.Command{
		Use:   batchDoneCommandUse,
		Short: batchDoneCommandDescription,
		Args:  cobra.NoArgs,
		RunE: func(command *cobra.Command, _ []string) error {
			scope, err := actionqueue.ParseScope(scopeLabel)
			if err != nil {
				return err
			}
			return runtime.application.BatchDone(command.Context(), scope)
		},
	}
	command.Flags().StringVar(&scopeLabel, flagScopeName, defaultScopeLabel, flagScopeDescription)
	return command
}

func (runtime *commandRuntime) newReportCommand() *cobra.Command {
	var outputPath string
	command := &cobra.Command{
		Use:   reportCommandUse,
		Short: reportCommandDescription,
		Args:  cobra.NoArgs,
		RunE: func(command *cobra.Command, _ []string) error {
			return runtime.application.Report(command.Context(), outputPath)
		},
	}
	command.Flags().StringVar(&outputPath, flagOutputName, defaultReportFileName, flagOutputDescription)
	return command
}

func (runtime *commandRuntime) newResetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   resetCommandUse,
		Short: resetCommandDescription,
		Args:  cobra.NoArgs,
		RunE: func(command *cobra.Command, _ []string) error {
			return runtime.application.Reset(command.Context())
		},
	}
}

func addNavigationFlags(command *cobra.Command, printOnly *bool, useChrome *bool) {
	command.Flags().BoolVar(printOnly, flagPrintOnlyName, false, flagPrintOnlyDescription)
	command.Flags().BoolVar(useChrome, flagChromeName, false, flagChromeDescription)
	command.MarkFlagsMutuallyExclusive(flagPrintOnlyName, flagChromeName)
}

func navigationModeFor(printOnly bool, useChrome bool) NavigationMode {
	switch {
	case printOnly:
		return NavigationPrintOnly
	case useChrome:
		return NavigationChrome
	default:
		return NavigationSystemBrowser
	}
}
