package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"go.uber.org/zap"

	"github.com/f-sync/followqueue/internal/actionqueue"
	"github.com/f-sync/followqueue/internal/config"
	"github.com/f-sync/followqueue/internal/ingest"
	"github.com/f-sync/followqueue/internal/navigator"
	"github.com/f-sync/followqueue/internal/profiles"
	"github.com/f-sync/followqueue/internal/report"
	"github.com/f-sync/followqueue/internal/store"
)

const (
	analyzeSummaryFormat      = "Analyzed %d profiles: %d mutuals, %d fans, %d don't follow back\n"
	operationResultFormat     = "%s\t%s\t%s\n"
	batchOpenSummaryFormat    = "Opened %d profiles in %s (%d still pending)\n"
	batchDoneSummaryFormat    = "Marked visited profiles done in %s: %d of %d done (%d%%)\n"
	statusHeader              = "QUEUE\tDONE\tVISITED\tPENDING\tTOTAL\tPROGRESS\n"
	statusRowFormat           = "%s\t%d\t%d\t%d\t%d\t%d%%\n"
	listRowFormat             = "%s\t%s\t%s\t%s\n"
	reportWrittenFormat       = "Wrote %s\n"
	stateClearedMessage       = "State cleared"
	chromeWaitPrompt          = "Press Enter to close the browser window."
	unchangedOperationLabel   = "unchanged"
	statusTotalLabel          = "all"
	errMessageOpenInput       = "open %s: %w"
	errMessageCreateOutput    = "create %s: %w"
	errMessageWriteOutput     = "write %s: %w"
	errMessageRender          = "render report: %w"
	errMessageUnknownProfile  = "profile not found"
	outputFilePermissions     = 0o644
	tabwriterMinWidth         = 0
	tabwriterTabWidth         = 4
	tabwriterPadding          = 2
	tabwriterPadCharacter     = ' '
	defaultReportFileName     = "followqueue_report.html"
)

// errUnknownProfile indicates a single-profile command naming an id absent from state.
var errUnknownProfile = errors.New(errMessageUnknownProfile)

// NavigationMode selects how profiles are shown.
type NavigationMode string

const (
	NavigationSystemBrowser NavigationMode = "browser"
	NavigationPrintOnly     NavigationMode = "print"
	NavigationChrome        NavigationMode = "chrome"
)

// ClosableNavigator is a navigator owning a browser process.
type ClosableNavigator interface {
	actionqueue.Navigator
	Close() error
}

// Dependencies are the collaborators of an Application. Nil fields use defaults.
type Dependencies struct {
	OpenStore        func(store.Config) (store.Store, error)
	OpenInput        func(path string) (io.ReadCloser, error)
	WriteOutputFile  func(path string, contents string) error
	NewSystemBrowser func(interval time.Duration) actionqueue.Navigator
	NewChromeTabs    func(binaryPath string) ClosableNavigator
	Stdout           io.Writer
	Stderr           io.Writer
	Stdin            io.Reader
	Logger           *zap.Logger
}

// Application runs CLI commands against the configured store.
type Application struct {
	configuration config.Config
	dependencies  Dependencies
}

// NewApplication constructs an Application, filling unset dependencies with defaults.
func NewApplication(configuration config.Config, dependencies Dependencies) Application {
	defaultDependencies := newDefaultDependencies()

	if dependencies.OpenStore == nil {
		dependencies.OpenStore = defaultDependencies.OpenStore
	}
	if dependencies.OpenInput == nil {
		dependencies.OpenInput = defaultDependencies.OpenInput
	}
	if dependencies.WriteOutputFile == nil {
		dependencies.WriteOutputFile = defaultDependencies.WriteOutputFile
	}
	if dependencies.NewSystemBrowser == nil {
		dependencies.NewSystemBrowser = defaultDependencies.NewSystemBrowser
	}
	if dependencies.NewChromeTabs == nil {
		dependencies.NewChromeTabs = defaultDependencies.NewChromeTabs
	}
	if dependencies.Stdout == nil {
		dependencies.Stdout = defaultDependencies.Stdout
	}
	if dependencies.Stderr == nil {
		dependencies.Stderr = defaultDependencies.Stderr
	}
	if dependencies.Stdin == nil {
		dependencies.Stdin = defaultDependencies.Stdin
	}
	if dependencies.Logger == nil {
		dependencies.Logger = defaultDependencies.Logger
	}

	return Application{configuration: configuration, dependencies: dependencies}
}

func newDefaultDependencies() Dependencies {
	return Dependencies{
		OpenStore: store.Open,
		OpenInput: func(path string) (io.ReadCloser, error) {
			return os.Open(path)
		},
		WriteOutputFile: defaultWriteOutputFile,
		NewSystemBrowser: func(interval time.Duration) actionqueue.Navigator {
			return navigator.NewSystemBrowser(navigator.SystemBrowserConfig{Interval: interval})
		},
		NewChromeTabs: func(binaryPath string) ClosableNavigator {
			return navigator.NewChromeTabs(navigator.ChromeTabsConfig{BinaryPath: binaryPath})
		},
		Stdout: os.Stdout,
		Stderr: os.Stderr,
		Stdin:  os.Stdin,
		Logger: zap.NewNop(),
	}
}

func defaultWriteOutputFile(outputPath string, contents string) error {
	file, createError := os.OpenFile(outputPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, outputFilePermissions)
	if createError != nil {
		return fmt.Errorf(errMessageCreateOutput, outputPath, createError)
	}
	defer file.Close()

	if _, writeError := file.WriteString(contents); writeError != nil {
		return fmt.Errorf(errMessageWriteOutput, outputPath, writeError)
	}
	return nil
}

// withWorkflow opens the store, runs action against a workflow using navigator and
// closes the store.
func (application Application) withWorkflow(queueNavigator actionqueue.Navigator, action func(*actionqueue.Workflow) error) error {
	stateStore, err := application.dependencies.OpenStore(application.configuration.Store)
	if err != nil {
		return err
	}
	defer stateStore.Close()

	workflow := actionqueue.NewWorkflow(actionqueue.WorkflowConfig{
		Store:     stateStore,
		Navigator: queueNavigator,
		Logger:    application.dependencies.Logger,
		BatchSize: application.configuration.BatchSize,
	})
	return action(workflow)
}

// Analyze reads both exports, classifies them and replaces the stored state.
func (application Application) Analyze(ctx context.Context, followersPath string, followingPath string) error {
	sources := ingest.Sources{}
	if followersPath != "" {
		followersFile, err := application.dependencies.OpenInput(followersPath)
		if err != nil {
			return fmt.Errorf(errMessageOpenInput, followersPath, err)
		}
		defer followersFile.Close()
		sources.Followers = followersFile
	}
	if followingPath != "" {
		followingFile, err := application.dependencies.OpenInput(followingPath)
		if err != nil {
			return fmt.Errorf(errMessageOpenInput, followingPath, err)
		}
		defer followingFile.Close()
		sources.Following = followingFile
	}

	pair, err := ingest.NewLoader(application.configuration.Network).LoadPair(ctx, sources)
	if err != nil {
		return err
	}

	return application.withWorkflow(nil, func(workflow *actionqueue.Workflow) error {
		state, err := workflow.Analyze(ctx, pair.Followers, pair.Following)
		if err != nil {
			return err
		}
		fmt.Fprintf(application.dependencies.Stdout, analyzeSummaryFormat,
			state.Stats.Total(), state.Stats.Mutuals, state.Stats.Fans, state.Stats.DontFollowBack)
		return nil
	})
}

// Status prints the progress of every queue.
func (application Application) Status(ctx context.Context) error {
	return application.withWorkflow(nil, func(workflow *actionqueue.Workflow) error {
		state, err := workflow.State(ctx)
		if err != nil {
			return err
		}
		tableWriter := newTableWriter(application.dependencies.Stdout)
		fmt.Fprint(tableWriter, statusHeader)
		for _, relationshipType := range profiles.RelationshipTypes {
			writeStatusRow(tableWriter, string(relationshipType), actionqueue.Measure(state.ProfilesOfType(relationshipType)))
		}
		writeStatusRow(tableWriter, statusTotalLabel, actionqueue.Measure(state.Profiles))
		return tableWriter.Flush()
	})
}

func writeStatusRow(output io.Writer, label string, progress actionqueue.Progress) {
	fmt.Fprintf(output, statusRowFormat, label, progress.DoneCount, progress.VisitedCount, progress.UntouchedCount, progress.Total, progress.ProgressPercent)
}

// List prints the profiles inside scope that pass filter.
func (application Application) List(ctx context.Context, scope actionqueue.Scope, filter actionqueue.Filter) error {
	return application.withWorkflow(nil, func(workflow *actionqueue.Workflow) error {
		state, err := workflow.State(ctx)
		if err != nil {
			return err
		}
		return application.printProfiles(actionqueue.FilterProfiles(scope.Select(state.Profiles), filter))
	})
}

// Find prints the profiles whose usernames fuzzily match query.
func (application Application) Find(ctx context.Context, query string) error {
	return application.withWorkflow(nil, func(workflow *actionqueue.Workflow) error {
		state, err := workflow.State(ctx)
		if err != nil {
			return err
		}
		return application.printProfiles(profiles.Search(state.Profiles, query))
	})
}

func (application Application) printProfiles(analyzedProfiles []profiles.AnalyzedProfile) error {
	tableWriter := newTableWriter(application.dependencies.Stdout)
	for _, profile := range analyzedProfiles {
		fmt.Fprintf(tableWriter, listRowFormat, profile.ID, profiles.HandleLabel(profile.Username), profile.Status, profile.ProfileURL)
	}
	return tableWriter.Flush()
}

// Apply runs a single-profile operation. Opening shows the profile with mode.
func (application Application) Apply(ctx context.Context, operation actionqueue.Operation, mode NavigationMode) error {
	return application.navigate(mode, func(queueNavigator actionqueue.Navigator) error {
		return application.withWorkflow(queueNavigator, func(workflow *actionqueue.Workflow) error {
			state, err := workflow.State(ctx)
			if err != nil {
				return err
			}
			if _, exists := state.ProfileByID(operation.ProfileID); !exists {
				return fmt.Errorf("%w: %s", errUnknownProfile, operation.ProfileID)
			}
			outcome, err := workflow.Dispatch(ctx, actionqueue.AllProfiles, operation)
			if err != nil {
				return err
			}
			statusLabel := unchangedOperationLabel
			if profile, exists := outcome.State.ProfileByID(operation.ProfileID); exists && outcome.Changed {
				statusLabel = string(profile.Status)
			}
			fmt.Fprintf(application.dependencies.Stdout, operationResultFormat, operation.ProfileID, operation.Kind, statusLabel)
			return nil
		})
	})
}

// BatchOpen shows the next pending profiles of scope. A zero limit uses the
// configured batch size.
func (application Application) BatchOpen(ctx context.Context, scope actionqueue.Scope, limit int, mode NavigationMode) error {
	return application.navigate(mode, func(queueNavigator actionqueue.Navigator) error {
		return application.withWorkflow(queueNavigator, func(workflow *actionqueue.Workflow) error {
			outcome, err := workflow.Dispatch(ctx, scope, actionqueue.BatchOpen(limit))
			if err != nil {
				return err
			}
			progress := actionqueue.Measure(scope.Select(outcome.State.Profiles))
			fmt.Fprintf(application.dependencies.Stderr, batchOpenSummaryFormat, len(outcome.Navigations), scope, progress.UntouchedCount)
			return nil
		})
	})
}

// BatchDone marks every visited profile in scope as done.
func (application Application) BatchDone(ctx context.Context, scope actionqueue.Scope) error {
	return application.withWorkflow(nil, func(workflow *actionqueue.Workflow) error {
		outcome, err := workflow.Dispatch(ctx, scope, actionqueue.BatchMarkDone())
		if err != nil {
			return err
		}
		progress := actionqueue.Measure(scope.Select(outcome.State.Profiles))
		fmt.Fprintf(application.dependencies.Stdout, batchDoneSummaryFormat, scope, progress.DoneCount, progress.Total, progress.ProgressPercent)
		return nil
	})
}

// Report writes the static HTML report to outputPath.
func (application Application) Report(ctx context.Context, outputPath string) error {
	return application.withWorkflow(nil, func(workflow *actionqueue.Workflow) error {
		state, err := workflow.State(ctx)
		if err != nil {
			return err
		}
		pageHTML, err := report.Render(report.PageData{State: &state})
		if err != nil {
			return fmt.Errorf(errMessageRender, err)
		}
		if err := application.dependencies.WriteOutputFile(outputPath, pageHTML); err != nil {
			return err
		}
		fmt.Fprintf(application.dependencies.Stdout, reportWrittenFormat, outputPath)
		return nil
	})
}

// Reset removes the stored state.
func (application Application) Reset(ctx context.Context) error {
	return application.withWorkflow(nil, func(workflow *actionqueue.Workflow) error {
		if err := workflow.Reset(ctx); err != nil {
			return err
		}
		fmt.Fprintln(application.dependencies.Stdout, stateClearedMessage)
		return nil
	})
}

// navigate builds the navigator for mode and runs action with it. A Chrome window
// stays open until the user confirms on stdin.
func (application Application) navigate(mode NavigationMode, action func(actionqueue.Navigator) error) error {
	switch mode {
	case NavigationPrintOnly:
		return action(navigator.NewWriter(application.dependencies.Stdout))
	case NavigationChrome:
		chromeTabs := application.dependencies.NewChromeTabs(application.configuration.ChromeBinary)
		defer chromeTabs.Close()
		if err := action(chromeTabs); err != nil {
			return err
		}
		fmt.Fprintln(application.dependencies.Stderr, chromeWaitPrompt)
		_, _ = bufio.NewReader(application.dependencies.Stdin).ReadString('\n')
		return nil
	default:
		return action(application.dependencies.NewSystemBrowser(application.configuration.NavigationInterval))
	}
}

func newTableWriter(output io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(output, tabwriterMinWidth, tabwriterTabWidth, tabwriterPadding, tabwriterPadCharacter, 0)
}
