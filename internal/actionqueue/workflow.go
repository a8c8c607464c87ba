package actionqueue

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/f-sync/followqueue/internal/profiles"
	"github.com/f-sync/followqueue/internal/relationships"
)

const (
	errMessageNoState            = "no analyzed profiles; run an analysis first"
	errMessageLoadState          = "load state"
	errMessageSaveState          = "save state"
	errMessageClearState         = "clear state"
	errMessageNavigate           = "navigate"
	logMessageAnalysisSaved      = "analysis saved"
	logMessageOperationApplied   = "queue operation applied"
	logMessageOperationUnchanged = "queue operation left state unchanged"
	logMessageNavigationFailed   = "navigation failed; state not committed"
	logMessageStateCleared       = "state cleared"
	logFieldOperation            = "operation"
	logFieldProfileID            = "profile_id"
	logFieldScope                = "scope"
	logFieldNavigations          = "navigations"
	logFieldProfiles             = "profiles"
	logFieldMutuals              = "mutuals"
	logFieldFans                 = "fans"
	logFieldDontFollowBack       = "dont_follow_back"
)

// ErrNoState indicates that no analysis has been persisted yet.
var ErrNoState = errors.New(errMessageNoState)

// StateStore persists the application state. Load reports false when nothing is stored.
type StateStore interface {
	Load(ctx context.Context) (profiles.AppState, bool, error)
	Save(ctx context.Context, state profiles.AppState) error
	Clear(ctx context.Context) error
}

// Navigator shows profiles to the user, in the order given.
type Navigator interface {
	Navigate(ctx context.Context, navigations []Navigation) error
}

// WorkflowConfig configures a Workflow.
type WorkflowConfig struct {
	Store     StateStore
	Navigator Navigator
	Logger    *zap.Logger
	BatchSize int
}

// Workflow applies queue operations against persisted state. Dispatches are serialized
// so the navigations of one batch are never interleaved with another operation.
type Workflow struct {
	store     StateStore
	navigator Navigator
	logger    *zap.Logger
	batchSize int
	mutex     sync.Mutex
}

// DispatchOutcome reports the state after an operation and the navigations it issued.
type DispatchOutcome struct {
	State       profiles.AppState
	Navigations []Navigation
	Changed     bool
}

type discardNavigator struct{}

func (discardNavigator) Navigate(context.Context, []Navigation) error { return nil }

// NewWorkflow constructs a Workflow. A nil navigator drops navigations and a nil logger
// disables logging.
func NewWorkflow(configuration WorkflowConfig) *Workflow {
	navigator := configuration.Navigator
	if navigator == nil {
		navigator = discardNavigator{}
	}
	logger := configuration.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	batchSize := configuration.BatchSize
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Workflow{
		store:     configuration.Store,
		navigator: navigator,
		logger:    logger,
		batchSize: batchSize,
	}
}

// BatchSize returns the default batch-open limit.
func (workflow *Workflow) BatchSize() int {
	return workflow.batchSize
}

// Analyze classifies both lists and replaces the stored state with the result.
func (workflow *Workflow) Analyze(ctx context.Context, followers []profiles.BaseProfile, following []profiles.BaseProfile) (profiles.AppState, error) {
	workflow.mutex.Lock()
	defer workflow.mutex.Unlock()

	state := relationships.Analyze(followers, following)
	if err := workflow.store.Save(ctx, state); err != nil {
		return profiles.AppState{}, fmt.Errorf("%s: %w", errMessageSaveState, err)
	}
	workflow.logger.Info(logMessageAnalysisSaved,
		zap.Int(logFieldProfiles, len(state.Profiles)),
		zap.Int(logFieldMutuals, state.Stats.Mutuals),
		zap.Int(logFieldFans, state.Stats.Fans),
		zap.Int(logFieldDontFollowBack, state.Stats.DontFollowBack),
	)
	return state, nil
}

// State returns the stored state or ErrNoState.
func (workflow *Workflow) State(ctx context.Context) (profiles.AppState, error) {
	workflow.mutex.Lock()
	defer workflow.mutex.Unlock()
	return workflow.loadState(ctx)
}

// Dispatch applies the operation inside scope. Navigations are issued in order before
// the new state is saved; when navigation fails nothing is committed. A batch open
// without a limit uses the configured batch size.
func (workflow *Workflow) Dispatch(ctx context.Context, scope Scope, operation Operation) (DispatchOutcome, error) {
	if err := operation.Validate(); err != nil {
		return DispatchOutcome{}, err
	}
	if operation.Kind == OperationBatchOpen && operation.Limit == 0 {
		operation.Limit = workflow.batchSize
	}

	workflow.mutex.Lock()
	defer workflow.mutex.Unlock()

	currentState, err := workflow.loadState(ctx)
	if err != nil {
		return DispatchOutcome{}, err
	}

	nextState, result := ApplyToState(currentState, scope, operation)
	operationFields := []zap.Field{
		zap.String(logFieldOperation, string(operation.Kind)),
		zap.String(logFieldProfileID, operation.ProfileID),
		zap.String(logFieldScope, scope.String()),
		zap.Int(logFieldNavigations, len(result.Navigations)),
	}

	if len(result.Navigations) > 0 {
		if err := workflow.navigator.Navigate(ctx, result.Navigations); err != nil {
			workflow.logger.Warn(logMessageNavigationFailed, append(operationFields, zap.Error(err))...)
			return DispatchOutcome{State: currentState}, fmt.Errorf("%s: %w", errMessageNavigate, err)
		}
	}

	if !result.Changed {
		workflow.logger.Debug(logMessageOperationUnchanged, operationFields...)
		return DispatchOutcome{State: currentState, Navigations: result.Navigations}, nil
	}
	if err := workflow.store.Save(ctx, nextState); err != nil {
		return DispatchOutcome{State: currentState}, fmt.Errorf("%s: %w", errMessageSaveState, err)
	}
	workflow.logger.Info(logMessageOperationApplied, operationFields...)
	return DispatchOutcome{State: nextState, Navigations: result.Navigations, Changed: true}, nil
}

// Reset removes the stored state.
func (workflow *Workflow) Reset(ctx context.Context) error {
	workflow.mutex.Lock()
	defer workflow.mutex.Unlock()

	if err := workflow.store.Clear(ctx); err != nil {
		return fmt.Errorf("%s: %w", errMessageClearState, err)
	}
	workflow.logger.Info(logMessageStateCleared)
	return nil
}

func (workflow *Workflow) loadState(ctx context.Context) (profiles.AppState, error) {
	state, found, err := workflow.store.Load(ctx)
	if err != nil {
		return profiles.AppState{}, fmt.Errorf("%s: %w", errMessageLoadState, err)
	}
	if !found {
		return profiles.AppState{}, ErrNoState
	}
	return profiles.NewAppState(state.Profiles), nil
}
