package actionqueue_test

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/f-sync/followqueue/internal/actionqueue"
	"github.com/f-sync/followqueue/internal/profiles"
	"github.com/f-sync/followqueue/internal/store"
)

type recordingNavigator struct {
	batches [][]actionqueue.Navigation
	err     error
}

func (navigator *recordingNavigator) Navigate(_ context.Context, navigations []actionqueue.Navigation) error {
	if navigator.err != nil {
		return navigator.err
	}
	navigator.batches = append(navigator.batches, append([]actionqueue.Navigation(nil), navigations...))
	return nil
}

func baseProfiles(usernames ...string) []profiles.BaseProfile {
	baseProfileList := make([]profiles.BaseProfile, 0, len(usernames))
	for _, username := range usernames {
		baseProfileList = append(baseProfileList, profiles.BaseProfile{Username: username, ProfileURL: profiles.CanonicalURL(username)})
	}
	return baseProfileList
}

func newTestWorkflow(t *testing.T, navigator actionqueue.Navigator, batchSize int) (*actionqueue.Workflow, *store.MemoryStore) {
	t.Helper()
	memoryStore := store.NewMemoryStore()
	workflow := actionqueue.NewWorkflow(actionqueue.WorkflowConfig{
		Store:     memoryStore,
		Navigator: navigator,
		Logger:    zaptest.NewLogger(t),
		BatchSize: batchSize,
	})
	return workflow, memoryStore
}

func TestWorkflowRequiresAnalysis(t *testing.T) {
	workflow, _ := newTestWorkflow(t, nil, 0)
	ctx := context.Background()

	if _, err := workflow.State(ctx); !errors.Is(err, actionqueue.ErrNoState) {
		t.Fatalf("expected ErrNoState, got %v", err)
	}
	if _, err := workflow.Dispatch(ctx, actionqueue.AllProfiles, actionqueue.BatchOpen(0)); !errors.Is(err, actionqueue.ErrNoState) {
		t.Fatalf("expected ErrNoState, got %v", err)
	}
	if workflow.BatchSize() != actionqueue.DefaultBatchSize {
		t.Fatalf("expected default batch size, got %d", workflow.BatchSize())
	}
}

func TestWorkflowAnalyzeAndBatchCycle(t *testing.T) {
	navigator := &recordingNavigator{}
	workflow, memoryStore := newTestWorkflow(t, navigator, 2)
	ctx := context.Background()

	analyzedState, err := workflow.Analyze(ctx, baseProfiles("alice", "fan1"), baseProfiles("alice", "x", "y", "z"))
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if analyzedState.Stats != (profiles.RelationshipStats{Mutuals: 1, Fans: 1, DontFollowBack: 3}) {
		t.Fatalf("unexpected stats: %+v", analyzedState.Stats)
	}

	dontFollowBack := actionqueue.ScopeOf(profiles.RelationshipDontFollowBack)
	outcome, err := workflow.Dispatch(ctx, dontFollowBack, actionqueue.BatchOpen(0))
	if err != nil {
		t.Fatalf("batch open: %v", err)
	}
	if !outcome.Changed || len(outcome.Navigations) != 2 {
		t.Fatalf("expected two navigations, got %+v", outcome)
	}
	if len(navigator.batches) != 1 || navigator.batches[0][0].ProfileID != "dfb-x" || navigator.batches[0][1].ProfileID != "dfb-y" {
		t.Fatalf("unexpected navigation batches: %+v", navigator.batches)
	}

	storedState, _, _ := memoryStore.Load(ctx)
	progress := actionqueue.Measure(dontFollowBack.Select(storedState.Profiles))
	if progress.VisitedCount != 2 || progress.UntouchedCount != 1 {
		t.Fatalf("unexpected persisted progress: %+v", progress)
	}

	if _, err := workflow.Dispatch(ctx, dontFollowBack, actionqueue.BatchMarkDone()); err != nil {
		t.Fatalf("batch done: %v", err)
	}
	finalState, err := workflow.State(ctx)
	if err != nil {
		t.Fatalf("state: %v", err)
	}
	progress = actionqueue.Measure(dontFollowBack.Select(finalState.Profiles))
	if progress.DoneCount != 2 || progress.ProgressPercent != 67 {
		t.Fatalf("unexpected final progress: %+v", progress)
	}
	if profile, _ := finalState.ProfileByID("mut-alice"); profile.Status != profiles.StatusPending {
		t.Fatalf("profiles outside the scope must be untouched, got %+v", profile)
	}
}

func TestWorkflowNavigationFailureCommitsNothing(t *testing.T) {
	navigator := &recordingNavigator{err: errors.New("browser unavailable")}
	workflow, memoryStore := newTestWorkflow(t, navigator, 0)
	ctx := context.Background()

	if _, err := workflow.Analyze(ctx, nil, baseProfiles("x")); err != nil {
		t.Fatalf("analyze: %v", err)
	}
	_, err := workflow.Dispatch(ctx, actionqueue.AllProfiles, actionqueue.Open("dfb-x"))
	if err == nil || !errors.Is(err, navigator.err) {
		t.Fatalf("expected navigation error, got %v", err)
	}
	storedState, _, _ := memoryStore.Load(ctx)
	if storedState.Profiles[0].Status != profiles.StatusPending {
		t.Fatalf("expected state to stay pending, got %s", storedState.Profiles[0].Status)
	}
}

func TestWorkflowUnchangedOperationsStillNavigate(t *testing.T) {
	navigator := &recordingNavigator{}
	workflow, _ := newTestWorkflow(t, navigator, 0)
	ctx := context.Background()

	if _, err := workflow.Analyze(ctx, nil, baseProfiles("x")); err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if _, err := workflow.Dispatch(ctx, actionqueue.AllProfiles, actionqueue.MarkDone("dfb-x")); err != nil {
		t.Fatalf("mark done: %v", err)
	}
	outcome, err := workflow.Dispatch(ctx, actionqueue.AllProfiles, actionqueue.Open("dfb-x"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if outcome.Changed || len(outcome.Navigations) != 1 || len(navigator.batches) != 1 {
		t.Fatalf("expected a navigation without a state change, got %+v", outcome)
	}
	if outcome.State.Profiles[0].Status != profiles.StatusDone {
		t.Fatalf("expected done to be kept, got %s", outcome.State.Profiles[0].Status)
	}
}

func TestWorkflowRejectsInvalidOperation(t *testing.T) {
	workflow, _ := newTestWorkflow(t, nil, 0)
	_, err := workflow.Dispatch(context.Background(), actionqueue.AllProfiles, actionqueue.Open(""))
	if !errors.Is(err, actionqueue.ErrMissingProfileID) {
		t.Fatalf("expected ErrMissingProfileID, got %v", err)
	}
}

func TestWorkflowReset(t *testing.T) {
	workflow, _ := newTestWorkflow(t, nil, 0)
	ctx := context.Background()
	if _, err := workflow.Analyze(ctx, baseProfiles("a"), baseProfiles("a")); err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if err := workflow.Reset(ctx); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if _, err := workflow.State(ctx); !errors.Is(err, actionqueue.ErrNoState) {
		t.Fatalf("expected ErrNoState after reset, got %v", err)
	}
}
