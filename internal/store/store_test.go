package store_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/f-sync/followqueue/internal/ingest"
	"github.com/f-sync/followqueue/internal/profiles"
	"github.com/f-sync/followqueue/internal/relationships"
	"github.com/f-sync/followqueue/internal/store"
)

func sampleState() profiles.AppState {
	return profiles.NewAppState([]profiles.AnalyzedProfile{
		{ID: "mut-alice", Username: "alice", ProfileURL: profiles.CanonicalURL("alice"), Type: profiles.RelationshipMutual, Status: profiles.StatusPending},
		{ID: "dfb-bob", Username: "Bob", ProfileURL: profiles.CanonicalURL("Bob"), Type: profiles.RelationshipDontFollowBack, Status: profiles.StatusVisited},
		{ID: "fan-carol", Username: "carol", ProfileURL: profiles.CanonicalURL("carol"), Type: profiles.RelationshipFan, Status: profiles.StatusDone},
	})
}

func openStores(t *testing.T) map[string]store.Store {
	t.Helper()
	directory := t.TempDir()
	stores := map[string]store.Store{}
	for _, configuration := range []store.Config{
		{Driver: store.DriverMemory},
		{Driver: store.DriverJSON, Path: filepath.Join(directory, "state.json")},
		{Driver: store.DriverSQLite, Path: filepath.Join(directory, "nested", "state.db")},
	} {
		openedStore, err := store.Open(configuration)
		if err != nil {
			t.Fatalf("open %s store: %v", configuration.Driver, err)
		}
		t.Cleanup(func() { openedStore.Close() })
		stores[configuration.Driver] = openedStore
	}
	return stores
}

func TestStoresRoundTripState(t *testing.T) {
	for driver, stateStore := range openStores(t) {
		driver, stateStore := driver, stateStore
		t.Run(driver, func(t *testing.T) {
			ctx := context.Background()

			if _, found, err := stateStore.Load(ctx); err != nil || found {
				t.Fatalf("expected empty store, found=%t err=%v", found, err)
			}

			expectedState := sampleState()
			if err := stateStore.Save(ctx, expectedState); err != nil {
				t.Fatalf("save: %v", err)
			}
			loadedState, found, err := stateStore.Load(ctx)
			if err != nil || !found {
				t.Fatalf("expected stored state, found=%t err=%v", found, err)
			}
			if len(loadedState.Profiles) != len(expectedState.Profiles) {
				t.Fatalf("expected %d profiles, got %d", len(expectedState.Profiles), len(loadedState.Profiles))
			}
			for index := range expectedState.Profiles {
				if loadedState.Profiles[index] != expectedState.Profiles[index] {
					t.Fatalf("profile %d = %+v, want %+v", index, loadedState.Profiles[index], expectedState.Profiles[index])
				}
			}
			if loadedState.Stats != expectedState.Stats {
				t.Fatalf("stats = %+v, want %+v", loadedState.Stats, expectedState.Stats)
			}

			updatedState := profiles.NewAppState(expectedState.Profiles[:1])
			if err := stateStore.Save(ctx, updatedState); err != nil {
				t.Fatalf("second save: %v", err)
			}
			reloadedState, _, err := stateStore.Load(ctx)
			if err != nil {
				t.Fatalf("reload: %v", err)
			}
			if len(reloadedState.Profiles) != 1 {
				t.Fatalf("expected save to replace profiles, got %+v", reloadedState.Profiles)
			}

			if err := stateStore.Clear(ctx); err != nil {
				t.Fatalf("clear: %v", err)
			}
			if _, found, err := stateStore.Load(ctx); err != nil || found {
				t.Fatalf("expected cleared store, found=%t err=%v", found, err)
			}
			if err := stateStore.Clear(ctx); err != nil {
				t.Fatalf("clearing an empty store: %v", err)
			}
		})
	}
}

func TestStoresKeepEmptyAnalysis(t *testing.T) {
	for driver, stateStore := range openStores(t) {
		driver, stateStore := driver, stateStore
		t.Run(driver, func(t *testing.T) {
			ctx := context.Background()
			if err := stateStore.Save(ctx, profiles.NewAppState(nil)); err != nil {
				t.Fatalf("save: %v", err)
			}
			loadedState, found, err := stateStore.Load(ctx)
			if err != nil || !found {
				t.Fatalf("expected stored empty state, found=%t err=%v", found, err)
			}
			if len(loadedState.Profiles) != 0 {
				t.Fatalf("expected no profiles, got %+v", loadedState.Profiles)
			}
		})
	}
}

func TestStoresKeepDuplicateProfiles(t *testing.T) {
	for driver, stateStore := range openStores(t) {
		driver, stateStore := driver, stateStore
		t.Run(driver, func(t *testing.T) {
			ctx := context.Background()
			state := relationships.Analyze(ingest.ParseProfiles("carol\n"), ingest.ParseProfiles("alice\nalice\nbob\n"))
			state.Profiles[1].Status = profiles.StatusDone
			if err := stateStore.Save(ctx, state); err != nil {
				t.Fatalf("save: %v", err)
			}
			loadedState, found, err := stateStore.Load(ctx)
			if err != nil || !found {
				t.Fatalf("expected stored state, found=%t err=%v", found, err)
			}
			expectedIDs := []string{"dfb-alice", "dfb-alice", "dfb-bob", "fan-carol"}
			if len(loadedState.Profiles) != len(expectedIDs) {
				t.Fatalf("expected %v, got %+v", expectedIDs, loadedState.Profiles)
			}
			for index, expectedID := range expectedIDs {
				if loadedState.Profiles[index].ID != expectedID {
					t.Fatalf("expected %v, got %+v", expectedIDs, loadedState.Profiles)
				}
			}
			if loadedState.Profiles[0].Status != profiles.StatusPending || loadedState.Profiles[1].Status != profiles.StatusDone {
				t.Fatalf("expected per-row statuses to survive, got %+v", loadedState.Profiles)
			}
			if loadedState.Stats.DontFollowBack != 3 || loadedState.Stats.Fans != 1 {
				t.Fatalf("unexpected stats %+v", loadedState.Stats)
			}
		})
	}
}

func TestMemoryStoreIsolatesCallers(t *testing.T) {
	ctx := context.Background()
	memoryStore := store.NewMemoryStore()
	state := sampleState()
	if err := memoryStore.Save(ctx, state); err != nil {
		t.Fatalf("save: %v", err)
	}
	state.Profiles[0].Status = profiles.StatusDone

	loadedState, _, _ := memoryStore.Load(ctx)
	if loadedState.Profiles[0].Status != profiles.StatusPending {
		t.Fatalf("store must not alias caller slices")
	}
	loadedState.Profiles[1].Status = profiles.StatusPending
	reloadedState, _, _ := memoryStore.Load(ctx)
	if reloadedState.Profiles[1].Status != profiles.StatusVisited {
		t.Fatalf("store must not alias returned slices")
	}
}

func TestJSONFileStoreDocumentShape(t *testing.T) {
	testCases := []struct {
		name          string
		content       string
		expectedFound bool
	}{
		{name: "complete document", content: `{"profiles":[{"id":"fan-a","username":"a","profileUrl":"https://www.instagram.com/a/","type":"fan","status":"pending"}],"stats":{"mutuals":0,"fans":1,"dontFollowBack":0}}`, expectedFound: true},
		{name: "missing stats", content: `{"profiles":[]}`},
		{name: "missing profiles", content: `{"stats":{"mutuals":0,"fans":0,"dontFollowBack":0}}`},
		{name: "null stats", content: `{"profiles":[],"stats":null}`},
		{name: "not json", content: `profiles,stats`},
	}

	for _, testCase := range testCases {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "state.json")
			if err := os.WriteFile(path, []byte(testCase.content), 0o600); err != nil {
				t.Fatalf("write fixture: %v", err)
			}
			_, found, err := store.NewJSONFileStore(path).Load(context.Background())
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if found != testCase.expectedFound {
				t.Fatalf("expected found=%t, got %t", testCase.expectedFound, found)
			}
		})
	}
}

func TestJSONFileStoreRecomputesStats(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	content := `{"profiles":[{"id":"fan-a","username":"a","profileUrl":"u","type":"fan","status":"pending"}],"stats":{"mutuals":7,"fans":0,"dontFollowBack":0}}`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	state, found, err := store.NewJSONFileStore(path).Load(context.Background())
	if err != nil || !found {
		t.Fatalf("expected state, found=%t err=%v", found, err)
	}
	if state.Stats != (profiles.RelationshipStats{Fans: 1}) {
		t.Fatalf("expected stats derived from profiles, got %+v", state.Stats)
	}
}

func TestOpenRejectsInvalidConfiguration(t *testing.T) {
	testCases := []struct {
		name          string
		configuration store.Config
		expectedError error
	}{
		{name: "unknown driver", configuration: store.Config{Driver: "redis"}, expectedError: store.ErrUnknownDriver},
		{name: "json without path", configuration: store.Config{Driver: store.DriverJSON}, expectedError: store.ErrMissingPath},
		{name: "sqlite without path", configuration: store.Config{Driver: store.DriverSQLite, Path: "  "}, expectedError: store.ErrMissingPath},
	}

	for _, testCase := range testCases {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			_, err := store.Open(testCase.configuration)
			if !errors.Is(err, testCase.expectedError) {
				t.Fatalf("expected %v, got %v", testCase.expectedError, err)
			}
		})
	}
}
