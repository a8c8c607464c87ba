package actionqueue_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/f-sync/followqueue/internal/actionqueue"
	"github.com/f-sync/followqueue/internal/profiles"
)

func queueProfiles(statuses ...profiles.Status) []profiles.AnalyzedProfile {
	usernames := []string{"alice", "bob", "carol", "dave", "erin", "frank", "gina", "hank"}
	analyzedProfiles := make([]profiles.AnalyzedProfile, 0, len(statuses))
	for index, status := range statuses {
		username := usernames[index]
		analyzedProfiles = append(analyzedProfiles, profiles.AnalyzedProfile{
			ID:         "dfb-" + username,
			Username:   username,
			ProfileURL: profiles.CanonicalURL(username),
			Type:       profiles.RelationshipDontFollowBack,
			Status:     status,
		})
	}
	return analyzedProfiles
}

func statusesOf(analyzedProfiles []profiles.AnalyzedProfile) []profiles.Status {
	statuses := make([]profiles.Status, 0, len(analyzedProfiles))
	for _, profile := range analyzedProfiles {
		statuses = append(statuses, profile.Status)
	}
	return statuses
}

func navigationIDs(navigations []actionqueue.Navigation) []string {
	identifiers := make([]string, 0, len(navigations))
	for _, navigation := range navigations {
		identifiers = append(identifiers, navigation.ProfileID)
	}
	return identifiers
}

const (
	pending = profiles.StatusPending
	visited = profiles.StatusVisited
	done    = profiles.StatusDone
)

func TestReduce(t *testing.T) {
	testCases := []struct {
		name                string
		initial             []profiles.Status
		operation           actionqueue.Operation
		expectedStatuses    []profiles.Status
		expectedNavigations []string
		expectedChanged     bool
	}{
		{
			name:                "open pending profile visits it",
			initial:             []profiles.Status{pending, pending},
			operation:           actionqueue.Open("dfb-bob"),
			expectedStatuses:    []profiles.Status{pending, visited},
			expectedNavigations: []string{"dfb-bob"},
			expectedChanged:     true,
		},
		{
			name:                "open visited profile navigates without transition",
			initial:             []profiles.Status{visited},
			operation:           actionqueue.Open("dfb-alice"),
			expectedStatuses:    []profiles.Status{visited},
			expectedNavigations: []string{"dfb-alice"},
		},
		{
			name:                "open done profile navigates without transition",
			initial:             []profiles.Status{done},
			operation:           actionqueue.Open("dfb-alice"),
			expectedStatuses:    []profiles.Status{done},
			expectedNavigations: []string{"dfb-alice"},
		},
		{
			name:             "open unknown profile is a no-op",
			initial:          []profiles.Status{pending},
			operation:        actionqueue.Open("dfb-nobody"),
			expectedStatuses: []profiles.Status{pending},
		},
		{
			name:             "mark done from pending",
			initial:          []profiles.Status{pending, visited},
			operation:        actionqueue.MarkDone("dfb-alice"),
			expectedStatuses: []profiles.Status{done, visited},
			expectedChanged:  true,
		},
		{
			name:             "mark done from visited",
			initial:          []profiles.Status{pending, visited},
			operation:        actionqueue.MarkDone("dfb-bob"),
			expectedStatuses: []profiles.Status{pending, done},
			expectedChanged:  true,
		},
		{
			name:             "undo resets done to pending",
			initial:          []profiles.Status{done},
			operation:        actionqueue.Undo("dfb-alice"),
			expectedStatuses: []profiles.Status{pending},
			expectedChanged:  true,
		},
		{
			name:             "undo resets visited to pending",
			initial:          []profiles.Status{visited},
			operation:        actionqueue.Undo("dfb-alice"),
			expectedStatuses: []profiles.Status{pending},
			expectedChanged:  true,
		},
		{
			name:             "undo unknown profile is a no-op",
			initial:          []profiles.Status{done},
			operation:        actionqueue.Undo("fan-alice"),
			expectedStatuses: []profiles.Status{done},
		},
		{
			name:                "batch open respects limit and order",
			initial:             []profiles.Status{done, pending, visited, pending, pending},
			operation:           actionqueue.BatchOpen(2),
			expectedStatuses:    []profiles.Status{done, visited, visited, visited, pending},
			expectedNavigations: []string{"dfb-bob", "dfb-dave"},
			expectedChanged:     true,
		},
		{
			name:             "batch open without pending profiles is a no-op",
			initial:          []profiles.Status{done, visited},
			operation:        actionqueue.BatchOpen(25),
			expectedStatuses: []profiles.Status{done, visited},
		},
		{
			name:             "batch open with zero limit is a no-op",
			initial:          []profiles.Status{pending},
			operation:        actionqueue.BatchOpen(0),
			expectedStatuses: []profiles.Status{pending},
		},
		{
			name:             "batch mark done only touches visited",
			initial:          []profiles.Status{pending, visited, done, visited},
			operation:        actionqueue.BatchMarkDone(),
			expectedStatuses: []profiles.Status{pending, done, done, done},
			expectedChanged:  true,
		},
	}

	for _, testCase := range testCases {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			initialProfiles := queueProfiles(testCase.initial...)
			result := actionqueue.Reduce(initialProfiles, testCase.operation)

			assertStatuses(t, statusesOf(result.Profiles), testCase.expectedStatuses)
			assertStatuses(t, statusesOf(initialProfiles), testCase.initial)
			if result.Changed != testCase.expectedChanged {
				t.Fatalf("expected changed=%t, got %t", testCase.expectedChanged, result.Changed)
			}
			actualNavigations := navigationIDs(result.Navigations)
			if len(actualNavigations) != len(testCase.expectedNavigations) {
				t.Fatalf("expected navigations %v, got %v", testCase.expectedNavigations, actualNavigations)
			}
			for index := range actualNavigations {
				if actualNavigations[index] != testCase.expectedNavigations[index] {
					t.Fatalf("expected navigations %v, got %v", testCase.expectedNavigations, actualNavigations)
				}
			}
		})
	}
}

func duplicateProfiles(statuses ...profiles.Status) []profiles.AnalyzedProfile {
	usernames := []string{"alice", "Alice", "bob", "bob"}
	analyzedProfiles := make([]profiles.AnalyzedProfile, 0, len(statuses))
	for index, status := range statuses {
		username := usernames[index]
		analyzedProfiles = append(analyzedProfiles, profiles.AnalyzedProfile{
			ID:         "dfb-" + strings.ToLower(username),
			Username:   username,
			ProfileURL: profiles.CanonicalURL(username),
			Type:       profiles.RelationshipDontFollowBack,
			Status:     status,
		})
	}
	return analyzedProfiles
}

func TestReduceAppliesToEveryDuplicate(t *testing.T) {
	testCases := []struct {
		name                string
		initial             []profiles.Status
		operation           actionqueue.Operation
		expectedStatuses    []profiles.Status
		expectedNavigations []string
		expectedChanged     bool
	}{
		{
			name:                "open visits every copy and navigates once",
			initial:             []profiles.Status{pending, pending, pending, pending},
			operation:           actionqueue.Open("dfb-alice"),
			expectedStatuses:    []profiles.Status{visited, visited, pending, pending},
			expectedNavigations: []string{"dfb-alice"},
			expectedChanged:     true,
		},
		{
			name:             "mark done moves every copy",
			initial:          []profiles.Status{pending, visited, pending, pending},
			operation:        actionqueue.MarkDone("dfb-alice"),
			expectedStatuses: []profiles.Status{done, done, pending, pending},
			expectedChanged:  true,
		},
		{
			name:             "undo moves every copy",
			initial:          []profiles.Status{done, done, done, pending},
			operation:        actionqueue.Undo("dfb-bob"),
			expectedStatuses: []profiles.Status{done, done, pending, pending},
			expectedChanged:  true,
		},
		{
			name:                "batch limit between duplicates visits the whole id",
			initial:             []profiles.Status{pending, pending, pending, pending},
			operation:           actionqueue.BatchOpen(1),
			expectedStatuses:    []profiles.Status{visited, visited, pending, pending},
			expectedNavigations: []string{"dfb-alice"},
			expectedChanged:     true,
		},
		{
			name:                "batch limit after a duplicate pair reaches the next id",
			initial:             []profiles.Status{pending, pending, pending, pending},
			operation:           actionqueue.BatchOpen(3),
			expectedStatuses:    []profiles.Status{visited, visited, visited, visited},
			expectedNavigations: []string{"dfb-alice", "dfb-bob"},
			expectedChanged:     true,
		},
	}

	for _, testCase := range testCases {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			result := actionqueue.Reduce(duplicateProfiles(testCase.initial...), testCase.operation)
			assertStatuses(t, statusesOf(result.Profiles), testCase.expectedStatuses)
			if result.Changed != testCase.expectedChanged {
				t.Fatalf("expected changed=%t, got %t", testCase.expectedChanged, result.Changed)
			}
			actualNavigations := navigationIDs(result.Navigations)
			if strings.Join(actualNavigations, ",") != strings.Join(testCase.expectedNavigations, ",") {
				t.Fatalf("expected navigations %v, got %v", testCase.expectedNavigations, actualNavigations)
			}
		})
	}
}

func TestReduceOpenTwiceTransitionsOnce(t *testing.T) {
	first := actionqueue.Reduce(queueProfiles(pending), actionqueue.Open("dfb-alice"))
	second := actionqueue.Reduce(first.Profiles, actionqueue.Open("dfb-alice"))

	if !first.Changed || second.Changed {
		t.Fatalf("expected exactly one transition, got first=%t second=%t", first.Changed, second.Changed)
	}
	if second.Profiles[0].Status != visited {
		t.Fatalf("expected visited, got %s", second.Profiles[0].Status)
	}
	if len(second.Navigations) != 1 {
		t.Fatalf("expected the second open to navigate again")
	}
}

func TestBatchOpenThenBatchMarkDone(t *testing.T) {
	initial := queueProfiles(done, pending, pending, pending, visited)
	opened := actionqueue.Reduce(initial, actionqueue.BatchOpen(2))
	completed := actionqueue.Reduce(opened.Profiles, actionqueue.BatchMarkDone())

	assertStatuses(t, statusesOf(completed.Profiles), []profiles.Status{done, done, done, pending, done})
}

func TestReduceNavigationCarriesProfileURL(t *testing.T) {
	result := actionqueue.Reduce(queueProfiles(pending), actionqueue.Open("dfb-alice"))
	if len(result.Navigations) != 1 || result.Navigations[0].ProfileURL != "https://www.instagram.com/alice/" {
		t.Fatalf("unexpected navigations: %+v", result.Navigations)
	}
}

func TestOperationValidate(t *testing.T) {
	testCases := []struct {
		name          string
		operation     actionqueue.Operation
		expectedError error
	}{
		{name: "open", operation: actionqueue.Open("dfb-alice")},
		{name: "batch", operation: actionqueue.BatchMarkDone()},
		{name: "missing id", operation: actionqueue.Operation{Kind: actionqueue.OperationUndo}, expectedError: actionqueue.ErrMissingProfileID},
		{name: "unknown kind", operation: actionqueue.Operation{Kind: "skip"}, expectedError: actionqueue.ErrUnknownOperation},
	}

	for _, testCase := range testCases {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			err := testCase.operation.Validate()
			if testCase.expectedError == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, testCase.expectedError) {
				t.Fatalf("expected %v, got %v", testCase.expectedError, err)
			}
		})
	}
}

func assertStatuses(t *testing.T, actual []profiles.Status, expected []profiles.Status) {
	t.Helper()
	if len(actual) != len(expected) {
		t.Fatalf("status length mismatch: got %v, want %v", actual, expected)
	}
	for index := range actual {
		if actual[index] != expected[index] {
			t.Fatalf("statuses = %v, want %v", actual, expected)
		}
	}
}
