package actionqueue

import (
	"errors"
	"fmt"

	"github.com/f-sync/followqueue/internal/profiles"
)

const (
	// DefaultBatchSize is the number of pending profiles opened by one batch.
	DefaultBatchSize = 25

	errMessageUnknownOperation = "unknown queue operation"
	errMessageMissingProfileID = "queue operation requires a profile id"
)

var (
	// ErrUnknownOperation indicates an operation kind the reducer does not handle.
	ErrUnknownOperation = errors.New(errMessageUnknownOperation)
	// ErrMissingProfileID indicates a single-profile operation without a target.
	ErrMissingProfileID = errors.New(errMessageMissingProfileID)
)

// OperationKind names a user action on the queue.
type OperationKind string

const (
	OperationOpen          OperationKind = "open"
	OperationMarkDone      OperationKind = "mark_done"
	OperationUndo          OperationKind = "undo"
	OperationBatchOpen     OperationKind = "batch_open"
	OperationBatchMarkDone OperationKind = "batch_mark_done"
)

// Operation is a single user action.
type Operation struct {
	Kind      OperationKind
	ProfileID string
	Limit     int
}

// Open visits one profile.
func Open(profileID string) Operation {
	return Operation{Kind: OperationOpen, ProfileID: profileID}
}

// MarkDone completes one profile.
func MarkDone(profileID string) Operation {
	return Operation{Kind: OperationMarkDone, ProfileID: profileID}
}

// Undo resets one profile to pending.
func Undo(profileID string) Operation {
	return Operation{Kind: OperationUndo, ProfileID: profileID}
}

// BatchOpen visits up to limit pending profiles.
func BatchOpen(limit int) Operation {
	return Operation{Kind: OperationBatchOpen, Limit: limit}
}

// BatchMarkDone completes every visited profile.
func BatchMarkDone() Operation {
	return Operation{Kind: OperationBatchMarkDone}
}

// Validate reports malformed operations.
func (operation Operation) Validate() error {
	switch operation.Kind {
	case OperationOpen, OperationMarkDone, OperationUndo:
		if operation.ProfileID == "" {
			return fmt.Errorf("%w: %s", ErrMissingProfileID, operation.Kind)
		}
		return nil
	case OperationBatchOpen, OperationBatchMarkDone:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownOperation, operation.Kind)
	}
}

// Navigation is a request to show a profile to the user.
type Navigation struct {
	ProfileID  string `json:"profileId"`
	ProfileURL string `json:"profileUrl"`
}

// Result is the outcome of reducing one operation.
type Result struct {
	Profiles    []profiles.AnalyzedProfile
	Navigations []Navigation
	Changed     bool
}

// Reduce computes the profiles that follow from applying operation to current.
// The input slice is never modified. Unknown profile ids and invalid operations
// leave the profiles unchanged. Single-profile operations apply to every profile
// carrying the id, and a batch visits every copy of the ids it selects while
// navigating to each id once.
func Reduce(current []profiles.AnalyzedProfile, operation Operation) Result {
	next := make([]profiles.AnalyzedProfile, len(current))
	copy(next, current)
	result := Result{Profiles: next}

	switch operation.Kind {
	case OperationOpen:
		index := indexOf(next, operation.ProfileID)
		if index < 0 {
			return result
		}
		result.Navigations = []Navigation{navigationFor(next[index])}
		result.Changed = visitPending(next, map[string]bool{operation.ProfileID: true})
	case OperationMarkDone:
		result.Changed = setStatus(next, operation.ProfileID, profiles.StatusDone)
	case OperationUndo:
		result.Changed = setStatus(next, operation.ProfileID, profiles.StatusPending)
	case OperationBatchOpen:
		if operation.Limit <= 0 {
			return result
		}
		selectedIDs := make(map[string]bool, min(operation.Limit, len(next)))
		selectedCount := 0
		for _, profile := range next {
			if selectedCount == operation.Limit {
				break
			}
			if profile.Status != profiles.StatusPending {
				continue
			}
			selectedCount++
			if !selectedIDs[profile.ID] {
				selectedIDs[profile.ID] = true
				result.Navigations = append(result.Navigations, navigationFor(profile))
			}
		}
		result.Changed = visitPending(next, selectedIDs)
	case OperationBatchMarkDone:
		for index := range next {
			if next[index].Status == profiles.StatusVisited {
				next[index].Status = profiles.StatusDone
				result.Changed = true
			}
		}
	}
	return result
}

// setStatus moves every profile carrying profileID to status. Duplicate source rows
// share an id and always move together.
func setStatus(analyzedProfiles []profiles.AnalyzedProfile, profileID string, status profiles.Status) bool {
	changed := false
	for index := range analyzedProfiles {
		if analyzedProfiles[index].ID == profileID && analyzedProfiles[index].Status != status {
			analyzedProfiles[index].Status = status
			changed = true
		}
	}
	return changed
}

// visitPending marks every pending profile whose id is selected as visited.
func visitPending(analyzedProfiles []profiles.AnalyzedProfile, selectedIDs map[string]bool) bool {
	changed := false
	for index := range analyzedProfiles {
		if selectedIDs[analyzedProfiles[index].ID] && analyzedProfiles[index].Status == profiles.StatusPending {
			analyzedProfiles[index].Status = profiles.StatusVisited
			changed = true
		}
	}
	return changed
}

func indexOf(analyzedProfiles []profiles.AnalyzedProfile, profileID string) int {
	for index, profile := range analyzedProfiles {
		if profile.ID == profileID {
			return index
		}
	}
	return -1
}

func navigationFor(profile profiles.AnalyzedProfile) Navigation {
	return Navigation{ProfileID: profile.ID, ProfileURL: profile.ProfileURL}
}
