package profiles

import (
	"errors"
	"fmt"
	"strings"
)

const (
	errMessageUnknownRelationship = "unknown relationship type"
	errMessageUnknownStatus       = "unknown profile status"
)

var (
	// ErrUnknownRelationship indicates that a relationship type label is not recognized.
	ErrUnknownRelationship = errors.New(errMessageUnknownRelationship)
	// ErrUnknownStatus indicates that a status label is not recognized.
	ErrUnknownStatus = errors.New(errMessageUnknownStatus)
)

// RelationshipType classifies a profile relative to the list owner.
type RelationshipType string

const (
	// RelationshipMutual marks a profile present in both lists.
	RelationshipMutual RelationshipType = "mutual"
	// RelationshipFan marks a follower the owner does not follow.
	RelationshipFan RelationshipType = "fan"
	// RelationshipDontFollowBack marks a followed profile that does not follow the owner.
	RelationshipDontFollowBack RelationshipType = "dont_follow_back"
)

// RelationshipTypes lists every relationship type in display order.
var RelationshipTypes = []RelationshipType{RelationshipMutual, RelationshipFan, RelationshipDontFollowBack}

// Status tracks a profile's progress through the manual follow/unfollow workflow.
type Status string

const (
	StatusPending Status = "pending"
	StatusVisited Status = "visited"
	StatusDone    Status = "done"
)

// BaseProfile is the minimal record produced by ingestion.
type BaseProfile struct {
	Username   string `json:"username"`
	ProfileURL string `json:"profileUrl"`
}

// AnalyzedProfile is a classified profile carrying its workflow status.
type AnalyzedProfile struct {
	ID         string           `json:"id"`
	Username   string           `json:"username"`
	ProfileURL string           `json:"profileUrl"`
	Type       RelationshipType `json:"type"`
	Status     Status           `json:"status"`
}

// RelationshipStats counts profiles per relationship type.
type RelationshipStats struct {
	Mutuals        int `json:"mutuals"`
	Fans           int `json:"fans"`
	DontFollowBack int `json:"dontFollowBack"`
}

// AppState is the unit of persistence. Build it with NewAppState so that Stats
// always matches Profiles.
type AppState struct {
	Profiles []AnalyzedProfile `json:"profiles"`
	Stats    RelationshipStats `json:"stats"`
}

// NewAppState copies the provided profiles and derives their stats.
func NewAppState(analyzedProfiles []AnalyzedProfile) AppState {
	copiedProfiles := make([]AnalyzedProfile, len(analyzedProfiles))
	copy(copiedProfiles, analyzedProfiles)
	return AppState{Profiles: copiedProfiles, Stats: ComputeStats(copiedProfiles)}
}

// ComputeStats counts the profiles in each relationship category.
func ComputeStats(analyzedProfiles []AnalyzedProfile) RelationshipStats {
	var stats RelationshipStats
	for _, profile := range analyzedProfiles {
		switch profile.Type {
		case RelationshipMutual:
			stats.Mutuals++
		case RelationshipFan:
			stats.Fans++
		case RelationshipDontFollowBack:
			stats.DontFollowBack++
		}
	}
	return stats
}

// Count returns the number of profiles of the given type.
func (stats RelationshipStats) Count(relationshipType RelationshipType) int {
	switch relationshipType {
	case RelationshipMutual:
		return stats.Mutuals
	case RelationshipFan:
		return stats.Fans
	case RelationshipDontFollowBack:
		return stats.DontFollowBack
	default:
		return 0
	}
}

// Total returns the number of classified profiles.
func (stats RelationshipStats) Total() int {
	return stats.Mutuals + stats.Fans + stats.DontFollowBack
}

// ProfileByID returns the profile with the given identifier.
func (state AppState) ProfileByID(profileID string) (AnalyzedProfile, bool) {
	for _, profile := range state.Profiles {
		if profile.ID == profileID {
			return profile, true
		}
	}
	return AnalyzedProfile{}, false
}

// ProfilesOfType returns the profiles of a single relationship type in state order.
func (state AppState) ProfilesOfType(relationshipType RelationshipType) []AnalyzedProfile {
	var matching []AnalyzedProfile
	for _, profile := range state.Profiles {
		if profile.Type == relationshipType {
			matching = append(matching, profile)
		}
	}
	return matching
}

// ParseRelationshipType converts a label such as "fan" or "dont-follow-back" into a RelationshipType.
func ParseRelationshipType(label string) (RelationshipType, error) {
	normalized := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(label)), "-", "_")
	for _, relationshipType := range RelationshipTypes {
		if normalized == string(relationshipType) {
			return relationshipType, nil
		}
	}
	switch normalized {
	case "mutuals":
		return RelationshipMutual, nil
	case "fans":
		return RelationshipFan, nil
	case "dfb", "unfollow":
		return RelationshipDontFollowBack, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownRelationship, label)
}

// ParseStatus converts a label into a Status.
func ParseStatus(label string) (Status, error) {
	switch Status(strings.ToLower(strings.TrimSpace(label))) {
	case StatusPending:
		return StatusPending, nil
	case StatusVisited:
		return StatusVisited, nil
	case StatusDone:
		return StatusDone, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownStatus, label)
}
