package actionqueue

import (
	"strings"

	"github.com/f-sync/followqueue/internal/profiles"
)

const scopeLabelAll = "all"

// Scope restricts the queue to one relationship type. The zero value covers every profile.
type Scope struct {
	Type profiles.RelationshipType
}

// AllProfiles is the unrestricted scope.
var AllProfiles = Scope{}

// ScopeOf restricts the queue to a single relationship type.
func ScopeOf(relationshipType profiles.RelationshipType) Scope {
	return Scope{Type: relationshipType}
}

// ParseScope accepts "all", an empty label, or any relationship type label.
func ParseScope(label string) (Scope, error) {
	trimmedLabel := strings.TrimSpace(label)
	if trimmedLabel == "" || strings.EqualFold(trimmedLabel, scopeLabelAll) {
		return AllProfiles, nil
	}
	relationshipType, err := profiles.ParseRelationshipType(trimmedLabel)
	if err != nil {
		return Scope{}, err
	}
	return ScopeOf(relationshipType), nil
}

// Includes reports whether the profile belongs to the scope.
func (scope Scope) Includes(profile profiles.AnalyzedProfile) bool {
	return scope.Type == "" || profile.Type == scope.Type
}

// String returns the scope label.
func (scope Scope) String() string {
	if scope.Type == "" {
		return scopeLabelAll
	}
	return string(scope.Type)
}

// Select returns the profiles inside the scope in state order.
func (scope Scope) Select(analyzedProfiles []profiles.AnalyzedProfile) []profiles.AnalyzedProfile {
	selected := make([]profiles.AnalyzedProfile, 0, len(analyzedProfiles))
	for _, profile := range analyzedProfiles {
		if scope.Includes(profile) {
			selected = append(selected, profile)
		}
	}
	return selected
}

// ApplyToState reduces the operation over the profiles inside scope and merges the
// updated profiles back by position within the scope. Profiles outside the scope are
// untouched and the returned state carries freshly derived stats.
func ApplyToState(state profiles.AppState, scope Scope, operation Operation) (profiles.AppState, Result) {
	result := Reduce(scope.Select(state.Profiles), operation)
	if !result.Changed {
		return profiles.NewAppState(state.Profiles), result
	}

	merged := make([]profiles.AnalyzedProfile, len(state.Profiles))
	scopedIndex := 0
	for index, profile := range state.Profiles {
		if !scope.Includes(profile) {
			merged[index] = profile
			continue
		}
		merged[index] = result.Profiles[scopedIndex]
		scopedIndex++
	}
	return profiles.NewAppState(merged), result
}
