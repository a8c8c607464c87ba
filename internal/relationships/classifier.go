package relationships

import (
	"strings"

	"github.com/f-sync/followqueue/internal/profiles"
)

const (
	idTagMutual         = "mut"
	idTagFan            = "fan"
	idTagDontFollowBack = "dfb"
	idSeparator         = "-"
)

// membershipIndex maps lower-cased usernames to the first record carrying them.
type membershipIndex map[string]profiles.BaseProfile

func newMembershipIndex(baseProfiles []profiles.BaseProfile) membershipIndex {
	index := make(membershipIndex, len(baseProfiles))
	for _, profile := range baseProfiles {
		key := normalizeUsername(profile.Username)
		if _, exists := index[key]; !exists {
			index[key] = profile
		}
	}
	return index
}

func (index membershipIndex) contains(username string) bool {
	_, exists := index[normalizeUsername(username)]
	return exists
}

// Classify partitions the two lists into mutual, dont_follow_back and fan profiles.
// Following-derived profiles come first in following order, then fans in followers
// order. Every profile starts pending and keeps the casing of its own source record.
func Classify(followers []profiles.BaseProfile, following []profiles.BaseProfile) []profiles.AnalyzedProfile {
	followerIndex := newMembershipIndex(followers)
	followingIndex := newMembershipIndex(following)

	classified := make([]profiles.AnalyzedProfile, 0, len(following)+len(followers))
	for _, profile := range following {
		relationshipType := profiles.RelationshipDontFollowBack
		if followerIndex.contains(profile.Username) {
			relationshipType = profiles.RelationshipMutual
		}
		classified = append(classified, newAnalyzedProfile(profile, relationshipType))
	}
	for _, profile := range followers {
		if followingIndex.contains(profile.Username) {
			continue
		}
		classified = append(classified, newAnalyzedProfile(profile, profiles.RelationshipFan))
	}
	return classified
}

// Analyze classifies both lists and wraps the result in a fresh AppState.
func Analyze(followers []profiles.BaseProfile, following []profiles.BaseProfile) profiles.AppState {
	return profiles.NewAppState(Classify(followers, following))
}

// ProfileID derives the stable identifier of a classified profile.
func ProfileID(relationshipType profiles.RelationshipType, username string) string {
	return idTag(relationshipType) + idSeparator + normalizeUsername(username)
}

func newAnalyzedProfile(profile profiles.BaseProfile, relationshipType profiles.RelationshipType) profiles.AnalyzedProfile {
	return profiles.AnalyzedProfile{
		ID:         ProfileID(relationshipType, profile.Username),
		Username:   profile.Username,
		ProfileURL: profile.ProfileURL,
		Type:       relationshipType,
		Status:     profiles.StatusPending,
	}
}

func idTag(relationshipType profiles.RelationshipType) string {
	switch relationshipType {
	case profiles.RelationshipMutual:
		return idTagMutual
	case profiles.RelationshipFan:
		return idTagFan
	default:
		return idTagDontFollowBack
	}
}

func normalizeUsername(username string) string {
	return strings.ToLower(username)
}
