package profiles

import (
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// Search returns the profiles whose usernames fuzzily match the query, closest first.
// Ties keep their original order. An empty query returns the input unchanged.
func Search(analyzedProfiles []AnalyzedProfile, query string) []AnalyzedProfile {
	trimmedQuery := strings.TrimPrefix(strings.TrimSpace(query), handlePrefix)
	if trimmedQuery == "" {
		return analyzedProfiles
	}

	usernames := make([]string, len(analyzedProfiles))
	for index, profile := range analyzedProfiles {
		usernames[index] = profile.Username
	}

	ranks := fuzzy.RankFindNormalizedFold(trimmedQuery, usernames)
	sort.SliceStable(ranks, func(firstIndex, secondIndex int) bool {
		if ranks[firstIndex].Distance != ranks[secondIndex].Distance {
			return ranks[firstIndex].Distance < ranks[secondIndex].Distance
		}
		return ranks[firstIndex].OriginalIndex < ranks[secondIndex].OriginalIndex
	})

	matches := make([]AnalyzedProfile, 0, len(ranks))
	for _, rank := range ranks {
		matches = append(matches, analyzedProfiles[rank.OriginalIndex])
	}
	return matches
}
