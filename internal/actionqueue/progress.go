package actionqueue

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/f-sync/followqueue/internal/profiles"
)

const errMessageUnknownFilter = "unknown profile filter"

// ErrUnknownFilter indicates that a filter label is not recognized.
var ErrUnknownFilter = errors.New(errMessageUnknownFilter)

// Filter is a read-side projection over queue profiles.
type Filter string

const (
	FilterAll     Filter = "all"
	FilterDone    Filter = "done"
	FilterNotDone Filter = "not_done"
)

// ParseFilter accepts "all", "done", "not_done" and "pending", which is the
// not-done view under its display label. An empty label selects not-done.
func ParseFilter(label string) (Filter, error) {
	normalized := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(label)), "-", "_")
	switch normalized {
	case "", string(FilterNotDone), string(profiles.StatusPending):
		return FilterNotDone, nil
	case string(FilterAll):
		return FilterAll, nil
	case string(FilterDone):
		return FilterDone, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFilter, label)
}

// Matches reports whether a profile passes the filter.
func (filter Filter) Matches(profile profiles.AnalyzedProfile) bool {
	switch filter {
	case FilterDone:
		return profile.Status == profiles.StatusDone
	case FilterNotDone:
		return profile.Status != profiles.StatusDone
	default:
		return true
	}
}

// FilterProfiles returns the profiles passing the filter in their original order.
func FilterProfiles(analyzedProfiles []profiles.AnalyzedProfile, filter Filter) []profiles.AnalyzedProfile {
	filtered := make([]profiles.AnalyzedProfile, 0, len(analyzedProfiles))
	for _, profile := range analyzedProfiles {
		if filter.Matches(profile) {
			filtered = append(filtered, profile)
		}
	}
	return filtered
}

// Progress summarizes a queue. PendingCount counts every profile that is not done;
// UntouchedCount counts only profiles still pending and sizes the next batch.
type Progress struct {
	Total           int `json:"total"`
	PendingCount    int `json:"pendingCount"`
	VisitedCount    int `json:"visitedCount"`
	DoneCount       int `json:"doneCount"`
	UntouchedCount  int `json:"untouchedCount"`
	ProgressPercent int `json:"progressPercent"`
}

// Measure derives progress metrics for the profiles.
func Measure(analyzedProfiles []profiles.AnalyzedProfile) Progress {
	progress := Progress{Total: len(analyzedProfiles)}
	for _, profile := range analyzedProfiles {
		switch profile.Status {
		case profiles.StatusDone:
			progress.DoneCount++
		case profiles.StatusVisited:
			progress.VisitedCount++
		case profiles.StatusPending:
			progress.UntouchedCount++
		}
	}
	progress.PendingCount = progress.Total - progress.DoneCount
	if progress.Total > 0 {
		progress.ProgressPercent = int(math.Round(float64(progress.DoneCount) / float64(progress.Total) * 100))
	}
	return progress
}

// NextBatchSize reports how many profiles a batch open with the given limit would visit.
func (progress Progress) NextBatchSize(limit int) int {
	if limit <= 0 {
		return 0
	}
	return min(limit, progress.UntouchedCount)
}
