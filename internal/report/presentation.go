package report

import "github.com/f-sync/followqueue/internal/profiles"

const (
	sectionTitleMutual           = "Mutuals"
	sectionTitleFan              = "Fans"
	sectionTitleDontFollowBack   = "Don't Follow Back"
	sectionSummaryMutual         = "You follow each other."
	sectionSummaryFan            = "They follow you; you don't follow them."
	sectionSummaryDontFollowBack = "You follow them; they don't follow you."
	statusLabelPending           = "Pending"
	statusLabelVisited           = "Visited"
	statusLabelDone              = "Done"
	badgeClassPending            = "badge badge-pending"
	badgeClassVisited            = "badge badge-visited"
	badgeClassDone               = "badge badge-done"
)

type sectionCopy struct {
	Title   string
	Summary string
}

var sectionCopyByType = map[profiles.RelationshipType]sectionCopy{
	profiles.RelationshipMutual:         {Title: sectionTitleMutual, Summary: sectionSummaryMutual},
	profiles.RelationshipFan:            {Title: sectionTitleFan, Summary: sectionSummaryFan},
	profiles.RelationshipDontFollowBack: {Title: sectionTitleDontFollowBack, Summary: sectionSummaryDontFollowBack},
}

func statusLabel(status profiles.Status) string {
	switch status {
	case profiles.StatusVisited:
		return statusLabelVisited
	case profiles.StatusDone:
		return statusLabelDone
	default:
		return statusLabelPending
	}
}

func statusBadgeClass(status profiles.Status) string {
	switch status {
	case profiles.StatusVisited:
		return badgeClassVisited
	case profiles.StatusDone:
		return badgeClassDone
	default:
		return badgeClassPending
	}
}
