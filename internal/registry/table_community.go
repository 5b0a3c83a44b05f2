package registry

import (
	"simeval/domain/event"
	"simeval/domain/measurement"
)

// CommunityTable holds the community-level measurements.
func CommunityTable() Table {
	community := func(id, question string, entity measurement.EntityType, computation string, args measurement.Args, bindings ...measurement.Binding) measurement.Spec {
		return measurement.Spec{
			ID:          id,
			QuestionRef: question,
			Scale:       measurement.ScaleCommunity,
			EntityType:  entity,
			Computation: computation,
			Args:        args,
			Metrics:     bindings,
		}
	}
	contributions := measurement.Args{EventTypes: event.ContributionEvents()}
	allActivity := measurement.Args{EventTypes: join(event.ContributionEvents(), event.PopularityEvents())}
	none := measurement.Args{}

	return Table{
		Name: "community",
		Specs: []measurement.Spec{
			community("community_gini", "6", measurement.EntityRepo, "getCommunityGini", contributions,
				absoluteDifference()),
			community("community_palma", "6", measurement.EntityRepo, "getCommunityPalma", contributions,
				absoluteDifference()),
			community("community_geo_locations", "21", measurement.EntityUser, "userGeoLocation", contributions,
				jsDivergence(false)),
			community("community_event_proportions", "7", measurement.EntityRepo, "getProportion", allActivity,
				jsDivergence(true)),
			community("community_contributing_users", "20", measurement.EntityUser, "contributingUsers", none,
				absoluteDifference()),
			community("community_num_user_actions", "23", measurement.EntityUser, "getNumUserActions", contributions,
				rmseOuter(), dtw(), jsDivergence(false)),
			community("community_burstiness", "9", measurement.EntityRepo, "burstsInCommunityEvents", allActivity,
				absoluteDifference()),
			community("community_user_burstiness", "", measurement.EntityUser, "getUserBurstByCommunity", none,
				ksTest()),
			community("community_issue_types", "8", measurement.EntityRepo, "propIssueEvent", none,
				rmseOuter(), jsDivergence(true)),
			community("community_user_account_ages", "10", measurement.EntityUser, "ageOfAccounts", none,
				ksTest()),
		},
	}
}
