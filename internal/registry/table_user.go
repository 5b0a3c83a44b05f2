package registry

import (
	"simeval/domain/event"
	"simeval/domain/measurement"
)

// UserTable holds the user-centric measurements.
func UserTable() Table {
	user := func(id, question string, scale measurement.Scale, computation string, args measurement.Args, bindings ...measurement.Binding) measurement.Spec {
		return measurement.Spec{
			ID:          id,
			QuestionRef: question,
			Scale:       scale,
			EntityType:  measurement.EntityUser,
			Computation: computation,
			Args:        args,
			Metrics:     bindings,
		}
	}
	contributions := measurement.Args{EventTypes: event.ContributionEvents()}
	allActivity := measurement.Args{EventTypes: join(event.ContributionEvents(), event.PopularityEvents())}
	absDiff := measurement.Binding{Name: "absolute difference", Metric: "absolute_difference"}

	return Table{
		Name: "user",
		Specs: []measurement.Spec{
			user("user_unique_repos", "17", measurement.ScalePopulation, "getUserUniqueRepos", contributions,
				jsDivergence(false), rmse(), r2()),
			user("user_activity_timeline", "19", measurement.ScaleNode, "getUserActivityTimeline", contributions,
				rmse(), ksTest(), dtw()),
			user("user_activity_distribution", "24a", measurement.ScalePopulation, "getUserActivityDistribution", allActivity,
				rmse(), r2(), jsDivergence(true)),
			user("most_active_users", "24b", measurement.ScalePopulation, "getMostActiveUsers", allActivity,
				rbo(0.999)),
			user("user_popularity", "25", measurement.ScalePopulation, "getUserPopularity",
				measurement.Args{EventTypes: join(event.PopularityEvents(), []string{event.CreateEvent})},
				rbo(0.999)),
			user("user_gini_coef", "26a", measurement.ScalePopulation, "getGiniCoef",
				measurement.Args{NodeType: measurement.EntityUser, EventTypes: event.ContributionEvents()},
				absDiff),
			user("user_palma_coef", "26b", measurement.ScalePopulation, "getPalmaCoef",
				measurement.Args{NodeType: measurement.EntityUser, EventTypes: event.ContributionEvents()},
				absDiff),
			user("user_diffusion_delay", "27", measurement.ScalePopulation, "getUserDiffusionDelay", contributions,
				ksTest()),
			user("user_trustingness", "29", measurement.ScalePopulation, "getUserPullRequestAcceptance",
				measurement.Args{EventTypes: []string{event.PullRequestEvent}},
				ksTest()),
		},
	}
}
