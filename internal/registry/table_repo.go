package registry

import (
	"simeval/domain/event"
	"simeval/domain/measurement"
)

// RepoTable holds the repository-centric measurements.
func RepoTable() Table {
	repo := func(id, question string, scale measurement.Scale, computation string, args measurement.Args, bindings ...measurement.Binding) measurement.Spec {
		return measurement.Spec{
			ID:          id,
			QuestionRef: question,
			Scale:       scale,
			EntityType:  measurement.EntityRepo,
			Computation: computation,
			Args:        args,
			Metrics:     bindings,
		}
	}
	events := func(types ...string) measurement.Args {
		return measurement.Args{EventTypes: types}
	}
	contributions := events(event.ContributionEvents()...)
	topK := func(eventType string) measurement.Args {
		return measurement.Args{K: 5000, EventTypes: []string{eventType}}
	}

	disparity := func(id, computation, eventType string) measurement.Spec {
		return repo(id, "14", measurement.ScalePopulation, computation, events(eventType), absoluteDifference())
	}
	eventCounts := func(id, eventType string) measurement.Spec {
		return repo(id, "11", measurement.ScalePopulation, "getDistributionOfEventsByRepo", events(eventType),
			jsDivergence(false), rmse(), r2())
	}

	giniPush := disparity("repo_activity_disparity_gini_push", "getGiniCoef", event.PushEvent)
	giniPush.Filters = map[string]any{"event": []string{event.PushEvent}}

	trustingness := repo("repo_trustingness", "15", measurement.ScalePopulation, "getRepoPullRequestAcceptance",
		measurement.Args{}, ksTest())
	trustingness.Filters = map[string]any{"event": event.PullRequestEvent}

	return Table{
		Name: "repo",
		Specs: []measurement.Spec{
			repo("repo_diffusion_delay", "1", measurement.ScaleNode, "getRepoDiffusionDelay", events(event.PopularityEvents()...),
				ksTest(), jsDivergence(false)),
			repo("repo_growth", "2", measurement.ScaleNode, "getRepoGrowth", contributions,
				rmseOuter(), dtw()),
			repo("repo_contributors", "4", measurement.ScaleNode, "getContributions", contributions,
				rmseOuter(), dtw()),
			repo("repo_event_distribution_daily", "5", measurement.ScaleNode, "getDistributionOfEvents", measurement.Args{},
				jsDivergence(true)),
			repo("repo_event_distribution_dayofweek", "5", measurement.ScaleNode, "getDistributionOfEvents", measurement.Args{Weekday: true},
				jsDivergence(true)),
			repo("repo_popularity_distribution", "12", measurement.ScalePopulation, "getDistributionOfEventsByRepo", events(event.WatchEvent),
				jsDivergence(false), rmse(), r2()),
			repo("repo_popularity_topk", "12", measurement.ScalePopulation, "getTopKRepos", topK(event.WatchEvent),
				rbo(0.999)),
			repo("repo_liveliness_distribution", "13", measurement.ScalePopulation, "getDistributionOfEventsByRepo", events(event.ForkEvent),
				jsDivergence(false), rmse(), r2()),
			repo("repo_liveliness_topk", "13", measurement.ScalePopulation, "getTopKRepos", topK(event.ForkEvent),
				rbo(0.999)),
			disparity("repo_activity_disparity_gini_fork", "getGiniCoef", event.ForkEvent),
			disparity("repo_activity_disparity_palma_fork", "getPalmaCoef", event.ForkEvent),
			giniPush,
			disparity("repo_activity_disparity_palma_push", "getPalmaCoef", event.PushEvent),
			disparity("repo_activity_disparity_gini_pullrequest", "getGiniCoef", event.PullRequestEvent),
			disparity("repo_activity_disparity_palma_pullrequest", "getPalmaCoef", event.PullRequestEvent),
			disparity("repo_activity_disparity_gini_issue", "getGiniCoef", event.IssuesEvent),
			disparity("repo_activity_disparity_palma_issue", "getPalmaCoef", event.IssuesEvent),
			trustingness,
			repo("repo_issue_to_push", "31", measurement.ScaleNode, "getIssueVsPushProbability", contributions,
				rmse()),
			eventCounts("repo_event_counts_issue", event.IssuesEvent),
			eventCounts("repo_event_counts_pull_request", event.PullRequestEvent),
			eventCounts("repo_event_counts_push", event.PushEvent),
			repo("repo_user_continue_prop", "30", measurement.ScaleNode, "propUserContinue", contributions,
				rmse()),
		},
	}
}
