package events

import (
	"context"
	"time"

	"simeval/domain/event"
	"simeval/domain/measurement"
)

// repoNodes groups events by repository, limited to the interested repos.
func (m *Measurements) repoNodes(args measurement.Args, fn func([]event.Event) any) *measurement.Keyed {
	groups := groupBy(m.filter(args.EventTypes), byRepo)
	out := measurement.NewKeyed()
	for _, repo := range selectKeys(groups.keys, m.interestedRepos) {
		out.Set(repo, fn(groups.groups[repo]))
	}
	return out
}

// repoDiffusionDelay is, per repo, the hours from its first observed event
// to each selected event.
func (m *Measurements) repoDiffusionDelay(_ context.Context, args measurement.Args) (measurement.Result, error) {
	return m.repoNodes(args, func(events []event.Event) any {
		out := make(measurement.Sample, len(events))
		for i, e := range events {
			out[i] = e.Time.Sub(m.repoFirstSeen[e.Repo]).Hours()
		}
		return out
	}), nil
}

// repoGrowth is the cumulative daily event count per repo.
func (m *Measurements) repoGrowth(_ context.Context, args measurement.Args) (measurement.Result, error) {
	return m.repoNodes(args, func(events []event.Event) any {
		return cumulative(dailyCounts(events))
	}), nil
}

// contributions is the cumulative number of distinct contributors per repo
// by day.
func (m *Measurements) contributions(_ context.Context, args measurement.Args) (measurement.Result, error) {
	return m.repoNodes(args, func(events []event.Event) any {
		seen := make(map[string]bool)
		newcomers := make(map[string]float64)
		for _, e := range events {
			if !seen[e.User] {
				seen[e.User] = true
				newcomers[e.Day()]++
			}
		}
		return cumulative(measurement.SeriesFromCounts(newcomers))
	}), nil
}

// distributionOfEvents is the per-repo event count by day, or by weekday
// when args.Weekday is set.
func (m *Measurements) distributionOfEvents(_ context.Context, args measurement.Args) (measurement.Result, error) {
	return m.repoNodes(args, func(events []event.Event) any {
		if !args.Weekday {
			return dailyCounts(events)
		}
		tally := make(map[string]float64)
		for _, e := range events {
			tally[e.Time.UTC().Weekday().String()]++
		}
		return measurement.SeriesFromCounts(tally)
	}), nil
}

// distributionOfEventsByRepo is the number of events per repo.
func (m *Measurements) distributionOfEventsByRepo(_ context.Context, args measurement.Args) (measurement.Result, error) {
	return countSample(m.filter(args.EventTypes), byRepo), nil
}

// topKRepos ranks repos by event count.
func (m *Measurements) topKRepos(_ context.Context, args measurement.Args) (measurement.Result, error) {
	return topK(m.filter(args.EventTypes), byRepo, args.K), nil
}

// repoPullRequestAcceptance is, per repo, the share of opened pull requests
// that were merged.
func (m *Measurements) repoPullRequestAcceptance(_ context.Context, args measurement.Args) (measurement.Result, error) {
	return acceptance(m.filter(args.EventTypes), byRepo), nil
}

// issueVsPushProbability is, per repo, the share of users filing an issue
// who later push to the same repo.
func (m *Measurements) issueVsPushProbability(_ context.Context, args measurement.Args) (measurement.Result, error) {
	return m.repoNodes(args, func(events []event.Event) any {
		firstIssue := make(map[string]time.Time)
		pushedAfter := make(map[string]bool)
		for _, e := range events {
			switch e.Type {
			case event.IssuesEvent:
				if _, ok := firstIssue[e.User]; !ok {
					firstIssue[e.User] = e.Time
				}
			case event.PushEvent:
				if t, ok := firstIssue[e.User]; ok && !e.Time.Before(t) {
					pushedAfter[e.User] = true
				}
			}
		}
		return ratio(float64(len(pushedAfter)), float64(len(firstIssue)))
	}), nil
}

// userContinueProportion is, per repo, the share of contributors active on
// more than one day.
func (m *Measurements) userContinueProportion(_ context.Context, args measurement.Args) (measurement.Result, error) {
	return m.repoNodes(args, func(events []event.Event) any {
		active := make(map[string]map[string]bool)
		for _, e := range events {
			if active[e.User] == nil {
				active[e.User] = make(map[string]bool)
			}
			active[e.User][e.Day()] = true
		}
		var continued float64
		for _, activeDays := range active {
			if len(activeDays) > 1 {
				continued++
			}
		}
		return ratio(continued, float64(len(active)))
	}), nil
}
