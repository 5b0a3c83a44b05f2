package events

import (
	"context"
	"math"
	"strings"

	"simeval/domain/event"
	"simeval/domain/measurement"
)

// userUniqueRepos is the number of distinct repositories each user touched.
func (m *Measurements) userUniqueRepos(_ context.Context, args measurement.Args) (measurement.Result, error) {
	groups := groupBy(m.filter(args.EventTypes), byUser)
	out := make(measurement.Sample, 0, len(groups.keys))
	for _, user := range groups.keys {
		repos := make(map[string]bool)
		for _, e := range groups.groups[user] {
			repos[e.Repo] = true
		}
		out = append(out, float64(len(repos)))
	}
	return out, nil
}

// userActivityTimeline is the daily event count of every (interested) user.
func (m *Measurements) userActivityTimeline(_ context.Context, args measurement.Args) (measurement.Result, error) {
	groups := groupBy(m.filter(args.EventTypes), byUser)
	out := measurement.NewKeyed()
	for _, user := range selectKeys(groups.keys, m.interestedUsers) {
		out.Set(user, dailyCounts(groups.groups[user]))
	}
	return out, nil
}

// userActivityDistribution is the number of events per user.
func (m *Measurements) userActivityDistribution(_ context.Context, args measurement.Args) (measurement.Result, error) {
	return countSample(m.filter(args.EventTypes), byUser), nil
}

// mostActiveUsers ranks users by event count.
func (m *Measurements) mostActiveUsers(_ context.Context, args measurement.Args) (measurement.Result, error) {
	return topK(m.filter(args.EventTypes), byUser, args.K), nil
}

// userPopularity ranks repository owners by the watch and fork events their
// repositories received. The owner is the creator of the repository, or the
// owner part of an "owner/name" id when no creation was observed.
func (m *Measurements) userPopularity(_ context.Context, args measurement.Args) (measurement.Result, error) {
	var keys []string
	score := make(map[string]float64)
	for _, e := range m.filter(args.EventTypes) {
		if e.Type != event.WatchEvent && e.Type != event.ForkEvent {
			continue
		}
		owner := m.owner(e.Repo)
		if owner == "" {
			continue
		}
		if _, ok := score[owner]; !ok {
			keys = append(keys, owner)
		}
		score[owner]++
	}
	return rankByScore(keys, score, args.K), nil
}

func (m *Measurements) owner(repo string) string {
	if owner, ok := m.repoOwner[repo]; ok {
		return owner
	}
	if i := strings.Index(repo, "/"); i > 0 {
		return repo[:i]
	}
	return ""
}

// giniCoef is the Gini coefficient of event counts per user or per repo
// (the default).
func (m *Measurements) giniCoef(_ context.Context, args measurement.Args) (measurement.Result, error) {
	return gini(m.activityPerNode(args)), nil
}

// palmaCoef is the Palma ratio of event counts per user or per repo.
func (m *Measurements) palmaCoef(_ context.Context, args measurement.Args) (measurement.Result, error) {
	return palma(m.activityPerNode(args)), nil
}

func (m *Measurements) activityPerNode(args measurement.Args) []float64 {
	key := byRepo
	if args.NodeType == measurement.EntityUser {
		key = byUser
	}
	return countSample(m.filter(args.EventTypes), key)
}

// userDiffusionDelay is the delay in hours between a repository's first
// observed event and each user's first contribution to it.
func (m *Measurements) userDiffusionDelay(_ context.Context, args measurement.Args) (measurement.Result, error) {
	seen := make(map[[2]string]bool)
	var out measurement.Sample
	for _, e := range m.filter(args.EventTypes) {
		pair := [2]string{e.User, e.Repo}
		if seen[pair] {
			continue
		}
		seen[pair] = true
		out = append(out, e.Time.Sub(m.repoFirstSeen[e.Repo]).Hours())
	}
	return out, nil
}

// userPullRequestAcceptance is, per user, the share of opened pull requests
// that were merged.
func (m *Measurements) userPullRequestAcceptance(_ context.Context, args measurement.Args) (measurement.Result, error) {
	return acceptance(m.filter(args.EventTypes), byUser), nil
}

// acceptance computes merged/opened pull requests per key. Keys without an
// opened pull request are skipped.
func acceptance(events []event.Event, key func(event.Event) string) measurement.Sample {
	var keys []string
	seen := make(map[string]bool)
	opened := make(map[string]float64)
	merged := make(map[string]float64)
	for _, e := range events {
		if e.Type != event.PullRequestEvent {
			continue
		}
		k := key(e)
		if !seen[k] {
			seen[k] = true
			keys = append(keys, k)
		}
		switch e.Action {
		case event.ActionOpened:
			opened[k]++
		case event.ActionMerged:
			merged[k]++
		}
	}
	var out measurement.Sample
	for _, k := range keys {
		if opened[k] == 0 {
			continue
		}
		out = append(out, math.Min(1, merged[k]/opened[k]))
	}
	return out
}
