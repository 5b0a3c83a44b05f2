package events

import (
	"context"

	"simeval/domain/event"
	"simeval/domain/measurement"
)

// communityGini is the Gini coefficient of per-repo activity in each
// community.
func (m *Measurements) communityGini(_ context.Context, args measurement.Args) (measurement.Result, error) {
	return m.perCommunity(args, func(events []event.Event) any {
		return gini(countSample(events, byRepo))
	}), nil
}

// communityPalma is the Palma ratio of per-repo activity in each community.
func (m *Measurements) communityPalma(_ context.Context, args measurement.Args) (measurement.Result, error) {
	return m.perCommunity(args, func(events []event.Event) any {
		return palma(countSample(events, byRepo))
	}), nil
}

// userGeoLocation is the number of events per user country in each
// community. Users without a known location count as "unknown".
func (m *Measurements) userGeoLocation(_ context.Context, args measurement.Args) (measurement.Result, error) {
	return m.perCommunity(args, func(events []event.Event) any {
		tally := make(map[string]float64)
		for _, e := range events {
			country, ok := m.locations[e.User]
			if !ok || country == "" {
				country = "unknown"
			}
			tally[country]++
		}
		return measurement.SeriesFromCounts(tally)
	}), nil
}

// eventProportions is the share of each event type in each community.
func (m *Measurements) eventProportions(_ context.Context, args measurement.Args) (measurement.Result, error) {
	return m.perCommunity(args, func(events []event.Event) any {
		return proportions(events, func(e event.Event) string { return e.Type })
	}), nil
}

// contributingUsers is the share of a community's active users who made at
// least one contribution rather than only watching or forking.
func (m *Measurements) contributingUsers(_ context.Context, args measurement.Args) (measurement.Result, error) {
	contribution := make(map[string]bool)
	for _, t := range event.ContributionEvents() {
		contribution[t] = true
	}
	return m.perCommunity(args, func(events []event.Event) any {
		users := make(map[string]bool)
		contributors := make(map[string]bool)
		for _, e := range events {
			users[e.User] = true
			if contribution[e.Type] {
				contributors[e.User] = true
			}
		}
		return ratio(float64(len(contributors)), float64(len(users)))
	}), nil
}

// numUserActions is the mean number of events per active user, by day.
func (m *Measurements) numUserActions(_ context.Context, args measurement.Args) (measurement.Result, error) {
	return m.perCommunity(args, func(events []event.Event) any {
		byDay := groupBy(events, func(e event.Event) string { return e.Day() })
		perUser := make(map[string]float64, len(byDay.keys))
		for _, day := range byDay.keys {
			dayEvents := byDay.groups[day]
			users := make(map[string]bool)
			for _, e := range dayEvents {
				users[e.User] = true
			}
			perUser[day] = float64(len(dayEvents)) / float64(len(users))
		}
		return measurement.SeriesFromCounts(perUser)
	}), nil
}

// communityBursts counts activity bursts in each community over the whole
// observation window.
func (m *Measurements) communityBursts(_ context.Context, args measurement.Args) (measurement.Result, error) {
	return m.perCommunity(args, func(events []event.Event) any {
		return bursts(events, m.start, m.end)
	}), nil
}

// userBurstiness is the burstiness of each community member's activity.
func (m *Measurements) userBurstiness(_ context.Context, args measurement.Args) (measurement.Result, error) {
	return m.perCommunity(args, func(events []event.Event) any {
		groups := groupBy(events, byUser)
		var out measurement.Sample
		for _, user := range groups.keys {
			if b, ok := burstiness(groups.groups[user]); ok {
				out = append(out, b)
			}
		}
		return out
	}), nil
}

// issueActionProportions is the share of each issue action (opened, closed,
// reopened) in each community.
func (m *Measurements) issueActionProportions(_ context.Context, args measurement.Args) (measurement.Result, error) {
	return m.perCommunity(args, func(events []event.Event) any {
		var issues []event.Event
		for _, e := range events {
			if e.Type == event.IssuesEvent {
				issues = append(issues, e)
			}
		}
		return proportions(issues, func(e event.Event) string {
			if e.Action == "" {
				return "unknown"
			}
			return e.Action
		})
	}), nil
}

// accountAges is, for every community member, the days between the user's
// first event anywhere in the stream and their last event in the
// community.
func (m *Measurements) accountAges(_ context.Context, args measurement.Args) (measurement.Result, error) {
	return m.perCommunity(args, func(events []event.Event) any {
		groups := groupBy(events, byUser)
		out := make(measurement.Sample, 0, len(groups.keys))
		for _, user := range groups.keys {
			userEvents := groups.groups[user]
			last := userEvents[len(userEvents)-1].Time
			out = append(out, last.Sub(m.userFirstSeen[user]).Hours()/24)
		}
		return out
	}), nil
}

func proportions(events []event.Event, key func(event.Event) string) measurement.Series {
	_, tally := counts(events, key)
	total := float64(len(events))
	for k := range tally {
		tally[k] /= total
	}
	return measurement.SeriesFromCounts(tally)
}
