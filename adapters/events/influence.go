package events

import (
	"context"
	"math"

	"simeval/domain/event"
	"simeval/domain/measurement"
)

// teUsers is the pairwise transfer entropy between the most active users.
func (m *Measurements) teUsers(ctx context.Context, args measurement.Args) (measurement.Result, error) {
	return m.influence(ctx, m.filter(args.EventTypes), byUser)
}

// teRepos is the pairwise transfer entropy between the most active repos.
func (m *Measurements) teRepos(ctx context.Context, args measurement.Args) (measurement.Result, error) {
	return m.influence(ctx, m.filter(args.EventTypes), byRepo)
}

// teUserEvents is the transfer entropy between the event-type activity of
// the most active users, with nodes labelled "user:EventType". Pairs of the
// same user are skipped.
func (m *Measurements) teUserEvents(ctx context.Context, args measurement.Args) (measurement.Result, error) {
	events := m.filter(args.EventTypes)
	top := make(map[string]bool)
	for _, u := range topK(events, byUser, m.topN) {
		top[u] = true
	}
	var selected []event.Event
	for _, e := range events {
		if top[e.User] {
			selected = append(selected, e)
		}
	}

	groups := groupBy(selected, func(e event.Event) string { return e.User + ":" + e.Type })
	owner := func(node string) string {
		return groups.groups[node][0].User
	}
	return m.pairwise(ctx, groups, func(a, b string) bool { return owner(a) != owner(b) })
}

// influence ranks entities by activity, keeps the top N and scores every
// ordered pair.
func (m *Measurements) influence(ctx context.Context, events []event.Event, key func(event.Event) string) (measurement.Result, error) {
	top := make(map[string]bool)
	for _, k := range topK(events, key, m.topN) {
		top[k] = true
	}
	groups := newOrderedGroups()
	for _, e := range events {
		if k := key(e); top[k] {
			groups.add(k, e)
		}
	}
	return m.pairwise(ctx, groups, func(a, b string) bool { return a != b })
}

// pairwise scores each allowed ordered pair of groups. An edge carries the
// transfer entropy and the transfer entropy weighted by the source's event
// count.
func (m *Measurements) pairwise(ctx context.Context, groups *orderedGroups, allowed func(a, b string) bool) (measurement.Result, error) {
	window := days(m.start, m.end)
	activity := make(map[string][]bool, len(groups.keys))
	for _, k := range groups.keys {
		activity[k] = binarize(groups.groups[k], window)
	}

	out := measurement.Influence{}
	for _, src := range groups.keys {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for _, dst := range groups.keys {
			if !allowed(src, dst) {
				continue
			}
			te := transferEntropy(activity[src], activity[dst])
			out = append(out, measurement.InfluenceEdge{
				Source: src,
				Target: dst,
				Scores: []float64{te, te * float64(len(groups.groups[src]))},
			})
		}
	}
	return out, nil
}

// binarize marks the days of window on which events has activity.
func binarize(events []event.Event, window []string) []bool {
	active := make(map[string]bool)
	for _, e := range events {
		active[e.Day()] = true
	}
	out := make([]bool, len(window))
	for i, d := range window {
		out[i] = active[d]
	}
	return out
}

// transferEntropy is the discrete transfer entropy, in bits, from source to
// target with history length one.
func transferEntropy(source, target []bool) float64 {
	n := len(target) - 1
	if len(source) < len(target) {
		n = len(source) - 1
	}
	if n <= 0 {
		return 0
	}

	// joint[next][prev][src]
	var joint [2][2][2]float64
	for t := 0; t < n; t++ {
		joint[bit(target[t+1])][bit(target[t])][bit(source[t])]++
	}

	var te float64
	for next := 0; next < 2; next++ {
		for prev := 0; prev < 2; prev++ {
			for src := 0; src < 2; src++ {
				c := joint[next][prev][src]
				if c == 0 {
					continue
				}
				prevSrc := joint[0][prev][src] + joint[1][prev][src]
				nextPrev := joint[next][prev][0] + joint[next][prev][1]
				prevOnly := joint[0][prev][0] + joint[0][prev][1] + joint[1][prev][0] + joint[1][prev][1]
				te += c / float64(n) * math.Log2((c/prevSrc)/(nextPrev/prevOnly))
			}
		}
	}
	return te
}

func bit(b bool) int {
	if b {
		return 1
	}
	return 0
}
