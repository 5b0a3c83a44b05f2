// Package events loads platform event streams and derives the measurements
// the evaluation registry compares.
package events

import (
	"sort"
	"time"

	"simeval/domain/event"
	"simeval/domain/measurement"
	"simeval/ports"
)

// defaultTopK bounds ranking computations when no k is given.
const defaultTopK = 5000

// Option configures Measurements.
type Option func(*Measurements)

// WithInterestedUsers limits user node measurements to users.
func WithInterestedUsers(users ...string) Option {
	return func(m *Measurements) { m.interestedUsers = users }
}

// WithInterestedRepos limits repository node measurements to repos.
func WithInterestedRepos(repos ...string) Option {
	return func(m *Measurements) { m.interestedRepos = repos }
}

// WithCommunities sets the community partition. Without it every repository
// belongs to DefaultCommunity.
func WithCommunities(communities []Community) Option {
	return func(m *Measurements) { m.communities = communities }
}

// WithUserLocations supplies user countries and enables userGeoLocation.
func WithUserLocations(locations map[string]string) Option {
	return func(m *Measurements) { m.locations = locations }
}

// WithTopN sets how many of the most active entities influence
// computations consider.
func WithTopN(n int) Option {
	return func(m *Measurements) {
		if n > 0 {
			m.topN = n
		}
	}
}

// Measurements is a read-only data source over one event stream. Derived
// indexes are built at construction, so it is safe for concurrent use.
type Measurements struct {
	events          []event.Event
	interestedUsers []string
	interestedRepos []string
	communities     []Community
	locations       map[string]string
	topN            int

	userFirstSeen map[string]time.Time
	repoFirstSeen map[string]time.Time
	repoOwner     map[string]string
	start, end    time.Time

	table ports.ComputationTable
}

// NewMeasurements indexes events (any order) and builds the computation
// table.
func NewMeasurements(events []event.Event, opts ...Option) *Measurements {
	sorted := append([]event.Event(nil), events...)
	sort.SliceStable(sorted, func(a, b int) bool { return sorted[a].Time.Before(sorted[b].Time) })

	m := &Measurements{events: sorted, topN: 10}
	for _, opt := range opts {
		opt(m)
	}
	if len(m.communities) == 0 {
		m.communities = []Community{{Name: DefaultCommunity}}
	}
	m.index()
	m.table = m.computations()
	return m
}

func (m *Measurements) index() {
	m.userFirstSeen = make(map[string]time.Time)
	m.repoFirstSeen = make(map[string]time.Time)
	m.repoOwner = make(map[string]string)
	for _, e := range m.events {
		if _, ok := m.userFirstSeen[e.User]; !ok {
			m.userFirstSeen[e.User] = e.Time
		}
		if _, ok := m.repoFirstSeen[e.Repo]; !ok {
			m.repoFirstSeen[e.Repo] = e.Time
		}
		if e.Type == event.CreateEvent {
			if _, ok := m.repoOwner[e.Repo]; !ok {
				m.repoOwner[e.Repo] = e.User
			}
		}
	}
	if len(m.events) > 0 {
		m.start = m.events[0].Time
		m.end = m.events[len(m.events)-1].Time
	}
}

func (m *Measurements) computations() ports.ComputationTable {
	table := ports.ComputationTable{
		// user
		"getUserUniqueRepos":           m.userUniqueRepos,
		"getUserActivityTimeline":      m.userActivityTimeline,
		"getUserActivityDistribution":  m.userActivityDistribution,
		"getMostActiveUsers":           m.mostActiveUsers,
		"getUserPopularity":            m.userPopularity,
		"getGiniCoef":                  m.giniCoef,
		"getPalmaCoef":                 m.palmaCoef,
		"getUserDiffusionDelay":        m.userDiffusionDelay,
		"getUserPullRequestAcceptance": m.userPullRequestAcceptance,
		// repo
		"getRepoDiffusionDelay":         m.repoDiffusionDelay,
		"getRepoGrowth":                 m.repoGrowth,
		"getContributions":              m.contributions,
		"getDistributionOfEvents":       m.distributionOfEvents,
		"getDistributionOfEventsByRepo": m.distributionOfEventsByRepo,
		"getTopKRepos":                  m.topKRepos,
		"getRepoPullRequestAcceptance":  m.repoPullRequestAcceptance,
		"getIssueVsPushProbability":     m.issueVsPushProbability,
		"propUserContinue":              m.userContinueProportion,
		// community
		"getCommunityGini":        m.communityGini,
		"getCommunityPalma":       m.communityPalma,
		"getProportion":           m.eventProportions,
		"contributingUsers":       m.contributingUsers,
		"getNumUserActions":       m.numUserActions,
		"burstsInCommunityEvents": m.communityBursts,
		"getUserBurstByCommunity": m.userBurstiness,
		"propIssueEvent":          m.issueActionProportions,
		"ageOfAccounts":           m.accountAges,
		// influence
		"computeTEUsers":      m.teUsers,
		"computeTEUserEvents": m.teUserEvents,
		"computeTERepos":      m.teRepos,
	}
	if m.locations != nil {
		table["userGeoLocation"] = m.userGeoLocation
	}
	return table
}

// Computation implements ports.DataSource.
func (m *Measurements) Computation(name string) (ports.Computation, bool) {
	return m.table.Computation(name)
}

// Names returns the provided computation names, sorted.
func (m *Measurements) Names() []string {
	names := make([]string, 0, len(m.table))
	for name := range m.table {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of events.
func (m *Measurements) Len() int {
	return len(m.events)
}

// filter returns the events of the given types, all events when types is
// empty.
func (m *Measurements) filter(types []string) []event.Event {
	if len(types) == 0 {
		return m.events
	}
	want := make(map[string]bool, len(types))
	for _, t := range types {
		want[t] = true
	}
	var out []event.Event
	for _, e := range m.events {
		if want[e.Type] {
			out = append(out, e)
		}
	}
	return out
}

// communityEvents splits events by community in community order. A repo
// may belong to several communities.
func (m *Measurements) communityEvents(events []event.Event) *orderedGroups {
	groups := newOrderedGroups()
	for _, c := range m.communities {
		groups.ensure(c.Name)
	}
	if len(m.communities) == 1 && len(m.communities[0].Repos) == 0 {
		groups.groups[m.communities[0].Name] = events
		return groups
	}

	member := make(map[string][]string)
	for _, c := range m.communities {
		for _, repo := range c.Repos {
			member[repo] = append(member[repo], c.Name)
		}
	}
	for _, e := range events {
		for _, name := range member[e.Repo] {
			groups.add(name, e)
		}
	}
	return groups
}

// perCommunity evaluates fn on every community's events.
func (m *Measurements) perCommunity(args measurement.Args, fn func([]event.Event) any) *measurement.Keyed {
	groups := m.communityEvents(m.filter(args.EventTypes))
	out := measurement.NewKeyed()
	for _, name := range groups.keys {
		out.Set(name, fn(groups.groups[name]))
	}
	return out
}

// selectKeys restricts keys to interested when interested is non-empty,
// keeping the order of interested.
func selectKeys(keys []string, interested []string) []string {
	if len(interested) == 0 {
		return keys
	}
	present := make(map[string]bool, len(keys))
	for _, k := range keys {
		present[k] = true
	}
	var out []string
	for _, k := range interested {
		if present[k] {
			out = append(out, k)
		}
	}
	return out
}

var _ ports.DataSource = (*Measurements)(nil)
