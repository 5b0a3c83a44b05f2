package events

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"simeval/adapters/metrics"
	"simeval/domain/event"
	"simeval/domain/measurement"
	"simeval/internal/errors"
	"simeval/internal/evaluation"
	"simeval/internal/logging"
	"simeval/internal/registry"
)

func at(day, hour int) time.Time {
	return time.Date(2017, 8, day, hour, 0, 0, 0, time.UTC)
}

func fixture() []event.Event {
	return []event.Event{
		{Time: at(3, 13), Type: event.PushEvent, User: "dave", Repo: "dave/lib"},
		{Time: at(1, 10), Type: event.CreateEvent, User: "alice", Repo: "alice/app"},
		{Time: at(1, 12), Type: event.PushEvent, User: "alice", Repo: "alice/app"},
		{Time: at(1, 13), Type: event.WatchEvent, User: "bob", Repo: "alice/app"},
		{Time: at(2, 9), Type: event.IssuesEvent, User: "bob", Repo: "alice/app", Action: event.ActionOpened},
		{Time: at(2, 10), Type: event.PushEvent, User: "bob", Repo: "alice/app"},
		{Time: at(2, 11), Type: event.PullRequestEvent, User: "carol", Repo: "alice/app", Action: event.ActionOpened},
		{Time: at(3, 11), Type: event.PullRequestEvent, User: "carol", Repo: "alice/app", Action: event.ActionMerged},
		{Time: at(3, 12), Type: event.ForkEvent, User: "carol", Repo: "dave/lib"},
	}
}

var communities = []Community{
	{Name: "apps", Repos: []string{"alice/app"}},
	{Name: "libs", Repos: []string{"dave/lib"}},
}

func compute(t *testing.T, m *Measurements, name string, args measurement.Args) measurement.Result {
	t.Helper()
	fn, ok := m.Computation(name)
	require.True(t, ok, name)
	out, err := fn(context.Background(), args)
	require.NoError(t, err, name)
	return out
}

func keyed(t *testing.T, v measurement.Result) *measurement.Keyed {
	t.Helper()
	k, ok := v.(*measurement.Keyed)
	require.True(t, ok, "want *Keyed, got %T", v)
	return k
}

func contributions() measurement.Args {
	return measurement.Args{EventTypes: event.ContributionEvents()}
}

func TestMeasurements_UserComputations(t *testing.T) {
	m := NewMeasurements(fixture())

	assert.Equal(t, measurement.Sample{1, 1, 1, 1}, compute(t, m, "getUserUniqueRepos", contributions()))
	assert.Equal(t, measurement.Ranking{"bob", "carol", "alice", "dave"}, compute(t, m, "getMostActiveUsers", measurement.Args{}))
	assert.Equal(t, measurement.Ranking{"bob", "carol"}, compute(t, m, "getMostActiveUsers", measurement.Args{K: 2}))

	popularity := measurement.Args{EventTypes: []string{event.WatchEvent, event.ForkEvent, event.CreateEvent}}
	assert.Equal(t, measurement.Ranking{"alice", "dave"}, compute(t, m, "getUserPopularity", popularity))

	assert.Equal(t, measurement.Sample{1}, compute(t, m, "getUserPullRequestAcceptance",
		measurement.Args{EventTypes: []string{event.PullRequestEvent}}))

	delay := compute(t, m, "getUserDiffusionDelay", contributions()).(measurement.Sample)
	assert.Equal(t, measurement.Sample{0, 23, 25, 1}, delay)

	timeline := keyed(t, compute(t, m, "getUserActivityTimeline", contributions()))
	assert.Equal(t, []string{"alice", "bob", "carol", "dave"}, timeline.Keys())
	bob, _ := timeline.Get("bob")
	assert.Equal(t, measurement.Series{Labels: []string{"2017-08-02"}, Values: []float64{2}}, bob)
}

func TestMeasurements_Inequality(t *testing.T) {
	m := NewMeasurements(fixture())

	repoGini := compute(t, m, "getGiniCoef", contributions()).(float64)
	assert.InDelta(t, 5.0/14.0, repoGini, 1e-12)

	userGini := compute(t, m, "getGiniCoef", measurement.Args{NodeType: measurement.EntityUser, EventTypes: contributions().EventTypes}).(float64)
	// alice 2, bob 2, carol 2, dave 1
	assert.InDelta(t, 3.0/28.0, userGini, 1e-12)

	palmaValue := compute(t, m, "getPalmaCoef", contributions()).(float64)
	assert.True(t, math.IsNaN(palmaValue), "two repos cannot fill the bottom four tenths")
}

func TestMeasurements_RepoComputations(t *testing.T) {
	m := NewMeasurements(fixture(), WithInterestedRepos("dave/lib", "alice/app", "missing/repo"))

	growth := keyed(t, compute(t, m, "getRepoGrowth", contributions()))
	assert.Equal(t, []string{"dave/lib", "alice/app"}, growth.Keys())
	app, _ := growth.Get("alice/app")
	assert.Equal(t, measurement.Series{
		Labels: []string{"2017-08-01", "2017-08-02", "2017-08-03"},
		Values: []float64{2, 5, 6},
	}, app)

	contributors := keyed(t, compute(t, m, "getContributions", contributions()))
	app, _ = contributors.Get("alice/app")
	assert.Equal(t, measurement.Series{Labels: []string{"2017-08-01", "2017-08-02"}, Values: []float64{1, 3}}, app)

	probability := keyed(t, compute(t, m, "getIssueVsPushProbability", contributions()))
	v, _ := probability.Get("alice/app")
	assert.Equal(t, 1.0, v)
	v, _ = probability.Get("dave/lib")
	assert.True(t, math.IsNaN(v.(float64)))

	weekday := keyed(t, compute(t, m, "getDistributionOfEvents", measurement.Args{Weekday: true}))
	lib, _ := weekday.Get("dave/lib")
	assert.Equal(t, measurement.Series{Labels: []string{"Thursday"}, Values: []float64{2}}, lib)

	assert.Equal(t, measurement.Sample{7, 2}, compute(t, m, "getDistributionOfEventsByRepo", measurement.Args{}))
	assert.Equal(t, measurement.Ranking{"alice/app", "dave/lib"}, compute(t, m, "getTopKRepos", measurement.Args{K: 5000}))
}

func TestMeasurements_Communities(t *testing.T) {
	m := NewMeasurements(fixture(), WithCommunities(communities))

	contributing := keyed(t, compute(t, m, "contributingUsers", measurement.Args{}))
	assert.Equal(t, []string{"apps", "libs"}, contributing.Keys())
	apps, _ := contributing.Get("apps")
	libs, _ := contributing.Get("libs")
	assert.Equal(t, 1.0, apps)
	assert.Equal(t, 0.5, libs)

	proportions := keyed(t, compute(t, m, "getProportion", measurement.Args{}))
	libs, _ = proportions.Get("libs")
	assert.Equal(t, measurement.Series{Labels: []string{event.ForkEvent, event.PushEvent}, Values: []float64{0.5, 0.5}}, libs)

	issues := keyed(t, compute(t, m, "propIssueEvent", measurement.Args{}))
	apps, _ = issues.Get("apps")
	assert.Equal(t, measurement.Series{Labels: []string{"opened"}, Values: []float64{1}}, apps)

	ages := keyed(t, compute(t, m, "ageOfAccounts", measurement.Args{}))
	libs, _ = ages.Get("libs")
	assert.Equal(t, measurement.Sample{25.0 / 24.0, 0}, libs)

	all := keyed(t, compute(t, NewMeasurements(fixture()), "contributingUsers", measurement.Args{}))
	assert.Equal(t, []string{DefaultCommunity}, all.Keys())
}

func TestMeasurements_GeoLocationCapability(t *testing.T) {
	without := NewMeasurements(fixture())
	_, ok := without.Computation("userGeoLocation")
	assert.False(t, ok)
	assert.Len(t, without.Names(), 30)

	with := NewMeasurements(fixture(), WithUserLocations(map[string]string{"alice": "NZ", "bob": "BR"}))
	assert.Len(t, with.Names(), 31)
	geo := keyed(t, compute(t, with, "userGeoLocation", measurement.Args{}))
	all, _ := geo.Get(DefaultCommunity)
	assert.Equal(t, measurement.Series{Labels: []string{"BR", "NZ", "unknown"}, Values: []float64{3, 2, 4}}, all)
}

func TestMeasurements_Influence(t *testing.T) {
	m := NewMeasurements(fixture(), WithTopN(2))

	edges := compute(t, m, "computeTEUsers", measurement.Args{}).(measurement.Influence)
	require.Len(t, edges, 2)
	assert.Equal(t, "bob", edges[0].Source)
	assert.Equal(t, "carol", edges[0].Target)
	for _, e := range edges {
		require.Len(t, e.Scores, 2)
		assert.GreaterOrEqual(t, e.Scores[0], -1e-12)
	}

	userEvents := compute(t, m, "computeTEUserEvents", measurement.Args{}).(measurement.Influence)
	for _, e := range userEvents {
		assert.NotEqual(t, e.Source[:3], e.Target[:3], "same-user pair %s -> %s", e.Source, e.Target)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	fn, _ := m.Computation("computeTERepos")
	_, err := fn(ctx, measurement.Args{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestTransferEntropy(t *testing.T) {
	source := []bool{true, false, true, true, false, false, true, false, true, false, false, true}
	target := make([]bool, len(source))
	copy(target[1:], source[:len(source)-1])

	assert.Greater(t, transferEntropy(source, target), 0.5)
	assert.Equal(t, 0.0, transferEntropy(make([]bool, len(target)), target))
	assert.Equal(t, 0.0, transferEntropy([]bool{true}, []bool{false}))
}

func TestGiniPalma(t *testing.T) {
	assert.Equal(t, 0.0, gini([]float64{3, 3, 3, 3}))
	assert.InDelta(t, 0.75, gini([]float64{0, 10, 0, 0}), 1e-12)
	assert.True(t, math.IsNaN(gini(nil)))

	assert.InDelta(t, 1.0, palma([]float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}), 1e-12)
	assert.True(t, math.IsNaN(palma([]float64{0, 0, 0, 0, 5})))
}

// TestRegistryComputationsProvided runs the built-in registry end to end on
// the fixture, comparing the stream with itself.
func TestRegistryComputationsProvided(t *testing.T) {
	reg, err := registry.Default(metrics.NewCatalog())
	require.NoError(t, err)

	source := NewMeasurements(fixture(),
		WithCommunities(communities),
		WithUserLocations(map[string]string{"alice": "NZ"}))
	engine := evaluation.New(reg, evaluation.Options{Logger: logging.Discard()})
	assert.Empty(t, engine.Validate(source, registry.Filter{}))

	batch, err := engine.RunAll(context.Background(), source, source, registry.Filter{})
	require.NoError(t, err)
	require.Len(t, batch.Entries, reg.Len())
	for _, e := range batch.Entries {
		if e.Failed() {
			assert.NotEqual(t, errors.CodeCapabilityNotFound, e.Failure.Code, e.ID)
		}
	}

	entry, ok := batch.Entry("user_gini_coef")
	require.True(t, ok)
	require.False(t, entry.Failed(), "%+v", entry.Failure)
	score, _ := entry.Report.Aggregate().Score("absolute_difference")
	require.NotNil(t, score)
	assert.Equal(t, 0.0, *score)
}
