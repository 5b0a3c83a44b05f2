package measurement

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyed_PreservesInsertionOrder(t *testing.T) {
	k := NewKeyed()
	k.Set("zeta", 1.0)
	k.Set("alpha", nil)
	k.Set("mid", 3.0)
	k.Set("zeta", 4.0)

	assert.Equal(t, []string{"zeta", "alpha", "mid"}, k.Keys())
	v, ok := k.Get("zeta")
	require.True(t, ok)
	assert.Equal(t, 4.0, v)

	v, ok = k.Get("alpha")
	assert.True(t, ok)
	assert.Nil(t, v)

	_, ok = k.Get("missing")
	assert.False(t, ok)
}

func TestKeyed_NilSafe(t *testing.T) {
	var k *Keyed
	assert.Equal(t, 0, k.Len())
	assert.Nil(t, k.Keys())
	_, ok := k.Get("x")
	assert.False(t, ok)
}

func TestIsMissing(t *testing.T) {
	var nilSample Sample
	var nilKeyed *Keyed

	assert.True(t, IsMissing(nil))
	assert.True(t, IsMissing(math.NaN()))
	assert.True(t, IsMissing(float32(math.NaN())))
	assert.True(t, IsMissing(nilSample))
	assert.True(t, IsMissing(nilKeyed))

	assert.False(t, IsMissing(0.0))
	assert.False(t, IsMissing(Sample{}))
	assert.False(t, IsMissing(Series{}))
	assert.False(t, IsMissing("x"))
}

func TestSpecValidate(t *testing.T) {
	valid := Spec{
		ID:          "user_gini_coef",
		Scale:       ScalePopulation,
		EntityType:  EntityUser,
		Computation: "getGiniCoef",
		Metrics:     []Binding{Bind("absolute_difference", MetricConfig{})},
	}
	require.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(*Spec)
		want   string
	}{
		{"missing id", func(s *Spec) { s.ID = "" }, "id is required"},
		{"bad scale", func(s *Spec) { s.Scale = "galaxy" }, `scale "galaxy" is invalid`},
		{"bad entity", func(s *Spec) { s.EntityType = "org" }, `entity type "org" is invalid`},
		{"no computation", func(s *Spec) { s.Computation = " " }, "computation name is required"},
		{"no metrics", func(s *Spec) { s.Metrics = nil }, "at least one metric binding"},
		{"duplicate binding", func(s *Spec) { s.Metrics = append(s.Metrics, s.Metrics[0]) }, "bound twice"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := valid
			s.Metrics = append([]Binding(nil), valid.Metrics...)
			tt.mutate(&s)
			err := s.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestSpecMetadata_OmitsComputation(t *testing.T) {
	s := Spec{
		ID:          "repo_popularity_topk",
		QuestionRef: "12",
		Scale:       ScalePopulation,
		EntityType:  EntityRepo,
		Computation: "getTopKRepos",
		Args:        Args{K: 5000, EventTypes: []string{"WatchEvent"}},
		Metrics:     []Binding{Bind("rbo", MetricConfig{P: 0.999})},
	}

	md := s.Metadata()
	assert.NotContains(t, md, "computation")
	assert.NotContains(t, md, "measurement")
	assert.NotContains(t, md, "filters")
	assert.Equal(t, "12", md["question_ref"])
	assert.Equal(t, map[string]any{"k": 5000, "eventType": []string{"WatchEvent"}}, md["computation_args"])

	metrics := md["metrics"].(map[string]any)
	assert.Equal(t, "rbo", metrics["rbo"].(Binding).DisplayName())
}

func TestParseScaleAndEntity(t *testing.T) {
	sc, err := ParseScale("te")
	require.NoError(t, err)
	assert.Equal(t, ScaleTE, sc)
	assert.False(t, ScaleTE.Keyed())
	assert.True(t, ScaleCommunity.Keyed())

	_, err = ParseScale("global")
	assert.Error(t, err)

	et, err := ParseEntityType("")
	require.NoError(t, err)
	assert.Equal(t, EntityType(""), et)
	_, err = ParseEntityType("org")
	assert.Error(t, err)
}
