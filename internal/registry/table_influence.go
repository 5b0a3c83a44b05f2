package registry

import "simeval/domain/measurement"

// InfluenceTable holds the pairwise-influence (transfer entropy)
// measurements.
func InfluenceTable() Table {
	te := func(id, question string, entity measurement.EntityType, computation string, binding measurement.Binding) measurement.Spec {
		return measurement.Spec{
			ID:          id,
			QuestionRef: question,
			Scale:       measurement.ScaleTE,
			EntityType:  entity,
			Computation: computation,
			Metrics:     []measurement.Binding{binding},
		}
	}

	return Table{
		Name: "te",
		Specs: []measurement.Spec{
			te("user_interactions", "18a1", measurement.EntityUser, "computeTEUsers", rboForTE(0, 0.9, 30)),
			te("user_total", "18a2", measurement.EntityUser, "computeTEUsers", rboForTE(1, 0.75, 10)),
			te("user_event_interactions", "18b", measurement.EntityUser, "computeTEUserEvents", rboForTE(0, 0.9, 25)),
			te("repo_interactions", "18c1", measurement.EntityRepo, "computeTERepos", rboForTE(0, 0.9, 30)),
			te("repo_total", "18c2", measurement.EntityRepo, "computeTERepos", rboForTE(1, 0.75, 10)),
		},
	}
}
