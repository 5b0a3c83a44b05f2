package measurement

import "fmt"

// Scale is the shape of a measurement's output.
type Scale string

const (
	ScalePopulation Scale = "population"
	ScaleNode       Scale = "node"
	ScaleCommunity  Scale = "community"
	// ScaleTE covers pairwise-influence (transfer entropy) measurements.
	ScaleTE Scale = "te"
)

// Keyed reports whether results of this scale are entity-keyed mappings.
func (s Scale) Keyed() bool {
	return s == ScaleNode || s == ScaleCommunity
}

// Valid reports whether s is one of the known scales.
func (s Scale) Valid() bool {
	switch s {
	case ScalePopulation, ScaleNode, ScaleCommunity, ScaleTE:
		return true
	}
	return false
}

// ParseScale parses a scale name. The empty string parses to the empty
// scale, which matches everything in a selection filter.
func ParseScale(s string) (Scale, error) {
	sc := Scale(s)
	if s == "" || sc.Valid() {
		return sc, nil
	}
	return "", fmt.Errorf("unknown scale %q (want population, node, community or te)", s)
}

// EntityType is the kind of entity a measurement is centred on.
type EntityType string

const (
	EntityUser EntityType = "user"
	EntityRepo EntityType = "repo"
)

// Valid reports whether t is one of the known entity types.
func (t EntityType) Valid() bool {
	return t == EntityUser || t == EntityRepo
}

// ParseEntityType parses an entity type name; empty is allowed.
func ParseEntityType(s string) (EntityType, error) {
	et := EntityType(s)
	if s == "" || et.Valid() {
		return et, nil
	}
	return "", fmt.Errorf("unknown entity type %q (want user or repo)", s)
}
