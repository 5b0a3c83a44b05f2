package registry

import "simeval/ports"

// BuiltinTables returns the built-in tables in registry order: user, repo,
// community, te.
func BuiltinTables() []Table {
	return []Table{UserTable(), RepoTable(), CommunityTable(), InfluenceTable()}
}

// Default builds the registry from the built-in tables followed by extra.
func Default(catalog ports.MetricCatalog, extra ...Table) (*Registry, error) {
	return NewBuilder().Add(BuiltinTables()...).Add(extra...).Build(catalog)
}
