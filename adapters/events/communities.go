package events

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"simeval/internal/errors"
)

// DefaultCommunity is the single community used when none are configured.
const DefaultCommunity = "all"

// Community is a named group of repositories.
type Community struct {
	Name  string
	Repos []string
}

// LoadCommunities reads a YAML mapping of community name to repository ids.
// Communities keep their file order.
//
//	python:
//	  - org/flask
//	  - org/django
//	golang: [org/go]
func LoadCommunities(path string) ([]Community, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.WithCode(errors.CodeConfigInvalid, fmt.Errorf("open communities file: %w", err))
	}
	defer f.Close()
	return DecodeCommunities(f)
}

// DecodeCommunities parses the communities YAML layout.
func DecodeCommunities(r io.Reader) ([]Community, error) {
	var doc yaml.Node
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if err == io.EOF {
			return nil, errors.ConfigInvalid("communities file is empty")
		}
		return nil, errors.WithCode(errors.CodeConfigInvalid, fmt.Errorf("decode communities: %w", err))
	}
	if len(doc.Content) == 0 || doc.Content[0].Kind != yaml.MappingNode {
		return nil, errors.ConfigInvalid("communities file must map community names to repository lists")
	}

	root := doc.Content[0]
	communities := make([]Community, 0, len(root.Content)/2)
	seen := make(map[string]bool)
	for i := 0; i+1 < len(root.Content); i += 2 {
		name := root.Content[i].Value
		var repos []string
		if err := root.Content[i+1].Decode(&repos); err != nil {
			return nil, errors.WithCode(errors.CodeConfigInvalid, fmt.Errorf("community %s: %w", name, err))
		}
		if seen[name] {
			return nil, errors.ConfigInvalid(fmt.Sprintf("community %s is defined twice", name))
		}
		seen[name] = true
		communities = append(communities, Community{Name: name, Repos: repos})
	}
	return communities, nil
}
