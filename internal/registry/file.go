package registry

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"simeval/domain/measurement"
	"simeval/internal/errors"
)

// tableFile is the YAML layout of a measurement table:
//
//	measurements:
//	  - id: repo_watch_growth
//	    question: "2b"
//	    scale: node
//	    node_type: repo
//	    measurement: getRepoGrowth
//	    measurement_args: {eventType: [WatchEvent]}
//	    metrics:
//	      - {name: rmse, metric: rmse, join: outer}
type tableFile struct {
	Name         string             `yaml:"name"`
	Measurements []measurement.Spec `yaml:"measurements"`
}

// DecodeTable parses a YAML measurement table. Unknown fields are rejected.
func DecodeTable(r io.Reader, fallbackName string) (Table, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var tf tableFile
	if err := dec.Decode(&tf); err != nil {
		if err == io.EOF {
			return Table{}, errors.ConfigInvalid(fmt.Sprintf("measurement table %s is empty", fallbackName))
		}
		return Table{}, errors.WithCode(errors.CodeConfigInvalid, fmt.Errorf("decode measurement table %s: %w", fallbackName, err))
	}
	name := tf.Name
	if name == "" {
		name = fallbackName
	}
	return Table{Name: name, Specs: tf.Measurements}, nil
}

// LoadTableFile reads a YAML measurement table from path.
func LoadTableFile(path string) (Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return Table{}, errors.WithCode(errors.CodeConfigInvalid, fmt.Errorf("open measurement table: %w", err))
	}
	defer f.Close()

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return DecodeTable(f, name)
}
