package access

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// StaticLoader returns a fixed set of engagement ids.
func StaticLoader(ids ...string) Loader {
	return LoaderFunc(func(context.Context) ([]string, error) {
		return append([]string(nil), ids...), nil
	})
}

// AssignmentsFile is the on-disk format read by FileLoader:
//
//	assignments:
//	  alice: [ENG-1, ENG-2]
//	  bob: [ENG-3]
type AssignmentsFile struct {
	Assignments map[string][]string `yaml:"assignments"`
}

// FileLoader reads the engagements assigned to user from a YAML
// assignments file. A user absent from the file has no assignments.
func FileLoader(path, user string) Loader {
	return LoaderFunc(func(context.Context) ([]string, error) {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading assignments file: %w", err)
		}

		var f AssignmentsFile
		decoder := yaml.NewDecoder(bytes.NewReader(data))
		decoder.KnownFields(true)
		if err := decoder.Decode(&f); err != nil {
			return nil, fmt.Errorf("parsing assignments file %s: %w", path, err)
		}
		return f.Assignments[user], nil
	})
}
