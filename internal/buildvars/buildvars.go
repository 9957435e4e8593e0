// Package buildvars collects the variables available to $NAME placeholders.
package buildvars

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/nhle/issue-updater/internal/model"
)

// Sources lists where variables come from. Later sources override earlier
// ones: Environ, then ParamsFile, then Params.
type Sources struct {
	// Environ holds KEY=VALUE pairs, usually os.Environ().
	Environ []string

	// ParamsFile is an optional YAML mapping of parameter names to values.
	ParamsFile string

	// Params holds KEY=VALUE pairs given on the command line.
	Params []string
}

// Collect builds the variable mapping from s.
func Collect(s Sources) (model.Variables, error) {
	vars := make(model.Variables)

	for _, kv := range s.Environ {
		if name, value, ok := splitPair(kv); ok {
			vars[name] = value
		}
	}

	if s.ParamsFile != "" {
		fileVars, err := LoadParamsFile(s.ParamsFile)
		if err != nil {
			return nil, err
		}
		for name, value := range fileVars {
			vars[name] = value
		}
	}

	for _, kv := range s.Params {
		name, value, ok := splitPair(kv)
		if !ok {
			return nil, fmt.Errorf("invalid parameter %q: want KEY=VALUE", kv)
		}
		vars[name] = value
	}

	return vars, nil
}

// LoadParamsFile reads a flat YAML mapping. Scalar values of any type are
// converted to their string form.
func LoadParamsFile(path string) (model.Variables, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading params file %s: %w", path, err)
	}

	var raw map[string]yaml.Node
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing params file %s: %w", path, err)
	}

	vars := make(model.Variables, len(raw))
	for name, node := range raw {
		if node.Kind != yaml.ScalarNode {
			return nil, fmt.Errorf("params file %s: %q must be a scalar value", path, name)
		}
		vars[name] = node.Value
	}
	return vars, nil
}

// splitPair splits KEY=VALUE. The value may itself contain '='.
func splitPair(kv string) (string, string, bool) {
	name, value, ok := strings.Cut(kv, "=")
	name = strings.TrimSpace(name)
	if !ok || name == "" {
		return "", "", false
	}
	return name, value, true
}
