package inputs

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	kjson "github.com/knadh/koanf/parsers/json"
	kyaml "github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/energinet-labs/prosumer/core/model"
)

// RegistryFile is the scenario index inside a scenarios directory, mapping
// scenario name to the scaling file path relative to the directory.
const RegistryFile = "_scenario_names.json"

func parserFor(path string) (koanf.Parser, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return kjson.Parser(), true
	case ".yaml", ".yml":
		return kyaml.Parser(), true
	default:
		return nil, false
	}
}

// LoadQuestion merges every JSON/YAML file in dir and decodes the result
// into QuestionData. Each file must hold a top-level object; files merge
// into one tree keyed by section name.
func LoadQuestion(dir string) (*QuestionData, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read question dir: %w", err)
	}
	k := koanf.New(".")
	loaded := 0
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), "_") {
			continue
		}
		path := filepath.Join(dir, e.Name())
		parser, ok := parserFor(path)
		if !ok {
			continue
		}
		if err := k.Load(file.Provider(path), parser); err != nil {
			return nil, fmt.Errorf("load %s: %w", path, err)
		}
		loaded++
	}
	if loaded == 0 {
		return nil, configErr(dir, "no parameter files found")
	}
	var data QuestionData
	if err := k.UnmarshalWithConf("", &data, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, configErr(dir, "decode parameter files: %v", err)
	}
	return &data, nil
}

// LoadRegistry reads the scenario index of a scenarios directory and
// returns the scenario scaling files keyed by scenario name, with paths
// resolved against dir.
func LoadRegistry(dir string) (map[string]string, error) {
	k := koanf.New(".")
	path := filepath.Join(dir, RegistryFile)
	if err := k.Load(file.Provider(path), kjson.Parser()); err != nil {
		return nil, fmt.Errorf("load scenario registry: %w", err)
	}
	var reg map[string]string
	if err := k.Unmarshal("", &reg); err != nil {
		return nil, configErr(path, "decode scenario registry: %v", err)
	}
	out := make(map[string]string, len(reg))
	for name, rel := range reg {
		out[name] = filepath.Join(dir, rel)
	}
	return out, nil
}

// SelectScenarios filters a registry by name, case-insensitively. An empty
// selection or the single entry "all" keeps everything; unknown names are
// ignored.
func SelectScenarios(registry map[string]string, names []string) map[string]string {
	if len(names) == 0 || (len(names) == 1 && strings.EqualFold(names[0], "all")) {
		return registry
	}
	lower := make(map[string]string, len(registry))
	for name := range registry {
		lower[strings.ToLower(name)] = name
	}
	selected := make(map[string]string)
	for _, want := range names {
		if orig, ok := lower[strings.ToLower(want)]; ok {
			selected[orig] = registry[orig]
		}
	}
	return selected
}

// LoadScenario reads one scaling file into a named Scenario.
func LoadScenario(name, path string) (model.Scenario, error) {
	parser, ok := parserFor(path)
	if !ok {
		return model.Scenario{}, configErr(path, "unsupported scenario file format")
	}
	k := koanf.New(".")
	if err := k.Load(file.Provider(path), parser); err != nil {
		return model.Scenario{}, fmt.Errorf("load scenario %s: %w", name, err)
	}
	factors := make(map[string]float64)
	for _, key := range k.Keys() {
		factors[key] = k.Float64(key)
	}
	return model.Scenario{Name: name, Factors: factors}, nil
}

// LoadScenarios loads every selected scenario in deterministic name order.
func LoadScenarios(registry map[string]string) ([]model.Scenario, error) {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	scenarios := make([]model.Scenario, 0, len(names))
	for _, name := range names {
		sc, err := LoadScenario(name, registry[name])
		if err != nil {
			return nil, err
		}
		scenarios = append(scenarios, sc)
	}
	return scenarios, nil
}
