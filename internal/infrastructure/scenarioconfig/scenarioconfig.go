// Package scenarioconfig loads scenario calendars from YAML files. Files are
// checked against an embedded JSON schema before the registry is built, so
// shape errors are reported with their document path.
package scenarioconfig

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"

	"github.com/nyos/apr/internal/domain/apr"
	"github.com/nyos/apr/internal/domain/scenario"
	"github.com/nyos/apr/internal/domain/shared"
)

//go:embed scenarios.schema.json
var schemaJSON []byte

const schemaURL = "https://nyos.dev/apr/scenarios.schema.json"

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

func compiledSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource(schemaURL, bytes.NewReader(schemaJSON)); err != nil {
			schemaErr = fmt.Errorf("add schema resource: %w", err)
			return
		}
		schema, schemaErr = compiler.Compile(schemaURL)
	})
	return schema, schemaErr
}

// File is the document layout of a scenario file
type File struct {
	Scenarios []ScenarioSpec `yaml:"scenarios"`
}

// ScenarioSpec is one named event in a scenario file
type ScenarioSpec struct {
	ID      string       `yaml:"id"`
	Name    string       `yaml:"name"`
	Period  string       `yaml:"period,omitempty"`
	Windows []WindowSpec `yaml:"windows"`
}

// WindowSpec is one perturbation window in a scenario file
type WindowSpec struct {
	ID          string  `yaml:"id,omitempty"`
	Start       string  `yaml:"start"`
	End         string  `yaml:"end"`
	Category    string  `yaml:"category"`
	Field       string  `yaml:"field"`
	Level       string  `yaml:"level,omitempty"`
	Scope       string  `yaml:"scope,omitempty"`
	Shape       string  `yaml:"shape"`
	Mode        string  `yaml:"mode"`
	Magnitude   float64 `yaml:"magnitude"`
	Description string  `yaml:"description,omitempty"`
}

// Load reads and validates the scenario file at path
func Load(path string) (*scenario.Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario file: %w", err)
	}
	r, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("scenario file %s: %w", path, err)
	}
	return r, nil
}

// Parse validates a YAML scenario document and builds its registry
func Parse(data []byte) (*scenario.Registry, error) {
	if err := validate(data); err != nil {
		return nil, err
	}

	var file File
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, shared.NewConfigurationError("invalid scenario yaml: %v", err)
	}

	scenarios := make([]scenario.Scenario, 0, len(file.Scenarios))
	for _, spec := range file.Scenarios {
		s, err := spec.toDomain()
		if err != nil {
			return nil, err
		}
		scenarios = append(scenarios, s)
	}
	return scenario.NewRegistry(scenarios...)
}

// validate checks the document against the embedded schema. YAML is decoded
// generically and passed through JSON so numbers reach the validator as float64.
func validate(data []byte) error {
	sch, err := compiledSchema()
	if err != nil {
		return shared.NewConfigurationError("scenario schema: %v", err)
	}

	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return shared.NewConfigurationError("invalid scenario yaml: %v", err)
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return shared.NewConfigurationError("scenario yaml is not representable as json: %v", err)
	}
	var payload any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return shared.NewConfigurationError("invalid scenario document: %v", err)
	}
	if err := sch.Validate(payload); err != nil {
		return shared.NewConfigurationError("scenario file does not match schema: %v", err)
	}
	return nil
}

func (s ScenarioSpec) toDomain() (scenario.Scenario, error) {
	out := scenario.Scenario{
		ID:      s.ID,
		Name:    s.Name,
		Period:  s.Period,
		Windows: make([]scenario.Window, 0, len(s.Windows)),
	}
	for i, w := range s.Windows {
		window, err := w.toDomain()
		if err != nil {
			return scenario.Scenario{}, shared.NewConfigurationError("scenario %s window %d: %v", s.ID, i+1, err)
		}
		out.Windows = append(out.Windows, window)
	}
	return out, nil
}

func (w WindowSpec) toDomain() (scenario.Window, error) {
	start, err := time.Parse(apr.DateLayout, w.Start)
	if err != nil {
		return scenario.Window{}, fmt.Errorf("start: %w", err)
	}
	end, err := time.Parse(apr.DateLayout, w.End)
	if err != nil {
		return scenario.Window{}, fmt.Errorf("end: %w", err)
	}
	category, err := apr.ParseCategory(w.Category)
	if err != nil {
		return scenario.Window{}, err
	}
	shape, err := scenario.ParseShape(w.Shape)
	if err != nil {
		return scenario.Window{}, err
	}
	mode, err := scenario.ParseMode(w.Mode)
	if err != nil {
		return scenario.Window{}, err
	}
	return scenario.Window{
		ID:          w.ID,
		StartDate:   start,
		EndDate:     end,
		Category:    category,
		Field:       w.Field,
		Level:       w.Level,
		Scope:       w.Scope,
		Shape:       shape,
		Mode:        mode,
		Magnitude:   w.Magnitude,
		Description: w.Description,
	}, nil
}

// Encode renders scenarios as a scenario file. Parse(Encode(s)) rebuilds
// the same calendar.
func Encode(scenarios []scenario.Scenario) ([]byte, error) {
	file := File{Scenarios: make([]ScenarioSpec, 0, len(scenarios))}
	for _, s := range scenarios {
		spec := ScenarioSpec{ID: s.ID, Name: s.Name, Period: s.Period}
		for _, w := range s.Windows {
			spec.Windows = append(spec.Windows, WindowSpec{
				ID:          w.ID,
				Start:       w.StartDate.Format(apr.DateLayout),
				End:         w.EndDate.Format(apr.DateLayout),
				Category:    string(w.Category),
				Field:       w.Field,
				Level:       w.Level,
				Scope:       w.Scope,
				Shape:       w.Shape.String(),
				Mode:        w.Mode.String(),
				Magnitude:   w.Magnitude,
				Description: w.Description,
			})
		}
		file.Scenarios = append(file.Scenarios, spec)
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(file); err != nil {
		return nil, fmt.Errorf("encode scenarios: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encode scenarios: %w", err)
	}
	return buf.Bytes(), nil
}
