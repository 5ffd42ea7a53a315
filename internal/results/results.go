// Package results defines the structured records the harness accumulates:
// one tagged record type per pipeline stage, assembled into a PipelineRun per
// (model, property, variant) triple, collected into a ResultSet and persisted
// once as YAML. Field names are the external contract: the report layer and
// downstream tooling read them verbatim.
package results

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"symbench/internal/catalogue"
)

// Outcome annotations recorded when a stage was killed by the supervisor.
const (
	OutcomeTimeout     = "timeout"
	OutcomeOutOfMemory = "outofmemory"
)

// TranslateRecord is the result of linearizing a model description into its
// process representation. Steps is 1 for the direct strategy and 4 for the
// staged one.
type TranslateRecord struct {
	Options    string  `yaml:"options,omitempty"`
	InputFile  string  `yaml:"input_file"`
	OutputFile string  `yaml:"output_file,omitempty"`
	Steps      int     `yaml:"steps,omitempty"`
	TotalTime  float64 `yaml:"totaltime"`
}

// ObligationRecord is the result of combining a property formula with the
// process representation into a verification obligation.
type ObligationRecord struct {
	Options    string  `yaml:"options,omitempty"`
	McfFile    string  `yaml:"mcf_file"`
	LpsFile    string  `yaml:"lps_file"`
	OutputFile string  `yaml:"output_file,omitempty"`
	TotalTime  float64 `yaml:"totaltime"`
	Outcome    string  `yaml:"times,omitempty"`
}

// RewriteRecord is the result of the two normalization passes applied to an
// obligation before solving.
type RewriteRecord struct {
	Options    string  `yaml:"options,omitempty"`
	InputFile  string  `yaml:"input_file"`
	OutputFile string  `yaml:"output_file,omitempty"`
	Passes     int     `yaml:"passes,omitempty"`
	TotalTime  float64 `yaml:"totaltime"`
}

// DetectRecord is the result of one symmetry-detector invocation. Symmetries
// holds the detected cycle-notation strings; empty means only the identity
// was found, which is a successful detection, not a failure.
type DetectRecord struct {
	Options    string   `yaml:"options,omitempty"`
	InputFile  string   `yaml:"input_file"`
	TotalTime  float64  `yaml:"totaltime"`
	Symmetries []string `yaml:"symmetries"`
}

// SolveRecord is the result of one solver invocation. When the solver was
// killed or crashed, Outcome/Note carry the classification and the numeric
// fields stay at their zero values; the partial record is still retained so
// the result set keeps evidence of why the run produced no answer.
type SolveRecord struct {
	Options       string  `yaml:"options,omitempty"`
	InputFile     string  `yaml:"input_file"`
	TotalTime     float64 `yaml:"totaltime,omitempty"`
	Answer        string  `yaml:"answer,omitempty"`
	Instantiation float64 `yaml:"instantiation,omitempty"`
	Solving       float64 `yaml:"solving,omitempty"`
	Time          float64 `yaml:"time,omitempty"`
	Generated     float64 `yaml:"generated_bes_equations"`
	Outcome       string  `yaml:"times,omitempty"`
	Note          string  `yaml:"error,omitempty"`
}

// PipelineRun aggregates the stage records for one (model, property,
// variant) triple. A nil stage pointer means the stage did not complete;
// consumers must not read it as "completed with empty result". Error is the
// abort annotation when a stage failure abandoned the remaining stages.
type PipelineRun struct {
	Translate    *TranslateRecord  `yaml:"mcrl22lps,omitempty"`
	Obligation   *ObligationRecord `yaml:"lps2pbes,omitempty"`
	Rewrite      *RewriteRecord    `yaml:"pbesrewr,omitempty"`
	Detect       *DetectRecord     `yaml:"pbessymmetry,omitempty"`
	SymmetryUsed string            `yaml:"symmetry_used,omitempty"`
	Solve        *SolveRecord      `yaml:"pbessolve,omitempty"`
	Error        string            `yaml:"error,omitempty"`
}

// ResultSet is the full in-memory accumulation of one harness execution:
// model -> property -> variant -> pipeline run. It exclusively owns every
// PipelineRun; runs are never shared across triples.
type ResultSet map[string]map[string]map[string]*PipelineRun

// NewResultSet returns an empty result set.
func NewResultSet() ResultSet {
	return ResultSet{}
}

// Put stores the run for a triple, creating the nesting as needed.
func (rs ResultSet) Put(model, property string, variant catalogue.Variant, run *PipelineRun) {
	props, ok := rs[model]
	if !ok {
		props = map[string]map[string]*PipelineRun{}
		rs[model] = props
	}
	variants, ok := props[property]
	if !ok {
		variants = map[string]*PipelineRun{}
		props[property] = variants
	}
	variants[string(variant)] = run
}

// Get returns the run for a triple, nil when absent.
func (rs ResultSet) Get(model, property string, variant catalogue.Variant) *PipelineRun {
	return rs[model][property][string(variant)]
}

// Save serializes the result set to path as a YAML document.
func (rs ResultSet) Save(path string) error {
	data, err := yaml.Marshal(rs)
	if err != nil {
		return fmt.Errorf("failed to marshal result set: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write result set: %w", err)
	}
	return nil
}

// LoadResultSet reads a persisted result set back in.
func LoadResultSet(path string) (ResultSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read result set: %w", err)
	}
	var rs ResultSet
	if err := yaml.Unmarshal(data, &rs); err != nil {
		return nil, fmt.Errorf("failed to parse result set %s: %w", path, err)
	}
	return rs, nil
}
