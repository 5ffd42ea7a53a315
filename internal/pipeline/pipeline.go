// Package pipeline sequences the multi-stage tool chain per (model,
// property, workflow variant) triple: translate, generate the obligation,
// optionally rewrite it, optionally detect a symmetry, then solve. Execution
// is strictly sequential; a stage failure abandons the remaining stages of
// its triple and never the whole run.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"symbench/internal/catalogue"
	"symbench/internal/config"
	"symbench/internal/extract"
	"symbench/internal/logging"
	"symbench/internal/permutation"
	"symbench/internal/results"
	"symbench/internal/runner"
)

// Recorder receives each completed (or aborted) triple as it finishes.
// Implemented by the sqlite history store; nil disables recording.
type Recorder interface {
	RecordTriple(model, property string, variant catalogue.Variant, run *results.PipelineRun) error
}

// Harness drives the whole benchmark run.
type Harness struct {
	cfg      *config.Config
	run      *runner.Runner
	layout   catalogue.Layout
	recorder Recorder
}

// New builds a Harness. The configuration is the only source of paths and
// limits; nothing is read from ambient process-wide state.
func New(cfg *config.Config, r *runner.Runner, recorder Recorder) *Harness {
	return &Harness{
		cfg: cfg,
		run: r,
		layout: catalogue.Layout{
			ModelsDir:     cfg.Paths.ModelsDir,
			PropertiesDir: cfg.Paths.PropertiesDir,
			SymmetriesDir: cfg.Paths.SymmetriesDir,
		},
		recorder: recorder,
	}
}

// Execute runs the configured model tier under the configured workflow set
// and returns the accumulated result set. Only configuration errors are
// fatal; per-triple failures are recorded and skipped past.
func (h *Harness) Execute(ctx context.Context) (results.ResultSet, error) {
	models, err := catalogue.Models(h.cfg.Catalogue.Selection)
	if err != nil {
		return nil, err
	}
	variants, err := catalogue.Workflows(h.cfg.Catalogue.Workflow)
	if err != nil {
		return nil, err
	}

	rs := results.NewResultSet()
	for _, model := range models {
		if err := ctx.Err(); err != nil {
			return rs, err
		}
		h.runModel(ctx, rs, model, variants)
	}
	return rs, nil
}

// runModel translates one model, then runs every property under every
// variant. Translation happens once per model; its record is shared into
// each triple's run, since the translated file is identical for all of them.
func (h *Harness) runModel(ctx context.Context, rs results.ResultSet, model string, variants []catalogue.Variant) {
	logging.Pipeline("--- model %s", model)

	properties, err := h.layout.Properties(model)
	if err != nil {
		logging.PipelineError("skipping %s: %v", model, err)
		return
	}

	translate, terr := h.translate(ctx, model)
	if terr != nil {
		logging.PipelineError("translation of %s failed: %v", model, terr)
		// every triple of this model aborts before its first recorded stage
		for _, property := range properties {
			for _, variant := range variants {
				h.store(rs, model, property, variant, &results.PipelineRun{
					Error: fmt.Sprintf("translation failed: %v", terr),
				})
			}
		}
		return
	}

	for _, property := range properties {
		logging.Pipeline("-- property %s", property)
		for _, variant := range variants {
			run := h.runTriple(ctx, model, property, variant, translate)
			h.store(rs, model, property, variant, run)
		}
	}
}

// runTriple walks one triple through the stage state machine. Every failure
// is terminal for its stage, there are no retries; the partial run is
// returned with an error annotation.
func (h *Harness) runTriple(ctx context.Context, model, property string, variant catalogue.Variant, translate *results.TranslateRecord) *results.PipelineRun {
	logging.Pipeline("- variant %s", variant)
	run := &results.PipelineRun{Translate: translate}

	obligation, err := h.obligation(ctx, model, property)
	run.Obligation = obligation
	if err != nil {
		return abort(run, "lps2pbes", err)
	}

	if catalogue.NeedsRewrite(property) {
		rewrite, err := h.rewrite(ctx, model, property)
		run.Rewrite = rewrite
		if err != nil {
			return abort(run, "pbesrewr", err)
		}
	}

	// original keeps the identity; the other variants obtain a symmetry
	mapping := identityMapping
	switch variant {
	case catalogue.VariantFirst, catalogue.VariantAll:
		detect, err := h.detect(ctx, model, property, variant)
		if err != nil {
			// detector crash aborts; an empty detection result does not
			return abort(run, "pbessymmetry", err)
		}
		run.Detect = detect
		if len(detect.Symmetries) > 0 {
			run.SymmetryUsed = permutation.LongestCycle(detect.Symmetries)
			mapping = permutation.CyclesToMapping(run.SymmetryUsed)
		}
	case catalogue.VariantChosen:
		cycle, err := h.chosenSymmetry(model, property)
		if err != nil {
			return abort(run, "chosen symmetry", err)
		}
		run.SymmetryUsed = cycle
		mapping = permutation.CyclesToMapping(cycle)
	}

	solve, err := h.solve(ctx, model, property, mapping)
	run.Solve = solve
	if err != nil {
		var perr *extract.ParseError
		if errors.As(err, &perr) {
			// zero exit but the mandatory fields are gone: the tool's
			// output contract changed, flag it loudly
			return abort(run, "pbessolve output", err)
		}
		// limit kills and crashes keep their partial solve record
		return abort(run, "pbessolve", err)
	}
	return run
}

// chosenSymmetry reads the pre-recorded symmetry for a triple. The file is
// required to exist for every (model, property) the chosen variant visits.
func (h *Harness) chosenSymmetry(model, property string) (string, error) {
	path := h.layout.ChosenSymmetryPath(model, property)
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read chosen symmetry: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

func (h *Harness) store(rs results.ResultSet, model, property string, variant catalogue.Variant, run *results.PipelineRun) {
	rs.Put(model, property, variant, run)
	if h.recorder != nil {
		if err := h.recorder.RecordTriple(model, property, variant, run); err != nil {
			logging.HistoryError("failed to record %s/%s/%s: %v", model, property, variant, err)
		}
	}
}

// abort annotates a run whose remaining stages were abandoned.
func abort(run *results.PipelineRun, stage string, err error) *results.PipelineRun {
	logging.PipelineError("%s failed: %v", stage, err)
	fmt.Fprintf(os.Stderr, "This run crashed: %s: %v\n", stage, err)
	run.Error = fmt.Sprintf("%s: %v", stage, err)
	return run
}

// outcomeOf maps a runner classification to the recorded outcome string.
func outcomeOf(err error) string {
	var timeout *runner.TimeoutError
	if errors.As(err, &timeout) {
		return results.OutcomeTimeout
	}
	var oom *runner.OutOfMemoryError
	if errors.As(err, &oom) {
		return results.OutcomeOutOfMemory
	}
	return ""
}

// distressOf surfaces the tool-specific distress annotation, if any.
func distressOf(err error) string {
	var tool *runner.ToolError
	if errors.As(err, &tool) {
		return tool.Distress
	}
	return ""
}
