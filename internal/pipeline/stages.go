package pipeline

import (
	"context"
	"path/filepath"
	"strings"

	"symbench/internal/catalogue"
	"symbench/internal/extract"
	"symbench/internal/logging"
	"symbench/internal/results"
	"symbench/internal/runner"
)

// External tool binaries the pipeline drives.
const (
	toolTranslate  = "mcrl22lps"
	toolSumInst    = "lpssuminst"
	toolFunUnfold  = "lpsfununfold"
	toolRewriteLP  = "lpsrewr"
	toolObligation = "lps2pbes"
	toolRewrite    = "pbesrewr"
	toolDetect     = "merc-pbes"
	toolSolve      = "pbessolve"
)

// identityMapping is the solver's no-symmetry argument.
const identityMapping = "[0->0]"

func (h *Harness) mcrl2Tool(name string) string {
	return filepath.Join(h.cfg.Tools.MCRL2BinDir, name)
}

func (h *Harness) limits() *runner.Limits {
	return &runner.Limits{
		TimeoutSeconds: h.cfg.Limits.TimeoutSeconds,
		MemoryKB:       h.cfg.Limits.MemoryLimitKB,
	}
}

// translate converts a model description into its process representation.
// The two routing/alloc families use sums and function-typed data the direct
// linearizer cannot handle, so they go through the four-step strategy.
// Translation runs without limits.
func (h *Harness) translate(ctx context.Context, model string) (*results.TranslateRecord, error) {
	mcrl2File := h.layout.ModelPath(model)
	lpsFile := h.layout.ProcessPath(model, "")

	logging.Pipeline("translating %s to %s", mcrl2File, lpsFile)

	direct := runner.Invocation{
		Tool:    h.mcrl2Tool(toolTranslate),
		Options: []string{"-nf"},
		Inputs:  []string{mcrl2File},
		Output:  lpsFile,
	}
	res, err := h.run.Run(ctx, direct)
	if err != nil {
		return nil, err
	}
	record := &results.TranslateRecord{
		Options:    "-nf",
		InputFile:  mcrl2File,
		OutputFile: lpsFile,
		Steps:      1,
		TotalTime:  res.TotalTime,
	}
	if !catalogue.NeedsStagedTranslate(model) {
		return record, nil
	}

	sumInstFile := h.layout.ProcessPath(model, "suminst")
	funUnfoldFile := h.layout.ProcessPath(model, "suminst.fununfold")
	steps := []runner.Invocation{
		{Tool: h.mcrl2Tool(toolSumInst), Inputs: []string{lpsFile}, Output: sumInstFile},
		{Tool: h.mcrl2Tool(toolFunUnfold), Inputs: []string{sumInstFile}, Output: funUnfoldFile},
		{Tool: h.mcrl2Tool(toolRewriteLP), Inputs: []string{funUnfoldFile}, Output: lpsFile},
	}
	for _, inv := range steps {
		res, err := h.run.Run(ctx, inv)
		if err != nil {
			return nil, err
		}
		record.TotalTime = extract.Round3(record.TotalTime + res.TotalTime)
		record.Steps++
	}
	return record, nil
}

// obligation combines the property formula with the process representation
// into a verification obligation, under limits.
func (h *Harness) obligation(ctx context.Context, model, property string) (*results.ObligationRecord, error) {
	mcfFile := h.layout.PropertyPath(model, property)
	lpsFile := h.layout.ProcessPath(model, "")
	pbesFile := h.layout.ObligationPath(model, property, "")

	logging.Pipeline("generating obligation %s from %s and %s", pbesFile, mcfFile, lpsFile)

	res, err := h.run.Run(ctx, runner.Invocation{
		Tool:    h.mcrl2Tool(toolObligation),
		Options: []string{"-v", "-f"},
		Inputs:  []string{mcfFile, lpsFile},
		Output:  pbesFile,
		Limits:  h.limits(),
	})
	record := &results.ObligationRecord{
		Options:    "-v-f",
		McfFile:    mcfFile,
		LpsFile:    lpsFile,
		OutputFile: pbesFile,
	}
	if err != nil {
		record.Outcome = outcomeOf(err)
		return record, err
	}
	record.TotalTime = res.TotalTime
	return record, nil
}

// rewrite applies the two successive normalization passes the SRF-only
// properties need before their obligations are solvable.
func (h *Harness) rewrite(ctx context.Context, model, property string) (*results.RewriteRecord, error) {
	pbesFile := h.layout.ObligationPath(model, property, "")
	tmpFile := h.layout.ObligationPath(model, property, "tmp")

	logging.Pipeline("rewriting %s", pbesFile)

	record := &results.RewriteRecord{
		Options:    "-v-pppg-v-pquantifier-all",
		InputFile:  pbesFile,
		OutputFile: pbesFile,
	}
	passes := []runner.Invocation{
		{Tool: h.mcrl2Tool(toolRewrite), Options: []string{"-v", "-pppg"}, Inputs: []string{pbesFile}, Output: tmpFile},
		{Tool: h.mcrl2Tool(toolRewrite), Options: []string{"-v", "-pquantifier-all"}, Inputs: []string{tmpFile}, Output: pbesFile},
	}
	for _, inv := range passes {
		res, err := h.run.Run(ctx, inv)
		if err != nil {
			return record, err
		}
		record.TotalTime = extract.Round3(record.TotalTime + res.TotalTime)
		record.Passes++
	}
	return record, nil
}

// detect invokes the symmetry detector in first or all mode, under limits.
// Finding zero symmetries is a successful detection; only the call itself
// failing is an error.
func (h *Harness) detect(ctx context.Context, model, property string, variant catalogue.Variant) (*results.DetectRecord, error) {
	pbesFile := h.layout.ObligationPath(model, property, "")

	options := []string{"symmetry", "--partition-data-sorts", "--partition-data-updates"}
	if variant == catalogue.VariantAll {
		options = append(options, "--all-symmetries")
	}

	logging.Pipeline("detecting symmetries of %s (%s mode)", pbesFile, variant)

	res, err := h.run.Run(ctx, runner.Invocation{
		Tool:    filepath.Join(h.cfg.Tools.MercBinDir, toolDetect),
		Options: options,
		Inputs:  []string{pbesFile},
		Limits:  h.limits(),
	})
	if err != nil {
		return nil, err
	}
	record := &results.DetectRecord{
		Options:    strings.Join(options, ""),
		InputFile:  pbesFile,
		TotalTime:  res.TotalTime,
		Symmetries: extract.Symmetries(res.Stderr),
	}
	logging.Pipeline("found %d symmetries in %.3fs", len(record.Symmetries), record.TotalTime)
	return record, nil
}

// solve invokes the solver with the given symmetry mapping, under limits. On
// a limit kill or tool failure the partial record is returned alongside the
// error so the caller can retain it.
func (h *Harness) solve(ctx context.Context, model, property, mapping string) (*results.SolveRecord, error) {
	pbesFile := h.layout.ObligationPath(model, property, "")

	options := []string{
		"-v", "-rjittyc", "--long-strategy=0", "--timings",
		"--symmetry=" + mapping,
		"--gap-path=" + h.cfg.Tools.GapPath,
	}

	logging.Pipeline("solving %s with symmetry %s", pbesFile, mapping)

	record := &results.SolveRecord{
		Options:   strings.Join(options, ""),
		InputFile: pbesFile,
	}
	res, err := h.run.Run(ctx, runner.Invocation{
		Tool:    h.mcrl2Tool(toolSolve),
		Options: options,
		Inputs:  []string{pbesFile},
		Limits:  h.limits(),
	})
	if err != nil {
		record.Outcome = outcomeOf(err)
		record.Note = distressOf(err)
		return record, err
	}
	record.TotalTime = res.TotalTime

	stats, err := extract.Solve(res.Stdout, res.Stderr)
	if err != nil {
		return record, err
	}
	record.Answer = stats.Answer
	record.Instantiation = stats.Instantiation
	record.Solving = stats.Solving
	record.Time = stats.Time
	record.Generated = stats.Generated

	logging.Pipeline("answer %s in %.3fs (%v vertices)", record.Answer, record.Time, record.Generated)
	return record, nil
}
