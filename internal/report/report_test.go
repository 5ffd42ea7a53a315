package report

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"symbench/internal/catalogue"
	"symbench/internal/results"
)

func saveResultSet(t *testing.T, rs results.ResultSet) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "results.yaml")
	require.NoError(t, rs.Save(path))
	return path
}

func solvedRun(answer string, instantiation, solving, generated float64) *results.PipelineRun {
	return &results.PipelineRun{
		Solve: &results.SolveRecord{
			Answer:        answer,
			Instantiation: instantiation,
			Solving:       solving,
			Time:          instantiation + solving,
			Generated:     generated,
		},
	}
}

func withDetection(run *results.PipelineRun, totaltime float64, symmetries ...string) *results.PipelineRun {
	run.Detect = &results.DetectRecord{TotalTime: totaltime, Symmetries: symmetries}
	if len(symmetries) > 0 {
		run.SymmetryUsed = symmetries[0]
	}
	return run
}

func TestLoadAggregatesSingleFile(t *testing.T) {
	rs := results.NewResultSet()
	rs.Put("mutex", "safety", catalogue.VariantOriginal, solvedRun("true", 1.0, 2.0, 100))
	rs.Put("mutex", "safety", catalogue.VariantFirst,
		withDetection(solvedRun("true", 0.5, 0.5, 40), 0.25, "(1 2 3)"))
	rs.Put("mutex", "safety", catalogue.VariantChosen, solvedRun("true", 0.4, 0.4, 30))

	rows, err := Load([]string{saveResultSet(t, rs)})
	require.NoError(t, err)
	require.Len(t, rows, 1)

	r := rows[0]
	assert.Equal(t, "mutex", r.Model)
	assert.Equal(t, "safety", r.Property)
	assert.Equal(t, `$\checkmark$`, r.Answer)
	assert.Equal(t, "100", r.OriginalVertices)
	assert.Equal(t, "40", r.FirstVertices)
	assert.Equal(t, "30", r.ChosenVertices)
	require.NotNil(t, r.OriginalTime)
	assert.InDelta(t, 3.0, *r.OriginalTime, 1e-9)
	assert.Equal(t, "1", r.FirstTime)
	assert.Equal(t, "+0.25", r.Detection)
	require.NotNil(t, r.ChosenTime)
	assert.InDelta(t, 0.8, *r.ChosenTime, 1e-9)
}

func TestAnswerDisagreementRendersQuestionMark(t *testing.T) {
	rs := results.NewResultSet()
	rs.Put("dining3", "no_deadlock", catalogue.VariantOriginal, solvedRun("true", 1, 1, 10))
	rs.Put("dining3", "no_deadlock", catalogue.VariantFirst,
		withDetection(solvedRun("false", 1, 1, 10), 0.1, "(1 2)"))

	rows, err := Load([]string{saveResultSet(t, rs)})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "?", rows[0].Answer)
}

func TestChosenAnswerPreferredOverOriginal(t *testing.T) {
	rows := aggregate([]sample{
		{model: "m", property: "p", variant: "original", answer: "false", solved: true, solveTime: 1},
		{model: "m", property: "p", variant: "chosen", answer: "false", solved: true, solveTime: 2},
	})
	require.Len(t, rows, 1)
	assert.Equal(t, `$\times$`, rows[0].Answer)
}

func TestTimedOutTripleRendersTimeout(t *testing.T) {
	rs := results.NewResultSet()
	// solver was killed: record retained, no answer, no times
	rs.Put("routing3", "safety", catalogue.VariantOriginal, &results.PipelineRun{
		Solve: &results.SolveRecord{Outcome: results.OutcomeTimeout},
		Error: "pbessolve: killed",
	})
	rs.Put("routing3", "safety", catalogue.VariantFirst,
		withDetection(solvedRun("true", 2, 2, 50), 0.5, "(1 2)"))

	rows, err := Load([]string{saveResultSet(t, rs)})
	require.NoError(t, err)
	require.Len(t, rows, 1)

	r := rows[0]
	assert.Nil(t, r.OriginalTime)
	assert.Equal(t, "t-o", formatTime(r.OriginalTime))
	assert.Equal(t, "4", r.FirstTime)
	assert.Equal(t, "+0.5", r.Detection)
}

func TestAbortedBeforeSolverRendersDashFirstTime(t *testing.T) {
	rows := aggregate([]sample{
		{model: "m", property: "p", variant: "original", answer: "true", solved: true, solveTime: 1},
	})
	require.Len(t, rows, 1)
	// first never reached the solver nor the detector
	assert.Equal(t, "-", rows[0].FirstTime)
	assert.Equal(t, "t-o", rows[0].Detection)
}

func TestAggregateAveragesAcrossFiles(t *testing.T) {
	file := func(inst, solving, detect float64) string {
		rs := results.NewResultSet()
		rs.Put("mutex", "safety", catalogue.VariantFirst,
			withDetection(solvedRun("true", inst, solving, 40), detect, "(1 2 3)"))
		return saveResultSet(t, rs)
	}

	rows, err := Load([]string{file(1, 1, 0.2), file(2, 2, 0.4)})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "3", rows[0].FirstTime)
	assert.Equal(t, "+0.3", rows[0].Detection)
}

func TestRowsSortedByModelThenProperty(t *testing.T) {
	rows := aggregate([]sample{
		{model: "routing3", property: "b", variant: "original", answer: "true", solved: true, solveTime: 1},
		{model: "mutex", property: "z", variant: "original", answer: "true", solved: true, solveTime: 1},
		{model: "mutex", property: "a", variant: "original", answer: "true", solved: true, solveTime: 1},
	})
	require.Len(t, rows, 3)
	assert.Equal(t, "mutex", rows[0].Model)
	assert.Equal(t, "a", rows[0].Property)
	assert.Equal(t, "z", rows[1].Property)
	assert.Equal(t, "routing3", rows[2].Model)
}

func TestWriteCSV(t *testing.T) {
	rows := aggregate([]sample{
		{model: "mutex", property: "safety", variant: "original",
			answer: "true", vertices: "100", solved: true, solveTime: 1.5},
	})

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, rows))

	out := buf.String()
	assert.Contains(t, out, "model,property,answer")
	assert.Contains(t, out, "mutex,safety,$\\checkmark$,100,-,-,1.5,-,t-o,t-o")
}

func TestWriteLaTeX(t *testing.T) {
	rows := aggregate([]sample{
		{model: "mutex", property: "no_deadlock", variant: "original",
			answer: "false", vertices: "100", solved: true, solveTime: 1.5},
	})

	var buf bytes.Buffer
	require.NoError(t, WriteLaTeX(&buf, rows, "Benchmark Results"))

	out := buf.String()
	assert.Contains(t, out, `\documentclass{article}`)
	assert.Contains(t, out, `\usepackage{booktabs}`)
	assert.Contains(t, out, `\title{Benchmark Results}`)
	// underscores in property names are escaped
	assert.Contains(t, out, `no\_deadlock`)
	assert.Contains(t, out, `$\times$`)
	assert.Contains(t, out, `\bottomrule`)
}

func TestFormatTime(t *testing.T) {
	v := func(f float64) *float64 { return &f }
	assert.Equal(t, "t-o", formatTime(nil))
	assert.Equal(t, "1.5", formatTime(v(1.5)))
	assert.Equal(t, "2", formatTime(v(2.0)))
	assert.Equal(t, "0.125", formatTime(v(0.125)))
	assert.Equal(t, "t-o", formatTime(v(0)))
}

func TestSymmetryShape(t *testing.T) {
	assert.Equal(t, "1", SymmetryShape(""))
	assert.Equal(t, "$3$", SymmetryShape("(1 2 3)"))
	assert.Equal(t, "$2^{2}$ * $3$", SymmetryShape("(1 2)(3 4)(5 6 7)"))
}
