package history

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"symbench/internal/catalogue"
	"symbench/internal/results"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "history", "runs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRecordTripleRequiresRun(t *testing.T) {
	s := openTestStore(t)
	err := s.RecordTriple("mutex", "safety", catalogue.VariantOriginal, &results.PipelineRun{})
	assert.Error(t, err)
}

func TestRecordAndQueryAnswer(t *testing.T) {
	s := openTestStore(t)

	id, err := s.BeginRun("m", "first")
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	run := &results.PipelineRun{
		Translate:  &results.TranslateRecord{TotalTime: 0.1},
		Obligation: &results.ObligationRecord{TotalTime: 0.2},
		Solve: &results.SolveRecord{
			TotalTime: 3.5,
			Answer:    "true",
		},
	}
	require.NoError(t, s.RecordTriple("mutex", "safety", catalogue.VariantFirst, run))
	require.NoError(t, s.FinishRun())

	answer, err := s.Answers("mutex", "safety", catalogue.VariantFirst)
	require.NoError(t, err)
	assert.Equal(t, "true", answer)

	// a different triple has no history
	answer, err = s.Answers("mutex", "safety", catalogue.VariantAll)
	require.NoError(t, err)
	assert.Empty(t, answer)
}

func TestMostRecentAnswerWins(t *testing.T) {
	s := openTestStore(t)

	solve := func(answer string) *results.PipelineRun {
		return &results.PipelineRun{Solve: &results.SolveRecord{Answer: answer}}
	}

	_, err := s.BeginRun("m", "first")
	require.NoError(t, err)
	require.NoError(t, s.RecordTriple("dining3", "no_deadlock", catalogue.VariantOriginal, solve("false")))
	require.NoError(t, s.FinishRun())

	time.Sleep(10 * time.Millisecond) // distinct run start timestamps

	_, err = s.BeginRun("m", "first")
	require.NoError(t, err)
	require.NoError(t, s.RecordTriple("dining3", "no_deadlock", catalogue.VariantOriginal, solve("true")))
	require.NoError(t, s.FinishRun())

	answer, err := s.Answers("dining3", "no_deadlock", catalogue.VariantOriginal)
	require.NoError(t, err)
	assert.Equal(t, "true", answer)
}

func TestAbortedTripleRecordsPartialStages(t *testing.T) {
	s := openTestStore(t)

	_, err := s.BeginRun("xs", "first")
	require.NoError(t, err)

	run := &results.PipelineRun{
		Translate:  &results.TranslateRecord{TotalTime: 0.1},
		Obligation: &results.ObligationRecord{Outcome: results.OutcomeTimeout},
		Error:      "lps2pbes: killed",
	}
	require.NoError(t, s.RecordTriple("mutex", "safety", catalogue.VariantOriginal, run))

	var stages int
	require.NoError(t, s.db.QueryRow(
		`SELECT COUNT(*) FROM stage_results WHERE model = 'mutex'`).Scan(&stages))
	assert.Equal(t, 2, stages)

	var outcome string
	require.NoError(t, s.db.QueryRow(
		`SELECT outcome FROM stage_results WHERE stage = 'lps2pbes'`).Scan(&outcome))
	assert.Equal(t, results.OutcomeTimeout, outcome)

	// no solver answer yet
	answer, err := s.Answers("mutex", "safety", catalogue.VariantOriginal)
	require.NoError(t, err)
	assert.Empty(t, answer)
}
