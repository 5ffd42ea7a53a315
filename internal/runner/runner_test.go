package runner

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"symbench/internal/config"
)

// TestHelperProcess isn't a real test. It stands in for an external tool:
// MOCK_STDOUT/MOCK_STDERR are echoed and MOCK_EXIT is the exit code.
func TestHelperProcess(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}
	fmt.Fprint(os.Stdout, os.Getenv("MOCK_STDOUT"))
	fmt.Fprint(os.Stderr, os.Getenv("MOCK_STDERR"))
	code, _ := strconv.Atoi(os.Getenv("MOCK_EXIT"))
	os.Exit(code)
}

func helperInvocation(inputs ...string) Invocation {
	return Invocation{
		Tool:    os.Args[0],
		Options: []string{"-test.run=TestHelperProcess", "--"},
		Inputs:  inputs,
	}
}

func mockTool(t *testing.T, stdout, stderr string, exit int) {
	t.Helper()
	t.Setenv("GO_WANT_HELPER_PROCESS", "1")
	t.Setenv("MOCK_STDOUT", stdout)
	t.Setenv("MOCK_STDERR", stderr)
	t.Setenv("MOCK_EXIT", strconv.Itoa(exit))
}

func newTestRunner() *Runner {
	return New(config.ToolsConfig{}, config.LimitsConfig{MaxOutputBytes: 1 << 20})
}

func TestRunSuccess(t *testing.T) {
	mockTool(t, "true\n", "instantiation: 1.5\nsolving: 0.25\n", 0)

	res, err := newTestRunner().Run(context.Background(), helperInvocation("input.pbes"))
	require.NoError(t, err)

	assert.Equal(t, "true\n", res.Stdout)
	assert.Contains(t, res.Stderr, "solving: 0.25")
	assert.GreaterOrEqual(t, res.TotalTime, 0.0)
	assert.False(t, res.Truncated)
	assert.Equal(t, "input.pbes", res.Command[len(res.Command)-1])
}

func TestRunClassifiesTimeout(t *testing.T) {
	mockTool(t, "", "TIMEOUT CPU 12.5 MEM 1000 MAXMEM 2000 STALE 0\n", 1)

	_, err := newTestRunner().Run(context.Background(), helperInvocation("input.pbes"))

	var te *TimeoutError
	require.True(t, errors.As(err, &te), "want TimeoutError, got %v", err)
	assert.Equal(t, 12.5, te.CPU)
	assert.Equal(t, int64(1000), te.MemKB)
	assert.Equal(t, int64(2000), te.MaxMemKB)
	assert.Equal(t, int64(0), te.Stale)
	assert.NotEmpty(t, te.Command)

	var tool *ToolError
	assert.False(t, errors.As(err, &tool), "a CPU marker must never classify as ToolError")
}

func TestRunClassifiesOutOfMemory(t *testing.T) {
	mockTool(t, "", "MEM CPU 3.0 MEM 999 MAXMEM 888 STALE 1\n", 1)

	_, err := newTestRunner().Run(context.Background(), helperInvocation("input.pbes"))

	var oom *OutOfMemoryError
	require.True(t, errors.As(err, &oom), "want OutOfMemoryError, got %v", err)
	assert.Equal(t, 3.0, oom.CPU)
	assert.Equal(t, int64(888), oom.MaxMemKB)
}

func TestRunClassifiesToolFailure(t *testing.T) {
	mockTool(t, "partial output", "something broke", 2)

	_, err := newTestRunner().Run(context.Background(), helperInvocation("input.pbes"))

	var te *ToolError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, 2, te.ExitCode)
	assert.Equal(t, "partial output", te.Stdout)
	assert.Contains(t, te.Stderr, "something broke")
	assert.Empty(t, te.Distress)
}

func TestRunAnnotatesDistress(t *testing.T) {
	t.Run("table full", func(t *testing.T) {
		mockTool(t, "", "MDD Unique table full, giving up\n", 1)
		_, err := newTestRunner().Run(context.Background(), helperInvocation())
		var te *ToolError
		require.True(t, errors.As(err, &te))
		assert.Equal(t, "MDD Unique table full", te.Distress)
	})

	t.Run("not in SRF", func(t *testing.T) {
		mockTool(t, "", "The PBES after removing counter example information is not in SRF\n", 1)
		_, err := newTestRunner().Run(context.Background(), helperInvocation())
		var te *ToolError
		require.True(t, errors.As(err, &te))
		assert.Equal(t, "PBES is not in SRF", te.Distress)
	})
}

func TestRunWrapsSupervisor(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("supervisor script requires a unix shell")
	}

	// a fake supervisor that confesses a CPU kill
	sup := filepath.Join(t.TempDir(), "timeout")
	script := "#!/bin/sh\necho 'TIMEOUT CPU 42.0 MEM 1 MAXMEM 2 STALE 0' >&2\nexit 1\n"
	require.NoError(t, os.WriteFile(sup, []byte(script), 0755))

	r := New(
		config.ToolsConfig{SupervisorPath: sup},
		config.LimitsConfig{Enforce: true, MaxOutputBytes: 1 << 20},
	)
	inv := Invocation{
		Tool:   "/bin/true",
		Inputs: []string{"in"},
		Limits: &Limits{TimeoutSeconds: 30, MemoryKB: 1024},
	}

	_, err := r.Run(context.Background(), inv)

	var te *TimeoutError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, 42.0, te.CPU)
	// the recorded command carries the full supervisor prefix
	joined := strings.Join(te.Command, " ")
	assert.Contains(t, joined, "--confess --no-info-on-success -t 30 -m 1024")
}

func TestRunMissingSupervisor(t *testing.T) {
	r := New(
		config.ToolsConfig{SupervisorPath: filepath.Join(t.TempDir(), "gone")},
		config.LimitsConfig{Enforce: true, MaxOutputBytes: 1 << 20},
	)
	inv := helperInvocation()
	inv.Limits = &Limits{TimeoutSeconds: 1}

	_, err := r.Run(context.Background(), inv)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestRunLimitsIgnoredWhenNotEnforced(t *testing.T) {
	mockTool(t, "ok", "", 0)

	r := New(config.ToolsConfig{}, config.LimitsConfig{Enforce: false, MaxOutputBytes: 1 << 20})
	inv := helperInvocation()
	inv.Limits = &Limits{TimeoutSeconds: 1, MemoryKB: 1}

	res, err := r.Run(context.Background(), inv)
	require.NoError(t, err)
	assert.Equal(t, "ok", res.Stdout)
	assert.NotContains(t, strings.Join(res.Command, " "), "--confess")
}

func TestRunTruncatesOutput(t *testing.T) {
	mockTool(t, strings.Repeat("x", 4096), "", 0)

	r := New(config.ToolsConfig{}, config.LimitsConfig{MaxOutputBytes: 128})
	res, err := r.Run(context.Background(), helperInvocation())
	require.NoError(t, err)
	assert.Len(t, res.Stdout, 128)
	assert.True(t, res.Truncated)
}

func TestRunMissingBinary(t *testing.T) {
	r := newTestRunner()
	inv := Invocation{Tool: filepath.Join(t.TempDir(), "no-such-tool")}

	_, err := r.Run(context.Background(), inv)
	var te *ToolError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, -1, te.ExitCode)
}
