// Package runner invokes one external tool at a time under an optional
// limit-enforcing supervisor, captures its output and classifies the outcome.
// The supervisor owns all limit enforcement; the runner does no polling or
// timer management of its own.
package runner

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"time"

	"symbench/internal/config"
	"symbench/internal/extract"
	"symbench/internal/logging"
)

// Supervisor diagnostic markers, written to stderr on limit violation.
var (
	timeoutMarkerRe = regexp.MustCompile(`TIMEOUT CPU (\d+[.]\d*) MEM (\d+) MAXMEM (\d+) STALE (\d+)`)
	memoryMarkerRe  = regexp.MustCompile(`MEM CPU (\d+[.]\d*) MEM (\d+) MAXMEM (\d+) STALE (\d+)`)
)

// Tool-specific distress markers, recorded as annotations only.
const (
	distressTableFull = "MDD Unique table full"
	distressNotSRF    = "The PBES after removing counter example information"
)

// Limits is the resource ceiling for one invocation. Zero values mean
// unlimited for that dimension.
type Limits struct {
	TimeoutSeconds int
	MemoryKB       int64
}

// Invocation describes one external tool call: tool path, options, one or
// two input paths and an optional output path, argv-ordered as
// tool options... inputs... [output].
type Invocation struct {
	Tool    string
	Options []string
	Inputs  []string
	Output  string
	Limits  *Limits
}

func (inv Invocation) argv() []string {
	cmd := append([]string{inv.Tool}, inv.Options...)
	cmd = append(cmd, inv.Inputs...)
	if inv.Output != "" {
		cmd = append(cmd, inv.Output)
	}
	return cmd
}

// Result is what a zero-exit invocation produced. Created once, never
// mutated; tool-specific field extraction is the caller's concern.
type Result struct {
	Command []string
	Stdout  string
	Stderr  string
	// TotalTime is elapsed wall time in seconds around the whole
	// invocation, supervisor overhead included, rounded to milliseconds.
	TotalTime float64
	Truncated bool
}

// Runner launches external tools sequentially. It is not safe for concurrent
// use and is not meant to be: the harness never overlaps invocations.
type Runner struct {
	supervisor string
	enforce    bool
	maxOutput  int64
}

// New builds a Runner from the tools and limits configuration.
func New(tools config.ToolsConfig, limits config.LimitsConfig) *Runner {
	return &Runner{
		supervisor: tools.SupervisorPath,
		enforce:    limits.Enforce,
		maxOutput:  limits.MaxOutputBytes,
	}
}

// Run launches the tool, waits for it and classifies the outcome. Limits are
// applied only when the invocation carries them and enforcement is enabled.
func (r *Runner) Run(ctx context.Context, inv Invocation) (*Result, error) {
	argv := inv.argv()

	limited := inv.Limits != nil && (inv.Limits.TimeoutSeconds > 0 || inv.Limits.MemoryKB > 0)
	if limited && r.enforce {
		if _, err := os.Stat(r.supervisor); err != nil {
			return nil, fmt.Errorf("limit supervisor %s not found: %w", r.supervisor, err)
		}
		wrapper := []string{r.supervisor, "--confess", "--no-info-on-success"}
		if inv.Limits.TimeoutSeconds > 0 {
			wrapper = append(wrapper, "-t", strconv.Itoa(inv.Limits.TimeoutSeconds))
		}
		if inv.Limits.MemoryKB > 0 {
			wrapper = append(wrapper, "-m", strconv.FormatInt(inv.Limits.MemoryKB, 10))
		}
		argv = append(wrapper, argv...)
	}

	logging.RunnerDebug("executing: %s", strings.Join(argv, " "))

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)

	var stdoutBuf, stderrBuf bytes.Buffer
	stdoutLimited := &limitedWriter{w: &stdoutBuf, max: r.maxOutput}
	stderrLimited := &limitedWriter{w: &stderrBuf, max: r.maxOutput}
	cmd.Stdout = stdoutLimited
	cmd.Stderr = stderrLimited

	start := time.Now()
	err := cmd.Run()
	elapsed := time.Since(start)

	stdout := stdoutBuf.String()
	stderr := stderrBuf.String()

	if err != nil {
		return nil, r.classify(argv, stdout, stderr, err)
	}

	res := &Result{
		Command:   argv,
		Stdout:    stdout,
		Stderr:    stderr,
		TotalTime: extract.Round3(elapsed.Seconds()),
		Truncated: stdoutLimited.truncated || stderrLimited.truncated,
	}
	logging.RunnerDebug("command succeeded in %.3fs: %s", res.TotalTime, argv[0])
	return res, nil
}

// classify turns a failed invocation into one of the typed errors. The
// supervisor markers are checked first so a limit kill is never misreported
// as a plain tool failure.
func (r *Runner) classify(argv []string, stdout, stderr string, err error) error {
	if m := timeoutMarkerRe.FindStringSubmatch(stderr); m != nil {
		logging.RunnerWarn("timeout: %s", argv[0])
		return &TimeoutError{
			Command:  argv,
			CPU:      parseF(m[1]),
			MemKB:    parseI(m[2]),
			MaxMemKB: parseI(m[3]),
			Stale:    parseI(m[4]),
		}
	}
	if m := memoryMarkerRe.FindStringSubmatch(stderr); m != nil {
		logging.RunnerWarn("out of memory: %s", argv[0])
		return &OutOfMemoryError{
			Command:  argv,
			CPU:      parseF(m[1]),
			MemKB:    parseI(m[2]),
			MaxMemKB: parseI(m[3]),
			Stale:    parseI(m[4]),
		}
	}

	distress := ""
	if strings.Contains(stderr, distressTableFull) {
		distress = distressTableFull
	} else if strings.Contains(stderr, distressNotSRF) {
		distress = "PBES is not in SRF"
	}

	exitCode := -1
	if exitErr, ok := err.(*exec.ExitError); ok {
		exitCode = exitErr.ExitCode()
	} else {
		// the process never ran (missing binary, permission); keep the
		// launcher's message with the captured stream
		if stderr != "" {
			stderr += "\n"
		}
		stderr += err.Error()
	}
	logging.RunnerWarn("tool failure (exit %d): %s", exitCode, argv[0])
	return &ToolError{
		Command:  argv,
		ExitCode: exitCode,
		Stdout:   stdout,
		Stderr:   stderr,
		Distress: distress,
	}
}

func parseF(s string) float64 {
	v, _ := strconv.ParseFloat(s, 64)
	return v
}

func parseI(s string) int64 {
	v, _ := strconv.ParseInt(s, 10, 64)
	return v
}
