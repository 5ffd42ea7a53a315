package runner

import (
	"fmt"
	"strings"
)

// TimeoutError reports that the supervisor killed the tool for exceeding the
// CPU-time ceiling. It carries the attempted command line and the numbers the
// supervisor confessed.
type TimeoutError struct {
	Command  []string
	CPU      float64
	MemKB    int64
	MaxMemKB int64
	Stale    int64
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("the command %q timed out (cpu %.1fs)", strings.Join(e.Command, " "), e.CPU)
}

// OutOfMemoryError reports that the supervisor killed the tool for exceeding
// the memory ceiling.
type OutOfMemoryError struct {
	Command  []string
	CPU      float64
	MemKB    int64
	MaxMemKB int64
	Stale    int64
}

func (e *OutOfMemoryError) Error() string {
	return fmt.Sprintf("the command %q ran out of memory (max %d KB)", strings.Join(e.Command, " "), e.MaxMemKB)
}

// ToolError reports a non-zero exit with neither supervisor marker present.
// Both captured streams are attached; Distress carries a tool-specific
// diagnostic annotation when one of the known distress markers matched.
type ToolError struct {
	Command  []string
	ExitCode int
	Stdout   string
	Stderr   string
	Distress string
}

func (e *ToolError) Error() string {
	return fmt.Sprintf("the command %q failed with exit code %d\nstandard error and output:\n%s",
		strings.Join(e.Command, " "), e.ExitCode, e.Stderr)
}
