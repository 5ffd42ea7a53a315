// Package extract scrapes structured data out of the free-text diagnostics
// the external tools write. The tools' output format is the one genuinely
// unstable external contract, so every marker string and the numeric grammar
// live here and nowhere else.
package extract

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// number matches integers, decimals and exponential notation as the tools
// print them. Extracted substrings are decoded as numeric literals only.
const number = `[+\-]?(?:0|[1-9]\d*)(?:\.\d+)?(?:[eE][+\-]?\d+)?`

var (
	instRe      = regexp.MustCompile(`instantiation: *(` + number + `)`)
	solveRe     = regexp.MustCompile(`solving: *(` + number + `)`)
	generatedRe = regexp.MustCompile(`Generated (` + number + `)`)
	symmetryRe  = regexp.MustCompile(`Found symmetry:\s*(.+)$`)
	cycleRe     = regexp.MustCompile(`\([^)]*\)`)
)

// ParseError reports a mandatory field missing from tool output that exited
// zero. This is a contract violation, not a tool failure: it means the
// external tool's output format changed.
type ParseError struct {
	Field string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("mandatory field %q missing from tool output", e.Field)
}

// Symmetries scans detector stderr line by line for "Found symmetry:"
// markers. The trailing text is kept only when it contains at least one
// parenthesized cycle; marker lines without one mean the identity was found
// and are discarded.
func Symmetries(stderr string) []string {
	var found []string
	for _, line := range strings.Split(stderr, "\n") {
		m := symmetryRe.FindStringSubmatch(strings.TrimRight(line, "\r"))
		if m == nil {
			continue
		}
		tail := strings.TrimSpace(m[1])
		if cycleRe.MatchString(tail) {
			found = append(found, tail)
		}
	}
	return found
}

// SolveStats holds the fields scraped from one solver invocation.
type SolveStats struct {
	// Answer is "true", "false" or "-" when the solver printed neither.
	Answer string
	// Instantiation and Solving are the solver's own reported timings in
	// seconds; both are mandatory.
	Instantiation float64
	Solving       float64
	// Time is Instantiation+Solving rounded to milliseconds.
	Time float64
	// Generated is the reported count of generated parity-game vertices,
	// zero when the solver did not print the marker.
	Generated float64
}

// Solve extracts the solver's answer and timings. Stdout must start with
// exactly "true" or "false" (case sensitive) to resolve the answer; anything
// else yields "-". Stderr must carry both the instantiation and solving
// timing fields or a ParseError is returned; the Generated vertex count is
// optional and defaults to zero.
func Solve(stdout, stderr string) (SolveStats, error) {
	stats := SolveStats{Answer: "-"}
	if strings.HasPrefix(stdout, "false") {
		stats.Answer = "false"
	} else if strings.HasPrefix(stdout, "true") {
		stats.Answer = "true"
	}

	inst, ok := findNumber(instRe, stderr)
	if !ok {
		return SolveStats{}, &ParseError{Field: "instantiation"}
	}
	solving, ok := findNumber(solveRe, stderr)
	if !ok {
		return SolveStats{}, &ParseError{Field: "solving"}
	}
	stats.Instantiation = inst
	stats.Solving = solving
	stats.Time = Round3(inst + solving)

	if g, ok := findNumber(generatedRe, stderr); ok {
		stats.Generated = g
	}
	return stats, nil
}

func findNumber(re *regexp.Regexp, text string) (float64, bool) {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// Round3 rounds a duration in seconds to milliseconds, the precision every
// timing field is recorded with.
func Round3(seconds float64) float64 {
	return math.Round(seconds*1000) / 1000
}
