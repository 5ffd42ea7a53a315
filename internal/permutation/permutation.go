// Package permutation handles the cycle-notation permutation strings emitted
// by the symmetry detector, e.g. "(1 2 3)(4 5)". It converts them into the
// explicit mapping notation the solver accepts and selects a representative
// among several candidates.
package permutation

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	cycleRe  = regexp.MustCompile(`\(([^()]*)\)`)
	digitRe  = regexp.MustCompile(`\d+`)
	allNumRe = regexp.MustCompile(`^\d+$`)
)

// elements tokenizes the interior of one cycle. A single contiguous run of
// digits with no separating space is a list of single-digit elements written
// without separators, so each character is one element. Anything else splits
// on whitespace-delimited numeric tokens.
func elements(cycle string) []string {
	cycle = strings.TrimSpace(cycle)
	if cycle == "" {
		return nil
	}
	if !strings.Contains(cycle, " ") && allNumRe.MatchString(cycle) {
		elems := make([]string, 0, len(cycle))
		for _, r := range cycle {
			elems = append(elems, string(r))
		}
		return elems
	}
	return digitRe.FindAllString(cycle, -1)
}

// CyclesToMapping converts a cycle-notation string into mapping notation:
// "(1 2 3)" -> "[ 1 -> 2, 2 -> 3, 3 -> 1 ]". A single-element cycle is a
// fixed point. Input with no parenthesized cycles, including malformed or
// non-cycle text, yields "[]".
func CyclesToMapping(cycles string) string {
	var pairs []string
	for _, m := range cycleRe.FindAllStringSubmatch(cycles, -1) {
		elems := elements(m[1])
		switch len(elems) {
		case 0:
			continue
		case 1:
			pairs = append(pairs, fmt.Sprintf("%s -> %s", elems[0], elems[0]))
		default:
			for i, src := range elems {
				dst := elems[(i+1)%len(elems)]
				pairs = append(pairs, fmt.Sprintf("%s -> %s", src, dst))
			}
		}
	}
	if len(pairs) == 0 {
		return "[]"
	}
	return "[ " + strings.Join(pairs, ", ") + " ]"
}

// longestCycleLength returns the element count of the longest individual
// cycle in a cycle-notation string, 0 if it contains none.
func longestCycleLength(cycles string) int {
	longest := 0
	for _, m := range cycleRe.FindAllStringSubmatch(cycles, -1) {
		if n := len(elements(m[1])); n > longest {
			longest = n
		}
	}
	return longest
}

// LongestCycle selects, from several candidate cycle-notation strings, the
// one whose longest individual cycle has the most elements. Ties go to the
// earliest candidate. The empty candidate list yields "".
func LongestCycle(candidates []string) string {
	best := ""
	bestLen := -1
	for _, c := range candidates {
		if n := longestCycleLength(c); n > bestLen {
			best = c
			bestLen = n
		}
	}
	return best
}
