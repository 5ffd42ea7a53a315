package permutation

import (
	"fmt"
	"sort"
	"strings"
)

// CycleShape renders the multiset of cycle lengths of a permutation as a
// compact product string, e.g. "(1 2)(3 4)(5 6 7)" -> "$2^2$ * $3$". The
// identity (empty string or "()") renders as "1". The report tables use this
// to show which symmetry was exploited without printing the full permutation.
func CycleShape(perm string) string {
	if strings.TrimSpace(perm) == "" || strings.TrimSpace(perm) == "()" {
		return "1"
	}

	count := map[int]int{}
	for _, m := range cycleRe.FindAllStringSubmatch(perm, -1) {
		if n := len(elements(m[1])); n > 0 {
			count[n]++
		}
	}
	if len(count) == 0 {
		return "1"
	}

	sizes := make([]int, 0, len(count))
	for size := range count {
		sizes = append(sizes, size)
	}
	sort.Ints(sizes)

	parts := make([]string, 0, len(sizes))
	for _, size := range sizes {
		if count[size] == 1 {
			parts = append(parts, fmt.Sprintf("$%d$", size))
		} else {
			parts = append(parts, fmt.Sprintf("$%d^{%d}$", size, count[size]))
		}
	}
	return strings.Join(parts, " * ")
}
