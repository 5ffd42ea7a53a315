// Package report aggregates one or more persisted result sets into the
// comparison table: one row per (model, property) with the answer, the
// generated vertex counts, and the mean solve times of the original, first
// and chosen variants side by side. Output is a standalone LaTeX document
// and optionally CSV.
package report

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"symbench/internal/logging"
	"symbench/internal/permutation"
	"symbench/internal/results"
)

// variants the comparison table covers; the exhaustive-detection variant has
// no column and is ignored here.
var tableVariants = []string{"original", "first", "chosen"}

// sample is one variant's solver evidence extracted from one result file.
type sample struct {
	model    string
	property string
	variant  string

	answer    string
	vertices  string
	solved    bool // answer present, times are meaningful
	solveTime float64

	detection    float64 // first variant only
	hasDetection bool
}

// Row is one aggregated table row.
type Row struct {
	Model    string
	Property string
	Answer   string

	OriginalVertices string
	FirstVertices    string
	ChosenVertices   string

	OriginalTime *float64
	FirstTime    string
	Detection    string
	ChosenTime   *float64
}

// Load reads every result file concurrently and returns the aggregated,
// sorted table rows.
func Load(paths []string) ([]Row, error) {
	sets := make([]results.ResultSet, len(paths))
	var g errgroup.Group
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			rs, err := results.LoadResultSet(path)
			if err != nil {
				return fmt.Errorf("failed to load %s: %w", path, err)
			}
			sets[i] = rs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var samples []sample
	for i, rs := range sets {
		collected := collect(rs)
		logging.Report("%s: %d samples", paths[i], len(collected))
		samples = append(samples, collected...)
	}
	return aggregate(samples), nil
}

// collect flattens a result set into samples. Only triples with solver
// evidence contribute; a triple aborted before the solver has no row, which
// downstream renders as a timeout cell.
func collect(rs results.ResultSet) []sample {
	var out []sample
	for model, props := range rs {
		for property, runs := range props {
			for _, variant := range tableVariants {
				run := runs[variant]
				if run == nil || run.Solve == nil {
					continue
				}
				s := sample{
					model:    model,
					property: property,
					variant:  variant,
					answer:   run.Solve.Answer,
				}
				if run.Solve.Generated != 0 {
					s.vertices = strconv.FormatFloat(run.Solve.Generated, 'f', -1, 64)
				}
				if run.Solve.Answer != "" {
					s.solved = true
					s.solveTime = run.Solve.Instantiation + run.Solve.Solving
				}
				if variant == "first" && run.Detect != nil {
					s.hasDetection = true
					s.detection = run.Detect.TotalTime
				}
				out = append(out, s)
			}
		}
	}
	return out
}

// bucket accumulates one variant's samples for one (model, property).
type bucket struct {
	answers    map[string]bool
	vertices   string
	solveTimes []float64
	detections []float64
}

func newBucket() *bucket {
	return &bucket{answers: map[string]bool{}}
}

func (b *bucket) add(s sample) {
	if s.answer != "" {
		b.answers[s.answer] = true
	}
	if s.vertices != "" && b.vertices == "" {
		b.vertices = s.vertices
	}
	if s.solved {
		b.solveTimes = append(b.solveTimes, s.solveTime)
	}
	if s.hasDetection {
		b.detections = append(b.detections, s.detection)
	}
}

func (b *bucket) anyAnswer() string {
	for a := range b.answers {
		return a
	}
	return ""
}

func mean(xs []float64) *float64 {
	if len(xs) == 0 {
		return nil
	}
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	m := sum / float64(len(xs))
	return &m
}

// aggregate folds the samples into one row per (model, property). Variants
// of the same property must agree on the answer; a disagreement renders as
// "?". The chosen variant's answer is preferred, then the original's.
func aggregate(samples []sample) []Row {
	type key struct{ model, property string }
	buckets := map[key]map[string]*bucket{}

	for _, s := range samples {
		k := key{s.model, s.property}
		byVariant, ok := buckets[k]
		if !ok {
			byVariant = map[string]*bucket{}
			for _, v := range tableVariants {
				byVariant[v] = newBucket()
			}
			buckets[k] = byVariant
		}
		byVariant[s.variant].add(s)
	}

	rows := make([]Row, 0, len(buckets))
	for k, byVariant := range buckets {
		answers := map[string]bool{}
		for _, v := range tableVariants {
			for a := range byVariant[v].answers {
				answers[a] = true
			}
		}
		answer := ""
		switch {
		case len(answers) > 1:
			answer = "?"
		case byVariant["chosen"].anyAnswer() != "":
			answer = byVariant["chosen"].anyAnswer()
		default:
			answer = byVariant["original"].anyAnswer()
		}

		firstSolve := mean(byVariant["first"].solveTimes)
		detect := mean(byVariant["first"].detections)

		firstTime := formatTime(firstSolve)
		if firstSolve == nil && detect == nil {
			firstTime = "-"
		}
		detection := "t-o"
		if detect != nil {
			detection = "+" + formatTime(detect)
		}

		rows = append(rows, Row{
			Model:            k.model,
			Property:         k.property,
			Answer:           formatAnswer(answer),
			OriginalVertices: orDash(byVariant["original"].vertices),
			FirstVertices:    orDash(byVariant["first"].vertices),
			ChosenVertices:   orDash(byVariant["chosen"].vertices),
			OriginalTime:     mean(byVariant["original"].solveTimes),
			FirstTime:        firstTime,
			Detection:        detection,
			ChosenTime:       mean(byVariant["chosen"].solveTimes),
		})
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Model != rows[j].Model {
			return rows[i].Model < rows[j].Model
		}
		return rows[i].Property < rows[j].Property
	})
	return rows
}

// SymmetryShape renders a used symmetry as its cycle-length product for
// display, e.g. "$2^{2}$ * $3$".
func SymmetryShape(perm string) string {
	return permutation.CycleShape(perm)
}

// formatTime renders a mean solve time. A nil mean marks a variant that
// never produced an answer, which reads as a timeout.
func formatTime(x *float64) string {
	if x == nil {
		return "t-o"
	}
	txt := strconv.FormatFloat(*x, 'f', 3, 64)
	txt = strings.TrimRight(txt, "0")
	txt = strings.TrimRight(txt, ".")
	if txt == "" {
		return "t-o"
	}
	return txt
}

func formatAnswer(answer string) string {
	switch strings.ToLower(answer) {
	case "":
		return "-"
	case "true":
		return `$\checkmark$`
	case "false":
		return `$\times$`
	}
	return answer
}

func orDash(v string) string {
	if v == "" {
		return "-"
	}
	return v
}
