// Package catalogue fixes the benchmark universe: which models exist per
// size tier, which workflow variants a run exercises, which properties need
// the extra rewrite stage, and how every on-disk artifact is named.
package catalogue

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Variant is one strategy for obtaining/using a symmetry before solving.
type Variant string

const (
	// VariantOriginal solves without symmetry reduction.
	VariantOriginal Variant = "original"
	// VariantFirst auto-detects one symmetry and uses it.
	VariantFirst Variant = "first"
	// VariantAll auto-detects all symmetries and uses the one with the
	// longest cycle.
	VariantAll Variant = "all"
	// VariantChosen reads a pre-recorded symmetry from disk.
	VariantChosen Variant = "chosen"
)

// Nested size tiers; each widens the previous one.
var (
	modelsXS = []string{"mutex"}
	modelsS  = []string{"mutex", "dining3"}
	modelsM  = []string{"mutex",
		"dining3", "dining4",
		"routing3", "routing4",
		"alloc3", "alloc4"}
	modelsL = []string{"mutex",
		"dining3", "dining4", "dining5", "dining6", "dining7",
		"routing3", "routing4", "routing5", "routing6", "routing7",
		"alloc3", "alloc4", "alloc5", "alloc6", "alloc7"}
	modelsXL = []string{"mutex",
		"dining3", "dining4", "dining5", "dining6", "dining7", "dining8",
		"routing3", "routing4", "routing5", "routing6", "routing7", "routing8",
		"alloc3", "alloc4", "alloc5", "alloc6", "alloc7", "alloc8"}
)

// rewriteProperties is the fixed set of properties whose obligations must be
// normalized by the extra rewrite stage before solving.
var rewriteProperties = map[string]bool{
	"no_conf_before_req": true,
	"no_con_query":       true,
	"no_inf_eat":         true,
}

// Models returns the model catalogue for a size tier, sorted for
// deterministic iteration order.
func Models(selection string) ([]string, error) {
	var models []string
	switch selection {
	case "xs":
		models = modelsXS
	case "s":
		models = modelsS
	case "m":
		models = modelsM
	case "l":
		models = modelsL
	case "xl":
		models = modelsXL
	default:
		return nil, fmt.Errorf("unknown model selection %q", selection)
	}
	out := make([]string, len(models))
	copy(out, models)
	sort.Strings(out)
	return out, nil
}

// Workflows maps a workflow set name to the variants it runs, in order.
func Workflows(name string) ([]Variant, error) {
	switch name {
	case "first-chosen", "":
		return []Variant{VariantOriginal, VariantChosen, VariantFirst}, nil
	case "chosen":
		return []Variant{VariantChosen}, nil
	case "first":
		return []Variant{VariantOriginal, VariantFirst}, nil
	case "all":
		return []Variant{VariantOriginal, VariantAll}, nil
	default:
		return nil, fmt.Errorf("unknown workflow set %q", name)
	}
}

// NeedsRewrite reports whether a property requires the obligation rewrite
// stage.
func NeedsRewrite(property string) bool {
	return rewriteProperties[property]
}

// NeedsStagedTranslate reports whether a model belongs to one of the families
// whose sums and function-typed data the direct linearizer cannot handle, so
// translation goes through the four-step strategy.
func NeedsStagedTranslate(model string) bool {
	return strings.Contains(model, "routing") || strings.Contains(model, "alloc")
}

// Layout resolves every deterministically named file the pipeline touches.
// Distinct (model, property, variant) triples never collide on output paths.
type Layout struct {
	ModelsDir     string
	PropertiesDir string
	SymmetriesDir string
}

// ModelPath returns the model description, models/<model>.mcrl2.
func (l Layout) ModelPath(model string) string {
	return filepath.Join(l.ModelsDir, model+".mcrl2")
}

// ProcessPath returns the translated process representation,
// models/<model>[.hint].lps. The hint names an intermediate translation step
// and is omitted when empty.
func (l Layout) ProcessPath(model, hint string) string {
	if hint != "" {
		return filepath.Join(l.ModelsDir, fmt.Sprintf("%s.%s.lps", model, hint))
	}
	return filepath.Join(l.ModelsDir, model+".lps")
}

// ObligationPath returns the verification obligation,
// models/<model>.<property>[.hint].pbes. The hint is omitted when empty or
// "original" so all variants of a property share one obligation file.
func (l Layout) ObligationPath(model, property, hint string) string {
	if hint != "" && hint != string(VariantOriginal) {
		return filepath.Join(l.ModelsDir, fmt.Sprintf("%s.%s.%s.pbes", model, property, hint))
	}
	return filepath.Join(l.ModelsDir, fmt.Sprintf("%s.%s.pbes", model, property))
}

// PropertyPath returns the correctness formula, properties/<model>/<property>.mcf.
func (l Layout) PropertyPath(model, property string) string {
	return filepath.Join(l.PropertiesDir, model, property+".mcf")
}

// ChosenSymmetryPath returns the pre-recorded symmetry file,
// symmetries/<model>/<model>_<property>.txt.
func (l Layout) ChosenSymmetryPath(model, property string) string {
	return filepath.Join(l.SymmetriesDir, model, fmt.Sprintf("%s_%s.txt", model, property))
}

// Properties discovers the correctness formulas recorded for a model by
// listing properties/<model>/*.mcf, sorted by name.
func (l Layout) Properties(model string) ([]string, error) {
	dir := filepath.Join(l.PropertiesDir, model)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list properties for %s: %w", model, err)
	}
	var props []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".mcf") {
			continue
		}
		props = append(props, strings.TrimSuffix(e.Name(), ".mcf"))
	}
	sort.Strings(props)
	return props, nil
}
