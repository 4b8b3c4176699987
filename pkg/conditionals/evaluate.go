package conditionals

// StatsView provides the minimal interface needed to evaluate conditions.
// This avoids an import cycle with the stats package.
type StatsView interface {
	// StatValue returns the named stat and whether it exists.
	StatValue(name string) (float64, bool)
}

// MissingPolicy decides how a clause on a stat the view does not expose is treated.
type MissingPolicy int

const (
	// SkipMissing ignores clauses on unknown stats.
	SkipMissing MissingPolicy = iota
	// FailMissing makes the whole condition fail.
	FailMissing
)

// Evaluate checks that every comparison in c holds against view.
// An empty condition always holds.
func Evaluate(c Condition, view StatsView, missing MissingPolicy) bool {
	for _, cmp := range c.Comparisons {
		actual, ok := view.StatValue(cmp.Field)
		if !ok {
			if missing == FailMissing {
				return false
			}
			continue
		}
		if !cmp.Holds(actual) {
			return false
		}
	}
	return true
}

// MapView adapts a plain map to StatsView. Handy for tests and validation.
type MapView map[string]float64

func (m MapView) StatValue(name string) (float64, bool) {
	v, ok := m[name]
	return v, ok
}
