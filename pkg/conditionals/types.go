package conditionals

import (
	"encoding/json"
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"
)

// Operator is a comparison operator usable in a condition clause.
type Operator string

const (
	OpLT Operator = "<"
	OpGT Operator = ">"
	OpLE Operator = "<="
	OpGE Operator = ">="
	OpEQ Operator = "=="
)

// Valid reports whether op is one of the supported operators.
func (op Operator) Valid() bool {
	switch op {
	case OpLT, OpGT, OpLE, OpGE, OpEQ:
		return true
	}
	return false
}

// Comparison is a single tagged clause: Field Op Value.
type Comparison struct {
	Field string   `json:"field"`
	Op    Operator `json:"op"`
	Value float64  `json:"value"`
}

// Holds reports whether actual satisfies the comparison.
func (c Comparison) Holds(actual float64) bool {
	switch c.Op {
	case OpLT:
		return actual < c.Value
	case OpGT:
		return actual > c.Value
	case OpLE:
		return actual <= c.Value
	case OpGE:
		return actual >= c.Value
	case OpEQ:
		return actual == c.Value
	}
	return false
}

func (c Comparison) String() string {
	return fmt.Sprintf("%s %s %g", c.Field, c.Op, c.Value)
}

// Condition is a conjunction of comparisons. An empty condition always holds.
//
// In catalog files a condition is written as an object keyed by stat name, where
// each value is either a bare number (equality) or an object of operator to value:
//
//	{"hunger": {"<": 30}, "level": 2}
type Condition struct {
	Comparisons []Comparison
}

// IsEmpty reports whether the condition has no clauses.
func (c Condition) IsEmpty() bool {
	return len(c.Comparisons) == 0
}

// Fields returns the distinct stat names referenced by the condition.
func (c Condition) Fields() []string {
	seen := make(map[string]bool, len(c.Comparisons))
	var fields []string
	for _, cmp := range c.Comparisons {
		if !seen[cmp.Field] {
			seen[cmp.Field] = true
			fields = append(fields, cmp.Field)
		}
	}
	return fields
}

// UnmarshalJSON accepts the catalog object form described on Condition.
func (c *Condition) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("condition must be an object: %w", err)
	}
	parsed, err := parse(raw, OpEQ)
	if err != nil {
		return err
	}
	c.Comparisons = parsed
	return nil
}

// UnmarshalYAML accepts the same shape as UnmarshalJSON from YAML catalogs.
func (c *Condition) UnmarshalYAML(value *yaml.Node) error {
	var raw map[string]any
	if err := value.Decode(&raw); err != nil {
		return fmt.Errorf("condition must be a mapping: %w", err)
	}
	parsed, err := parse(raw, OpEQ)
	if err != nil {
		return err
	}
	c.Comparisons = parsed
	return nil
}

// MarshalJSON writes the condition back in catalog object form.
func (c Condition) MarshalJSON() ([]byte, error) {
	return json.Marshal(toRaw(c.Comparisons))
}

// Requirement is a Condition whose bare values mean "at least":
//
//	{"level": 5, "feed_count": 10}
//
// Operator objects are accepted as well.
type Requirement struct {
	Condition
}

func (r *Requirement) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("requirement must be an object: %w", err)
	}
	parsed, err := parse(raw, OpGE)
	if err != nil {
		return err
	}
	r.Comparisons = parsed
	return nil
}

func (r *Requirement) UnmarshalYAML(value *yaml.Node) error {
	var raw map[string]any
	if err := value.Decode(&raw); err != nil {
		return fmt.Errorf("requirement must be a mapping: %w", err)
	}
	parsed, err := parse(raw, OpGE)
	if err != nil {
		return err
	}
	r.Comparisons = parsed
	return nil
}

// parse turns the loosely typed catalog form into ordered comparisons.
// Fields and operators are sorted so evaluation order is stable.
func parse(raw map[string]any, bareOp Operator) ([]Comparison, error) {
	fields := make([]string, 0, len(raw))
	for field := range raw {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	var out []Comparison
	for _, field := range fields {
		switch v := raw[field].(type) {
		case map[string]any:
			ops := make([]string, 0, len(v))
			for op := range v {
				ops = append(ops, op)
			}
			sort.Strings(ops)
			for _, op := range ops {
				if !Operator(op).Valid() {
					return nil, fmt.Errorf("field %q: unsupported operator %q", field, op)
				}
				num, err := toFloat(v[op])
				if err != nil {
					return nil, fmt.Errorf("field %q operator %q: %w", field, op, err)
				}
				out = append(out, Comparison{Field: field, Op: Operator(op), Value: num})
			}
		default:
			num, err := toFloat(v)
			if err != nil {
				return nil, fmt.Errorf("field %q: %w", field, err)
			}
			out = append(out, Comparison{Field: field, Op: bareOp, Value: num})
		}
	}
	return out, nil
}

func toRaw(comparisons []Comparison) map[string]map[string]float64 {
	raw := make(map[string]map[string]float64, len(comparisons))
	for _, cmp := range comparisons {
		if raw[cmp.Field] == nil {
			raw[cmp.Field] = make(map[string]float64)
		}
		raw[cmp.Field][string(cmp.Op)] = cmp.Value
	}
	return raw
}

func toFloat(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case uint64:
		return float64(n), nil
	case json.Number:
		return n.Float64()
	}
	return 0, fmt.Errorf("expected a number, got %T", v)
}
