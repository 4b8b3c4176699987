package runner

import "time"

// TestSuite defines a complete integration test scenario. A suite either has
// Steps or sequences other Cases.
type TestSuite struct {
	Name  string     `yaml:"name"`
	Steps []TestStep `yaml:"steps,omitempty"`
	Cases []string   `yaml:"cases,omitempty"`
}

// IsSequence returns true if this is a suite that sequences other cases
func (ts *TestSuite) IsSequence() bool {
	return len(ts.Cases) > 0
}

// Step kinds
const (
	StepReset    = "reset"
	StepStatus   = "status"
	StepInteract = "interact"
	StepBoundary = "boundary"
	StepSave     = "save"
	StepLoad     = "load"
	StepDelete   = "delete_save"
	StepWait     = "wait"
)

// TestStep is one API call and what to check afterwards.
type TestStep struct {
	Name   string        `yaml:"name,omitempty"`
	Do     string        `yaml:"do"`
	Action string        `yaml:"action,omitempty"`
	FoodID string        `yaml:"food_id,omitempty"`
	Edge   string        `yaml:"edge,omitempty"`
	Wait   time.Duration `yaml:"wait,omitempty"`
	Expect Expectations  `yaml:"expect,omitempty"`
}

// Expectations defines what to check after a test step executes. Unset
// fields are not checked.
type Expectations struct {
	StatusCode     int            `yaml:"status_code,omitempty"`
	ErrorContains  string         `yaml:"error_contains,omitempty"`
	Inventory      map[string]int `yaml:"inventory,omitempty"`
	StatsMin       map[string]int `yaml:"stats_min,omitempty"`
	StatsMax       map[string]int `yaml:"stats_max,omitempty"`
	AnimationToken string         `yaml:"animation_token,omitempty"`
	CooldownActive []string       `yaml:"cooldown_active,omitempty"`
}

// TestResult contains the outcome of running a test step
type TestResult struct {
	TestName string
	StepName string
	Success  bool
	Error    error
	Duration time.Duration
}

// TestJob represents a test suite to be executed
type TestJob struct {
	Name     string
	Suite    TestSuite
	CaseFile string
}

// TestRunResult contains the results of running an entire test suite
type TestRunResult struct {
	Job      TestJob
	Results  []TestResult
	Duration time.Duration
	Error    error
}

// Passed counts successful steps.
func (r TestRunResult) Passed() int {
	n := 0
	for _, res := range r.Results {
		if res.Success {
			n++
		}
	}
	return n
}
