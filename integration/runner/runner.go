package runner

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jwebster45206/pet-engine/pkg/pet"
)

type ErrorHandlingMode string

const ErrorHandlingExit ErrorHandlingMode = "exit"
const ErrorHandlingContinue ErrorHandlingMode = "continue"

// Runner executes integration tests against a running pet-engine API
type Runner struct {
	BaseURL           string
	Client            *http.Client
	Timeout           time.Duration
	Logger            func(format string, args ...any)
	ErrorHandlingMode ErrorHandlingMode
}

// NewRunner creates a new test runner
func NewRunner(baseURL string) *Runner {
	return &Runner{
		BaseURL:           strings.TrimSuffix(baseURL, "/"),
		Client:            &http.Client{Timeout: 30 * time.Second},
		Timeout:           30 * time.Second,
		Logger:            func(string, ...any) {},
		ErrorHandlingMode: ErrorHandlingContinue,
	}
}

// LoadTestSuite loads a test suite from a YAML file
func LoadTestSuite(filename string) (TestSuite, error) {
	content, err := os.ReadFile(filename)
	if err != nil {
		return TestSuite{}, fmt.Errorf("failed to read test file %s: %w", filename, err)
	}

	var suite TestSuite
	if err := yaml.Unmarshal(content, &suite); err != nil {
		return TestSuite{}, fmt.Errorf("failed to parse YAML in %s: %w", filename, err)
	}
	return suite, nil
}

// LoadTestSuiteWithExpansion loads a test suite and expands it if it's a sequence
func LoadTestSuiteWithExpansion(filename string, casesDir string) ([]TestJob, error) {
	suite, err := LoadTestSuite(filename)
	if err != nil {
		return nil, err
	}

	if !suite.IsSequence() {
		return []TestJob{{Name: suite.Name, Suite: suite, CaseFile: filename}}, nil
	}

	var jobs []TestJob
	for _, caseFile := range suite.Cases {
		subJobs, err := LoadTestSuiteWithExpansion(filepath.Join(casesDir, caseFile), casesDir)
		if err != nil {
			return nil, fmt.Errorf("failed to load case '%s' referenced by sequence '%s': %w", caseFile, suite.Name, err)
		}
		jobs = append(jobs, subJobs...)
	}
	return jobs, nil
}

// RunSuite executes a complete test suite
func (r *Runner) RunSuite(ctx context.Context, suite TestSuite) TestRunResult {
	start := time.Now()
	result := TestRunResult{
		Job:     TestJob{Name: suite.Name, Suite: suite},
		Results: make([]TestResult, 0, len(suite.Steps)),
	}

	for i, step := range suite.Steps {
		r.Logger("    [%d/%d] Running step: %s", i+1, len(suite.Steps), stepName(step))
		stepStart := time.Now()
		err := r.runStep(ctx, step)
		result.Results = append(result.Results, TestResult{
			TestName: suite.Name,
			StepName: stepName(step),
			Success:  err == nil,
			Error:    err,
			Duration: time.Since(stepStart),
		})
		if err != nil {
			r.Logger("      FAIL: %v", err)
			if result.Error == nil {
				result.Error = fmt.Errorf("step %q: %w", stepName(step), err)
			}
			if r.ErrorHandlingMode == ErrorHandlingExit {
				break
			}
		}
	}

	result.Duration = time.Since(start)
	return result
}

func stepName(step TestStep) string {
	if step.Name != "" {
		return step.Name
	}
	if step.Action != "" {
		return step.Do + " " + step.Action
	}
	return step.Do
}

type response struct {
	code int
	body []byte
}

func (r *Runner) runStep(ctx context.Context, step TestStep) error {
	ctx, cancel := context.WithTimeout(ctx, r.Timeout)
	defer cancel()

	var (
		resp *response
		err  error
	)
	switch step.Do {
	case StepWait:
		select {
		case <-time.After(step.Wait):
		case <-ctx.Done():
			return ctx.Err()
		}
		return nil
	case StepReset:
		resp, err = r.call(ctx, http.MethodPost, "/v1/pet/reset", nil)
	case StepStatus:
		resp, err = r.call(ctx, http.MethodGet, "/v1/pet", nil)
	case StepInteract:
		var body any
		if step.FoodID != "" {
			body = map[string]string{"food_id": step.FoodID}
		}
		resp, err = r.call(ctx, http.MethodPost, "/v1/pet/interact/"+step.Action, body)
	case StepBoundary:
		resp, err = r.call(ctx, http.MethodPost, "/v1/pet/boundary", map[string]string{"edge": step.Edge})
	case StepSave:
		resp, err = r.call(ctx, http.MethodPost, "/v1/pet/save", nil)
	case StepLoad:
		resp, err = r.call(ctx, http.MethodPost, "/v1/pet/load", nil)
	case StepDelete:
		resp, err = r.call(ctx, http.MethodDelete, "/v1/pet/save", nil)
	default:
		return fmt.Errorf("unknown step kind %q", step.Do)
	}
	if err != nil {
		return err
	}

	return r.check(ctx, step.Expect, resp)
}

func (r *Runner) call(ctx context.Context, method, path string, body any) (*response, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, r.BaseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	httpResp, err := r.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = httpResp.Body.Close() // Ignore error in defer
	}()

	data, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	return &response{code: httpResp.StatusCode, body: data}, nil
}

func (r *Runner) check(ctx context.Context, exp Expectations, resp *response) error {
	want := exp.StatusCode
	if want == 0 {
		want = http.StatusOK
	}
	if resp.code != want && !(want == http.StatusOK && resp.code == http.StatusNoContent) {
		return fmt.Errorf("expected status %d, got %d: %s", want, resp.code, string(resp.body))
	}
	if exp.ErrorContains != "" && !strings.Contains(string(resp.body), exp.ErrorContains) {
		return fmt.Errorf("expected error containing %q, got %s", exp.ErrorContains, string(resp.body))
	}

	if exp.Inventory != nil {
		got, err := r.inventory(ctx)
		if err != nil {
			return err
		}
		for id, qty := range exp.Inventory {
			if got[id] != qty {
				return fmt.Errorf("expected %d x %s, got %d", qty, id, got[id])
			}
		}
	}

	if len(exp.StatsMin) > 0 || len(exp.StatsMax) > 0 || exp.AnimationToken != "" || len(exp.CooldownActive) > 0 {
		st, err := r.status(ctx)
		if err != nil {
			return err
		}
		return checkStatus(exp, st)
	}
	return nil
}

func checkStatus(exp Expectations, st *pet.Status) error {
	for name, lo := range exp.StatsMin {
		v, ok := st.Stats.StatValue(name)
		if !ok {
			return fmt.Errorf("unknown stat %q", name)
		}
		if int(v) < lo {
			return fmt.Errorf("expected %s >= %d, got %v", name, lo, v)
		}
	}
	for name, hi := range exp.StatsMax {
		v, ok := st.Stats.StatValue(name)
		if !ok {
			return fmt.Errorf("unknown stat %q", name)
		}
		if int(v) > hi {
			return fmt.Errorf("expected %s <= %d, got %v", name, hi, v)
		}
	}
	if exp.AnimationToken != "" && st.AnimationToken != exp.AnimationToken {
		return fmt.Errorf("expected animation %q, got %q", exp.AnimationToken, st.AnimationToken)
	}
	for _, action := range exp.CooldownActive {
		if st.Cooldowns[action] <= 0 {
			return fmt.Errorf("expected %s to be cooling down", action)
		}
	}
	return nil
}

func (r *Runner) status(ctx context.Context) (*pet.Status, error) {
	resp, err := r.call(ctx, http.MethodGet, "/v1/pet", nil)
	if err != nil {
		return nil, err
	}
	var st pet.Status
	if err := json.Unmarshal(resp.body, &st); err != nil {
		return nil, fmt.Errorf("failed to parse status: %w", err)
	}
	return &st, nil
}

func (r *Runner) inventory(ctx context.Context) (map[string]int, error) {
	resp, err := r.call(ctx, http.MethodGet, "/v1/pet/inventory", nil)
	if err != nil {
		return nil, err
	}
	var body struct {
		Inventory map[string]int `json:"inventory"`
	}
	if err := json.Unmarshal(resp.body, &body); err != nil {
		return nil, fmt.Errorf("failed to parse inventory: %w", err)
	}
	return body.Inventory, nil
}

// CaseFiles lists the YAML case files in dir, sorted.
func CaseFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read cases directory: %w", err)
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() && (strings.HasSuffix(e.Name(), ".yaml") || strings.HasSuffix(e.Name(), ".yml")) {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	slices.Sort(files)
	return files, nil
}
