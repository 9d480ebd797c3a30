package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/quaylabs/marketscout/pkg/backend"
	"github.com/quaylabs/marketscout/pkg/retry"
)

// testCaller returns a caller that fails fast so tests never back off.
func testCaller() *retry.Caller {
	c := retry.NewCaller(retry.NewPolicy(time.Millisecond))
	c.MaxAttempts = 0
	c.CallTimeout = time.Second
	return c
}

// recordingBackend remembers the prompts it was invoked with.
type recordingBackend struct {
	prompts []string
	reply   func(prompt string) (string, error)
}

func (b *recordingBackend) Name() string     { return "recording" }
func (b *recordingBackend) Models() []string { return []string{"mock-1"} }

func (b *recordingBackend) Invoke(_ context.Context, _ string, prompt string) (string, error) {
	b.prompts = append(b.prompts, prompt)
	if b.reply != nil {
		return b.reply(prompt)
	}
	return "output for " + prompt[:min(20, len(prompt))], nil
}

func TestRunEmergencySetWithoutSearch(t *testing.T) {
	be := &recordingBackend{}
	executor := &Executor{
		Backend: be,
		Model:   "mock-1",
		Caller:  testCaller(),
	}

	result, err := executor.Run(context.Background(), BuiltinTaskSet(SetEmergency), "solar kettle")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(result.Order) != 3 {
		t.Fatalf("expected 3 tasks, got %v", result.Order)
	}
	if result.Output == "" {
		t.Fatal("empty pipeline output")
	}
	// Product name is rendered into every prompt.
	for _, prompt := range be.prompts {
		if !strings.Contains(prompt, "solar kettle") {
			t.Fatalf("prompt missing product name:\n%s", prompt)
		}
	}
}

func TestRunMergesDependencyOutputs(t *testing.T) {
	be := &recordingBackend{
		reply: func(prompt string) (string, error) {
			switch {
			case strings.Contains(prompt, "Who would buy"):
				return "CUSTOMER-ANALYSIS", nil
			case strings.Contains(prompt, "How difficult"):
				return "DIFFICULTY-ASSESSMENT", nil
			default:
				return "FINAL-PLAN", nil
			}
		},
	}
	executor := &Executor{Backend: be, Model: "mock-1", Caller: testCaller()}

	result, err := executor.Run(context.Background(), BuiltinTaskSet(SetEmergency), "widget")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if result.Output != "FINAL-PLAN" {
		t.Fatalf("final output = %q", result.Output)
	}

	finalPrompt := be.prompts[len(be.prompts)-1]
	if !strings.Contains(finalPrompt, "CUSTOMER-ANALYSIS") || !strings.Contains(finalPrompt, "DIFFICULTY-ASSESSMENT") {
		t.Fatalf("dependent task prompt missing dependency outputs:\n%s", finalPrompt)
	}

	// Independent tasks must not see each other's output.
	firstPrompt := be.prompts[0]
	if strings.Contains(firstPrompt, "DIFFICULTY-ASSESSMENT") || strings.Contains(firstPrompt, "FINAL-PLAN") {
		t.Fatalf("independent task prompt leaked other outputs:\n%s", firstPrompt)
	}
}

func TestRunSearchResultsReachPrompt(t *testing.T) {
	be := &recordingBackend{}
	search := &backend.MockSearch{Result: "SEARCH-SNIPPETS"}
	executor := &Executor{Backend: be, Model: "mock-1", Search: search, Caller: testCaller()}

	_, err := executor.Run(context.Background(), BuiltinTaskSet(SetFull), "widget")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if search.Calls != 3 {
		t.Fatalf("expected 3 searches, got %d", search.Calls)
	}
	for _, prompt := range be.prompts {
		if !strings.Contains(prompt, "SEARCH-SNIPPETS") {
			t.Fatalf("prompt missing search results:\n%s", prompt)
		}
	}
}

func TestRunFailsWhenSearchToolMissing(t *testing.T) {
	executor := &Executor{Backend: &recordingBackend{}, Model: "mock-1", Caller: testCaller()}

	_, err := executor.Run(context.Background(), BuiltinTaskSet(SetFull), "widget")
	if err == nil {
		t.Fatal("expected failure for tool-enabled set without search tool")
	}
}

func TestRunAbortsOnFirstFailureKeepsCompleted(t *testing.T) {
	be := &recordingBackend{
		reply: func(prompt string) (string, error) {
			if strings.Contains(prompt, "How difficult") {
				return "", errors.New("invalid API key")
			}
			return "OK", nil
		},
	}
	executor := &Executor{Backend: be, Model: "mock-1", Caller: testCaller()}

	result, err := executor.Run(context.Background(), BuiltinTaskSet(SetEmergency), "widget")
	if err == nil {
		t.Fatal("expected failure")
	}
	// The first task completed; the third never ran.
	if result.Tasks["market_analysis"] == nil || result.Tasks["market_analysis"].Output != "OK" {
		t.Fatalf("completed output not retained: %+v", result.Tasks)
	}
	if _, ran := result.Tasks["business_strategy"]; ran {
		t.Fatal("task after the failure should not have executed")
	}
	if len(be.prompts) != 2 {
		t.Fatalf("expected 2 invocations, got %d", len(be.prompts))
	}
}

func TestRunRecordsAttempts(t *testing.T) {
	be := &recordingBackend{}
	executor := &Executor{Backend: be, Model: "mock-1", Caller: testCaller()}

	result, err := executor.Run(context.Background(), BuiltinTaskSet(SetEmergency), "widget")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	for id, taskResult := range result.Tasks {
		if len(taskResult.Attempts) == 0 {
			t.Fatalf("task %s has no attempt log", id)
		}
	}
}

func TestRunScriptedBackendRetries(t *testing.T) {
	be := backend.NewMockBackend()
	be.Script = []backend.ScriptedResponse{
		{Err: errors.New("503 overloaded")},
		{Text: "a"},
		{Text: "b"},
		{Text: "c"},
	}

	c := retry.NewCaller(retry.NewPolicy(time.Millisecond))
	c.MaxAttempts = 1
	c.CallTimeout = time.Second
	// Keep the test fast: the overloaded floor would otherwise wait 60s.
	c.Policy.OverloadedFloor = time.Millisecond
	c.Policy.Base = time.Millisecond

	executor := &Executor{Backend: be, Model: "mock-1", Caller: c}
	result, err := executor.Run(context.Background(), BuiltinTaskSet(SetEmergency), "widget")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if result.Output != "c" {
		t.Fatalf("final output = %q", result.Output)
	}
	// First task retried once.
	if got := len(result.Tasks["market_analysis"].Attempts); got != 2 {
		t.Fatalf("expected 2 attempts for first task, got %d", got)
	}
}
