package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"text/template"
	"time"

	"github.com/quaylabs/marketscout/pkg/backend"
	"github.com/quaylabs/marketscout/pkg/retry"
)

// Executor runs a task set sequentially against a remote backend. Every
// remote call, inference and search alike, is routed through the retrying
// caller; no call bypasses it.
type Executor struct {
	Backend backend.Backend
	Model   string
	Search  backend.SearchTool
	Caller  *retry.Caller
	Logger  *slog.Logger
}

// TaskResult captures one task's output and the remote-call attempts behind it.
type TaskResult struct {
	ID       string          `json:"id"`
	Role     string          `json:"role,omitempty"`
	Output   string          `json:"output"`
	Attempts []retry.Attempt `json:"attempts,omitempty"`
	Duration time.Duration   `json:"duration"`
}

// Result captures a pipeline run. On failure, Tasks holds the results of
// tasks that completed before the failing one; later tasks never executed.
type Result struct {
	Output string                 `json:"output"`
	Order  []string               `json:"order"`
	Tasks  map[string]*TaskResult `json:"tasks"`
}

// Run executes the set's tasks in dependency order, merging each task's
// description with the resolved outputs of its dependencies. The final
// task's output is the pipeline result. The first failed task aborts the
// run; the partial Result is returned alongside the error for diagnostics.
func (e *Executor) Run(ctx context.Context, set *TaskSet, product string) (*Result, error) {
	if e.Backend == nil {
		return nil, fmt.Errorf("backend is required")
	}
	if e.Caller == nil {
		return nil, fmt.Errorf("caller is required")
	}
	if err := set.Validate(); err != nil {
		return nil, err
	}

	ordered, err := Order(set)
	if err != nil {
		return nil, err
	}

	logger := e.Logger
	if logger == nil {
		logger = slog.Default()
	}

	result := &Result{Tasks: make(map[string]*TaskResult)}
	outputs := make(map[string]string)

	for _, task := range ordered {
		start := time.Now()
		logger.Info("running task", "set", set.Name, "task", task.ID)

		taskResult, err := e.runTask(ctx, set, task, product, outputs)
		if taskResult != nil {
			taskResult.Duration = time.Since(start)
			result.Tasks[task.ID] = taskResult
			result.Order = append(result.Order, task.ID)
		}
		if err != nil {
			return result, fmt.Errorf("task %s: %w", task.ID, err)
		}

		outputs[task.ID] = taskResult.Output
		result.Output = taskResult.Output
	}

	return result, nil
}

func (e *Executor) runTask(ctx context.Context, set *TaskSet, task *Task, product string, outputs map[string]string) (*TaskResult, error) {
	taskResult := &TaskResult{ID: task.ID, Role: task.Role}

	searchResults := ""
	if task.UsesSearch {
		if e.Search == nil {
			return taskResult, fmt.Errorf("task requires the search tool but none is configured")
		}
		query := task.SearchQuery
		if query == "" {
			query = product
		}
		found, err := e.Caller.Call(ctx, task.ID+"/search", func(ctx context.Context) (string, error) {
			return e.Search.Search(ctx, query)
		})
		taskResult.Attempts = append(taskResult.Attempts, e.Caller.Attempts()...)
		if err != nil {
			return taskResult, err
		}
		searchResults = found
	}

	prompt, err := buildPrompt(set, task, product, outputs, searchResults)
	if err != nil {
		return taskResult, err
	}

	output, err := e.Caller.Call(ctx, task.ID, func(ctx context.Context) (string, error) {
		return e.Backend.Invoke(ctx, e.Model, prompt)
	})
	taskResult.Attempts = append(taskResult.Attempts, e.Caller.Attempts()...)
	if err != nil {
		return taskResult, err
	}

	taskResult.Output = output
	return taskResult, nil
}

// buildPrompt merges the role, the rendered task description, the outputs of
// the task's dependencies (and only those), search results, and the expected
// output into one prompt.
func buildPrompt(set *TaskSet, task *Task, product string, outputs map[string]string, searchResults string) (string, error) {
	tmpl, err := template.New(task.ID).Parse(task.Description)
	if err != nil {
		return "", fmt.Errorf("parse description for task %s: %w", task.ID, err)
	}

	var desc strings.Builder
	if err := tmpl.Execute(&desc, map[string]any{"Product": product}); err != nil {
		return "", fmt.Errorf("render description for task %s: %w", task.ID, err)
	}

	var sb strings.Builder
	if role, ok := set.Roles[task.Role]; ok {
		fmt.Fprintf(&sb, "You are a %s. %s\nYour goal: %s\n\n", role.Name, role.Backstory, role.Goal)
	}
	sb.WriteString(desc.String())

	for _, dep := range task.DependsOn {
		if output, ok := outputs[dep]; ok {
			fmt.Fprintf(&sb, "\n\nContext from %s:\n%s", dep, output)
		}
	}

	if searchResults != "" {
		fmt.Fprintf(&sb, "\n\nWeb search results:\n%s", searchResults)
	}
	if task.ExpectedOutput != "" {
		fmt.Fprintf(&sb, "\n\nExpected output: %s", task.ExpectedOutput)
	}

	return sb.String(), nil
}
