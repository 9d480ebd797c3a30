package strategy

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/quaylabs/marketscout/pkg/pipeline"
	"github.com/quaylabs/marketscout/pkg/retry"
)

// State names a phase of the orchestrator's control loop.
type State string

const (
	StateSelecting  State = "selecting"
	StateRunning    State = "running"
	StateSucceeded  State = "succeeded"
	StateEscalating State = "escalating"
	StateExhausted  State = "exhausted"
)

// Outcome is the terminal result of a whole run.
type Outcome string

const (
	Completed Outcome = "completed"
	Exhausted Outcome = "exhausted"
)

// StrategyAttempt records one strategy's run for the diagnostic trail.
type StrategyAttempt struct {
	Strategy string        `json:"strategy"`
	TaskSet  string        `json:"task_set"`
	Attempt  int           `json:"attempt"`
	Kind     retry.Kind    `json:"kind,omitempty"`
	Error    string        `json:"error,omitempty"`
	Elapsed  time.Duration `json:"elapsed"`
	Wait     time.Duration `json:"wait,omitempty"`
}

// RunResult is the terminal value of the whole system: either Completed with
// the pipeline output, or Exhausted with the diagnostic trail explaining why
// each strategy failed.
type RunResult struct {
	Outcome   Outcome           `json:"outcome"`
	Output    string            `json:"output,omitempty"`
	Strategy  string            `json:"strategy,omitempty"`
	Pipeline  *pipeline.Result  `json:"pipeline,omitempty"`
	Trail     []StrategyAttempt `json:"trail,omitempty"`
	LastError string            `json:"last_error,omitempty"`
}

// Escalation waits before trying the next strategy, scaled by the attempt
// number just finished.
const (
	OverloadedWaitUnit = 60 * time.Second
	QuotaWaitUnit      = 90 * time.Second
)

// Orchestrator drives the top-level control loop: pick a strategy, run the
// pipeline under its time budget, and on failure or timeout escalate down
// the ladder until something succeeds or everything is exhausted.
//
// Escalation is strictly sequential; at most one pipeline run is in flight
// at a time.
type Orchestrator struct {
	Ladder   *Ladder
	Executor *pipeline.Executor

	// MaxAttempts caps strategy attempts independently of ladder length;
	// zero means one attempt per rung.
	MaxAttempts int

	// TaskSets builds the task set for a strategy; defaults to the built-in
	// sets.
	TaskSets func(id pipeline.SetID) *pipeline.TaskSet

	Logger *slog.Logger

	// sleep waits between strategies. Overridable in tests.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewOrchestrator returns an orchestrator over the given ladder and executor.
func NewOrchestrator(ladder *Ladder, executor *pipeline.Executor) *Orchestrator {
	return &Orchestrator{Ladder: ladder, Executor: executor}
}

// Run executes the adaptive control loop for one product analysis. It always
// returns a RunResult; the error mirrors RunResult.LastError on exhaustion so
// callers can use either.
func (o *Orchestrator) Run(ctx context.Context, product string) (*RunResult, error) {
	logger := o.Logger
	if logger == nil {
		logger = slog.Default()
	}
	ladder := o.Ladder
	if ladder == nil {
		ladder = DefaultLadder()
	}
	maxAttempts := o.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = ladder.Len()
	}
	buildTaskSet := o.TaskSets
	if buildTaskSet == nil {
		buildTaskSet = pipeline.BuiltinTaskSet
	}
	sleep := o.sleep
	if sleep == nil {
		sleep = sleepWithContext
	}

	result := &RunResult{}
	state := StateSelecting
	attempt := 0

	var current Strategy
	var taskSet *pipeline.TaskSet
	var runErr error
	var runElapsed time.Duration
	var pipelineResult *pipeline.Result

	for {
		switch state {
		case StateSelecting:
			strategy, ok := ladder.Current()
			if !ok {
				state = StateExhausted
				continue
			}
			current = strategy
			taskSet = buildTaskSet(strategy.TaskSet)
			attempt++
			logger.Info("selected strategy",
				"strategy", strategy.Name, "task_set", taskSet.Name,
				"budget", strategy.TimeBudget, "attempt", attempt)
			state = StateRunning

		case StateRunning:
			start := time.Now()
			pipelineResult, runErr = retry.Bounded(ctx, current.TimeBudget, func(ctx context.Context) (*pipeline.Result, error) {
				return o.Executor.Run(ctx, taskSet, product)
			})
			runElapsed = time.Since(start)
			if runErr == nil {
				state = StateSucceeded
				continue
			}
			if ctx.Err() != nil {
				result.Outcome = Exhausted
				result.LastError = ctx.Err().Error()
				return result, ctx.Err()
			}
			state = StateEscalating

		case StateSucceeded:
			result.Outcome = Completed
			result.Output = pipelineResult.Output
			result.Strategy = current.Name
			result.Pipeline = pipelineResult
			result.Trail = append(result.Trail, StrategyAttempt{
				Strategy: current.Name,
				TaskSet:  taskSet.Name,
				Attempt:  attempt,
				Elapsed:  runElapsed,
			})
			logger.Info("analysis succeeded", "strategy", current.Name, "elapsed", runElapsed)
			return result, nil

		case StateEscalating:
			kind := retry.Classify(runErr)
			wait := escalationWait(kind, attempt)
			result.Trail = append(result.Trail, StrategyAttempt{
				Strategy: current.Name,
				TaskSet:  taskSet.Name,
				Attempt:  attempt,
				Kind:     kind,
				Error:    runErr.Error(),
				Elapsed:  runElapsed,
				Wait:     wait,
			})
			result.LastError = runErr.Error()
			logger.Warn("strategy failed",
				"strategy", current.Name, "kind", kind, "wait", wait, "error", runErr)

			if attempt >= maxAttempts {
				state = StateExhausted
				continue
			}
			if wait > 0 {
				if err := sleep(ctx, wait); err != nil {
					result.Outcome = Exhausted
					return result, err
				}
			}
			if _, ok := ladder.Advance(); !ok {
				state = StateExhausted
				continue
			}
			state = StateSelecting

		case StateExhausted:
			result.Outcome = Exhausted
			if result.LastError == "" {
				result.LastError = "all strategies exhausted"
			}
			logger.Error("all strategies exhausted", "attempts", attempt)
			return result, fmt.Errorf("all strategies exhausted: %s", result.LastError)
		}
	}
}

// escalationWait returns how long to pause before the next strategy: an
// overloaded service gets attempt*60s to recover, a drained quota gets
// attempt*90s to refresh, anything else escalates immediately.
func escalationWait(kind retry.Kind, attempt int) time.Duration {
	switch kind {
	case retry.Overloaded:
		return time.Duration(attempt) * OverloadedWaitUnit
	case retry.RateLimited, retry.QuotaExhausted:
		return time.Duration(attempt) * QuotaWaitUnit
	default:
		return 0
	}
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
