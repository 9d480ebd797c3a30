// Package strategy implements the escalation ladder and the adaptive
// orchestrator that retries a whole pipeline run under progressively cheaper
// strategies when the current one fails or times out.
package strategy

import (
	"time"

	"github.com/quaylabs/marketscout/pkg/pipeline"
)

// Strategy is a named execution profile: an overall time budget plus the task
// set to run under it.
type Strategy struct {
	Name       string         `yaml:"name"`
	TimeBudget time.Duration  `yaml:"time_budget"`
	TaskSet    pipeline.SetID `yaml:"task_set"`
}

// Ladder is an ordered list of strategies, most capable first. Iteration is
// strictly forward and exhausts after the last entry.
type Ladder struct {
	rungs []Strategy
	index int
}

// NewLadder creates a ladder over the given strategies.
func NewLadder(rungs []Strategy) *Ladder {
	return &Ladder{rungs: rungs}
}

// DefaultLadder returns the standard three-rung ladder: a full analysis with
// a generous budget, a quick pass, and a tool-free emergency pass that cannot
// be taken down by search failures.
func DefaultLadder() *Ladder {
	return NewLadder([]Strategy{
		{Name: "Full Analysis", TimeBudget: 600 * time.Second, TaskSet: pipeline.SetFull},
		{Name: "Quick Analysis", TimeBudget: 300 * time.Second, TaskSet: pipeline.SetQuick},
		{Name: "Emergency Analysis", TimeBudget: 120 * time.Second, TaskSet: pipeline.SetEmergency},
	})
}

// Current returns the current strategy, or false if the ladder is exhausted.
func (l *Ladder) Current() (Strategy, bool) {
	if l.index >= len(l.rungs) {
		return Strategy{}, false
	}
	return l.rungs[l.index], true
}

// Advance moves to the next strategy and returns it, or false if the ladder
// is now exhausted.
func (l *Ladder) Advance() (Strategy, bool) {
	l.index++
	return l.Current()
}

// Len returns the number of rungs.
func (l *Ladder) Len() int {
	return len(l.rungs)
}
