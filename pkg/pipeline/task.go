// Package pipeline defines the analysis task graph and the sequential
// executor that runs it against a remote inference backend.
package pipeline

import "fmt"

// Role describes who performs a task. Goal and backstory are folded into the
// prompt ahead of the task description.
type Role struct {
	Name      string `yaml:"name"`
	Goal      string `yaml:"goal"`
	Backstory string `yaml:"backstory"`
}

// Task is one step of the analysis pipeline.
//
// Description is a text/template body; it may reference {{.Product}}. Outputs
// of the tasks named in DependsOn are appended to the rendered prompt as
// context, so a task only ever sees outputs it declared a dependency on.
type Task struct {
	ID             string   `yaml:"id"`
	Role           string   `yaml:"role"`
	Description    string   `yaml:"description"`
	ExpectedOutput string   `yaml:"expected_output,omitempty"`
	DependsOn      []string `yaml:"depends_on,omitempty"`
	UsesSearch     bool     `yaml:"uses_search,omitempty"`
	SearchQuery    string   `yaml:"search_query,omitempty"`
}

// TaskSet is a named, ordered collection of tasks plus the roles they use.
type TaskSet struct {
	Name  string          `yaml:"name"`
	Roles map[string]Role `yaml:"roles"`
	Tasks []*Task         `yaml:"tasks"`
}

// Validate checks the task set for structural errors.
func (s *TaskSet) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("task set name is required")
	}
	if len(s.Tasks) == 0 {
		return fmt.Errorf("task set must define at least one task")
	}

	seen := make(map[string]struct{})
	for _, task := range s.Tasks {
		if task.ID == "" {
			return fmt.Errorf("task ID is required")
		}
		if task.Description == "" {
			return fmt.Errorf("task %s must have a description", task.ID)
		}
		if _, ok := seen[task.ID]; ok {
			return fmt.Errorf("duplicate task ID: %s", task.ID)
		}
		seen[task.ID] = struct{}{}

		if task.Role != "" {
			if _, ok := s.Roles[task.Role]; !ok {
				return fmt.Errorf("task %s references unknown role %s", task.ID, task.Role)
			}
		}
	}

	for _, task := range s.Tasks {
		for _, dep := range task.DependsOn {
			if _, ok := seen[dep]; !ok {
				return fmt.Errorf("task %s depends on unknown task %s", task.ID, dep)
			}
		}
	}

	return nil
}

// UsesSearchTool reports whether any task in the set needs the search tool.
func (s *TaskSet) UsesSearchTool() bool {
	for _, task := range s.Tasks {
		if task.UsesSearch {
			return true
		}
	}
	return false
}
