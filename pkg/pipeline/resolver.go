package pipeline

import "fmt"

// Order returns the tasks of the set in dependency order: every task appears
// after all tasks in its DependsOn set. Ties keep declared order, so a set
// whose declaration already respects dependencies runs exactly as written.
// Returns an error on unknown dependencies or cycles.
func Order(set *TaskSet) ([]*Task, error) {
	byID := make(map[string]*Task, len(set.Tasks))
	for _, task := range set.Tasks {
		if _, ok := byID[task.ID]; ok {
			return nil, fmt.Errorf("duplicate task ID: %s", task.ID)
		}
		byID[task.ID] = task
	}

	for _, task := range set.Tasks {
		for _, dep := range task.DependsOn {
			if _, ok := byID[dep]; !ok {
				return nil, fmt.Errorf("task %s depends on unknown task %s", task.ID, dep)
			}
		}
	}

	// DFS with color marking: white (unvisited), gray (on stack), black (done).
	const (
		white = 0
		gray  = 1
		black = 2
	)
	colors := make(map[string]int, len(set.Tasks))
	ordered := make([]*Task, 0, len(set.Tasks))

	var visit func(task *Task) error
	visit = func(task *Task) error {
		switch colors[task.ID] {
		case gray:
			return fmt.Errorf("dependency cycle involving task %s", task.ID)
		case black:
			return nil
		}
		colors[task.ID] = gray
		for _, dep := range task.DependsOn {
			if err := visit(byID[dep]); err != nil {
				return err
			}
		}
		colors[task.ID] = black
		ordered = append(ordered, task)
		return nil
	}

	for _, task := range set.Tasks {
		if err := visit(task); err != nil {
			return nil, err
		}
	}

	return ordered, nil
}
