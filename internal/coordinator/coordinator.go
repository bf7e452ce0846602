package coordinator

import (
	"context"
	"fmt"
	"io"

	"github.com/sourcegraph/conc"
)

// Task is one named unit of cache warming work.
type Task struct {
	Key string
	Run func(ctx context.Context) error
}

// Result is the outcome of one Task.
type Result struct {
	Key   string
	Error error
}

// Coordinator starts warming tasks together and reports each as it finishes.
// Provider requests still go out one at a time through the market queue;
// starting the tasks together only fills the queue.
type Coordinator struct {
	tasks []Task
	out   io.Writer
}

// New creates a new Coordinator that reports to out
func New(tasks []Task, out io.Writer) *Coordinator {
	return &Coordinator{
		tasks: tasks,
		out:   out,
	}
}

// Run executes all tasks concurrently and prints results as they arrive, in the format:
//   - Success: "KEY: OK"
//   - Error: "KEY: ERROR - error message"
//
// It returns every result in completion order. Task failures are reported, not returned.
func (c *Coordinator) Run(ctx context.Context) ([]Result, error) {
	if len(c.tasks) == 0 {
		return nil, fmt.Errorf("no tasks configured")
	}

	resultChan := make(chan Result, len(c.tasks))

	var wg conc.WaitGroup
	for _, task := range c.tasks {
		wg.Go(func() {
			resultChan <- Result{Key: task.Key, Error: task.Run(ctx)}
		})
	}

	// Close the result channel when all workers are done
	go func() {
		wg.Wait()
		close(resultChan)
	}()

	results := make([]Result, 0, len(c.tasks))
	for result := range resultChan {
		if result.Error != nil {
			fmt.Fprintf(c.out, "%s: ERROR - %v\n", result.Key, result.Error)
		} else {
			fmt.Fprintf(c.out, "%s: OK\n", result.Key)
		}
		results = append(results, result)
	}

	return results, nil
}
