package coordinator

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func task(key string, err error) Task {
	return Task{Key: key, Run: func(ctx context.Context) error { return err }}
}

func TestNew(t *testing.T) {
	tasks := []Task{task("overview:TCS", nil), task("overview:INFY", nil)}

	coord := New(tasks, &bytes.Buffer{})
	if coord == nil {
		t.Fatal("New() returned nil")
	}

	if len(coord.tasks) != len(tasks) {
		t.Errorf("New() created coordinator with %d tasks, want %d", len(coord.tasks), len(tasks))
	}
}

func TestRun_Success(t *testing.T) {
	var out bytes.Buffer
	coord := New([]Task{
		task("listing", nil),
		task("overview:TCS", nil),
		task("overview:INFY", nil),
	}, &out)

	results, err := coord.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() returned unexpected error: %v", err)
	}
	if len(results) != 3 {
		t.Errorf("len(results) = %d, want 3", len(results))
	}

	for _, want := range []string{"listing: OK", "overview:TCS: OK", "overview:INFY: OK"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output = %q, want line %q", out.String(), want)
		}
	}
}

func TestRun_WithErrors(t *testing.T) {
	testErr := errors.New("quota exceeded")

	var out bytes.Buffer
	coord := New([]Task{
		task("overview:TCS", nil),
		task("overview:INFY", testErr),
	}, &out)

	// errors are reported per task, not at coordinator level
	results, err := coord.Run(context.Background())
	if err != nil {
		t.Errorf("Run() returned unexpected error: %v", err)
	}

	failed := 0
	for _, r := range results {
		if r.Error != nil {
			failed++
			if r.Key != "overview:INFY" {
				t.Errorf("failed key = %q, want overview:INFY", r.Key)
			}
		}
	}
	if failed != 1 {
		t.Errorf("failed = %d, want 1", failed)
	}

	if !strings.Contains(out.String(), "overview:INFY: ERROR - quota exceeded") {
		t.Errorf("output = %q, want error line", out.String())
	}
}

func TestRun_NoTasks(t *testing.T) {
	coord := New(nil, &bytes.Buffer{})

	_, err := coord.Run(context.Background())
	if err == nil {
		t.Fatal("Run() expected error for no tasks, got nil")
	}

	expectedErrMsg := "no tasks configured"
	if err.Error() != expectedErrMsg {
		t.Errorf("Run() error = %q, want %q", err.Error(), expectedErrMsg)
	}
}

func TestRun_ContextCancellation(t *testing.T) {
	slow := Task{
		Key: "overview:SLOW",
		Run: func(ctx context.Context) error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(5 * time.Second):
				return nil
			}
		},
	}

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	results, err := New([]Task{slow}, &bytes.Buffer{}).Run(ctx)
	if err != nil {
		t.Fatalf("Run() returned unexpected error: %v", err)
	}
	if len(results) != 1 || !errors.Is(results[0].Error, context.DeadlineExceeded) {
		t.Errorf("results = %+v, want one deadline error", results)
	}
}

func TestRun_ConcurrentExecution(t *testing.T) {
	delayed := func(key string, d time.Duration) Task {
		return Task{Key: key, Run: func(ctx context.Context) error {
			time.Sleep(d)
			return nil
		}}
	}

	coord := New([]Task{
		delayed("slow", 50*time.Millisecond),
		delayed("medium", 30*time.Millisecond),
		delayed("fast", 10*time.Millisecond),
	}, &bytes.Buffer{})

	results, err := coord.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() returned unexpected error: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("len(results) = %d, want 3", len(results))
	}

	// results arrive in completion order
	if results[0].Key != "fast" {
		t.Errorf("first result = %q, want fast", results[0].Key)
	}
}
