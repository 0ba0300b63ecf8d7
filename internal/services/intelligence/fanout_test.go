package intelligence

import (
	"errors"
	"testing"
)

func TestRunDetectors_MergesInDeclaredOrder(t *testing.T) {
	t.Parallel()

	results := runDetectors(nil, []detector[int]{
		{name: "first", run: func() ([]int, error) { return []int{1, 2}, nil }},
		{name: "second", run: func() ([]int, error) { return []int{3}, nil }},
	})

	if len(results) != 3 {
		t.Fatalf("got %d results, want 3", len(results))
	}
	for i, want := range []int{1, 2, 3} {
		if results[i] != want {
			t.Errorf("results[%d] = %d, want %d", i, results[i], want)
		}
	}
}

func TestRunDetectors_IsolatesFailures(t *testing.T) {
	t.Parallel()

	results := runDetectors(nil, []detector[string]{
		{name: "panicking", run: func() ([]string, error) { panic("boom") }},
		{name: "failing", run: func() ([]string, error) { return nil, errors.New("broken") }},
		{name: "healthy", run: func() ([]string, error) { return []string{"ok"}, nil }},
	})

	if len(results) != 1 || results[0] != "ok" {
		t.Fatalf("healthy detector's results must survive sibling failures, got %v", results)
	}
}
