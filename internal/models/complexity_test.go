package models

import (
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestDeriveComplexity(t *testing.T) {
	t.Parallel()

	subtasks := func(n int) []Subtask {
		out := make([]Subtask, n)
		for i := range out {
			out[i] = Subtask{ID: uuid.New(), Title: "step"}
		}
		return out
	}

	tests := []struct {
		name string
		item Item
		want Complexity
	}{
		{
			name: "short title no subtasks is low",
			item: Item{Title: "Buy milk"},
			want: ComplexityLow,
		},
		{
			name: "three subtasks is medium",
			item: Item{Title: "Plan trip", Subtasks: subtasks(3)},
			want: ComplexityMedium,
		},
		{
			name: "exactly two subtasks stays low",
			item: Item{Title: "Plan trip", Subtasks: subtasks(2)},
			want: ComplexityLow,
		},
		{
			name: "title over 50 chars is medium",
			item: Item{Title: strings.Repeat("a", 51)},
			want: ComplexityMedium,
		},
		{
			name: "six subtasks is high",
			item: Item{Title: "Launch", Subtasks: subtasks(6)},
			want: ComplexityHigh,
		},
		{
			name: "long title with summary is high",
			item: Item{Title: strings.Repeat("a", 101), Summary: "details"},
			want: ComplexityHigh,
		},
		{
			name: "long title without summary is medium",
			item: Item{Title: strings.Repeat("a", 101)},
			want: ComplexityMedium,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := DeriveComplexity(&tt.item); got != tt.want {
				t.Errorf("DeriveComplexity() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEstimatedMinutes(t *testing.T) {
	t.Parallel()

	if got := ComplexityHigh.EstimatedMinutes(); got != 120 {
		t.Errorf("high = %d, want 120", got)
	}
	if got := ComplexityMedium.EstimatedMinutes(); got != 60 {
		t.Errorf("medium = %d, want 60", got)
	}
	if got := ComplexityLow.EstimatedMinutes(); got != 30 {
		t.Errorf("low = %d, want 30", got)
	}
}

func TestNormalizeTitle(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"  Weekly Review  ", "weekly review"},
		{"WEEKLY REVIEW", "weekly review"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := NormalizeTitle(tt.in); got != tt.want {
			t.Errorf("NormalizeTitle(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestClamp01(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   float64
		want float64
	}{
		{-0.5, 0},
		{0, 0},
		{0.42, 0.42},
		{1, 1},
		{1.7, 1},
	}
	for _, tt := range tests {
		if got := Clamp01(tt.in); got != tt.want {
			t.Errorf("Clamp01(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
