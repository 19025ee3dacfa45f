package booking

import "testing"

func TestEstimatedWaitMinutes_FrontOfQueueWaitsZero(t *testing.T) {
	for _, total := range []int{1, 2, 10, 100} {
		_ = total // wait depends only on position and average
		if got := EstimatedWaitMinutes(1, 20); got != 0 {
			t.Fatalf("EstimatedWaitMinutes(1, 20) = %d, want 0", got)
		}
	}
	if got := EstimatedWaitMinutes(0, 20); got != 0 {
		t.Fatalf("EstimatedWaitMinutes(0, 20) = %d, want 0 for unknown position", got)
	}
}

func TestEstimatedWaitMinutes(t *testing.T) {
	tests := []struct {
		position, avg, want int
	}{
		{2, 20, 20},
		{4, 15, 45},
		{3, 0, 30},  // missing average falls back to 15
		{5, -1, 60}, // nonsense average falls back too
	}
	for _, tt := range tests {
		if got := EstimatedWaitMinutes(tt.position, tt.avg); got != tt.want {
			t.Errorf("EstimatedWaitMinutes(%d, %d) = %d, want %d", tt.position, tt.avg, got, tt.want)
		}
	}
}

func TestProgressRatio_MonotoneTowardFront(t *testing.T) {
	const total = 8
	prev := -1.0
	for position := total; position >= 1; position-- {
		got := ProgressRatio(position, total)
		if got < prev {
			t.Fatalf("ProgressRatio(%d, %d) = %v decreased from %v", position, total, got, prev)
		}
		prev = got
	}
	if prev != 1.0 {
		t.Fatalf("ProgressRatio(1, %d) = %v, want 1.0", total, prev)
	}
}

func TestProgressRatio_Clamps(t *testing.T) {
	if got := ProgressRatio(0, 5); got != 0 {
		t.Fatalf("ProgressRatio(0, 5) = %v, want 0 for sentinel position", got)
	}
	if got := ProgressRatio(3, 0); got != 0 {
		t.Fatalf("ProgressRatio(3, 0) = %v, want 0 for empty queue", got)
	}
	if got := ProgressRatio(9, 5); got != 1.0/5.0 {
		t.Fatalf("ProgressRatio(9, 5) = %v, want position clamped to total", got)
	}
}
