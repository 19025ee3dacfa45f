package booking

import "testing"

func TestThresholdEditor_CommitFlow(t *testing.T) {
	var e ThresholdEditor

	if _, ok := e.Commit(); ok {
		t.Fatal("Commit succeeded without an edit in progress")
	}

	e.Begin(3)
	if !e.Editing() || e.Value() != 3 {
		t.Fatalf("editor = editing=%v value=%d, want editing 3", e.Editing(), e.Value())
	}

	e.Adjust(+2)
	e.Adjust(+20) // clamped at the top
	if e.Value() != MaxThreshold {
		t.Fatalf("Value = %d, want %d", e.Value(), MaxThreshold)
	}
	e.Set(4)

	got, ok := e.Commit()
	if !ok || got != 4 {
		t.Fatalf("Commit = (%d, %v), want (4, true)", got, ok)
	}
	if e.Editing() {
		t.Fatal("still editing after commit")
	}
}

func TestThresholdEditor_DiscardDropsBuffer(t *testing.T) {
	var e ThresholdEditor
	e.Begin(5)
	e.Adjust(-3)
	e.Discard()

	if e.Editing() {
		t.Fatal("still editing after discard")
	}
	if _, ok := e.Commit(); ok {
		t.Fatal("Commit succeeded after discard")
	}
}

func TestThresholdEditor_BeginClampsCurrent(t *testing.T) {
	var e ThresholdEditor
	e.Begin(0) // unsaved/unset thresholds start at the minimum
	if e.Value() != MinThreshold {
		t.Fatalf("Value = %d, want %d", e.Value(), MinThreshold)
	}
}

func TestClampThreshold(t *testing.T) {
	tests := []struct{ in, want int }{
		{-4, MinThreshold},
		{0, MinThreshold},
		{1, 1},
		{7, 7},
		{10, 10},
		{11, MaxThreshold},
	}
	for _, tt := range tests {
		if got := ClampThreshold(tt.in); got != tt.want {
			t.Errorf("ClampThreshold(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
