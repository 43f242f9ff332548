package object

import "testing"

func TestMemCostBasics(t *testing.T) {
	if got := CostString(5); got != memStringHead+5 {
		t.Fatalf("CostString mismatch: got %d", got)
	}
	if got := CostString(-1); got != memStringHead {
		t.Fatalf("CostString(-1) mismatch: got %d", got)
	}
	if got := CostFunction(); got != memFunctionHead {
		t.Fatalf("CostFunction mismatch: got %d", got)
	}
}
