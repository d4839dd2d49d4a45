package example

import "testing"

func TestExampleRunsEndToEnd(t *testing.T) {
	if err := example(); err != nil {
		t.Fatalf("example: %v", err)
	}
}
