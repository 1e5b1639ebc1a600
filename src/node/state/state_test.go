package state

import (
	"testing"
)

func TestManager(t *testing.T) {
	var m Manager

	if m.GetState() != Initial {
		t.Fatalf("initial state should be Initial, not %s", m.GetState())
	}

	if !m.CompareAndSetState(Initial, Running) {
		t.Fatal("CompareAndSetState(Initial, Running) should succeed")
	}
	if m.CompareAndSetState(Initial, Running) {
		t.Fatal("CompareAndSetState(Initial, Running) should fail the second time")
	}

	m.SetState(Shutdown)
	if m.GetState().String() != "Shutdown" {
		t.Fatalf("state should be Shutdown, not %s", m.GetState())
	}
}

func TestGoFunc(t *testing.T) {
	var m Manager

	done := make(chan int, WGLIMIT)
	for i := 0; i < WGLIMIT; i++ {
		i := i
		m.GoFunc(func() { done <- i })
	}
	m.WaitRoutines()

	if len(done) != WGLIMIT {
		t.Fatalf("%d routines should have run, not %d", WGLIMIT, len(done))
	}
}
