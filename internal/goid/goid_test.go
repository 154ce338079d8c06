package goid

import (
	"sync"
	"testing"
)

func TestIDStableWithinGoroutine(t *testing.T) {
	a := ID()
	if a == 0 {
		t.Fatal("ID() = 0")
	}
	if b := ID(); a != b {
		t.Errorf("ID changed within goroutine: %d then %d", a, b)
	}
}

func TestIDDiffersAcrossGoroutines(t *testing.T) {
	main := ID()
	var other uint64
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		other = ID()
	}()
	wg.Wait()
	if other == 0 || other == main {
		t.Errorf("main=%d other=%d", main, other)
	}
}
