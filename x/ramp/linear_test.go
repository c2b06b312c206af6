package ramp

import (
	"testing"
	"time"
)

func TestLinearAt(t *testing.T) {
	l := Linear{From: 0, To: 255, Top: 255, Steps: 5}
	want := []uint16{0, 51, 102, 153, 204, 255, 255}
	for i, w := range want {
		if got := l.At(uint16(i)); got != w {
			t.Fatalf("At(%d)=%d want %d", i, got, w)
		}
	}
	down := Linear{From: 100, To: 0, Top: 255, Steps: 4}
	if down.At(1) != 75 || down.At(4) != 0 {
		t.Fatalf("down ramp: %d %d", down.At(1), down.At(4))
	}
	capped := Linear{To: 300, Top: 200, Steps: 2}
	if capped.At(2) != 200 {
		t.Fatalf("top not applied: %d", capped.At(2))
	}
}

func TestLinearRun(t *testing.T) {
	var got []uint16
	ticks := 0
	Linear{From: 0, To: 4, Top: 10, Steps: 4}.Run(40,
		func(d time.Duration) bool {
			if d != 10*time.Millisecond {
				t.Fatalf("step duration %v", d)
			}
			ticks++
			return true
		},
		func(v uint16) { got = append(got, v) })
	if ticks != 3 {
		t.Fatalf("ticks=%d", ticks)
	}
	if len(got) != 4 || got[3] != 4 {
		t.Fatalf("levels=%v", got)
	}
}

func TestLinearRunCancelled(t *testing.T) {
	var got []uint16
	Linear{To: 10, Top: 10, Steps: 5}.Run(50,
		func(time.Duration) bool { return false },
		func(v uint16) { got = append(got, v) })
	if len(got) != 0 {
		t.Fatalf("cancelled ramp set %v", got)
	}
}

func TestLinearRunSnaps(t *testing.T) {
	var got uint16
	Linear{From: 1, To: 9, Top: 5, Steps: 3}.Run(0, nil, func(v uint16) { got = v })
	if got != 5 {
		t.Fatalf("got %d", got)
	}
}

func TestTriangle(t *testing.T) {
	if Triangle(0, 10, 100) != 0 || Triangle(5, 10, 100) != 100 || Triangle(10, 10, 100) != 0 {
		t.Fatalf("endpoints: %d %d %d", Triangle(0, 10, 100), Triangle(5, 10, 100), Triangle(10, 10, 100))
	}
	if Triangle(7, 10, 100) != 60 {
		t.Fatalf("falling edge: %d", Triangle(7, 10, 100))
	}
	if Triangle(3, 1, 42) != 42 {
		t.Fatal("degenerate period")
	}
}
