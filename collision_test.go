package main

import "testing"

func TestCheckCollision(t *testing.T) {
	cases := []struct {
		name                   string
		x1, y1, r1, x2, y2, r2 float64
		want                   bool
	}{
		{"overlapping", 0, 0, 10, 15, 0, 10, true},
		{"touching", 0, 0, 10, 20, 0, 10, true},
		{"separated", 0, 0, 10, 25, 0, 10, false},
		{"concentric", 5, 5, 10, 5, 5, 2, true},
		{"diagonal overlap", 0, 0, 10, 10, 10, 10, true},
		{"diagonal miss", 0, 0, 5, 10, 10, 5, false},
	}
	for _, tc := range cases {
		if got := CheckCollision(tc.x1, tc.y1, tc.r1, tc.x2, tc.y2, tc.r2); got != tc.want {
			t.Errorf("%s: CheckCollision = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestBodyOverlaps(t *testing.T) {
	a := &Body{X: 0, Y: 0, Radius: 20}
	b := &Body{X: 30, Y: 0, Radius: 20}
	c := &Body{X: 100, Y: 0, Radius: 20}

	if !a.Overlaps(b) {
		t.Errorf("bodies at distance 30 with radii 20+20 should overlap")
	}
	if a.Overlaps(c) {
		t.Errorf("bodies at distance 100 with radii 20+20 should not overlap")
	}
}
