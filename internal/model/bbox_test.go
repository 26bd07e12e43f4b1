package model

import (
	"strings"
	"testing"
)

func TestParseBoundingBox(t *testing.T) {
	b, err := ParseBoundingBox("-120.5, 35.0, -119.0, 36.25")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if b.West != -120.5 || b.South != 35.0 || b.East != -119.0 || b.North != 36.25 {
		t.Errorf("Parsed bounds incorrect: %+v", b)
	}
}

func TestParseBoundingBox_Invalid(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  string
	}{
		{"too few values", "1, 2, 3", "4 values"},
		{"too many values", "1, 2, 3, 4, 5", "4 values"},
		{"not a number", "a, 2, 3, 4", "not a number"},
		{"lon out of range", "-200, 0, 10, 10", "longitude"},
		{"lat out of range", "0, -95, 10, 10", "latitude"},
		{"west >= east", "10, 0, 5, 10", "west"},
		{"south >= north", "0, 10, 10, 5", "south"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseBoundingBox(tc.input)
			if err == nil {
				t.Fatalf("Expected error for %q, got nil", tc.input)
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Errorf("Error %q should mention %q", err.Error(), tc.want)
			}
		})
	}
}

func TestBoundingBox_String(t *testing.T) {
	b := BoundingBox{West: -120.5, South: 35, East: -119, North: 36}
	got := b.String()
	want := "-120.5000,35.0000,-119.0000,36.0000"
	if got != want {
		t.Errorf("Expected %q, got %q", want, got)
	}
}

func TestBoundingBox_Union(t *testing.T) {
	b := BoundingBox{West: 0, South: 0, East: 10, North: 10}
	b.Union(BoundingBox{West: -5, South: 2, East: 12, North: 8})

	if b.West != -5 || b.South != 0 || b.East != 12 || b.North != 10 {
		t.Errorf("Union incorrect: %+v", b)
	}
}

func TestBoundingBox_Buffered(t *testing.T) {
	b := BoundingBox{West: 0, South: 0, East: 10, North: 10}
	buf := b.Buffered(0.1)

	if buf.West != -1 || buf.South != -1 || buf.East != 11 || buf.North != 11 {
		t.Errorf("Buffered incorrect: %+v", buf)
	}

	// Degenerate box gets a fixed margin
	point := BoundingBox{West: 5, South: 5, East: 5, North: 5}
	buf = point.Buffered(0.1)
	if buf.East <= buf.West || buf.North <= buf.South {
		t.Errorf("Degenerate box should still get a margin: %+v", buf)
	}
}
