package model

import (
	"fmt"
	"strconv"
	"strings"
)

// BoundingBox is a WGS84 lon/lat rectangle in the order CMR expects:
// west, south, east, north.
type BoundingBox struct {
	West  float64
	South float64
	East  float64
	North float64
}

// ParseBoundingBox parses a user-entered "xmin, ymin, xmax, ymax" string.
// Validation happens here, before any network call is made.
func ParseBoundingBox(s string) (*BoundingBox, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return nil, fmt.Errorf("bounding box must have 4 values, got %d", len(parts))
	}

	vals := make([]float64, 4)
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, fmt.Errorf("bounding box value %q is not a number", strings.TrimSpace(p))
		}
		vals[i] = v
	}

	b := &BoundingBox{West: vals[0], South: vals[1], East: vals[2], North: vals[3]}
	if err := b.Validate(); err != nil {
		return nil, err
	}
	return b, nil
}

// Validate checks coordinate ranges and ordering.
func (b *BoundingBox) Validate() error {
	if b.West < -180 || b.West > 180 || b.East < -180 || b.East > 180 {
		return fmt.Errorf("longitude out of range [-180, 180]")
	}
	if b.South < -90 || b.South > 90 || b.North < -90 || b.North > 90 {
		return fmt.Errorf("latitude out of range [-90, 90]")
	}
	if b.West >= b.East {
		return fmt.Errorf("west bound %.4f must be less than east bound %.4f", b.West, b.East)
	}
	if b.South >= b.North {
		return fmt.Errorf("south bound %.4f must be less than north bound %.4f", b.South, b.North)
	}
	return nil
}

// String renders the box as the comma-separated form used in queries and in
// the bounding box entry field.
func (b *BoundingBox) String() string {
	return fmt.Sprintf("%.4f,%.4f,%.4f,%.4f", b.West, b.South, b.East, b.North)
}

// Union grows the box to cover other.
func (b *BoundingBox) Union(other BoundingBox) {
	if other.West < b.West {
		b.West = other.West
	}
	if other.South < b.South {
		b.South = other.South
	}
	if other.East > b.East {
		b.East = other.East
	}
	if other.North > b.North {
		b.North = other.North
	}
}

// Buffered returns a copy expanded by frac of the box dimensions on every
// side, so zoomed footprints get a margin around them. Degenerate boxes get
// a small fixed margin instead.
func (b BoundingBox) Buffered(frac float64) BoundingBox {
	bufX := (b.East - b.West) * frac
	if bufX <= 0 {
		bufX = 0.01
	}
	bufY := (b.North - b.South) * frac
	if bufY <= 0 {
		bufY = 0.01
	}
	return BoundingBox{
		West:  b.West - bufX,
		South: b.South - bufY,
		East:  b.East + bufX,
		North: b.North + bufY,
	}
}
