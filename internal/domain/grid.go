package domain

import (
	"fmt"
	"math"
	"strings"
)

// RangePolicy controls how Grid handles coordinates that fall outside it.
type RangePolicy string

const (
	// RangeReject fails with *OutOfRangeError.
	RangeReject RangePolicy = "reject"
	// RangeClamp moves the coordinate into the nearest edge bin.
	RangeClamp RangePolicy = "clamp"
)

// ParseRangePolicy accepts "reject" or "clamp" (case-insensitive). The empty
// string means reject.
func ParseRangePolicy(s string) (RangePolicy, error) {
	switch RangePolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", RangeReject:
		return RangeReject, nil
	case RangeClamp:
		return RangeClamp, nil
	default:
		return "", fmt.Errorf("unknown out-of-range policy %q", s)
	}
}

// Grid is a fixed-resolution 3D grid over the globe. Longitude spans
// -180..180 in NX bins, latitude -90..90 in NY bins, and depth starts at the
// surface in bins of DZ meters. MaxDepth bounds the depth axis in meters; zero
// leaves it unbounded below.
type Grid struct {
	NX       int64
	NY       int64
	DZ       float64
	MaxDepth float64
	Policy   RangePolicy
}

// Cell is a grid location as per-axis bin numbers.
type Cell struct {
	Lon   int64
	Lat   int64
	Depth int64
}

// Validate reports whether the grid dimensions are usable.
func (g Grid) Validate() error {
	switch {
	case g.NX <= 0:
		return fmt.Errorf("%w: nx must be positive, got %d", ErrInvalidGrid, g.NX)
	case g.NY <= 0:
		return fmt.Errorf("%w: ny must be positive, got %d", ErrInvalidGrid, g.NY)
	case !(g.DZ > 0) || math.IsInf(g.DZ, 0):
		return fmt.Errorf("%w: dz must be positive, got %g", ErrInvalidGrid, g.DZ)
	case g.MaxDepth < 0 || math.IsNaN(g.MaxDepth):
		return fmt.Errorf("%w: max depth must not be negative, got %g", ErrInvalidGrid, g.MaxDepth)
	}
	if _, err := ParseRangePolicy(string(g.Policy)); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidGrid, err)
	}
	return nil
}

// depthBins returns the number of depth bins, or 0 when unbounded.
func (g Grid) depthBins() int64 {
	if g.MaxDepth <= 0 {
		return 0
	}
	return int64(math.Ceil(g.MaxDepth / g.DZ))
}

// snapTolerance is the relative distance from a bin edge within which a
// quotient is treated as sitting on the edge. It absorbs the rounding of
// decimal coordinates and bin widths that have no exact binary form.
const snapTolerance = 1e-12

// Locate bins a coordinate on each axis. Non-finite values and unusable grids
// are always rejected, whatever the policy.
func (g Grid) Locate(lat, lon, depthM float64) (Cell, error) {
	if err := g.Validate(); err != nil {
		return Cell{}, err
	}
	lonBin, err := g.bin("longitude", lon, lon+180, 360/float64(g.NX), g.NX, lon == 180)
	if err != nil {
		return Cell{}, err
	}
	latBin, err := g.bin("latitude", lat, lat+90, 180/float64(g.NY), g.NY, lat == 90)
	if err != nil {
		return Cell{}, err
	}
	depthBin, err := g.bin("depth", depthM, depthM, g.DZ, g.depthBins(), g.MaxDepth > 0 && depthM == g.MaxDepth)
	if err != nil {
		return Cell{}, err
	}
	return Cell{Lon: lonBin, Lat: latBin, Depth: depthBin}, nil
}

// bin computes floor(offset/width) against an axis of n bins. Only the depth
// axis passes n == 0, meaning unbounded below. topEdge marks a value sitting
// exactly on the closed upper edge of the axis range, which belongs to the
// last bin.
func (g Grid) bin(axis string, value, offset, width float64, n int64, topEdge bool) (int64, error) {
	if topEdge {
		return n - 1, nil
	}
	f := edgeFloor(offset / width)
	if math.IsNaN(f) || math.IsInf(f, 0) || f > math.MaxInt64/2 || f < math.MinInt64/2 {
		return 0, &OutOfRangeError{Axis: axis, Value: value, Bins: n}
	}
	b := int64(f)
	if b >= 0 && (n == 0 || b < n) {
		return b, nil
	}
	if g.Policy != RangeClamp {
		return 0, &OutOfRangeError{Axis: axis, Value: value, Bin: b, Bins: n}
	}
	if b < 0 {
		return 0, nil
	}
	return n - 1, nil
}

// edgeFloor floors q, first snapping it to an integer it is within
// snapTolerance of. 0.3/0.1 is 2.9999999999999996 in binary and snaps to 3.
func edgeFloor(q float64) float64 {
	r := math.Round(q)
	if math.Abs(q-r) <= snapTolerance*math.Max(1, math.Abs(q)) {
		return r
	}
	return math.Floor(q)
}

// Flatten maps a cell to its row-major index.
func (g Grid) Flatten(c Cell) int64 {
	return c.Depth*g.NX*g.NY + c.Lat*g.NX + c.Lon
}

// Decode is the inverse of Flatten for non-negative indices on a valid grid.
func (g Grid) Decode(index int64) Cell {
	plane := g.NX * g.NY
	return Cell{
		Lon:   index % g.NX,
		Lat:   (index / g.NX) % g.NY,
		Depth: index / plane,
	}
}

// Index bins a coordinate and returns its flattened index with the cell.
func (g Grid) Index(lat, lon, depthM float64) (int64, Cell, error) {
	c, err := g.Locate(lat, lon, depthM)
	if err != nil {
		return 0, Cell{}, err
	}
	return g.Flatten(c), c, nil
}

// GridIndex computes the flattened index of (lat, lon, depthM) on an
// nx × ny grid with dz-meter depth bins, rejecting out-of-range coordinates
// and leaving depth unbounded below.
func GridIndex(lat, lon, depthM float64, nx, ny int64, dz float64) (int64, error) {
	g := Grid{NX: nx, NY: ny, DZ: dz, Policy: RangeReject}
	if err := g.Validate(); err != nil {
		return 0, err
	}
	idx, _, err := g.Index(lat, lon, depthM)
	return idx, err
}
