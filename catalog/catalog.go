// SPDX-License-Identifier: MIT

// Package catalog maps commercial pipe diameters to unit cost and pipe
// properties.
//
// A Catalog is an immutable list of entries sorted by internal diameter (mm).
// Lookup matches a requested diameter to the nearest entry within a tolerance;
// a diameter outside every tolerance window is an error, never a silent
// rounding. Adjacent entries must be more than two tolerances apart so that
// each diameter matches at most one entry.
//
// Complexity: New is O(n log n); Lookup, Next and Prev are O(log n).
package catalog

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// DefaultTolerance is the default matching window in mm.
const DefaultTolerance = 0.5

var (
	// ErrEmptyCatalog is returned by New for an empty entry list.
	ErrEmptyCatalog = errors.New("catalog: no entries")

	// ErrInvalidEntry is returned by New for a malformed entry or two entries
	// whose tolerance windows overlap.
	ErrInvalidEntry = errors.New("catalog: invalid entry")

	// ErrNoMatch is the kind of every *LookupError.
	ErrNoMatch = errors.New("catalog: no entry matches diameter")

	// ErrOptionViolation is returned when an invalid Option is supplied.
	ErrOptionViolation = errors.New("catalog: invalid option supplied")
)

// Entry is one commercial pipe size. Diameter is the internal diameter in mm,
// UnitCost is the cost per metre. A zero Roughness means the entry does not
// prescribe a Hazen-Williams coefficient.
type Entry struct {
	Diameter  float64 `json:"diameter" yaml:"diameter"`
	UnitCost  float64 `json:"unitCost" yaml:"unitCost"`
	Roughness float64 `json:"roughness,omitempty" yaml:"roughness,omitempty"`
	Material  string  `json:"material,omitempty" yaml:"material,omitempty"`
	Nominal   float64 `json:"nominal,omitempty" yaml:"nominal,omitempty"` // inches
	Class     string  `json:"class,omitempty" yaml:"class,omitempty"`
}

// LookupError reports a diameter that matches no entry.
type LookupError struct {
	Diameter  float64
	Nearest   Entry
	Tolerance float64
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("catalog: no entry within %g mm of %g mm (nearest %g mm)", e.Tolerance, e.Diameter, e.Nearest.Diameter)
}

// Unwrap returns ErrNoMatch.
func (e *LookupError) Unwrap() error { return ErrNoMatch }

// Option configures New.
type Option func(*config)

type config struct {
	tolerance float64
	err       error
}

// WithTolerance sets the matching window in mm. Negative values are rejected.
func WithTolerance(mm float64) Option {
	return func(c *config) {
		if mm < 0 || math.IsNaN(mm) || math.IsInf(mm, 0) {
			c.err = fmt.Errorf("%w: tolerance %g", ErrOptionViolation, mm)
			return
		}
		c.tolerance = mm
	}
}

// Catalog is an immutable, diameter-sorted list of entries.
type Catalog struct {
	entries   []Entry
	tolerance float64
}

// New sorts and validates entries.
func New(entries []Entry, opts ...Option) (*Catalog, error) {
	cfg := config{tolerance: DefaultTolerance}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.err != nil {
		return nil, cfg.err
	}
	if len(entries) == 0 {
		return nil, ErrEmptyCatalog
	}

	sorted := append([]Entry(nil), entries...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Diameter < sorted[j].Diameter })

	for i, e := range sorted {
		switch {
		case !(e.Diameter > 0) || math.IsInf(e.Diameter, 0):
			return nil, fmt.Errorf("%w: diameter %g", ErrInvalidEntry, e.Diameter)
		case !(e.UnitCost > 0) || math.IsInf(e.UnitCost, 0):
			return nil, fmt.Errorf("%w: unit cost %g for %g mm", ErrInvalidEntry, e.UnitCost, e.Diameter)
		case e.Roughness < 0 || math.IsNaN(e.Roughness):
			return nil, fmt.Errorf("%w: roughness %g for %g mm", ErrInvalidEntry, e.Roughness, e.Diameter)
		}
		if i > 0 && e.Diameter-sorted[i-1].Diameter <= 2*cfg.tolerance {
			return nil, fmt.Errorf("%w: %g mm and %g mm are within 2x%g mm", ErrInvalidEntry, sorted[i-1].Diameter, e.Diameter, cfg.tolerance)
		}
	}

	return &Catalog{entries: sorted, tolerance: cfg.tolerance}, nil
}

// MustNew is New that panics on error; for package-level tables.
func MustNew(entries []Entry, opts ...Option) *Catalog {
	c, err := New(entries, opts...)
	if err != nil {
		panic(err)
	}
	return c
}

// Lookup returns the entry nearest to d (mm) when it lies within the
// tolerance, otherwise a *LookupError.
func (c *Catalog) Lookup(d float64) (Entry, error) {
	i, err := c.IndexOf(d)
	if err != nil {
		return Entry{}, err
	}
	return c.entries[i], nil
}

// IndexOf returns the position in Ordered of the entry matching d.
func (c *Catalog) IndexOf(d float64) (int, error) {
	i := c.nearest(d)
	if math.Abs(c.entries[i].Diameter-d) > c.tolerance || math.IsNaN(d) {
		return -1, &LookupError{Diameter: d, Nearest: c.entries[i], Tolerance: c.tolerance}
	}
	return i, nil
}

// nearest returns the index of the entry closest to d; ties go to the smaller.
func (c *Catalog) nearest(d float64) int {
	j := sort.Search(len(c.entries), func(i int) bool { return c.entries[i].Diameter >= d })
	switch {
	case j == 0:
		return 0
	case j == len(c.entries):
		return j - 1
	}
	if d-c.entries[j-1].Diameter <= c.entries[j].Diameter-d {
		return j - 1
	}
	return j
}

// Ordered returns a copy of the entries, ascending by diameter.
func (c *Catalog) Ordered() []Entry { return append([]Entry(nil), c.entries...) }

// Diameters returns the entry diameters, ascending.
func (c *Catalog) Diameters() []float64 {
	out := make([]float64, len(c.entries))
	for i, e := range c.entries {
		out[i] = e.Diameter
	}
	return out
}

// Len returns the number of entries.
func (c *Catalog) Len() int { return len(c.entries) }

// At returns the i-th entry in ascending order.
func (c *Catalog) At(i int) Entry { return c.entries[i] }

// Smallest returns the entry with the smallest diameter.
func (c *Catalog) Smallest() Entry { return c.entries[0] }

// Largest returns the entry with the largest diameter.
func (c *Catalog) Largest() Entry { return c.entries[len(c.entries)-1] }

// Tolerance returns the matching window in mm.
func (c *Catalog) Tolerance() float64 { return c.tolerance }

// Next returns the first entry strictly larger than the one matching d, or,
// when d matches nothing, the first entry above d.
func (c *Catalog) Next(d float64) (Entry, bool) {
	j := sort.Search(len(c.entries), func(i int) bool { return c.entries[i].Diameter > d+c.tolerance })
	if j == len(c.entries) {
		return Entry{}, false
	}
	return c.entries[j], true
}

// Prev returns the last entry strictly smaller than the one matching d.
func (c *Catalog) Prev(d float64) (Entry, bool) {
	j := sort.Search(len(c.entries), func(i int) bool { return c.entries[i].Diameter >= d-c.tolerance })
	if j == 0 {
		return Entry{}, false
	}
	return c.entries[j-1], true
}

// Cost returns length × unit cost of the entry matching d.
func (c *Catalog) Cost(length, d float64) (float64, error) {
	e, err := c.Lookup(d)
	if err != nil {
		return 0, err
	}
	return length * e.UnitCost, nil
}
