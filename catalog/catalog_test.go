package catalog_test

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/hredes/catalog"
)

func small(t *testing.T) *catalog.Catalog {
	t.Helper()
	c, err := catalog.New([]catalog.Entry{
		{Diameter: 100, UnitCost: 20},
		{Diameter: 50, UnitCost: 8},
		{Diameter: 75, UnitCost: 12},
	})
	require.NoError(t, err)
	return c
}

// TestNew_SortsEntries checks ascending order regardless of input order.
func TestNew_SortsEntries(t *testing.T) {
	c := small(t)
	assert.Equal(t, []float64{50, 75, 100}, c.Diameters())
	assert.Equal(t, 3, c.Len())
	assert.Equal(t, 50.0, c.Smallest().Diameter)
	assert.Equal(t, 100.0, c.Largest().Diameter)
	assert.Equal(t, 75.0, c.At(1).Diameter)
	assert.Equal(t, catalog.DefaultTolerance, c.Tolerance())
}

// TestNew_Rejects covers malformed catalogs and options.
func TestNew_Rejects(t *testing.T) {
	_, err := catalog.New(nil)
	assert.ErrorIs(t, err, catalog.ErrEmptyCatalog)

	_, err = catalog.New([]catalog.Entry{{Diameter: 0, UnitCost: 1}})
	assert.ErrorIs(t, err, catalog.ErrInvalidEntry)

	_, err = catalog.New([]catalog.Entry{{Diameter: 10, UnitCost: -1}})
	assert.ErrorIs(t, err, catalog.ErrInvalidEntry)

	_, err = catalog.New([]catalog.Entry{{Diameter: 10, UnitCost: 1, Roughness: math.NaN()}})
	assert.ErrorIs(t, err, catalog.ErrInvalidEntry)

	// windows of 0.5 mm overlap when entries are 0.8 mm apart
	_, err = catalog.New([]catalog.Entry{{Diameter: 10, UnitCost: 1}, {Diameter: 10.8, UnitCost: 2}})
	assert.ErrorIs(t, err, catalog.ErrInvalidEntry)

	_, err = catalog.New([]catalog.Entry{{Diameter: 10, UnitCost: 1}}, catalog.WithTolerance(-1))
	assert.ErrorIs(t, err, catalog.ErrOptionViolation)
}

// TestLookup matches within the tolerance only.
func TestLookup(t *testing.T) {
	c := small(t)

	e, err := c.Lookup(75.4)
	require.NoError(t, err)
	assert.Equal(t, 12.0, e.UnitCost)

	e, err = c.Lookup(49.5)
	require.NoError(t, err)
	assert.Equal(t, 50.0, e.Diameter)

	_, err = c.Lookup(60)
	require.ErrorIs(t, err, catalog.ErrNoMatch)
	var lerr *catalog.LookupError
	require.True(t, errors.As(err, &lerr))
	assert.Equal(t, 60.0, lerr.Diameter)
	assert.Equal(t, 50.0, lerr.Nearest.Diameter)

	_, err = c.Lookup(math.NaN())
	assert.ErrorIs(t, err, catalog.ErrNoMatch)

	_, err = c.Lookup(500)
	assert.ErrorIs(t, err, catalog.ErrNoMatch)

	idx, err := c.IndexOf(100)
	require.NoError(t, err)
	assert.Equal(t, 2, idx)
}

// TestNeighbours walks the sorted list.
func TestNeighbours(t *testing.T) {
	c := small(t)

	next, ok := c.Next(50)
	require.True(t, ok)
	assert.Equal(t, 75.0, next.Diameter)

	next, ok = c.Next(60)
	require.True(t, ok)
	assert.Equal(t, 75.0, next.Diameter)

	_, ok = c.Next(100)
	assert.False(t, ok)

	prev, ok := c.Prev(75.3)
	require.True(t, ok)
	assert.Equal(t, 50.0, prev.Diameter)

	_, ok = c.Prev(50)
	assert.False(t, ok)
}

// TestCost multiplies length by unit cost.
func TestCost(t *testing.T) {
	c := small(t)
	cost, err := c.Cost(120, 75)
	require.NoError(t, err)
	assert.InDelta(t, 1440.0, cost, 1e-9)

	_, err = c.Cost(120, 80)
	assert.ErrorIs(t, err, catalog.ErrNoMatch)
}

// TestOrderedIsCopy guards the catalog against caller mutation.
func TestOrderedIsCopy(t *testing.T) {
	c := small(t)
	es := c.Ordered()
	es[0].UnitCost = 1e9
	assert.Equal(t, 8.0, c.Smallest().UnitCost)
}

// TestDefaultPVC checks the built-in table.
func TestDefaultPVC(t *testing.T) {
	c := catalog.DefaultPVC()
	assert.Equal(t, 10, c.Len())
	assert.Equal(t, 26.6, c.Smallest().Diameter)
	assert.Equal(t, 204.0, c.Largest().Diameter)
	for _, e := range c.Ordered() {
		assert.Equal(t, "PVC", e.Material)
		assert.Equal(t, float64(catalog.PVCRoughness), e.Roughness)
	}
	es := c.Ordered()
	for i := 1; i < len(es); i++ {
		assert.Greater(t, es[i].UnitCost, es[i-1].UnitCost, "cost grows with diameter")
	}
}
