// SPDX-License-Identifier: MIT

package catalog

// PVCRoughness is the Hazen-Williams coefficient used for new PVC pipe.
const PVCRoughness = 150

// pvcC10 lists PVC class C-10 pipe (NTP-ISO 4422) by internal diameter with
// reference unit costs in USD/m.
var pvcC10 = []Entry{
	{Nominal: 0.75, Diameter: 26.6, UnitCost: 2.1},
	{Nominal: 1.0, Diameter: 29.4, UnitCost: 3.5},
	{Nominal: 1.25, Diameter: 38.0, UnitCost: 4.8},
	{Nominal: 1.5, Diameter: 44.0, UnitCost: 6.2},
	{Nominal: 2.0, Diameter: 59.0, UnitCost: 9.5},
	{Nominal: 2.5, Diameter: 71.0, UnitCost: 14.0},
	{Nominal: 3.0, Diameter: 84.0, UnitCost: 18.5},
	{Nominal: 4.0, Diameter: 105.0, UnitCost: 32.0},
	{Nominal: 6.0, Diameter: 154.0, UnitCost: 65.0},
	{Nominal: 8.0, Diameter: 204.0, UnitCost: 110.0},
}

// DefaultPVC returns the built-in PVC C-10 catalog.
func DefaultPVC() *Catalog {
	entries := make([]Entry, len(pvcC10))
	for i, e := range pvcC10 {
		e.Material = "PVC"
		e.Class = "C-10"
		e.Roughness = PVCRoughness
		entries[i] = e
	}
	return MustNew(entries)
}
