package aggregate

import (
	"faftonnage/pkg/contracts/domain"
)

// Result holds per-region totals aligned with the input region slice.
type Result struct {
	// Imports[i] is the tonnage with regions[i] as destination.
	Imports []float64
	// Exports[i] is the tonnage with regions[i] as origin.
	Exports []float64
	// Table is the region table annotated with both totals, keyed by the
	// normalized zone code.
	Table []domain.ZoneTotals

	// UnmatchedOrigins and UnmatchedDestinations count records whose code
	// on that side matched no region. They never affect the totals.
	UnmatchedOrigins      int
	UnmatchedDestinations int
	// UnmatchedTons is the tonnage of records with at least one unmatched side.
	UnmatchedTons float64
}

// Totals computes import and export tonnage for every region in one pass
// over records. Codes are compared after PadZoneCode, so "7" and "007" name
// the same zone. Regions sharing a code receive identical totals.
func Totals(regions []domain.Region, records []domain.FlowRecord) *Result {
	res := &Result{
		Imports: make([]float64, len(regions)),
		Exports: make([]float64, len(regions)),
		Table:   make([]domain.ZoneTotals, len(regions)),
	}

	// zone code -> running sums, shared by duplicate regions
	type sums struct{ in, out float64 }
	byZone := make(map[string]*sums, len(regions))
	for _, r := range regions {
		z := PadZoneCode(r.ID)
		if _, ok := byZone[z]; !ok {
			byZone[z] = &sums{}
		}
	}

	for _, rec := range records {
		dest, destOK := byZone[PadZoneCode(rec.Destination)]
		orig, origOK := byZone[PadZoneCode(rec.Origin)]
		if destOK {
			dest.in += rec.Tons
		} else {
			res.UnmatchedDestinations++
		}
		if origOK {
			orig.out += rec.Tons
		} else {
			res.UnmatchedOrigins++
		}
		if !destOK || !origOK {
			res.UnmatchedTons += rec.Tons
		}
	}

	for i, r := range regions {
		z := PadZoneCode(r.ID)
		s := byZone[z]
		res.Imports[i] = s.in
		res.Exports[i] = s.out
		res.Table[i] = domain.ZoneTotals{
			Zone:        z,
			Name:        r.Name,
			TotalImport: s.in,
			TotalExport: s.out,
			Extra:       r.Extra,
		}
	}
	return res
}

// Lookup indexes an annotated table by zone code. When a code appears more
// than once the first row wins.
func Lookup(table []domain.ZoneTotals) map[string]domain.ZoneTotals {
	m := make(map[string]domain.ZoneTotals, len(table))
	for _, t := range table {
		z := PadZoneCode(t.Zone)
		if _, ok := m[z]; !ok {
			m[z] = t
		}
	}
	return m
}
