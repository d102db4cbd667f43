// Package aggregate sums flow tonnage per FAF zone.
//
// Every region receives an import total (tonnage of records whose destination
// is the region) and an export total (tonnage of records whose origin is the
// region). Records are grouped by zone code in a single pass over the flow
// table; a record whose origin and destination are the same zone counts toward
// both totals of that zone.
//
// Codes that do not belong to any region are left out of every sum. They are
// counted in Result so callers can see how much of the table went unmatched.
//
//	res := aggregate.Totals(regions, records)
//	for i, r := range regions {
//	    fmt.Println(r.ID, res.Imports[i], res.Exports[i])
//	}
package aggregate
