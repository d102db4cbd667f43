package domain

// FlowRecord is one origin/destination row of the FAF flow table with the
// tonnage for a single year.
type FlowRecord struct {
	Origin      string  `json:"dms_orig"`
	Destination string  `json:"dms_dest"`
	Tons        float64 `json:"tons"`
}

