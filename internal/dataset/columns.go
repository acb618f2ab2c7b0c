package dataset

import (
	"math"
	"strconv"
	"strings"

	"github.com/woozymasta/atollmap/internal/table"
)

// Source column names. Some appear in the sheet with stray spaces or typos;
// the table trims names, aliases cover the rest.
const (
	colAtoll      = "Atoll"
	colLocality   = "Locality"
	colPopulation = "Population"
	colArea       = "Area (in sq km)"
	colMapLink    = "MapLink"

	colProposed = "Proposed_for_funding"
	colOngoing  = "Ongoing_Harbor_Project"
	colUrban    = "Urban_centers"
)

func projectsFromRow(r table.Row) Projects {
	return Projects{
		WaterNetwork: WaterNetwork{
			Funding:        r.Get("wat_Funding").Ptr(),
			Phase:          r.Get("wat_Phase").Ptr(),
			Status:         r.Get("wat_Status").Ptr(),
			NetworkLengthM: QuantityOf(r.Get("wat_Network (m)")),
			ConnectionsNos: QuantityOf(r.Get("wat_Connections (nos)")),
			TanksM3:        QuantityOf(r.Get("wat_Tanks (m3)")),
		},
		SewerageNetwork: SewerageNetwork{
			Funding:        r.Get("sew_Funding").Ptr(),
			Phase:          r.Get("sew_Phase").Ptr(),
			Status:         r.Get("sew_Status").Ptr(),
			NetworkLengthM: QuantityOf(r.Get("sew_Network")),
			Connections:    QuantityOf(r.Get("sew_Connections")),
		},
		Harbour: Harbour{
			Funding: r.Get("har_Funding").Ptr(),
			Phase:   r.First("har_Phase", "har_hase").Ptr(),
			Status:  r.Get("har_Status").Ptr(),
			Info:    r.Get("har_Info").Ptr(),
		},
		DesalinationPlant: DesalinationPlant{
			Funding: r.Get("des_Funding").Ptr(),
			Phase:   r.Get("des_Phase").Ptr(),
			Status:  r.Get("des_Status").Ptr(),
		},
		ProposedForFunding:   r.Get(colProposed).Ptr(),
		OngoingHarborProject: r.Get(colOngoing).Ptr(),
		UrbanCenters:         r.Get(colUrban).Ptr(),
	}
}

// parsePopulation accepts whole numbers, with or without thousands separators.
func parsePopulation(v table.Value) *int {
	if !v.Valid() {
		return nil
	}

	s := strings.NewReplacer(",", "", " ", "", "_", "").Replace(v.String())
	if s == "" {
		return nil
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return nil
		}
	}

	n, err := strconv.Atoi(s)
	if err != nil {
		return nil
	}
	return &n
}

func parseArea(v table.Value) *float64 {
	if !v.Valid() {
		return nil
	}

	f, err := strconv.ParseFloat(v.String(), 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return nil
	}
	return &f
}
