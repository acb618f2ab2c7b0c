// Package dataset assembles island records and the document served to the map client.
package dataset

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/woozymasta/atollmap/internal/geo"
	"github.com/woozymasta/atollmap/internal/table"
)

// Island is one output record.
type Island struct {
	Atoll       string                 `json:"atoll" yaml:"atoll"`
	Locality    string                 `json:"locality" yaml:"locality"`
	Population  *int                   `json:"population" yaml:"population"`
	AreaSqKm    *float64               `json:"area_sq_km" yaml:"area_sq_km"`
	MapLink     *string                `json:"map_link" yaml:"map_link"`
	Coordinates geo.ResolvedCoordinate `json:"coordinates" yaml:"coordinates"`
	Cell        string                 `json:"h3_cell,omitempty" yaml:"h3_cell,omitempty"`
	Projects    Projects               `json:"projects" yaml:"projects"`
}

// Projects groups the infrastructure projects of an island.
type Projects struct {
	WaterNetwork         WaterNetwork      `json:"water_network" yaml:"water_network"`
	SewerageNetwork      SewerageNetwork   `json:"sewerage_network" yaml:"sewerage_network"`
	Harbour              Harbour           `json:"harbour" yaml:"harbour"`
	DesalinationPlant    DesalinationPlant `json:"desalination_plant" yaml:"desalination_plant"`
	ProposedForFunding   *string           `json:"proposed_for_funding" yaml:"proposed_for_funding"`
	OngoingHarborProject *string           `json:"ongoing_harbor_project" yaml:"ongoing_harbor_project"`
	UrbanCenters         *string           `json:"urban_centers" yaml:"urban_centers"`
}

// WaterNetwork project columns (wat_*).
type WaterNetwork struct {
	Funding        *string  `json:"funding" yaml:"funding"`
	Phase          *string  `json:"phase" yaml:"phase"`
	Status         *string  `json:"status" yaml:"status"`
	NetworkLengthM Quantity `json:"network_length_m" yaml:"network_length_m"`
	ConnectionsNos Quantity `json:"connections_nos" yaml:"connections_nos"`
	TanksM3        Quantity `json:"tanks_m3" yaml:"tanks_m3"`
}

// SewerageNetwork project columns (sew_*).
type SewerageNetwork struct {
	Funding        *string  `json:"funding" yaml:"funding"`
	Phase          *string  `json:"phase" yaml:"phase"`
	Status         *string  `json:"status" yaml:"status"`
	NetworkLengthM Quantity `json:"network_length_m" yaml:"network_length_m"`
	Connections    Quantity `json:"connections" yaml:"connections"`
}

// Harbour project columns (har_*).
type Harbour struct {
	Funding *string `json:"funding" yaml:"funding"`
	Phase   *string `json:"phase" yaml:"phase"`
	Status  *string `json:"status" yaml:"status"`
	Info    *string `json:"info" yaml:"info"`
}

// DesalinationPlant project columns (des_*).
type DesalinationPlant struct {
	Funding *string `json:"funding" yaml:"funding"`
	Phase   *string `json:"phase" yaml:"phase"`
	Status  *string `json:"status" yaml:"status"`
}

// ProjectType names a project group for statistics.
type ProjectType string

// Project groups counted in summaries.
const (
	Water        ProjectType = "water"
	Sewerage     ProjectType = "sewerage"
	HarbourType  ProjectType = "harbour"
	Desalination ProjectType = "desalination"
)

// ProjectTypes lists project groups in display order.
var ProjectTypes = []ProjectType{Water, Sewerage, HarbourType, Desalination}

// Funders returns the funding agency of each project group, absent groups omitted.
func (p Projects) Funders() map[ProjectType]string {
	out := make(map[ProjectType]string, len(ProjectTypes))
	for t, f := range map[ProjectType]*string{
		Water:        p.WaterNetwork.Funding,
		Sewerage:     p.SewerageNetwork.Funding,
		HarbourType:  p.Harbour.Funding,
		Desalination: p.DesalinationPlant.Funding,
	} {
		if f != nil && *f != "" {
			out[t] = *f
		}
	}
	return out
}

// Quantity is a measured cell: a JSON number when numeric, the raw text
// otherwise and null when absent.
type Quantity struct {
	table.Value
}

// QuantityOf wraps v.
func QuantityOf(v table.Value) Quantity {
	return Quantity{Value: v}
}

// Number returns the numeric value, if the cell is numeric.
func (q Quantity) Number() (float64, bool) {
	if !q.Valid() {
		return 0, false
	}
	f, err := strconv.ParseFloat(strings.ReplaceAll(q.String(), ",", ""), 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, false
	}
	return f, true
}

func (q Quantity) wire() interface{} {
	if !q.Valid() {
		return nil
	}
	if n, ok := q.Number(); ok {
		return n
	}
	return q.String()
}

// MarshalJSON implements json.Marshaler.
func (q Quantity) MarshalJSON() ([]byte, error) {
	return json.Marshal(q.wire())
}

// MarshalYAML implements yaml.Marshaler.
func (q Quantity) MarshalYAML() (interface{}, error) {
	return q.wire(), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (q *Quantity) UnmarshalJSON(b []byte) error {
	var raw interface{}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}

	switch v := raw.(type) {
	case nil:
		*q = Quantity{}
	case float64:
		*q = QuantityOf(table.Present(strconv.FormatFloat(v, 'f', -1, 64)))
	case string:
		*q = QuantityOf(table.Normalize(v))
	default:
		return fmt.Errorf("quantity: unexpected %T", raw)
	}

	return nil
}
