package dataset

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/woozymasta/atollmap/internal/geo"
	"github.com/woozymasta/atollmap/internal/locate"
	"github.com/woozymasta/atollmap/internal/table"
)

// Defaults for the document header.
const (
	DefaultTitle       = "Maldives Infrastructure Projects Data"
	DefaultDescription = "Water, Sewerage, Harbour, and Desalination projects across Maldives islands"
)

// ErrMissingColumn is returned by Build for a table without an atoll or
// locality column.
var ErrMissingColumn = errors.New("required column missing")

var datasetNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/woozymasta/atollmap"))

// Document is the JSON document consumed by the map client.
type Document struct {
	Metadata Metadata `json:"metadata" yaml:"metadata"`
	Islands  []Island `json:"islands" yaml:"islands"`
}

// Metadata summarises the islands of a document.
type Metadata struct {
	Title            string              `json:"title" yaml:"title"`
	Description      string              `json:"description" yaml:"description"`
	DatasetID        string              `json:"dataset_id" yaml:"dataset_id"`
	CentroidsVersion string              `json:"centroids_version" yaml:"centroids_version"`
	TotalIslands     int                 `json:"total_islands" yaml:"total_islands"`
	CoordinatesInfo  CoordinatesInfo     `json:"coordinates_info" yaml:"coordinates_info"`
	FundingAgencies  []string            `json:"funding_agencies" yaml:"funding_agencies"`
	Atolls           []string            `json:"atolls" yaml:"atolls"`
	ProjectTotals    map[ProjectType]int `json:"project_totals" yaml:"project_totals"`
	AtollSummaries   []AtollSummary      `json:"atoll_summaries" yaml:"atoll_summaries"`
}

// CoordinatesInfo counts islands by coordinate provenance.
type CoordinatesInfo struct {
	ExtractedFromMaps  int `json:"extracted_from_maps" yaml:"extracted_from_maps"`
	EstimatedFromAtoll int `json:"estimated_from_atoll" yaml:"estimated_from_atoll"`
	Missing            int `json:"missing" yaml:"missing"`
}

func (c *CoordinatesInfo) add(p geo.Provenance) {
	switch p {
	case geo.Extracted:
		c.ExtractedFromMaps++
	case geo.Estimated:
		c.EstimatedFromAtoll++
	default:
		c.Missing++
	}
}

// AtollSummary aggregates the islands of one atoll.
type AtollSummary struct {
	Atoll       string              `json:"atoll" yaml:"atoll"`
	Name        string              `json:"name,omitempty" yaml:"name,omitempty"`
	Islands     int                 `json:"islands" yaml:"islands"`
	Population  int                 `json:"population" yaml:"population"`
	Projects    map[ProjectType]int `json:"projects" yaml:"projects"`
	Coordinates CoordinatesInfo     `json:"coordinates" yaml:"coordinates"`
}

// Report describes what happened while building, for logging.
type Report struct {
	Rows     int
	Blank    int            // rows with every cell missing, not reported as skipped
	Skipped  []int          // source lines without atoll or locality
	Matchers map[string]int // extracted coordinates per matcher
}

// Builder turns table rows into a Document.
type Builder struct {
	Resolver    *locate.Resolver
	Title       string
	Description string
	// CellResolution is the H3 resolution of Island.Cell; negative disables it.
	CellResolution int
	// Workers bounds concurrent coordinate resolution.
	Workers int
}

// NewBuilder returns a builder with default title, description and cell resolution.
func NewBuilder(r *locate.Resolver) *Builder {
	return &Builder{
		Resolver:       r,
		Title:          DefaultTitle,
		Description:    DefaultDescription,
		CellResolution: geo.DefaultCellResolution,
		Workers:        1,
	}
}

// Build assembles the document. Blank rows are dropped and rows without atoll
// or locality are skipped; coordinate resolution failures never drop a row.
func (b *Builder) Build(t *table.Table) (*Document, Report, error) {
	report := Report{Rows: len(t.Rows), Matchers: map[string]int{}}

	for _, name := range []string{colAtoll, colLocality} {
		if !t.Has(name) {
			return nil, report, fmt.Errorf("%w: %q", ErrMissingColumn, name)
		}
	}

	rows := make([]table.Row, 0, len(t.Rows))
	refs := make([]locate.Reference, 0, len(t.Rows))

	for _, r := range t.Rows {
		if r.Empty() {
			report.Blank++
			continue
		}

		atoll, locality := r.Get(colAtoll), r.Get(colLocality)
		if !atoll.Valid() || !locality.Valid() {
			report.Skipped = append(report.Skipped, r.Line)
			continue
		}

		rows = append(rows, r)
		refs = append(refs, locate.Reference{
			Location: r.Get(colMapLink).String(),
			Region:   atoll.String(),
			Locality: locality.String(),
		})
	}

	resolved := b.Resolver.ResolveAll(refs, b.Workers)

	islands := make([]Island, 0, len(rows))
	for i, r := range rows {
		res := resolved[i]
		if res.Matcher != "" {
			report.Matchers[res.Matcher]++
		}

		island := Island{
			Atoll:       refs[i].Region,
			Locality:    refs[i].Locality,
			Population:  parsePopulation(r.Get(colPopulation)),
			AreaSqKm:    parseArea(r.Get(colArea)),
			MapLink:     r.Get(colMapLink).Ptr(),
			Coordinates: res.ResolvedCoordinate,
			Projects:    projectsFromRow(r),
		}
		if b.CellResolution >= 0 {
			island.Cell, _ = geo.Cell(res.Coordinate, b.CellResolution)
		}

		islands = append(islands, island)
	}

	id, err := datasetID(islands)
	if err != nil {
		return nil, report, err
	}

	doc := &Document{
		Metadata: b.metadata(islands),
		Islands:  islands,
	}
	doc.Metadata.DatasetID = id

	return doc, report, nil
}

// datasetID is a name-based UUID of the records, stable for identical input.
func datasetID(islands []Island) (string, error) {
	data, err := json.Marshal(islands)
	if err != nil {
		return "", fmt.Errorf("fingerprinting islands: %w", err)
	}
	return uuid.NewSHA1(datasetNamespace, data).String(), nil
}

func (b *Builder) metadata(islands []Island) Metadata {
	m := Metadata{
		Title:         b.Title,
		Description:   b.Description,
		TotalIslands:  len(islands),
		ProjectTotals: emptyProjectCounts(),
	}
	if b.Resolver != nil {
		m.CentroidsVersion = b.Resolver.Estimator().Version()
	}

	funders := map[string]struct{}{}
	atolls := map[string]*AtollSummary{}

	for _, is := range islands {
		m.CoordinatesInfo.add(is.Coordinates.Source)

		s, ok := atolls[is.Atoll]
		if !ok {
			s = &AtollSummary{Atoll: is.Atoll, Projects: emptyProjectCounts()}
			if b.Resolver != nil {
				if r, known := b.Resolver.Estimator().Centroid(is.Atoll); known {
					s.Name = r.Name
				}
			}
			atolls[is.Atoll] = s
		}
		s.Islands++
		if is.Population != nil {
			s.Population += *is.Population
		}
		s.Coordinates.add(is.Coordinates.Source)

		for pt, f := range is.Projects.Funders() {
			funders[f] = struct{}{}
			m.ProjectTotals[pt]++
			s.Projects[pt]++
		}
	}

	m.FundingAgencies = sortedKeys(funders)

	m.Atolls = make([]string, 0, len(atolls))
	for code := range atolls {
		m.Atolls = append(m.Atolls, code)
	}
	sort.Strings(m.Atolls)

	m.AtollSummaries = make([]AtollSummary, 0, len(atolls))
	for _, code := range m.Atolls {
		m.AtollSummaries = append(m.AtollSummaries, *atolls[code])
	}

	return m
}

func emptyProjectCounts() map[ProjectType]int {
	out := make(map[ProjectType]int, len(ProjectTypes))
	for _, t := range ProjectTypes {
		out[t] = 0
	}
	return out
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
