package shapefile

import (
	"sort"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/index/rtree"

	"github.com/couchcryptid/forecast-geofilter/internal/domain"
)

// indexed is the R-tree entry. The embedded geometry supplies the envelope
// the tree is keyed on.
type indexed struct {
	geom.Polygonal
	region *domain.Region
	order  int
}

// Index answers which regions contain a point, using an R-tree over region
// envelopes to narrow the candidates before the precise test.
type Index struct {
	tree *rtree.Rtree
	n    int
}

// NewIndex builds an index over regions. Locate reports matches in the order
// regions were given.
func NewIndex(regions []*domain.Region) *Index {
	tree := rtree.NewTree(25, 50)
	for i, r := range regions {
		tree.Insert(indexed{Polygonal: r.Geometry, region: r, order: i})
	}
	return &Index{tree: tree, n: len(regions)}
}

// Len returns the number of indexed regions.
func (x *Index) Len() int {
	return x.n
}

// Locate returns every region whose geometry contains the point. lon must be
// normalized to -180..180.
func (x *Index) Locate(lat, lon float64) []*domain.Region {
	// Pad the query so points on an envelope edge are still candidates.
	const pad = 1e-9
	query := &geom.Bounds{
		Min: geom.Point{X: lon - pad, Y: lat - pad},
		Max: geom.Point{X: lon + pad, Y: lat + pad},
	}
	candidates := x.tree.SearchIntersect(query)

	hits := make([]indexed, 0, len(candidates))
	for _, c := range candidates {
		e, ok := c.(indexed)
		if ok && e.region.Contains(lat, lon) {
			hits = append(hits, e)
		}
	}
	sort.Slice(hits, func(i, j int) bool { return hits[i].order < hits[j].order })

	out := make([]*domain.Region, len(hits))
	for i, h := range hits {
		out[i] = h.region
	}
	return out
}
