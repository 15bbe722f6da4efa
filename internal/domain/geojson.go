package domain

import (
	"github.com/ctessum/geom"
)

// FeatureCollection is a GeoJSON feature collection.
type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
}

// Feature is a GeoJSON feature.
type Feature struct {
	Type       string         `json:"type"`
	Properties map[string]any `json:"properties"`
	Geometry   Geometry       `json:"geometry"`
}

// Geometry is a GeoJSON geometry object. Coordinates are [lon, lat] ordered.
type Geometry struct {
	Type        string `json:"type"`
	Coordinates any    `json:"coordinates"`
}

// NewFeatureCollection returns an empty collection.
func NewFeatureCollection() FeatureCollection {
	return FeatureCollection{Type: "FeatureCollection", Features: []Feature{}}
}

// PointFeature builds a Point feature.
func PointFeature(lat, lon float64, props map[string]any) Feature {
	return Feature{
		Type:       "Feature",
		Properties: props,
		Geometry:   Geometry{Type: "Point", Coordinates: [2]float64{lon, lat}},
	}
}

// RegionFeature exports the region's geometry with its attributes as
// properties. A single polygon is written as Polygon, several as MultiPolygon.
func RegionFeature(r *Region) Feature {
	props := make(map[string]any, len(r.Attributes))
	for k, v := range r.Attributes {
		props[k] = v
	}

	polys := r.Geometry.Polygons()
	var g Geometry
	if len(polys) == 1 {
		g = Geometry{Type: "Polygon", Coordinates: polygonCoordinates(polys[0])}
	} else {
		coords := make([][][][2]float64, 0, len(polys))
		for _, p := range polys {
			coords = append(coords, polygonCoordinates(p))
		}
		g = Geometry{Type: "MultiPolygon", Coordinates: coords}
	}
	return Feature{Type: "Feature", Properties: props, Geometry: g}
}

func polygonCoordinates(p geom.Polygon) [][][2]float64 {
	rings := make([][][2]float64, 0, len(p))
	for _, path := range p {
		ring := make([][2]float64, 0, len(path)+1)
		for _, pt := range path {
			ring = append(ring, [2]float64{pt.X, pt.Y})
		}
		// GeoJSON rings are closed.
		if n := len(path); n > 0 && path[0] != path[n-1] {
			ring = append(ring, [2]float64{path[0].X, path[0].Y})
		}
		rings = append(rings, ring)
	}
	return rings
}
