package shapefile

import (
	"fmt"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/encoding/shp"
)

// PlaceRecord is the row layout written by WritePlaces: a polygon with the
// NAME and ST attributes used to select places.
type PlaceRecord struct {
	geom.Polygon
	Name  string `shp:"NAME"`
	State string `shp:"ST"`
}

// WritePlaces writes the records to a new shapefile at path.
func WritePlaces(path string, records []PlaceRecord) error {
	enc, err := shp.NewEncoder(path, PlaceRecord{})
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	for i, r := range records {
		if err := enc.Encode(r); err != nil {
			enc.Close()
			return fmt.Errorf("write %s row %d: %w", path, i, err)
		}
	}
	enc.Close()
	return nil
}
