// Package domain models gridded weather-forecast samples, the geographic regions
// they are filtered against, and the point-forecast documents derived from them.
//
// # Data Source
//
// Forecast fields arrive as self-describing gridded files. GRIB2 files from the
// forecast provider are converted to netCDF with ncl_convert2nc, which keeps the
// PyNIO field naming used throughout this package:
//
//	<PARAM>_P<template>_L<level type>_GLL0[_acc]
//	TMP_P0_L103_GLL0     temperature at a height above ground, K
//	SOILW_P0_2L106_GLL0  volumetric soil moisture in a depth layer, fraction
//	APCP_P8_L1_GLL0_acc  precipitation accumulated since issuance, kg m-2
//
// Coordinates are lat_0 (usually 90 to -90) and lon_0 (0 to 360). Layered fields
// carry a third dimension such as lv_DBLL0, where index 0 is the 0-10cm layer,
// 1 is 10-40cm, 2 is 40-100cm and 3 is 100-200cm.
//
// # Longitude Conventions
//
// Grid longitudes use 0..360 while boundary geometries and GPS reports use
// -180..180. Every Sample is normalized with [NormalizeLongitude] before it is
// compared against a [Region]; mixing conventions silently selects the wrong
// cells. Point extraction goes the other way and maps the query longitude into
// the grid's native convention with [ToGridLongitude].
//
// # Filtering
//
// Region membership is decided in two stages:
//
//	CoarseFilter   inclusive bounding-box test, a cheap superset of the region
//	PreciseFilter  point-in-polygon test, boundary inclusive, holes excluded
//
// The coarse box is derived from every vertex of every ring. Regions whose
// rings sit on both sides of the 180th meridian get a wrapped box
// (MinLon > MaxLon, as in RFC 7946) when that box is narrower; see
// [Region.BoundingBox].
//
// # Filenames
//
// Forecast filenames encode their parameters in dot-separated tokens:
//
//	sof-d.20200317.t06z.0p125.basic.global.f003.grib2
//	  0     1       2    3     4      5     6    7
//
// Token 1 is the issuance date, token 2 the issuance hour, token 4 the bundle
// and token 6 the lead time in hours. See [ParseForecastFilename].
//
// # Times
//
// Point-forecast CSVs carry naive UTC timestamps ("2020-03-17 06:00:00"). The
// JSON documents append an explicit offset and use the T separator
// ("2020-03-17T06:00:00+00:00").
package domain
