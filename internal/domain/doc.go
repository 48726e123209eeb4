// Package domain models ERA5 daily climate rasters and the heat index
// derivation applied to them.
//
// # Data Source
//
// Source rasters come from the ECMWF ERA5 daily aggregate dataset
// (ECMWF/ERA5/DAILY), served by the raster archive service one raster per
// variable per UTC day. The two variables consumed here are
// mean_2m_air_temperature and dewpoint_2m_temperature, both in Kelvin, on a
// shared regular lon/lat grid.
//
// # Raster Conventions
//
// Grid layout:
//
//	Samples are row-major with row 0 as the southernmost row; the grid origin
//	is the lower-left cell corner and cell centers sit half a cell in from
//	the corner. Rendering flips rows so north ends up at the top of the image.
//
// Masking:
//
//	NaN is the no-data sentinel. Clipping to a boundary masks cells whose
//	centers fall outside it, and every arithmetic derivation propagates NaN,
//	so masked cells stay masked through the whole chain and render as
//	transparent pixels.
//
// Timestamps:
//
//	A raster's Timestamp is the UTC acquisition day of its source data and is
//	carried unchanged through every derivation; a derived raster answers "when
//	was this measured", not "when was this computed". ProcessedAt records the
//	computation time and is stamped separately by [Stamped].
//
// # Derivation Chain
//
// Relative humidity is estimated from dewpoint depression, roughly 5% RH per
// Kelvin below the air temperature:
//
//	RH = 100 - 5*(T - D)
//
// The estimate is left unclamped so out-of-range values surface suspect
// inputs instead of hiding them. Heat index is the full nine-term Rothfusz
// regression over temperature in Fahrenheit and RH in percent, applied
// uniformly across the grid with no low-temperature shortcut and no NWS
// range adjustments. See [WithRelativeHumidity] and [WithHeatIndex].
package domain
