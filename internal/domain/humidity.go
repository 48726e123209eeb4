package domain

// relativeHumidity approximates relative humidity in percent from 2m air
// temperature and dewpoint, both in Kelvin. The estimate is the standard
// linear one, about 5% RH per degree of dewpoint depression:
//
//	RH = 100 - 5*(T - D)
//
// The result is deliberately unclamped: values outside [0, 100] flag
// suspect inputs downstream instead of being silently normalized. NaN in
// either input propagates.
func relativeHumidity(temperatureK, dewpointK float64) float64 {
	return 100 - 5*(temperatureK-dewpointK)
}

// WithRelativeHumidity derives the relative humidity band cell-by-cell from
// the raster's temperature band and the paired dewpoint raster, and returns
// a copy of r carrying it. The two rasters must share a grid; the result
// keeps r's timestamp.
func WithRelativeHumidity(r, dewpoint Raster) (Raster, error) {
	temp, err := r.Band(BandTemperature)
	if err != nil {
		return Raster{}, err
	}
	dew, err := dewpoint.Band(BandDewpoint)
	if err != nil {
		return Raster{}, err
	}
	if len(dew.Samples) != r.Grid.Cells() {
		return Raster{}, &BandError{Band: BandDewpoint, Problem: "grid differs from temperature raster"}
	}
	samples := make([]float64, len(temp.Samples))
	for i, t := range temp.Samples {
		samples[i] = relativeHumidity(t, dew.Samples[i])
	}
	return r.WithBand(Band{Name: BandRelativeHumidity, Samples: samples})
}
