package domain

// Rothfusz regression coefficients for the NWS heat index, temperature in
// degrees Fahrenheit and relative humidity in percent.
const (
	c1 = -42.379
	c2 = 2.04901523
	c3 = 10.14333127
	c4 = -0.22475541
	c5 = -0.00683783
	c6 = -0.05481717
	c7 = 0.00122874
	c8 = 0.00085282
	c9 = -0.00000199
)

func kelvinToFahrenheit(k float64) float64 {
	return (k-273.15)*9/5 + 32
}

// rothfusz evaluates the full nine-term regression. It is applied across the
// whole grid without the low-temperature shortcut or the NWS range
// adjustments, matching how the archive product is defined; NaN inputs
// propagate.
func rothfusz(tF, rh float64) float64 {
	return c1 +
		c2*tF +
		c3*rh +
		c4*tF*rh +
		c5*tF*tF +
		c6*rh*rh +
		c7*tF*tF*rh +
		c8*tF*rh*rh +
		c9*tF*tF*rh*rh
}

// WithHeatIndex derives the heat index band, in degrees Fahrenheit, from the
// raster's temperature (Kelvin) and relative humidity (percent) bands, and
// returns a copy of r carrying it. The result keeps r's timestamp.
func WithHeatIndex(r Raster) (Raster, error) {
	temp, err := r.Band(BandTemperature)
	if err != nil {
		return Raster{}, err
	}
	rh, err := r.Band(BandRelativeHumidity)
	if err != nil {
		return Raster{}, err
	}
	samples := make([]float64, len(temp.Samples))
	for i, t := range temp.Samples {
		samples[i] = rothfusz(kelvinToFahrenheit(t), rh.Samples[i])
	}
	return r.WithBand(Band{Name: BandHeatIndex, Samples: samples})
}
