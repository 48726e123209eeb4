package domain

import "time"

// ResolvePair matches a temperature raster with the dewpoint raster acquired
// on the same UTC day. The dewpoint archive is filtered to the temperature
// raster's day and the earliest hit wins; a day with no counterpart yields a
// *MissingPairError naming the archive's variable and the day.
func ResolvePair(temperature Raster, dewpoints Archive) (Pair, error) {
	day := temperature.Timestamp.UTC().Truncate(24 * time.Hour)
	match, ok := dewpoints.Filter(day, day.Add(24*time.Hour)).First()
	if !ok {
		return Pair{}, &MissingPairError{
			Variable:  dewpoints.Variable(),
			Timestamp: temperature.Timestamp,
		}
	}
	return Pair{Temperature: temperature, Dewpoint: match}, nil
}
