package pipeline

import (
	"github.com/couchcryptid/heat-index-etl/internal/domain"
)

// derive produces one day's output raster: the temperature raster clipped to
// the boundary with relative humidity and heat index bands appended. The
// dewpoint counterpart comes from the archive; a day without one surfaces as
// a *domain.MissingPairError.
func derive(temp domain.Raster, dewpoints domain.Archive, boundary *domain.Boundary) (domain.Raster, error) {
	pair, err := domain.ResolvePair(temp, dewpoints)
	if err != nil {
		return domain.Raster{}, err
	}

	clipped := boundary.Clip(pair.Temperature)
	dew := boundary.Clip(pair.Dewpoint)

	withRH, err := domain.WithRelativeHumidity(clipped, dew)
	if err != nil {
		return domain.Raster{}, err
	}
	return domain.WithHeatIndex(withRH)
}
