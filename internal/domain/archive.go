package domain

import (
	"sort"
	"time"
)

// Archive is an ordered day-keyed collection of rasters for one variable,
// sorted ascending by timestamp. It is immutable after construction; lookups
// never modify it.
type Archive struct {
	variable string
	rasters  []Raster
}

// NewArchive copies rasters into a new archive for the named variable,
// sorting them by timestamp. The input slice is not retained.
func NewArchive(variable string, rasters []Raster) Archive {
	sorted := make([]Raster, len(rasters))
	copy(sorted, rasters)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})
	return Archive{variable: variable, rasters: sorted}
}

// Variable returns the band name the archive was built for.
func (a Archive) Variable() string { return a.variable }

// Len returns the number of rasters held.
func (a Archive) Len() int { return len(a.rasters) }

// Rasters returns a copy of the held rasters in timestamp order.
func (a Archive) Rasters() []Raster {
	out := make([]Raster, len(a.rasters))
	copy(out, a.rasters)
	return out
}

// Filter returns the sub-archive of rasters with start <= timestamp < end.
func (a Archive) Filter(start, end time.Time) Archive {
	lo := sort.Search(len(a.rasters), func(i int) bool {
		return !a.rasters[i].Timestamp.Before(start)
	})
	hi := sort.Search(len(a.rasters), func(i int) bool {
		return !a.rasters[i].Timestamp.Before(end)
	})
	return Archive{variable: a.variable, rasters: a.rasters[lo:hi]}
}

// First returns the earliest raster and true, or a zero raster and false when
// the archive is empty.
func (a Archive) First() (Raster, bool) {
	if len(a.rasters) == 0 {
		return Raster{}, false
	}
	return a.rasters[0], true
}
