package domain

import (
	"errors"
	"fmt"
	"time"
)

// ErrGridMismatch reports a band whose sample count disagrees with its
// raster's grid.
var ErrGridMismatch = errors.New("band does not match grid")

// MissingPairError reports a day for which the counterpart raster could not
// be found in its archive. The pipeline treats it as recoverable: the day is
// skipped and counted, the run continues.
type MissingPairError struct {
	Variable  string
	Timestamp time.Time
}

func (e *MissingPairError) Error() string {
	return fmt.Sprintf("no %s raster for %s", e.Variable, e.Timestamp.Format(DateLayout))
}

// BandError reports a derivation step asked to read a band the raster does
// not carry, or to append one it already does. It signals a mis-assembled
// pipeline rather than a data gap, so callers do not skip past it.
type BandError struct {
	Band    string
	Problem string
}

func (e *BandError) Error() string {
	return fmt.Sprintf("band %s: %s", e.Band, e.Problem)
}
