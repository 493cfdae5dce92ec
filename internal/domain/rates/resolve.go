package rates

import (
	"errors"
	"time"
)

// ErrNoActiveRate means no configured rate record covers the requested
// date. ErrAmbiguousRate means more than one does; both indicate the
// administrative configuration needs fixing, not the caller's input.
var (
	ErrNoActiveRate  = errors.New("no active rate record for date")
	ErrAmbiguousRate = errors.New("multiple rate records cover date")
)

// Resolve picks the unique record whose effective interval contains asOf.
// The candidate set is assumed pre-filtered to one (facility, payer type)
// pair. Overlapping configuration fails rather than silently picking one.
func Resolve(records []*RateRecord, asOf time.Time) (*RateRecord, error) {
	var match *RateRecord
	for _, r := range records {
		if !r.Covers(asOf) {
			continue
		}
		if match != nil {
			return nil, ErrAmbiguousRate
		}
		match = r
	}
	if match == nil {
		return nil, ErrNoActiveRate
	}
	return match, nil
}
