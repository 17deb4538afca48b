package fixture

import "errors"

var (
	errBadHeader  = errors.New("fixture: missing or mismatched header line")
	errBadTriplet = errors.New("fixture: expected a comma-separated x,y,z triplet")
)
