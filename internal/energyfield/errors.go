package energyfield

import "errors"

var (
	errCapsuleCapacity = errors.New("energyfield: capsule table is full")
	errCapsuleNotFound = errors.New("energyfield: no capsule for that network id")
)
