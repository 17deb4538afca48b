package heatfield

import "errors"

var (
	errCapsuleCapacity = errors.New("heatfield: capsule table is full")
	errCapsuleNotFound = errors.New("heatfield: no capsule for that network id")
)
