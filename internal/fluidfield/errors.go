package fluidfield

import "errors"

var (
	errCapsuleCapacity = errors.New("fluidfield: capsule table is full")
	errCapsuleNotFound = errors.New("fluidfield: no capsule for that network id")
)
