package infofield

import "errors"

var (
	errCapsuleCapacity = errors.New("infofield: capsule table is full")
	errCapsuleNotFound = errors.New("infofield: no capsule for that network id")
)
