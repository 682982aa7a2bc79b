package bitplane

import (
	"errors"
	"fmt"
)

var (
	ErrCapacity   = errors.New("insufficient capacity")
	ErrOutOfRange = errors.New("bit offset out of range")
	ErrInvalidBit = errors.New("invalid bit value")
	ErrFraming    = errors.New("invalid message framing")
)

// CapacityError reports a carrier or message that does not fit.
// Needed and Available are expressed in bits.
type CapacityError struct {
	Needed    int
	Available int
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("%s: need %d bits, have %d", ErrCapacity, e.Needed, e.Available)
}

func (e *CapacityError) Is(target error) bool { return target == ErrCapacity }

type OutOfRangeError struct {
	Offset int
	Limit  int
}

func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("%s: offset %d, limit for this image is %d", ErrOutOfRange, e.Offset, e.Limit)
}

func (e *OutOfRangeError) Is(target error) bool { return target == ErrOutOfRange }

type InvalidBitError struct {
	Value uint8
}

func (e *InvalidBitError) Error() string {
	return fmt.Sprintf("%s: %d, a bit can only be set to 1 or 0", ErrInvalidBit, e.Value)
}

func (e *InvalidBitError) Is(target error) bool { return target == ErrInvalidBit }

// FramingError is returned by Read when the stored length prefix declares more
// message bits than the carrier can hold. Usually the image has no message.
type FramingError struct {
	Declared  uint32
	Available int
}

func (e *FramingError) Error() string {
	return fmt.Sprintf("%s: message length is %d bits, but the image can only store at most %d message bits",
		ErrFraming, e.Declared, e.Available)
}

func (e *FramingError) Is(target error) bool { return target == ErrFraming }
