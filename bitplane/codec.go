/*
Package bitplane hides a length-prefixed message in the least significant bits
of a flat sequence of color channel values.

Bit offsets are counted backward from the end of the sequence. Offset 0 is the
first channel of the last pixel, offset 2 its third channel, offset 3 the first
channel of the pixel before it, and so on. The layout is:

	offsets 0..31  message length in bits, big-endian
	offset  32     reserved
	offsets 33..   message bytes, most significant bit first
*/
package bitplane

import (
	"fmt"
	"math"
)

const (
	// ChannelsPerPixel is the number of addressable channels of one pixel (R, G, B).
	ChannelsPerPixel = 3

	lengthBits = 32
	// headerBits is reserved in whole pixels: 11 pixels of 3 channels.
	headerBits = 11 * ChannelsPerPixel
)

type Codec struct {
	channels []uint8
}

// Open borrows channels for the lifetime of the returned Codec. Writes mutate
// the slice in place.
func Open(channels []uint8) (*Codec, error) {
	if len(channels) < lengthBits {
		return nil, &CapacityError{Needed: lengthBits, Available: len(channels)}
	}
	return &Codec{channels: channels}, nil
}

func (c *Codec) Channels() []uint8 { return c.channels }

// RawBitLimit is the number of addressable bits, one per channel.
func (c *Codec) RawBitLimit() int { return len(c.channels) }

// MessageBitLimit is the number of bits left for the message once the header
// is reserved. It is negative for carriers smaller than the header, which can
// be opened but hold no message.
func (c *Codec) MessageBitLimit() int { return c.RawBitLimit() - headerBits }

// Fits reports whether msg is within MessageBitLimit. An empty message always
// fits.
func (c *Codec) Fits(msg []byte) bool {
	return len(msg)*8 <= max(c.MessageBitLimit(), 0)
}

func (c *Codec) index(offset int) (int, error) {
	if offset < 0 || offset >= c.RawBitLimit() {
		return 0, &OutOfRangeError{Offset: offset, Limit: c.RawBitLimit() - 1}
	}
	// pixel -(offset+1) floordiv 3, counted from the end
	i := len(c.channels) - ChannelsPerPixel*(offset/ChannelsPerPixel+1) + offset%ChannelsPerPixel
	if i < 0 {
		// a partial leading pixel cannot be addressed
		return 0, &OutOfRangeError{Offset: offset, Limit: c.RawBitLimit() - 1}
	}
	return i, nil
}

func (c *Codec) Bit(offset int) (uint8, error) {
	i, err := c.index(offset)
	if err != nil {
		return 0, err
	}
	return c.channels[i] & 1, nil
}

// SetBit replaces the least significant bit of the addressed channel and
// keeps the other seven.
func (c *Codec) SetBit(offset int, value uint8) error {
	if value > 1 {
		return &InvalidBitError{Value: value}
	}
	i, err := c.index(offset)
	if err != nil {
		return err
	}
	c.channels[i] = c.channels[i]&^1 | value
	return nil
}

// Write stores msg behind a 32 bit length prefix. Nothing is modified when
// msg does not fit or the carrier is smaller than the header.
func (c *Codec) Write(msg []byte) error {
	if c.MessageBitLimit() < 0 || !c.Fits(msg) || uint64(len(msg))*8 > math.MaxUint32 {
		return &CapacityError{Needed: len(msg) * 8, Available: c.MessageBitLimit()}
	}

	size := uint32(len(msg) * 8)
	for i := range lengthBits {
		if err := c.SetBit(i, uint8(size>>(lengthBits-1-i))&1); err != nil {
			return fmt.Errorf("could not write length prefix: %w", err)
		}
	}

	for i := range len(msg) * 8 {
		bit := (msg[i/8] >> (7 - i%8)) & 1
		if err := c.SetBit(headerBits+i, bit); err != nil {
			return fmt.Errorf("could not write message bit %d: %w", i, err)
		}
	}
	return nil
}

// Read returns the framed message verbatim. A *FramingError means the prefix
// is larger than the carrier, which usually means there is no message.
func (c *Codec) Read() ([]byte, error) {
	available := c.MessageBitLimit()
	if available < 0 {
		// the prefix itself is not fully addressable
		return nil, &FramingError{Available: available}
	}

	var size uint32
	for i := range lengthBits {
		bit, err := c.Bit(i)
		if err != nil {
			return nil, fmt.Errorf("could not read length prefix: %w", err)
		}
		size |= uint32(bit) << (lengthBits - 1 - i)
	}

	if uint64(size) > uint64(available) {
		return nil, &FramingError{Declared: size, Available: available}
	}
	// a trailing partial byte is read as a whole byte
	if whole := available &^ 7; (uint64(size)+7)&^7 > uint64(whole) {
		return nil, &FramingError{Declared: size, Available: whole}
	}

	msg := make([]byte, 0, (size+7)/8)
	for i := 0; i < int(size); i += 8 {
		var b uint8
		for j := range 8 {
			bit, err := c.Bit(headerBits + i + j)
			if err != nil {
				return nil, fmt.Errorf("could not read message byte %d: %w", i/8, err)
			}
			b |= bit << (7 - j)
		}
		msg = append(msg, b)
	}
	return msg, nil
}
