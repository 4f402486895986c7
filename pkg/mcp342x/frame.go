package mcp342x

import (
	"encoding/binary"
	"fmt"
)

// RawSample is the unsigned output code: 16 bits wide below 18-bit resolution, 18 bits wide at 18-bit.
type RawSample uint32

// FrameLen is the number of bytes to read for a conversion at resolution r.
func FrameLen(r Resolution) int {
	if r == Bits18 {
		return FrameLenLong
	}
	return FrameLenShort
}

// LocateConfigByte finds the config byte in a frame and returns it with its index.
//
// A three byte frame carries the config byte at index 2. Longer frames end with a copy of the
// config byte that has bit 7 forced high. The frame is scanned from the end for a marker b[i],
// i >= 3, paired with the closest preceding byte b[j], j >= 2, such that b[i] == b[j]|0x80.
// The adjacent pair (b[i-1], b[i]) is therefore always tried first. When b[j] is itself a
// marker copy of b[j-1], b[j-1] is the config byte and RDY is reported clear.
func LocateConfigByte(frame []byte) (byte, int, error) {
	switch {
	case len(frame) < FrameLenShort:
		return 0, -1, fmt.Errorf("%w: %d bytes", ErrShortFrame, len(frame))
	case len(frame) == FrameLenShort:
		return frame[FrameLenShort-1], FrameLenShort - 1, nil
	}
	for i := len(frame) - 1; i >= minMarkerIndex; i-- {
		if frame[i]&markerbit == 0 {
			continue
		}
		for j := i - 1; j >= minConfigIndex; j-- {
			if frame[i] != frame[j]|markerbit {
				continue
			}
			// [d0 d1 cfg cfg|0x80 cfg|0x80]: with RDY set the marker's own copy pairs with the
			// marker, so b[j] may itself be the marker for b[j-1]. An 18-bit config never sits at
			// index 2.
			if k := j - 1; k >= minConfigIndex && frame[j]&markerbit != 0 && frame[j] == frame[k]|markerbit &&
				(k > minConfigIndex || DecodeConfig(frame[k]).Resolution != Bits18) {
				return frame[k], k, nil
			}
			return frame[j], j, nil
		}
	}
	return 0, -1, fmt.Errorf("%w: frame %08b", ErrNoMarker, frame)
}

// DecodeSample assembles the output code from the leading payload bytes.
// Nothing is truncated: below 18 bits the full 16-bit field is kept for sign extension.
func DecodeSample(frame []byte, r Resolution) (RawSample, error) {
	if r == Bits18 {
		if len(frame) < 3 {
			return 0, fmt.Errorf("%w: need 3 payload bytes, got %d", ErrShortFrame, len(frame))
		}
		return RawSample(frame[0])<<16 | RawSample(binary.BigEndian.Uint16(frame[1:])), nil
	}
	if len(frame) < 2 {
		return 0, fmt.Errorf("%w: need 2 payload bytes, got %d", ErrShortFrame, len(frame))
	}
	return RawSample(binary.BigEndian.Uint16(frame)), nil
}

// DecodeFrame locates and decodes the config byte, then decodes the sample it describes.
func DecodeFrame(frame []byte) (Configuration, RawSample, error) {
	cfgByte, idx, err := LocateConfigByte(frame)
	if err != nil {
		return Configuration{}, 0, err
	}
	cfg := DecodeConfig(cfgByte)

	// 18-bit payload is three bytes, so the config byte cannot sit before index 3.
	if cfg.Resolution == Bits18 && idx < 3 {
		return cfg, 0, fmt.Errorf("%w: 18-bit config at index %d", ErrShortFrame, idx)
	}

	raw, err := DecodeSample(frame[:idx], cfg.Resolution)
	if err != nil {
		return cfg, 0, err
	}
	return cfg, raw, nil
}
