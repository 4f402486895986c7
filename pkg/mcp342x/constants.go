package mcp342x

import "time"

// Constants from the datasheet

const (
	// DefaultAddress is the factory address with both Adr pins floating or tied low.
	DefaultAddress uint16 = 0x68

	// GeneralCallAddress is the I2C broadcast address every device listens on.
	GeneralCallAddress uint16 = 0x00

	// CMDGeneralCallReset latches the address pins and resets the device.
	CMDGeneralCallReset = 0x06

	// NumChannels is the channel count of the largest part in the family (MCP3424/MCP3428).
	NumChannels = 4
)

// Bits for the configuration register
//
//	RDY(7) | C1 C0 (6-5) | O/C (4) | S1 S0 (3-2) | G1 G0 (1-0)
const (
	ConfigRDYbit   = 0x80
	ConfigCHMask   = 0x60
	ConfigModebit  = 0x10
	ConfigSPSMask  = 0x0C
	ConfigGainMask = 0x03

	configCHShift   = 5
	configModeShift = 4
	configSPSShift  = 2
)

// Frame sizes as returned by the device.
const (
	// FrameLenShort is the frame length for 12, 14 and 16-bit conversions: two data bytes and the config byte.
	FrameLenShort = 3
	// FrameLenLong is the frame length read in 18-bit mode: three data bytes, the config byte and its marker copy.
	FrameLenLong = 5
	// MaxFrameLen is the largest frame ever read from the device.
	MaxFrameLen = FrameLenLong

	markerbit = 0x80

	// bytes 0 and 1 are always payload, and a marker always follows the config byte.
	minConfigIndex = 2
	minMarkerIndex = 3
)

// Mode is the conversion mode.
type Mode uint8

const (
	OneShot Mode = iota
	Continuous

	// ModeUnset marks an unset mode in a [Partial].
	ModeUnset Mode = 0xFF
)

func (m Mode) String() string {
	switch m {
	case OneShot:
		return "One-shot"
	case Continuous:
		return "Continuous"
	case ModeUnset:
		return "(unset)"
	default:
		return "(invalid mode)"
	}
}

// Resolution is the sample rate selection, which fixes the conversion width.
type Resolution uint8

const (
	Bits12 Resolution = iota
	Bits14
	Bits16
	Bits18

	// ResolutionUnset marks an unset resolution in a [Partial].
	ResolutionUnset Resolution = 0xFF
)

// resolutionInfo is the per-resolution data from the datasheet.
type resolutionInfo struct {
	bits  int
	lsb   float64 // volts per count at gain x1
	sps   float64
	label string
}

var resolutions = [...]resolutionInfo{
	Bits12: {bits: 12, lsb: 0.001, sps: 240, label: "240 samples/sec (12 bits)"},
	Bits14: {bits: 14, lsb: 0.00025, sps: 60, label: "60 samples/sec (14 bits)"},
	Bits16: {bits: 16, lsb: 0.0000625, sps: 15, label: "15 samples/sec (16 bits)"},
	Bits18: {bits: 18, lsb: 0.000015625, sps: 3.75, label: "3.75 samples/sec (18 bits)"},
}

// Valid reports whether r is one of the four resolution codes.
func (r Resolution) Valid() bool {
	return r <= Bits18
}

// Bits returns the conversion width in bits, or 0 for an invalid code.
func (r Resolution) Bits() int {
	if !r.Valid() {
		return 0
	}
	return resolutions[r].bits
}

// LSB returns the volts-per-count at unity gain, or 0 for an invalid code.
func (r Resolution) LSB() float64 {
	if !r.Valid() {
		return 0
	}
	return resolutions[r].lsb
}

// SampleRate returns the nominal conversion rate in samples per second.
func (r Resolution) SampleRate() float64 {
	if !r.Valid() {
		return 0
	}
	return resolutions[r].sps
}

// ConversionTime is the duration of a single conversion at this resolution.
func (r Resolution) ConversionTime() time.Duration {
	if !r.Valid() {
		return 0
	}
	return time.Duration(float64(time.Second) / resolutions[r].sps)
}

// OutputWidth is the two's-complement width of the output code: 18 in 18-bit mode, 16 otherwise.
func (r Resolution) OutputWidth() int {
	if r == Bits18 {
		return 18
	}
	return 16
}

func (r Resolution) String() string {
	switch {
	case r == ResolutionUnset:
		return "(unset)"
	case !r.Valid():
		return "(invalid resolution)"
	default:
		return resolutions[r].label
	}
}

// ResolutionFromBits maps 12, 14, 16 or 18 to its code.
func ResolutionFromBits(bits int) (Resolution, bool) {
	for code, info := range resolutions {
		if info.bits == bits {
			return Resolution(code), true
		}
	}
	return ResolutionUnset, false
}

// Gain is the PGA setting. The register holds a 0-based code.
type Gain uint8

const (
	X1 Gain = iota
	X2
	X4
	X8

	// GainUnset marks an unset gain in a [Partial].
	GainUnset Gain = 0xFF
)

var gainMultipliers = [...]int{X1: 1, X2: 2, X4: 4, X8: 8}

// Valid reports whether g is one of the four gain codes.
func (g Gain) Valid() bool {
	return g <= X8
}

// Multiplier returns 1, 2, 4 or 8, or 0 for an invalid code.
func (g Gain) Multiplier() int {
	if !g.Valid() {
		return 0
	}
	return gainMultipliers[g]
}

func (g Gain) String() string {
	switch {
	case g == GainUnset:
		return "(unset)"
	case !g.Valid():
		return "(invalid gain)"
	default:
		return "x" + string(rune('0'+gainMultipliers[g]))
	}
}

// GainFromMultiplier maps 1, 2, 4 or 8 to its code.
func GainFromMultiplier(mult int) (Gain, bool) {
	for code, m := range gainMultipliers {
		if m == mult {
			return Gain(code), true
		}
	}
	return GainUnset, false
}
