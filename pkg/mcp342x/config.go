package mcp342x

import "fmt"

// Configuration is the decoded configuration register.
type Configuration struct {
	// Ready is bit 7, echoed exactly as written or read.
	// Writing it set in one-shot mode starts a new conversion.
	Ready      bool
	Channel    int // 1..4
	Mode       Mode
	Resolution Resolution
	Gain       Gain
}

// DefaultConfig is the power-on reset state of the register.
func DefaultConfig() Configuration {
	return Configuration{
		Ready:      true,
		Channel:    1,
		Mode:       Continuous,
		Resolution: Bits12,
		Gain:       X1,
	}
}

// Validate checks every field against its closed range.
func (c Configuration) Validate() error {
	if c.Channel < 1 || c.Channel > NumChannels {
		return InvalidArgument("channel", c.Channel, fmt.Sprintf("must be between 1 and %d", NumChannels))
	}
	if c.Mode != OneShot && c.Mode != Continuous {
		return InvalidArgument("mode", c.Mode, "must be one-shot or continuous")
	}
	if !c.Resolution.Valid() {
		return InvalidArgument("resolution", c.Resolution, "must be 12, 14, 16 or 18 bits")
	}
	if !c.Gain.Valid() {
		return InvalidArgument("gain", c.Gain, "must be 1, 2, 4 or 8")
	}
	return nil
}

// Encode packs c into the configuration byte. Fields are masked to their bit widths.
func (c Configuration) Encode() byte {
	var b byte
	if c.Ready {
		b |= ConfigRDYbit
	}
	b |= (byte(c.Channel-1) << configCHShift) & ConfigCHMask
	b |= (byte(c.Mode) << configModeShift) & ConfigModebit
	b |= (byte(c.Resolution) << configSPSShift) & ConfigSPSMask
	b |= byte(c.Gain) & ConfigGainMask
	return b
}

// DecodeConfig unpacks a configuration byte as read from the device.
func DecodeConfig(b byte) Configuration {
	return Configuration{
		Ready:      b&ConfigRDYbit != 0,
		Channel:    int((b&ConfigCHMask)>>configCHShift) + 1,
		Mode:       Mode((b & ConfigModebit) >> configModeShift),
		Resolution: Resolution((b & ConfigSPSMask) >> configSPSShift),
		Gain:       Gain(b & ConfigGainMask),
	}
}

// ReadyString renders the ready bit as "Yes" or "No".
func (c Configuration) ReadyString() string {
	if c.Ready {
		return "Yes"
	}
	return "No"
}

func (c Configuration) String() string {
	return fmt.Sprintf(
		"Configuration{Ready:%s, Channel:%d, Mode:%s, SampleRate:%s, Gain:%s}",
		c.ReadyString(), c.Channel, c.Mode, c.Resolution, c.Gain,
	)
}

// ChannelUnset marks an unset channel in a [Partial].
const ChannelUnset = 0

// Partial is a set of user overrides. Each field holds its Unset sentinel when not given.
type Partial struct {
	Ready      *bool
	Channel    int
	Mode       Mode
	Resolution Resolution
	Gain       Gain
}

// NoOverrides returns a [Partial] with every field unset.
func NoOverrides() Partial {
	return Partial{
		Channel:    ChannelUnset,
		Mode:       ModeUnset,
		Resolution: ResolutionUnset,
		Gain:       GainUnset,
	}
}

// IsEmpty reports whether p carries no overrides.
func (p Partial) IsEmpty() bool {
	return p == NoOverrides()
}

// Validate checks every set field.
func (p Partial) Validate() error {
	if p.Channel != ChannelUnset && (p.Channel < 1 || p.Channel > NumChannels) {
		return InvalidArgument("channel", p.Channel, fmt.Sprintf("must be between 1 and %d", NumChannels))
	}
	if p.Mode != ModeUnset && p.Mode != OneShot && p.Mode != Continuous {
		return InvalidArgument("mode", p.Mode, "must be one-shot or continuous")
	}
	if p.Resolution != ResolutionUnset && !p.Resolution.Valid() {
		return InvalidArgument("resolution", p.Resolution, "must be 12, 14, 16 or 18 bits")
	}
	if p.Gain != GainUnset && !p.Gain.Valid() {
		return InvalidArgument("gain", p.Gain, "must be 1, 2, 4 or 8")
	}
	return nil
}

// Merge applies the set fields of p onto base, leaving the others untouched.
func Merge(base Configuration, p Partial) Configuration {
	if p.Ready != nil {
		base.Ready = *p.Ready
	}
	if p.Channel != ChannelUnset {
		base.Channel = p.Channel
	}
	if p.Mode != ModeUnset {
		base.Mode = p.Mode
	}
	if p.Resolution != ResolutionUnset {
		base.Resolution = p.Resolution
	}
	if p.Gain != GainUnset {
		base.Gain = p.Gain
	}
	return base
}
