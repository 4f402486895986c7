package mcp342x

import "periph.io/x/conn/v3/physic"

// SignExtend interprets the low width bits of raw as a two's-complement value.
func SignExtend(raw RawSample, width int) int32 {
	mask := uint32(0xFFFFFFFF) >> (32 - width)
	u := uint32(raw) & mask
	if u&(1<<(width-1)) == 0 {
		return int32(u)
	}
	return -int32((u ^ mask) + 1)
}

// Code is the signed output code of raw, sign-extended over the output width of r.
func Code(raw RawSample, r Resolution) int32 {
	return SignExtend(raw, r.OutputWidth())
}

// ToPhysical converts an output code to volts at the input pins: code * LSB / PGA.
func ToPhysical(raw RawSample, r Resolution, g Gain) float64 {
	mult := g.Multiplier()
	if mult == 0 {
		return 0
	}
	return float64(Code(raw, r)) * (r.LSB() / float64(mult))
}

// Reading is one decoded conversion.
type Reading struct {
	Config Configuration
	Raw    RawSample
	Code   int32
	Value  float64 // volts
}

func newReading(cfg Configuration, raw RawSample) Reading {
	return Reading{
		Config: cfg,
		Raw:    raw,
		Code:   Code(raw, cfg.Resolution),
		Value:  ToPhysical(raw, cfg.Resolution, cfg.Gain),
	}
}

// Volts returns the value as a [physic.ElectricPotential], rounded to the nanovolt.
func (r Reading) Volts() physic.ElectricPotential {
	// physic.Volt is 1e9 nanovolts.
	nv := r.Value * float64(physic.Volt)
	if nv < 0 {
		return physic.ElectricPotential(nv - 0.5)
	}
	return physic.ElectricPotential(nv + 0.5)
}
