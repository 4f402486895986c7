// internal/config/validate.go
package config

import (
	"fmt"
	"strings"

	"periph.io/x/conn/v3/physic"

	"github.com/yunginnanet/ftdi-mcp342x/pkg/mcp342x"
)

// Validate checks configuration correctness.
// It performs declarative validation only and MUST NOT mutate configuration.
// Every failure is an *mcp342x.ArgumentError naming the option.
func Validate(cfg *Config) error {
	if cfg.Address != nil {
		switch addr := *cfg.Address; {
		case addr == mcp342x.GeneralCallAddress:
			return mcp342x.InvalidArgument("address", fmt.Sprintf("0x%02X", addr), "reserved for the general call")
		case addr > 0x7F:
			return mcp342x.InvalidArgument("address", fmt.Sprintf("0x%X", addr), "not a 7-bit I2C address")
		}
	}

	if cfg.Speed != "" {
		if _, err := parseSpeed(cfg.Speed); err != nil {
			return mcp342x.InvalidArgument("speed", cfg.Speed, err.Error())
		}
	}

	for _, ch := range cfg.Channels {
		if ch < 1 || ch > mcp342x.NumChannels {
			return mcp342x.InvalidArgument("channels", ch, fmt.Sprintf("must be between 1 and %d", mcp342x.NumChannels))
		}
	}

	if cfg.Samples < 0 {
		return mcp342x.InvalidArgument("samples", cfg.Samples, "must not be negative")
	}

	if cfg.Interval < 0 {
		return mcp342x.InvalidArgument("interval", cfg.Interval, "must not be negative")
	}

	if cfg.Settle != nil && *cfg.Settle < 0 {
		return mcp342x.InvalidArgument("settle", *cfg.Settle, "must not be negative")
	}

	if _, err := cfg.Set.Partial(); err != nil {
		return err
	}

	switch strings.ToLower(cfg.Format) {
	case "", FormatTable, FormatCSV:
	default:
		return mcp342x.InvalidArgument("format", cfg.Format, "must be table or csv")
	}

	return nil
}

// Partial converts the overrides into the driver's sentinel form.
func (o OverrideConfig) Partial() (mcp342x.Partial, error) {
	p := mcp342x.NoOverrides()

	if o.Channel != 0 {
		p.Channel = o.Channel
	}

	if o.Mode != "" {
		m, err := ParseMode(o.Mode)
		if err != nil {
			return p, err
		}
		p.Mode = m
	}

	if o.Resolution != 0 {
		r, ok := mcp342x.ResolutionFromBits(o.Resolution)
		if !ok {
			return p, mcp342x.InvalidArgument("resolution", o.Resolution, "must be 12, 14, 16 or 18 bits")
		}
		p.Resolution = r
	}

	if o.Gain != 0 {
		g, ok := mcp342x.GainFromMultiplier(o.Gain)
		if !ok {
			return p, mcp342x.InvalidArgument("gain", o.Gain, "must be 1, 2, 4 or 8")
		}
		p.Gain = g
	}

	return p, p.Validate()
}

// ParseMode accepts "one-shot" (or "oneshot", "single") and "continuous" (or "cont"), case-insensitively.
func ParseMode(s string) (mcp342x.Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "one-shot", "oneshot", "one_shot", "single":
		return mcp342x.OneShot, nil
	case "continuous", "cont":
		return mcp342x.Continuous, nil
	default:
		return mcp342x.ModeUnset, mcp342x.InvalidArgument("mode", s, "must be one-shot or continuous")
	}
}

func parseSpeed(s string) (physic.Frequency, error) {
	var f physic.Frequency
	if err := f.Set(s); err != nil {
		return 0, err
	}
	if f <= 0 {
		return 0, fmt.Errorf("must be positive")
	}
	return f, nil
}
