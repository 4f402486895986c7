// internal/config/normalize.go
package config

import (
	"strings"
	"time"

	"periph.io/x/conn/v3/physic"

	"github.com/yunginnanet/ftdi-mcp342x/pkg/i2cbus"
	"github.com/yunginnanet/ftdi-mcp342x/pkg/mcp342x"
)

// Normalize fills in defaults.
// It is allowed to mutate configuration.
// It MUST be called only after Validate().
func Normalize(cfg *Config) {
	if cfg == nil {
		return
	}

	cfg.Bus = strings.TrimSpace(cfg.Bus)
	if cfg.Bus == "" {
		cfg.Bus = i2cbus.DefaultBus
	}

	if cfg.Address == nil {
		addr := mcp342x.DefaultAddress
		cfg.Address = &addr
	}

	// scan the channel being configured, or the first one
	if len(cfg.Channels) == 0 {
		ch := cfg.Set.Channel
		if ch == 0 {
			ch = 1
		}
		cfg.Channels = []int{ch}
	}

	if cfg.Settle == nil {
		d := mcp342x.DefaultSettleDelay
		cfg.Settle = &d
	}

	cfg.Format = strings.ToLower(cfg.Format)
	if cfg.Format == "" {
		cfg.Format = FormatTable
	}
}

// ScanOptions returns the continuous read options. Call after Normalize.
func (cfg *Config) ScanOptions() mcp342x.ScanOptions {
	return mcp342x.ScanOptions{
		Channels:   cfg.Channels,
		Interval:   cfg.Interval,
		MaxSamples: cfg.Samples,
	}
}

// DeviceAddress returns the 7-bit device address. Call after Normalize.
func (cfg *Config) DeviceAddress() uint16 {
	if cfg.Address == nil {
		return mcp342x.DefaultAddress
	}
	return *cfg.Address
}

// SettleDelay returns the configured delay after a channel switch. Call after Normalize.
func (cfg *Config) SettleDelay() time.Duration {
	if cfg.Settle == nil {
		return mcp342x.DefaultSettleDelay
	}
	return *cfg.Settle
}

// BusSpeed returns the requested bus frequency, or 0 to keep the bus default. Call after Validate.
func (cfg *Config) BusSpeed() physic.Frequency {
	if cfg.Speed == "" {
		return 0
	}
	f, _ := parseSpeed(cfg.Speed)
	return f
}
