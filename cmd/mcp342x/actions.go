package main

import (
	"errors"

	"github.com/urfave/cli/v2"
	"periph.io/x/conn/v3/i2c"

	"github.com/yunginnanet/ftdi-mcp342x/internal/config"
	"github.com/yunginnanet/ftdi-mcp342x/internal/output"
	"github.com/yunginnanet/ftdi-mcp342x/pkg/i2cbus"
	"github.com/yunginnanet/ftdi-mcp342x/pkg/mcp342x"
)

func openBus(cfg *config.Config) (i2c.BusCloser, error) {
	bus, err := i2cbus.Open(cfg.Bus, cfg.BusSpeed())
	if err != nil {
		return nil, err
	}
	log.Debug().Str("bus", bus.String()).Msg("bus opened")
	return bus, nil
}

func closeBus(bus i2c.BusCloser) {
	if err := bus.Close(); err != nil {
		log.Warn().Err(err).Msg("failed to close bus")
	}
}

// openSession reads the device configuration and applies the overrides. With keepChannel
// the channel override is left for the caller, so the switch goes through the settle delay.
func openSession(bus i2c.Bus, cfg *config.Config, keepChannel bool) (*mcp342x.MCP342x, error) {
	overrides, err := cfg.Set.Partial()
	if err != nil {
		return nil, err
	}
	if keepChannel {
		overrides.Channel = mcp342x.ChannelUnset
	}

	adc, err := mcp342x.Open(bus, cfg.DeviceAddress(), overrides,
		mcp342x.WithSettleDelay(cfg.SettleDelay()),
		mcp342x.WithLogger(log.With().Str("bus", cfg.Bus).Logger()),
	)
	if err != nil {
		return nil, err
	}

	current, _ := adc.Config()
	log.Info().Stringer("config", current).Msgf("MCP342x at 0x%02X", cfg.DeviceAddress())

	return adc, nil
}

// ReadAction applies the overrides and prints one conversion.
func ReadAction(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	bus, err := openBus(cfg)
	if err != nil {
		return err
	}
	defer closeBus(bus)

	adc, err := openSession(bus, cfg, true)
	if err != nil {
		return err
	}

	var r mcp342x.Reading
	if cfg.Set.Channel != 0 {
		r, err = adc.ConfigureAndRead(cfg.Set.Channel)
	} else {
		r, err = adc.ReadOnce()
	}
	if err != nil {
		return err
	}

	output.WriteReading(c.App.Writer, cfg.Format, r)
	return nil
}

// ScanAction round-robins the configured channels until the sample count is reached or the
// process is interrupted.
func ScanAction(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	bus, err := openBus(cfg)
	if err != nil {
		return err
	}
	defer closeBus(bus)

	adc, err := openSession(bus, cfg, true)
	if err != nil {
		return err
	}

	opts := cfg.ScanOptions()
	log.Info().Ints("channels", opts.Channels).Dur("interval", opts.Interval).
		Int("samples", opts.MaxSamples).Msg("scanning")

	w := output.NewRowWriter(c.App.Writer, cfg.Format, opts.Channels)
	err = adc.Scan(c.Context, opts, func(row mcp342x.Row) error {
		return w.WriteRow(row)
	})

	if ferr := w.Flush(); ferr != nil {
		err = errors.Join(err, ferr)
	}
	if err == nil && c.Context.Err() != nil {
		log.Info().Msg("scan interrupted")
	}
	return err
}

// InfoAction applies the overrides and prints the resulting configuration register.
func InfoAction(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	bus, err := openBus(cfg)
	if err != nil {
		return err
	}
	defer closeBus(bus)

	adc, err := openSession(bus, cfg, false)
	if err != nil {
		return err
	}

	current, _ := adc.Config()
	output.WriteConfig(c.App.Writer, cfg.Format, current)
	return nil
}

// ResetAction sends a general call reset.
func ResetAction(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	bus, err := openBus(cfg)
	if err != nil {
		return err
	}
	defer closeBus(bus)

	adc := mcp342x.NewMCP342x(bus, cfg.DeviceAddress(), mcp342x.WithLogger(log))
	if err = adc.Reset(); err != nil {
		return err
	}

	log.Info().Str("bus", cfg.Bus).Msg("general call reset sent")
	return nil
}

// BusesAction lists the buses [i2cbus.Open] accepts on this host.
func BusesAction(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	buses, err := i2cbus.List()
	if err != nil {
		return err
	}

	output.WriteBuses(c.App.Writer, cfg.Format, buses)
	return nil
}
