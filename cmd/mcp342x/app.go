package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"

	"github.com/yunginnanet/ftdi-mcp342x/internal/config"
	"github.com/yunginnanet/ftdi-mcp342x/pkg/mcp342x"
)

const (
	flagConfig     = "config"
	flagBus        = "bus"
	flagSpeed      = "speed"
	flagAddress    = "address"
	flagChannel    = "channel"
	flagSamples    = "samples"
	flagInterval   = "interval"
	flagSettle     = "settle"
	flagMode       = "mode"
	flagResolution = "resolution"
	flagGain       = "gain"
	flagFormat     = "format"
	flagVerbose    = "verbose"
	flagTrace      = "trace"
)

func newApp(out io.Writer) *cli.App {
	return &cli.App{
		Name:            "mcp342x",
		Usage:           "configure and read MCP3422/3/4 delta-sigma ADCs over I2C",
		HideHelpCommand: true,
		Writer:          out,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    flagConfig,
				EnvVars: []string{"MCP342X_CONFIG"},
				Usage:   "load options from YAML `FILE`; flags override it",
			},
			&cli.StringFlag{
				Name:    flagBus,
				Aliases: []string{"b"},
				Usage:   "I2C bus: /dev/i2c-N, I2CN, ft232h[:N] or ft232h:serial=XYZ (default /dev/i2c-1)",
			},
			&cli.StringFlag{
				Name:  flagSpeed,
				Usage: "bus clock, e.g. 100kHz",
			},
			&cli.StringFlag{
				Name:    flagAddress,
				Aliases: []string{"a"},
				Usage:   "7-bit device address (default 0x68)",
			},
			&cli.IntSliceFlag{
				Name:    flagChannel,
				Aliases: []string{"c"},
				Usage:   "channel to scan, repeatable, in scan order",
			},
			&cli.IntFlag{
				Name:    flagSamples,
				Aliases: []string{"n"},
				Usage:   "rows to scan, 0 scans until interrupted",
			},
			&cli.DurationFlag{
				Name:    flagInterval,
				Aliases: []string{"i"},
				Usage:   "delay between scan rows",
			},
			&cli.DurationFlag{
				Name:  flagSettle,
				Usage: "delay after a channel switch, 0 waits one conversion (default 20ms)",
			},
			&cli.StringFlag{
				Name:  flagMode,
				Usage: "write conversion mode: one-shot or continuous",
			},
			&cli.IntFlag{
				Name:    flagResolution,
				Aliases: []string{"r"},
				Usage:   "write resolution in bits: 12, 14, 16 or 18",
			},
			&cli.IntFlag{
				Name:    flagGain,
				Aliases: []string{"g"},
				Usage:   "write PGA gain: 1, 2, 4 or 8",
			},
			&cli.StringFlag{
				Name:    flagFormat,
				Aliases: []string{"f"},
				Usage:   "output format: table or csv",
			},
			&cli.BoolFlag{
				Name:    flagVerbose,
				Aliases: []string{"v"},
				Usage:   "enable debug logging",
			},
			&cli.BoolFlag{
				Name:  flagTrace,
				Usage: "enable trace logging, including raw frames",
			},
		},
		Before: func(c *cli.Context) error {
			switch {
			case c.Bool(flagTrace):
				log = log.Level(zerolog.TraceLevel)
			case c.Bool(flagVerbose):
				log = log.Level(zerolog.DebugLevel)
			}
			return nil
		},
		Action: ReadAction,
		Commands: []*cli.Command{
			{
				Name:   "read",
				Usage:  "apply overrides, then read and print one conversion (default)",
				Action: ReadAction,
			},
			{
				Name:   "scan",
				Usage:  "round-robin the channels and print one row per interval",
				Action: ScanAction,
			},
			{
				Name:   "info",
				Usage:  "apply overrides, then print the decoded configuration register",
				Action: InfoAction,
			},
			{
				Name:   "reset",
				Usage:  "send an I2C general call reset (resets every device on the bus)",
				Action: ResetAction,
			},
			{
				Name:   "buses",
				Usage:  "list the I2C buses and FT232H bridges this host can open",
				Action: BusesAction,
			},
		},
	}
}

func parseAddress(s string) (uint16, error) {
	v, err := strconv.ParseUint(s, 0, 16)
	if err != nil {
		return 0, mcp342x.InvalidArgument(flagAddress, s, "not a number")
	}
	return uint16(v), nil
}

// loadConfig layers the set flags over the optional config file, then validates and normalizes.
// Nothing here touches the bus.
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg := &config.Config{}
	if path := c.String(flagConfig); path != "" {
		var err error
		if cfg, err = config.Load(path); err != nil {
			return nil, fmt.Errorf("config %s: %w", path, err)
		}
	}

	if c.IsSet(flagBus) {
		cfg.Bus = c.String(flagBus)
	}
	if c.IsSet(flagSpeed) {
		cfg.Speed = c.String(flagSpeed)
	}
	if c.IsSet(flagAddress) {
		addr, err := parseAddress(c.String(flagAddress))
		if err != nil {
			return nil, err
		}
		cfg.Address = &addr
	}
	if c.IsSet(flagChannel) {
		cfg.Channels = c.IntSlice(flagChannel)
	}
	if c.IsSet(flagSamples) {
		cfg.Samples = c.Int(flagSamples)
	}
	if c.IsSet(flagInterval) {
		cfg.Interval = c.Duration(flagInterval)
	}
	if c.IsSet(flagSettle) {
		d := c.Duration(flagSettle)
		cfg.Settle = &d
	}
	if c.IsSet(flagMode) {
		cfg.Set.Mode = c.String(flagMode)
	}
	if c.IsSet(flagResolution) {
		cfg.Set.Resolution = c.Int(flagResolution)
	}
	if c.IsSet(flagGain) {
		cfg.Set.Gain = c.Int(flagGain)
	}
	if c.IsSet(flagFormat) {
		cfg.Format = c.String(flagFormat)
	}

	// a single --channel also selects it in the register
	if len(cfg.Channels) == 1 && cfg.Set.Channel == 0 {
		cfg.Set.Channel = cfg.Channels[0]
	}

	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	config.Normalize(cfg)

	log.Debug().Any("config", cfg).Msg("options loaded")

	return cfg, nil
}
