// internal/config/config.go
package config

import "time"

type Config struct {
	Bus      string         `yaml:"bus"`
	Speed    string         `yaml:"speed"` // e.g. "100kHz", empty keeps the bus default
	Address  *uint16        `yaml:"address"` // nil = 0x68
	Channels []int          `yaml:"channels"`
	Samples  int            `yaml:"samples"` // 0 = until interrupted
	Interval time.Duration  `yaml:"interval"`
	Settle   *time.Duration `yaml:"settle"` // 0 = one conversion period
	Set      OverrideConfig `yaml:"set"`
	Format   string         `yaml:"format"`
}

// ---- OVERRIDES ----

// OverrideConfig holds the configuration fields to write to the device.
// Zero values mean "leave as read back".
type OverrideConfig struct {
	Channel    int    `yaml:"channel"`
	Mode       string `yaml:"mode"`       // one-shot | continuous
	Resolution int    `yaml:"resolution"` // 12 | 14 | 16 | 18
	Gain       int    `yaml:"gain"`       // 1 | 2 | 4 | 8
}

// ---- OUTPUT ----

const (
	FormatTable = "table"
	FormatCSV   = "csv"
)
