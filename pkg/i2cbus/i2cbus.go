// Package i2cbus resolves a bus name to an open I2C bus, either a host bus
// registered with periph (e.g. /dev/i2c-1) or an FT232H USB bridge.
package i2cbus

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/host/v3"

	"github.com/yunginnanet/ftdi-mcp342x/pkg/ft232h"
)

// DefaultBus is the host bus used when no name is given.
const DefaultBus = "/dev/i2c-1"

const ft232hPrefix = "ft232h"

// Kind is the backing driver for a bus.
type Kind uint8

const (
	Host Kind = iota
	FT232H
)

func (k Kind) String() string {
	if k == FT232H {
		return "ft232h"
	}
	return "host"
}

// Target is a parsed bus name.
type Target struct {
	Kind Kind
	// Name is the periph registry name for host buses.
	Name string
	// Device selects the bridge for FT232H buses.
	Device ft232h.Descriptor
}

func (t Target) String() string {
	if t.Kind == FT232H {
		return fmt.Sprintf("%s(%s)", t.Kind, t.Device)
	}
	return t.Name
}

// Parse splits a bus name into a [Target]. Recognized forms are any name known to
// the periph I2C registry ("/dev/i2c-1", "I2C1", "1"), "ft232h", "ft232h:N" and
// "ft232h:serial=XYZ".
func Parse(name string) (Target, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Target{Kind: Host, Name: DefaultBus}, nil
	}

	rest, ok := strings.CutPrefix(strings.ToLower(name), ft232hPrefix)
	if !ok || (rest != "" && rest[0] != ':') {
		return Target{Kind: Host, Name: name}, nil
	}

	// keep the serial's original case
	desc, err := ft232h.ParseDescriptor(strings.TrimPrefix(name[len(ft232hPrefix):], ":"))
	if err != nil {
		return Target{}, fmt.Errorf("bad bus name %q: %w", name, err)
	}
	return Target{Kind: FT232H, Device: desc}, nil
}

type bridgeBus struct {
	i2c.Bus
	ft   *ft232h.FT232H
	once sync.Once
	err  error
}

func (b *bridgeBus) Close() error {
	b.once.Do(func() { b.err = b.ft.Close() })
	return b.err
}

func (b *bridgeBus) String() string {
	return fmt.Sprintf("%s via %s", b.Bus, b.ft)
}

// Open resolves name with [Parse] and opens the bus. speed is applied when positive.
func Open(name string, speed physic.Frequency) (i2c.BusCloser, error) {
	target, err := Parse(name)
	if err != nil {
		return nil, err
	}
	return OpenTarget(target, speed)
}

// OpenTarget opens an already parsed bus.
func OpenTarget(target Target, speed physic.Frequency) (i2c.BusCloser, error) {
	if target.Kind == FT232H {
		ft, err := ft232h.ConnectFT232h(target.Device)
		if err != nil {
			return nil, err
		}
		bus, err := ft.OpenI2C(speed)
		if err != nil {
			return nil, errors.Join(err, ft.Close())
		}
		return &bridgeBus{Bus: bus, ft: ft}, nil
	}

	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize periph host drivers: %w", err)
	}
	bus, err := i2creg.Open(target.Name)
	if err != nil {
		return nil, fmt.Errorf("failed to open I2C bus %q: %w", target.Name, err)
	}
	if speed > 0 {
		if err = bus.SetSpeed(speed); err != nil {
			return nil, errors.Join(fmt.Errorf("failed to set I2C speed %s: %w", speed, err), bus.Close())
		}
	}
	return bus, nil
}

// BusInfo describes one bus available on this host.
type BusInfo struct {
	Name    string
	Aliases []string
	Number  int
}

// List returns the host buses known to periph. FT232H bridges are not enumerated;
// address them as "ft232h:N" or "ft232h:serial=XYZ".
func List() ([]BusInfo, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize periph host drivers: %w", err)
	}
	var out []BusInfo
	for _, ref := range i2creg.All() {
		out = append(out, BusInfo{Name: ref.Name, Aliases: ref.Aliases, Number: ref.Number})
	}
	return out, nil
}
