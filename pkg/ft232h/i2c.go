package ft232h

import (
	"errors"
	"fmt"
	"sync"

	"github.com/yunginnanet/ft232h"
	"periph.io/x/conn/v3/physic"
)

// ErrAddressRange is returned by [Bus.Tx] for addresses the MPSSE I2C master cannot drive,
// including the general call address.
var ErrAddressRange = errors.New("address outside 0x08-0x77")

// i2cEngine is the part of [ft232h.I2C] the bus needs.
type i2cEngine interface {
	Read(slave uint, count uint, start bool, stop bool) ([]uint8, error)
	Write(slave uint, data []uint8, start bool, stop bool) (uint, error)
	Config(cfg *ft232h.I2CConfig) error
}

// Bus adapts the bridge's MPSSE I2C master to periph's i2c.Bus.
//
// Addresses outside 0x08-0x77 are refused with [ErrAddressRange].
type Bus struct {
	mu   sync.Mutex
	eng  i2cEngine
	cfg  *ft232h.I2CConfig
	name string
}

func newBus(eng i2cEngine, name string) *Bus {
	cfg := ft232h.I2CConfigDefault()
	cfg.Clock = ft232h.I2CClockStandardMode
	// start/stop framing per transfer needs USB delays and a NACK on the last byte read
	cfg.I2COption = &ft232h.I2COption{LastReadNACK: true}
	return &Bus{eng: eng, cfg: cfg, name: name}
}

func clockRate(f physic.Frequency) (ft232h.I2CClockRate, error) {
	hz := int64(f / physic.Hertz)
	if hz <= 0 || hz > int64(ft232h.I2CClockMaximum) {
		return 0, fmt.Errorf("ft232h: unsupported I2C clock %s", f)
	}
	return ft232h.I2CClockRate(hz), nil
}

func (b *Bus) init(speed physic.Frequency) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if speed > 0 {
		rate, err := clockRate(speed)
		if err != nil {
			return err
		}
		b.cfg.Clock = rate
	}
	if err := b.eng.Config(b.cfg); err != nil {
		return fmt.Errorf("ft232h: failed to initialize I2C: %w", err)
	}
	return nil
}

// String implements i2c.Bus.
func (b *Bus) String() string {
	return fmt.Sprintf("%s I2C", b.name)
}

// SetSpeed reinitializes the I2C master at f.
func (b *Bus) SetSpeed(f physic.Frequency) error {
	if f <= 0 {
		return fmt.Errorf("ft232h: unsupported I2C clock %s", f)
	}
	return b.init(f)
}

// Tx writes w then reads r. A combined transfer uses a repeated start between the two.
func (b *Bus) Tx(addr uint16, w, r []byte) error {
	if addr < ft232h.I2CSlaveAddressMin || addr > ft232h.I2CSlaveAddressMax {
		return fmt.Errorf("ft232h: %w: 0x%02X", ErrAddressRange, addr)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if len(w) > 0 {
		n, err := b.eng.Write(uint(addr), w, true, len(r) == 0)
		if err != nil {
			return fmt.Errorf("ft232h: write to 0x%02X: %w", addr, err)
		}
		if int(n) != len(w) {
			return fmt.Errorf("ft232h: short write to 0x%02X: %d of %d bytes", addr, n, len(w))
		}
	}

	if len(r) > 0 {
		data, err := b.eng.Read(uint(addr), uint(len(r)), true, true)
		if err != nil {
			return fmt.Errorf("ft232h: read from 0x%02X: %w", addr, err)
		}
		if len(data) != len(r) {
			return fmt.Errorf("ft232h: short read from 0x%02X: %d of %d bytes", addr, len(data), len(r))
		}
		copy(r, data)
	}

	return nil
}
