package ft232h

import (
	"errors"
	"fmt"

	"github.com/yunginnanet/ft232h"
	"periph.io/x/conn/v3/physic"
)

// DeviceInfo represents a snapshot of the device information for the [FT232H] device.
type DeviceInfo struct {
	Index       int
	Serial      string
	Description string
	ProductID   string
	VendorID    string
	IsOpen      bool
	IsHighSpeed bool
}

// String returns a string representation of the device information.
func (ft DeviceInfo) String() string {
	return fmt.Sprintf(
		"DeviceInfo{Index:%d, Serial:%s, Description:%s, ProductID:%s, VendorID:%s, IsOpen:%t, IsHighSpeed:%t}",
		ft.Index, ft.Serial, ft.Description, ft.ProductID, ft.VendorID, ft.IsOpen, ft.IsHighSpeed,
	)
}

// FT232H represents an FT232H device used as a USB to I2C bridge.
type FT232H struct {
	*ft232h.FT232H
	bus *Bus
}

// Info returns a snapshot of the device information for the FT232H device. Read-only.
func (ft *FT232H) Info() DeviceInfo {
	return DeviceInfo{
		Index:       ft.Index(),
		Serial:      ft.Serial(),
		Description: ft.Desc(),
		ProductID:   hex16(ft.PID()),
		VendorID:    hex16(ft.VID()),
		IsOpen:      ft.IsOpen(),
		IsHighSpeed: ft.IsHiSpeed(),
	}
}

// String returns a string representation of the FT232H device. It includes the vendor ID, product ID, and description.
func (ft *FT232H) String() string {
	info := ft.Info()
	return fmt.Sprintf("FT232H[%s:%s]: %s", info.VendorID, info.ProductID, info.Description)
}

// OpenI2C initializes the MPSSE I2C master and returns it as a bus. speed is applied when positive,
// otherwise the bridge runs at 100kHz. The bus is initialized once and shared by later calls.
func (ft *FT232H) OpenI2C(speed physic.Frequency) (*Bus, error) {
	if ft.bus != nil {
		return ft.bus, nil
	}
	bus := newBus(ft.FT232H.I2C, ft.String())
	if err := bus.init(speed); err != nil {
		return nil, err
	}
	ft.bus = bus
	return bus, nil
}

// Close closes the I2C engine, if initialized, and the connection to the device.
func (ft *FT232H) Close() error {
	ft.bus = nil
	if err := ft.FT232H.Close(); err != nil {
		return fmt.Errorf("failed to close FT232H: %w", err)
	}
	return nil
}

// ConnectFT232h connects to the first FT232H, or to the one selected by a single descriptor.
//
// With no descriptor the first device is opened by index; [ft232h.New] is not used because it
// parses the process arguments as its own flags.
func ConnectFT232h(choice ...Descriptor) (*FT232H, error) {
	desc := ByIndex(0)

	switch len(choice) {
	case 0:
	case 1:
		if err := choice[0].Validate(); err != nil {
			return nil, err
		}
		desc = choice[0]
	default:
		return nil, errors.New("invalid number of arguments")
	}

	dev, err := ft232h.OpenMask(desc.Mask())
	if err != nil {
		return nil, fmt.Errorf("failed to open FT232H %s: %w", desc, err)
	}

	return &FT232H{FT232H: dev}, nil
}
