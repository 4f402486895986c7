package ft232h

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/yunginnanet/ft232h"
)

// ErrBadDescriptor is returned for a descriptor that cannot match any device.
var ErrBadDescriptor = errors.New("invalid FT232H descriptor provided")

// Descriptor represents a descriptor for the FT232H device. It is used to uniquely identify the device for connection.
type Descriptor struct {
	Index  int
	Serial string
	mask   *ft232h.Mask
}

// Validate checks if [Descriptor] is valid.
func (ftd Descriptor) Validate() error {
	if ftd.Index < 0 && ftd.Serial == "" && emptyMask(ftd.mask) {
		return ErrBadDescriptor
	}
	return nil
}

// Mask returns a pointer to the [ft232h.Mask] representation of the [Descriptor].
// The descriptor's own mask is never modified.
func (ftd Descriptor) Mask() *ft232h.Mask {
	mask := new(ft232h.Mask)
	if ftd.mask != nil {
		*mask = *ftd.mask
	}
	if ftd.Serial != "" {
		mask.Serial = ftd.Serial
	}
	if ftd.Index >= 0 {
		mask.Index = strconv.Itoa(ftd.Index)
	}
	return mask
}

// String returns a string representation of the [Descriptor].
func (ftd Descriptor) String() string {
	if ftd.mask == nil {
		return fmt.Sprintf("Descriptor{Index:%d, Serial:%s}", ftd.Index, ftd.Serial)
	}
	return fmt.Sprintf("Descriptor{Index:%d, Serial:%s, Mask:%+v}", ftd.Index, ftd.Serial, *ftd.mask)
}

// ByIndex returns a [Descriptor] with the specified index.
func ByIndex(index int) Descriptor {
	return Descriptor{Index: index}
}

// BySerial returns a [Descriptor] with the specified serial number.
func BySerial(serial string) Descriptor {
	return Descriptor{Serial: serial, Index: -1}
}

// ByMask returns a [Descriptor] with the specified mask.
func ByMask(mask *ft232h.Mask) Descriptor {
	return Descriptor{mask: mask, Index: -1}
}

// ParseDescriptor parses the part of a bus name after "ft232h:": an index ("0") or "serial=XYZ".
// An empty string selects the first device.
func ParseDescriptor(s string) (Descriptor, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return ByIndex(0), nil
	}
	if serial, ok := strings.CutPrefix(s, "serial="); ok {
		desc := BySerial(serial)
		return desc, desc.Validate()
	}
	idx, err := strconv.Atoi(s)
	if err != nil {
		return Descriptor{}, fmt.Errorf("%w: %q", ErrBadDescriptor, s)
	}
	desc := ByIndex(idx)
	return desc, desc.Validate()
}
