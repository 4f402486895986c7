package ft232h

import (
	"fmt"

	"github.com/yunginnanet/ft232h"
)

func hex16(v uint32) string {
	return fmt.Sprintf("%04x", v&0xFFFF)
}

func emptyMask(mask *ft232h.Mask) bool {
	return mask == nil || (mask.Serial == "" && mask.PID == "" && mask.VID == "" && mask.Desc == "" && mask.Index == "")
}
