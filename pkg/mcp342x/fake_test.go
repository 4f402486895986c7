package mcp342x

import (
	"errors"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/l0nax/go-spew/spew"
	"periph.io/x/conn/v3/physic"
)

var pprint = spew.ConfigState{
	Indent:                  "\t",
	MaxDepth:                0,
	DisableMethods:          false,
	DisablePointerMethods:   false,
	DisablePointerAddresses: true,
	DisableCapacities:       true,
	ContinueOnMethod:        true,
	SortKeys:                true,
	SpewKeys:                true,
	HighlightValues:         true,
	HighlightHex:            true,
}

var errBusFault = errors.New("bus fault")

// fakeADC simulates an MCP3424 behind an i2c.Bus. Each channel returns a fixed output code.
type fakeADC struct {
	mu sync.Mutex

	addr  uint16
	cfg   byte
	codes [NumChannels]uint32

	resets int

	failRead  bool
	failWrite bool
	// failOnChannel makes reads fail while that channel is selected. 0 disables it.
	failOnChannel int
}

func newFakeADC(addr uint16) *fakeADC {
	return &fakeADC{addr: addr, cfg: DefaultConfig().Encode()}
}

func (f *fakeADC) String() string { return "fakeADC" }

func (f *fakeADC) SetSpeed(physic.Frequency) error { return nil }

func (f *fakeADC) Tx(addr uint16, w, r []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if addr == GeneralCallAddress {
		if len(w) == 1 && w[0] == CMDGeneralCallReset {
			f.resets++
			f.cfg = DefaultConfig().Encode()
		}
		return nil
	}
	if addr != f.addr {
		return errors.New("nack")
	}

	if len(w) > 0 {
		if f.failWrite {
			return errBusFault
		}
		// the device clears RDY once the (instant) conversion is latched.
		f.cfg = w[0] &^ ConfigRDYbit
	}
	if len(r) > 0 {
		cfg := DecodeConfig(f.cfg)
		if f.failRead || cfg.Channel == f.failOnChannel {
			return errBusFault
		}
		copy(r, f.frame(len(r)))
	}
	return nil
}

func (f *fakeADC) frame(n int) []byte {
	cfg := DecodeConfig(f.cfg)
	code := f.codes[cfg.Channel-1]

	var out []byte
	if cfg.Resolution == Bits18 {
		out = []byte{byte(code >> 16), byte(code >> 8), byte(code)}
	} else {
		out = []byte{byte(code >> 8), byte(code)}
	}
	if n <= FrameLenShort {
		return append(out, f.cfg)[:n]
	}
	for len(out) < n-1 {
		out = append(out, f.cfg)
	}
	return append(out, f.cfg|markerbit)
}

// recordingClock records sleeps and timer waits and advances mock time by them without blocking.
// With hold set, After never fires so only a done context ends the wait.
type recordingClock struct {
	*clock.Mock
	mu     sync.Mutex
	sleeps []time.Duration
	hold   bool
}

func newRecordingClock() *recordingClock {
	return &recordingClock{Mock: clock.NewMock()}
}

func (c *recordingClock) Sleep(d time.Duration) {
	c.mu.Lock()
	c.sleeps = append(c.sleeps, d)
	c.mu.Unlock()
	c.Mock.Add(d)
}

func (c *recordingClock) After(d time.Duration) <-chan time.Time {
	c.mu.Lock()
	c.sleeps = append(c.sleeps, d)
	hold := c.hold
	c.mu.Unlock()
	if hold {
		return make(chan time.Time)
	}
	c.Mock.Add(d)
	ch := make(chan time.Time, 1)
	ch <- c.Mock.Now()
	return ch
}

func (c *recordingClock) Sleeps() []time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]time.Duration(nil), c.sleeps...)
}
