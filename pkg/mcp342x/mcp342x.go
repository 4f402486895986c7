package mcp342x

import (
	"fmt"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/rs/zerolog"
	"periph.io/x/conn/v3/i2c"
)

// DefaultSettleDelay is the minimum wait after a channel switch. The wait is stretched to one
// conversion period at the configured resolution when that is longer.
const DefaultSettleDelay = 20 * time.Millisecond

// MCP342x is a session with one MCP3422/3/4/6/7/8 on an I2C bus.
//
// A session is not safe for use by more than one caller at a time: the device has a single
// conversion register and interleaved writes corrupt the conversion in flight. The mutex only
// keeps a configure/settle/read sequence from being split.
type MCP342x struct {
	mu sync.Mutex

	addr uint16
	dev  Transport

	// general call transport, bound to address 0x00
	gc Transport

	cfg    Configuration // last configuration written or read back
	hasCfg bool

	settle time.Duration
	clock  clock.Clock
	log    zerolog.Logger
}

// Option configures a session.
type Option func(*MCP342x)

// WithSettleDelay sets the minimum wait applied after a channel switch.
func WithSettleDelay(d time.Duration) Option {
	return func(adc *MCP342x) {
		adc.settle = d
	}
}

// WithClock replaces the clock used for delays and timestamps.
func WithClock(c clock.Clock) Option {
	return func(adc *MCP342x) {
		adc.clock = c
	}
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l zerolog.Logger) Option {
	return func(adc *MCP342x) {
		adc.log = l
	}
}

// WithTransport replaces the device transport, e.g. to wrap it. The general call
// transport stays bound to the bus.
func WithTransport(t Transport) Option {
	return func(adc *MCP342x) {
		adc.dev = t
	}
}

// NewMCP342x constructs a session for the device at addr. No bus I/O is performed.
func NewMCP342x(bus i2c.Bus, addr uint16, opts ...Option) *MCP342x {
	adc := &MCP342x{
		addr:   addr,
		dev:    NewTransport(bus, addr),
		gc:     NewTransport(bus, GeneralCallAddress),
		settle: DefaultSettleDelay,
		clock:  clock.New(),
		log:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(adc)
	}
	adc.log = adc.log.With().Str("caller", "mcp342x").
		Str("addr", fmt.Sprintf("0x%02X", addr)).Logger()
	return adc
}

// Open reads the current configuration, applies overrides, writes it back and reads it again to
// confirm. With no overrides it only reads.
func Open(bus i2c.Bus, addr uint16, overrides Partial, opts ...Option) (*MCP342x, error) {
	if err := overrides.Validate(); err != nil {
		return nil, err
	}

	adc := NewMCP342x(bus, addr, opts...)

	cfg, err := adc.ReadConfiguration()
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration: %w", err)
	}

	adc.log.Debug().Stringer("config", cfg).Msg("read configuration")

	if overrides.IsEmpty() {
		return adc, nil
	}

	want := Merge(cfg, overrides)
	if err = adc.Configure(want); err != nil {
		return nil, err
	}

	got, err := adc.ReadConfiguration()
	if err != nil {
		return nil, fmt.Errorf("failed to read back configuration: %w", err)
	}

	// RDY reflects conversion state rather than what was written.
	got.Ready, want.Ready = false, false
	if got != want {
		return nil, fmt.Errorf("%w: wrote %s, read %s", ErrConfigMismatch, want, got)
	}

	return adc, nil
}

// Address returns the device address of the session.
func (adc *MCP342x) Address() uint16 {
	return adc.addr
}

// Config returns the last configuration written to or read from the device.
func (adc *MCP342x) Config() (Configuration, bool) {
	adc.mu.Lock()
	defer adc.mu.Unlock()
	return adc.cfg, adc.hasCfg
}

// SettleDelay returns the delay applied after a channel switch.
func (adc *MCP342x) SettleDelay() time.Duration {
	return adc.settle
}

func (adc *MCP342x) frameLen() int {
	if !adc.hasCfg {
		return MaxFrameLen
	}
	return FrameLen(adc.cfg.Resolution)
}

// readFrame reads and decodes one frame.
func (adc *MCP342x) readFrame() (Configuration, RawSample, error) {
	frame, err := adc.read(adc.frameLen())
	if err != nil {
		return Configuration{}, 0, err
	}

	adc.log.Trace().Msgf("frame: %08b", frame)

	cfg, raw, err := DecodeFrame(frame)
	if err != nil {
		return Configuration{}, 0, err
	}

	adc.cfg, adc.hasCfg = cfg, true
	return cfg, raw, nil
}

// ReadConfiguration reads a frame and returns only its configuration.
func (adc *MCP342x) ReadConfiguration() (Configuration, error) {
	adc.mu.Lock()
	defer adc.mu.Unlock()
	cfg, _, err := adc.readFrame()
	return cfg, err
}

// ReadOnce reads whatever conversion is currently latched. Nothing is written.
func (adc *MCP342x) ReadOnce() (Reading, error) {
	adc.mu.Lock()
	defer adc.mu.Unlock()
	return adc.readOnce()
}

func (adc *MCP342x) readOnce() (Reading, error) {
	cfg, raw, err := adc.readFrame()
	if err != nil {
		return Reading{}, err
	}
	return newReading(cfg, raw), nil
}

// Configure encodes and writes cfg.
func (adc *MCP342x) Configure(cfg Configuration) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	adc.mu.Lock()
	defer adc.mu.Unlock()
	return adc.configure(cfg)
}

func (adc *MCP342x) configure(cfg Configuration) error {
	b := cfg.Encode()
	adc.log.Debug().Msgf("writing config: %08b", b)
	if err := adc.write([]byte{b}); err != nil {
		return err
	}
	adc.cfg, adc.hasCfg = cfg, true
	return nil
}

// ConfigureAndRead selects channel, keeping every other field of the current configuration,
// waits for a fresh conversion if the channel changed or the device is in one-shot mode, then reads.
func (adc *MCP342x) ConfigureAndRead(channel int) (Reading, error) {
	if channel < 1 || channel > NumChannels {
		return Reading{}, InvalidArgument("channel", channel, fmt.Sprintf("must be between 1 and %d", NumChannels))
	}

	adc.mu.Lock()
	defer adc.mu.Unlock()

	base := adc.cfg
	if !adc.hasCfg {
		cfg, _, err := adc.readFrame()
		if err != nil {
			return Reading{}, err
		}
		base = cfg
	}

	return adc.configureAndRead(base, channel)
}

func (adc *MCP342x) configureAndRead(base Configuration, channel int) (Reading, error) {
	next := base
	next.Channel = channel
	// in one-shot mode a set RDY bit starts the conversion.
	next.Ready = base.Mode == OneShot

	if err := adc.configure(next); err != nil {
		return Reading{}, err
	}

	if wait := adc.conversionWait(base, next); wait > 0 {
		adc.log.Trace().Dur("wait", wait).Int("channel", channel).Msg("waiting for conversion")
		adc.clock.Sleep(wait)
	}

	return adc.readOnce()
}

// conversionWait is how long to wait after writing next over prev before the latched
// result belongs to next. A channel switch waits for the settle delay but never less than
// one conversion at next's resolution. A one-shot start on the same channel waits one conversion.
func (adc *MCP342x) conversionWait(prev, next Configuration) time.Duration {
	conv := next.Resolution.ConversionTime()
	switch {
	case prev.Channel != next.Channel:
		return max(adc.settle, conv)
	case next.Mode == OneShot:
		return conv
	default:
		return 0
	}
}

// Reset broadcasts the general call reset. No response is read.
func (adc *MCP342x) Reset() error {
	adc.mu.Lock()
	defer adc.mu.Unlock()

	if err := adc.gc.Write([]byte{CMDGeneralCallReset}); err != nil {
		return &TransportError{Op: "reset", Addr: GeneralCallAddress, Err: err}
	}

	adc.cfg, adc.hasCfg = Configuration{}, false
	adc.log.Debug().Msg("general call reset sent")
	return nil
}
