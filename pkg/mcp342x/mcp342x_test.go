package mcp342x

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"periph.io/x/conn/v3/i2c/i2ctest"
)

func TestReadOnce(t *testing.T) {
	bus := &i2ctest.Playback{
		Ops: []i2ctest.IO{
			// first read: resolution unknown, full frame
			{Addr: DefaultAddress, R: []byte{0x00, 0x64, 0x10, 0x10, 0x90}},
			// 12-bit now known: three bytes
			{Addr: DefaultAddress, R: []byte{0xFF, 0x9C, 0x10}},
		},
		DontPanic: true,
	}
	adc := NewMCP342x(bus, DefaultAddress)

	r, err := adc.ReadOnce()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := Configuration{Channel: 1, Mode: Continuous, Resolution: Bits12, Gain: X1}
	if diff := cmp.Diff(want, r.Config); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
	if r.Raw != 100 || math.Abs(r.Value-0.1) > epsilon {
		t.Errorf("expected raw 100 / 0.1V, got %s", pprint.Sdump(r))
	}

	r, err = adc.ReadOnce()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Code != -100 || math.Abs(r.Value+0.1) > epsilon {
		t.Errorf("expected code -100 / -0.1V, got %s", pprint.Sdump(r))
	}

	if err = bus.Close(); err != nil {
		t.Error(err)
	}
}

func TestReadOnceErrors(t *testing.T) {
	t.Run("Transport", func(t *testing.T) {
		fake := newFakeADC(DefaultAddress)
		fake.failRead = true
		adc := NewMCP342x(fake, DefaultAddress)

		_, err := adc.ReadOnce()
		if !errors.Is(err, ErrTransport) || !errors.Is(err, errBusFault) {
			t.Fatalf("expected transport error wrapping the bus fault, got %v", err)
		}
		var tErr *TransportError
		if !errors.As(err, &tErr) || tErr.Op != "read" || tErr.Addr != DefaultAddress {
			t.Errorf("unexpected transport error: %s", pprint.Sdump(err))
		}
	})

	t.Run("NoMarker", func(t *testing.T) {
		bus := &i2ctest.Playback{
			Ops:       []i2ctest.IO{{Addr: DefaultAddress, R: []byte{0x00, 0x00, 0x00, 0x00, 0x00}}},
			DontPanic: true,
		}
		adc := NewMCP342x(bus, DefaultAddress)
		if _, err := adc.ReadOnce(); !errors.Is(err, ErrNoMarker) || !errors.Is(err, ErrFrameDecode) {
			t.Fatalf("expected ErrNoMarker, got %v", err)
		}
		if _, ok := adc.Config(); ok {
			t.Error("a bad frame must not update the session configuration")
		}
	})
}

func TestOpen(t *testing.T) {
	t.Run("NoOverridesOnlyReads", func(t *testing.T) {
		bus := &i2ctest.Playback{
			Ops:       []i2ctest.IO{{Addr: DefaultAddress, R: []byte{0x00, 0x00, 0x10, 0x10, 0x90}}},
			DontPanic: true,
		}
		adc, err := Open(bus, DefaultAddress, NoOverrides())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		cfg, ok := adc.Config()
		if !ok || cfg.Resolution != Bits12 {
			t.Errorf("unexpected config: %s", cfg)
		}
		if err = bus.Close(); err != nil {
			t.Error(err)
		}
	})

	t.Run("MergeWriteConfirm", func(t *testing.T) {
		bus := &i2ctest.Playback{
			Ops: []i2ctest.IO{
				{Addr: DefaultAddress, R: []byte{0x00, 0x00, 0x10, 0x10, 0x90}},
				// channel 1, continuous, 16-bit, x4
				{Addr: DefaultAddress, W: []byte{0x1A}},
				{Addr: DefaultAddress, R: []byte{0x12, 0x34, 0x1A}},
			},
			DontPanic: true,
		}
		p := NoOverrides()
		p.Resolution = Bits16
		p.Gain = X4

		adc, err := Open(bus, DefaultAddress, p)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		cfg, _ := adc.Config()
		want := Configuration{Channel: 1, Mode: Continuous, Resolution: Bits16, Gain: X4}
		if diff := cmp.Diff(want, cfg); diff != "" {
			t.Errorf("(-want +got):\n%s", diff)
		}
		if err = bus.Close(); err != nil {
			t.Error(err)
		}
	})

	t.Run("Mismatch", func(t *testing.T) {
		bus := &i2ctest.Playback{
			Ops: []i2ctest.IO{
				{Addr: DefaultAddress, R: []byte{0x00, 0x00, 0x10, 0x10, 0x90}},
				{Addr: DefaultAddress, W: []byte{0x1A}},
				{Addr: DefaultAddress, R: []byte{0x12, 0x34, 0x10}},
			},
			DontPanic: true,
		}
		p := NoOverrides()
		p.Resolution = Bits16
		p.Gain = X4
		if _, err := Open(bus, DefaultAddress, p); !errors.Is(err, ErrConfigMismatch) {
			t.Fatalf("expected ErrConfigMismatch, got %v", err)
		}
	})

	t.Run("InvalidOverrideBeforeIO", func(t *testing.T) {
		rec := &i2ctest.Record{}
		p := NoOverrides()
		p.Channel = 5
		if _, err := Open(rec, DefaultAddress, p); !errors.Is(err, ErrInvalidArgument) {
			t.Fatalf("expected ErrInvalidArgument, got %v", err)
		}
		if len(rec.Ops) != 0 {
			t.Errorf("expected no bus I/O, got %s", pprint.Sdump(rec.Ops))
		}
	})
}

func TestConfigureAndRead(t *testing.T) {
	fake := newFakeADC(DefaultAddress)
	fake.codes = [NumChannels]uint32{100, 200, 300, 400}
	clk := newRecordingClock()
	rec := &i2ctest.Record{Bus: fake}

	adc := NewMCP342x(rec, DefaultAddress, WithClock(clk), WithSettleDelay(5*time.Millisecond))

	r, err := adc.ConfigureAndRead(1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Config.Channel != 1 || r.Raw != 100 {
		t.Errorf("unexpected reading: %s", pprint.Sdump(r))
	}
	if len(clk.Sleeps()) != 0 {
		t.Errorf("no settle delay expected without a channel switch, got %v", clk.Sleeps())
	}

	r, err = adc.ConfigureAndRead(2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Config.Channel != 2 || r.Raw != 200 {
		t.Errorf("unexpected reading: %s", pprint.Sdump(r))
	}
	if diff := cmp.Diff([]time.Duration{5 * time.Millisecond}, clk.Sleeps()); diff != "" {
		t.Errorf("settle delays (-want +got):\n%s", diff)
	}

	if _, err = adc.ConfigureAndRead(2); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(clk.Sleeps()) != 1 {
		t.Errorf("re-selecting the same channel must not settle again, got %v", clk.Sleeps())
	}

	// initial read, then write+read per call
	wantOps := 1 + 3*2
	if len(rec.Ops) != wantOps {
		t.Errorf("expected %d bus operations, got %s", wantOps, pprint.Sdump(rec.Ops))
	}

	t.Run("InvalidChannel", func(t *testing.T) {
		before := len(rec.Ops)
		if _, err := adc.ConfigureAndRead(0); !errors.Is(err, ErrInvalidArgument) {
			t.Fatalf("expected ErrInvalidArgument, got %v", err)
		}
		if len(rec.Ops) != before {
			t.Error("expected no bus I/O for an invalid channel")
		}
	})
}

func TestConfigureAndReadOneShot(t *testing.T) {
	fake := newFakeADC(DefaultAddress)
	fake.cfg = Configuration{Channel: 1, Mode: OneShot, Resolution: Bits14, Gain: X2}.Encode()
	rec := &i2ctest.Record{Bus: fake}
	clk := newRecordingClock()

	adc := NewMCP342x(rec, DefaultAddress, WithClock(clk), WithSettleDelay(0))
	if _, err := adc.ConfigureAndRead(3); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var writes [][]byte
	for _, op := range rec.Ops {
		if len(op.W) > 0 {
			writes = append(writes, op.W)
		}
	}
	want := Configuration{Ready: true, Channel: 3, Mode: OneShot, Resolution: Bits14, Gain: X2}.Encode()
	if diff := cmp.Diff([][]byte{{want}}, writes); diff != "" {
		t.Errorf("writes (-want +got):\n%s", diff)
	}

	// a zero settle delay falls back to one conversion period
	if diff := cmp.Diff([]time.Duration{Bits14.ConversionTime()}, clk.Sleeps()); diff != "" {
		t.Errorf("settle delays (-want +got):\n%s", diff)
	}
}

func TestConfigureAndReadWaitsForConversion(t *testing.T) {
	tests := []struct {
		name  string
		res   Resolution
		mode  Mode
		first []time.Duration // ConfigureAndRead(1) from channel 1
		next  []time.Duration // then ConfigureAndRead(2)
	}{
		{"12BitContinuous", Bits12, Continuous, nil, []time.Duration{DefaultSettleDelay}},
		{"14BitContinuous", Bits14, Continuous, nil, []time.Duration{DefaultSettleDelay}},
		{"16BitContinuous", Bits16, Continuous, nil, []time.Duration{Bits16.ConversionTime()}},
		{"18BitContinuous", Bits18, Continuous, nil, []time.Duration{Bits18.ConversionTime()}},
		{"16BitOneShot", Bits16, OneShot,
			[]time.Duration{Bits16.ConversionTime()},
			[]time.Duration{Bits16.ConversionTime(), Bits16.ConversionTime()}},
		{"18BitOneShot", Bits18, OneShot,
			[]time.Duration{Bits18.ConversionTime()},
			[]time.Duration{Bits18.ConversionTime(), Bits18.ConversionTime()}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := newFakeADC(DefaultAddress)
			fake.cfg = Configuration{Channel: 1, Mode: tt.mode, Resolution: tt.res, Gain: X1}.Encode()
			fake.codes = [NumChannels]uint32{0x0100, 0x0200, 0, 0}
			clk := newRecordingClock()
			adc := NewMCP342x(fake, DefaultAddress, WithClock(clk))

			r, err := adc.ConfigureAndRead(1)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if r.Raw != 0x0100 || r.Config.Resolution != tt.res {
				t.Errorf("unexpected reading: %s", pprint.Sdump(r))
			}
			if diff := cmp.Diff(tt.first, clk.Sleeps()); diff != "" {
				t.Errorf("waits after same-channel read (-want +got):\n%s", diff)
			}

			r, err = adc.ConfigureAndRead(2)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if r.Raw != 0x0200 || r.Config.Channel != 2 {
				t.Errorf("unexpected reading: %s", pprint.Sdump(r))
			}
			if diff := cmp.Diff(tt.next, clk.Sleeps()); diff != "" {
				t.Errorf("waits after channel switch (-want +got):\n%s", diff)
			}
		})
	}

	t.Run("LongSettleDelay", func(t *testing.T) {
		fake := newFakeADC(DefaultAddress)
		fake.cfg = Configuration{Channel: 1, Mode: Continuous, Resolution: Bits16}.Encode()
		clk := newRecordingClock()
		adc := NewMCP342x(fake, DefaultAddress, WithClock(clk), WithSettleDelay(time.Second))
		if _, err := adc.ConfigureAndRead(4); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if diff := cmp.Diff([]time.Duration{time.Second}, clk.Sleeps()); diff != "" {
			t.Errorf("(-want +got):\n%s", diff)
		}
	})
}

func TestReset(t *testing.T) {
	rec := &i2ctest.Record{}
	adc := NewMCP342x(rec, DefaultAddress)

	if err := adc.Reset(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []i2ctest.IO{{Addr: GeneralCallAddress, W: []byte{CMDGeneralCallReset}}}
	if diff := cmp.Diff(want, rec.Ops); diff != "" {
		t.Errorf("bus operations (-want +got):\n%s", diff)
	}

	t.Run("Playback", func(t *testing.T) {
		bus := &i2ctest.Playback{
			Ops:       []i2ctest.IO{{Addr: 0x00, W: []byte{0x06}}},
			DontPanic: true,
		}
		if err := NewMCP342x(bus, 0x6A).Reset(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if err := bus.Close(); err != nil {
			t.Error(err)
		}
	})

	t.Run("ForgetsConfiguration", func(t *testing.T) {
		fake := newFakeADC(DefaultAddress)
		adc := NewMCP342x(fake, DefaultAddress)
		if _, err := adc.ReadOnce(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if err := adc.Reset(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, ok := adc.Config(); ok {
			t.Error("expected configuration to be unknown after reset")
		}
		if fake.resets != 1 {
			t.Errorf("expected 1 reset, got %d", fake.resets)
		}
	})
}

// shortTransport returns one byte less than asked for.
type shortTransport struct{ writes int }

func (s *shortTransport) Write(p []byte) error { s.writes++; return nil }

func (s *shortTransport) Read(n int) ([]byte, error) { return make([]byte, n-1), nil }

func TestWithTransport(t *testing.T) {
	tr := &shortTransport{}
	adc := NewMCP342x(&i2ctest.Record{}, 0x6C, WithTransport(tr), WithSettleDelay(time.Millisecond))

	if adc.Address() != 0x6C || adc.SettleDelay() != time.Millisecond {
		t.Errorf("unexpected session: addr=0x%02X settle=%s", adc.Address(), adc.SettleDelay())
	}

	if _, err := adc.ReadOnce(); !errors.Is(err, ErrShortFrame) {
		t.Fatalf("expected ErrShortFrame, got %v", err)
	}

	if err := adc.Configure(DefaultConfig()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tr.writes != 1 {
		t.Errorf("expected the write to go through the replacement transport, got %d writes", tr.writes)
	}
}
