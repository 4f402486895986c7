package mcp342x

import (
	"fmt"
	"io"

	"periph.io/x/conn/v3/i2c"
)

// Transport is the raw byte transport bound to a single bus address.
type Transport interface {
	Write(p []byte) error
	Read(n int) ([]byte, error)
}

// i2cTransport adapts a periph [i2c.Dev] to [Transport].
type i2cTransport struct {
	dev *i2c.Dev
}

// NewTransport binds bus to addr.
func NewTransport(bus i2c.Bus, addr uint16) Transport {
	return &i2cTransport{dev: &i2c.Dev{Bus: bus, Addr: addr}}
}

func (t *i2cTransport) Write(p []byte) error {
	return t.dev.Tx(p, nil)
}

func (t *i2cTransport) Read(n int) ([]byte, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: read of %d bytes", io.ErrShortBuffer, n)
	}
	buf := make([]byte, n)
	if err := t.dev.Tx(nil, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

func (t *i2cTransport) String() string {
	return t.dev.String()
}

func (adc *MCP342x) write(p []byte) error {
	if err := adc.dev.Write(p); err != nil {
		return &TransportError{Op: "write", Addr: adc.addr, Err: err}
	}
	return nil
}

func (adc *MCP342x) read(n int) ([]byte, error) {
	b, err := adc.dev.Read(n)
	if err != nil {
		return nil, &TransportError{Op: "read", Addr: adc.addr, Err: err}
	}
	if len(b) != n {
		return nil, fmt.Errorf("%w: expected %d bytes, got %d", ErrShortFrame, n, len(b))
	}
	return b, nil
}
