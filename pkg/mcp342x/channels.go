package mcp342x

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"time"
)

// Row holds one reading per scanned channel, in scan order.
type Row struct {
	Index    int
	Time     time.Time
	Readings []Reading
}

// ScanOptions controls a continuous read.
type ScanOptions struct {
	Channels []int
	// Interval is the sleep between rows. Channel switches within a row only wait the settle delay.
	Interval time.Duration
	// MaxSamples is the number of rows to produce. Zero means no limit.
	MaxSamples int
}

// Validate rejects bad scan options before any bus I/O.
func (o ScanOptions) Validate() error {
	if len(o.Channels) == 0 {
		return InvalidArgument("channels", o.Channels, "no channels to scan")
	}
	for _, ch := range o.Channels {
		if ch < 1 || ch > NumChannels {
			return InvalidArgument("channels", ch, fmt.Sprintf("must be between 1 and %d", NumChannels))
		}
	}
	if o.Interval < 0 {
		return InvalidArgument("interval", o.Interval, "must not be negative")
	}
	if o.MaxSamples < 0 {
		return InvalidArgument("samples", o.MaxSamples, "must not be negative")
	}
	return nil
}

// ContinuousRead round-robins [MCP342x.ConfigureAndRead] over the channels, one [Row] per tick.
//
// The sequence stops at MaxSamples rows, on the first error from any channel, or when ctx is done.
// ctx is only observed between rows, including during the interval wait: a row in progress always completes.
// Every range over the returned sequence starts a fresh scan.
func (adc *MCP342x) ContinuousRead(ctx context.Context, opts ScanOptions) iter.Seq2[Row, error] {
	return func(yield func(Row, error) bool) {
		if err := opts.Validate(); err != nil {
			yield(Row{}, err)
			return
		}

		for i := 0; opts.MaxSamples == 0 || i < opts.MaxSamples; i++ {
			err := ctx.Err()
			if i > 0 && err == nil {
				err = adc.waitInterval(ctx, opts.Interval)
			}
			if err != nil {
				if !errors.Is(err, context.Canceled) {
					yield(Row{}, err)
				}
				return
			}

			row, err := adc.scanRow(i, opts.Channels)
			if err != nil {
				yield(Row{}, fmt.Errorf("scan row %d: %w", i, err))
				return
			}
			if !yield(row, nil) {
				return
			}
		}
	}
}

// waitInterval blocks for d on the session clock or until ctx is done.
func (adc *MCP342x) waitInterval(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-adc.clock.After(d):
		return nil
	}
}

func (adc *MCP342x) scanRow(index int, channels []int) (Row, error) {
	row := Row{
		Index:    index,
		Time:     adc.clock.Now(),
		Readings: make([]Reading, 0, len(channels)),
	}
	for _, ch := range channels {
		r, err := adc.ConfigureAndRead(ch)
		if err != nil {
			return Row{}, fmt.Errorf("channel %d: %w", ch, err)
		}
		row.Readings = append(row.Readings, r)
	}
	return row, nil
}

// DataCallback receives each row of a [MCP342x.Scan].
type DataCallback func(row Row) error

// Scan drives [MCP342x.ContinuousRead] to completion, handing every row to onData.
// An error from onData stops the scan and is returned.
func (adc *MCP342x) Scan(ctx context.Context, opts ScanOptions, onData DataCallback) error {
	for row, err := range adc.ContinuousRead(ctx, opts) {
		if err != nil {
			return err
		}
		if err = onData(row); err != nil {
			return err
		}
	}
	return nil
}
