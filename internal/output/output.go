// Package output renders configurations, single readings and scan rows as
// go-pretty tables or as CSV.
package output

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/yunginnanet/ftdi-mcp342x/internal/config"
	"github.com/yunginnanet/ftdi-mcp342x/pkg/i2cbus"
	"github.com/yunginnanet/ftdi-mcp342x/pkg/mcp342x"
)

// TablePageSize is the number of scan rows rendered per table.
const TablePageSize = 16

const timeLayout = time.RFC3339Nano

func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	return t
}

func render(t table.Writer, format string) {
	if format == config.FormatCSV {
		t.RenderCSV()
		return
	}
	t.Render()
}

func configRows(cfg mcp342x.Configuration) []table.Row {
	return []table.Row{
		{"Register", fmt.Sprintf("0x%02X (%08b)", cfg.Encode(), cfg.Encode())},
		{"Ready", cfg.ReadyString()},
		{"Channel", cfg.Channel},
		{"Conversion mode", cfg.Mode.String()},
		{"Sample rate", cfg.Resolution.String()},
		{"PGA gain", cfg.Gain.String()},
	}
}

// WriteConfig writes cfg as a field/value listing.
func WriteConfig(w io.Writer, format string, cfg mcp342x.Configuration) {
	t := newTable(w)
	t.SetTitle("MCP342x configuration")
	t.AppendHeader(table.Row{"Field", "Value"})
	t.AppendRows(configRows(cfg))
	render(t, format)
}

// WriteReading writes the configuration a reading was taken with, followed by the sample.
func WriteReading(w io.Writer, format string, r mcp342x.Reading) {
	t := newTable(w)
	t.SetTitle("MCP342x reading")
	t.AppendHeader(table.Row{"Field", "Value"})
	t.AppendRows(configRows(r.Config))
	t.AppendSeparator()
	t.AppendRows([]table.Row{
		{"Raw", fmt.Sprintf("0x%05X", uint32(r.Raw))},
		{"Output code", r.Code},
		{"Value", r.Volts().String()},
	})
	render(t, format)
}

// RowWriter writes scan rows as they arrive. Flush must be called once the scan ends.
type RowWriter interface {
	WriteRow(row mcp342x.Row) error
	Flush() error
}

// NewRowWriter returns a [RowWriter] for the given format and scanned channels.
func NewRowWriter(w io.Writer, format string, channels []int) RowWriter {
	if format == config.FormatCSV {
		return &csvRows{w: csv.NewWriter(w), channels: channels}
	}
	return &tableRows{out: w, channels: channels}
}

func rowHeader(channels []int, code, volts string) []string {
	h := []string{"#", "time"}
	for _, ch := range channels {
		h = append(h, fmt.Sprintf("ch%d_%s", ch, code), fmt.Sprintf("ch%d_%s", ch, volts))
	}
	return h
}

type tableRows struct {
	out      io.Writer
	channels []int
	t        table.Writer
}

func (tr *tableRows) WriteRow(row mcp342x.Row) error {
	if tr.t == nil {
		tr.t = newTable(tr.out)
		var hdr table.Row
		for _, h := range rowHeader(tr.channels, "code", "value") {
			hdr = append(hdr, h)
		}
		tr.t.AppendHeader(hdr)
	}

	cells := table.Row{row.Index, row.Time.Format(timeLayout)}
	for _, r := range row.Readings {
		cells = append(cells, r.Code, r.Volts().String())
	}
	tr.t.AppendRow(cells)

	if tr.t.Length() >= TablePageSize {
		return tr.Flush()
	}
	return nil
}

func (tr *tableRows) Flush() error {
	if tr.t == nil || tr.t.Length() == 0 {
		return nil
	}
	tr.t.Render()
	tr.t.ResetRows()
	return nil
}

type csvRows struct {
	w        *csv.Writer
	channels []int
	wroteHdr bool
}

func (cr *csvRows) WriteRow(row mcp342x.Row) error {
	if !cr.wroteHdr {
		if err := cr.w.Write(rowHeader(cr.channels, "code", "volts")); err != nil {
			return err
		}
		cr.wroteHdr = true
	}

	rec := make([]string, 0, 2+2*len(row.Readings))
	rec = append(rec, strconv.Itoa(row.Index), row.Time.Format(timeLayout))
	for _, r := range row.Readings {
		rec = append(rec,
			strconv.FormatInt(int64(r.Code), 10),
			strconv.FormatFloat(r.Value, 'f', -1, 64),
		)
	}
	if err := cr.w.Write(rec); err != nil {
		return err
	}

	cr.w.Flush()
	return cr.w.Error()
}

func (cr *csvRows) Flush() error {
	cr.w.Flush()
	return cr.w.Error()
}

// WriteBuses lists the buses the host can open.
func WriteBuses(w io.Writer, format string, buses []i2cbus.BusInfo) {
	t := newTable(w)
	t.SetTitle("I2C buses")
	t.AppendHeader(table.Row{"Name", "Aliases", "Number"})
	for _, b := range buses {
		num := "-"
		if b.Number >= 0 {
			num = strconv.Itoa(b.Number)
		}
		t.AppendRow(table.Row{b.Name, strings.Join(b.Aliases, " "), num})
	}
	render(t, format)
}
