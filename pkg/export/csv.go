package export

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/lfsj/RealNerdStats/pkg/types"
)

// CSVWriter writes one CSV record per exported row and flushes every tick.
type CSVWriter struct {
	f    *os.File
	w    *csv.Writer
	topN int
}

// OpenCSV truncates path and writes the header.
func OpenCSV(path string, topN int) (*CSVWriter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating csv export: %w", err)
	}
	w := csv.NewWriter(f)
	if err := w.Write(Columns); err != nil {
		f.Close()
		return nil, fmt.Errorf("writing csv header: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return nil, fmt.Errorf("writing csv header: %w", err)
	}
	return &CSVWriter{f: f, w: w, topN: topN}, nil
}

// Consume appends the snapshot's top rows and flushes them to the file.
func (c *CSVWriter) Consume(snap types.Snapshot) error {
	for _, row := range Rows(snap, c.topN) {
		if err := c.w.Write(csvRecord(row)); err != nil {
			return fmt.Errorf("writing csv row: %w", err)
		}
	}
	c.w.Flush()
	return c.w.Error()
}

// Close flushes pending rows and closes the file.
func (c *CSVWriter) Close() error {
	c.w.Flush()
	return errors.Join(c.w.Error(), c.f.Close())
}

func csvRecord(r Row) []string {
	return []string{
		strconv.FormatFloat(r.Timestamp, 'f', 3, 64),
		formatFloat(r.CPUPercent),
		formatFloat(r.MemoryPercent),
		formatOptional(r.NetSent),
		formatOptional(r.NetRecv),
		strconv.FormatInt(int64(r.PID), 10),
		r.Name,
		formatFloat(r.ProcCPU),
		formatFloat(r.ProcMem),
		formatOptional(r.ReadRate),
		formatOptional(r.WriteRate),
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// formatOptional leaves unsupported values as empty cells.
func formatOptional(v types.Optional[float64]) string {
	if f, ok := v.Get(); ok {
		return formatFloat(f)
	}
	return ""
}
