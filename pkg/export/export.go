package export

import (
	"path/filepath"
	"strings"

	"github.com/lfsj/RealNerdStats/pkg/types"
)

// Columns is the export layout shared by every format.
var Columns = []string{
	"timestamp",
	"cpu_percent",
	"mem_percent",
	"net_sent_rate",
	"net_recv_rate",
	"pid",
	"name",
	"proc_cpu_percent",
	"proc_mem_percent",
	"read_rate",
	"write_rate",
}

// Exporter persists snapshots until closed.
type Exporter interface {
	Consume(snap types.Snapshot) error
	Close() error
}

// Row is one (tick, ranked process) pair.
type Row struct {
	Timestamp     float64
	CPUPercent    float64
	MemoryPercent float64
	NetSent       types.Optional[float64]
	NetRecv       types.Optional[float64]
	PID           int32
	Name          string
	ProcCPU       float64
	ProcMem       float64
	ReadRate      types.Optional[float64]
	WriteRate     types.Optional[float64]
}

// Rows flattens a snapshot into at most topN rows, in ranking order.
func Rows(snap types.Snapshot, topN int) []Row {
	procs := snap.Processes
	if topN > 0 && len(procs) > topN {
		procs = procs[:topN]
	}

	netSent, netRecv := types.Unsupported[float64](), types.Unsupported[float64]()
	if r, ok := snap.System.Network.Get(); ok {
		netSent, netRecv = types.Present(r.Write), types.Present(r.Read)
	}

	rows := make([]Row, 0, len(procs))
	for _, p := range procs {
		row := Row{
			Timestamp:     snap.Unix(),
			CPUPercent:    snap.System.CPUPercent,
			MemoryPercent: snap.System.MemoryPercent,
			NetSent:       netSent,
			NetRecv:       netRecv,
			PID:           p.PID,
			Name:          p.Name,
			ProcCPU:       p.CPUPercent,
			ProcMem:       p.MemoryPercent,
			ReadRate:      types.Unsupported[float64](),
			WriteRate:     types.Unsupported[float64](),
		}
		if io, ok := p.IO.Get(); ok {
			row.ReadRate, row.WriteRate = types.Present(io.Read), types.Present(io.Write)
		}
		rows = append(rows, row)
	}
	return rows
}

// Open creates the exporter matching path's extension: SQLite for .db,
// .sqlite and .sqlite3, CSV for anything else.
func Open(path string, topN int) (Exporter, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".db", ".sqlite", ".sqlite3":
		return OpenSQLite(path, topN)
	default:
		return OpenCSV(path, topN)
	}
}
