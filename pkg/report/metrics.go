package report

import (
	"fmt"
	"strings"

	"github.com/lfsj/RealNerdStats/pkg/types"
)

const (
	cpuBoundPercent    = 50
	memoryHeavyPercent = 30
	ioHeavyBytesPerSec = 10 * 1024 * 1024
)

// FilterConfig controls which processes appear in rendered tables.
type FilterConfig struct {
	HideKernel bool
}

// Focus is the process the status line calls out, with its diagnosis.
type Focus struct {
	types.ProcessRecord
	Diagnosis string
}

// FilterProcesses drops rows hidden by cfg, keeping the ranking order.
func FilterProcesses(rows []types.ProcessRecord, cfg FilterConfig) []types.ProcessRecord {
	if !cfg.HideKernel {
		return rows
	}
	filtered := make([]types.ProcessRecord, 0, len(rows))
	for _, row := range rows {
		if !isKernelThread(row) {
			filtered = append(filtered, row)
		}
	}
	return filtered
}

// TopN returns at most n leading rows. n <= 0 keeps every row.
func TopN(rows []types.ProcessRecord, n int) []types.ProcessRecord {
	if n > 0 && len(rows) > n {
		return rows[:n]
	}
	return rows
}

// Classify labels a process by the resource it is leaning on hardest.
func Classify(row types.ProcessRecord) string {
	if row.MemoryPercent > memoryHeavyPercent {
		return "Memory-heavy"
	}
	if io, ok := row.IO.Get(); ok && io.Read+io.Write > ioHeavyBytesPerSec {
		return "IO-heavy"
	}
	if row.CPUPercent > cpuBoundPercent {
		return "CPU-bound"
	}
	return "OK"
}

// SelectFocusCandidate picks the most interesting process to summarize for the operator.
func SelectFocusCandidate(rows []types.ProcessRecord) *Focus {
	if len(rows) == 0 {
		return nil
	}
	var best *Focus
	bestScore := -1.0
	for _, row := range rows {
		diagnosis := Classify(row)
		severity := diagnosisSeverity(diagnosis)
		if severity == 0 && row.CPUPercent < 1 {
			continue
		}
		score := float64(severity)*1000 + row.CPUPercent
		if best == nil || score > bestScore {
			best = &Focus{ProcessRecord: row, Diagnosis: diagnosis}
			bestScore = score
		}
	}
	if best != nil {
		return best
	}
	maxIdx := 0
	for i := 1; i < len(rows); i++ {
		if rows[i].CPUPercent > rows[maxIdx].CPUPercent {
			maxIdx = i
		}
	}
	return &Focus{ProcessRecord: rows[maxIdx], Diagnosis: Classify(rows[maxIdx])}
}

// FocusSummary returns a short explanation string for the status line.
func FocusSummary(f Focus) string {
	switch f.Diagnosis {
	case "Memory-heavy":
		return fmt.Sprintf("%.1f%% of RAM resident, %.1f%% CPU", f.MemoryPercent, f.CPUPercent)
	case "IO-heavy":
		io, _ := f.IO.Get()
		return fmt.Sprintf("reading %s, writing %s", FormatRate(io.Read), FormatRate(io.Write))
	case "CPU-bound":
		return fmt.Sprintf("%.1f%% CPU summed across cores", f.CPUPercent)
	default:
		return fmt.Sprintf("%.1f%% CPU, %.1f%% MEM", f.CPUPercent, f.MemoryPercent)
	}
}

func isKernelThread(row types.ProcessRecord) bool {
	if row.PID == 0 {
		return true
	}
	name := strings.ToLower(row.Name)
	switch {
	case strings.HasPrefix(name, "kworker"), strings.HasPrefix(name, "ksoftirqd"), strings.HasPrefix(name, "kthreadd"),
		strings.HasPrefix(name, "migration"), strings.HasPrefix(name, "watchdog"), strings.HasPrefix(name, "rcu"),
		strings.HasPrefix(name, "irq/"):
		return true
	}
	return false
}

func diagnosisSeverity(label string) int {
	switch label {
	case "Memory-heavy":
		return 3
	case "IO-heavy":
		return 2
	case "CPU-bound":
		return 1
	default:
		return 0
	}
}

var byteUnits = []string{"", "K", "M", "G", "T"}

// FormatBytes renders a byte count with 1024-based units, e.g. "1.50KB".
func FormatBytes(n float64) string {
	i := 0
	for n >= 1024 && i < len(byteUnits)-1 {
		n /= 1024
		i++
	}
	return fmt.Sprintf("%.2f%sB", n, byteUnits[i])
}

// FormatRate renders bytes per second, e.g. "10.00MB/s".
func FormatRate(bytesPerSec float64) string {
	return FormatBytes(bytesPerSec) + "/s"
}
