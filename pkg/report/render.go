package report

import (
	"bytes"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/lfsj/RealNerdStats/pkg/types"
)

const (
	reset     = "\033[0m"
	bold      = "\033[1m"
	red       = "\033[31m"
	label     = "\033[94m"
	shade     = "\033[100m"
	barFill   = "\033[104m"
	clearHome = "\033[H\033[2J"

	hotPercent   = 75.0
	nameWidth    = 35
	barWidth     = 80
	coresPerLine = 8
)

// Options configures the plain-text renderer.
type Options struct {
	TopN     int
	Filter   FilterConfig
	Interval time.Duration
	Banner   string // printed above the header when set
	Clear    bool   // clear the screen before each frame
}

// Renderer draws one full text frame per snapshot.
type Renderer struct {
	w    io.Writer
	opts Options
}

// NewRenderer writes frames to w. A non-positive TopN uses types.DefaultTopK.
func NewRenderer(w io.Writer, opts Options) *Renderer {
	if opts.TopN <= 0 {
		opts.TopN = types.DefaultTopK
	}
	return &Renderer{w: w, opts: opts}
}

// Consume writes the frame for snap in a single write so the screen never shows half a frame.
func (r *Renderer) Consume(snap types.Snapshot) error {
	var buf bytes.Buffer
	if r.opts.Clear {
		buf.WriteString(clearHome)
	}
	buf.WriteString(r.Frame(snap))
	_, err := r.w.Write(buf.Bytes())
	return err
}

// Frame renders snap without touching the terminal.
func (r *Renderer) Frame(snap types.Snapshot) string {
	var buf bytes.Buffer
	if r.opts.Banner != "" {
		buf.WriteString(r.opts.Banner)
		buf.WriteString("\n")
	}
	buf.WriteString("--- RealNerdStats --- Press Ctrl+C to exit ---\n")
	fmt.Fprintf(&buf, "Updated: %s | Interval: %v | Window: %v\n\n",
		snap.Timestamp.Format(time.RFC3339), r.opts.Interval, snap.Elapsed.Round(time.Millisecond))

	sys := snap.System
	writeSummary(&buf, sys)
	writeCores(&buf, sys.PerCPU)
	if sys.SwapTotal > 0 {
		fmt.Fprintf(&buf, "%sSWAP:%s %5.2f%% (%s / %s)\n", label, reset,
			sys.SwapPercent, FormatBytes(float64(sys.SwapUsed)), FormatBytes(float64(sys.SwapTotal)))
	}
	writePartitions(&buf, sys.Partitions)
	if sys.SensorsRequested {
		writeSensors(&buf, sys.Sensors)
	}
	if sys.NetworkDetailRequested {
		writeInterfaces(&buf, sys.Interfaces)
		writeConnections(&buf, sys.Connections)
	}
	buf.WriteString("\n")

	rows := FilterProcesses(snap.Processes, r.opts.Filter)
	if focus := SelectFocusCandidate(rows); focus != nil {
		fmt.Fprintf(&buf, "[!] Focus: %s (pid %d)\n", SanitizeName(focus.Name), focus.PID)
		fmt.Fprintf(&buf, "   Reason: %s - %s\n\n", focus.Diagnosis, FocusSummary(*focus))
	} else {
		fmt.Fprintf(&buf, "[!] No processes matched current filters (hide-kernel=%t)\n\n", r.opts.Filter.HideKernel)
	}
	writeProcesses(&buf, TopN(rows, r.opts.TopN))
	return buf.String()
}

func writeSummary(buf *bytes.Buffer, sys types.SystemMetrics) {
	fmt.Fprintf(buf, "%sCPU Total:%s %5.2f%% | %sMEM:%s %5.2f%% (%s / %s) | %sNET SENT:%s %10s | %sNET RECV:%s %10s\n",
		label, reset, sys.CPUPercent,
		label, reset, sys.MemoryPercent, FormatBytes(float64(sys.MemoryUsed)), FormatBytes(float64(sys.MemoryTotal)),
		label, reset, rateOrNA(sys.Network, sent),
		label, reset, rateOrNA(sys.Network, received))
	fmt.Fprintf(buf, "%sDISK READ:%s %10s | %sDISK WRITE:%s %10s\n",
		label, reset, rateOrNA(sys.Disk, read),
		label, reset, rateOrNA(sys.Disk, write))
}

func writeCores(buf *bytes.Buffer, perCPU []float64) {
	parts := make([]string, 0, coresPerLine)
	for i, usage := range perCPU {
		color := ""
		if usage > hotPercent {
			color = red
		}
		parts = append(parts, fmt.Sprintf("%sCore %d:%s %s%5.2f%%%s", label, i, reset, color, usage, reset))
		if len(parts) == coresPerLine || i == len(perCPU)-1 {
			buf.WriteString(strings.Join(parts, " | "))
			buf.WriteString("\n")
			parts = parts[:0]
		}
	}
}

func writePartitions(buf *bytes.Buffer, parts []types.PartitionUsage) {
	if len(parts) == 0 {
		return
	}
	buf.WriteString("\n[Partitions]\n")
	tw := tabwriter.NewWriter(buf, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "DEVICE\tMOUNT\tFSTYPE\tUSED\tTOTAL\tUSE%")
	for _, p := range parts {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%.1f\n", p.Device, p.Mountpoint, p.Fstype,
			FormatBytes(float64(p.Used)), FormatBytes(float64(p.Total)), p.UsedPercent)
	}
	tw.Flush()
}

func writeSensors(buf *bytes.Buffer, sensors types.Optional[[]types.SensorReading]) {
	readings, ok := sensors.Get()
	if !ok {
		buf.WriteString("\n[Sensors] unsupported on this platform\n")
		return
	}
	buf.WriteString("\n[Sensors]\n")
	tw := tabwriter.NewWriter(buf, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SENSOR\tTEMP(C)\tHIGH\tCRIT")
	for _, s := range readings {
		fmt.Fprintf(tw, "%s\t%.1f\t%s\t%s\n", s.Key, s.Temperature, celsiusOrNA(s.High), celsiusOrNA(s.Critical))
	}
	tw.Flush()
}

func writeInterfaces(buf *bytes.Buffer, ifaces types.Optional[[]types.InterfaceDetail]) {
	list, ok := ifaces.Get()
	if !ok {
		buf.WriteString("\n[Interfaces] unsupported on this platform\n")
		return
	}
	buf.WriteString("\n[Interfaces]\n")
	tw := tabwriter.NewWriter(buf, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tSTATE\tMTU\tMAC\tADDRESSES\tRECV/s\tSENT/s")
	for _, iface := range list {
		state := "down"
		if iface.Up {
			state = "up"
		}
		if iface.Loopback {
			state += ",loopback"
		}
		mac := iface.HardwareAddr
		if mac == "" {
			mac = "-"
		}
		addrs := strings.Join(iface.Addrs, ",")
		if addrs == "" {
			addrs = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\t%s\t%s\n", iface.Name, state, iface.MTU, mac, addrs,
			rateOrNA(iface.Rates, received), rateOrNA(iface.Rates, sent))
	}
	tw.Flush()
}

func writeConnections(buf *bytes.Buffer, conns types.Optional[types.ConnectionSummary]) {
	summary, ok := conns.Get()
	if !ok {
		buf.WriteString("Connections: unsupported on this platform\n")
		return
	}
	statuses := make([]string, 0, len(summary.ByStatus))
	for status := range summary.ByStatus {
		statuses = append(statuses, status)
	}
	sort.Strings(statuses)
	parts := make([]string, 0, len(statuses))
	for _, status := range statuses {
		parts = append(parts, fmt.Sprintf("%s %d", status, summary.ByStatus[status]))
	}
	fmt.Fprintf(buf, "Connections: %d total", summary.Total)
	if len(parts) > 0 {
		fmt.Fprintf(buf, " (%s)", strings.Join(parts, ", "))
	}
	buf.WriteString("\n")
}

// writeProcesses colors whole lines after tabwriter has aligned them, so escape
// codes never count toward column widths. Names are sanitized first, which
// keeps exactly one output line per row.
func writeProcesses(buf *bytes.Buffer, rows []types.ProcessRecord) {
	var table bytes.Buffer
	tw := tabwriter.NewWriter(&table, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "PID\tPROCESS NAME\tCPU %\tMEM %\tREAD/s\tWRITE/s\t")
	styles := make([]string, 0, len(rows)+1)
	styles = append(styles, label)
	for i, row := range rows {
		fmt.Fprintf(tw, "%d\t%s\t%.2f\t%.2f\t%s\t%s\t\n", row.PID, truncate(SanitizeName(row.Name), nameWidth),
			row.CPUPercent, row.MemoryPercent, rateOrNA(row.IO, read), rateOrNA(row.IO, write))
		style := ""
		if i%2 == 0 {
			style += shade
		}
		if row.CPUPercent > hotPercent {
			style += red
		}
		styles = append(styles, style)
	}
	tw.Flush()

	bar := barFill + strings.Repeat(" ", barWidth) + reset + "\n"
	buf.WriteString(bar)
	lines := strings.Split(strings.TrimRight(table.String(), "\n"), "\n")
	for i, line := range lines {
		style := ""
		if i < len(styles) {
			style = styles[i]
		}
		buf.WriteString(style + line + reset + "\n")
	}
	buf.WriteString(bar)
}

// SanitizeName replaces control characters so a process name always renders
// on a single line and cannot inject terminal escapes.
func SanitizeName(name string) string {
	return strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7f || (r >= 0x80 && r < 0xa0) {
			return '?'
		}
		return r
	}, name)
}

func read(r types.Rates) float64     { return r.Read }
func write(r types.Rates) float64    { return r.Write }
func received(r types.Rates) float64 { return r.Read }
func sent(r types.Rates) float64     { return r.Write }

func rateOrNA(v types.Optional[types.Rates], pick func(types.Rates) float64) string {
	if rates, ok := v.Get(); ok {
		return FormatRate(pick(rates))
	}
	return "N/A"
}

func celsiusOrNA(v float64) string {
	if v <= 0 {
		return "N/A"
	}
	return fmt.Sprintf("%.1f", v)
}

func truncate(s string, width int) string {
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	return string(r[:width])
}
