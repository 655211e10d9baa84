package ui

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	termui "github.com/gizak/termui/v3"
	"github.com/gizak/termui/v3/widgets"

	"github.com/lfsj/RealNerdStats/pkg/report"
	"github.com/lfsj/RealNerdStats/pkg/types"
)

const (
	historySize = 90 // sparkline points kept per series
	hotPercent  = 75
)

// DashboardOptions configures the widget dashboard.
type DashboardOptions struct {
	TopN   int
	Filter report.FilterConfig
}

// Dashboard is a full-screen termui consumer. Widgets are only touched from
// Consume; the event goroutine cancels the run and records resizes.
type Dashboard struct {
	opts DashboardOptions

	summary *widgets.Paragraph
	cores   *widgets.BarChart
	procs   *widgets.Table
	txLine  *widgets.Sparkline
	rxLine  *widgets.Sparkline
	txGroup *widgets.SparklineGroup
	rxGroup *widgets.SparklineGroup
	grid    *termui.Grid

	txHistory []float64
	rxHistory []float64

	mu      sync.Mutex
	resized *termui.Resize
	notice  string

	done      chan struct{}
	closeOnce sync.Once
}

// NewDashboard takes over the terminal. Pressing q or Ctrl+C calls cancel.
func NewDashboard(cancel context.CancelFunc, opts DashboardOptions) (*Dashboard, error) {
	if err := termui.Init(); err != nil {
		return nil, fmt.Errorf("failed to init termui: %w", err)
	}
	d := newDashboard(opts)
	width, height := termui.TerminalDimensions()
	d.grid.SetRect(0, 0, width, height)
	go d.pollEvents(termui.PollEvents(), cancel)
	return d, nil
}

func newDashboard(opts DashboardOptions) *Dashboard {
	if opts.TopN <= 0 {
		opts.TopN = types.DefaultTopK
	}
	d := &Dashboard{opts: opts, done: make(chan struct{})}

	d.summary = widgets.NewParagraph()
	d.summary.Title = " RealNerdStats (q to exit) "
	d.summary.BorderStyle.Fg = termui.ColorCyan

	d.cores = widgets.NewBarChart()
	d.cores.Title = " Per-core CPU % "
	d.cores.MaxVal = 100
	d.cores.BarWidth = 4
	d.cores.BorderStyle.Fg = termui.ColorBlue
	d.cores.NumFormatter = func(v float64) string { return strconv.Itoa(int(v)) }

	d.procs = widgets.NewTable()
	d.procs.Title = " Top processes "
	d.procs.RowSeparator = false
	d.procs.FillRow = true
	d.procs.TextStyle = termui.NewStyle(termui.ColorWhite)
	d.procs.BorderStyle.Fg = termui.ColorGreen

	d.txLine = widgets.NewSparkline()
	d.txLine.LineColor = termui.ColorYellow
	d.txLine.TitleStyle.Fg = termui.ColorYellow
	d.txGroup = widgets.NewSparklineGroup(d.txLine)
	d.txGroup.Title = " Net sent "
	d.txGroup.BorderStyle.Fg = termui.ColorYellow

	d.rxLine = widgets.NewSparkline()
	d.rxLine.LineColor = termui.ColorGreen
	d.rxLine.TitleStyle.Fg = termui.ColorGreen
	d.rxGroup = widgets.NewSparklineGroup(d.rxLine)
	d.rxGroup.Title = " Net received "
	d.rxGroup.BorderStyle.Fg = termui.ColorGreen

	d.grid = termui.NewGrid()
	d.grid.Set(
		termui.NewRow(0.2,
			termui.NewCol(0.5, d.summary),
			termui.NewCol(0.5, d.cores),
		),
		termui.NewRow(0.5, termui.NewCol(1.0, d.procs)),
		termui.NewRow(0.3,
			termui.NewCol(0.5, d.txGroup),
			termui.NewCol(0.5, d.rxGroup),
		),
	)
	return d
}

// Consume refreshes every widget from snap and redraws the screen.
func (d *Dashboard) Consume(snap types.Snapshot) error {
	d.mu.Lock()
	resized := d.resized
	d.resized = nil
	d.mu.Unlock()
	if resized != nil {
		d.grid.SetRect(0, 0, resized.Width, resized.Height)
		termui.Clear()
	}

	d.update(snap)
	termui.Render(d.grid)
	return nil
}

// Write keeps the latest log line for the summary panel, so loggers can point
// at the dashboard instead of writing over the screen.
func (d *Dashboard) Write(p []byte) (int, error) {
	d.mu.Lock()
	d.notice = report.SanitizeName(strings.TrimSpace(string(p)))
	d.mu.Unlock()
	return len(p), nil
}

// Close stops the event goroutine and restores the terminal.
func (d *Dashboard) Close() error {
	d.closeOnce.Do(func() {
		close(d.done)
		termui.Close()
	})
	return nil
}

func (d *Dashboard) pollEvents(events <-chan termui.Event, cancel context.CancelFunc) {
	for {
		select {
		case <-d.done:
			return
		case e := <-events:
			switch {
			case e.Type == termui.KeyboardEvent && (e.ID == "q" || e.ID == "<C-c>"):
				cancel()
			case e.Type == termui.ResizeEvent:
				if payload, ok := e.Payload.(termui.Resize); ok {
					d.mu.Lock()
					d.resized = &payload
					d.mu.Unlock()
				}
			}
		}
	}
}

// update copies snap into the widgets without drawing.
func (d *Dashboard) update(snap types.Snapshot) {
	sys := snap.System
	net, netOK := sys.Network.Get()
	disk, diskOK := sys.Disk.Get()
	d.summary.Text = fmt.Sprintf(
		"CPU %.1f%%  MEM %.1f%% (%s / %s)\nNET sent %s  recv %s\nDISK read %s  write %s\nUpdated %s",
		sys.CPUPercent, sys.MemoryPercent,
		report.FormatBytes(float64(sys.MemoryUsed)), report.FormatBytes(float64(sys.MemoryTotal)),
		rateText(net.Write, netOK), rateText(net.Read, netOK),
		rateText(disk.Read, diskOK), rateText(disk.Write, diskOK),
		snap.Timestamp.Format("15:04:05"),
	)
	d.mu.Lock()
	notice := d.notice
	d.mu.Unlock()
	if notice != "" {
		d.summary.Text += "\n[!] " + notice
	}

	d.cores.Data = append([]float64(nil), sys.PerCPU...)
	d.cores.Labels = make([]string, 0, len(sys.PerCPU))
	d.cores.BarColors = make([]termui.Color, 0, len(sys.PerCPU))
	for i, usage := range sys.PerCPU {
		d.cores.Labels = append(d.cores.Labels, strconv.Itoa(i))
		color := termui.ColorBlue
		if usage > hotPercent {
			color = termui.ColorRed
		}
		d.cores.BarColors = append(d.cores.BarColors, color)
	}

	rows := report.TopN(report.FilterProcesses(snap.Processes, d.opts.Filter), d.opts.TopN)
	d.procs.Rows = [][]string{{"PID", "NAME", "CPU %", "MEM %", "READ/s", "WRITE/s"}}
	d.procs.RowStyles = map[int]termui.Style{0: termui.NewStyle(termui.ColorCyan, termui.ColorClear, termui.ModifierBold)}
	for i, row := range rows {
		io, ioOK := row.IO.Get()
		d.procs.Rows = append(d.procs.Rows, []string{
			strconv.Itoa(int(row.PID)),
			report.SanitizeName(row.Name),
			fmt.Sprintf("%.2f", row.CPUPercent),
			fmt.Sprintf("%.2f", row.MemoryPercent),
			rateText(io.Read, ioOK),
			rateText(io.Write, ioOK),
		})
		if row.CPUPercent > hotPercent {
			d.procs.RowStyles[i+1] = termui.NewStyle(termui.ColorRed)
		}
	}

	d.txHistory = appendHistory(d.txHistory, net.Write)
	d.rxHistory = appendHistory(d.rxHistory, net.Read)
	d.txLine.Data = d.txHistory
	d.rxLine.Data = d.rxHistory
	d.txLine.Title = "now " + rateText(net.Write, netOK)
	d.rxLine.Title = "now " + rateText(net.Read, netOK)
}

// appendHistory adds v and keeps at most historySize points, oldest first.
func appendHistory(history []float64, v float64) []float64 {
	history = append(history, v)
	if len(history) > historySize {
		history = history[len(history)-historySize:]
	}
	return history
}

func rateText(v float64, ok bool) string {
	if !ok {
		return "N/A"
	}
	return report.FormatRate(v)
}
