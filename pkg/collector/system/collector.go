package system

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/disk"
	"github.com/shirou/gopsutil/v4/mem"
	"github.com/shirou/gopsutil/v4/net"
	"github.com/shirou/gopsutil/v4/sensors"

	"github.com/lfsj/RealNerdStats/pkg/counters"
	"github.com/lfsj/RealNerdStats/pkg/types"
)

// Store is the host-wide counter store: one entry per interface and one per
// whole disk. Global rates are sums of the per-device rates, so a device that
// appears mid-run starts from a first sample instead of inflating the total.
type Store = counters.Store[string, types.Counters]

const (
	nicKeyPref  = "nic/"
	diskKeyPref = "disk/"
)

var errNoCPUData = errors.New("no cpu usage reported")

// OS readers are package vars so tests can stub gopsutil.
var (
	cpuPercent     = cpu.PercentWithContext
	virtualMemory  = mem.VirtualMemoryWithContext
	swapMemory     = mem.SwapMemoryWithContext
	netIOCounters  = net.IOCountersWithContext
	diskIOCounters = func(ctx context.Context) (map[string]disk.IOCountersStat, error) {
		return disk.IOCountersWithContext(ctx)
	}
	diskPartitions = disk.PartitionsWithContext
	diskUsage      = disk.UsageWithContext
	temperatures   = sensors.TemperaturesWithContext
	netInterfaces  = net.InterfacesWithContext
	netConnections = net.ConnectionsWithContext
)

// Options selects the optional detail blocks.
type Options struct {
	Sensors       bool
	NetworkDetail bool
}

// Collector gathers host-wide metrics for one tick.
type Collector struct {
	opts Options
}

// NewCollector returns a system collector with the given options.
func NewCollector(opts Options) *Collector {
	return &Collector{opts: opts}
}

// Collect reads CPU, memory, swap, network, disk and the requested detail
// blocks. Only missing CPU or memory data fails the tick; everything else
// degrades to Unsupported or is skipped.
func (c *Collector) Collect(ctx context.Context, store *Store, seconds float64) (types.SystemMetrics, error) {
	var m types.SystemMetrics

	total, err := cpuPercent(ctx, 0, false)
	if err != nil {
		return m, fmt.Errorf("reading cpu usage: %w", err)
	}
	if len(total) == 0 {
		return m, errNoCPUData
	}
	m.CPUPercent = total[0]
	if perCPU, err := cpuPercent(ctx, 0, true); err == nil {
		m.PerCPU = perCPU
	}

	vm, err := virtualMemory(ctx)
	if err != nil {
		return m, fmt.Errorf("reading memory usage: %w", err)
	}
	m.MemoryUsed = vm.Used
	m.MemoryTotal = vm.Total
	m.MemoryPercent = vm.UsedPercent

	if swap, err := swapMemory(ctx); err == nil && swap != nil {
		m.SwapUsed = swap.Used
		m.SwapTotal = swap.Total
		m.SwapPercent = swap.UsedPercent
	}

	live := make(map[string]struct{})
	var nicRates map[string]types.Rates
	m.Network, nicRates = c.networkRates(ctx, store, seconds, live)
	m.Disk = c.diskRates(ctx, store, seconds, live)
	m.Partitions = c.partitions(ctx)

	m.SensorsRequested = c.opts.Sensors
	m.Sensors = types.Unsupported[[]types.SensorReading]()
	if c.opts.Sensors {
		m.Sensors = c.sensors(ctx)
	}

	m.NetworkDetailRequested = c.opts.NetworkDetail
	m.Interfaces = types.Unsupported[[]types.InterfaceDetail]()
	m.Connections = types.Unsupported[types.ConnectionSummary]()
	if c.opts.NetworkDetail {
		m.Interfaces = c.interfaces(ctx, nicRates)
		m.Connections = c.connections(ctx)
	}

	store.Prune(live)
	return m, nil
}

// track computes rates for key against its previous reading and records cur.
func track(store *Store, key string, cur types.Counters, seconds float64, live map[string]struct{}) types.Rates {
	prev, seen := store.Get(key)
	store.Put(key, cur)
	live[key] = struct{}{}
	return counters.Calculate(prev, seen, cur, seconds)
}

// networkRates tracks every interface separately and reports their summed
// rates, along with the per-interface rates for the detail block.
func (c *Collector) networkRates(ctx context.Context, store *Store, seconds float64, live map[string]struct{}) (types.Optional[types.Rates], map[string]types.Rates) {
	stats, err := netIOCounters(ctx, true)
	if err != nil || len(stats) == 0 {
		return types.Unsupported[types.Rates](), nil
	}
	var total types.Rates
	perNIC := make(map[string]types.Rates, len(stats))
	for _, st := range stats {
		cur := types.Counters{Read: st.BytesRecv, Write: st.BytesSent}
		r := track(store, nicKeyPref+st.Name, cur, seconds, live)
		perNIC[st.Name] = r
		total.Read += r.Read
		total.Write += r.Write
	}
	return types.Present(total), perNIC
}

func (c *Collector) diskRates(ctx context.Context, store *Store, seconds float64, live map[string]struct{}) types.Optional[types.Rates] {
	stats, err := diskIOCounters(ctx)
	if err != nil || len(stats) == 0 {
		return types.Unsupported[types.Rates]()
	}
	var total types.Rates
	for name, st := range stats {
		if !wholeDisk(name) {
			continue
		}
		cur := types.Counters{Read: st.ReadBytes, Write: st.WriteBytes}
		r := track(store, diskKeyPref+name, cur, seconds, live)
		total.Read += r.Read
		total.Write += r.Write
	}
	return types.Present(total)
}

func (c *Collector) partitions(ctx context.Context) []types.PartitionUsage {
	parts, err := diskPartitions(ctx, false)
	if err != nil {
		return nil
	}
	usage := make([]types.PartitionUsage, 0, len(parts))
	for _, p := range parts {
		u, err := diskUsage(ctx, p.Mountpoint)
		if err != nil || u == nil {
			continue
		}
		usage = append(usage, types.PartitionUsage{
			Device:      p.Device,
			Mountpoint:  p.Mountpoint,
			Fstype:      p.Fstype,
			Total:       u.Total,
			Used:        u.Used,
			UsedPercent: u.UsedPercent,
		})
	}
	return usage
}

func (c *Collector) sensors(ctx context.Context) types.Optional[[]types.SensorReading] {
	// gopsutil returns partial readings together with a warnings error.
	temps, _ := temperatures(ctx)
	if len(temps) == 0 {
		return types.Unsupported[[]types.SensorReading]()
	}
	readings := make([]types.SensorReading, 0, len(temps))
	for _, t := range temps {
		readings = append(readings, types.SensorReading{
			Key:         t.SensorKey,
			Temperature: t.Temperature,
			High:        t.High,
			Critical:    t.Critical,
		})
	}
	return types.Present(readings)
}

func (c *Collector) interfaces(ctx context.Context, nicRates map[string]types.Rates) types.Optional[[]types.InterfaceDetail] {
	ifaces, err := netInterfaces(ctx)
	if err != nil {
		return types.Unsupported[[]types.InterfaceDetail]()
	}

	details := make([]types.InterfaceDetail, 0, len(ifaces))
	for _, iface := range ifaces {
		d := types.InterfaceDetail{
			Name:         iface.Name,
			MTU:          iface.MTU,
			HardwareAddr: iface.HardwareAddr,
			Up:           slices.Contains(iface.Flags, "up"),
			Loopback:     slices.Contains(iface.Flags, "loopback"),
			Rates:        types.Unsupported[types.Rates](),
		}
		for _, a := range iface.Addrs {
			d.Addrs = append(d.Addrs, a.Addr)
		}
		if r, ok := nicRates[iface.Name]; ok {
			d.Rates = types.Present(r)
		}
		details = append(details, d)
	}
	return types.Present(details)
}

func (c *Collector) connections(ctx context.Context) types.Optional[types.ConnectionSummary] {
	conns, err := netConnections(ctx, "inet")
	if err != nil {
		return types.Unsupported[types.ConnectionSummary]()
	}
	summary := types.ConnectionSummary{Total: len(conns), ByStatus: make(map[string]int)}
	for _, conn := range conns {
		status := conn.Status
		if status == "" {
			status = "NONE"
		}
		summary.ByStatus[status]++
	}
	return types.Present(summary)
}
