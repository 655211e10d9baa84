package types

import "time"

// DefaultTopK controls how many top processes we display and export per tick.
const DefaultTopK = 5

// Counters is a cumulative OS counter pair captured at one point in time.
// Network readings store bytes received in Read and bytes sent in Write.
type Counters struct {
	Read  uint64
	Write uint64
}

// Rates holds per-second rates derived from two Counters readings.
type Rates struct {
	Read  float64
	Write float64
}

// ProcessCounters is what the process counter store keeps per pid between ticks.
type ProcessCounters struct {
	IO        Optional[Counters]
	CPUTimeNs uint64
}

// ProcessRecord is one live process as observed during a single tick.
type ProcessRecord struct {
	PID           int32
	Name          string
	CPUPercent    float64
	MemoryPercent float64
	IO            Optional[Rates] // Unsupported when the OS withholds I/O counters
}

// PartitionUsage describes one mounted filesystem.
type PartitionUsage struct {
	Device      string
	Mountpoint  string
	Fstype      string
	Total       uint64
	Used        uint64
	UsedPercent float64
}

// SensorReading is a single temperature sensor in degrees Celsius.
type SensorReading struct {
	Key         string
	Temperature float64
	High        float64
	Critical    float64
}

// InterfaceDetail describes one network interface for the extended network view.
type InterfaceDetail struct {
	Name         string
	MTU          int
	HardwareAddr string
	Addrs        []string
	Up           bool
	Loopback     bool
	Rates        Optional[Rates]
}

// ConnectionSummary counts open inet sockets by TCP state.
type ConnectionSummary struct {
	Total    int
	ByStatus map[string]int
}

// SystemMetrics aggregates the host-wide figures of one tick.
type SystemMetrics struct {
	CPUPercent float64
	PerCPU     []float64

	MemoryUsed    uint64
	MemoryTotal   uint64
	MemoryPercent float64
	SwapUsed      uint64
	SwapTotal     uint64
	SwapPercent   float64

	Network Optional[Rates] // Read = received, Write = sent
	Disk    Optional[Rates]

	Partitions []PartitionUsage

	// Detail blocks are Unsupported when not requested or when the platform lacks them.
	SensorsRequested       bool
	Sensors                Optional[[]SensorReading]
	NetworkDetailRequested bool
	Interfaces             Optional[[]InterfaceDetail]
	Connections            Optional[ConnectionSummary]
}

// Snapshot is the immutable result of one sampling tick.
type Snapshot struct {
	Seq       uint64
	Timestamp time.Time
	Elapsed   time.Duration // actual wall-clock time the rates were computed over
	System    SystemMetrics
	Processes []ProcessRecord // ranked by CPU percent, untruncated
}

// Unix returns the snapshot timestamp as fractional epoch seconds.
func (s Snapshot) Unix() float64 {
	return float64(s.Timestamp.Unix()) + float64(s.Timestamp.Nanosecond())/1e9
}
