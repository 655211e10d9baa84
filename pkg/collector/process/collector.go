package process

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"sort"

	"github.com/shirou/gopsutil/v4/cpu"
	gops "github.com/shirou/gopsutil/v4/process"

	"github.com/lfsj/RealNerdStats/pkg/counters"
	"github.com/lfsj/RealNerdStats/pkg/types"
)

// Store is the per-pid counter store the collector reads and refreshes.
type Store = counters.Store[int32, types.ProcessCounters]

// handle is the subset of *process.Process the collector reads.
type handle interface {
	NameWithContext(ctx context.Context) (string, error)
	TimesWithContext(ctx context.Context) (*cpu.TimesStat, error)
	MemoryInfoWithContext(ctx context.Context) (*gops.MemoryInfoStat, error)
	IOCountersWithContext(ctx context.Context) (*gops.IOCountersStat, error)
}

type entry struct {
	pid int32
	h   handle
}

// listProcesses is a package var so tests can stub the OS.
var listProcesses = func(ctx context.Context) ([]entry, error) {
	procs, err := gops.ProcessesWithContext(ctx)
	if err != nil {
		return nil, err
	}
	entries := make([]entry, 0, len(procs))
	for _, p := range procs {
		entries = append(entries, entry{pid: p.Pid, h: p})
	}
	return entries, nil
}

// Collector enumerates live processes and derives per-process rates.
type Collector struct{}

// NewCollector returns a process collector backed by gopsutil.
func NewCollector() *Collector {
	return &Collector{}
}

// Collect reads every accessible process, ranks the records by CPU percent and
// refreshes store so it holds exactly the pids seen this tick. totalMem is the
// tick's physical memory total; memory percent stays 0 when it is 0. The
// returned slice is never truncated.
func (c *Collector) Collect(ctx context.Context, store *Store, seconds float64, totalMem uint64) ([]types.ProcessRecord, error) {
	entries, err := listProcesses(ctx)
	if err != nil {
		return nil, fmt.Errorf("enumerating processes: %w", err)
	}

	records := make([]types.ProcessRecord, 0, len(entries))
	live := make(map[int32]struct{}, len(entries))
	for _, e := range entries {
		cur, rec, ok := sample(ctx, e, totalMem)
		if !ok {
			continue
		}

		prev, seen := store.Get(e.pid)
		if seen {
			rec.CPUPercent = counters.Rate(prev.CPUTimeNs, cur.CPUTimeNs, seconds) / 1e9 * 100
		}
		if io, ok := cur.IO.Get(); ok {
			prevIO, prevOK := prev.IO.Get()
			rec.IO = types.Present(counters.Calculate(prevIO, seen && prevOK, io, seconds))
		}

		store.Put(e.pid, cur)
		live[e.pid] = struct{}{}
		records = append(records, rec)
	}
	store.Prune(live)

	Rank(records)
	return records, nil
}

// Rank orders records by CPU percent, highest first. Equal CPU keeps the
// enumeration order so ties do not flicker between ticks.
func Rank(records []types.ProcessRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].CPUPercent > records[j].CPUPercent
	})
}

// sample reads one process. ok=false means the process vanished or denied access.
func sample(ctx context.Context, e entry, totalMem uint64) (types.ProcessCounters, types.ProcessRecord, bool) {
	var cur types.ProcessCounters
	rec := types.ProcessRecord{PID: e.pid}

	times, err := e.h.TimesWithContext(ctx)
	if err != nil || times == nil {
		return cur, rec, false
	}
	cur.CPUTimeNs = uint64(math.Round((times.User + times.System) * 1e9))

	memInfo, err := e.h.MemoryInfoWithContext(ctx)
	if err != nil || memInfo == nil {
		return cur, rec, false
	}
	if totalMem > 0 {
		rec.MemoryPercent = 100 * float64(memInfo.RSS) / float64(totalMem)
	}

	name, err := e.h.NameWithContext(ctx)
	if err != nil && vanished(err) {
		return cur, rec, false
	}
	if err != nil || name == "" {
		name = commForPID(e.pid)
	}
	rec.Name = name

	if io, err := e.h.IOCountersWithContext(ctx); err == nil && io != nil {
		cur.IO = types.Present(types.Counters{Read: io.ReadBytes, Write: io.WriteBytes})
	}
	return cur, rec, true
}

func vanished(err error) bool {
	return errors.Is(err, gops.ErrorProcessNotRunning) || errors.Is(err, fs.ErrNotExist)
}
