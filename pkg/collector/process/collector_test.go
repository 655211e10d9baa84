package process

import (
	"context"
	"errors"
	"math"
	"os"
	"slices"
	"testing"

	"github.com/shirou/gopsutil/v4/cpu"
	gops "github.com/shirou/gopsutil/v4/process"

	"github.com/lfsj/RealNerdStats/pkg/counters"
	"github.com/lfsj/RealNerdStats/pkg/types"
)

type fakeProc struct {
	name     string
	nameErr  error
	cpuSec   float64
	timesErr error
	rss      uint64
	memErr   error
	read     uint64
	write    uint64
	ioErr    error
}

func (f *fakeProc) NameWithContext(context.Context) (string, error) { return f.name, f.nameErr }

func (f *fakeProc) TimesWithContext(context.Context) (*cpu.TimesStat, error) {
	if f.timesErr != nil {
		return nil, f.timesErr
	}
	return &cpu.TimesStat{User: f.cpuSec * 0.75, System: f.cpuSec * 0.25}, nil
}

func (f *fakeProc) MemoryInfoWithContext(context.Context) (*gops.MemoryInfoStat, error) {
	if f.memErr != nil {
		return nil, f.memErr
	}
	return &gops.MemoryInfoStat{RSS: f.rss}, nil
}

func (f *fakeProc) IOCountersWithContext(context.Context) (*gops.IOCountersStat, error) {
	if f.ioErr != nil {
		return nil, f.ioErr
	}
	return &gops.IOCountersStat{ReadBytes: f.read, WriteBytes: f.write}, nil
}

type fakeTable map[int32]*fakeProc

func stubOS(t *testing.T, order *[]int32, table fakeTable) {
	t.Helper()
	origList := listProcesses
	t.Cleanup(func() { listProcesses = origList })
	listProcesses = func(context.Context) ([]entry, error) {
		entries := make([]entry, 0, len(*order))
		for _, pid := range *order {
			entries = append(entries, entry{pid: pid, h: table[pid]})
		}
		return entries, nil
	}
}

func pids(records []types.ProcessRecord) []int32 {
	out := make([]int32, 0, len(records))
	for _, r := range records {
		out = append(out, r.PID)
	}
	return out
}

func TestCollectFirstSampleThenRates(t *testing.T) {
	order := []int32{10, 20}
	table := fakeTable{
		10: {name: "db", cpuSec: 1, rss: 256, read: 1000, write: 4000},
		20: {name: "web", cpuSec: 2, rss: 512, read: 0, write: 0},
	}
	stubOS(t, &order, table)

	c := NewCollector()
	store := counters.NewStore[int32, types.ProcessCounters]()

	first, err := c.Collect(context.Background(), store, 1, 1024)
	if err != nil {
		t.Fatalf("collect: %v", err)
	}
	for _, rec := range first {
		io, ok := rec.IO.Get()
		if !ok || io != (types.Rates{}) || rec.CPUPercent != 0 {
			t.Fatalf("first sample should have zero rates: %+v", rec)
		}
	}
	if first[0].PID != 10 || first[0].MemoryPercent != 25 {
		t.Fatalf("unexpected first record: %+v", first[0])
	}

	table[10].cpuSec = 1.5
	table[10].read = 1500
	table[10].write = 6000
	table[20].cpuSec = 2.1

	second, err := c.Collect(context.Background(), store, 2, 1024)
	if err != nil {
		t.Fatalf("collect: %v", err)
	}
	if got := pids(second); !slices.Equal(got, []int32{10, 20}) {
		t.Fatalf("unexpected ranking: %v", got)
	}
	db := second[0]
	if math.Abs(db.CPUPercent-25) > 1e-9 {
		t.Fatalf("expected 25%% CPU, got %v", db.CPUPercent)
	}
	io, _ := db.IO.Get()
	if io.Read != 250 || io.Write != 1000 {
		t.Fatalf("unexpected io rates: %+v", io)
	}
	if math.Abs(second[1].CPUPercent-5) > 1e-9 {
		t.Fatalf("expected 5%% CPU for web, got %v", second[1].CPUPercent)
	}
}

func TestCollectCounterResetYieldsZero(t *testing.T) {
	order := []int32{5}
	table := fakeTable{5: {name: "svc", cpuSec: 10, read: 2000, write: 2000}}
	stubOS(t, &order, table)

	c := NewCollector()
	store := counters.NewStore[int32, types.ProcessCounters]()
	if _, err := c.Collect(context.Background(), store, 1, 1); err != nil {
		t.Fatalf("collect: %v", err)
	}

	table[5].cpuSec = 1
	table[5].read = 100
	table[5].write = 2500
	recs, err := c.Collect(context.Background(), store, 1, 1)
	if err != nil {
		t.Fatalf("collect: %v", err)
	}
	io, _ := recs[0].IO.Get()
	if recs[0].CPUPercent != 0 || io.Read != 0 || io.Write != 500 {
		t.Fatalf("reset handling wrong: cpu=%v io=%+v", recs[0].CPUPercent, io)
	}
}

func TestCollectPrunesToLiveSet(t *testing.T) {
	order := []int32{1, 2, 3}
	table := fakeTable{
		1: {name: "a"},
		2: {name: "b"},
		3: {name: "c"},
		4: {name: "d"},
	}
	stubOS(t, &order, table)

	c := NewCollector()
	store := counters.NewStore[int32, types.ProcessCounters]()
	if _, err := c.Collect(context.Background(), store, 1, 1); err != nil {
		t.Fatalf("collect: %v", err)
	}

	order = []int32{2, 4}
	if _, err := c.Collect(context.Background(), store, 1, 1); err != nil {
		t.Fatalf("collect: %v", err)
	}
	keys := store.Keys()
	slices.Sort(keys)
	if !slices.Equal(keys, []int32{2, 4}) {
		t.Fatalf("store should hold exactly the live pids, got %v", keys)
	}
}

func TestCollectSkipsVanishedAndDenied(t *testing.T) {
	order := []int32{1, 2, 3, 4}
	table := fakeTable{
		1: {name: "ok"},
		2: {timesErr: gops.ErrorProcessNotRunning},
		3: {memErr: os.ErrPermission},
		4: {nameErr: gops.ErrorProcessNotRunning},
	}
	stubOS(t, &order, table)

	store := counters.NewStore[int32, types.ProcessCounters]()
	recs, err := NewCollector().Collect(context.Background(), store, 1, 1)
	if err != nil {
		t.Fatalf("per-process failures must not fail the tick: %v", err)
	}
	if got := pids(recs); !slices.Equal(got, []int32{1}) {
		t.Fatalf("expected only pid 1, got %v", got)
	}
	if store.Len() != 1 {
		t.Fatalf("skipped processes must not be tracked, got %d entries", store.Len())
	}
}

func TestCollectIOUnavailableIsNotAnError(t *testing.T) {
	order := []int32{9}
	table := fakeTable{9: {name: "locked", ioErr: os.ErrPermission, cpuSec: 1}}
	stubOS(t, &order, table)

	c := NewCollector()
	store := counters.NewStore[int32, types.ProcessCounters]()
	for i := 0; i < 2; i++ {
		recs, err := c.Collect(context.Background(), store, 1, 1)
		if err != nil {
			t.Fatalf("collect: %v", err)
		}
		if len(recs) != 1 || recs[0].IO.IsPresent() {
			t.Fatalf("expected N/A io, got %+v", recs)
		}
	}

	// Counters that appear later start from a first sample.
	table[9].ioErr = nil
	table[9].read = 1 << 20
	recs, _ := c.Collect(context.Background(), store, 1, 1)
	io, ok := recs[0].IO.Get()
	if !ok || io.Read != 0 {
		t.Fatalf("newly readable io should be a first sample, got %+v ok=%t", io, ok)
	}
}

func TestCollectNameFallback(t *testing.T) {
	t.Cleanup(func() { procReadFile = os.ReadFile })
	procReadFile = func(path string) ([]byte, error) {
		if path == "/proc/7/comm" {
			return []byte("kthreadd\n"), nil
		}
		return nil, errors.New("missing")
	}

	order := []int32{7, 8}
	table := fakeTable{
		7: {name: ""},
		8: {nameErr: os.ErrPermission},
	}
	stubOS(t, &order, table)

	recs, err := NewCollector().Collect(context.Background(), counters.NewStore[int32, types.ProcessCounters](), 1, 1)
	if err != nil {
		t.Fatalf("collect: %v", err)
	}
	if recs[0].Name != "kthreadd" || recs[1].Name != "pid-8" {
		t.Fatalf("unexpected fallback names: %q %q", recs[0].Name, recs[1].Name)
	}
}

func TestCollectEnumerationFailureIsFatal(t *testing.T) {
	orig := listProcesses
	t.Cleanup(func() { listProcesses = orig })
	boom := errors.New("no /proc")
	listProcesses = func(context.Context) ([]entry, error) { return nil, boom }

	if _, err := NewCollector().Collect(context.Background(), counters.NewStore[int32, types.ProcessCounters](), 1, 1); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped enumeration error, got %v", err)
	}
}

func TestCollectReturnsFullRanking(t *testing.T) {
	order := make([]int32, 0, 50)
	table := fakeTable{}
	for pid := int32(1); pid <= 50; pid++ {
		order = append(order, pid)
		table[pid] = &fakeProc{name: "p"}
	}
	stubOS(t, &order, table)

	recs, err := NewCollector().Collect(context.Background(), counters.NewStore[int32, types.ProcessCounters](), 1, 1)
	if err != nil {
		t.Fatalf("collect: %v", err)
	}
	if len(recs) != 50 {
		t.Fatalf("collector must not truncate, got %d records", len(recs))
	}
}

func TestRankIsStableForTies(t *testing.T) {
	records := []types.ProcessRecord{
		{PID: 30, CPUPercent: 1},
		{PID: 10, CPUPercent: 5},
		{PID: 20, CPUPercent: 1},
		{PID: 40, CPUPercent: 5},
		{PID: 50, CPUPercent: 1},
	}
	Rank(records)
	if got := pids(records); !slices.Equal(got, []int32{10, 40, 30, 20, 50}) {
		t.Fatalf("ties must keep enumeration order, got %v", got)
	}
}

func TestCollectUnknownMemoryTotal(t *testing.T) {
	order := []int32{1}
	table := fakeTable{1: {name: "init", cpuSec: 1, rss: 512}}
	stubOS(t, &order, table)

	recs, err := NewCollector().Collect(context.Background(), counters.NewStore[int32, types.ProcessCounters](), 1, 0)
	if err != nil {
		t.Fatalf("collect: %v", err)
	}
	if len(recs) != 1 || recs[0].MemoryPercent != 0 {
		t.Fatalf("memory percent should stay 0 without a total, got %+v", recs)
	}
}
