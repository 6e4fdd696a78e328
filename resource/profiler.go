package resource

import (
	"sort"
	"time"
)

// ProfilerConfig tunes leak-detection thresholds (§6 "Profiler config").
type ProfilerConfig struct {
	Enabled               bool
	MaxSnapshots          int
	MaxEvents             int
	SnapshotInterval      time.Duration
	LeakAgeThreshold      time.Duration
	LeakRefCountThreshold int32
}

// TypeAggregate summarizes every entry of one Type.
type TypeAggregate struct {
	Type       Type
	Count      int
	TotalSize  int64
	AverageSize float64
}

// Snapshot is one point-in-time summary of the cache's contents.
type Snapshot struct {
	Taken         time.Time
	TotalSize     int64
	TotalCount    int
	ByType        []TypeAggregate
	ByState       map[State]int
	TopConsumers  []Entry // top 10 by Size, descending
}

// LeakReport flags entries that look abandoned.
type LeakReport struct {
	UnreferencedStale []Entry // refCount==0, age > leakAgeThreshold
	StuckLoading      []Entry // state==loading, age > leakAgeThreshold
	OverReferenced    []Entry // refCount > leakRefCountThreshold
}

// Profiler computes Snapshots and LeakReports over a Cache without holding
// any state of its own beyond the bounded snapshot ring.
type Profiler struct {
	cfg       ProfilerConfig
	cache     *Cache
	snapshots []Snapshot
}

func NewProfiler(cfg ProfilerConfig, cache *Cache) *Profiler {
	return &Profiler{cfg: cfg, cache: cache}
}

// Snapshot computes and records a new Snapshot, trimming the ring to
// MaxSnapshots (oldest dropped first).
func (p *Profiler) Snapshot(now time.Time) Snapshot {
	entries := p.cache.Snapshot()

	snap := Snapshot{Taken: now, ByState: make(map[State]int)}
	byType := make(map[Type]*TypeAggregate)

	for _, e := range entries {
		snap.TotalSize += e.Size
		snap.TotalCount++
		snap.ByState[e.State]++

		agg, ok := byType[e.Type]
		if !ok {
			agg = &TypeAggregate{Type: e.Type}
			byType[e.Type] = agg
		}
		agg.Count++
		agg.TotalSize += e.Size
	}
	for _, agg := range byType {
		if agg.Count > 0 {
			agg.AverageSize = float64(agg.TotalSize) / float64(agg.Count)
		}
		snap.ByType = append(snap.ByType, *agg)
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Size > entries[j].Size })
	top := entries
	if len(top) > 10 {
		top = top[:10]
	}
	snap.TopConsumers = top

	if p.cfg.MaxSnapshots > 0 && len(p.snapshots) >= p.cfg.MaxSnapshots {
		p.snapshots = p.snapshots[1:]
	}
	p.snapshots = append(p.snapshots, snap)
	return snap
}

// Snapshots returns every recorded snapshot, oldest first.
func (p *Profiler) Snapshots() []Snapshot {
	return p.snapshots
}

// DetectLeaks scans the live cache for entries matching one of the three
// leak heuristics (§4.9 "Memory profiler").
func (p *Profiler) DetectLeaks(now time.Time) LeakReport {
	var report LeakReport
	for _, e := range p.cache.Snapshot() {
		age := now.Sub(e.LastAccessed)
		switch {
		case e.RefCount == 0 && age > p.cfg.LeakAgeThreshold:
			report.UnreferencedStale = append(report.UnreferencedStale, e)
		case e.State == StateLoading && age > p.cfg.LeakAgeThreshold:
			report.StuckLoading = append(report.StuckLoading, e)
		}
		if e.RefCount > p.cfg.LeakRefCountThreshold {
			report.OverReferenced = append(report.OverReferenced, e)
		}
	}
	return report
}
