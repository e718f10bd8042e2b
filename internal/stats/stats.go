package stats

import (
	"sort"

	"github.com/reqsift/reqsift/internal/model"
)

// SlowestLimit caps how many of the slowest requests a snapshot carries.
const SlowestLimit = 5

// Stats is a point-in-time summary of the records collected so far.
type Stats struct {
	TotalRequests    int             `json:"total_requests"`
	DatacenterCounts map[string]int  `json:"datacenter_counts"`
	StatusCounts     map[string]int  `json:"status_counts"`
	MinSeconds       float64         `json:"min_seconds"`
	MaxSeconds       float64         `json:"max_seconds"`
	AvgSeconds       float64         `json:"avg_seconds"`
	P50Seconds       float64         `json:"p50_seconds"`
	P95Seconds       float64         `json:"p95_seconds"`
	Slowest          []*model.Record `json:"slowest"`
}

// Collector accumulates completed records into summary statistics over a
// single extraction pass.
type Collector struct {
	datacenterCounts map[string]int
	statusCounts     map[string]int
	durations        []float64
	records          []*model.Record
}

func New() *Collector {
	return &Collector{
		datacenterCounts: make(map[string]int),
		statusCounts:     make(map[string]int),
	}
}

// Add records one completed request.
func (c *Collector) Add(rec *model.Record) {
	c.datacenterCounts[rec.Datacenter]++
	c.statusCounts[rec.Status]++
	c.durations = append(c.durations, rec.Seconds)
	c.records = append(c.records, rec)
}

// Snapshot computes the summary. Percentiles use the nearest-rank method
// over the observed durations.
func (c *Collector) Snapshot() Stats {
	s := Stats{
		TotalRequests:    len(c.records),
		DatacenterCounts: make(map[string]int, len(c.datacenterCounts)),
		StatusCounts:     make(map[string]int, len(c.statusCounts)),
	}
	for k, v := range c.datacenterCounts {
		s.DatacenterCounts[k] = v
	}
	for k, v := range c.statusCounts {
		s.StatusCounts[k] = v
	}
	if len(c.durations) == 0 {
		return s
	}

	sorted := make([]float64, len(c.durations))
	copy(sorted, c.durations)
	sort.Float64s(sorted)

	var sum float64
	for _, d := range sorted {
		sum += d
	}
	s.MinSeconds = sorted[0]
	s.MaxSeconds = sorted[len(sorted)-1]
	s.AvgSeconds = sum / float64(len(sorted))
	s.P50Seconds = percentile(sorted, 50)
	s.P95Seconds = percentile(sorted, 95)

	slowest := make([]*model.Record, len(c.records))
	copy(slowest, c.records)
	sort.SliceStable(slowest, func(i, j int) bool {
		return slowest[i].Seconds > slowest[j].Seconds
	})
	if len(slowest) > SlowestLimit {
		slowest = slowest[:SlowestLimit]
	}
	s.Slowest = slowest
	return s
}

// percentile returns the nearest-rank percentile of a sorted slice.
func percentile(sorted []float64, p int) float64 {
	rank := (p*len(sorted) + 99) / 100
	if rank < 1 {
		rank = 1
	}
	return sorted[rank-1]
}
