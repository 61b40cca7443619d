package dispatch

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"hitman/internal/output"
)

// StatusCount is one bucket of the status histogram.
type StatusCount struct {
	Status int
	Count  int
}

// Report aggregates a flurry. Latency figures cover successful attempts
// only.
type Report struct {
	Total     int
	Completed int
	Failed    int
	Statuses  []StatusCount
	Mean      time.Duration
	Min       time.Duration
	Max       time.Duration
	Elapsed   time.Duration
}

// Aggregate builds a report from results in any order.
func Aggregate(total int, results []Result, elapsed time.Duration) *Report {
	r := &Report{Total: total, Elapsed: elapsed}

	counts := make(map[int]int)
	var sum time.Duration
	for _, res := range results {
		if !res.OK() {
			r.Failed++
			continue
		}
		counts[res.Status]++
		sum += res.Elapsed
		if r.Completed == 0 || res.Elapsed < r.Min {
			r.Min = res.Elapsed
		}
		if res.Elapsed > r.Max {
			r.Max = res.Elapsed
		}
		r.Completed++
	}
	if r.Completed > 0 {
		r.Mean = sum / time.Duration(r.Completed)
	}

	for status, n := range counts {
		r.Statuses = append(r.Statuses, StatusCount{Status: status, Count: n})
	}
	sort.Slice(r.Statuses, func(i, j int) bool { return r.Statuses[i].Status < r.Statuses[j].Status })
	return r
}

// HasLatency reports whether any attempt succeeded.
func (r *Report) HasLatency() bool { return r.Completed > 0 }

// Lines renders the summary printed after a flurry.
func (r *Report) Lines() []string {
	lines := []string{
		"# Finished in " + output.Duration(r.Elapsed),
		fmt.Sprintf("# %d of %d requests completed", r.Completed, r.Total),
	}

	statuses := make([]string, len(r.Statuses))
	for i, s := range r.Statuses {
		statuses[i] = fmt.Sprintf("%d (%d)", s.Status, s.Count)
	}
	lines = append(lines, "# Results: "+strings.Join(statuses, ", "))

	if !r.HasLatency() {
		return append(lines, "# Average: no data")
	}
	return append(lines,
		"# Average: "+output.Duration(r.Mean),
		"# Slowest: "+output.Duration(r.Max),
		"# Fastest: "+output.Duration(r.Min),
	)
}
