package pipeline

import "sort"

// AssetWorkload is one asset's accumulated order count, the load measure
// LPT bucketing balances across sequential workers.
type AssetWorkload struct {
	AssetCode  string
	OrderCount uint64
}

// AssignWorkers buckets assets onto numWorkers sequential workers using
// longest-processing-time-first: sort assets by descending order count,
// then repeatedly hand the next asset to whichever worker currently
// carries the least load. Mirrors main.cpp's asset_workloads sort followed
// by the greedy min-element assignment loop.
func AssignWorkers(workloads []AssetWorkload, numWorkers int) map[string]int {
	sorted := make([]AssetWorkload, len(workloads))
	copy(sorted, workloads)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].OrderCount > sorted[j].OrderCount })

	assignment := make(map[string]int, len(sorted))
	loads := make([]uint64, numWorkers)
	for _, w := range sorted {
		minWorker := 0
		for i := 1; i < numWorkers; i++ {
			if loads[i] < loads[minWorker] {
				minWorker = i
			}
		}
		assignment[w.AssetCode] = minWorker
		loads[minWorker] += w.OrderCount
	}
	return assignment
}
