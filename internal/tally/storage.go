package tally

import "context"

// SnapshotStorage persists aggregation snapshots by run name.
//
// Save methods replace the whole snapshot of a run. Load methods return an
// empty map when nothing is stored.
type SnapshotStorage interface {
	LoadCounts(ctx context.Context, name string) (map[string]int, error)
	SaveCounts(ctx context.Context, name string, counts map[string]int) error

	LoadGroups(ctx context.Context, name string) (map[string][]string, error)
	SaveGroups(ctx context.Context, name string, groups map[string][]string) error

	LoadSums(ctx context.Context, name string) (map[string]float64, error)
	SaveSums(ctx context.Context, name string, sums map[string]float64) error
}
