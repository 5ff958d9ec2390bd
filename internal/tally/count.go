package tally

import (
	"context"
	"io"

	"github.com/gabapcia/tally/internal/pkg/types"
)

// Count implements Service.
func (s *service) Count(ctx context.Context, req Request, src io.Reader) (result map[string]int, err error) {
	r, err := s.begin(ctx, "count", req)
	if err != nil {
		return nil, err
	}
	defer func() { s.end(r, err) }()

	var previous map[string]int
	if req.Resume {
		if previous, err = s.storage.LoadCounts(r.ctx, req.Name); err != nil {
			return nil, err
		}
	}

	counts := types.FromMap(previous, types.Options[string, int]{})

	err = scanRecords(src, func(rec Record) error {
		if !counts.Has(rec.Key) {
			r.keys++
		}

		counts.Set(rec.Key, counts.Get(rec.Key)+1)
		r.records++
		return nil
	})
	if err != nil {
		return nil, err
	}

	result = counts.ToMap()
	if err = s.publish(r, func(ctx context.Context) error {
		return s.storage.SaveCounts(ctx, req.Name, result)
	}); err != nil {
		return nil, err
	}

	return result, nil
}
