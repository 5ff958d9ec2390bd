package tally

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/gabapcia/tally/internal/pkg/types"
)

// Sum implements Service.
//
// A record whose value is not a number fails the whole run with
// ErrInvalidRecord; nothing is published in that case.
func (s *service) Sum(ctx context.Context, req Request, src io.Reader) (result map[string]float64, err error) {
	r, err := s.begin(ctx, "sum", req)
	if err != nil {
		return nil, err
	}
	defer func() { s.end(r, err) }()

	var previous map[string]float64
	if req.Resume {
		if previous, err = s.storage.LoadSums(r.ctx, req.Name); err != nil {
			return nil, err
		}
	}

	sums := types.FromMap(previous, types.Options[string, float64]{})

	err = scanRecords(src, func(rec Record) error {
		v, err := strconv.ParseFloat(rec.Value, 64)
		if err != nil {
			return fmt.Errorf("%w: line %d: value %q of key %q is not a number", ErrInvalidRecord, rec.Line, rec.Value, rec.Key)
		}

		if !sums.Has(rec.Key) {
			r.keys++
		}

		sums.Set(rec.Key, sums.Get(rec.Key)+v)
		r.records++
		return nil
	})
	if err != nil {
		return nil, err
	}

	result = sums.ToMap()
	if err = s.publish(r, func(ctx context.Context) error {
		return s.storage.SaveSums(ctx, req.Name, result)
	}); err != nil {
		return nil, err
	}

	return result, nil
}
