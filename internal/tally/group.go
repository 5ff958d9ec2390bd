package tally

import (
	"context"
	"io"
	"slices"

	"github.com/gabapcia/tally/internal/pkg/types"
)

// Group implements Service.
//
// Each key starts from a copy of an empty set template; records without a
// value still create the key with an empty group.
func (s *service) Group(ctx context.Context, req Request, src io.Reader) (result map[string][]string, err error) {
	r, err := s.begin(ctx, "group", req)
	if err != nil {
		return nil, err
	}
	defer func() { s.end(r, err) }()

	var previous map[string][]string
	if req.Resume {
		if previous, err = s.storage.LoadGroups(r.ctx, req.Name); err != nil {
			return nil, err
		}
	}

	seed := make(map[string]types.Set[string], len(previous))
	for key, values := range previous {
		seed[key] = types.NewSet(values...)
	}

	groups := types.FromMap(seed, types.Options[string, types.Set[string]]{
		DefaultValue: types.NewSet[string](),
	})

	err = scanRecords(src, func(rec Record) error {
		if !groups.Has(rec.Key) {
			r.keys++
		}

		set := groups.Get(rec.Key)
		if rec.Value != "" {
			set.Add(rec.Value)
		}

		r.records++
		return nil
	})
	if err != nil {
		return nil, err
	}

	result = make(map[string][]string, groups.Len())
	groups.ForEach(func(set types.Set[string], key string) {
		values := slices.AppendSeq(make([]string, 0, len(set)), set.ToIter())
		slices.Sort(values)
		result[key] = values
	})

	if err = s.publish(r, func(ctx context.Context) error {
		return s.storage.SaveGroups(ctx, req.Name, result)
	}); err != nil {
		return nil, err
	}

	return result, nil
}
