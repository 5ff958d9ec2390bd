package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/gabapcia/tally/internal/tally"

	redis "github.com/redis/go-redis/v9"
)

// keyPrefix is the namespace of every key written by this package.
const keyPrefix = "tally"

func countsKey(name string) string {
	return fmt.Sprintf("%s:count:%s", keyPrefix, name)
}

func sumsKey(name string) string {
	return fmt.Sprintf("%s:sum:%s", keyPrefix, name)
}

func groupIndexKey(name string) string {
	return fmt.Sprintf("%s:groups:%s", keyPrefix, name)
}

func groupKey(name, key string) string {
	return fmt.Sprintf("%s:group:%s:%s", keyPrefix, name, key)
}

// replaceHash overwrites the hash at key with fields in a single transaction.
func (c *client) replaceHash(ctx context.Context, key string, fields []any) error {
	_, err := c.conn.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		if len(fields) > 0 {
			pipe.HSet(ctx, key, fields...)
		}
		return nil
	})
	return err
}

// SaveCounts replaces the stored counts of run name.
func (c *client) SaveCounts(ctx context.Context, name string, counts map[string]int) error {
	fields := make([]any, 0, len(counts)*2)
	for key, n := range counts {
		fields = append(fields, key, n)
	}

	return c.replaceHash(ctx, countsKey(name), fields)
}

// LoadCounts returns the stored counts of run name, or an empty map.
func (c *client) LoadCounts(ctx context.Context, name string) (map[string]int, error) {
	raw, err := c.conn.HGetAll(ctx, countsKey(name)).Result()
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int, len(raw))
	for key, v := range raw {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("decode count of %q: %w", key, err)
		}
		counts[key] = n
	}

	return counts, nil
}

// SaveSums replaces the stored sums of run name.
func (c *client) SaveSums(ctx context.Context, name string, sums map[string]float64) error {
	fields := make([]any, 0, len(sums)*2)
	for key, v := range sums {
		fields = append(fields, key, strconv.FormatFloat(v, 'f', -1, 64))
	}

	return c.replaceHash(ctx, sumsKey(name), fields)
}

// LoadSums returns the stored sums of run name, or an empty map.
func (c *client) LoadSums(ctx context.Context, name string) (map[string]float64, error) {
	raw, err := c.conn.HGetAll(ctx, sumsKey(name)).Result()
	if err != nil {
		return nil, err
	}

	sums := make(map[string]float64, len(raw))
	for key, v := range raw {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("decode sum of %q: %w", key, err)
		}
		sums[key] = f
	}

	return sums, nil
}

// maxWatchAttempts bounds how often SaveGroups retries when the group index
// changes between reading and replacing it.
const maxWatchAttempts = 5

// SaveGroups replaces the stored groups of run name. Groups of keys that are
// no longer present are removed.
//
// The index is watched while it is read, so a concurrent save of the same run
// aborts the transaction instead of leaving its per-key sets behind.
func (c *client) SaveGroups(ctx context.Context, name string, groups map[string][]string) error {
	indexKey := groupIndexKey(name)

	replace := func(tx *redis.Tx) error {
		previous, err := tx.SMembers(ctx, indexKey).Result()
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			stale := make([]string, 0, len(previous)+1)
			stale = append(stale, indexKey)
			for _, key := range previous {
				stale = append(stale, groupKey(name, key))
			}
			pipe.Del(ctx, stale...)

			for key, values := range groups {
				pipe.SAdd(ctx, indexKey, key)
				if len(values) == 0 {
					continue
				}

				members := make([]any, len(values))
				for i, v := range values {
					members[i] = v
				}
				pipe.SAdd(ctx, groupKey(name, key), members...)
			}

			return nil
		})
		return err
	}

	var err error
	for range maxWatchAttempts {
		err = c.conn.Watch(ctx, replace, indexKey)
		if !errors.Is(err, redis.TxFailedErr) {
			return err
		}
	}

	return fmt.Errorf("save groups of %q: %w", name, err)
}

// LoadGroups returns the stored groups of run name, or an empty map.
func (c *client) LoadGroups(ctx context.Context, name string) (map[string][]string, error) {
	keys, err := c.conn.SMembers(ctx, groupIndexKey(name)).Result()
	if err != nil {
		return nil, err
	}

	groups := make(map[string][]string, len(keys))
	if len(keys) == 0 {
		return groups, nil
	}

	cmds := make(map[string]*redis.StringSliceCmd, len(keys))
	_, err = c.conn.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, key := range keys {
			cmds[key] = pipe.SMembers(ctx, groupKey(name, key))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for key, cmd := range cmds {
		groups[key] = cmd.Val()
	}

	return groups, nil
}

// Compile-time assertion to ensure *client satisfies the tally.SnapshotStorage interface
var _ tally.SnapshotStorage = new(client)
