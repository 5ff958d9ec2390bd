package types

import (
	"iter"
	"maps"
)

// Options configures a DefaultMap at construction time.
//
// All fields are optional. When DefaultGenerator is non-nil it is used for every
// materialization and DefaultValue is kept but never consulted. When neither is
// set, missing keys materialize as the zero value of V. The zero Options value
// is therefore the default configuration.
type Options[K comparable, V any] struct {
	// DefaultValue is the template duplicated for each missing key. Slices,
	// maps and pointers are copied one level deep; a channel template yields a
	// new empty channel of the same capacity per key.
	DefaultValue V

	// DefaultGenerator produces the value for a missing key.
	DefaultGenerator func(key K) V

	// Data holds the initial entries. They are inserted through Set.
	Data map[K]V
}

// DefaultMap is a generic map wrapper that returns default values for missing keys.
//
// Reading an absent key does not report absence: the default policy produces a
// value, the value is stored as a regular entry and then returned. Presence is
// tracked independently of the stored value, so a key explicitly set to a zero
// or nil value is still present.
//
// A DefaultMap is not safe for concurrent use.
//
// Example use case:
//
//	m := NewDefaultMap(Options[string, int]{})
//	m.Set("a", m.Get("a")+1) // "a" is 1
type DefaultMap[K comparable, V any] struct {
	data      map[K]V         // underlying map storing the key-value pairs
	generator func(key K) V   // per-key default generator, takes priority when set
	template  defaultValue[V] // classified static default
}

// NewDefaultMap creates a new DefaultMap configured by opts.
//
// Parameters:
//   - opts: default policy and optional initial data.
//
// Returns:
//   - A DefaultMap holding every entry of opts.Data.
func NewDefaultMap[K comparable, V any](opts Options[K, V]) *DefaultMap[K, V] {
	d := &DefaultMap[K, V]{
		data:      make(map[K]V, len(opts.Data)),
		generator: opts.DefaultGenerator,
		template:  classifyDefault(opts.DefaultValue),
	}

	for key, val := range opts.Data {
		d.Set(key, val)
	}

	return d
}

// FromMap builds a DefaultMap from a snapshot.
//
// It is equivalent to constructing a map without initial data and calling Set
// for every entry of data. opts.Data is ignored.
//
// Parameters:
//   - data: the snapshot to load.
//   - opts: default policy for the new map.
//
// Returns:
//   - A new DefaultMap containing exactly the entries of data.
func FromMap[K comparable, V any](data map[K]V, opts Options[K, V]) *DefaultMap[K, V] {
	opts.Data = nil

	d := NewDefaultMap(opts)
	for key, val := range data {
		d.Set(key, val)
	}

	return d
}

// Get retrieves the value associated with the given key.
//
// If the key is not present, the default policy materializes a value, which is
// stored in the map and then returned. A panic raised by the generator reaches
// the caller and leaves the key absent.
//
// Parameters:
//   - key: the key to retrieve.
//
// Returns:
//   - The value associated with the key, or the newly materialized default.
func (d *DefaultMap[K, V]) Get(key K) V {
	if val, ok := d.data[key]; ok {
		return val
	}

	val := d.materialize(key)
	d.Set(key, val)
	return val
}

// materialize computes the default for a missing key without storing it.
func (d *DefaultMap[K, V]) materialize(key K) V {
	if d.generator != nil {
		return d.generator(key)
	}
	return d.template.duplicate()
}

// Set manually assigns a value to the given key in the map.
//
// Parameters:
//   - key: the map key to assign.
//   - val: the value to associate with the key, zero values included.
func (d *DefaultMap[K, V]) Set(key K, val V) {
	d.data[key] = val
}

// Has reports whether key is present. It never materializes a default.
func (d *DefaultMap[K, V]) Has(key K) bool {
	_, ok := d.data[key]
	return ok
}

// Delete removes key from the map. Deleting an absent key is a no-op.
func (d *DefaultMap[K, V]) Delete(key K) {
	delete(d.data, key)
}

// Len returns the number of present entries.
func (d *DefaultMap[K, V]) Len() int {
	return len(d.data)
}

// IsEmpty reports whether the map has no present entries.
func (d *DefaultMap[K, V]) IsEmpty() bool {
	return len(d.data) == 0
}

// ForEach calls fn once for every present entry, passing the value first and
// the key second. Iteration order is unspecified.
//
// Adding or deleting entries from inside fn is unspecified behavior.
func (d *DefaultMap[K, V]) ForEach(fn func(val V, key K)) {
	for key, val := range d.data {
		fn(val, key)
	}
}

// All returns an iterator over every present key-value pair.
//
// The same ordering and mutation caveats as ForEach apply.
func (d *DefaultMap[K, V]) All() iter.Seq2[K, V] {
	return maps.All(d.data)
}

// Keys returns an iterator over every present key.
func (d *DefaultMap[K, V]) Keys() iter.Seq[K] {
	return maps.Keys(d.data)
}

// ToMap returns a snapshot of the present entries.
//
// The returned map is freshly allocated, so adding or removing keys on it does
// not affect the DefaultMap. Values are not copied: a slice, map or pointer
// value is shared between the snapshot and the DefaultMap.
//
// Returns:
//   - A map[K]V containing all key-value pairs in the DefaultMap.
func (d *DefaultMap[K, V]) ToMap() map[K]V {
	return maps.Clone(d.data)
}
