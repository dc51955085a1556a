package dataframe

import (
	"strings"

	xxhash "github.com/cespare/xxhash/v2"
	dferrors "github.com/paveg/tabula/internal/errors"
	"github.com/paveg/tabula/internal/series"
)

const (
	hashMapLoadFactor     = 0.75 // load factor for the group index
	hashMapGrowthFactor   = 2    // growth factor for resize
	hashMapCapacityFactor = 1.3  // capacity factor for initial size

	// KeySeparator joins the parts of a composite group key.
	KeySeparator = "\x1f"
)

// GroupIndex maps group keys to the row indices that share them. Groups are
// remembered in the order their first row was seen.
type GroupIndex struct {
	buckets  [][]groupEntry
	capacity int
	groups   []*Group
}

// Group is one distinct key with its member rows.
type Group struct {
	Key  string
	Rows []int
}

type groupEntry struct {
	key   string
	group *Group
}

// NewGroupIndex creates an index sized for roughly estimatedSize groups.
func NewGroupIndex(estimatedSize int) *GroupIndex {
	capacity := nextPowerOfTwo(int(float64(estimatedSize) * hashMapCapacityFactor))
	return &GroupIndex{
		buckets:  make([][]groupEntry, capacity),
		capacity: capacity,
	}
}

// Add records row under key.
func (gi *GroupIndex) Add(key string, row int) {
	idx := gi.bucket(key, gi.capacity)

	for _, entry := range gi.buckets[idx] {
		if entry.key == key {
			entry.group.Rows = append(entry.group.Rows, row)
			return
		}
	}

	g := &Group{Key: key, Rows: []int{row}}
	gi.buckets[idx] = append(gi.buckets[idx], groupEntry{key: key, group: g})
	gi.groups = append(gi.groups, g)

	if float64(len(gi.groups)) > float64(gi.capacity)*hashMapLoadFactor {
		gi.resize()
	}
}

// Get retrieves the rows recorded under key.
func (gi *GroupIndex) Get(key string) ([]int, bool) {
	for _, entry := range gi.buckets[gi.bucket(key, gi.capacity)] {
		if entry.key == key {
			return entry.group.Rows, true
		}
	}
	return nil, false
}

// Groups returns the groups in first-encounter order.
func (gi *GroupIndex) Groups() []*Group {
	return gi.groups
}

// Len returns the number of distinct keys.
func (gi *GroupIndex) Len() int {
	return len(gi.groups)
}

func (gi *GroupIndex) bucket(key string, capacity int) int {
	//nolint:gosec // capacity is always a positive power of two
	return int(xxhash.Sum64String(key) & uint64(capacity-1))
}

// resize doubles the capacity and rehashes all entries.
func (gi *GroupIndex) resize() {
	newCapacity := gi.capacity * hashMapGrowthFactor
	newBuckets := make([][]groupEntry, newCapacity)

	for _, bucket := range gi.buckets {
		for _, entry := range bucket {
			idx := gi.bucket(entry.key, newCapacity)
			newBuckets[idx] = append(newBuckets[idx], entry)
		}
	}

	gi.buckets = newBuckets
	gi.capacity = newCapacity
}

// nextPowerOfTwo returns the next power of two >= n.
func nextPowerOfTwo(n int) int {
	if n <= 1 {
		return 1
	}
	power := 1
	for power < n {
		power <<= 1
	}
	return power
}

// GroupBy indexes the rows of ds by the canonical text of the key columns.
// Rows with a null in any key column are skipped.
func (ds *Dataset) GroupBy(keys ...string) (*GroupIndex, error) {
	cols := make([]*series.Column, 0, len(keys))
	for _, k := range keys {
		c, ok := ds.Column(k)
		if !ok {
			return nil, dferrors.NewUnknownColumnError("GroupBy", k)
		}
		cols = append(cols, c)
	}

	gi := NewGroupIndex(ds.Len()/4 + 1)
	parts := make([]string, len(cols))

rows:
	for i := 0; i < ds.Len(); i++ {
		for j, c := range cols {
			if c.IsNull(i) {
				continue rows
			}
			parts[j] = c.Text(i)
		}
		gi.Add(strings.Join(parts, KeySeparator), i)
	}
	return gi, nil
}
