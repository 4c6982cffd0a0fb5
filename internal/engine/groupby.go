package engine

import (
	"sort"
	"strconv"

	xxhash "github.com/cespare/xxhash/v2"
	"github.com/paveg/bikeshare/internal/dataframe"
	"github.com/paveg/bikeshare/internal/labels"
)

// Key is one component of a row key. Rank is the declared position of a
// categorical label, the value itself for ordinal keys, or -1 for a label
// outside its declared order.
type Key struct {
	Dimension string `json:"dimension"`
	Label     string `json:"label"`
	Rank      int    `json:"rank"`
}

// keyFunc extracts a key for a row; ok is false when the row has no value.
type keyFunc func(row int) (key Key, ok bool)

// labelKey reads a categorical string column.
func labelKey(frame *dataframe.DataFrame, column string, dim labels.Dimension) keyFunc {
	col, ok := frame.Strings(column)
	if !ok {
		return func(int) (Key, bool) { return Key{}, false }
	}
	return func(row int) (Key, bool) {
		v, valid := col.Value(row)
		if !valid {
			return Key{}, false
		}
		return Key{Dimension: column, Label: v, Rank: labels.Rank(dim, v)}, true
	}
}

// ordinalKey reads an integer column whose keys sort numerically.
func ordinalKey(frame *dataframe.DataFrame, column string) keyFunc {
	col, ok := frame.Int64s(column)
	if !ok {
		return func(int) (Key, bool) { return Key{}, false }
	}
	return func(row int) (Key, bool) {
		v, valid := col.Value(row)
		if !valid {
			return Key{}, false
		}
		return Key{Dimension: column, Label: strconv.FormatInt(v, 10), Rank: int(v)}, true
	}
}

// constantKey tags every row with the same key.
func constantKey(k Key) keyFunc {
	return func(int) (Key, bool) { return k, true }
}

type group struct {
	keys []Key
	rows []int
}

// groupIndex buckets rows by key using xxhash; collisions fall back to
// comparing the labels.
type groupIndex struct {
	buckets map[uint64][]int
	groups  []*group
}

func newGroupIndex(sizeHint int) *groupIndex {
	return &groupIndex{buckets: make(map[uint64][]int, sizeHint)}
}

func hashKeys(keys []Key) uint64 {
	d := xxhash.New()
	for _, k := range keys {
		_, _ = d.WriteString(k.Dimension)
		_, _ = d.Write([]byte{0})
		_, _ = d.WriteString(k.Label)
		_, _ = d.Write([]byte{0})
	}
	return d.Sum64()
}

func (g *groupIndex) add(keys []Key, row int) {
	h := hashKeys(keys)
	for _, pos := range g.buckets[h] {
		if sameKeys(g.groups[pos].keys, keys) {
			g.groups[pos].rows = append(g.groups[pos].rows, row)
			return
		}
	}
	g.buckets[h] = append(g.buckets[h], len(g.groups))
	g.groups = append(g.groups, &group{keys: keys, rows: []int{row}})
}

func sameKeys(a, b []Key) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Dimension != b[i].Dimension || a[i].Label != b[i].Label {
			return false
		}
	}
	return true
}

// sorted returns the groups in key order.
func (g *groupIndex) sorted() []*group {
	out := append([]*group(nil), g.groups...)
	sort.SliceStable(out, func(i, j int) bool {
		return lessKeys(out[i].keys, out[j].keys)
	})
	return out
}

// groupRows partitions rows by keys. Rows where any key is missing are skipped.
func groupRows(rows []int, keys ...keyFunc) []*group {
	idx := newGroupIndex(len(rows))
	for _, row := range rows {
		k := make([]Key, 0, len(keys))
		complete := true
		for _, f := range keys {
			key, ok := f(row)
			if !ok {
				complete = false
				break
			}
			k = append(k, key)
		}
		if complete {
			idx.add(k, row)
		}
	}
	return idx.sorted()
}

func lessKeys(a, b []Key) bool {
	for i := range a {
		if c := compareKey(a[i], b[i]); c != 0 {
			return c < 0
		}
	}
	return false
}

// compareKey orders ranked keys by rank ahead of unranked keys, which sort
// by label.
func compareKey(a, b Key) int {
	switch {
	case a.Rank >= 0 && b.Rank >= 0:
		return a.Rank - b.Rank
	case a.Rank >= 0:
		return -1
	case b.Rank >= 0:
		return 1
	case a.Label < b.Label:
		return -1
	case a.Label > b.Label:
		return 1
	default:
		return 0
	}
}
