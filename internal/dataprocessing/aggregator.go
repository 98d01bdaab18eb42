package dataprocessing

import (
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Group is the aggregate of one distinct key. Valid == false means the key
// had no present values and its mean is absent.
type Group struct {
	Key   Value
	Mean  float64
	Valid bool
	Rows  int // rows sharing the key
	Count int // present values among them
}

// GroupedResult holds one group per distinct present key, sorted by key
type GroupedResult struct {
	GroupColumn string
	ValueColumn string
	Groups      []Group
	Unkeyed     int // rows whose key was missing; they belong to no group
}

// Len returns the number of groups
func (g *GroupedResult) Len() int {
	return len(g.Groups)
}

// Lookup returns the group whose key renders as key
func (g *GroupedResult) Lookup(key string) (Group, bool) {
	for _, grp := range g.Groups {
		if grp.Key.String() == key {
			return grp, true
		}
	}
	return Group{}, false
}

// GroupMean groups t by groupColumn and averages valueColumn over the present
// values of each group. Both columns must exist and valueColumn must be numeric.
func GroupMean(t *Table, groupColumn, valueColumn string) (*GroupedResult, error) {
	gIdx, err := t.ColumnIndex(groupColumn)
	if err != nil {
		return nil, err
	}
	vIdx, err := t.numericColumnIndex(valueColumn)
	if err != nil {
		return nil, err
	}

	result := &GroupedResult{
		GroupColumn: groupColumn,
		ValueColumn: valueColumn,
		Groups:      []Group{},
	}

	type bucket struct {
		key    Value
		rows   int
		values []float64
	}
	buckets := make(map[string]*bucket)

	for _, row := range t.Rows {
		key := row[gIdx]
		if !key.Valid {
			result.Unkeyed++
			continue
		}
		b, ok := buckets[key.key()]
		if !ok {
			b = &bucket{key: key}
			buckets[key.key()] = b
		}
		b.rows++
		if v := row[vIdx]; v.Valid {
			b.values = append(b.values, v.Num)
		}
	}

	for _, b := range buckets {
		grp := Group{Key: b.key, Rows: b.rows, Count: len(b.values)}
		if len(b.values) > 0 {
			grp.Mean = stat.Mean(b.values, nil)
			grp.Valid = true
		}
		result.Groups = append(result.Groups, grp)
	}

	sortGroups(result.Groups)
	return result, nil
}

func sortGroups(groups []Group) {
	sort.Slice(groups, func(i, j int) bool {
		return Compare(groups[i].Key, groups[j].Key) < 0
	})
}
