package repositories

import (
	"fmt"
	"sort"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Filter evaluation for the in-memory store. Values are compared in their canonical BSON form,
// so numbers compare as float64 and dates as milliseconds.

func lookupField(doc bson.M, path string) (interface{}, bool) {
	var cur interface{} = doc
	for _, part := range strings.Split(path, ".") {
		switch m := cur.(type) {
		case bson.M:
			v, ok := m[part]
			if !ok {
				return nil, false
			}
			cur = v
		case map[string]interface{}:
			v, ok := m[part]
			if !ok {
				return nil, false
			}
			cur = v
		case bson.D:
			found := false
			for _, e := range m {
				if e.Key == part {
					cur, found = e.Value, true
					break
				}
			}
			if !found {
				return nil, false
			}
		default:
			return nil, false
		}
	}
	return cur, true
}

type compiledFilter struct {
	field string
	op    Op
	value interface{}
}

func compileFilters(filters []Filter) ([]compiledFilter, error) {
	out := make([]compiledFilter, 0, len(filters))
	for _, f := range filters {
		switch f.Op {
		case OpEq, OpNe, OpGt, OpGte, OpLt, OpLte, OpIn:
		default:
			return nil, fmt.Errorf("unsupported filter operator %q", f.Op)
		}
		v, err := canonicalValue(f.Value)
		if err != nil {
			return nil, fmt.Errorf("filter %s: %w", f.Field, err)
		}
		if f.Op == OpIn {
			if _, ok := v.(bson.A); !ok {
				return nil, fmt.Errorf("filter %s: \"in\" needs a slice value", f.Field)
			}
		}
		out = append(out, compiledFilter{field: f.Field, op: f.Op, value: v})
	}
	return out, nil
}

func matchesAll(doc bson.M, filters []compiledFilter) bool {
	for _, f := range filters {
		if !matches(doc, f) {
			return false
		}
	}
	return true
}

func matches(doc bson.M, f compiledFilter) bool {
	actual, ok := lookupField(doc, f.field)
	if !ok {
		return f.op == OpNe
	}
	switch f.op {
	case OpEq:
		return equalValues(actual, f.value)
	case OpNe:
		return !equalValues(actual, f.value)
	case OpIn:
		for _, candidate := range f.value.(bson.A) {
			if equalValues(actual, candidate) {
				return true
			}
		}
		return false
	}

	c, comparable := compareValues(actual, f.value)
	if !comparable {
		return false
	}
	switch f.op {
	case OpGt:
		return c > 0
	case OpGte:
		return c >= 0
	case OpLt:
		return c < 0
	case OpLte:
		return c <= 0
	}
	return false
}

func equalValues(a, b interface{}) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	c, ok := compareValues(a, b)
	return ok && c == 0
}

// compareValues orders two canonical values of the same family.
func compareValues(a, b interface{}) (int, bool) {
	if fa, ok := toFloat(a); ok {
		if fb, ok := toFloat(b); ok {
			return cmp(fa, fb), true
		}
		return 0, false
	}
	switch av := a.(type) {
	case string:
		bv, ok := b.(string)
		if !ok {
			return 0, false
		}
		return strings.Compare(av, bv), true
	case bool:
		bv, ok := b.(bool)
		if !ok {
			return 0, false
		}
		switch {
		case av == bv:
			return 0, true
		case !av:
			return -1, true
		default:
			return 1, true
		}
	case primitive.DateTime:
		bv, ok := b.(primitive.DateTime)
		if !ok {
			return 0, false
		}
		return cmp(int64(av), int64(bv)), true
	}
	return 0, false
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case int:
		return float64(n), true
	}
	return 0, false
}

func cmp[T int64 | float64](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// sortDocs orders by field with missing values first, breaking ties on _id.
func sortDocs(docs []bson.M, field string, descending bool) {
	sort.SliceStable(docs, func(i, j int) bool {
		c := 0
		if field != "" {
			vi, oki := lookupField(docs[i], field)
			vj, okj := lookupField(docs[j], field)
			switch {
			case !oki && okj:
				c = -1
			case oki && !okj:
				c = 1
			case oki && okj:
				c, _ = compareValues(vi, vj)
			}
		}
		if c == 0 {
			idi, _ := docs[i]["_id"].(string)
			idj, _ := docs[j]["_id"].(string)
			c = strings.Compare(idi, idj)
		}
		if descending {
			return c > 0
		}
		return c < 0
	})
}
