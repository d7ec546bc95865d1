package docstore

import (
	"encoding/json"
	"sort"
	"strings"
	"time"
)

// Apply evaluates q over an unordered document set: it orders by q.OrderBy
// (document id breaks ties), skips through q.After and truncates to q.Limit.
// Backends without server-side queries use it.
func Apply(docs []Document, q Query) Page {
	ordered := make([]Document, len(docs))
	copy(ordered, docs)
	sort.SliceStable(ordered, func(i, j int) bool {
		c := compareDocs(ordered[i], ordered[j], q.OrderBy)
		if q.Direction == Desc {
			return c > 0
		}
		return c < 0
	})

	if q.After != nil {
		pivot := Document{ID: q.After.id}
		if q.OrderBy != "" {
			pivot.Data = map[string]any{q.OrderBy: q.After.value}
		}
		start := len(ordered)
		for i, doc := range ordered {
			c := compareDocs(doc, pivot, q.OrderBy)
			if (q.Direction == Desc && c < 0) || (q.Direction != Desc && c > 0) {
				start = i
				break
			}
		}
		ordered = ordered[start:]
	}

	if q.Limit > 0 && len(ordered) > q.Limit {
		ordered = ordered[:q.Limit]
	}

	page := Page{Docs: ordered}
	if n := len(ordered); n > 0 {
		page.Cursor = NewCursor(ordered[n-1], q.OrderBy, nil)
	}
	return page
}

func compareDocs(a, b Document, field string) int {
	if field != "" {
		var av, bv any
		if a.Data != nil {
			av = a.Data[field]
		}
		if b.Data != nil {
			bv = b.Data[field]
		}
		if c := CompareValues(av, bv); c != 0 {
			return c
		}
	}
	return strings.Compare(a.ID, b.ID)
}

// CompareValues orders two document field values: nil first, then bools,
// numbers, timestamps, strings. RFC 3339 strings compare as timestamps so
// JSON-encoded times keep their order.
func CompareValues(a, b any) int {
	ra, rb := rank(a), rank(b)
	if ra != rb {
		if ra < rb {
			return -1
		}
		return 1
	}
	switch ra {
	case rankBool:
		ab, bb := a.(bool), b.(bool)
		switch {
		case ab == bb:
			return 0
		case !ab:
			return -1
		default:
			return 1
		}
	case rankNumber:
		af, _ := toFloat(a)
		bf, _ := toFloat(b)
		switch {
		case af < bf:
			return -1
		case af > bf:
			return 1
		}
		return 0
	case rankTime:
		at, bt := toTime(a), toTime(b)
		return at.Compare(bt)
	case rankString:
		return strings.Compare(a.(string), b.(string))
	}
	return 0
}

const (
	rankNil = iota
	rankBool
	rankNumber
	rankTime
	rankString
	rankOther
)

func rank(v any) int {
	switch t := v.(type) {
	case nil:
		return rankNil
	case bool:
		return rankBool
	case time.Time:
		return rankTime
	case string:
		if _, err := time.Parse(time.RFC3339Nano, t); err == nil {
			return rankTime
		}
		return rankString
	}
	if _, ok := toFloat(v); ok {
		return rankNumber
	}
	return rankOther
}

func toTime(v any) time.Time {
	switch t := v.(type) {
	case time.Time:
		return t
	case string:
		parsed, _ := time.Parse(time.RFC3339Nano, t)
		return parsed
	}
	return time.Time{}
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}
