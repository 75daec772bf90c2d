package remote

import (
	"strconv"
	"strings"
)

// Record is one platform record. Key is the platform's opaque identifier.
type Record struct {
	Table      string
	Key        string
	Attributes map[string]any
}

// Has reports whether the attribute is present and non-null.
func (r Record) Has(name string) bool {
	v, ok := r.Attributes[name]
	return ok && v != nil
}

// String returns a string attribute, or "" when absent.
func (r Record) String(name string) string {
	switch v := r.Attributes[name].(type) {
	case string:
		return v
	case nil:
		return ""
	default:
		if n, ok := toInt64(v); ok {
			return strconv.FormatInt(n, 10)
		}
		return ""
	}
}

// Int64 returns a numeric attribute, or 0 when absent.
func (r Record) Int64(name string) int64 {
	n, _ := toInt64(r.Attributes[name])
	return n
}

// Bool returns a boolean attribute, or false when absent.
func (r Record) Bool(name string) bool {
	b, _ := r.Attributes[name].(bool)
	return b
}

func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case float64:
		if n == float64(int64(n)) {
			return int64(n), true
		}
	}
	return 0, false
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int, int32, int64:
		i, _ := toInt64(n)
		return float64(i), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

// compareValues orders two attribute values. Numbers compare numerically
// and strings lexically; ok is false for incomparable values. Null sorts
// before everything.
func compareValues(a, b any) (int, bool) {
	switch {
	case a == nil && b == nil:
		return 0, true
	case a == nil:
		return -1, true
	case b == nil:
		return 1, true
	}
	if ai, ok := toInt64(a); ok {
		if bi, ok := toInt64(b); ok {
			switch {
			case ai < bi:
				return -1, true
			case ai > bi:
				return 1, true
			}
			return 0, true
		}
	}
	if af, ok := toFloat(a); ok {
		if bf, ok := toFloat(b); ok {
			switch {
			case af < bf:
				return -1, true
			case af > bf:
				return 1, true
			}
			return 0, true
		}
	}
	as, aok := a.(string)
	bs, bok := b.(string)
	if aok && bok {
		return strings.Compare(as, bs), true
	}
	if ab, aok := a.(bool); aok {
		if bb, bok := b.(bool); bok {
			switch {
			case ab == bb:
				return 0, true
			case !ab:
				return -1, true
			}
			return 1, true
		}
	}
	return 0, false
}

func valuesEqual(a, b any) bool {
	c, ok := compareValues(a, b)
	return ok && c == 0
}

// matches reports whether attrs satisfies every condition.
func matches(attrs map[string]any, conds []Condition) bool {
	for _, c := range conds {
		v := attrs[c.Attribute]
		switch c.Operator {
		case OpEq, OpIn:
			found := false
			for _, want := range c.Values {
				if valuesEqual(v, want) {
					found = true
					break
				}
			}
			if !found {
				return false
			}
		case OpGe, OpLe:
			if v == nil || len(c.Values) == 0 {
				return false
			}
			cmp, ok := compareValues(v, c.Values[0])
			if !ok {
				return false
			}
			if c.Operator == OpGe && cmp < 0 || c.Operator == OpLe && cmp > 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}
