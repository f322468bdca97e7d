package engine

import (
	"encoding/json"
	"math/big"
	"strconv"
	"strings"
)

// maxExactInt bounds the integers a float64 represents exactly.
const maxExactInt = 1 << 53

// CanonicalValue rewrites the numbers in v to their stored form: float64
// when the conversion is exact, json.Number for integers beyond 2^53
// and literals outside the float64 range. Maps and slices are rewritten
// in place.
func CanonicalValue(v interface{}) interface{} {
	switch typed := v.(type) {
	case json.Number:
		return canonicalNumber(typed)
	case map[string]interface{}:
		for k, val := range typed {
			typed[k] = CanonicalValue(val)
		}
		return typed
	case Document:
		for k, val := range typed {
			typed[k] = CanonicalValue(val)
		}
		return typed
	case []interface{}:
		for i, val := range typed {
			typed[i] = CanonicalValue(val)
		}
		return typed
	case int:
		return canonicalInt(int64(typed))
	case int32:
		return float64(typed)
	case int64:
		return canonicalInt(typed)
	case uint64:
		if typed <= maxExactInt {
			return float64(typed)
		}
		return json.Number(strconv.FormatUint(typed, 10))
	case float32:
		return float64(typed)
	default:
		return v
	}
}

func canonicalInt(n int64) interface{} {
	if n >= -maxExactInt && n <= maxExactInt {
		return float64(n)
	}
	return json.Number(strconv.FormatInt(n, 10))
}

func canonicalNumber(n json.Number) interface{} {
	s := n.String()
	if !strings.ContainsAny(s, ".eE") {
		i, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return n
		}
		return canonicalInt(i)
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return n
	}
	return f
}

// toRat converts any numeric value to an exact rational.
func toRat(v interface{}) (*big.Rat, bool) {
	r := new(big.Rat)
	switch n := v.(type) {
	case json.Number:
		return r.SetString(n.String())
	case float64:
		if r.SetFloat64(n) == nil {
			return nil, false
		}
	case float32:
		if r.SetFloat64(float64(n)) == nil {
			return nil, false
		}
	case int:
		r.SetInt64(int64(n))
	case int8:
		r.SetInt64(int64(n))
	case int16:
		r.SetInt64(int64(n))
	case int32:
		r.SetInt64(int64(n))
	case int64:
		r.SetInt64(n)
	case uint:
		r.SetUint64(uint64(n))
	case uint8:
		r.SetUint64(uint64(n))
	case uint16:
		r.SetUint64(uint64(n))
	case uint32:
		r.SetUint64(uint64(n))
	case uint64:
		r.SetUint64(n)
	default:
		return nil, false
	}
	return r, true
}
