package engine

// Matches reports whether doc satisfies every constraint in q. A field
// missing from doc never matches, even when the query value is null.
// An empty or nil query matches everything.
func Matches(doc Document, q Query) bool {
	for field, want := range q {
		got, ok := doc[field]
		if !ok {
			return false
		}
		if !valuesEqual(got, want) {
			return false
		}
	}
	return true
}

// valuesEqual is deep equality over the JSON value set, with numbers
// compared exactly by value regardless of their Go type, so 25 equals
// 25.0 but 2^53+1 does not equal 2^53.
func valuesEqual(a, b interface{}) bool {
	if fa, ok := a.(float64); ok {
		if fb, ok := b.(float64); ok {
			return fa == fb
		}
	}
	if ra, ok := toRat(a); ok {
		rb, ok := toRat(b)
		return ok && ra.Cmp(rb) == 0
	}

	switch av := a.(type) {
	case nil:
		return b == nil
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	case bool:
		bv, ok := b.(bool)
		return ok && av == bv
	case []interface{}:
		bv, ok := b.([]interface{})
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !valuesEqual(av[i], bv[i]) {
				return false
			}
		}
		return true
	case map[string]interface{}:
		return mapsEqual(av, asMap(b))
	case Document:
		return mapsEqual(av, asMap(b))
	default:
		return false
	}
}

func asMap(v interface{}) map[string]interface{} {
	switch typed := v.(type) {
	case map[string]interface{}:
		return typed
	case Document:
		return typed
	case Query:
		return typed
	}
	return nil
}

func mapsEqual(a, b map[string]interface{}) bool {
	if b == nil || len(a) != len(b) {
		return false
	}
	for k, av := range a {
		bv, ok := b[k]
		if !ok || !valuesEqual(av, bv) {
			return false
		}
	}
	return true
}
