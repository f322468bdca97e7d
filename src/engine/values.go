package engine

import (
	"encoding/json"
	"fmt"

	"secdb/src/helpers"
)

// normalize converts v to the JSON value set by a marshal/unmarshal
// round trip, with numbers in CanonicalValue form. The result shares
// nothing with v.
func normalize(v interface{}) (interface{}, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSerializationFailure, err)
	}
	var out interface{}
	if err := helpers.DecodeJSON(raw, &out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSerializationFailure, err)
	}
	return CanonicalValue(out), nil
}

func normalizeMap(m map[string]interface{}) (map[string]interface{}, error) {
	if m == nil {
		return map[string]interface{}{}, nil
	}
	v, err := normalize(m)
	if err != nil {
		return nil, err
	}
	out, ok := v.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("%w: expected an object, got %T", ErrSerializationFailure, v)
	}
	return out, nil
}

func normalizeDocument(doc Document) (Document, error) {
	m, err := normalizeMap(doc)
	if err != nil {
		return nil, err
	}
	return Document(m), nil
}

func normalizeQuery(q Query) (Query, error) {
	if len(q) == 0 {
		return nil, nil
	}
	m, err := normalizeMap(q)
	if err != nil {
		return nil, err
	}
	return Query(m), nil
}

// cloneValue deep-copies a normalized value.
func cloneValue(v interface{}) interface{} {
	switch typed := v.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(typed))
		for k, val := range typed {
			out[k] = cloneValue(val)
		}
		return out
	case Document:
		return cloneDocument(typed)
	case []interface{}:
		out := make([]interface{}, len(typed))
		for i, val := range typed {
			out[i] = cloneValue(val)
		}
		return out
	default:
		return v
	}
}

func cloneDocument(doc Document) Document {
	out := make(Document, len(doc))
	for k, v := range doc {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneDocuments(docs []Document) []Document {
	out := make([]Document, len(docs))
	for i, doc := range docs {
		out[i] = cloneDocument(doc)
	}
	return out
}
