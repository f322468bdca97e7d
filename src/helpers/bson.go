package helpers

import (
	"fmt"
	"reflect"

	"go.mongodb.org/mongo-driver/bson"
)

// EncodeBSON marshals a struct or map into a BSON document.
func EncodeBSON(v interface{}) ([]byte, error) {
	bsonData, err := bson.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("error encoding BSON: %w", err)
	}
	return bsonData, nil
}

// DecodeBSON unmarshals a BSON document into out.
//
// Values decoded into interface{} come back as bson.D / bson.A; pass them
// through NormalizeBSON before treating them as plain maps and slices.
func DecodeBSON(bsonData []byte, out interface{}) error {
	if err := bson.Unmarshal(bsonData, out); err != nil {
		return fmt.Errorf("error decoding BSON: %w", err)
	}
	return nil
}

// NormalizeBSON converts the driver's document and array types into
// map[string]interface{} and []interface{}, recursively. Scalars and
// byte slices are returned unchanged.
func NormalizeBSON(v interface{}) interface{} {
	switch typed := v.(type) {
	case bson.D:
		out := make(map[string]interface{}, len(typed))
		for _, elem := range typed {
			out[elem.Key] = NormalizeBSON(elem.Value)
		}
		return out
	case bson.M:
		out := make(map[string]interface{}, len(typed))
		for k, val := range typed {
			out[k] = NormalizeBSON(val)
		}
		return out
	case map[string]interface{}:
		out := make(map[string]interface{}, len(typed))
		for k, val := range typed {
			out[k] = NormalizeBSON(val)
		}
		return out
	case bson.A:
		out := make([]interface{}, len(typed))
		for i, val := range typed {
			out[i] = NormalizeBSON(val)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(typed))
		for i, val := range typed {
			out[i] = NormalizeBSON(val)
		}
		return out
	}

	// named map and slice types, e.g. a document type the decoder used
	// as the ancestor for nested documents
	rv := reflect.ValueOf(v)
	switch {
	case rv.Kind() == reflect.Map && rv.Type().Key().Kind() == reflect.String:
		if rv.IsNil() {
			return v
		}
		out := make(map[string]interface{}, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			out[iter.Key().String()] = NormalizeBSON(iter.Value().Interface())
		}
		return out
	case rv.Kind() == reflect.Slice && rv.Type().Elem().Kind() != reflect.Uint8:
		if rv.IsNil() {
			return v
		}
		out := make([]interface{}, rv.Len())
		for i := range out {
			out[i] = NormalizeBSON(rv.Index(i).Interface())
		}
		return out
	default:
		return v
	}
}
