package repositories

import (
	"fmt"
	"reflect"

	"go.mongodb.org/mongo-driver/bson"
)

// Canonicalize converts a document or a Fields update into the form that is persisted.
// Struct documents go through BSON encoding so omitempty fields disappear; maps lose nil
// values and typed nil pointers.
func Canonicalize(doc interface{}) (bson.M, error) {
	if isNil(doc) {
		return nil, fmt.Errorf("canonicalize: nil document")
	}

	switch d := doc.(type) {
	case Fields:
		return canonicalMap(d)
	case map[string]interface{}:
		return canonicalMap(d)
	}

	raw, err := bson.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("canonicalize: %w", err)
	}
	var out bson.M
	if err := bson.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("canonicalize: %w", err)
	}
	return out, nil
}

func canonicalMap(m map[string]interface{}) (bson.M, error) {
	clean := bson.M{}
	for k, v := range m {
		if isNil(v) {
			continue
		}
		clean[k] = v
	}
	raw, err := bson.Marshal(clean)
	if err != nil {
		return nil, fmt.Errorf("canonicalize: %w", err)
	}
	var out bson.M
	if err := bson.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("canonicalize: %w", err)
	}
	return out, nil
}

// canonicalValue returns v as it would read back from a stored document.
func canonicalValue(v interface{}) (interface{}, error) {
	if isNil(v) {
		return nil, nil
	}
	m, err := canonicalMap(map[string]interface{}{"v": v})
	if err != nil {
		return nil, err
	}
	return m["v"], nil
}

func isNil(v interface{}) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}
	return false
}
