// Package serialization holds the JSON codec shared by hashing, size
// computation and the stores. Map keys are always sorted and numbers are
// kept as their literal text, so encoding the same value twice yields the
// same bytes.
package serialization

import (
	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
)

var canonicalAPI = jsoniter.Config{
	SortMapKeys: true,
	UseNumber:   true,
	EscapeHTML:  false,
}.Froze()

var strictAPI = jsoniter.Config{
	SortMapKeys:           true,
	UseNumber:             true,
	EscapeHTML:            false,
	DisallowUnknownFields: true,
}.Froze()

// Marshal encodes v with sorted map keys
func Marshal(v interface{}) ([]byte, error) {
	data, err := canonicalAPI.Marshal(v)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return data, nil
}

// Unmarshal decodes data into v, ignoring unknown fields
func Unmarshal(data []byte, v interface{}) error {
	err := canonicalAPI.Unmarshal(data, v)
	if err != nil {
		return errors.WithStack(err)
	}
	return nil
}

// UnmarshalStrict decodes data into v and fails on fields v does not declare
func UnmarshalStrict(data []byte, v interface{}) error {
	err := strictAPI.Unmarshal(data, v)
	if err != nil {
		return errors.WithStack(err)
	}
	return nil
}

// ToGeneric returns v as the maps, slices, strings, numbers and booleans
// its JSON encoding decodes into
func ToGeneric(v interface{}) (interface{}, error) {
	data, err := Marshal(v)
	if err != nil {
		return nil, err
	}
	return GenericFromJSON(data)
}

// GenericFromJSON decodes data into maps, slices, strings, json numbers and booleans
func GenericFromJSON(data []byte) (interface{}, error) {
	var generic interface{}
	err := Unmarshal(data, &generic)
	if err != nil {
		return nil, err
	}
	return generic, nil
}

// Canonicalize returns the canonical encoding of v: the encoding of its
// generic form, so that struct field order does not matter
func Canonicalize(v interface{}) ([]byte, error) {
	generic, err := ToGeneric(v)
	if err != nil {
		return nil, err
	}
	return Marshal(generic)
}

// CanonicalizeJSON returns the canonical encoding of already encoded JSON
func CanonicalizeJSON(data []byte) ([]byte, error) {
	generic, err := GenericFromJSON(data)
	if err != nil {
		return nil, err
	}
	return Marshal(generic)
}
