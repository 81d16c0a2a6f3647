package serialization

import (
	"bytes"
	"testing"
)

type sample struct {
	B string            `json:"b"`
	A uint64            `json:"a"`
	M map[string]string `json:"m,omitempty"`
}

func TestCanonicalize(t *testing.T) {
	first, err := Canonicalize(&sample{B: "x", A: 7, M: map[string]string{"z": "1", "y": "2"}})
	if err != nil {
		t.Fatalf("Canonicalize: %+v", err)
	}
	expected := []byte(`{"a":7,"b":"x","m":{"y":"2","z":"1"}}`)
	if !bytes.Equal(first, expected) {
		t.Fatalf("TestCanonicalize: expected %s, got %s", expected, first)
	}

	second, err := CanonicalizeJSON([]byte(`{ "m": {"z":"1","y":"2"}, "b": "x", "a": 7 }`))
	if err != nil {
		t.Fatalf("CanonicalizeJSON: %+v", err)
	}
	if !bytes.Equal(first, second) {
		t.Fatalf("TestCanonicalize: encodings differ: %s != %s", first, second)
	}
}

func TestCanonicalizeKeepsLargeNumbers(t *testing.T) {
	canonical, err := CanonicalizeJSON([]byte(`{"amount":18446744073709551615}`))
	if err != nil {
		t.Fatalf("CanonicalizeJSON: %+v", err)
	}
	expected := []byte(`{"amount":18446744073709551615}`)
	if !bytes.Equal(canonical, expected) {
		t.Fatalf("TestCanonicalizeKeepsLargeNumbers: expected %s, got %s", expected, canonical)
	}
}

func TestUnmarshalStrict(t *testing.T) {
	var s sample
	err := UnmarshalStrict([]byte(`{"a":1,"b":"x","c":true}`), &s)
	if err == nil {
		t.Fatal("TestUnmarshalStrict: expected an error for an unknown field")
	}

	err = Unmarshal([]byte(`{"a":1,"b":"x","c":true}`), &s)
	if err != nil {
		t.Fatalf("Unmarshal: %+v", err)
	}
	if s.A != 1 || s.B != "x" {
		t.Fatalf("TestUnmarshalStrict: unexpected decoded value %+v", s)
	}
}
