package chash

import (
	"testing"
)

func TestFromDefinition(t *testing.T) {
	definition := []interface{}{"sig", map[string]interface{}{"pubkey": "A0B1"}}
	address, err := FromDefinition(definition)
	if err != nil {
		t.Fatalf("FromDefinition: %+v", err)
	}
	if len(address) != Length {
		t.Fatalf("TestFromDefinition: expected length %d, got %d", Length, len(address))
	}
	if !IsValid(address) {
		t.Fatalf("TestFromDefinition: %s should be valid", address)
	}

	again, err := FromDefinition([]interface{}{"sig", map[string]interface{}{"pubkey": "A0B1"}})
	if err != nil {
		t.Fatalf("FromDefinition: %+v", err)
	}
	if again != address {
		t.Fatalf("TestFromDefinition: not deterministic: %s != %s", again, address)
	}

	other, err := FromDefinition([]interface{}{"sig", map[string]interface{}{"pubkey": "A0B2"}})
	if err != nil {
		t.Fatalf("FromDefinition: %+v", err)
	}
	if other == address {
		t.Fatal("TestFromDefinition: different definitions got the same address")
	}
}

func TestIsValid(t *testing.T) {
	address, err := FromDefinition([]interface{}{"sig", map[string]interface{}{"pubkey": "X"}})
	if err != nil {
		t.Fatalf("FromDefinition: %+v", err)
	}

	tampered := []byte(address)
	if tampered[0] == 'A' {
		tampered[0] = 'B'
	} else {
		tampered[0] = 'A'
	}

	tests := []struct {
		address string
		valid   bool
	}{
		{address, true},
		{string(tampered), false},
		{address[:31], false},
		{"abcdefghijklmnopqrstuvwxyz234567", false},
	}
	for _, test := range tests {
		if IsValid(test.address) != test.valid {
			t.Errorf("IsValid(%q): expected %t", test.address, test.valid)
		}
	}
}
