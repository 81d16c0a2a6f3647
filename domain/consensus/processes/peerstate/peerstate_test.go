package peerstate

import (
	"testing"
)

func TestUpdate(t *testing.T) {
	state := New()
	if _, ok := state.Get(); ok {
		t.Fatalf("expected no index before the first update")
	}

	tests := []struct {
		roundIndex     uint64
		mainChainIndex uint64
		expectedUpdate bool
		expectedRound  uint64
		expectedMCI    uint64
	}{
		{roundIndex: 0, mainChainIndex: 5, expectedUpdate: false},
		{roundIndex: 3, mainChainIndex: 10, expectedUpdate: true, expectedRound: 3, expectedMCI: 10},
		{roundIndex: 4, mainChainIndex: 10, expectedUpdate: false, expectedRound: 3, expectedMCI: 10},
		{roundIndex: 3, mainChainIndex: 11, expectedUpdate: false, expectedRound: 3, expectedMCI: 10},
		{roundIndex: 2, mainChainIndex: 20, expectedUpdate: false, expectedRound: 3, expectedMCI: 10},
		{roundIndex: 4, mainChainIndex: 11, expectedUpdate: true, expectedRound: 4, expectedMCI: 11},
	}
	for i, test := range tests {
		updated := state.Update(test.roundIndex, test.mainChainIndex)
		if updated != test.expectedUpdate {
			t.Fatalf("test %d: expected update %t, got %t", i, test.expectedUpdate, updated)
		}
		index, ok := state.Get()
		if test.expectedRound == 0 {
			if ok {
				t.Fatalf("test %d: unexpected index %+v", i, index)
			}
			continue
		}
		if !ok || index.RoundIndex != test.expectedRound || index.MainChainIndex != test.expectedMCI {
			t.Fatalf("test %d: expected %d/%d, got %+v", i, test.expectedRound, test.expectedMCI, index)
		}
	}
}

func TestSubscribe(t *testing.T) {
	state := New()
	updates, unsubscribe := state.Subscribe()

	state.Update(1, 1)
	state.Update(2, 2)
	index := <-updates
	if index.RoundIndex != 2 || index.MainChainIndex != 2 {
		t.Fatalf("expected the latest index, got %+v", index)
	}

	unsubscribe()
	unsubscribe()
	if _, ok := <-updates; ok {
		t.Fatalf("expected the channel to be closed")
	}
	if !state.Update(3, 3) {
		t.Fatalf("expected an update after unsubscribing")
	}
}
