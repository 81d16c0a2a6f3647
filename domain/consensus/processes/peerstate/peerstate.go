package peerstate

import (
	"sync"

	"github.com/unitdag/unitd/domain/consensus/model"
	"github.com/unitdag/unitd/domain/consensus/model/externalapi"
)

// peerState is the single owner of the last round index reported by peers.
// It only moves forward.
type peerState struct {
	mtx         sync.RWMutex
	index       *externalapi.PeerRoundIndex
	subscribers map[chan *externalapi.PeerRoundIndex]struct{}
}

// New instantiates a new PeerState
func New() model.PeerState {
	return &peerState{
		subscribers: make(map[chan *externalapi.PeerRoundIndex]struct{}),
	}
}

// Update records roundIndex and mainChainIndex if both are strictly greater
// than the recorded ones, and notifies subscribers. It returns whether the
// state changed.
func (ps *peerState) Update(roundIndex uint64, mainChainIndex uint64) bool {
	if roundIndex == 0 || mainChainIndex == 0 {
		return false
	}

	ps.mtx.Lock()
	defer ps.mtx.Unlock()

	if ps.index != nil && (roundIndex <= ps.index.RoundIndex || mainChainIndex <= ps.index.MainChainIndex) {
		return false
	}
	ps.index = &externalapi.PeerRoundIndex{RoundIndex: roundIndex, MainChainIndex: mainChainIndex}
	log.Debugf("Peers are at round %d, main chain index %d", roundIndex, mainChainIndex)

	for subscriber := range ps.subscribers {
		index := *ps.index
		// Drop the stale value so that a slow subscriber sees the latest one
		select {
		case <-subscriber:
		default:
		}
		subscriber <- &index
	}
	return true
}

// Get returns the recorded index, and false if no peer reported one yet
func (ps *peerState) Get() (*externalapi.PeerRoundIndex, bool) {
	ps.mtx.RLock()
	defer ps.mtx.RUnlock()

	if ps.index == nil {
		return nil, false
	}
	index := *ps.index
	return &index, true
}

// Subscribe returns a channel that receives the latest index after every
// update, and a function that cancels the subscription and closes it
func (ps *peerState) Subscribe() (<-chan *externalapi.PeerRoundIndex, func()) {
	ps.mtx.Lock()
	defer ps.mtx.Unlock()

	subscriber := make(chan *externalapi.PeerRoundIndex, 1)
	ps.subscribers[subscriber] = struct{}{}

	var once sync.Once
	unsubscribe := func() {
		once.Do(func() {
			ps.mtx.Lock()
			defer ps.mtx.Unlock()
			delete(ps.subscribers, subscriber)
			close(subscriber)
		})
	}
	return subscriber, unsubscribe
}
