package model

import "github.com/unitdag/unitd/domain/consensus/model/externalapi"

// PeerState holds the highest round and main chain index reported by peers
type PeerState interface {
	Update(roundIndex uint64, mainChainIndex uint64) bool
	Get() (*externalapi.PeerRoundIndex, bool)
	Subscribe() (<-chan *externalapi.PeerRoundIndex, func())
}
