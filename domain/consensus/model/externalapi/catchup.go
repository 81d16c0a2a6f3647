package externalapi

// CatchupStatusCurrent answers a catch-up request from a peer that is not behind
const CatchupStatusCurrent = "current"

// CatchupRequest is sent by a node that wants to catch up
type CatchupRequest struct {
	LastStableMCI uint64 `json:"last_stable_mci"`
	LastKnownMCI  uint64 `json:"last_known_mci"`
}

// CatchupChain answers a CatchupRequest
type CatchupChain struct {
	Status               string         `json:"status,omitempty"`
	LastRoundIndex       uint64         `json:"last_round_index,omitempty"`
	LastMainChainIndex   uint64         `json:"last_main_chain_index,omitempty"`
	StableLastBallJoints []*DomainJoint `json:"stable_last_ball_joints,omitempty"`
}

// IsCurrent returns whether the chain says the requester is up to date
func (chain *CatchupChain) IsCurrent() bool {
	return chain.Status == CatchupStatusCurrent
}

// HashTreeRequest asks for the balls between two main chain balls
type HashTreeRequest struct {
	FromBall *DomainHash `json:"from_ball"`
	ToBall   *DomainHash `json:"to_ball"`
}

// HashTreeBall is one record of a hash tree
type HashTreeBall struct {
	Unit          *DomainHash   `json:"unit"`
	Ball          *DomainHash   `json:"ball"`
	ParentBalls   []*DomainHash `json:"parent_balls,omitempty"`
	SkiplistBalls []*DomainHash `json:"skiplist_balls,omitempty"`
	IsNonserial   bool          `json:"is_nonserial,omitempty"`
}

// PeerRoundIndex is the highest round and main chain index reported by peers
type PeerRoundIndex struct {
	RoundIndex     uint64
	MainChainIndex uint64
}
