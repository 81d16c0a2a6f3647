package externalapi

// UnitProps are the derived DAG properties of a stored unit. Only the
// main chain fields, stability and sequence change after the unit is
// written.
type UnitProps struct {
	Unit                 *DomainHash `json:"unit"`
	Level                uint64      `json:"level"`
	WitnessedLevel       uint64      `json:"witnessed_level"`
	BestParentUnit       *DomainHash `json:"best_parent_unit,omitempty"`
	LatestIncludedMCI    uint64      `json:"latest_included_mc_index"`
	HasLatestIncludedMCI bool        `json:"has_latest_included_mc_index"`
	MainChainIndex       uint64      `json:"main_chain_index"`
	HasMainChainIndex    bool        `json:"has_main_chain_index"`
	IsOnMainChain        bool        `json:"is_on_main_chain"`
	IsStable             bool        `json:"is_stable"`
	Sequence             Sequence    `json:"sequence"`
	RoundIndex           uint64      `json:"round_index,omitempty"`
	PowType              PowType     `json:"pow_type,omitempty"`
	Timestamp            int64       `json:"timestamp,omitempty"`
	LastBallUnit         *DomainHash `json:"last_ball_unit,omitempty"`
	Authors              []string    `json:"authors"`
	IsStripped           bool        `json:"is_stripped,omitempty"`
}

// Clone returns a copy of the props
func (props *UnitProps) Clone() *UnitProps {
	clone := *props
	clone.Authors = append([]string(nil), props.Authors...)
	return &clone
}

// MCIAtMost returns whether the unit has a main chain index not above mci
func (props *UnitProps) MCIAtMost(mci uint64) bool {
	return props.HasMainChainIndex && props.MainChainIndex <= mci
}
