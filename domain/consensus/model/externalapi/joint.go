package externalapi

// DomainJoint is a unit together with its finality evidence
type DomainJoint struct {
	Unit          *DomainUnit   `json:"unit"`
	Ball          *DomainHash   `json:"ball,omitempty"`
	SkiplistUnits []*DomainHash `json:"skiplist_units,omitempty"`
	Unsigned      bool          `json:"unsigned,omitempty"`
}

// IsStable returns whether the joint carries a ball
func (joint *DomainJoint) IsStable() bool {
	return joint.Ball != nil
}

// Clone returns a deep copy of the joint
func (joint *DomainJoint) Clone() *DomainJoint {
	return &DomainJoint{
		Unit:          joint.Unit.Clone(),
		Ball:          joint.Ball,
		SkiplistUnits: CloneHashes(joint.SkiplistUnits),
		Unsigned:      joint.Unsigned,
	}
}
