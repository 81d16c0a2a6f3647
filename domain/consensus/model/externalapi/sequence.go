package externalapi

// Sequence classifies a unit with respect to conflicting spends
type Sequence string

// Sequence values
const (
	SequenceGood     Sequence = "good"
	SequenceTempBad  Sequence = "temp-bad"
	SequenceFinalBad Sequence = "final-bad"
)

func (s Sequence) String() string {
	return string(s)
}
