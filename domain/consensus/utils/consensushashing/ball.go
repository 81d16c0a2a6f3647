package consensushashing

import (
	"sort"

	"github.com/unitdag/unitd/domain/consensus/model/externalapi"
	"github.com/unitdag/unitd/domain/consensus/utils/hashes"
)

type ball struct {
	Unit          *externalapi.DomainHash   `json:"unit"`
	ParentBalls   []*externalapi.DomainHash `json:"parent_balls,omitempty"`
	SkiplistBalls []*externalapi.DomainHash `json:"skiplist_balls,omitempty"`
	IsNonserial   bool                      `json:"is_nonserial,omitempty"`
}

// BallHash returns the ball of unit given the balls of its parents and
// skiplist units. The ball lists are sorted before hashing.
func BallHash(unit *externalapi.DomainHash, parentBalls []*externalapi.DomainHash,
	skiplistBalls []*externalapi.DomainHash, isNonserial bool) (*externalapi.DomainHash, error) {

	return hashCanonical(hashes.NewBallHashWriter(), &ball{
		Unit:          unit,
		ParentBalls:   SortedHashes(parentBalls),
		SkiplistBalls: SortedHashes(skiplistBalls),
		IsNonserial:   isNonserial,
	})
}

// SortedHashes returns a sorted copy of hashes
func SortedHashes(hashes []*externalapi.DomainHash) []*externalapi.DomainHash {
	if len(hashes) == 0 {
		return nil
	}
	sorted := externalapi.CloneHashes(hashes)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Less(sorted[j])
	})
	return sorted
}
