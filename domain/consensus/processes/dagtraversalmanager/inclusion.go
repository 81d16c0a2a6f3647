package dagtraversalmanager

import (
	"github.com/pkg/errors"
	"github.com/unitdag/unitd/domain/consensus/model"
	"github.com/unitdag/unitd/domain/consensus/model/externalapi"
)

// IsIncludedOrEqual returns whether earlier is one of later or an ancestor of one of them
func (dtm *dagTraversalManager) IsIncludedOrEqual(dbContext model.DBReader, earlier *externalapi.DomainHash,
	later []*externalapi.DomainHash) (bool, error) {

	if externalapi.HashesContain(later, earlier) {
		return true, nil
	}
	return dtm.IsIncluded(dbContext, earlier, later)
}

// IsIncluded returns whether earlier is an ancestor of any of the later units
func (dtm *dagTraversalManager) IsIncluded(dbContext model.DBReader, earlier *externalapi.DomainHash,
	later []*externalapi.DomainHash) (bool, error) {

	earlierProps, err := dtm.unitPropsStore.Get(dbContext, earlier)
	if err != nil {
		return false, errors.Wrapf(err, "failed reading the props of %s", earlier)
	}

	visited := make(map[externalapi.DomainHash]struct{})
	queue := make([]*externalapi.DomainHash, 0, len(later))
	for _, unitHash := range later {
		props, err := dtm.unitPropsStore.Get(dbContext, unitHash)
		if err != nil {
			return false, errors.Wrapf(err, "failed reading the props of %s", unitHash)
		}
		if includesByMainChain(earlierProps, props) {
			return true, nil
		}
		if props.Level <= earlierProps.Level {
			continue
		}
		visited[*unitHash] = struct{}{}
		queue = append(queue, unitHash)
	}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		unit, err := dtm.unitStore.Unit(dbContext, current)
		if err != nil {
			return false, errors.Wrapf(err, "failed reading unit %s", current)
		}
		for _, parent := range unit.ParentUnits {
			if parent.Equal(earlier) {
				return true, nil
			}
			if _, ok := visited[*parent]; ok {
				continue
			}
			visited[*parent] = struct{}{}

			parentProps, err := dtm.unitPropsStore.Get(dbContext, parent)
			if err != nil {
				return false, errors.Wrapf(err, "failed reading the props of %s", parent)
			}
			if includesByMainChain(earlierProps, parentProps) {
				return true, nil
			}
			if parentProps.Level <= earlierProps.Level {
				continue
			}
			queue = append(queue, parent)
		}
	}
	return false, nil
}

// includesByMainChain returns whether later surely includes earlier because
// it includes the main chain unit earlier was assigned to
func includesByMainChain(earlier, later *externalapi.UnitProps) bool {
	if !earlier.HasMainChainIndex {
		return false
	}
	if later.IsOnMainChain && later.HasMainChainIndex && later.MainChainIndex > earlier.MainChainIndex {
		return true
	}
	return later.HasLatestIncludedMCI && later.LatestIncludedMCI >= earlier.MainChainIndex
}

// AreRelated returns whether one of the units is an ancestor of the other
func (dtm *dagTraversalManager) AreRelated(dbContext model.DBReader, a, b *externalapi.UnitProps) (bool, error) {
	if a.Unit.Equal(b.Unit) {
		return true, nil
	}
	switch {
	case a.Level < b.Level:
		return dtm.IsIncluded(dbContext, a.Unit, []*externalapi.DomainHash{b.Unit})
	case b.Level < a.Level:
		return dtm.IsIncluded(dbContext, b.Unit, []*externalapi.DomainHash{a.Unit})
	}
	return false, nil
}
