package unitprocessor

import (
	"context"

	"github.com/unitdag/unitd/domain/consensus/model/externalapi"
	"golang.org/x/sync/errgroup"
)

// ValidateAndInsertJoints processes a batch of joints on a bounded number of
// goroutines. A joint that misses only parents of the same batch is
// processed again as long as the previous pass accepted something.
func (up *unitProcessor) ValidateAndInsertJoints(ctx context.Context, joints []*externalapi.DomainJoint) (
	[]*externalapi.ValidationResult, error) {

	results := make([]*externalapi.ValidationResult, len(joints))
	pending := make([]int, len(joints))
	for i := range joints {
		pending[i] = i
	}

	inBatch := make(map[externalapi.DomainHash]struct{}, len(joints))
	for _, joint := range joints {
		inBatch[*joint.Unit.Hash] = struct{}{}
	}
	for len(pending) > 0 {
		group, groupCtx := errgroup.WithContext(ctx)
		group.SetLimit(up.workers)
		for _, i := range pending {
			i := i
			group.Go(func() error {
				result, err := up.ValidateAndInsertJoint(groupCtx, joints[i])
				if err != nil {
					return err
				}
				results[i] = result
				return nil
			})
		}
		err := group.Wait()
		if err != nil {
			return nil, err
		}

		accepted := 0
		var retry []int
		for _, i := range pending {
			switch {
			case results[i].Kind == externalapi.ResultOK:
				accepted++
			case results[i].Kind == externalapi.ResultNeedParentUnits && allIn(results[i].MissingUnits, inBatch):
				retry = append(retry, i)
			}
		}
		if accepted == 0 {
			break
		}
		if len(retry) > 0 {
			log.Debugf("Retrying %d joints whose parents are in the same batch", len(retry))
		}
		pending = retry
	}
	return results, nil
}

func allIn(units []*externalapi.DomainHash, set map[externalapi.DomainHash]struct{}) bool {
	if len(units) == 0 {
		return false
	}
	for _, unit := range units {
		if _, ok := set[*unit]; !ok {
			return false
		}
	}
	return true
}
