package depositservice

import (
	"github.com/unitdag/unitd/domain/consensus/model"
)

// depositService resolves deposit addresses from the configured supernodes
type depositService struct {
	bySupernode map[string]*model.Supernode
	byDeposit   map[string]*model.Supernode

	knownBadStore model.KnownBadStore
	outputStore   model.OutputStore
}

// New instantiates a new DepositService
func New(supernodes []*model.Supernode, knownBadStore model.KnownBadStore, outputStore model.OutputStore) model.DepositService {
	ds := &depositService{
		bySupernode:   make(map[string]*model.Supernode, len(supernodes)),
		byDeposit:     make(map[string]*model.Supernode, len(supernodes)),
		knownBadStore: knownBadStore,
		outputStore:   outputStore,
	}
	for _, supernode := range supernodes {
		ds.bySupernode[supernode.Address] = supernode
		ds.byDeposit[supernode.DepositAddress] = supernode
	}
	return ds
}

func (ds *depositService) DepositAddressOfSupernode(_ model.DBReader, supernodeAddress string) (string, bool, error) {
	supernode, ok := ds.bySupernode[supernodeAddress]
	if !ok {
		return "", false, nil
	}
	return supernode.DepositAddress, true, nil
}

func (ds *depositService) SupernodeOfDepositAddress(_ model.DBReader, depositAddress string) (*model.Supernode, bool, error) {
	supernode, ok := ds.byDeposit[depositAddress]
	return supernode, ok, nil
}

// HasInvalidUnitsFromHistory returns whether the supernode ever authored a unit
// that was rejected with a unit error
func (ds *depositService) HasInvalidUnitsFromHistory(dbContext model.DBReader, supernodeAddress string) (bool, error) {
	return ds.knownBadStore.HasBadUnitsByAddress(dbContext, supernodeAddress)
}

// DepositBalance sums the unspent base outputs of depositAddress
func (ds *depositService) DepositBalance(dbContext model.DBReader, depositAddress string) (uint64, error) {
	outputs, err := ds.outputStore.OutputsByAddress(dbContext, depositAddress)
	if err != nil {
		return 0, err
	}
	var balance uint64
	for _, output := range outputs {
		if output.Asset != nil || output.IsSpent {
			continue
		}
		balance += output.Amount
	}
	return balance, nil
}
