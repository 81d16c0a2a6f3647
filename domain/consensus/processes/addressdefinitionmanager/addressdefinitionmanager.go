package addressdefinitionmanager

import (
	"github.com/unitdag/unitd/domain/consensus/database"
	"github.com/unitdag/unitd/domain/consensus/model"
	"github.com/unitdag/unitd/domain/consensus/model/externalapi"
)

// addressDefinitionManager resolves the definition of an address from its
// stable definition changes. An address that never changed its definition
// is bound to the definition whose chash it is.
type addressDefinitionManager struct {
	definitionStore model.DefinitionStore
	unitPropsStore  model.UnitPropsStore
}

// New instantiates a new AddressDefinitionManager
func New(definitionStore model.DefinitionStore, unitPropsStore model.UnitPropsStore) model.AddressDefinitionManager {
	return &addressDefinitionManager{
		definitionStore: definitionStore,
		unitPropsStore:  unitPropsStore,
	}
}

// DefinitionChashAt returns the definition chash address was bound to as of
// mci: the chash of its latest stable good definition change at or before
// mci, or the address itself
func (adm *addressDefinitionManager) DefinitionChashAt(dbContext model.DBReader, address string, mci uint64) (string, error) {
	changes, err := adm.definitionStore.Changes(dbContext, address)
	if err != nil {
		return "", err
	}

	definitionChash := address
	var latest *externalapi.UnitProps
	for _, change := range changes {
		props, err := adm.unitPropsStore.Get(dbContext, change.Unit)
		if err != nil {
			return "", err
		}
		if !props.IsStable || props.Sequence != externalapi.SequenceGood || !props.MCIAtMost(mci) {
			continue
		}
		if latest == nil || isLater(props, latest) {
			latest = props
			definitionChash = change.DefinitionChash
		}
	}
	return definitionChash, nil
}

func isLater(props, other *externalapi.UnitProps) bool {
	if props.MainChainIndex != other.MainChainIndex {
		return props.MainChainIndex > other.MainChainIndex
	}
	if props.Level != other.Level {
		return props.Level > other.Level
	}
	return other.Unit.Less(props.Unit)
}

// DefinitionAt returns the definition address was bound to as of mci, if it
// was ever revealed
func (adm *addressDefinitionManager) DefinitionAt(dbContext model.DBReader, address string, mci uint64) (
	definition []interface{}, definitionChash string, found bool, err error) {

	definitionChash, err = adm.DefinitionChashAt(dbContext, address, mci)
	if err != nil {
		return nil, "", false, err
	}
	definition, err = adm.definitionStore.Definition(dbContext, definitionChash)
	if database.IsNotFoundError(err) {
		return nil, definitionChash, false, nil
	}
	if err != nil {
		return nil, "", false, err
	}
	return definition, definitionChash, true, nil
}
