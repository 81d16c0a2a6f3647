package unitpropsstore

import (
	lru "github.com/hashicorp/golang-lru"
	"github.com/pkg/errors"
	"github.com/unitdag/unitd/domain/consensus/database"
	"github.com/unitdag/unitd/domain/consensus/database/binaryserialization"
	"github.com/unitdag/unitd/domain/consensus/model"
	"github.com/unitdag/unitd/domain/consensus/model/externalapi"
	"github.com/unitdag/unitd/domain/consensus/utils/serialization"
)

var bucket = database.MakeBucket([]byte("unit-props"))

// unitPropsStore represents a store of UnitProps. Props of stable units
// never change, so only they are cached.
type unitPropsStore struct {
	stableCache *lru.Cache
}

// New instantiates a new UnitPropsStore
func New(cacheSize int) (model.UnitPropsStore, error) {
	stableCache, err := lru.New(cacheSize)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to create a unit props cache of size %d", cacheSize)
	}
	return &unitPropsStore{stableCache: stableCache}, nil
}

// Update inserts or overwrites the props of props.Unit
func (ups *unitPropsStore) Update(dbContext model.DBWriter, props *externalapi.UnitProps) error {
	propsBytes, err := serialization.Marshal(props)
	if err != nil {
		return err
	}
	ups.stableCache.Remove(*props.Unit)
	return dbContext.Put(ups.hashAsKey(props.Unit), propsBytes)
}

// Get gets the props of the given unit. The returned props may be modified
// by the caller.
func (ups *unitPropsStore) Get(dbContext model.DBReader, unitHash *externalapi.DomainHash) (*externalapi.UnitProps, error) {
	if props, ok := ups.stableCache.Get(*unitHash); ok {
		return props.(*externalapi.UnitProps).Clone(), nil
	}

	propsBytes, err := dbContext.Get(ups.hashAsKey(unitHash))
	if err != nil {
		return nil, err
	}
	props := &externalapi.UnitProps{}
	err = serialization.Unmarshal(propsBytes, props)
	if err != nil {
		return nil, err
	}
	if props.IsStable {
		ups.stableCache.Add(*unitHash, props.Clone())
	}
	return props, nil
}

func (ups *unitPropsStore) Has(dbContext model.DBReader, unitHash *externalapi.DomainHash) (bool, error) {
	if ups.stableCache.Contains(*unitHash) {
		return true, nil
	}
	return dbContext.Has(ups.hashAsKey(unitHash))
}

func (ups *unitPropsStore) hashAsKey(hash *externalapi.DomainHash) model.DBKey {
	return bucket.Key(binaryserialization.SerializeHash(hash))
}
