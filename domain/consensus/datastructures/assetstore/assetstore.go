package assetstore

import (
	"github.com/unitdag/unitd/domain/consensus/database"
	"github.com/unitdag/unitd/domain/consensus/database/binaryserialization"
	"github.com/unitdag/unitd/domain/consensus/model"
	"github.com/unitdag/unitd/domain/consensus/model/externalapi"
	"github.com/unitdag/unitd/domain/consensus/utils/serialization"
)

var assetsBucket = database.MakeBucket([]byte("assets"))
var attestorsBucket = database.MakeBucket([]byte("asset-attestors"))
var attestationsBucket = database.MakeBucket([]byte("attestations"))

// assetStore represents a store of asset definitions, asset attestor lists
// and attestations
type assetStore struct {
}

// New instantiates a new AssetStore
func New() model.AssetStore {
	return &assetStore{}
}

// InsertAsset stores an asset definition. The asset is identified by the
// unit that defined it.
func (as *assetStore) InsertAsset(dbContext model.DBWriter, asset *model.AssetRecord) error {
	assetBytes, err := serialization.Marshal(asset)
	if err != nil {
		return err
	}
	return dbContext.Put(assetsBucket.Key(asset.Unit.ByteSlice()), assetBytes)
}

// Asset returns the asset defined by assetHash, or ErrNotFound
func (as *assetStore) Asset(dbContext model.DBReader, assetHash *externalapi.DomainHash) (*model.AssetRecord, error) {
	assetBytes, err := dbContext.Get(assetsBucket.Key(assetHash.ByteSlice()))
	if err != nil {
		return nil, err
	}
	asset := &model.AssetRecord{}
	err = serialization.Unmarshal(assetBytes, asset)
	if err != nil {
		return nil, err
	}
	return asset, nil
}

func (as *assetStore) HasAsset(dbContext model.DBReader, assetHash *externalapi.DomainHash) (bool, error) {
	return dbContext.Has(assetsBucket.Key(assetHash.ByteSlice()))
}

func (as *assetStore) InsertAttestors(dbContext model.DBWriter, attestors *model.AssetAttestorsRecord) error {
	attestorsBytes, err := serialization.Marshal(attestors)
	if err != nil {
		return err
	}
	key := attestorsBucket.Bucket(attestors.Asset.ByteSlice()).Key(binaryserialization.SerializeHash(attestors.Unit))
	return dbContext.Put(key, attestorsBytes)
}

// Attestors returns every attestor list ever posted for the asset,
// including the one of its definition
func (as *assetStore) Attestors(dbContext model.DBReader, assetHash *externalapi.DomainHash) ([]*model.AssetAttestorsRecord, error) {
	cursor, err := dbContext.Cursor(attestorsBucket.Bucket(assetHash.ByteSlice()))
	if err != nil {
		return nil, err
	}
	defer cursor.Close()

	var records []*model.AssetAttestorsRecord
	for cursor.Next() {
		recordBytes, err := cursor.Value()
		if err != nil {
			return nil, err
		}
		record := &model.AssetAttestorsRecord{}
		err = serialization.Unmarshal(recordBytes, record)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, nil
}

func (as *assetStore) InsertAttestation(dbContext model.DBWriter, attestation *model.AttestationRecord) error {
	attestationBytes, err := serialization.Marshal(attestation)
	if err != nil {
		return err
	}
	key := as.attestationBucket(attestation.Attestor, attestation.Address).Key(binaryserialization.SerializeHash(attestation.Unit))
	return dbContext.Put(key, attestationBytes)
}

// Attestations returns the attestations of address by attestor
func (as *assetStore) Attestations(dbContext model.DBReader, attestor string, address string) ([]*model.AttestationRecord, error) {
	cursor, err := dbContext.Cursor(as.attestationBucket(attestor, address))
	if err != nil {
		return nil, err
	}
	defer cursor.Close()

	var records []*model.AttestationRecord
	for cursor.Next() {
		recordBytes, err := cursor.Value()
		if err != nil {
			return nil, err
		}
		record := &model.AttestationRecord{}
		err = serialization.Unmarshal(recordBytes, record)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, nil
}

func (as *assetStore) attestationBucket(attestor string, address string) model.DBBucket {
	return attestationsBucket.Bucket([]byte(attestor)).Bucket([]byte(address))
}
