package model

import "github.com/unitdag/unitd/domain/consensus/model/externalapi"

// AssetStore represents a store of asset definitions, their attestor lists
// and attestations
type AssetStore interface {
	InsertAsset(dbContext DBWriter, asset *AssetRecord) error
	Asset(dbContext DBReader, assetHash *externalapi.DomainHash) (*AssetRecord, error)
	HasAsset(dbContext DBReader, assetHash *externalapi.DomainHash) (bool, error)

	InsertAttestors(dbContext DBWriter, attestors *AssetAttestorsRecord) error
	Attestors(dbContext DBReader, assetHash *externalapi.DomainHash) ([]*AssetAttestorsRecord, error)

	InsertAttestation(dbContext DBWriter, attestation *AttestationRecord) error
	Attestations(dbContext DBReader, attestor string, address string) ([]*AttestationRecord, error)
}
