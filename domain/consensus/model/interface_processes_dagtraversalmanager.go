package model

import "github.com/unitdag/unitd/domain/consensus/model/externalapi"

// DAGTraversalManager answers ancestry questions and derives the DAG
// properties of new units from their parents
type DAGTraversalManager interface {
	IsIncludedOrEqual(dbContext DBReader, earlier *externalapi.DomainHash, later []*externalapi.DomainHash) (bool, error)
	IsIncluded(dbContext DBReader, earlier *externalapi.DomainHash, later []*externalapi.DomainHash) (bool, error)
	AreRelated(dbContext DBReader, a, b *externalapi.UnitProps) (bool, error)
	BestParent(dbContext DBReader, parents []*externalapi.DomainHash) (*externalapi.DomainHash, error)
	Level(dbContext DBReader, parents []*externalapi.DomainHash) (uint64, error)
	LatestIncludedMCI(dbContext DBReader, parents []*externalapi.DomainHash) (limci uint64, ok bool, err error)
	WitnessedLevel(dbContext DBReader, unit *externalapi.DomainUnit, bestParent *externalapi.DomainHash) (uint64, error)
}
