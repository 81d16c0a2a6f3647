package model

import "github.com/unitdag/unitd/domain/consensus/model/externalapi"

// CatchupManager builds and consumes catch-up chains and hash trees
type CatchupManager interface {
	PrepareCatchupChain(dbContext DBReader, request *externalapi.CatchupRequest) (*externalapi.CatchupChain, error)
	ProcessCatchupChain(dbContext DBWriter, chain *externalapi.CatchupChain) error
	ReadHashTree(dbContext DBReader, request *externalapi.HashTreeRequest) ([]*externalapi.HashTreeBall, error)
	ProcessHashTree(dbContext DBWriter, balls []*externalapi.HashTreeBall) error
	PurgeHandledBallsFromHashTree(dbContext DBWriter) error
}
