package model

import "github.com/unitdag/unitd/domain/consensus/model/externalapi"

// AuthorValidator resolves the definitions of a unit's authors and verifies
// their authentifiers
type AuthorValidator interface {
	ValidateAuthors(dbContext DBReader, unit *externalapi.DomainUnit, state *ValidationState) error
	ValidateAuthor(dbContext DBReader, author *externalapi.Author, unit *externalapi.DomainUnit,
		state *ValidationState, hashToSign *externalapi.DomainHash) error
}
