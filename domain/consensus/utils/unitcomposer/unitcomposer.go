// Package unitcomposer fills in the derived fields of a unit: payload hashes,
// commissions, authentifiers and the unit hash.
package unitcomposer

import (
	"sort"
	"strings"

	"github.com/pkg/errors"
	"github.com/unitdag/unitd/domain/consensus/model/externalapi"
	"github.com/unitdag/unitd/domain/consensus/utils/consensushashing"
	"github.com/unitdag/unitd/domain/consensus/utils/objectlength"
	"github.com/unitdag/unitd/domain/consensus/utils/serialization"
	"github.com/unitdag/unitd/domain/consensus/utils/signing"
)

// Change describes the output that receives whatever the inputs of the base
// payment don't send elsewhere
type Change struct {
	MessageIndex int
	OutputIndex  int
	InputTotal   uint64
}

// Compose finalizes unit in place. Authors must be sorted and every author
// must have a signer. When change is not nil the amount of the change output
// is set so that the base payment balances.
func Compose(unit *externalapi.DomainUnit, signers []*signing.Signer, coordinators []*signing.Signer,
	change *Change) error {

	signerByAddress := make(map[string]*signing.Signer, len(signers))
	for _, signer := range signers {
		signerByAddress[signer.Address] = signer
	}
	placeholder := strings.Repeat("A", signing.SignatureLength)
	for _, author := range unit.Authors {
		if _, ok := signerByAddress[author.Address]; !ok {
			return errors.Errorf("no signer for author %s", author.Address)
		}
		author.Authentifiers = map[string]string{signing.DefaultPath: placeholder}
	}

	err := hashPayloads(unit)
	if err != nil {
		return err
	}

	if unit.PowType != externalapi.PowTypeTrustme {
		err = setCommissions(unit, change)
		if err != nil {
			return err
		}
	}

	if len(coordinators) > 0 {
		sort.Slice(coordinators, func(i, j int) bool { return coordinators[i].Address < coordinators[j].Address })
		proposalHash, err := consensushashing.ProposalHashToSign(unit)
		if err != nil {
			return err
		}
		unit.Coordinators = make([]*externalapi.Author, len(coordinators))
		for i, coordinator := range coordinators {
			unit.Coordinators[i] = &externalapi.Author{
				Address:       coordinator.Address,
				Authentifiers: coordinator.Authentifiers(proposalHash),
			}
		}
	}

	hashToSign, err := consensushashing.UnitHashToSign(unit)
	if err != nil {
		return err
	}
	for _, author := range unit.Authors {
		author.Authentifiers = signerByAddress[author.Address].Authentifiers(hashToSign)
	}

	unit.Hash, err = consensushashing.UnitHash(unit)
	return err
}

func hashPayloads(unit *externalapi.DomainUnit) error {
	for _, message := range unit.Messages {
		if message.HasPayload() {
			payloadHash, err := consensushashing.PayloadHash(message.Payload)
			if err != nil {
				return err
			}
			message.PayloadHash = payloadHash
		}
		if message.PayloadURI != "" {
			message.PayloadURIHash = consensushashing.DataHash(message.PayloadURI)
		}
	}
	return nil
}

// setCommissions relies on numbers having a fixed length: the change amount
// doesn't affect the sizes it is derived from
func setCommissions(unit *externalapi.DomainUnit, change *Change) error {
	headersSize, err := objectlength.HeadersSize(unit)
	if err != nil {
		return err
	}
	payloadSize, err := objectlength.PayloadSize(unit)
	if err != nil {
		return err
	}
	unit.HeadersCommission = headersSize
	unit.PayloadCommission = payloadSize
	if change == nil {
		return nil
	}

	if change.MessageIndex >= len(unit.Messages) {
		return errors.Errorf("no message %d", change.MessageIndex)
	}
	message := unit.Messages[change.MessageIndex]
	payment := &externalapi.Payment{}
	err = serialization.Unmarshal(message.Payload, payment)
	if err != nil {
		return err
	}
	if change.OutputIndex >= len(payment.Outputs) {
		return errors.Errorf("no output %d in message %d", change.OutputIndex, change.MessageIndex)
	}
	spent := headersSize + payloadSize
	for i, output := range payment.Outputs {
		if i != change.OutputIndex {
			spent += output.Amount
		}
	}
	if spent > change.InputTotal {
		return errors.Errorf("inputs of %d can't cover %d", change.InputTotal, spent)
	}
	payment.Outputs[change.OutputIndex].Amount = change.InputTotal - spent

	message.Payload, err = serialization.Marshal(payment)
	if err != nil {
		return err
	}
	message.PayloadHash, err = consensushashing.PayloadHash(message.Payload)
	return err
}
