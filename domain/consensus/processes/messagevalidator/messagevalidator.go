package messagevalidator

import (
	"github.com/pkg/errors"
	"github.com/unitdag/unitd/domain/consensus/model"
	"github.com/unitdag/unitd/domain/consensus/model/externalapi"
	"github.com/unitdag/unitd/domain/consensus/ruleerrors"
	"github.com/unitdag/unitd/domain/dagconfig"
	"github.com/unitdag/unitd/infrastructure/logger"
)

// messageValidator validates the messages of a unit against the ledger as
// of the unit's last ball
type messageValidator struct {
	params *dagconfig.Params

	definitionEvaluator model.DefinitionEvaluator
	roundService        model.RoundService
	depositService      model.DepositService
	dagTraversalManager model.DAGTraversalManager

	unitStore      model.UnitStore
	unitPropsStore model.UnitPropsStore
	outputStore    model.OutputStore
	assetStore     model.AssetStore
	pollStore      model.PollStore
	roundStore     model.RoundStore
}

// New instantiates a new MessageValidator
func New(params *dagconfig.Params,
	definitionEvaluator model.DefinitionEvaluator,
	roundService model.RoundService,
	depositService model.DepositService,
	dagTraversalManager model.DAGTraversalManager,
	unitStore model.UnitStore,
	unitPropsStore model.UnitPropsStore,
	outputStore model.OutputStore,
	assetStore model.AssetStore,
	pollStore model.PollStore,
	roundStore model.RoundStore) model.MessageValidator {

	return &messageValidator{
		params:              params,
		definitionEvaluator: definitionEvaluator,
		roundService:        roundService,
		depositService:      depositService,
		dagTraversalManager: dagTraversalManager,
		unitStore:           unitStore,
		unitPropsStore:      unitPropsStore,
		outputStore:         outputStore,
		assetStore:          assetStore,
		pollStore:           pollStore,
		roundStore:          roundStore,
	}
}

// ValidateMessages validates every message of unit in order. Conflicting
// spends don't fail validation: they downgrade state.Sequence and are
// recorded in state for the writer.
func (v *messageValidator) ValidateMessages(dbContext model.DBReader, unit *externalapi.DomainUnit,
	state *model.ValidationState) error {

	onEnd := logger.LogAndMeasureExecutionTime(log, "ValidateMessages")
	defer onEnd()

	if unit.IsStripped() {
		return nil
	}

	if unit.PowType == externalapi.PowTypeTrustme {
		if len(unit.Messages) != 1 || unit.Messages[0].App != externalapi.AppTrustme {
			return errors.Wrapf(ruleerrors.ErrInvalidTrustme, "a trustme unit must carry exactly one trustme message")
		}
	}

	for i, message := range unit.Messages {
		err := v.validateMessage(dbContext, unit, uint32(i), message, state)
		if err != nil {
			return errors.Wrapf(err, "message %d", i)
		}
	}

	if !state.HasBasePayment && unit.PowType != externalapi.PowTypeTrustme {
		return errors.WithStack(ruleerrors.ErrNoBasePayment)
	}
	if unit.PowType == externalapi.PowTypeEquihash && !state.HasPowEquihash {
		return errors.Wrapf(ruleerrors.ErrInvalidPoW, "unit of type %s has no %s message",
			unit.PowType, externalapi.AppPowEquihash)
	}
	if unit.PowType == externalapi.PowTypeCoinbase && !state.HasCoinbase {
		return errors.Wrapf(ruleerrors.ErrInvalidCoinbase, "unit of type %s has no coinbase input", unit.PowType)
	}

	log.Tracef("Messages of unit %s are valid, sequence %s, %d double spent inputs",
		unit.Hash, state.Sequence, len(state.DoubleSpendInputs))
	return nil
}
