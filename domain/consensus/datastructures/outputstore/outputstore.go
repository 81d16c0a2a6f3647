package outputstore

import (
	"encoding/binary"

	"github.com/unitdag/unitd/domain/consensus/database"
	"github.com/unitdag/unitd/domain/consensus/model"
	"github.com/unitdag/unitd/domain/consensus/model/externalapi"
	"github.com/unitdag/unitd/domain/consensus/utils/serialization"
	"golang.org/x/crypto/blake2b"
)

var outputsBucket = database.MakeBucket([]byte("outputs"))
var outputsByAddressBucket = database.MakeBucket([]byte("outputs-by-address"))
var spendersBucket = database.MakeBucket([]byte("spenders"))
var spendKeysByUnitBucket = database.MakeBucket([]byte("spend-keys-by-unit"))

// outputStore represents a store of payment outputs, indexed by owner
// address, and of the inputs spending them, indexed by spend key
type outputStore struct {
}

// New instantiates a new OutputStore
func New() model.OutputStore {
	return &outputStore{}
}

func (ops *outputStore) InsertOutput(dbContext model.DBWriter, output *model.OutputRecord) error {
	outputBytes, err := serialization.Marshal(output)
	if err != nil {
		return err
	}
	outpoint := outpointBytes(output.Unit, output.MessageIndex, output.OutputIndex)
	err = dbContext.Put(outputsBucket.Key(outpoint), outputBytes)
	if err != nil {
		return err
	}
	if output.Address == "" {
		return nil
	}
	return dbContext.Put(outputsByAddressBucket.Bucket([]byte(output.Address)).Key(outpoint), outpoint)
}

// Output returns the given output, or ErrNotFound
func (ops *outputStore) Output(dbContext model.DBReader, unitHash *externalapi.DomainHash,
	messageIndex, outputIndex uint32) (*model.OutputRecord, error) {

	return ops.outputByOutpoint(dbContext, outpointBytes(unitHash, messageIndex, outputIndex))
}

func (ops *outputStore) outputByOutpoint(dbContext model.DBReader, outpoint []byte) (*model.OutputRecord, error) {
	outputBytes, err := dbContext.Get(outputsBucket.Key(outpoint))
	if err != nil {
		return nil, err
	}
	output := &model.OutputRecord{}
	err = serialization.Unmarshal(outputBytes, output)
	if err != nil {
		return nil, err
	}
	return output, nil
}

func (ops *outputStore) MarkSpent(dbContext model.DBWriter, unitHash *externalapi.DomainHash,
	messageIndex, outputIndex uint32) error {

	output, err := ops.Output(dbContext, unitHash, messageIndex, outputIndex)
	if err != nil {
		return err
	}
	output.IsSpent = true
	outputBytes, err := serialization.Marshal(output)
	if err != nil {
		return err
	}
	return dbContext.Put(outputsBucket.Key(outpointBytes(unitHash, messageIndex, outputIndex)), outputBytes)
}

// OutputsByAddress returns every output owned by address, spent or not
func (ops *outputStore) OutputsByAddress(dbContext model.DBReader, address string) ([]*model.OutputRecord, error) {
	cursor, err := dbContext.Cursor(outputsByAddressBucket.Bucket([]byte(address)))
	if err != nil {
		return nil, err
	}
	defer cursor.Close()

	var outputs []*model.OutputRecord
	for cursor.Next() {
		key, err := cursor.Key()
		if err != nil {
			return nil, err
		}
		output, err := ops.outputByOutpoint(dbContext, key.Suffix())
		if err != nil {
			return nil, err
		}
		outputs = append(outputs, output)
	}
	return outputs, nil
}

func (ops *outputStore) InsertSpender(dbContext model.DBWriter, key model.SpendKey, spender *model.Spender) error {
	spenderBytes, err := serialization.Marshal(spender)
	if err != nil {
		return err
	}
	err = dbContext.Put(ops.spenderKey(key, spender.Unit, spender.MessageIndex, spender.InputIndex), spenderBytes)
	if err != nil {
		return err
	}
	digest := blake2b.Sum256([]byte(key))
	return dbContext.Put(spendKeysByUnitBucket.Bucket(spender.Unit.ByteSlice()).Key(digest[:]), []byte(key))
}

// SpendKeysOfUnit returns the spend keys of the stored inputs of unitHash
func (ops *outputStore) SpendKeysOfUnit(dbContext model.DBReader, unitHash *externalapi.DomainHash) (
	[]model.SpendKey, error) {

	cursor, err := dbContext.Cursor(spendKeysByUnitBucket.Bucket(unitHash.ByteSlice()))
	if err != nil {
		return nil, err
	}
	defer cursor.Close()

	var keys []model.SpendKey
	for cursor.Next() {
		keyBytes, err := cursor.Value()
		if err != nil {
			return nil, err
		}
		keys = append(keys, model.SpendKey(keyBytes))
	}
	return keys, nil
}

// Spenders returns every stored input with the given spend key
func (ops *outputStore) Spenders(dbContext model.DBReader, key model.SpendKey) ([]*model.Spender, error) {
	cursor, err := dbContext.Cursor(ops.spendKeyBucket(key))
	if err != nil {
		return nil, err
	}
	defer cursor.Close()

	var spenders []*model.Spender
	for cursor.Next() {
		spenderBytes, err := cursor.Value()
		if err != nil {
			return nil, err
		}
		spender := &model.Spender{}
		err = serialization.Unmarshal(spenderBytes, spender)
		if err != nil {
			return nil, err
		}
		spenders = append(spenders, spender)
	}
	return spenders, nil
}

// SetSpenderUnique sets the uniqueness flag of the inputs of unitHash with the given spend key
func (ops *outputStore) SetSpenderUnique(dbContext model.DBWriter, key model.SpendKey,
	unitHash *externalapi.DomainHash, isUnique bool) error {

	spenders, err := ops.Spenders(dbContext, key)
	if err != nil {
		return err
	}
	for _, spender := range spenders {
		if !spender.Unit.Equal(unitHash) {
			continue
		}
		spender.IsUnique = isUnique
		err := ops.InsertSpender(dbContext, key, spender)
		if err != nil {
			return err
		}
	}
	return nil
}

// spendKeyBucket returns the bucket of a spend key. Spend keys vary in length
// and are digested so that no bucket path prefixes another.
func (ops *outputStore) spendKeyBucket(key model.SpendKey) model.DBBucket {
	digest := blake2b.Sum256([]byte(key))
	return spendersBucket.Bucket(digest[:])
}

func (ops *outputStore) spenderKey(key model.SpendKey, unitHash *externalapi.DomainHash,
	messageIndex, inputIndex uint32) model.DBKey {

	return ops.spendKeyBucket(key).Key(outpointBytes(unitHash, messageIndex, inputIndex))
}

func outpointBytes(unitHash *externalapi.DomainHash, messageIndex, index uint32) []byte {
	outpoint := make([]byte, externalapi.DomainHashSize+8)
	copy(outpoint, unitHash.ByteSlice())
	binary.BigEndian.PutUint32(outpoint[externalapi.DomainHashSize:], messageIndex)
	binary.BigEndian.PutUint32(outpoint[externalapi.DomainHashSize+4:], index)
	return outpoint
}
